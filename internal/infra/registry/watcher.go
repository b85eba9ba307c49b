package registry

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const reloadDebounce = 200 * time.Millisecond

// Watch starts a background watcher that rescans the root after install or
// update activity settles. It is best effort; an explicit Scan remains the
// authoritative reload trigger. Safe to call once; later calls are no-ops.
func (r *Registry) Watch(ctx context.Context) {
	r.watchOnce.Do(func() {
		go r.runWatcher(ctx)
	})
}

func (r *Registry) runWatcher(ctx context.Context) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		r.logger.Warn("bundle watcher failed", zap.Error(err))
		return
	}
	defer watcher.Close()

	if err := watcher.Add(r.root); err != nil {
		r.logger.Warn("bundle watcher add failed", zap.String("path", r.root), zap.Error(err))
		return
	}

	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-watcher.Errors:
			if err != nil {
				r.logger.Warn("bundle watcher error", zap.Error(err))
			}
		case <-watcher.Events:
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(reloadDebounce)
		case <-timerChan(timer):
			timer = nil
			if err := r.Scan(ctx); err != nil {
				r.logger.Warn("bundle rescan failed", zap.Error(err))
			}
		}
	}
}

func timerChan(timer *time.Timer) <-chan time.Time {
	if timer == nil {
		return nil
	}
	return timer.C
}
