// Package invoker executes one tool as an isolated subprocess under the
// stdin/stdout JSON contract: one JSON object in, one JSON object out,
// stderr reserved for error text, hard wall-clock timeout.
package invoker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"plugrun/internal/domain"
)

type Invoker struct {
	logger  *zap.Logger
	metrics domain.Metrics
	timeout time.Duration
}

type Options struct {
	Logger  *zap.Logger
	Metrics domain.Metrics
	// Timeout overrides the 30 second invocation limit; zero keeps it.
	Timeout time.Duration
}

func New(opts Options) *Invoker {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = domain.NopMetrics{}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = domain.DefaultInvokeTimeout
	}
	return &Invoker{
		logger:  logger.Named("invoker"),
		metrics: metrics,
		timeout: timeout,
	}
}

// Invoke runs the descriptor's entrypoint with the tool directory as working
// directory, feeds input as a single JSON document on stdin, and maps the
// process outcome to a typed result. It always returns a terminal Outcome;
// per-invocation problems are data, not faults.
func (iv *Invoker) Invoke(ctx context.Context, desc domain.ToolDescriptor, input map[string]any) domain.Outcome {
	started := time.Now()
	logger := iv.logger.With(zap.String("tool", desc.ID))

	outcome := iv.run(ctx, logger, desc, input)

	duration := time.Since(started)
	iv.metrics.ObserveInvocation(domain.InvocationMetric{
		ToolID:   desc.ID,
		Outcome:  outcome.Kind(),
		Duration: duration,
	})
	if outcome.OK() {
		logger.Info("invocation finished", zap.Duration("duration", duration))
	} else {
		logger.Warn("invocation failed",
			zap.Duration("duration", duration),
			zap.String("kind", string(outcome.Failure.Kind)),
			zap.Int("exitCode", outcome.Failure.ExitCode),
		)
	}
	return outcome
}

func (iv *Invoker) run(ctx context.Context, logger *zap.Logger, desc domain.ToolDescriptor, input map[string]any) domain.Outcome {
	if input == nil {
		input = map[string]any{}
	}
	payload, err := json.Marshal(input)
	if err != nil {
		return spawnFailure(err)
	}

	invokeCtx, cancel := context.WithTimeout(ctx, iv.timeout)
	defer cancel()

	iv.metrics.AddInflightInvocations(1)
	defer iv.metrics.AddInflightInvocations(-1)

	cmd := exec.CommandContext(invokeCtx, desc.Entrypoint)
	// The tool directory is exactly one level below the bundle root, so the
	// entrypoint's relative ../config.json keeps resolving to the bundle root
	// no matter where the registry root lives.
	cmd.Dir = desc.ToolDir
	groupCleanup := setupProcessHandling(cmd)
	defer groupCleanup()

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return spawnFailure(err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return spawnFailure(err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return spawnFailure(err)
	}

	if err := cmd.Start(); err != nil {
		return spawnFailure(err)
	}

	// A tool that exits without reading stdin closes the pipe under us;
	// the exit code decides the outcome, not the broken write.
	if _, err := stdin.Write(payload); err != nil {
		logger.Debug("stdin write failed", zap.Error(err))
	}
	// Closing stdin signals end-of-input to cooperative readers.
	if err := stdin.Close(); err != nil {
		logger.Debug("stdin close failed", zap.Error(err))
	}

	// Both streams drain concurrently so a flood on one can never block a
	// process flushing the other.
	outCh := make(chan []byte, 1)
	errCh := make(chan []byte, 1)
	go func() { outCh <- drain(stdout) }()
	go func() { errCh <- drain(stderr) }()

	// Wait closes the parent's pipe read ends; both drains reach EOF first so
	// a fast-exiting tool cannot lose bytes still buffered in the pipe.
	stdoutBytes := <-outCh
	stderrBytes := <-errCh
	waitErr := cmd.Wait()

	// Timeout wins over everything: a tool that was still running cannot be
	// trusted even when well-formed JSON already reached stdout.
	if invokeCtx.Err() == context.DeadlineExceeded {
		return domain.Outcome{Failure: &domain.Failure{
			Kind:   domain.FailureTimeout,
			Stderr: string(stderrBytes),
		}}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return domain.Outcome{Failure: &domain.Failure{Kind: domain.FailureTimeout, Cause: ctxErr}}
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return domain.Outcome{Failure: &domain.Failure{
				Kind:     domain.FailureNonZeroExit,
				ExitCode: exitErr.ExitCode(),
				Stderr:   string(stderrBytes),
			}}
		}
		return spawnFailure(waitErr)
	}

	// Exit code and payload are validated independently: exit 0 with a bad
	// payload is still a failure.
	output, err := parseOutput(stdoutBytes)
	if err != nil {
		return domain.Outcome{Failure: &domain.Failure{
			Kind:   domain.FailureMalformedOutput,
			Stderr: string(stderrBytes),
			Cause:  err,
		}}
	}
	return domain.Outcome{Output: output}
}

func spawnFailure(err error) domain.Outcome {
	return domain.Outcome{Failure: &domain.Failure{Kind: domain.FailureSpawn, Cause: err}}
}

// parseOutput expects exactly one JSON object: empty output, non-object
// values, and trailing garbage are all malformed.
func parseOutput(raw []byte) (map[string]any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("empty stdout")
	}
	var output map[string]any
	if err := json.Unmarshal(trimmed, &output); err != nil {
		return nil, err
	}
	if output == nil {
		return nil, errors.New("stdout is not a JSON object")
	}
	return output, nil
}

func drain(r io.Reader) []byte {
	b, _ := io.ReadAll(r)
	return b
}
