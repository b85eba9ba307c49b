package domain

// InstructionsLimit is the hard character bound applied when relaying bundle
// instructions for display.
const InstructionsLimit = 5000

// RelayInstructions returns a bundle's free-text instructions for verbatim
// display. Text longer than InstructionsLimit characters is cut at exactly
// that boundary; no ellipsis is injected and the content is never
// interpreted. The second return is false when the bundle has none.
func RelayInstructions(m BundleManifest) (string, bool) {
	if m.Instructions == "" {
		return "", false
	}
	runes := []rune(m.Instructions)
	if len(runes) <= InstructionsLimit {
		return m.Instructions, true
	}
	return string(runes[:InstructionsLimit]), true
}
