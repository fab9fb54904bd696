package status

import (
	"fmt"
	"io"
)

// StdoutReporter prints status/progress changes to a writer, gated by
// a --quiet-style flag carried as a value instead of a package-level
// boolean.
type StdoutReporter struct {
	Out   io.Writer
	Quiet bool

	lastPercent int
}

// StatusChanged prints the new lifecycle state, unless quiet.
func (r *StdoutReporter) StatusChanged(s Status) {
	if r.Quiet {
		return
	}
	fmt.Fprintf(r.Out, "%s\n", s)
}

// ProgressChanged prints whole-percent progress updates, unless quiet.
// Updates below a full percentage point are coalesced to avoid
// spamming the terminal.
func (r *StdoutReporter) ProgressChanged(p float64) {
	if r.Quiet {
		return
	}
	percent := int(p * 100)
	if percent == r.lastPercent {
		return
	}
	r.lastPercent = percent
	fmt.Fprintf(r.Out, "  %d%%\n", percent)
}
