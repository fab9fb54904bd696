// Package uploader hosts the orchestrator that drives a complete
// upload session over a pkg/protocol.Uploader: handshake, erase,
// write, verify, run/reset and an optional post-run step, as a single
// reusable plan operating over an arbitrary list of segments.
package uploader

import (
	"context"
	"os/exec"

	"github.com/aduc70x/aducupload/pkg/image"
	"github.com/aduc70x/aducupload/pkg/protocol"
	"github.com/aduc70x/aducupload/pkg/status"
)

// Flags selects which optional phases of the plan run, mirroring the
// CLI flags this program exposes.
type Flags struct {
	Verify  bool
	Run     bool
	Reset   bool
	NoErase bool

	// PostRun, if non-empty, is a shell command invoked after a
	// successful upload.
	PostRun string
}

// Orchestrator drives a *protocol.Uploader through a full upload plan.
// It holds no state of its own beyond the Uploader it wraps, so a
// caller can build and discard one per session.
type Orchestrator struct {
	up *protocol.Uploader
}

// New builds an Orchestrator over an already-constructed Uploader.
func New(up *protocol.Uploader) *Orchestrator {
	return &Orchestrator{up: up}
}

// progressTracker maps bytes-sent-so-far onto the [0,1] range the
// Reporter expects, splitting it 66/34 between writing and verifying
// when both run, or giving writing the whole range otherwise.
type progressTracker struct {
	reporter   status.Reporter
	total      int
	writeShare float64
}

func newProgressTracker(reporter status.Reporter, total int, verify bool) *progressTracker {
	share := 1.0
	if verify {
		share = 0.66
	}
	return &progressTracker{reporter: reporter, total: total, writeShare: share}
}

func (p *progressTracker) writeProgress(sent int) {
	if p.total == 0 {
		p.reporter.ProgressChanged(p.writeShare)
		return
	}
	p.reporter.ProgressChanged(p.writeShare * float64(sent) / float64(p.total))
}

func (p *progressTracker) verifyProgress(sent int) {
	if p.total == 0 {
		p.reporter.ProgressChanged(1.0)
		return
	}
	p.reporter.ProgressChanged(p.writeShare + (1.0-p.writeShare)*float64(sent)/float64(p.total))
}

// UploadSegments runs the full plan against an ordered, disjoint list
// of segments: handshake, erase (unless NoErase), write, verify (if
// requested), run or reset, and an optional post-run command.
func (o *Orchestrator) UploadSegments(ctx context.Context, segments []image.Segment, cfg PageConfig, flags Flags) error {
	if err := image.Validate(segments); err != nil {
		return err
	}

	if err := o.up.Handshake(ctx); err != nil {
		return err
	}

	total := 0
	for _, s := range segments {
		total += len(s.Bytes)
	}
	progress := newProgressTracker(o.reporter(), total, flags.Verify)

	if !flags.NoErase {
		for _, seg := range segments {
			nPages := pagesFor(len(seg.Bytes), cfg.PageSize)
			if err := o.up.Erase(seg.Start, nPages); err != nil {
				return err
			}
		}
	}

	sent := 0
	for _, seg := range segments {
		for i, chunk := range chunksPadded(seg.Bytes, cfg.ChunkSize, seg.Start) {
			if err := o.up.Write(chunk.addr, chunk.data); err != nil {
				return err
			}
			// Progress counts logical (unpadded) bytes sent, not the
			// padding appended to the final chunk of a segment.
			sent += logicalChunkLen(len(seg.Bytes), cfg.ChunkSize, i)
			progress.writeProgress(sent)
		}
	}

	if flags.Verify {
		sent = 0
		for _, seg := range segments {
			for _, chunk := range chunksUnpadded(seg.Bytes, cfg.ChunkSize, seg.Start) {
				if err := o.up.Verify(chunk.addr, chunk.data); err != nil {
					return err
				}
				sent += len(chunk.data)
				progress.verifyProgress(sent)
			}
		}
	}

	if flags.Run {
		if err := o.up.Run(); err != nil {
			return err
		}
	} else if flags.Reset {
		if err := o.up.Reset(); err != nil {
			return err
		}
	}

	if flags.PostRun != "" {
		o.reporter().StatusChanged(status.PostStep)
		if err := runPostStep(ctx, flags.PostRun); err != nil {
			o.reporter().StatusChanged(status.PostStepFailed)
			return err
		}
		o.reporter().StatusChanged(status.PostStepSucceeded)
	}

	o.reporter().StatusChanged(status.Done)
	return nil
}

func (o *Orchestrator) reporter() status.Reporter {
	return o.up.Reporter()
}

func runPostStep(ctx context.Context, command string) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	if err := cmd.Run(); err != nil {
		exitCode := -1
		if ee, ok := err.(*exec.ExitError); ok {
			exitCode = ee.ExitCode()
		}
		return protocol.NewPostStepError(exitCode, err)
	}
	return nil
}

// PageConfig carries the erase-page and write/verify chunk sizes the
// orchestrator needs, decoupling it from config.Config's other,
// connection-only fields.
type PageConfig struct {
	PageSize  int
	ChunkSize int
}

// logicalChunkLen returns how many real (unpadded) bytes chunk index i
// of a segLen-byte segment contributes, so progress tracking never
// counts the zero padding appended to a segment's final chunk.
func logicalChunkLen(segLen, chunkSize, i int) int {
	off := i * chunkSize
	remaining := segLen - off
	if remaining > chunkSize {
		return chunkSize
	}
	if remaining < 0 {
		return 0
	}
	return remaining
}

func pagesFor(byteLen, pageSize int) int {
	if byteLen == 0 {
		return 1
	}
	n := (byteLen + pageSize - 1) / pageSize
	if n < 1 {
		n = 1
	}
	return n
}

type chunk struct {
	addr uint32
	data []byte
}

// chunksPadded slices data into fixed-size pieces, padding the final
// short chunk with 0x00 up to chunkSize.
func chunksPadded(data []byte, chunkSize int, base uint32) []chunk {
	var out []chunk
	for off := 0; off < len(data); off += chunkSize {
		end := off + chunkSize
		var piece []byte
		if end <= len(data) {
			piece = data[off:end]
		} else {
			piece = make([]byte, chunkSize)
			copy(piece, data[off:])
		}
		out = append(out, chunk{addr: base + uint32(off), data: piece})
	}
	return out
}

// chunksUnpadded slices data the same way but never pads the final
// chunk.
func chunksUnpadded(data []byte, chunkSize int, base uint32) []chunk {
	var out []chunk
	for off := 0; off < len(data); off += chunkSize {
		end := off + chunkSize
		if end > len(data) {
			end = len(data)
		}
		out = append(out, chunk{addr: base + uint32(off), data: data[off:end]})
	}
	return out
}
