package replay

import (
	"errors"
	"fmt"
	"io"

	"rbst/world"
)

var ErrFrameConfirmed = errors.New("replay: frame already confirmed")

// Recorder writes a replay as frames get confirmed. Unconfirmed frames are
// held back because a rollback may record them again with other inputs.
type Recorder struct {
	w         io.Writer
	header    Header
	confirmed int64
	pending   []Frame
	buf       []byte
}

// NewRecorder writes the header to w.
func NewRecorder(w io.Writer, h Header) (*Recorder, error) {
	r := &Recorder{w: w, header: h}
	if _, err := w.Write(AppendHeader(nil, h)); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Recorder) Header() Header {
	return r.header
}

// Record stores the input that produced frame. Recording a frame again
// drops every later unconfirmed frame, since they were simulated from the
// state it replaces.
func (r *Recorder) Record(frame int64, in world.InputData, checksum uint32) error {
	if frame <= r.confirmed {
		return fmt.Errorf("%w: %d", ErrFrameConfirmed, frame)
	}
	i := int(frame - r.confirmed - 1)
	if i > len(r.pending) {
		return fmt.Errorf("replay: frame %d recorded before frame %d", frame, r.confirmed+int64(len(r.pending))+1)
	}
	f := Frame{Frame: frame, Input: in, Checksum: checksum}
	r.pending = append(r.pending[:i], f)
	return nil
}

// Confirm writes every pending frame up to and including frame.
func (r *Recorder) Confirm(frame int64) error {
	n := int(frame - r.confirmed)
	if n <= 0 {
		return nil
	}
	if n > len(r.pending) {
		n = len(r.pending)
	}
	return r.flush(n)
}

func (r *Recorder) flush(n int) error {
	var err error
	written := 0
	for _, f := range r.pending[:n] {
		r.buf = AppendFrame(r.buf[:0], f)
		if _, err = r.w.Write(r.buf); err != nil {
			break
		}
		r.confirmed = f.Frame
		written++
	}
	r.pending = append(r.pending[:0], r.pending[written:]...)
	return err
}

// Close writes the frames that are still pending. The writer is left open.
func (r *Recorder) Close() error {
	return r.flush(len(r.pending))
}
