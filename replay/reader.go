package replay

import (
	"errors"
	"fmt"
	"io"
	"log"

	"rbst/rollback"
	"rbst/world"
)

type Reader struct {
	header Header
	buf    []byte
}

// NewReader reads the whole replay from r and checks its header.
func NewReader(r io.Reader) (*Reader, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty replay", ErrBadHeader)
	}
	rec, n, err := ConsumeRecord(b)
	if err != nil {
		return nil, err
	}
	if rec.Header == nil {
		return nil, fmt.Errorf("%w: replay does not start with a header", ErrBadHeader)
	}
	return &Reader{header: *rec.Header, buf: b[n:]}, nil
}

func (r *Reader) Header() Header {
	return r.header
}

// Next returns the next frame, or io.EOF after the last one.
func (r *Reader) Next() (Frame, error) {
	if len(r.buf) == 0 {
		return Frame{}, io.EOF
	}
	rec, n, err := ConsumeRecord(r.buf)
	if err != nil {
		return Frame{}, err
	}
	r.buf = r.buf[n:]
	if rec.Frame == nil {
		return Frame{}, fmt.Errorf("%w: second header", ErrBadRecord)
	}
	return *rec.Frame, nil
}

// Play simulates a replay under cfg from the start of a match and checks
// every frame against its recorded checksum. It returns the final state
// and the number of frames played.
func Play(cfg world.Config, r io.Reader) (world.State, int, error) {
	rd, err := NewReader(r)
	if err != nil {
		return world.State{}, 0, err
	}
	fp, err := Fingerprint(cfg)
	if err != nil {
		return world.State{}, 0, err
	}
	if rd.Header().Config != fp {
		return world.State{}, 0, fmt.Errorf("%w: %08x, want %08x", ErrConfigMismatch, rd.Header().Config, fp)
	}
	log.Printf("playing match %v", rd.Header().MatchID)

	ctrl := rollback.NewController(cfg, rollback.WithHistory(1))
	played := 0
	for {
		f, err := rd.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return ctrl.State(), played, err
		}
		if f.Frame != ctrl.Frame()+1 {
			return ctrl.State(), played, fmt.Errorf("%w: frame %d follows frame %d", ErrBadRecord, f.Frame, ctrl.Frame())
		}
		ctrl.Advance(f.Input)
		if _, err := ctrl.SaveState(); err != nil {
			return ctrl.State(), played, err
		}
		if err := ctrl.VerifyChecksum(f.Frame, f.Checksum); err != nil {
			return ctrl.State(), played, err
		}
		played++
	}
	return ctrl.State(), played, nil
}
