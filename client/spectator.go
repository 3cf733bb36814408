package client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"nhooyr.io/websocket"

	"rbst/replay"
	"rbst/rollback"
	"rbst/world"
)

// SpectatorHistory is how many frames a spectator keeps for late
// corrections from the relay.
const SpectatorHistory = 128

var ErrNoMatch = errors.New("client: frame before match header")

// Spectator follows a published match. Frames arrive as the publisher
// simulated them, so a frame can arrive again with corrected inputs after
// the publisher rolled back.
type Spectator struct {
	cfg         world.Config
	fingerprint uint32

	mu     sync.Mutex
	buf    *rollback.StateBuffer
	header *replay.Header
}

func NewSpectator(cfg world.Config) (*Spectator, error) {
	fp, err := replay.Fingerprint(cfg)
	if err != nil {
		return nil, err
	}
	return &Spectator{cfg: cfg, fingerprint: fp}, nil
}

// State returns the latest known state of the match.
func (s *Spectator) State() world.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buf == nil {
		return world.NewState(&s.cfg)
	}
	return s.buf.Current()
}

// Header returns the header of the match being watched, if any.
func (s *Spectator) Header() (replay.Header, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.header == nil {
		return replay.Header{}, false
	}
	return *s.header, true
}

// Apply handles one relay message.
func (s *Spectator) Apply(msg []byte) error {
	rec, _, err := replay.ConsumeRecord(msg)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.Header != nil {
		if rec.Header.Config != s.fingerprint {
			return fmt.Errorf("%w: match %v", replay.ErrConfigMismatch, rec.Header.MatchID)
		}
		s.header = rec.Header
		s.buf = rollback.NewStateBuffer(s.cfg, SpectatorHistory, world.NewState(&s.cfg))
		log.Printf("watching match %v", rec.Header.MatchID)
		return nil
	}
	if s.buf == nil {
		return ErrNoMatch
	}

	f := rec.Frame
	switch {
	case f.Frame == s.buf.Frame()+1:
		s.buf.Push(f.Input)
	case f.Frame <= s.buf.Frame():
		if _, err := s.buf.Correct(f.Frame, f.Input); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: frame %d after frame %d", replay.ErrBadRecord, f.Frame, s.buf.Frame())
	}

	st, _ := s.buf.State(f.Frame)
	b, err := st.MarshalBinary()
	if err != nil {
		return err
	}
	if sum := rollback.Fletcher32(b); sum != f.Checksum {
		return &rollback.DesyncError{Frame: f.Frame, Local: sum, Remote: f.Checksum}
	}
	return nil
}

// Run watches the relay at url until ctx is done or the relay hangs up.
func (s *Spectator) Run(ctx context.Context, url string) error {
	c, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return err
	}
	defer c.Close(websocket.StatusInternalError, "")

	for {
		typ, msg, err := c.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				return nil
			}
			return err
		}
		if typ != websocket.MessageBinary {
			continue
		}
		if err := s.Apply(msg); err != nil {
			c.Close(websocket.StatusPolicyViolation, "bad record")
			return err
		}
	}
}
