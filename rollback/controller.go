package rollback

import (
	"fmt"
	"log"

	"rbst/world"
)

const (
	DefaultHistory = 128

	// Frame rates for the headless loop. After a time sync event the
	// loop runs slower for a few frames so the peer can catch up.
	NormalRate    = 60
	ThrottledRate = 50
)

// Controller owns the live State of one match and its Config. It is driven
// by a single goroutine.
type Controller struct {
	cfg   world.Config
	state world.State

	history []savedFrame

	confirmFrame    int64
	latestConfirm   int64
	prevConfirm     int64
	deepestRollback int64
	rollbacks       int
	rolledBack      int64

	throttle int
	desync   *DesyncError

	onEvent  func(Event)
	onDesync func(*DesyncError, world.State)
}

var _ Callbacks = (*Controller)(nil)

type savedFrame struct {
	frame int64
	sum   uint32
	data  []byte
}

type Option func(*Controller)

// WithState starts the controller from s instead of a fresh match.
func WithState(s world.State) Option {
	return func(c *Controller) {
		c.state = s
	}
}

// WithHistory sets how many saved frames are kept for checksum checks.
func WithHistory(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.history = make([]savedFrame, n)
		}
	}
}

// WithEventHook is called for every event, after the controller handled it.
func WithEventHook(fn func(Event)) Option {
	return func(c *Controller) {
		c.onEvent = fn
	}
}

// WithDesyncDump receives the local state of a frame whose checksum did not
// match the peer's.
func WithDesyncDump(fn func(*DesyncError, world.State)) Option {
	return func(c *Controller) {
		c.onDesync = fn
	}
}

func NewController(cfg world.Config, opts ...Option) *Controller {
	c := &Controller{
		cfg:     cfg,
		history: make([]savedFrame, DefaultHistory),
	}
	c.state = world.NewState(&c.cfg)
	for _, opt := range opts {
		opt(c)
	}
	for i := range c.history {
		c.history[i].frame = -1
	}
	return c
}

func (c *Controller) State() world.State {
	return c.state
}

func (c *Controller) Config() world.Config {
	return c.cfg
}

func (c *Controller) Frame() int64 {
	return c.state.Frame
}

func (c *Controller) MatchOver() bool {
	return world.IsMatchOver(&c.state, &c.cfg)
}

// Advance steps the live state with already decoded inputs.
func (c *Controller) Advance(in world.InputData) world.State {
	c.state = world.Simulate(c.state, &c.cfg, in)
	return c.state
}

// AdvanceFrame decodes one input per player and steps the live state.
func (c *Controller) AdvanceFrame(inputs [][]byte) error {
	if c.desync != nil {
		return c.desync
	}
	if len(inputs) != 2 {
		return fmt.Errorf("%w: got %d", ErrInputCount, len(inputs))
	}
	p1, err := world.DecodeInput(inputs[0])
	if err != nil {
		return fmt.Errorf("player 1: %w", err)
	}
	p2, err := world.DecodeInput(inputs[1])
	if err != nil {
		return fmt.Errorf("player 2: %w", err)
	}
	c.Advance(world.InputData{P1: p1, P2: p2})
	return nil
}

// Checksum returns the checksum of the live state.
func (c *Controller) Checksum() uint32 {
	b, _ := c.state.MarshalBinary()
	return Fletcher32(b)
}

// SaveState snapshots the live state and remembers its checksum so it can
// later be compared with the peer's.
func (c *Controller) SaveState() (Snapshot, error) {
	b, err := c.state.MarshalBinary()
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{Frame: c.state.Frame, Data: b, Checksum: Fletcher32(b)}
	c.history[c.slot(snap.Frame)] = savedFrame{frame: snap.Frame, sum: snap.Checksum, data: b}
	return snap, nil
}

// LoadState replaces the live state with a snapshot. The loaded frame is
// the new confirm frame.
func (c *Controller) LoadState(snap Snapshot) error {
	current := c.state.Frame
	if err := c.state.UnmarshalBinary(snap.Data); err != nil {
		return err
	}

	c.confirmFrame = c.state.Frame
	if depth := current - c.confirmFrame; depth > 0 {
		c.rollbacks++
		c.rolledBack += depth
		if depth > c.deepestRollback {
			c.deepestRollback = depth
		}
	}
	if c.confirmFrame < c.latestConfirm {
		c.prevConfirm = c.confirmFrame
		log.Printf("rollback to frame %d, before latest confirm frame %d", c.confirmFrame, c.latestConfirm)
	} else {
		c.latestConfirm = c.confirmFrame
	}
	return nil
}

// VerifyChecksum compares the checksum saved for frame with the one the
// peer computed. A mismatch latches the controller: every later
// AdvanceFrame fails with the same *DesyncError.
func (c *Controller) VerifyChecksum(frame int64, remote uint32) error {
	if c.desync != nil {
		return c.desync
	}
	saved := c.history[c.slot(frame)]
	if saved.frame != frame {
		return fmt.Errorf("%w: %d", ErrUnknownFrame, frame)
	}
	if saved.sum == remote {
		return nil
	}

	return c.Desync(frame, saved.sum, remote)
}

// Desync latches a checksum mismatch found for frame, by VerifyChecksum or
// by the transport. The dump hook gets the state saved for frame, or the
// live state when frame is no longer saved. Only the first desync is kept.
func (c *Controller) Desync(frame int64, local, remote uint32) *DesyncError {
	if c.desync != nil {
		return c.desync
	}
	c.desync = &DesyncError{Frame: frame, Local: local, Remote: remote}
	log.Printf("%v", c.desync)
	if c.onDesync != nil {
		st := c.state
		if saved := c.history[c.slot(frame)]; saved.frame == frame {
			var old world.State
			if err := old.UnmarshalBinary(saved.data); err == nil {
				st = old
			}
		}
		c.onDesync(c.desync, st)
	}
	c.OnEvent(Event{Code: EventDesync, Frame: frame})
	return c.desync
}

// Desynced returns the latched desync, if any.
func (c *Controller) Desynced() *DesyncError {
	return c.desync
}

func (c *Controller) slot(frame int64) int {
	n := int64(len(c.history))
	return int(((frame % n) + n) % n)
}

func (c *Controller) OnEvent(e Event) {
	switch e.Code {
	case EventTimeSync:
		c.throttle = 5 * e.FramesAhead
		log.Printf("%d frames ahead of peer, throttling for %d frames", e.FramesAhead, c.throttle)
	case EventDisconnected, EventInterrupted, EventResumed, EventConnected:
		log.Printf("peer %v", e)
	}
	if c.onEvent != nil {
		c.onEvent(e)
	}
}

// Pace returns the frame rate the driving loop should run at for the next
// frame. It must be called once per frame.
func (c *Controller) Pace() int {
	if c.throttle > 0 {
		c.throttle--
		return ThrottledRate
	}
	return NormalRate
}

type Stats struct {
	Frame           int64
	ConfirmFrame    int64
	LatestConfirm   int64
	PrevConfirm     int64
	DeepestRollback int64
	Rollbacks       int
	RolledBack      int64
}

// Stats describes how far the speculative state runs ahead and how deep
// rollbacks have gone so far.
func (c *Controller) Stats() Stats {
	return Stats{
		Frame:           c.state.Frame,
		ConfirmFrame:    c.confirmFrame,
		LatestConfirm:   c.latestConfirm,
		PrevConfirm:     c.prevConfirm,
		DeepestRollback: c.deepestRollback,
		Rollbacks:       c.rollbacks,
		RolledBack:      c.rolledBack,
	}
}

func (s Stats) String() string {
	return fmt.Sprintf("frame %d, confirmed %d (%d ahead), deepest rollback %d over %d rollbacks",
		s.Frame, s.ConfirmFrame, s.Frame-s.ConfirmFrame, s.DeepestRollback, s.Rollbacks)
}
