package rollback

import (
	"fmt"

	"rbst/world"
)

const NilFrame int64 = -1

// StateBuffer keeps the last few states of a match together with the inputs
// that produced them, so that a late input correction can be replayed on
// top of the last state it did not affect. Spectators use it in place of a
// rollback transport.
type StateBuffer struct {
	cfg          world.Config
	entries      []entry
	index        int
	currentFrame int64
}

type entry struct {
	state world.State
	// input is what produced state from the entry before it.
	input world.InputData
}

func newRingBuffer(capacity int) []entry {
	entries := make([]entry, capacity)
	for i := range entries {
		entries[i].state.Frame = NilFrame
	}
	return entries
}

func NewStateBuffer(cfg world.Config, capacity int, initial world.State) *StateBuffer {
	if capacity < 2 {
		capacity = 2
	}
	s := &StateBuffer{
		cfg:          cfg,
		entries:      newRingBuffer(capacity),
		currentFrame: NilFrame,
	}
	s.add(initial, world.NeutralInputData())
	return s
}

func (s *StateBuffer) Frame() int64 {
	return s.currentFrame
}

func (s *StateBuffer) Current() world.State {
	return s.entries[s.index].state
}

// State returns the buffered state of frame, if it is still held.
func (s *StateBuffer) State(frame int64) (world.State, bool) {
	i := s.find(frame)
	if i < 0 {
		return world.State{}, false
	}
	return s.entries[i].state, true
}

func (s *StateBuffer) add(state world.State, in world.InputData) {
	index := (s.index + 1) % len(s.entries)
	if s.entries[s.index].state.Frame == NilFrame {
		index = s.index
	}
	s.index = index
	s.entries[index] = entry{state: state, input: in}
	s.currentFrame = state.Frame
}

// Push simulates the next frame with in.
func (s *StateBuffer) Push(in world.InputData) world.State {
	next := world.Simulate(s.Current(), &s.cfg, in)
	s.add(next, in)
	return next
}

func (s *StateBuffer) find(frame int64) int {
	if frame == NilFrame {
		return -1
	}
	for i := range s.entries {
		if s.entries[i].state.Frame == frame {
			return i
		}
	}
	return -1
}

func (s *StateBuffer) walkNextStates(index int, steps int, callback func(prev, next int)) {
	for i := 0; i < steps; i++ {
		prev := (index + i) % len(s.entries)
		callback(prev, (prev+1)%len(s.entries))
	}
}

// Correct replaces the input that produced frame and replays every later
// buffered frame on top of it. It returns how many states were simulated.
// Correcting a frame to the input it already had is a no-op.
func (s *StateBuffer) Correct(frame int64, in world.InputData) (int, error) {
	if frame > s.currentFrame {
		return 0, fmt.Errorf("%w: correction for frame %d ahead of current frame %d", ErrUnknownFrame, frame, s.currentFrame)
	}
	prev := s.find(frame - 1)
	if prev < 0 {
		return 0, fmt.Errorf("%w: frame %d is older than the buffer", ErrUnknownFrame, frame)
	}
	at := (prev + 1) % len(s.entries)
	if s.entries[at].input == in {
		return 0, nil
	}
	s.entries[at].input = in

	steps := int(s.currentFrame - frame + 1)
	s.walkNextStates(prev, steps, func(p, n int) {
		s.entries[n].state = world.Simulate(s.entries[p].state, &s.cfg, s.entries[n].input)
	})
	return steps, nil
}

// Clear drops everything but the current state.
func (s *StateBuffer) Clear() {
	current := s.entries[s.index]
	s.entries = newRingBuffer(len(s.entries))
	s.index = 0
	s.currentFrame = NilFrame
	s.add(current.state, current.input)
}
