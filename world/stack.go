package world

type PState uint8

const (
	Standby PState = iota
	Default
	Charging
	Dashing
	Hitstop
)

func (s PState) String() string {
	switch s {
	case Standby:
		return "Standby"
	case Default:
		return "Default"
	case Charging:
		return "Charging"
	case Dashing:
		return "Dashing"
	case Hitstop:
		return "Hitstop"
	}
	return "PState(?)"
}

func (s PState) valid() bool {
	return s <= Hitstop
}

// StackCap bounds how many action states a player can have layered.
const StackCap = 8

// Stack is a fixed-capacity pushdown stack of action states. The bottom
// entry is the floor and is never popped. Slots above the top are kept
// zeroed so two equal stacks are also equal as bytes.
type Stack struct {
	slots [StackCap]PState
	n     uint8
}

func NewStack(floor PState) Stack {
	var s Stack
	s.Reset(floor)
	return s
}

func (s *Stack) Reset(floor PState) {
	*s = Stack{}
	s.slots[0] = floor
	s.n = 1
}

// Top returns the current state. A zero Stack reports Default.
func (s *Stack) Top() PState {
	if s.n == 0 {
		return Default
	}
	return s.slots[s.n-1]
}

// Push layers st on top. A full stack replaces its top instead of growing.
func (s *Stack) Push(st PState) {
	if s.n == 0 {
		s.Reset(Default)
	}
	if int(s.n) == StackCap {
		s.slots[s.n-1] = st
		return
	}
	s.slots[s.n] = st
	s.n++
}

// Pop drops the top state. Popping the floor does nothing.
func (s *Stack) Pop() {
	if s.n <= 1 {
		return
	}
	s.n--
	s.slots[s.n] = 0
}

func (s *Stack) Len() int {
	return int(s.n)
}

// At returns the i-th state from the bottom.
func (s *Stack) At(i int) PState {
	return s.slots[i]
}
