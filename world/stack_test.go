package world

import "testing"

func TestStackFloor(t *testing.T) {
	s := NewStack(Default)
	s.Pop()
	s.Pop()
	if s.Len() != 1 || s.Top() != Default {
		t.Fatalf("after popping the floor: len = %d, top = %v, want 1, Default", s.Len(), s.Top())
	}
}

func TestStackRestoresUnderlyingState(t *testing.T) {
	s := NewStack(Default)
	s.Push(Dashing)
	s.Push(Hitstop)
	s.Pop()
	if s.Top() != Dashing {
		t.Fatalf("top = %v, want Dashing", s.Top())
	}
}

func TestStackOverflowReplacesTop(t *testing.T) {
	s := NewStack(Default)
	for i := 0; i < StackCap+3; i++ {
		s.Push(Hitstop)
	}
	s.Push(Charging)
	if s.Len() != StackCap {
		t.Fatalf("len = %d, want %d", s.Len(), StackCap)
	}
	if s.Top() != Charging {
		t.Fatalf("top = %v, want Charging", s.Top())
	}
	if s.At(0) != Default {
		t.Fatalf("floor = %v, want Default", s.At(0))
	}
}

func TestStackPopZeroesSlot(t *testing.T) {
	a := NewStack(Default)
	b := NewStack(Default)
	b.Push(Hitstop)
	b.Pop()
	if a != b {
		t.Fatalf("stack after push/pop = %+v, want %+v", b, a)
	}
}
