package client

import (
	"testing"

	"rbst/fixed"
	"rbst/world"
)

type fakeKeys struct {
	down    map[int]bool
	pressed map[int]bool
	buttons map[int]bool
	dx      int
	focused bool
}

func (k *fakeKeys) IsKeyDown(key int) bool { return k.down[key] }
func (k *fakeKeys) IsKeyPressed(key int) bool { return k.pressed[key] }
func (k *fakeKeys) IsButtonPressed(button int) bool { return k.buttons[button] }
func (k *fakeKeys) MouseDeltaX() int { return k.dx }
func (k *fakeKeys) Focused() bool { return k.focused }

const (
	keyW = 87
	keyA = 65
	keyS = 83
	keyD = 68
	keyQ = 81
	keyE = 69
	keyF = 70
)

func testBindings() Bindings {
	b := DefaultBindings()
	b.Direction = DirectionBindings{Forward: keyW, Back: keyS, Left: keyA, Right: keyD}
	b.Attack.FireKey = keyQ
	b.Attack.AltFireKey = keyE
	b.Attack.DashKey = keyF
	b.Attack.FireBtn = 0
	return b
}

func TestSampleMovement(t *testing.T) {
	b := testBindings()
	tests := []struct {
		down []int
		want world.MoveInput
	}{
		{nil, world.MoveNeutral},
		{[]int{keyW}, world.MoveForward},
		{[]int{keyW, keyA}, world.MoveForLeft},
		{[]int{keyS, keyD}, world.MoveBackRight},
		{[]int{keyW, keyS}, world.MoveNeutral},
		{[]int{keyA, keyD, keyS}, world.MoveBack},
	}
	for _, test := range tests {
		keys := &fakeKeys{down: map[int]bool{}}
		for _, k := range test.down {
			keys.down[k] = true
		}
		if got := Sample(&b, keys).Move; got != test.want {
			t.Fatalf("keys %v: move = %d, want %d", test.down, got, test.want)
		}
	}
}

func TestSampleAttackPrecedence(t *testing.T) {
	b := testBindings()
	keys := &fakeKeys{pressed: map[int]bool{keyQ: true, keyE: true}}
	if got := Sample(&b, keys).Attack; got != world.AttackAltShot {
		t.Fatalf("attack = %d, want alt shot over shot", got)
	}
	keys.pressed[keyF] = true
	if got := Sample(&b, keys).Attack; got != world.AttackDash {
		t.Fatalf("attack = %d, want dash over alt shot", got)
	}

	// Mouse button 0 is bound to fire.
	keys = &fakeKeys{buttons: map[int]bool{0: true}}
	if got := Sample(&b, keys).Attack; got != world.AttackShot {
		t.Fatalf("attack = %d, want shot from the mouse button", got)
	}
}

func TestSampleLook(t *testing.T) {
	b := testBindings()
	b.Mouse.Sensitivity = "0.5"

	keys := &fakeKeys{dx: 10}
	if got := Sample(&b, keys).Look; got != 0 {
		t.Fatalf("look = %v without focus, want 0", got)
	}

	keys.focused = true
	want := fixed.MustParse("0.5").Mul(fixed.FromInt(10).Mul(fixed.DegToRad))
	if got := Sample(&b, keys).Look; got != want {
		t.Fatalf("look = %v, want %v", got, want)
	}

	keys.dx = 100000
	if got := Sample(&b, keys).Look; got.Raw() <= 0 {
		t.Fatalf("look = %v for a huge delta, want a positive turn", got)
	}
}

func TestSensitivityFallsBack(t *testing.T) {
	b := DefaultBindings()
	b.Mouse.Sensitivity = "fast"
	if got := b.SensitivityNum(); got != fixed.One {
		t.Fatalf("sensitivity = %v, want 1", got)
	}
}

func TestBotIsRepeatable(t *testing.T) {
	a, b := NewBot(42), NewBot(42)
	attacks := 0
	for i := 0; i < 1000; i++ {
		x, y := a.Next(), b.Next()
		if x != y {
			t.Fatalf("input %d: %v != %v", i, x, y)
		}
		if !x.Move.Valid() || x.Attack > world.AttackDash {
			t.Fatalf("input %d: %v is not a valid input", i, x)
		}
		if x.Attack != world.AttackNone {
			attacks++
		}
	}
	if attacks == 0 || attacks > 200 {
		t.Fatalf("%d attacks in 1000 frames, want a few", attacks)
	}
}
