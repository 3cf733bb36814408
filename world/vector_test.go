package world

import (
	"testing"

	"rbst/fixed"
)

func TestClosest(t *testing.T) {
	origin := Vec2{}
	dir := Right()

	got := Closest(origin, dir, V(fixed.FromInt(3), fixed.FromInt(2)))
	if got != fixed.FromInt(2) {
		t.Fatalf("Closest ahead = %v, want 2", got)
	}
	got = Closest(origin, dir, V(fixed.FromInt(-3), 0))
	if got != ClosestBehind {
		t.Fatalf("Closest behind = %v, want %v", got, ClosestBehind)
	}
}

func TestProjectReject(t *testing.T) {
	v := V(fixed.FromInt(3), fixed.FromInt(4))
	if got := v.Project(Right()); !got.Equal(V(fixed.FromInt(3), 0)) {
		t.Fatalf("Project = %v, want (3, 0)", got)
	}
	if got := v.Reject(Right()); !got.Equal(V(0, fixed.FromInt(4))) {
		t.Fatalf("Reject = %v, want (0, 4)", got)
	}
	if got := v.Len(); got != fixed.FromInt(5) {
		t.Fatalf("Len = %v, want 5", got)
	}
}

func TestNormalizeTo(t *testing.T) {
	if got := (Vec2{}).NormalizeTo(fixed.One); !got.IsZero() {
		t.Fatalf("NormalizeTo on zero = %v, want zero", got)
	}
	got := V(0, fixed.FromInt(-8)).NormalizeTo(fixed.FromInt(2))
	if !got.Equal(V(0, fixed.FromInt(-2))) {
		t.Fatalf("NormalizeTo = %v, want (0, -2)", got)
	}
	// Vectors a few raw units long still rescale to the requested length.
	if got := V(fixed.FromRaw(1), 0).NormalizeTo(fixed.FromFraction(1, 5)); got != V(fixed.FromFraction(1, 5), 0) {
		t.Fatalf("NormalizeTo on one raw unit = %v, want (0.2, 0)", got)
	}
	if got := V(fixed.FromRaw(3), fixed.FromRaw(-4)).NormalizeTo(fixed.FromInt(5)); got != V(fixed.FromInt(3), fixed.FromInt(-4)) {
		t.Fatalf("NormalizeTo(5) of a 3-4-5 raw vector = %v, want (3, -4)", got)
	}
}

func TestRotate(t *testing.T) {
	v := Right()
	if got := v.Rotate(0); got != v {
		t.Fatalf("Rotate(0) = %v, want %v", got, v)
	}
	got := v.Rotate(fixed.HalfPi)
	if got.X.Abs() > 16 || (got.Y-fixed.One).Abs() > 16 {
		t.Fatalf("Rotate(pi/2) = %v, want (0, 1)", got)
	}
	got = v.Rotate(fixed.Pi)
	if (got.X+fixed.One).Abs() > 16 || got.Y.Abs() > 16 {
		t.Fatalf("Rotate(pi) = %v, want (-1, 0)", got)
	}
}

func TestLerp(t *testing.T) {
	a, b := Vec2{}, V(fixed.FromInt(4), fixed.FromInt(-4))
	got := a.Lerp(b, fixed.FromFraction(1, 4))
	if !got.Equal(V(fixed.One, -fixed.One)) {
		t.Fatalf("Lerp = %v, want (1, -1)", got)
	}
}
