package world

import "rbst/fixed"

// ClosestBehind is what Closest reports for a point behind the ray origin.
// It is larger than any distance inside the arena.
var ClosestBehind = fixed.FromInt(127)

type Vec2 struct {
	X, Y fixed.Num
}

func V(x, y fixed.Num) Vec2 {
	return Vec2{X: x, Y: y}
}

func Up() Vec2    { return Vec2{Y: fixed.One} }
func Down() Vec2  { return Vec2{Y: -fixed.One} }
func Left() Vec2  { return Vec2{X: -fixed.One} }
func Right() Vec2 { return Vec2{X: fixed.One} }

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{v.X + o.X, v.Y + o.Y}
}

func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{v.X - o.X, v.Y - o.Y}
}

func (v Vec2) Neg() Vec2 {
	return Vec2{-v.X, -v.Y}
}

func (v Vec2) Dot(o Vec2) fixed.Num {
	return v.X.Mul(o.X) + v.Y.Mul(o.Y)
}

func (v Vec2) Scale(n fixed.Num) Vec2 {
	return Vec2{v.X.Mul(n), v.Y.Mul(n)}
}

func (v Vec2) Div(n fixed.Num) Vec2 {
	return Vec2{v.X.Div(n), v.Y.Div(n)}
}

func (v Vec2) Equal(o Vec2) bool {
	return v.X == o.X && v.Y == o.Y
}

func (v Vec2) IsZero() bool {
	return v.X == 0 && v.Y == 0
}

func (v Vec2) Len() fixed.Num {
	return fixed.Hypot(v.X, v.Y)
}

func (v Vec2) Normalize() Vec2 {
	if v.IsZero() {
		return v
	}
	return v.Div(v.Len())
}

// NormalizeTo returns v rescaled to length n. The zero vector is returned
// unchanged. Each component is scaled by n/|v| in 64 bits; |v| is never
// smaller than either component, so the result stays within n even for
// vectors only a few raw units long.
func (v Vec2) NormalizeTo(n fixed.Num) Vec2 {
	if v.IsZero() {
		return v
	}
	l := int64(v.Len())
	return Vec2{
		X: fixed.Num(int64(v.X) * int64(n) / l),
		Y: fixed.Num(int64(v.Y) * int64(n) / l),
	}
}

// Lerp moves from v toward o by alpha.
func (v Vec2) Lerp(o Vec2, alpha fixed.Num) Vec2 {
	return v.Add(o.Sub(v).Scale(alpha))
}

// Rotate turns v counter-clockwise by angle radians.
func (v Vec2) Rotate(angle fixed.Num) Vec2 {
	if angle == 0 {
		return v
	}
	cos, sin := fixed.Cos(angle), fixed.Sin(angle)
	return Vec2{
		X: v.X.Mul(cos) - v.Y.Mul(sin),
		Y: v.X.Mul(sin) + v.Y.Mul(cos),
	}
}

// Project returns the projection of v on onto.
func (v Vec2) Project(onto Vec2) Vec2 {
	n := onto.Normalize()
	return n.Scale(v.Dot(n))
}

// Reject returns the component of v perpendicular to from.
func (v Vec2) Reject(from Vec2) Vec2 {
	return v.Sub(v.Project(from))
}

// Closest returns the distance between center and the nearest point of the
// ray starting at origin along dir. Points behind the origin report
// ClosestBehind. dir is used as given, so callers pass unit vectors when
// they want a distance in world units.
func Closest(origin, dir, center Vec2) fixed.Num {
	toCenter := center.Sub(origin)
	along := toCenter.Dot(dir)
	if along < 0 {
		return ClosestBehind
	}
	return toCenter.Sub(dir.Scale(along)).Len()
}

func (v Vec2) String() string {
	return "(" + v.X.String() + ", " + v.Y.String() + ")"
}
