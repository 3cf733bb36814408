package fixed

// isqrt returns floor(sqrt(v)) using the bit-by-bit method.
func isqrt(v uint64) uint64 {
	var res uint64
	bit := uint64(1) << 62
	for bit > v {
		bit >>= 2
	}
	for bit != 0 {
		if v >= res+bit {
			v -= res + bit
			res = res>>1 + bit
		} else {
			res >>= 1
		}
		bit >>= 2
	}
	return res
}

// Sqrt returns the square root of n, or zero for n <= 0.
func Sqrt(n Num) Num {
	if n <= 0 {
		return 0
	}
	return Num(isqrt(uint64(n) << FracBits))
}

// Hypot returns sqrt(x*x + y*y). The squares are summed at Q48 precision so
// the intermediate cannot overflow for any pair of Nums.
func Hypot(x, y Num) Num {
	xx := int64(x) * int64(x)
	yy := int64(y) * int64(y)
	r := isqrt(uint64(xx) + uint64(yy))
	if r > 1<<31-1 {
		return Num(1<<31 - 1)
	}
	return Num(r)
}

// sinQuadrant evaluates sin(x) for x in [0, pi/2] with an 11th order Taylor
// series in Horner form. Every step is integer arithmetic.
func sinQuadrant(x Num) Num {
	x2 := x.Mul(x)
	t := One - x2/110
	t = One - x2.Mul(t)/72
	t = One - x2.Mul(t)/42
	t = One - x2.Mul(t)/20
	t = One - x2.Mul(t)/6
	r := x.Mul(t)
	if r > One {
		return One
	}
	if r < 0 {
		return 0
	}
	return r
}

func sinRaw(a int64) Num {
	a %= int64(TwoPi)
	if a < 0 {
		a += int64(TwoPi)
	}
	neg := false
	if a >= int64(Pi) {
		a -= int64(Pi)
		neg = true
	}
	if a > int64(HalfPi) {
		a = int64(Pi) - a
	}
	r := sinQuadrant(Num(a))
	if neg {
		return -r
	}
	return r
}

func Sin(x Num) Num {
	return sinRaw(int64(x))
}

func Cos(x Num) Num {
	return sinRaw(int64(x) + int64(HalfPi))
}
