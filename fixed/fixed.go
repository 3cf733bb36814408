// Package fixed implements the Q8.24 number type every simulation value is
// stored in. Nothing here touches floating point except String, so results
// only depend on the integer representation.
package fixed

import (
	"errors"
	"strconv"
	"strings"
)

// FracBits is the number of fractional bits in a Num.
const FracBits = 24

// Num is a signed Q8.24 fixed-point value backed by an int32.
type Num int32

const (
	Zero Num = 0
	One  Num = 1 << FracBits

	// Pi is round(pi * 2^24). The other angle constants derive from it so
	// range reduction stays self-consistent.
	Pi        Num = 52707179
	HalfPi        = Pi / 2
	QuarterPi     = Pi / 4
	TwoPi         = Pi * 2

	// DegToRad converts whole degrees to radians.
	DegToRad = Pi / 180
)

var ErrSyntax = errors.New("fixed: invalid decimal")

func FromInt(i int) Num {
	return Num(i) << FracBits
}

func FromRaw(raw int32) Num {
	return Num(raw)
}

// FromFraction returns n/d without going through floating point.
func FromFraction(n, d int64) Num {
	if d == 0 {
		return 0
	}
	return Num((n << FracBits) / d)
}

func (n Num) Raw() int32 {
	return int32(n)
}

func (n Num) Add(o Num) Num { return n + o }
func (n Num) Sub(o Num) Num { return n - o }
func (n Num) Neg() Num      { return -n }

func (n Num) Mul(o Num) Num {
	return Num((int64(n) * int64(o)) >> FracBits)
}

// Div truncates toward zero. Dividing by zero yields zero.
func (n Num) Div(o Num) Num {
	if o == 0 {
		return 0
	}
	return Num((int64(n) << FracBits) / int64(o))
}

func (n Num) Abs() Num {
	if n < 0 {
		return -n
	}
	return n
}

// Int truncates toward negative infinity.
func (n Num) Int() int {
	return int(n >> FracBits)
}

func Min(a, b Num) Num {
	if a < b {
		return a
	}
	return b
}

func Max(a, b Num) Num {
	if a > b {
		return a
	}
	return b
}

// String formats n with six decimals. Only meant for logs and dumps.
func (n Num) String() string {
	return strconv.FormatFloat(float64(n)/float64(One), 'f', 6, 64)
}

// Parse reads a plain decimal such as "-1.25" exactly. At most nine
// fractional digits are honoured; the rest are ignored.
func Parse(s string) (Num, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrSyntax
	}
	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" && frac == "" {
		return 0, ErrSyntax
	}
	var w int64
	if whole != "" {
		v, err := strconv.ParseInt(whole, 10, 64)
		if err != nil || v > 127 {
			return 0, ErrSyntax
		}
		w = v
	}
	if len(frac) > 9 {
		frac = frac[:9]
	}
	var f, scale int64 = 0, 1
	if frac != "" {
		v, err := strconv.ParseUint(frac, 10, 64)
		if err != nil {
			return 0, ErrSyntax
		}
		f = int64(v)
		for range frac {
			scale *= 10
		}
	}
	raw := w<<FracBits + (f<<FracBits+scale/2)/scale
	if neg {
		raw = -raw
	}
	return Num(raw), nil
}

// MustParse is Parse for constants known to be valid.
func MustParse(s string) Num {
	n, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return n
}
