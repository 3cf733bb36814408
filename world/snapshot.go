package world

import (
	"encoding/binary"
	"errors"
	"fmt"

	"rbst/fixed"
)

const (
	playerSize     = 1 + 1 + StackCap + 3*8 + 3*2 + 2*8 + 2*2 + 2
	projectileSize = 2*8 + 1

	// SnapshotSize is the length of a marshalled State.
	SnapshotSize = 8 + 2 + 1 + 2*(playerSize+2+2) + 1 + MaxProjectiles*projectileSize
)

var ErrBadSnapshot = errors.New("snapshot: malformed")

// MarshalBinary encodes s in a fixed little-endian layout. Equal states
// always produce equal bytes.
func (s State) MarshalBinary() ([]byte, error) {
	return s.AppendBinary(make([]byte, 0, SnapshotSize))
}

func (s State) AppendBinary(b []byte) ([]byte, error) {
	b = binary.LittleEndian.AppendUint64(b, uint64(s.Frame))
	b = binary.LittleEndian.AppendUint16(b, uint16(s.RoundCountdown))
	b = append(b, byte(s.Phase))

	b = appendPlayer(b, &s.P1)
	b = binary.LittleEndian.AppendUint16(b, uint16(s.Health1))
	b = binary.LittleEndian.AppendUint16(b, uint16(s.Rounds1))
	b = appendPlayer(b, &s.P2)
	b = binary.LittleEndian.AppendUint16(b, uint16(s.Health2))
	b = binary.LittleEndian.AppendUint16(b, uint16(s.Rounds2))

	b = append(b, s.Projectiles.n)
	for i := range s.Projectiles.items {
		pr := &s.Projectiles.items[i]
		b = appendVec(b, pr.Pos)
		b = appendVec(b, pr.Vel)
		b = append(b, pr.Owner)
	}
	return b, nil
}

func appendVec(b []byte, v Vec2) []byte {
	b = binary.LittleEndian.AppendUint32(b, uint32(v.X.Raw()))
	return binary.LittleEndian.AppendUint32(b, uint32(v.Y.Raw()))
}

func appendBool(b []byte, v bool) []byte {
	if v {
		return append(b, 1)
	}
	return append(b, 0)
}

func appendPlayer(b []byte, p *Player) []byte {
	b = append(b, p.ID, p.Stack.n)
	for _, st := range p.Stack.slots {
		b = append(b, byte(st))
	}
	b = appendVec(b, p.Pos)
	b = appendVec(b, p.Vel)
	b = appendVec(b, p.Dir)
	b = binary.LittleEndian.AppendUint16(b, uint16(p.Ammo))
	b = binary.LittleEndian.AppendUint16(b, uint16(p.Stamina))
	b = binary.LittleEndian.AppendUint16(b, uint16(p.ChargeCount))
	b = appendVec(b, p.PerfectPos)
	b = appendVec(b, p.DashVel)
	b = binary.LittleEndian.AppendUint16(b, uint16(p.DashCount))
	b = binary.LittleEndian.AppendUint16(b, uint16(p.HitstopCount))
	b = appendBool(b, p.Stunned)
	return appendBool(b, p.Damaged)
}

type snapshotReader struct {
	b   []byte
	off int
	err error
}

func (r *snapshotReader) fail(format string, args ...interface{}) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: %s at byte %d", ErrBadSnapshot, fmt.Sprintf(format, args...), r.off)
	}
}

func (r *snapshotReader) u8() uint8 {
	v := r.b[r.off]
	r.off++
	return v
}

func (r *snapshotReader) i16() int16 {
	v := binary.LittleEndian.Uint16(r.b[r.off:])
	r.off += 2
	return int16(v)
}

func (r *snapshotReader) i64() int64 {
	v := binary.LittleEndian.Uint64(r.b[r.off:])
	r.off += 8
	return int64(v)
}

func (r *snapshotReader) vec() Vec2 {
	x := binary.LittleEndian.Uint32(r.b[r.off:])
	y := binary.LittleEndian.Uint32(r.b[r.off+4:])
	r.off += 8
	return Vec2{fixed.FromRaw(int32(x)), fixed.FromRaw(int32(y))}
}

func (r *snapshotReader) flag() bool {
	switch v := r.u8(); v {
	case 0:
		return false
	case 1:
		return true
	default:
		r.fail("bool %d", v)
		return false
	}
}

func (r *snapshotReader) player(p *Player, id uint8) {
	if p.ID = r.u8(); p.ID != id {
		r.fail("player id %d, want %d", p.ID, id)
	}
	n := r.u8()
	if n == 0 || int(n) > StackCap {
		r.fail("stack length %d", n)
	}
	p.Stack.n = n
	for i := range p.Stack.slots {
		st := PState(r.u8())
		switch {
		case !st.valid():
			r.fail("state %d", st)
		case i >= int(n) && st != 0:
			r.fail("stack slot %d above top not zeroed", i)
		}
		p.Stack.slots[i] = st
	}
	p.Pos = r.vec()
	p.Vel = r.vec()
	p.Dir = r.vec()
	p.Ammo = r.i16()
	p.Stamina = r.i16()
	p.ChargeCount = r.i16()
	p.PerfectPos = r.vec()
	p.DashVel = r.vec()
	p.DashCount = r.i16()
	p.HitstopCount = r.i16()
	p.Stunned = r.flag()
	p.Damaged = r.flag()
}

// UnmarshalBinary replaces s with the decoded snapshot. On error s is left
// untouched.
func (s *State) UnmarshalBinary(b []byte) error {
	if len(b) != SnapshotSize {
		return fmt.Errorf("%w: %d bytes, want %d", ErrBadSnapshot, len(b), SnapshotSize)
	}
	r := snapshotReader{b: b}
	var out State
	out.Frame = r.i64()
	out.RoundCountdown = r.i16()
	if out.Phase = RoundPhase(r.u8()); out.Phase > End {
		r.fail("phase %d", out.Phase)
	}

	r.player(&out.P1, 1)
	out.Health1 = r.i16()
	out.Rounds1 = r.i16()
	r.player(&out.P2, 2)
	out.Health2 = r.i16()
	out.Rounds2 = r.i16()

	n := r.u8()
	if int(n) > MaxProjectiles {
		r.fail("%d projectiles", n)
	}
	out.Projectiles.n = n
	for i := range out.Projectiles.items {
		pr := &out.Projectiles.items[i]
		pr.Pos = r.vec()
		pr.Vel = r.vec()
		pr.Owner = r.u8()
		live := i < int(n)
		if live && pr.Owner != 1 && pr.Owner != 2 {
			r.fail("projectile owner %d", pr.Owner)
		}
		if !live && *pr != (Projectile{}) {
			r.fail("projectile slot %d not zeroed", i)
		}
	}
	if r.err != nil {
		return r.err
	}
	*s = out
	return nil
}
