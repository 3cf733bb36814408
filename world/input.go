package world

import (
	"encoding/binary"
	"errors"
	"fmt"

	"rbst/fixed"
)

type AttackInput uint8

const (
	AttackNone AttackInput = iota
	AttackShot
	AttackAltShot
	AttackDash
)

// MoveInput follows the numpad layout relative to the facing direction:
// 8 is forward, 5 is no movement.
type MoveInput uint8

const (
	MoveBackLeft MoveInput = iota + 1
	MoveBack
	MoveBackRight
	MoveLeft
	MoveNeutral
	MoveRight
	MoveForLeft
	MoveForward
	MoveForRight
)

func (m MoveInput) Valid() bool {
	return m >= MoveBackLeft && m <= MoveForRight
}

// PlayerInput is one frame of intent for a single player. Look is the
// horizontal turn in radians.
type PlayerInput struct {
	Attack AttackInput
	Move   MoveInput
	Look   fixed.Num
}

func NeutralInput() PlayerInput {
	return PlayerInput{Attack: AttackNone, Move: MoveNeutral}
}

func (in PlayerInput) String() string {
	return fmt.Sprintf("a%dm%dl%d;", in.Attack, in.Move, in.Look.Raw())
}

type InputData struct {
	P1, P2 PlayerInput
}

func NeutralInputData() InputData {
	return InputData{P1: NeutralInput(), P2: NeutralInput()}
}

// InputSize is the number of bytes one PlayerInput takes on the wire.
const InputSize = 5

var (
	ErrShortBuffer = errors.New("input: short buffer")
	ErrBadInput    = errors.New("input: malformed")
)

func AppendInput(dst []byte, in PlayerInput) []byte {
	dst = append(dst, byte(in.Move)&0x0F|(byte(in.Attack)&0x03)<<4)
	return binary.LittleEndian.AppendUint32(dst, uint32(in.Look.Raw()))
}

func EncodeInput(in PlayerInput) []byte {
	return AppendInput(make([]byte, 0, InputSize), in)
}

func DecodeInput(b []byte) (PlayerInput, error) {
	if len(b) < InputSize {
		return PlayerInput{}, fmt.Errorf("%w: %d bytes", ErrShortBuffer, len(b))
	}
	if b[0]&0xC0 != 0 {
		return PlayerInput{}, fmt.Errorf("%w: reserved bits set in %#02x", ErrBadInput, b[0])
	}
	move := MoveInput(b[0] & 0x0F)
	if !move.Valid() {
		return PlayerInput{}, fmt.Errorf("%w: movement %d", ErrBadInput, move)
	}
	return PlayerInput{
		Attack: AttackInput(b[0] >> 4 & 0x03),
		Move:   move,
		Look:   fixed.FromRaw(int32(binary.LittleEndian.Uint32(b[1:InputSize]))),
	}, nil
}

// AppendInputData writes P1 then P2.
func AppendInputData(dst []byte, in InputData) []byte {
	return AppendInput(AppendInput(dst, in.P1), in.P2)
}

func DecodeInputData(b []byte) (InputData, error) {
	if len(b) < 2*InputSize {
		return InputData{}, fmt.Errorf("%w: %d bytes", ErrShortBuffer, len(b))
	}
	p1, err := DecodeInput(b[:InputSize])
	if err != nil {
		return InputData{}, err
	}
	p2, err := DecodeInput(b[InputSize:])
	if err != nil {
		return InputData{}, err
	}
	return InputData{P1: p1, P2: p2}, nil
}

// MoveFromAxes turns held direction keys into a numpad move. Opposite keys
// cancel out.
func MoveFromAxes(forward, back, left, right bool) MoveInput {
	m := MoveNeutral
	if forward {
		m += 3
	}
	if back {
		m -= 3
	}
	if left {
		m--
	}
	if right {
		m++
	}
	return m
}
