// Package client turns local devices into match inputs and follows a match
// published on a relay.
package client

import (
	"log"

	"rbst/fixed"
	"rbst/world"
)

// Bindings is the layout of RBST_controls.toml. Key and button codes are
// whatever the KeyState implementation uses; key 0 is unbound.
type Bindings struct {
	Mouse     MouseBindings     `toml:"Mouse"`
	Direction DirectionBindings `toml:"Direction"`
	Attack    AttackBindings    `toml:"Attack"`
}

type MouseBindings struct {
	// Sensitivity is a decimal string so that it converts to fixed point
	// exactly.
	Sensitivity string `toml:"sensitivity"`
}

type DirectionBindings struct {
	Forward int `toml:"forward"`
	Back    int `toml:"back"`
	Left    int `toml:"left"`
	Right   int `toml:"right"`
}

type AttackBindings struct {
	FireKey    int `toml:"fireKey"`
	FireBtn    int `toml:"fireBtn"`
	AltFireKey int `toml:"altFireKey"`
	AltFireBtn int `toml:"altFireBtn"`
	DashKey    int `toml:"dashKey"`
	DashBtn    int `toml:"dashBtn"`
}

// NoButton is the default mouse button, one no mouse reports.
const NoButton = 6

func DefaultBindings() Bindings {
	return Bindings{
		Mouse: MouseBindings{Sensitivity: "1"},
		Attack: AttackBindings{
			FireBtn:    NoButton,
			AltFireBtn: NoButton,
			DashBtn:    NoButton,
		},
	}
}

// SensitivityNum parses the mouse sensitivity, falling back to one.
func (b *Bindings) SensitivityNum() fixed.Num {
	if b.Mouse.Sensitivity == "" {
		return fixed.One
	}
	n, err := fixed.Parse(b.Mouse.Sensitivity)
	if err != nil {
		log.Printf("mouse sensitivity %q: %v", b.Mouse.Sensitivity, err)
		return fixed.One
	}
	return n
}

// KeyState is a snapshot of the local devices for one frame.
type KeyState interface {
	IsKeyDown(key int) bool
	// IsKeyPressed and IsButtonPressed report presses that started this
	// frame.
	IsKeyPressed(key int) bool
	IsButtonPressed(button int) bool
	// MouseDeltaX is the horizontal mouse movement in pixels.
	MouseDeltaX() int
	Focused() bool
}

func keyDown(keys KeyState, key int) bool {
	return key != 0 && keys.IsKeyDown(key)
}

func pressed(keys KeyState, key, button int) bool {
	return (key != 0 && keys.IsKeyPressed(key)) || (button != NoButton && keys.IsButtonPressed(button))
}

// Sample reads one frame of input. When several attacks are pressed on the
// same frame a dash wins over an alt shot, which wins over a shot.
func Sample(b *Bindings, keys KeyState) world.PlayerInput {
	in := world.PlayerInput{
		Move: world.MoveFromAxes(
			keyDown(keys, b.Direction.Forward),
			keyDown(keys, b.Direction.Back),
			keyDown(keys, b.Direction.Left),
			keyDown(keys, b.Direction.Right),
		),
	}

	if keys.Focused() {
		dx := keys.MouseDeltaX()
		if dx > 127 {
			dx = 127
		} else if dx < -127 {
			dx = -127
		}
		in.Look = b.SensitivityNum().Mul(fixed.FromInt(dx).Mul(fixed.DegToRad))
	}

	if pressed(keys, b.Attack.FireKey, b.Attack.FireBtn) {
		in.Attack = world.AttackShot
	}
	if pressed(keys, b.Attack.AltFireKey, b.Attack.AltFireBtn) {
		in.Attack = world.AttackAltShot
	}
	if pressed(keys, b.Attack.DashKey, b.Attack.DashBtn) {
		in.Attack = world.AttackDash
	}
	return in
}
