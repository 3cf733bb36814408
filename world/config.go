package world

import (
	"encoding/binary"
	"errors"
	"fmt"

	"rbst/fixed"
)

// Config holds the tuning constants of a match. It is loaded once and never
// changed while a match runs; both peers must use identical values.
type Config struct {
	AmmoMax     int16
	ShotCost    int16
	AltShotCost int16
	StaminaMax  int16
	DashCost    int16

	PlayerRadius fixed.Num
	ProjRadius   fixed.Num
	ComboRadius  fixed.Num
	GrazeRadius  fixed.Num
	ArenaRadius  fixed.Num
	SpawnRadius  fixed.Num

	ProjSpeed           fixed.Num
	ProjCounterMultiply fixed.Num
	PlayerWalkSpeed     fixed.Num
	PlayerWalkAccel     fixed.Num
	PlayerWalkFric      fixed.Num
	PlayerDashSpeed     fixed.Num

	DashDuration   int16
	DashPhase      int16
	DashPerfect    int16
	ChargeDuration int16

	WeakHitstop   int16
	MidHitstop    int16
	StrongHitstop int16
	WeakForce     fixed.Num
	MidForce      fixed.Num
	StrongForce   fixed.Num

	PlayerHealth int16
	RoundsToWin  int16
}

func DefaultConfig() Config {
	return Config{
		AmmoMax:     300,
		ShotCost:    60,
		AltShotCost: 150,
		StaminaMax:  150,
		DashCost:    50,

		PlayerRadius: fixed.FromFraction(1, 2),
		ProjRadius:   fixed.FromFraction(15, 100),
		ComboRadius:  fixed.One,
		GrazeRadius:  fixed.FromFraction(12, 10),
		ArenaRadius:  fixed.FromInt(10),
		SpawnRadius:  fixed.FromInt(6),

		ProjSpeed:           fixed.FromFraction(1, 4),
		ProjCounterMultiply: fixed.FromFraction(3, 2),
		PlayerWalkSpeed:     fixed.FromFraction(1, 10),
		PlayerWalkAccel:     fixed.FromFraction(2, 100),
		PlayerWalkFric:      fixed.FromFraction(1, 100),
		PlayerDashSpeed:     fixed.FromFraction(35, 100),

		DashDuration:   20,
		DashPhase:      5,
		DashPerfect:    6,
		ChargeDuration: 30,

		WeakHitstop:   6,
		MidHitstop:    10,
		StrongHitstop: 16,
		WeakForce:     fixed.FromFraction(1, 10),
		MidForce:      fixed.FromFraction(2, 10),
		StrongForce:   fixed.FromFraction(3, 10),

		PlayerHealth: 5,
		RoundsToWin:  2,
	}
}

var ErrDegenerateConfig = errors.New("degenerate config")

// Validate reports settings that leave a match unplayable. Costs above their
// maxima are allowed: the action simply never triggers.
func (c Config) Validate() error {
	positive := []struct {
		name string
		v    fixed.Num
	}{
		{"PlayerRadius", c.PlayerRadius},
		{"ProjRadius", c.ProjRadius},
		{"ArenaRadius", c.ArenaRadius},
	}
	for _, p := range positive {
		if p.v <= 0 {
			return fmt.Errorf("%w: %s = %v", ErrDegenerateConfig, p.name, p.v)
		}
	}
	if c.SpawnRadius >= c.ArenaRadius {
		return fmt.Errorf("%w: SpawnRadius %v outside ArenaRadius %v", ErrDegenerateConfig, c.SpawnRadius, c.ArenaRadius)
	}
	if c.PlayerHealth <= 0 {
		return fmt.Errorf("%w: PlayerHealth = %d", ErrDegenerateConfig, c.PlayerHealth)
	}
	if c.RoundsToWin <= 0 {
		return fmt.Errorf("%w: RoundsToWin = %d", ErrDegenerateConfig, c.RoundsToWin)
	}
	if c.DashPhase < 0 || c.DashDuration < 0 || c.ChargeDuration < 0 {
		return fmt.Errorf("%w: negative duration", ErrDegenerateConfig)
	}
	return nil
}

// MarshalBinary writes every field in declaration order. The bytes are only
// used to fingerprint a config, so there is no matching unmarshal.
func (c Config) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, 96)
	i16 := func(v int16) { b = binary.LittleEndian.AppendUint16(b, uint16(v)) }
	num := func(v fixed.Num) { b = binary.LittleEndian.AppendUint32(b, uint32(v.Raw())) }

	i16(c.AmmoMax)
	i16(c.ShotCost)
	i16(c.AltShotCost)
	i16(c.StaminaMax)
	i16(c.DashCost)
	num(c.PlayerRadius)
	num(c.ProjRadius)
	num(c.ComboRadius)
	num(c.GrazeRadius)
	num(c.ArenaRadius)
	num(c.SpawnRadius)
	num(c.ProjSpeed)
	num(c.ProjCounterMultiply)
	num(c.PlayerWalkSpeed)
	num(c.PlayerWalkAccel)
	num(c.PlayerWalkFric)
	num(c.PlayerDashSpeed)
	i16(c.DashDuration)
	i16(c.DashPhase)
	i16(c.DashPerfect)
	i16(c.ChargeDuration)
	i16(c.WeakHitstop)
	i16(c.MidHitstop)
	i16(c.StrongHitstop)
	num(c.WeakForce)
	num(c.MidForce)
	num(c.StrongForce)
	i16(c.PlayerHealth)
	i16(c.RoundsToWin)
	return b, nil
}
