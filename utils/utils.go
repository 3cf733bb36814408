package utils

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"

	"rbst/client"
	"rbst/fixed"
	"rbst/world"
)

// GameConfig overrides match tuning. Keys left out of the file keep their
// default. Distances and speeds are decimals converted to fixed point
// exactly, so every peer loading the same file gets the same Config.
type GameConfig struct {
	AmmoMax     *int16
	ShotCost    *int16
	AltShotCost *int16
	StaminaMax  *int16
	DashCost    *int16

	PlayerRadius *float64
	ProjRadius   *float64
	ComboRadius  *float64
	GrazeRadius  *float64
	ArenaRadius  *float64
	SpawnRadius  *float64

	ProjSpeed           *float64
	ProjCounterMultiply *float64
	PlayerWalkSpeed     *float64
	PlayerWalkAccel     *float64
	PlayerWalkFric      *float64
	PlayerDashSpeed     *float64

	DashDuration   *int16
	DashPhase      *int16
	DashPerfect    *int16
	ChargeDuration *int16

	WeakHitstop   *int16
	MidHitstop    *int16
	StrongHitstop *int16
	WeakForce     *float64
	MidForce      *float64
	StrongForce   *float64

	PlayerHealth *int16
	RoundsToWin  *int16
}

type ResolutionConfig struct {
	X, Y int
}

type UIConfig struct {
	Resolution ResolutionConfig
}

type Config struct {
	Game GameConfig
	UI   UIConfig
}

func ReadTOML(fileName string) (*Config, error) {
	file, err := os.ReadFile(fileName)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := toml.Unmarshal(file, &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// World applies the overrides to the default match config and validates
// the result.
func (c *Config) World() (world.Config, error) {
	cfg := world.DefaultConfig()
	g := &c.Game

	counts := []struct {
		v   *int16
		dst *int16
	}{
		{g.AmmoMax, &cfg.AmmoMax},
		{g.ShotCost, &cfg.ShotCost},
		{g.AltShotCost, &cfg.AltShotCost},
		{g.StaminaMax, &cfg.StaminaMax},
		{g.DashCost, &cfg.DashCost},
		{g.DashDuration, &cfg.DashDuration},
		{g.DashPhase, &cfg.DashPhase},
		{g.DashPerfect, &cfg.DashPerfect},
		{g.ChargeDuration, &cfg.ChargeDuration},
		{g.WeakHitstop, &cfg.WeakHitstop},
		{g.MidHitstop, &cfg.MidHitstop},
		{g.StrongHitstop, &cfg.StrongHitstop},
		{g.PlayerHealth, &cfg.PlayerHealth},
		{g.RoundsToWin, &cfg.RoundsToWin},
	}
	for _, ct := range counts {
		if ct.v != nil {
			*ct.dst = *ct.v
		}
	}

	nums := []struct {
		name string
		v    *float64
		dst  *fixed.Num
	}{
		{"PlayerRadius", g.PlayerRadius, &cfg.PlayerRadius},
		{"ProjRadius", g.ProjRadius, &cfg.ProjRadius},
		{"ComboRadius", g.ComboRadius, &cfg.ComboRadius},
		{"GrazeRadius", g.GrazeRadius, &cfg.GrazeRadius},
		{"ArenaRadius", g.ArenaRadius, &cfg.ArenaRadius},
		{"SpawnRadius", g.SpawnRadius, &cfg.SpawnRadius},
		{"ProjSpeed", g.ProjSpeed, &cfg.ProjSpeed},
		{"ProjCounterMultiply", g.ProjCounterMultiply, &cfg.ProjCounterMultiply},
		{"PlayerWalkSpeed", g.PlayerWalkSpeed, &cfg.PlayerWalkSpeed},
		{"PlayerWalkAccel", g.PlayerWalkAccel, &cfg.PlayerWalkAccel},
		{"PlayerWalkFric", g.PlayerWalkFric, &cfg.PlayerWalkFric},
		{"PlayerDashSpeed", g.PlayerDashSpeed, &cfg.PlayerDashSpeed},
		{"WeakForce", g.WeakForce, &cfg.WeakForce},
		{"MidForce", g.MidForce, &cfg.MidForce},
		{"StrongForce", g.StrongForce, &cfg.StrongForce},
	}
	for _, n := range nums {
		if n.v == nil {
			continue
		}
		v, err := fixed.Parse(strconv.FormatFloat(*n.v, 'f', -1, 64))
		if err != nil {
			return world.Config{}, fmt.Errorf("Game.%s = %v: %w", n.name, *n.v, err)
		}
		*n.dst = v
	}
	return cfg, cfg.Validate()
}

// ReadControls loads key bindings on top of the defaults.
func ReadControls(fileName string) (*client.Bindings, error) {
	file, err := os.ReadFile(fileName)
	if err != nil {
		return nil, err
	}

	bind := client.DefaultBindings()
	if err := toml.Unmarshal(file, &bind); err != nil {
		return nil, err
	}
	return &bind, nil
}
