package utils

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"rbst/client"
	"rbst/fixed"
	"rbst/world"
)

// TestReadTOML reads a known test config and checks the overridden and the
// defaulted keys.
func TestReadTOML(t *testing.T) {
	cfg, err := ReadTOML("testConf.toml")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.UI.Resolution.X != 1 || cfg.UI.Resolution.Y != 1 {
		t.Fatalf("UI.Resolution = %+v, want 1x1", cfg.UI.Resolution)
	}

	w, err := cfg.World()
	if err != nil {
		t.Fatal(err)
	}
	def := world.DefaultConfig()
	tests := []struct {
		name      string
		got, want interface{}
	}{
		{"AmmoMax", w.AmmoMax, int16(240)},
		{"PlayerHealth", w.PlayerHealth, int16(3)},
		{"ArenaRadius", w.ArenaRadius, fixed.FromInt(12)},
		{"ProjSpeed", w.ProjSpeed, fixed.MustParse("0.3")},
		{"PlayerWalkFric", w.PlayerWalkFric, fixed.MustParse("0.015")},
		{"ShotCost", w.ShotCost, def.ShotCost},
		{"PlayerRadius", w.PlayerRadius, def.PlayerRadius},
	}
	for _, test := range tests {
		if test.got != test.want {
			t.Fatalf("%s = %v, want %v", test.name, test.got, test.want)
		}
	}
}

func TestWorldRejectsDegenerateConfig(t *testing.T) {
	name := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(name, []byte("[Game]\nSpawnRadius = 11.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := ReadTOML(name)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cfg.World(); !errors.Is(err, world.ErrDegenerateConfig) {
		t.Fatalf("err = %v, want ErrDegenerateConfig", err)
	}

	big := 500.0
	cfg.Game.SpawnRadius = nil
	cfg.Game.ArenaRadius = &big
	if _, err := cfg.World(); !errors.Is(err, fixed.ErrSyntax) {
		t.Fatalf("err = %v, want ErrSyntax for an out of range radius", err)
	}
}

func TestReadControls(t *testing.T) {
	bind, err := ReadControls("testControls.toml")
	if err != nil {
		t.Fatal(err)
	}
	if bind.SensitivityNum() != fixed.MustParse("0.75") {
		t.Fatalf("sensitivity = %v, want 0.75", bind.SensitivityNum())
	}
	if bind.Direction.Forward != 87 || bind.Direction.Right != 68 {
		t.Fatalf("Direction = %+v", bind.Direction)
	}
	want := client.AttackBindings{FireBtn: 0, AltFireBtn: 1, DashKey: 32, DashBtn: client.NoButton}
	if bind.Attack != want {
		t.Fatalf("Attack = %+v, want %+v", bind.Attack, want)
	}
}

func TestReadTOMLMissingFile(t *testing.T) {
	if _, err := ReadTOML("missing.toml"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("err = %v, want os.ErrNotExist", err)
	}
}
