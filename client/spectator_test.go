package client

import (
	"errors"
	"testing"

	"rbst/replay"
	"rbst/rollback"
	"rbst/world"
)

func frameMsg(frame int64, in world.InputData, sum uint32) []byte {
	return replay.AppendFrame(nil, replay.Frame{Frame: frame, Input: in, Checksum: sum})
}

func moving(i int) world.InputData {
	return world.InputData{
		P1: world.PlayerInput{Move: world.MoveInput(i%9) + world.MoveBackLeft, Attack: world.AttackInput(i % 3)},
		P2: world.PlayerInput{Move: world.MoveInput((i+2)%9) + world.MoveBackLeft},
	}
}

func TestSpectatorFollowsCorrections(t *testing.T) {
	cfg := world.DefaultConfig()
	watcher, err := NewSpectator(cfg)
	if err != nil {
		t.Fatal(err)
	}
	h, _ := replay.NewHeader(cfg)

	if err := watcher.Apply(frameMsg(1, world.NeutralInputData(), 0)); !errors.Is(err, ErrNoMatch) {
		t.Fatalf("frame before header: err = %v, want ErrNoMatch", err)
	}
	if err := watcher.Apply(replay.AppendHeader(nil, h)); err != nil {
		t.Fatal(err)
	}

	// The publisher predicts neutral input for frames 6 to 10, then learns
	// the real inputs and resimulates them.
	ctrl := rollback.NewController(cfg)
	for i := 1; i <= 10; i++ {
		in := moving(i)
		if i > 5 {
			in.P2 = world.NeutralInput()
		}
		ctrl.Advance(in)
		if err := watcher.Apply(frameMsg(ctrl.Frame(), in, ctrl.Checksum())); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
	}

	ctrl = rollback.NewController(cfg)
	for i := 1; i <= 10; i++ {
		ctrl.Advance(moving(i))
		if i > 5 {
			if err := watcher.Apply(frameMsg(ctrl.Frame(), moving(i), ctrl.Checksum())); err != nil {
				t.Fatalf("corrected frame %d: %v", i, err)
			}
		}
	}
	if watcher.State() != ctrl.State() {
		t.Fatalf("spectator state differs from the corrected match")
	}
	if got, ok := watcher.Header(); !ok || got.MatchID != h.MatchID {
		t.Fatalf("header = %v, %v", got.MatchID, ok)
	}
}

func TestSpectatorDetectsDesync(t *testing.T) {
	cfg := world.DefaultConfig()
	watcher, _ := NewSpectator(cfg)
	h, _ := replay.NewHeader(cfg)
	watcher.Apply(replay.AppendHeader(nil, h))

	err := watcher.Apply(frameMsg(1, world.NeutralInputData(), 12345))
	var desync *rollback.DesyncError
	if !errors.As(err, &desync) || desync.Frame != 1 || desync.Remote != 12345 {
		t.Fatalf("err = %v, want a desync at frame 1", err)
	}
}

func TestSpectatorRejectsOtherConfig(t *testing.T) {
	cfg := world.DefaultConfig()
	watcher, _ := NewSpectator(cfg)

	other := cfg
	other.PlayerHealth++
	h, _ := replay.NewHeader(other)
	if err := watcher.Apply(replay.AppendHeader(nil, h)); !errors.Is(err, replay.ErrConfigMismatch) {
		t.Fatalf("err = %v, want ErrConfigMismatch", err)
	}
}

func TestSpectatorRejectsGap(t *testing.T) {
	cfg := world.DefaultConfig()
	watcher, _ := NewSpectator(cfg)
	h, _ := replay.NewHeader(cfg)
	watcher.Apply(replay.AppendHeader(nil, h))
	if err := watcher.Apply(frameMsg(3, world.NeutralInputData(), 0)); !errors.Is(err, replay.ErrBadRecord) {
		t.Fatalf("err = %v, want ErrBadRecord", err)
	}
}
