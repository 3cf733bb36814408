package netplay

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	ggpo "github.com/assemblaj/ggpo"

	"rbst/rollback"
	"rbst/world"
)

type fakeSyncer struct {
	pending   [2][]byte
	refuse    bool
	mismatch  bool
	checksums []uint32
}

func (f *fakeSyncer) AddLocalInput(player ggpo.PlayerHandle, values []byte, size int) error {
	if f.refuse {
		return errors.New("not synchronized")
	}
	f.pending[int(player)] = append([]byte(nil), values[:size]...)
	return nil
}

func (f *fakeSyncer) SyncInput(disconnectFlags *int) ([][]byte, error) {
	return [][]byte{f.pending[0], f.pending[1]}, nil
}

func (f *fakeSyncer) AdvanceFrame(checksum uint32) error {
	if f.mismatch {
		panic("checksum for frame does not match saved")
	}
	f.checksums = append(f.checksums, checksum)
	return nil
}

func (f *fakeSyncer) Idle(timeout int) error {
	return nil
}

type sinkCall struct {
	frame   int64
	confirm bool
}

type fakeSink struct {
	calls []sinkCall
}

func (f *fakeSink) Record(frame int64, in world.InputData, checksum uint32) error {
	f.calls = append(f.calls, sinkCall{frame: frame})
	return nil
}

func (f *fakeSink) Confirm(frame int64) error {
	f.calls = append(f.calls, sinkCall{frame: frame, confirm: true})
	return nil
}

func testSession(opts ...Option) (*Session, *fakeSyncer) {
	return testSessionWith(rollback.NewController(world.DefaultConfig()), opts...)
}

func testSessionWith(ctrl *rollback.Controller, opts ...Option) (*Session, *fakeSyncer) {
	s := newSession(ctrl, DefaultProperties(), opts)
	f := &fakeSyncer{}
	s.sync = f
	s.locals = []localPlayer{{handle: 0, number: 1}, {handle: 1, number: 2}}
	return s, f
}

func inputs(n int) []world.InputData {
	out := make([]world.InputData, n)
	for i := range out {
		out[i] = world.InputData{
			P1: world.PlayerInput{Move: world.MoveInput(i%9) + world.MoveBackLeft, Attack: world.AttackInput(i % 4)},
			P2: world.PlayerInput{Move: world.MoveInput((i+4)%9) + world.MoveBackLeft},
		}
	}
	return out
}

func TestRunFrameAdvancesController(t *testing.T) {
	s, f := testSession()
	cfg := world.DefaultConfig()
	want := world.NewState(&cfg)
	for i, in := range inputs(10) {
		ok, err := s.RunFrame(in)
		if err != nil || !ok {
			t.Fatalf("frame %d: RunFrame = %v, %v", i, ok, err)
		}
		want = world.Simulate(want, &cfg, in)
	}
	if s.Controller().State() != want {
		t.Fatalf("session state differs from a direct simulation")
	}
	if len(f.checksums) != 10 || f.checksums[9] != s.Controller().Checksum() {
		t.Fatalf("checksums = %v, want 10 ending in %08x", f.checksums, s.Controller().Checksum())
	}
}

func TestRunFrameWaitsForBackend(t *testing.T) {
	s, f := testSession()
	f.refuse = true
	ok, err := s.RunFrame(world.NeutralInputData())
	if ok || err != nil {
		t.Fatalf("RunFrame = %v, %v, want false, nil", ok, err)
	}
	if s.Controller().Frame() != 0 {
		t.Fatalf("frame = %d, want 0", s.Controller().Frame())
	}
}

func TestRollbackThroughCallbacks(t *testing.T) {
	sink := &fakeSink{}
	s, f := testSession(WithFrameSink(sink))
	in := inputs(10)
	for _, i := range in[:5] {
		s.RunFrame(i)
	}
	if sum := s.SaveGameState(3); uint32(sum) != s.Controller().Checksum() {
		t.Fatalf("SaveGameState = %08x, want %08x", uint32(sum), s.Controller().Checksum())
	}
	for _, i := range in[5:] {
		s.RunFrame(i)
	}
	want := s.Controller().State()

	s.LoadGameState(3)
	if s.Controller().Frame() != 5 {
		t.Fatalf("frame after load = %d, want 5", s.Controller().Frame())
	}
	for _, i := range in[5:] {
		f.pending[0] = world.EncodeInput(i.P1)
		f.pending[1] = world.EncodeInput(i.P2)
		s.AdvanceFrame(0)
	}
	if s.err != nil {
		t.Fatal(s.err)
	}
	if s.Controller().State() != want {
		t.Fatalf("resimulated state differs")
	}

	var confirmed bool
	records := 0
	for _, c := range sink.calls {
		if c.confirm && c.frame == 5 {
			confirmed = true
		}
		if !c.confirm {
			records++
		}
	}
	if !confirmed || records != 15 {
		t.Fatalf("sink calls = %+v, want a confirm of frame 5 and 15 records", sink.calls)
	}
}

func TestLoadUnknownStateFailsNextFrame(t *testing.T) {
	s, _ := testSession()
	s.LoadGameState(42)
	if _, err := s.RunFrame(world.NeutralInputData()); err == nil {
		t.Fatalf("RunFrame after a failed load succeeded")
	}
}

func TestOnEvent(t *testing.T) {
	var got []rollback.Event
	ctrl := rollback.NewController(world.DefaultConfig(), rollback.WithEventHook(func(e rollback.Event) {
		got = append(got, e)
	}))
	s := newSession(ctrl, DefaultProperties(), nil)

	s.OnEvent(&ggpo.Event{Code: ggpo.EventCodeRunning})
	s.OnEvent(&ggpo.Event{Code: ggpo.EventCodeTimeSync, FramesAhead: 1})
	if !s.Running() {
		t.Fatalf("session not running after the running event")
	}
	if len(got) != 2 || got[0].Code != rollback.EventRunning || got[1].Code != rollback.EventTimeSync {
		t.Fatalf("events = %v", got)
	}
	if pace := ctrl.Pace(); pace != rollback.ThrottledRate {
		t.Fatalf("Pace() = %d, want %d after a time sync", pace, rollback.ThrottledRate)
	}

	s.OnEvent(&ggpo.Event{Code: ggpo.EventCodeDisconnectedFromPeer, Player: 2})
	if s.Running() || got[2].Player != 2 {
		t.Fatalf("disconnect not handled: %v", got[2])
	}
}

func TestLogGameState(t *testing.T) {
	s, _ := testSession()
	s.props.LogsEnabled = true
	for _, in := range inputs(3) {
		s.RunFrame(in)
	}
	snap, _ := s.Controller().SaveState()

	name := filepath.Join(t.TempDir(), "state.msgpack")
	s.LogGameState(name, snap.Data, len(snap.Data))

	f, err := os.Open(name)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	d, err := ReadDump(f)
	if err != nil {
		t.Fatal(err)
	}
	if d.Frame != 3 || d.Players[1].ID != 2 || len(d.Players[0].States) == 0 {
		t.Fatalf("dump = %+v", d)
	}
}

func playing(cfg *world.Config) world.State {
	st := world.NewState(cfg)
	st.Phase = world.Play
	st.RoundCountdown = world.RoundTimer
	return st
}

func (f *fakeSyncer) feed(in world.InputData) {
	f.pending[0] = world.EncodeInput(in.P1)
	f.pending[1] = world.EncodeInput(in.P2)
}

func TestSyncTestDesyncLatchesController(t *testing.T) {
	cfg := world.DefaultConfig()
	var (
		dumped *world.State
		events []rollback.Event
	)
	ctrl := rollback.NewController(cfg,
		rollback.WithState(playing(&cfg)),
		rollback.WithDesyncDump(func(err *rollback.DesyncError, st world.State) { dumped = &st }),
		rollback.WithEventHook(func(e rollback.Event) { events = append(events, e) }),
	)
	s, f := testSessionWith(ctrl)
	s.syncTest = true

	forward := world.InputData{P1: world.PlayerInput{Move: world.MoveForward}, P2: world.NeutralInput()}
	for i := 0; i < 3; i++ {
		s.RunFrame(forward)
	}
	s.SaveGameState(3)
	for i := 0; i < 3; i++ {
		s.RunFrame(forward)
	}

	// Resimulating with the same inputs agrees with the first run.
	s.LoadGameState(3)
	for i := 0; i < 3; i++ {
		f.feed(forward)
		s.AdvanceFrame(0)
	}
	if s.err != nil || ctrl.Desynced() != nil {
		t.Fatalf("same inputs desynced: %v", s.err)
	}

	s.LoadGameState(3)
	back := forward
	back.P1.Move = world.MoveBack
	f.feed(back)
	s.AdvanceFrame(0)

	var desync *rollback.DesyncError
	if !errors.As(s.err, &desync) || desync.Frame != 4 || desync.Local == desync.Remote {
		t.Fatalf("err = %v, want a desync at frame 4", s.err)
	}
	if ctrl.Desynced() != desync {
		t.Fatalf("controller not latched")
	}
	if dumped == nil || len(events) != 1 || events[0].Code != rollback.EventDesync {
		t.Fatalf("dumped %v, events %v, want a dump and one desync event", dumped, events)
	}
	if _, err := s.RunFrame(forward); !errors.Is(err, rollback.ErrDesync) {
		t.Fatalf("RunFrame after desync: err = %v, want ErrDesync", err)
	}
}

func TestBackendMismatchLatchesController(t *testing.T) {
	var events []rollback.Event
	ctrl := rollback.NewController(world.DefaultConfig(), rollback.WithEventHook(func(e rollback.Event) {
		events = append(events, e)
	}))
	s, f := testSessionWith(ctrl)
	s.RunFrame(world.NeutralInputData())

	f.mismatch = true
	_, err := s.RunFrame(world.NeutralInputData())
	var desync *rollback.DesyncError
	if !errors.As(err, &desync) || desync.Frame != 2 || desync.Local != ctrl.Checksum() {
		t.Fatalf("err = %v, want a desync at frame 2", err)
	}
	if ctrl.Desynced() == nil || len(events) != 1 || events[0].Code != rollback.EventDesync {
		t.Fatalf("controller not latched: events %v", events)
	}
}

func TestSavedStatesArePruned(t *testing.T) {
	s, _ := testSession()
	for id := 0; id < 200; id++ {
		s.SaveGameState(id)
	}
	if n := len(s.saved); n > int(s.window)+3 {
		t.Fatalf("saved states = %d, want at most %d", n, s.window+3)
	}
	for id := 199 - int(s.window); id < 200; id++ {
		if _, ok := s.saved[id]; !ok {
			t.Fatalf("state %d inside the window was dropped", id)
		}
	}
}
