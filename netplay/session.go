// Package netplay connects a rollback.Controller to a GGPO backend.
package netplay

import (
	"fmt"
	"log"
	"os"

	ggpo "github.com/assemblaj/ggpo"

	"rbst/rollback"
	"rbst/world"
)

const (
	SessionName = "RBST"
	numPlayers  = 2

	// Frames the backend may predict ahead of the last confirmed input.
	maxPrediction = 8
)

// Properties are the tunables of a rollback session.
type Properties struct {
	FrameDelay            int  `ini:"FrameDelay"`
	DisconnectNotifyStart int  `ini:"DisconnectNotifyStart"`
	DisconnectTimeout     int  `ini:"DisconnectTimeout"`
	LogsEnabled           bool `ini:"LogsEnabled"`
	DesyncTest            bool `ini:"DesyncTest"`
	DesyncTestFrames      int  `ini:"DesyncTestFrames"`
}

func DefaultProperties() Properties {
	return Properties{
		DisconnectNotifyStart: 1000,
		DisconnectTimeout:     3000,
		DesyncTestFrames:      8,
	}
}

// inputSyncer is the part of ggpo.Backend used once per frame.
type inputSyncer interface {
	AddLocalInput(player ggpo.PlayerHandle, values []byte, size int) error
	SyncInput(disconnectFlags *int) ([][]byte, error)
	AdvanceFrame(checksum uint32) error
	Idle(timeout int) error
}

type localPlayer struct {
	handle ggpo.PlayerHandle
	// number is 1 or 2.
	number int
}

// Session implements the GGPO session callbacks on top of a Controller.
type Session struct {
	ctrl    *rollback.Controller
	props   Properties
	backend ggpo.Backend
	sync    inputSyncer
	sink    rollback.FrameSink

	saved   map[int]rollback.Snapshot
	locals  []localPlayer
	running bool

	// syncTest sessions resimulate with identical inputs, so sums holds
	// the first checksum of each recent frame to compare against.
	syncTest bool
	sums     map[int64]uint32
	// window is how far back the backend may still roll.
	window int64
	// err is the first error hit inside a callback. Callbacks cannot
	// return one so it surfaces from the next RunFrame.
	err error
}

type Option func(*Session)

// WithFrameSink forwards every advanced frame to sink.
func WithFrameSink(sink rollback.FrameSink) Option {
	return func(s *Session) {
		s.sink = sink
	}
}

func newSession(ctrl *rollback.Controller, props Properties, opts []Option) *Session {
	s := &Session{
		ctrl:   ctrl,
		props:  props,
		saved:  make(map[int]rollback.Snapshot),
		sums:   make(map[int64]uint32),
		window: maxPrediction,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewPeerSession starts a two player session against a remote peer. local
// is the local player's number, 1 or 2.
func NewPeerSession(ctrl *rollback.Controller, props Properties, localPort, local int, remoteIP string, remotePort int, opts ...Option) (*Session, error) {
	if local != 1 && local != 2 {
		return nil, fmt.Errorf("netplay: local player %d, want 1 or 2", local)
	}
	if props.LogsEnabled {
		ggpo.EnableLogger()
	} else {
		ggpo.DisableLogger()
	}

	s := newSession(ctrl, props, opts)
	inputSize := len(world.EncodeInput(world.NeutralInput()))

	players := make([]ggpo.Player, numPlayers)
	for i := range players {
		if i+1 == local {
			players[i] = ggpo.NewLocalPlayer(20, i+1)
		} else {
			players[i] = ggpo.NewRemotePlayer(20, i+1, remoteIP, remotePort)
		}
	}

	peer := ggpo.NewPeer(s, localPort, numPlayers, inputSize)
	s.backend = &peer
	s.sync = &peer

	peer.InitializeConnection()
	peer.Start()

	for i := range players {
		var handle ggpo.PlayerHandle
		if err := peer.AddPlayer(&players[i], &handle); err != nil {
			return nil, fmt.Errorf("netplay: add player %d: %w", i+1, err)
		}
		if i+1 == local {
			s.locals = append(s.locals, localPlayer{handle: handle, number: local})
			if props.FrameDelay > 0 {
				peer.SetFrameDelay(handle, props.FrameDelay)
			}
		}
	}
	peer.SetDisconnectTimeout(props.DisconnectTimeout)
	peer.SetDisconnectNotifyStart(props.DisconnectNotifyStart)

	log.Printf("session %s: player %d on port %d, peer %s:%d", SessionName, local, localPort, remoteIP, remotePort)
	return s, nil
}

// NewSyncTestSession runs both players locally and has the backend roll
// back and compare checksums every frame.
func NewSyncTestSession(ctrl *rollback.Controller, props Properties, opts ...Option) (*Session, error) {
	ggpo.EnableLogger()

	s := newSession(ctrl, props, opts)
	s.running = true
	s.syncTest = true
	inputSize := len(world.EncodeInput(world.NeutralInput()))

	frames := props.DesyncTestFrames
	if frames <= 0 {
		frames = maxPrediction
	}
	if int64(frames) > s.window {
		s.window = int64(frames)
	}
	peer := ggpo.NewSyncTest(s, numPlayers, frames, inputSize, true)
	s.backend = &peer
	s.sync = &peer

	peer.InitializeConnection()
	peer.Start()

	for i := 0; i < numPlayers; i++ {
		player := ggpo.NewLocalPlayer(20, i+1)
		var handle ggpo.PlayerHandle
		if err := peer.AddPlayer(&player, &handle); err != nil {
			return nil, fmt.Errorf("netplay: add player %d: %w", i+1, err)
		}
		s.locals = append(s.locals, localPlayer{handle: handle, number: i + 1})
	}
	peer.SetDisconnectTimeout(props.DisconnectTimeout)
	peer.SetDisconnectNotifyStart(props.DisconnectNotifyStart)
	return s, nil
}

func (s *Session) Controller() *rollback.Controller {
	return s.ctrl
}

// Running reports whether both peers are synchronized.
func (s *Session) Running() bool {
	return s.running
}

// RunFrame feeds the local players' inputs to the backend and advances the
// match once. It returns false if the backend is not ready for a frame yet,
// which happens while synchronizing or when too far ahead of the peer.
func (s *Session) RunFrame(in world.InputData) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	for _, p := range s.locals {
		local := in.P1
		if p.number == 2 {
			local = in.P2
		}
		b := world.EncodeInput(local)
		if err := s.sync.AddLocalInput(p.handle, b, len(b)); err != nil {
			return false, nil
		}
	}
	if err := s.step(); err != nil {
		return false, err
	}
	return true, s.err
}

// step pulls the synced inputs for the next frame and simulates it.
func (s *Session) step() error {
	var disconnectFlags int
	inputs, err := s.sync.SyncInput(&disconnectFlags)
	if err != nil {
		return nil
	}
	if err := s.ctrl.AdvanceFrame(inputs); err != nil {
		return err
	}
	sum := s.ctrl.Checksum()
	if err := s.check(s.ctrl.Frame(), sum); err != nil {
		return err
	}
	if err := s.record(inputs, sum); err != nil {
		return err
	}
	return s.advanceBackend(sum)
}

// check compares sum with the first checksum seen for frame during a sync
// test. A difference latches the controller.
func (s *Session) check(frame int64, sum uint32) error {
	if !s.syncTest {
		return nil
	}
	first, ok := s.sums[frame]
	if !ok {
		s.sums[frame] = sum
		delete(s.sums, frame-s.window-1)
		return nil
	}
	if first != sum {
		return s.ctrl.Desync(frame, first, sum)
	}
	return nil
}

// advanceBackend hands sum to the backend. The backend panics when its own
// checksum comparison fails; that is reported to the controller as a
// desync with an unknown remote checksum.
func (s *Session) advanceBackend(sum uint32) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("session %s: backend: %v", SessionName, r)
			err = s.ctrl.Desync(s.ctrl.Frame(), sum, 0)
		}
	}()
	return s.sync.AdvanceFrame(sum)
}

func (s *Session) record(inputs [][]byte, sum uint32) error {
	if s.sink == nil {
		return nil
	}
	in := world.InputData{}
	in.P1, _ = world.DecodeInput(inputs[0])
	in.P2, _ = world.DecodeInput(inputs[1])
	frame := s.ctrl.Frame()
	if err := s.sink.Record(frame, in, sum); err != nil {
		return err
	}
	if frame > s.window {
		return s.sink.Confirm(frame - s.window)
	}
	return nil
}

// Idle gives the backend time to send and receive packets.
func (s *Session) Idle(ms int) error {
	return s.sync.Idle(ms)
}

func (s *Session) Close() {
	if s.backend != nil {
		s.backend.Close()
	}
}

func (s *Session) fail(err error) {
	if s.err == nil {
		s.err = err
		log.Printf("session %s: %v", SessionName, err)
	}
}

func (s *Session) SaveGameState(stateID int) int {
	snap, err := s.ctrl.SaveState()
	if err != nil {
		s.fail(err)
		return 0
	}
	s.saved[stateID] = snap
	// The backend never loads further back than the prediction window.
	for id := range s.saved {
		if int64(id) < int64(stateID)-s.window-2 {
			delete(s.saved, id)
		}
	}
	return int(snap.Checksum)
}

func (s *Session) LoadGameState(stateID int) {
	snap, ok := s.saved[stateID]
	if !ok {
		s.fail(fmt.Errorf("netplay: no saved state %d", stateID))
		return
	}
	if err := s.ctrl.LoadState(snap); err != nil {
		s.fail(err)
		return
	}
	if s.sink != nil {
		if err := s.sink.Confirm(snap.Frame); err != nil {
			s.fail(err)
		}
	}
}

// LogGameState dumps a saved state next to the backend's own logs.
func (s *Session) LogGameState(fileName string, buffer []byte, size int) {
	if !s.props.LogsEnabled {
		return
	}
	if size < 0 || size > len(buffer) {
		size = len(buffer)
	}
	var st world.State
	if err := st.UnmarshalBinary(buffer[:size]); err != nil {
		st = s.ctrl.State()
	}
	f, err := os.Create(fileName)
	if err != nil {
		log.Printf("session %s: %v", SessionName, err)
		return
	}
	defer f.Close()
	if err := WriteDump(f, st); err != nil {
		log.Printf("session %s: %v", SessionName, err)
	}
}

// AdvanceFrame is called by the backend while resimulating after a
// rollback.
func (s *Session) AdvanceFrame(flags int) {
	if err := s.step(); err != nil {
		s.fail(err)
	}
}

func (s *Session) OnEvent(info *ggpo.Event) {
	e := rollback.Event{
		Player:      int(info.Player),
		Count:       info.Count,
		Total:       info.Total,
		FramesAhead: info.FramesAhead,
		Frame:       s.ctrl.Frame(),
	}
	switch info.Code {
	case ggpo.EventCodeConnectedToPeer:
		e.Code = rollback.EventConnected
	case ggpo.EventCodeSynchronizingWithPeer:
		e.Code = rollback.EventSynchronizing
	case ggpo.EventCodeSynchronizedWithPeer:
		e.Code = rollback.EventSynchronized
	case ggpo.EventCodeRunning:
		e.Code = rollback.EventRunning
		s.running = true
	case ggpo.EventCodeDisconnectedFromPeer:
		e.Code = rollback.EventDisconnected
		s.running = false
	case ggpo.EventCodeTimeSync:
		e.Code = rollback.EventTimeSync
	case ggpo.EventCodeConnectionInterrupted:
		e.Code = rollback.EventInterrupted
	case ggpo.EventCodeConnectionResumed:
		e.Code = rollback.EventResumed
	default:
		return
	}
	s.ctrl.OnEvent(e)
}
