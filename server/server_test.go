package server

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"rbst/client"
	"rbst/replay"
	"rbst/rollback"
	"rbst/world"
)

func wsURL(srv *httptest.Server, path string) string {
	return "ws://" + strings.TrimPrefix(srv.URL, "http://") + path
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func watch(ctx context.Context, t *testing.T, url string, cfg world.Config) (*client.Spectator, chan error) {
	watcher, err := client.NewSpectator(cfg)
	if err != nil {
		t.Fatal(err)
	}
	errc := make(chan error, 1)
	go func() {
		errc <- watcher.Run(ctx, url)
	}()
	return watcher, errc
}

func TestRelayStreamsMatch(t *testing.T) {
	relay := NewServer()
	srv := httptest.NewServer(relay)
	defer srv.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := world.DefaultConfig()
	early, earlyErr := watch(ctx, t, wsURL(srv, "/watch"), cfg)
	waitFor(t, "first watcher", func() bool { return relay.Watchers() == 1 })

	h, _ := replay.NewHeader(cfg)
	pub, err := client.DialPublisher(ctx, wsURL(srv, "/publish"), h)
	if err != nil {
		t.Fatal(err)
	}
	ctrl := rollback.NewController(cfg)
	for i := 0; i < 60; i++ {
		in := world.InputData{
			P1: world.PlayerInput{Move: world.MoveForward},
			P2: world.PlayerInput{Move: world.MoveInput(i%9) + world.MoveBackLeft},
		}
		ctrl.Advance(in)
		if err := pub.Record(ctrl.Frame(), in, ctrl.Checksum()); err != nil {
			t.Fatal(err)
		}
	}
	if err := pub.Close(); err != nil {
		t.Fatal(err)
	}

	waitFor(t, "first watcher to catch up", func() bool { return early.State().Frame == 60 })
	if early.State() != ctrl.State() {
		t.Fatalf("watcher state differs from the published match")
	}

	// A late watcher is replayed the whole match.
	late, lateErr := watch(ctx, t, wsURL(srv, "/watch"), cfg)
	waitFor(t, "late watcher to catch up", func() bool { return late.State().Frame == 60 })
	if late.State() != ctrl.State() {
		t.Fatalf("late watcher state differs from the published match")
	}

	select {
	case err := <-earlyErr:
		t.Fatalf("first watcher stopped: %v", err)
	case err := <-lateErr:
		t.Fatalf("late watcher stopped: %v", err)
	default:
	}
}

func TestRelayRejectsFrameBeforeHeader(t *testing.T) {
	srv := httptest.NewServer(NewServer())
	defer srv.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, _, err := websocket.Dial(ctx, wsURL(srv, "/publish"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close(websocket.StatusInternalError, "")

	msg := replay.AppendFrame(nil, replay.Frame{Frame: 1, Input: world.NeutralInputData()})
	if err := c.Write(ctx, websocket.MessageBinary, msg); err != nil {
		t.Fatal(err)
	}
	_, _, err = c.Read(ctx)
	if status := websocket.CloseStatus(err); status != websocket.StatusPolicyViolation {
		t.Fatalf("close status = %v, want %v", status, websocket.StatusPolicyViolation)
	}
}

func TestRelayRejectsMalformedRecord(t *testing.T) {
	srv := httptest.NewServer(NewServer())
	defer srv.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, _, err := websocket.Dial(ctx, wsURL(srv, "/publish"), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close(websocket.StatusInternalError, "")

	if err := c.Write(ctx, websocket.MessageBinary, []byte{0xff, 0xff}); err != nil {
		t.Fatal(err)
	}
	_, _, err = c.Read(ctx)
	if status := websocket.CloseStatus(err); status != websocket.StatusInvalidFramePayloadData {
		t.Fatalf("close status = %v, want %v", status, websocket.StatusInvalidFramePayloadData)
	}
}
