package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"rbst/client"
	"rbst/confutils"
	"rbst/netplay"
	"rbst/replay"
	"rbst/rollback"
	"rbst/server"
	"rbst/utils"
	"rbst/world"
)

const usage = `usage: rbst <mode> [args]

modes:
  server [addr]       run a spectator relay
  dummy [frames]      play a bot against the standby dummy
  synctest [frames]   resimulate every frame and compare checksums
  host | join         play a bot against a remote peer
  replay <file>       play back a replay and verify its checksums`

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	log.SetFlags(log.LstdFlags | log.Llongfile)

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("ignoring .env: %v", err)
	}

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	if os.Args[1] == "server" {
		if err := server.Run(os.Args[1:]); err != nil {
			log.Fatal(err)
		}
		return
	}

	cfg := world.DefaultConfig()
	conf, err := utils.ReadTOML(env("RBST_CONFIG", "config.toml"))
	switch {
	case err == nil:
		if cfg, err = conf.World(); err != nil {
			log.Fatal(err)
		}
	case os.IsNotExist(err):
		log.Printf("no config file, using defaults")
	default:
		log.Fatal(err)
	}

	switch os.Args[1] {
	case "dummy":
		err = runDummy(cfg, frameArg(600*60))
	case "synctest":
		err = runSyncTest(cfg, frameArg(600))
	case "host":
		err = runPeer(cfg, 1)
	case "join":
		err = runPeer(cfg, 2)
	case "replay":
		if len(os.Args) < 3 {
			log.Fatal(usage)
		}
		err = runReplay(cfg, os.Args[2])
	default:
		log.Fatal(usage)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func frameArg(def int) int {
	if len(os.Args) < 3 {
		return def
	}
	n, err := strconv.Atoi(os.Args[2])
	if err != nil {
		log.Fatalf("frames: %v", err)
	}
	return n
}

// pace runs frame until it returns false, at the rate the controller asks
// for. idle gets the time left until the next frame.
func pace(ctrl *rollback.Controller, idle func(time.Duration), frame func() (bool, error)) error {
	next := time.Now()
	for {
		next = next.Add(time.Second / time.Duration(ctrl.Pace()))
		if idle != nil {
			idle(time.Until(next))
		}
		more, err := frame()
		if err != nil || !more {
			return err
		}
		time.Sleep(time.Until(next))
	}
}

func logResult(ctrl *rollback.Controller) {
	s := ctrl.State()
	cfg := ctrl.Config()
	switch w := world.Winner(&s, &cfg); w {
	case 0:
		log.Printf("frame %d: no winner, rounds %d-%d", s.Frame, s.Rounds1, s.Rounds2)
	default:
		log.Printf("frame %d: player %d wins, rounds %d-%d", s.Frame, w, s.Rounds1, s.Rounds2)
	}
	log.Print(ctrl.Stats())
}

func runDummy(cfg world.Config, frames int) error {
	ctrl := rollback.NewController(cfg, rollback.WithState(world.NewDummyState(&cfg)))
	bot := client.NewBot(uint32(time.Now().UnixNano()))
	err := pace(ctrl, nil, func() (bool, error) {
		ctrl.Advance(world.InputData{P1: bot.Next(), P2: world.NeutralInput()})
		return !ctrl.MatchOver() && int(ctrl.Frame()) < frames, nil
	})
	logResult(ctrl)
	return err
}

func desyncDump(dir string) rollback.Option {
	return rollback.WithDesyncDump(func(e *rollback.DesyncError, s world.State) {
		name := filepath.Join(dir, fmt.Sprintf("desync-%d.msgpack", e.Frame))
		f, err := os.Create(name)
		if err != nil {
			log.Println(err)
			return
		}
		defer f.Close()
		if err := netplay.WriteDump(f, s); err != nil {
			log.Println(err)
			return
		}
		log.Printf("wrote %s", name)
	})
}

func runSyncTest(cfg world.Config, frames int) error {
	np, err := confutils.ReadNetplay(env("RBST_NETPLAY", "netplay.ini"))
	if err != nil {
		return err
	}
	ctrl := rollback.NewController(cfg, desyncDump("."))
	session, err := netplay.NewSyncTestSession(ctrl, np.Rollback)
	if err != nil {
		return err
	}
	defer session.Close()

	p1, p2 := client.NewBot(1), client.NewBot(2)
	for int(ctrl.Frame()) < frames {
		in := world.InputData{P1: p1.Next(), P2: p2.Next()}
		if _, err := session.RunFrame(in); err != nil {
			return fmt.Errorf("frame %d: %w", ctrl.Frame(), err)
		}
	}
	log.Printf("sync test passed %d frames", frames)
	logResult(ctrl)
	return nil
}

func runPeer(cfg world.Config, local int) error {
	np, err := confutils.ReadNetplay(env("RBST_NETPLAY", "netplay.ini"))
	if err != nil {
		return err
	}
	relay := env("RBST_RELAY", np.Relay)

	header, err := replay.NewHeader(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll("replays", 0o755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join("replays", header.MatchID.String()+".rbst"))
	if err != nil {
		return err
	}
	defer f.Close()
	rec, err := replay.NewRecorder(f, header)
	if err != nil {
		return err
	}
	defer rec.Close()
	sinks := rollback.Sinks{rec}

	if relay != "" {
		pub, err := client.DialPublisher(context.Background(), relay, header)
		if err != nil {
			return err
		}
		defer pub.Close()
		sinks = append(sinks, pub)
	}

	ctrl := rollback.NewController(cfg, desyncDump("."))
	session, err := netplay.NewPeerSession(ctrl, np.Rollback, np.LocalPort, local, np.RemoteAddress, np.RemotePort, netplay.WithFrameSink(sinks))
	if err != nil {
		return err
	}
	defer session.Close()

	bot := client.NewBot(uint32(local))
	idle := func(d time.Duration) {
		ms := int(d/time.Millisecond) - 1
		if ms < 0 {
			ms = 0
		}
		if err := session.Idle(ms); err != nil {
			log.Println(err)
		}
	}
	err = pace(ctrl, idle, func() (bool, error) {
		next := bot.Next()
		if _, err := session.RunFrame(world.InputData{P1: next, P2: next}); err != nil {
			return false, err
		}
		return !ctrl.MatchOver(), nil
	})
	logResult(ctrl)
	return err
}

func runReplay(cfg world.Config, fileName string) error {
	f, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer f.Close()
	s, n, err := replay.Play(cfg, f)
	if err != nil {
		return err
	}
	log.Printf("replayed %d frames, winner %d, rounds %d-%d", n, world.Winner(&s, &cfg), s.Rounds1, s.Rounds2)
	return nil
}
