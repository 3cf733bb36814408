// Package rollback holds the live match state on behalf of a rollback
// transport. The transport saves, restores and advances it through
// Callbacks and compares checksums with the remote peer.
package rollback

import (
	"fmt"

	"rbst/world"
)

// Callbacks is what a rollback transport needs from the game. Calls are
// never concurrent.
type Callbacks interface {
	// AdvanceFrame steps the match once with one encoded input per player.
	AdvanceFrame(inputs [][]byte) error
	SaveState() (Snapshot, error)
	LoadState(Snapshot) error
	OnEvent(Event)
}

// Snapshot is a saved State plus the checksum peers compare.
type Snapshot struct {
	Frame    int64
	Data     []byte
	Checksum uint32
}

// FrameSink receives the inputs of every simulated frame along with the
// checksum of the state they produced. Record may be called again for a
// frame after a rollback; Confirm promises that frames up to and including
// frame will not change anymore.
type FrameSink interface {
	Record(frame int64, in world.InputData, checksum uint32) error
	Confirm(frame int64) error
}

type EventCode int

const (
	EventConnected EventCode = iota + 1
	EventSynchronizing
	EventSynchronized
	EventRunning
	EventDisconnected
	EventTimeSync
	EventInterrupted
	EventResumed
	EventDesync
)

func (c EventCode) String() string {
	switch c {
	case EventConnected:
		return "connected"
	case EventSynchronizing:
		return "synchronizing"
	case EventSynchronized:
		return "synchronized"
	case EventRunning:
		return "running"
	case EventDisconnected:
		return "disconnected"
	case EventTimeSync:
		return "timesync"
	case EventInterrupted:
		return "interrupted"
	case EventResumed:
		return "resumed"
	case EventDesync:
		return "desync"
	}
	return fmt.Sprintf("EventCode(%d)", int(c))
}

// Event reports a transport or controller condition. Only the fields that
// belong to Code are set.
type Event struct {
	Code        EventCode
	Player      int
	Count       int
	Total       int
	FramesAhead int
	Frame       int64
}

func (e Event) String() string {
	switch e.Code {
	case EventSynchronizing:
		return fmt.Sprintf("%v player %d (%d/%d)", e.Code, e.Player, e.Count, e.Total)
	case EventTimeSync:
		return fmt.Sprintf("%v %d frames ahead", e.Code, e.FramesAhead)
	case EventDesync:
		return fmt.Sprintf("%v at frame %d", e.Code, e.Frame)
	case EventRunning:
		return e.Code.String()
	}
	return fmt.Sprintf("%v player %d", e.Code, e.Player)
}

// Sinks fans frames out to several sinks in order. The first error stops
// the fan out.
type Sinks []FrameSink

func (s Sinks) Record(frame int64, in world.InputData, checksum uint32) error {
	for _, sink := range s {
		if err := sink.Record(frame, in, checksum); err != nil {
			return err
		}
	}
	return nil
}

func (s Sinks) Confirm(frame int64) error {
	for _, sink := range s {
		if err := sink.Confirm(frame); err != nil {
			return err
		}
	}
	return nil
}
