package client

import (
	"context"
	"errors"

	"nhooyr.io/websocket"

	"rbst/replay"
	"rbst/world"
)

var ErrRelayBehind = errors.New("client: relay connection cannot keep up")

// Publisher streams every simulated frame to a relay. Records are written
// from a separate goroutine so that the match loop never waits on the
// network.
type Publisher struct {
	c       *websocket.Conn
	records chan []byte
	done    chan error
}

// DialPublisher connects to the relay's publish endpoint and sends h.
func DialPublisher(ctx context.Context, url string, h replay.Header) (*Publisher, error) {
	c, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	p := &Publisher{
		c:       c,
		records: make(chan []byte, 1024),
		done:    make(chan error, 1),
	}
	p.records <- replay.AppendHeader(nil, h)
	go p.writeMessages(ctx)
	return p, nil
}

func (p *Publisher) writeMessages(ctx context.Context) {
	var err error
	for msg := range p.records {
		if err != nil {
			continue
		}
		err = p.c.Write(ctx, websocket.MessageBinary, msg)
	}
	p.done <- err
}

func (p *Publisher) Record(frame int64, in world.InputData, checksum uint32) error {
	msg := replay.AppendFrame(nil, replay.Frame{Frame: frame, Input: in, Checksum: checksum})
	select {
	case p.records <- msg:
		return nil
	default:
		return ErrRelayBehind
	}
}

// Confirm is a no-op: spectators apply corrections themselves.
func (p *Publisher) Confirm(frame int64) error {
	return nil
}

// Close sends what is queued and hangs up.
func (p *Publisher) Close() error {
	close(p.records)
	if err := <-p.done; err != nil {
		p.c.Close(websocket.StatusInternalError, "")
		return err
	}
	return p.c.Close(websocket.StatusNormalClosure, "")
}
