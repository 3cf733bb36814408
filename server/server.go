// Package server relays a match to spectators. One source publishes replay
// records on /publish and every client on /watch receives them, starting
// with what was published before it joined.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/segmentio/ksuid"
	"nhooyr.io/websocket"

	"rbst/replay"
)

const DefaultAddress = "localhost:4242"

type subscriber struct {
	ID       string
	Messages chan []byte
	c        *websocket.Conn
}

type Server struct {
	subscribers map[*subscriber]struct{}
	mu          sync.RWMutex
	serveMux    http.ServeMux
	origins     []string

	// header and backlog replay the current match to late watchers.
	header     []byte
	backlog    [][]byte
	publishing bool
}

// NewServer accepts websocket connections from the given origin patterns
// in addition to same host requests.
func NewServer(origins ...string) *Server {
	s := &Server{
		subscribers: make(map[*subscriber]struct{}),
		origins:     origins,
	}
	s.serveMux.HandleFunc("/publish", s.onPublish)
	s.serveMux.HandleFunc("/watch", s.onWatch)
	s.serveMux.HandleFunc("/debug/pprof/", pprof.Index)
	s.serveMux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	s.serveMux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	s.serveMux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	s.serveMux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.serveMux.ServeHTTP(w, r)
}

func (s *Server) accept(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.origins,
	})
}

func (s *Server) onPublish(w http.ResponseWriter, r *http.Request) {
	c, err := s.accept(w, r)
	if err != nil {
		log.Println(err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "")

	s.mu.Lock()
	busy := s.publishing
	s.publishing = true
	s.mu.Unlock()
	if busy {
		c.Close(websocket.StatusPolicyViolation, "a match is already being published")
		return
	}
	defer func() {
		s.mu.Lock()
		s.publishing = false
		s.mu.Unlock()
	}()

	log.Printf("publisher connected from %s", r.RemoteAddr)
	err = s.handlePublisher(r.Context(), c)
	if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
		log.Printf("publisher %s done", r.RemoteAddr)
		return
	}
	log.Println(err)
}

func (s *Server) handlePublisher(ctx context.Context, c *websocket.Conn) error {
	for {
		typ, msg, err := c.Read(ctx)
		if err != nil {
			return err
		}
		if typ != websocket.MessageBinary {
			c.Close(websocket.StatusUnsupportedData, "binary records only")
			return fmt.Errorf("publisher sent a %v message", typ)
		}
		rec, n, err := replay.ConsumeRecord(msg)
		if err == nil && n != len(msg) {
			err = fmt.Errorf("%d trailing bytes after record", len(msg)-n)
		}
		if err != nil {
			c.Close(websocket.StatusInvalidFramePayloadData, "malformed record")
			return err
		}
		if err := s.onRecord(rec, msg); err != nil {
			c.Close(websocket.StatusPolicyViolation, err.Error())
			return err
		}
	}
}

func (s *Server) onRecord(rec replay.Record, msg []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.Header != nil {
		log.Printf("new match %v", rec.Header.MatchID)
		s.header = msg
		s.backlog = nil
	} else {
		if s.header == nil {
			return errors.New("frame before match header")
		}
		s.backlog = append(s.backlog, msg)
	}
	s.publish(msg)
	return nil
}

func (s *Server) onWatch(w http.ResponseWriter, r *http.Request) {
	c, err := s.accept(w, r)
	if err != nil {
		log.Println(err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "")

	err = s.handleWatcher(c.CloseRead(r.Context()), c)
	if errors.Is(err, context.Canceled) || websocket.CloseStatus(err) == websocket.StatusNormalClosure {
		return
	}
	log.Println(err)
}

func (s *Server) handleWatcher(ctx context.Context, c *websocket.Conn) error {
	sub := &subscriber{
		ID:       ksuid.New().String(),
		Messages: make(chan []byte, 1024),
		c:        c,
	}

	// Take the backlog and subscribe at once so no record is missed or
	// sent twice.
	s.mu.Lock()
	var backlog [][]byte
	if s.header != nil {
		backlog = append([][]byte{s.header}, s.backlog...)
	}
	s.subscribers[sub] = struct{}{}
	s.mu.Unlock()
	defer s.removeSubscriber(sub)

	log.Printf("watcher %s joined, replaying %d records", sub.ID, len(backlog))
	for _, msg := range backlog {
		if err := c.Write(ctx, websocket.MessageBinary, msg); err != nil {
			return err
		}
	}
	for {
		select {
		case msg := <-sub.Messages:
			if err := c.Write(ctx, websocket.MessageBinary, msg); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Server) removeSubscriber(sub *subscriber) {
	s.mu.Lock()
	delete(s.subscribers, sub)
	s.mu.Unlock()
}

// Watchers returns how many spectators are connected.
func (s *Server) Watchers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}

// publish must be called with s.mu held.
func (s *Server) publish(msg []byte) {
	for sub := range s.subscribers {
		select {
		case sub.Messages <- msg:
		default:
			log.Printf("watcher %s is too slow, dropping it", sub.ID)
			go sub.c.Close(websocket.StatusPolicyViolation, "write would block")
		}
	}
}

func Run(args []string) error {
	log.SetFlags(log.LstdFlags | log.Llongfile)
	address := DefaultAddress
	if len(args) > 1 {
		address = args[1]
	}
	l, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	log.Printf("Listening on http://%v", l.Addr())
	server := NewServer()
	s := &http.Server{
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- s.Serve(l)
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	select {
	case err := <-errc:
		log.Println(err)
	case sig := <-sigs:
		log.Printf("terminating: %v", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}
