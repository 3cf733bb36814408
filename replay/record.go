// Package replay stores the inputs of a match so it can be simulated again.
//
// A replay is a header record followed by one frame record per simulated
// frame, each a length delimited protobuf field. The same records are
// streamed to spectators by the relay.
package replay

import (
	"errors"
	"fmt"

	"github.com/segmentio/ksuid"
	"google.golang.org/protobuf/encoding/protowire"

	"rbst/rollback"
	"rbst/world"
)

const Version = 1

const (
	fieldHeader protowire.Number = 1
	fieldFrame  protowire.Number = 2

	headerVersion protowire.Number = 1
	headerMatchID protowire.Number = 2
	headerConfig  protowire.Number = 3

	frameNumber   protowire.Number = 1
	frameInputs   protowire.Number = 2
	frameChecksum protowire.Number = 3
)

var (
	ErrBadHeader      = errors.New("replay: bad header")
	ErrBadRecord      = errors.New("replay: bad record")
	ErrConfigMismatch = errors.New("replay: recorded with a different config")
)

type Header struct {
	Version uint64
	MatchID ksuid.KSUID
	// Config is the Fingerprint of the match config.
	Config uint32
}

// NewHeader starts a new match with a fresh ID.
func NewHeader(cfg world.Config) (Header, error) {
	fp, err := Fingerprint(cfg)
	if err != nil {
		return Header{}, err
	}
	return Header{Version: Version, MatchID: ksuid.New(), Config: fp}, nil
}

// Fingerprint identifies a config. Replays only play back under a config
// with the same fingerprint.
func Fingerprint(cfg world.Config) (uint32, error) {
	b, err := cfg.MarshalBinary()
	if err != nil {
		return 0, err
	}
	return rollback.Fletcher32(b), nil
}

// Frame is the input that produced Frame and the checksum of the result.
type Frame struct {
	Frame    int64
	Input    world.InputData
	Checksum uint32
}

func AppendHeader(b []byte, h Header) []byte {
	var m []byte
	m = protowire.AppendTag(m, headerVersion, protowire.VarintType)
	m = protowire.AppendVarint(m, h.Version)
	m = protowire.AppendTag(m, headerMatchID, protowire.BytesType)
	m = protowire.AppendBytes(m, h.MatchID.Bytes())
	m = protowire.AppendTag(m, headerConfig, protowire.Fixed32Type)
	m = protowire.AppendFixed32(m, h.Config)

	b = protowire.AppendTag(b, fieldHeader, protowire.BytesType)
	return protowire.AppendBytes(b, m)
}

func AppendFrame(b []byte, f Frame) []byte {
	var m []byte
	m = protowire.AppendTag(m, frameNumber, protowire.VarintType)
	m = protowire.AppendVarint(m, uint64(f.Frame))
	m = protowire.AppendTag(m, frameInputs, protowire.BytesType)
	m = protowire.AppendBytes(m, world.AppendInputData(nil, f.Input))
	m = protowire.AppendTag(m, frameChecksum, protowire.Fixed32Type)
	m = protowire.AppendFixed32(m, f.Checksum)

	b = protowire.AppendTag(b, fieldFrame, protowire.BytesType)
	return protowire.AppendBytes(b, m)
}

// Record is one decoded record. Exactly one of its fields is set.
type Record struct {
	Header *Header
	Frame  *Frame
}

// ConsumeRecord decodes the record at the start of b and returns its
// length.
func ConsumeRecord(b []byte) (Record, int, error) {
	num, typ, n := protowire.ConsumeTag(b)
	if n < 0 {
		return Record{}, 0, fmt.Errorf("%w: %v", ErrBadRecord, protowire.ParseError(n))
	}
	if typ != protowire.BytesType {
		return Record{}, 0, fmt.Errorf("%w: field %d has wire type %d", ErrBadRecord, num, typ)
	}
	m, mn := protowire.ConsumeBytes(b[n:])
	if mn < 0 {
		return Record{}, 0, fmt.Errorf("%w: %v", ErrBadRecord, protowire.ParseError(mn))
	}
	n += mn

	switch num {
	case fieldHeader:
		h, err := consumeHeader(m)
		if err != nil {
			return Record{}, 0, err
		}
		return Record{Header: &h}, n, nil
	case fieldFrame:
		f, err := ConsumeFrame(m)
		if err != nil {
			return Record{}, 0, err
		}
		return Record{Frame: &f}, n, nil
	}
	return Record{}, 0, fmt.Errorf("%w: unknown field %d", ErrBadRecord, num)
}

func consumeHeader(m []byte) (Header, error) {
	var (
		h       Header
		haveID  bool
		haveCfg bool
	)
	for len(m) > 0 {
		num, typ, n := protowire.ConsumeTag(m)
		if n < 0 {
			return Header{}, fmt.Errorf("%w: %v", ErrBadHeader, protowire.ParseError(n))
		}
		m = m[n:]
		switch {
		case num == headerVersion && typ == protowire.VarintType:
			h.Version, n = protowire.ConsumeVarint(m)
		case num == headerMatchID && typ == protowire.BytesType:
			var id []byte
			id, n = protowire.ConsumeBytes(m)
			if n >= 0 {
				var err error
				if h.MatchID, err = ksuid.FromBytes(id); err != nil {
					return Header{}, fmt.Errorf("%w: match id: %v", ErrBadHeader, err)
				}
				haveID = true
			}
		case num == headerConfig && typ == protowire.Fixed32Type:
			h.Config, n = protowire.ConsumeFixed32(m)
			haveCfg = true
		default:
			n = protowire.ConsumeFieldValue(num, typ, m)
		}
		if n < 0 {
			return Header{}, fmt.Errorf("%w: %v", ErrBadHeader, protowire.ParseError(n))
		}
		m = m[n:]
	}
	if h.Version != Version {
		return Header{}, fmt.Errorf("%w: version %d, want %d", ErrBadHeader, h.Version, Version)
	}
	if !haveID || !haveCfg {
		return Header{}, fmt.Errorf("%w: missing fields", ErrBadHeader)
	}
	return h, nil
}

// ConsumeFrame decodes the body of a frame record.
func ConsumeFrame(m []byte) (Frame, error) {
	var (
		f         Frame
		haveInput bool
	)
	for len(m) > 0 {
		num, typ, n := protowire.ConsumeTag(m)
		if n < 0 {
			return Frame{}, fmt.Errorf("%w: %v", ErrBadRecord, protowire.ParseError(n))
		}
		m = m[n:]
		switch {
		case num == frameNumber && typ == protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(m)
			f.Frame = int64(v)
		case num == frameInputs && typ == protowire.BytesType:
			var b []byte
			b, n = protowire.ConsumeBytes(m)
			if n >= 0 {
				var err error
				if f.Input, err = world.DecodeInputData(b); err != nil {
					return Frame{}, fmt.Errorf("%w: frame %d: %v", ErrBadRecord, f.Frame, err)
				}
				haveInput = true
			}
		case num == frameChecksum && typ == protowire.Fixed32Type:
			f.Checksum, n = protowire.ConsumeFixed32(m)
		default:
			n = protowire.ConsumeFieldValue(num, typ, m)
		}
		if n < 0 {
			return Frame{}, fmt.Errorf("%w: %v", ErrBadRecord, protowire.ParseError(n))
		}
		m = m[n:]
	}
	if !haveInput || f.Frame <= 0 {
		return Frame{}, fmt.Errorf("%w: incomplete frame", ErrBadRecord)
	}
	return f, nil
}
