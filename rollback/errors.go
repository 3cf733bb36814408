package rollback

import (
	"errors"
	"fmt"
)

var (
	// ErrDesync means the peers no longer agree on the match. It cannot be
	// recovered from.
	ErrDesync = errors.New("rollback: desync")

	ErrUnknownFrame = errors.New("rollback: frame not in history")
	ErrInputCount   = errors.New("rollback: wrong number of inputs")
)

type DesyncError struct {
	Frame  int64
	Local  uint32
	Remote uint32
}

func (e *DesyncError) Error() string {
	return fmt.Sprintf("desync at frame %d: local checksum %08x, remote %08x", e.Frame, e.Local, e.Remote)
}

func (e *DesyncError) Unwrap() error {
	return ErrDesync
}
