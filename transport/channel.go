//
// Copyright (c) 2019-2024 Markku Rossi
//
// All rights reserved.
//

// Package transport frames protocol messages over a net.Conn the same way
// p2p.Conn did, and layers the session AEAD on top once key exchange has
// produced a shared key.
package transport

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/gogarble/yaogc/gcrypto"
)

// Kind classifies a Channel failure so callers can decide whether it is
// ever safe to retry (it never is, per the protocol's fail-fast design, but
// the session state machine still reports which phase failed).
type Kind int

const (
	// ErrIntegrity marks an AEAD authentication failure.
	ErrIntegrity Kind = iota
	// ErrTransport marks a network I/O failure.
	ErrTransport
	// ErrProtocol marks a framing or sequencing violation.
	ErrProtocol
)

func (k Kind) String() string {
	switch k {
	case ErrIntegrity:
		return "integrity failure"
	case ErrTransport:
		return "transport error"
	case ErrProtocol:
		return "protocol error"
	default:
		return "unknown error"
	}
}

// Error wraps a transport-layer failure with its Kind.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// Channel is a length-prefixed framing over an io.ReadWriteCloser, mirroring
// p2p.Conn's SendUint32/SendData/ReceiveUint32/ReceiveData shape, plus
// SealAndSend/ReceiveAndOpen once a session AEAD key is available.
type Channel struct {
	closer io.Closer
	rw     *bufio.ReadWriter
	Stats  Stats
}

// Stats tracks bytes sent/received over the channel, grounded on
// p2p.Conn's IOStats.
type Stats struct {
	Sent  uint64
	Recvd uint64
}

// NewChannel wraps conn in length-prefixed framing.
func NewChannel(conn io.ReadWriter) *Channel {
	closer, _ := conn.(io.Closer)
	return &Channel{
		closer: closer,
		rw: bufio.NewReadWriter(bufio.NewReader(conn),
			bufio.NewWriter(conn)),
	}
}

// Flush flushes buffered output.
func (c *Channel) Flush() error {
	return wrap(ErrTransport, c.rw.Flush())
}

// Close flushes and closes the underlying connection.
func (c *Channel) Close() error {
	if err := c.Flush(); err != nil {
		return err
	}
	if c.closer != nil {
		return wrap(ErrTransport, c.closer.Close())
	}
	return nil
}

// SendUint32 sends a 4 byte big-endian length or count field.
func (c *Channel) SendUint32(val int) error {
	if err := binary.Write(c.rw, binary.BigEndian, uint32(val)); err != nil {
		return wrap(ErrTransport, err)
	}
	c.Stats.Sent += 4
	return nil
}

// SendData sends a length-prefixed byte string.
func (c *Channel) SendData(val []byte) error {
	if err := c.SendUint32(len(val)); err != nil {
		return err
	}
	if _, err := c.rw.Write(val); err != nil {
		return wrap(ErrTransport, err)
	}
	c.Stats.Sent += uint64(len(val))
	return nil
}

// ReceiveUint32 reads a 4 byte big-endian length or count field.
func (c *Channel) ReceiveUint32() (int, error) {
	var buf [4]byte
	if _, err := io.ReadFull(c.rw, buf[:]); err != nil {
		return 0, wrap(ErrTransport, err)
	}
	c.Stats.Recvd += 4
	return int(binary.BigEndian.Uint32(buf[:])), nil
}

// ReceiveData reads a length-prefixed byte string.
func (c *Channel) ReceiveData() ([]byte, error) {
	n, err := c.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	if n < 0 || n > maxFrame {
		return nil, wrap(ErrProtocol, fmt.Errorf("frame length %d out of range", n))
	}
	result := make([]byte, n)
	if _, err := io.ReadFull(c.rw, result); err != nil {
		return nil, wrap(ErrTransport, err)
	}
	c.Stats.Recvd += uint64(n)
	return result, nil
}

// maxFrame bounds a single frame so a corrupted or hostile length prefix
// cannot force an unbounded allocation.
const maxFrame = 64 << 20

// SealAndSend seals val under key and sends it as one framed message.
func (c *Channel) SealAndSend(key, val []byte) error {
	framed, err := gcrypto.Seal(key, val)
	if err != nil {
		return wrap(ErrProtocol, err)
	}
	if err := c.SendData(framed); err != nil {
		return err
	}
	return c.Flush()
}

// ReceiveAndOpen receives one framed message and opens it under key. Any
// authentication failure is reported as ErrIntegrity and must be treated as
// fatal by the caller.
func (c *Channel) ReceiveAndOpen(key []byte) ([]byte, error) {
	framed, err := c.ReceiveData()
	if err != nil {
		return nil, err
	}
	pt, ok := gcrypto.Open(key, framed)
	if !ok {
		return nil, wrap(ErrIntegrity, errors.New("AEAD authentication failed"))
	}
	return pt, nil
}
