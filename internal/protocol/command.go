package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Command names understood by the locker server.
const (
	CmdPing   = "ping"
	CmdGet    = "get"
	CmdExists = "exists"
	CmdCount  = "count"
	CmdList   = "list"
	CmdRange  = "range"
	CmdInfo   = "info"
	CmdHelp   = "help"
)

// MaxArgSize bounds the key and value of a command.
const MaxArgSize = 1 << 20

var ErrTooLarge = errors.New("command argument too large")

// Command represents a decoded client command received by the locker server.
//
// A Command consists of a command name (Cmd), an optional key, and an optional
// value. The meaning of Key and Val depends on the command type: GET and
// EXISTS take a record key, LIST and RANGE take a record kind in Key and
// their bounds in Val.
type Command struct {
	Cmd string // Command name (e.g. "get", "range", "info")
	Key string // Key argument (may be empty)
	Val string // Value argument (may be empty)
}

// EncodeCommand serializes a client command into its wire format.
//
// The command is encoded as:
//
//	<cmd_len:uint8><key_len:uint32><val_len:uint32><cmd><key><val>
//
// All integer fields are encoded using big-endian byte order.
// The command name length is limited to 255 bytes.
//
// The returned byte slice is suitable for writing directly to a TCP
// connection.
func EncodeCommand(cmd, key, val string) ([]byte, error) {
	if len(cmd) > 255 {
		return nil, fmt.Errorf("command name of %d bytes: %w", len(cmd), ErrTooLarge)
	}
	if len(key) > MaxArgSize || len(val) > MaxArgSize {
		return nil, ErrTooLarge
	}

	buf := &bytes.Buffer{}

	buf.WriteByte(uint8(len(cmd)))
	if err := binary.Write(buf, binary.BigEndian, uint32(len(key))); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.BigEndian, uint32(len(val))); err != nil {
		return nil, err
	}

	buf.WriteString(cmd)
	buf.WriteString(key)
	buf.WriteString(val)

	return buf.Bytes(), nil
}

// DecodeCommand reads and decodes a command from a connection.
//
// It first reads the length-prefixed header fields, then reads the
// command name, key, and value payloads in sequence. Lengths above
// MaxArgSize are rejected before anything is allocated.
//
// DecodeCommand blocks until the full command has been read or an
// error occurs.
func DecodeCommand(r io.Reader) (*Command, error) {
	var header struct {
		CmdLen uint8
		KeyLen uint32
		ValLen uint32
	}

	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, err
	}
	if header.KeyLen > MaxArgSize || header.ValLen > MaxArgSize {
		return nil, ErrTooLarge
	}

	payload := make([]byte, int(header.CmdLen)+int(header.KeyLen)+int(header.ValLen))
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}

	keyStart := int(header.CmdLen)
	valStart := keyStart + int(header.KeyLen)

	return &Command{
		Cmd: string(payload[:keyStart]),
		Key: string(payload[keyStart:valStart]),
		Val: string(payload[valStart:]),
	}, nil
}
