package core

import (
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/0xRadioAc7iv/go-sonarlocker/internal/protocol"
	"github.com/0xRadioAc7iv/go-sonarlocker/model"
)

// DefaultListLimit caps the keys returned by LIST when the client gives no
// limit.
const DefaultListLimit = 100

// HandleConn serves query commands on conn until the client disconnects.
// It has the signature of server.Handler.
func (l *Locker) HandleConn(conn net.Conn, logger log.Logger) {
	defer conn.Close()

	for {
		command, err := protocol.DecodeCommand(conn)
		if err != nil {
			if errors.Is(err, io.EOF) {
				level.Debug(logger).Log("msg", "client disconnected")
			} else {
				level.Warn(logger).Log("msg", "failed to read command", "err", err)
			}
			return
		}

		status, body := l.handleCommand(command)
		if status == protocol.StatusError {
			level.Debug(logger).Log("msg", "command failed", "cmd", command.Cmd, "err", body)
		}
		if err := reply(conn, status, body); err != nil {
			level.Debug(logger).Log("msg", "client disconnected", "err", err)
			return
		}
	}
}

func (l *Locker) handleCommand(command *protocol.Command) (protocol.Status, string) {
	switch strings.ToLower(command.Cmd) {
	case protocol.CmdPing:
		return protocol.StatusOK, "PONG!"
	case protocol.CmdGet:
		return l.handleCommandGet(command.Key)
	case protocol.CmdExists:
		return l.handleCommandExists(command.Key)
	case protocol.CmdCount:
		return l.handleCommandCount(command.Key)
	case protocol.CmdList:
		return l.handleCommandList(command.Key, command.Val)
	case protocol.CmdRange:
		return l.handleCommandRange(command.Key, command.Val)
	case protocol.CmdInfo:
		return l.handleCommandInfo()
	case protocol.CmdHelp:
		return protocol.StatusOK, strings.TrimSpace(helpString)
	default:
		return protocol.StatusError, fmt.Sprintf("invalid command %q", command.Cmd)
	}
}

func (l *Locker) handleCommandGet(key string) (protocol.Status, string) {
	k, err := model.ParseKey(key)
	if err != nil {
		return protocol.StatusError, err.Error()
	}

	rec, err := l.Get(k)
	if errors.Is(err, ErrKeyNotFound) {
		return protocol.StatusNotFound, ""
	}
	if err != nil {
		return protocol.StatusError, err.Error()
	}

	return protocol.StatusOK, fmt.Sprint(rec)
}

func (l *Locker) handleCommandExists(key string) (protocol.Status, string) {
	k, err := model.ParseKey(key)
	if err != nil {
		return protocol.StatusError, err.Error()
	}

	_, ok := l.index.get(k)
	return protocol.StatusOK, strconv.FormatBool(ok)
}

func (l *Locker) handleCommandCount(kind string) (protocol.Status, string) {
	if kind == "" {
		return protocol.StatusOK, strconv.Itoa(l.Len())
	}

	k, ok := model.ParseKind(kind)
	if !ok {
		return protocol.StatusError, fmt.Sprintf("unknown kind %q", kind)
	}

	n := 0
	for range l.Span(k, time.Time{}, maxTime) {
		n++
	}
	return protocol.StatusOK, strconv.Itoa(n)
}

func (l *Locker) handleCommandList(kind, limit string) (protocol.Status, string) {
	n := DefaultListLimit
	if limit != "" {
		var err error
		if n, err = strconv.Atoi(limit); err != nil || n < 0 {
			return protocol.StatusError, fmt.Sprintf("invalid limit %q", limit)
		}
	}

	entries := l.Iter()
	if kind != "" {
		k, ok := model.ParseKind(kind)
		if !ok {
			return protocol.StatusError, fmt.Sprintf("unknown kind %q", kind)
		}
		entries = l.Span(k, time.Time{}, maxTime)
	}

	var keys []string
	for k := range entries {
		if len(keys) == n {
			break
		}
		keys = append(keys, k.String())
	}

	return protocol.StatusOK, formatKeys(keys)
}

// handleCommandRange expects both bounds in bounds, separated by a space.
func (l *Locker) handleCommandRange(kind, bounds string) (protocol.Status, string) {
	k, ok := model.ParseKind(kind)
	if !ok {
		return protocol.StatusError, fmt.Sprintf("unknown kind %q", kind)
	}

	fields := strings.Fields(bounds)
	if len(fields) != 2 {
		return protocol.StatusError, "range needs a start and an end time"
	}
	t0, err := time.Parse(time.RFC3339Nano, fields[0])
	if err != nil {
		return protocol.StatusError, err.Error()
	}
	t1, err := time.Parse(time.RFC3339Nano, fields[1])
	if err != nil {
		return protocol.StatusError, err.Error()
	}

	var keys []string
	for k := range l.Span(k, t0, t1) {
		keys = append(keys, k.String())
	}

	return protocol.StatusOK, formatKeys(keys)
}

func (l *Locker) handleCommandInfo() (protocol.Status, string) {
	s := l.Stats()

	var b strings.Builder
	fmt.Fprintf(&b, "dir: %s\n", l.Path())
	fmt.Fprintf(&b, "files: %d\n", s.Files)
	fmt.Fprintf(&b, "entries: %d\n", s.Entries)
	for _, kind := range model.Kinds {
		if n := s.ByKind[kind]; n > 0 {
			fmt.Fprintf(&b, "  %s: %d\n", kind, n)
		}
	}
	fmt.Fprintf(&b, "collisions: %d\n", s.Collisions)
	fmt.Fprintf(&b, "from hints: %t", s.FromHints)

	return protocol.StatusOK, b.String()
}

// maxTime is later than any timestamp a sonar file can hold.
var maxTime = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

func formatKeys(keys []string) string {
	if len(keys) == 0 {
		return "nil"
	}
	return "----- KEYS START -----\n" + strings.Join(keys, "\n") + "\n----- KEYS END -----"
}

func reply(conn net.Conn, status protocol.Status, body string) error {
	encodedResponse, err := protocol.EncodeResponse(status, body)
	if err != nil {
		return err
	}

	_, err = conn.Write(encodedResponse)
	return err
}

const helpString = `
Available Commands:

PING
  Check if the server is alive.
  Response: PONG!

GET <key>
  Decode and print the record stored under a key.
  Keys look like Ping/2015-05-28T17:26:00.123Z/Port.
  Response: record | not found

EXISTS <key>
  Check if a key is indexed.
  Response: true | false

COUNT [kind]
  Return the number of indexed keys, optionally of one kind.
  Response: integer

LIST [kind] [limit]
  List indexed keys in order, at most limit of them (default 100).
  Response: list of keys | nil

RANGE <kind> <t0> <t1>
  List the keys of one kind with t0 <= time < t1, on every channel.
  Times are RFC 3339.
  Response: list of keys | nil

INFO
  Summarize the indexed directory.

HELP
  Show this help message.

EXIT (cli only)
  Close the client connection.
`
