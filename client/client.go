package client

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/0xRadioAc7iv/go-sonarlocker/internal"
	"github.com/0xRadioAc7iv/go-sonarlocker/internal/protocol"
)

// ErrNotFound is returned by Get for a key the server has not indexed.
var ErrNotFound = errors.New("key not found")

// ServerError is a command the server rejected or failed to run.
type ServerError struct {
	Cmd string
	Msg string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: %s", e.Cmd, e.Msg)
}

// Client is one connection to a locker server. It is not safe for
// concurrent use.
type Client struct {
	conn net.Conn
}

func Connect(opts ...Option) (*Client, error) {
	cfg := internal.DefaultConfig()

	for _, opt := range opts {
		opt(cfg)
	}

	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}

	return &Client{conn: conn}, nil
}

func (c *Client) Ping() error {
	res, err := c.sendCommand(protocol.CmdPing, "", "")
	if err != nil {
		return err
	}
	if res != "PONG!" {
		return fmt.Errorf("unexpected ping reply %q", res)
	}
	return nil
}

// Get returns the server's rendering of the record stored under key.
func (c *Client) Get(key string) (string, error) {
	return c.sendCommand(protocol.CmdGet, key, "")
}

func (c *Client) Exists(key string) (bool, error) {
	res, err := c.sendCommand(protocol.CmdExists, key, "")
	if err != nil {
		return false, err
	}

	return strconv.ParseBool(res)
}

// Count returns the number of indexed keys of kind, or of every kind when
// kind is empty.
func (c *Client) Count(kind string) (int, error) {
	res, err := c.sendCommand(protocol.CmdCount, kind, "")
	if err != nil {
		return 0, err
	}

	return strconv.Atoi(res)
}

// List returns up to limit keys in index order. A limit of zero or less
// leaves the server's default in place.
func (c *Client) List(kind string, limit int) ([]string, error) {
	var val string
	if limit > 0 {
		val = strconv.Itoa(limit)
	}

	res, err := c.sendCommand(protocol.CmdList, kind, val)
	if err != nil {
		return nil, err
	}

	return parseKeys(res), nil
}

// Range returns the keys of kind with t0 <= time < t1.
func (c *Client) Range(kind string, t0, t1 time.Time) ([]string, error) {
	bounds := t0.UTC().Format(time.RFC3339Nano) + " " + t1.UTC().Format(time.RFC3339Nano)

	res, err := c.sendCommand(protocol.CmdRange, kind, bounds)
	if err != nil {
		return nil, err
	}

	return parseKeys(res), nil
}

func (c *Client) Info() (string, error) {
	return c.sendCommand(protocol.CmdInfo, "", "")
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Execute sends a raw command and returns the reply body.
func (c *Client) Execute(cmd, key, value string) (string, error) {
	return c.sendCommand(cmd, key, value)
}

func (c *Client) sendCommand(cmd, key, value string) (string, error) {
	payload, err := protocol.EncodeCommand(cmd, key, value)
	if err != nil {
		return "", err
	}

	_, err = c.conn.Write(payload)
	if err != nil {
		return "", err
	}

	response, err := protocol.DecodeResponse(c.conn)
	if err != nil {
		return "", err
	}

	switch response.Status {
	case protocol.StatusOK:
		return response.Body, nil
	case protocol.StatusNotFound:
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	default:
		return "", &ServerError{Cmd: cmd, Msg: response.Body}
	}
}

func parseKeys(body string) []string {
	if body == "nil" {
		return nil
	}

	var keys []string
	for _, line := range strings.Split(body, "\n") {
		if line == "" || strings.HasPrefix(line, "-----") {
			continue
		}
		keys = append(keys, line)
	}
	return keys
}
