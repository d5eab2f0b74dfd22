package protocol

import (
	"bytes"
	"encoding/binary"
	"io"
)

// Status tells the client how to read a response body.
type Status uint8

const (
	StatusOK       Status = 0
	StatusNotFound Status = 1
	StatusError    Status = 2 // body is an error message
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotFound:
		return "not found"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Response is a decoded server reply.
type Response struct {
	Status Status
	Body   string
}

// EncodeResponse serializes a reply as
//
//	<status:uint8><body_len:uint32><body>
//
// in big-endian byte order.
func EncodeResponse(status Status, body string) ([]byte, error) {
	buf := &bytes.Buffer{}

	buf.WriteByte(byte(status))
	if err := binary.Write(buf, binary.BigEndian, uint32(len(body))); err != nil {
		return nil, err
	}

	buf.WriteString(body)

	return buf.Bytes(), nil
}

func DecodeResponse(r io.Reader) (*Response, error) {
	var header struct {
		Status  uint8
		BodyLen uint32
	}

	if err := binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, err
	}

	buf := make([]byte, header.BodyLen)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}

	return &Response{Status: Status(header.Status), Body: string(buf)}, nil
}
