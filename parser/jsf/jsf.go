// Package jsf decodes Edgetech JSF sonar files.
//
// A JSF file is a plain concatenation of messages. Every message starts
// with the magic bytes 0x01 0x16 and a 14-byte little-endian header that
// declares the message type and the size of the payload that follows.
package jsf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/0xRadioAc7iv/go-sonarlocker/model"
	"github.com/0xRadioAc7iv/go-sonarlocker/parser"
)

const FormatName = "jsf"

// FormatNameNMEA names the decoder that also turns NMEA text messages into
// positions and courses.
const FormatNameNMEA = "jsf-nmea"

var Magic = []byte{0x01, 0x16}

// Message types with a modeled payload.
const (
	TypeSonarData         uint16 = 80
	TypeNavigationOffsets uint16 = 181
	TypeSystemInformation uint16 = 182
	TypeNMEAString        uint16 = 2002
	TypePitchRoll         uint16 = 2020
)

// Magic (2) + Header (14)
const FrameHeaderSizeBytes = 16

// Header is the fixed part of every message after the magic bytes.
type Header struct {
	Protocol        uint8
	SessionID       uint8
	MessageType     uint16
	CommandType     uint8
	SubsystemNumber uint8
	ChannelNumber   uint8
	SequenceNumber  uint8
	_               [2]byte
	MessageSize     int32 // payload bytes following the header
}

// Message is one decoded JSF frame.
type Message struct {
	Header Header
	Data   Payload

	nmea bool
}

// Payload is the type-dependent body of a message. The set of
// implementations is closed: one per modeled type plus *RawMessage.
type Payload interface {
	messageType() uint16
}

// Decoder reads JSF messages. The zero value is ready to use.
//
// NMEA text messages are Unknown records unless NMEA is set, in which case
// GLL, RMC and GGA sentences become positions and VTG sentences courses.
type Decoder struct {
	NMEA bool
}

func init() {
	parser.Register(Decoder{}, ".jsf")
	parser.Register(Decoder{NMEA: true})
}

func (d Decoder) Name() string {
	if d.NMEA {
		return FormatNameNMEA
	}
	return FormatName
}

// Decode reads one message from r.
func (d Decoder) Decode(r io.Reader) (parser.Frame, error) {
	msg, err := ReadMessage(r)
	if err != nil {
		return nil, err
	}
	msg.nmea = d.NMEA
	return msg, nil
}

// ReadMessage reads exactly one message, or returns io.EOF if r is
// exhausted at a message boundary.
func ReadMessage(r io.Reader) (*Message, error) {
	if err := parser.ReadMagic(r, FormatName, Magic); err != nil {
		return nil, err
	}

	var h Header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, parser.Truncated(FormatName, err)
	}

	payload, err := parser.ReadPayload(r, FormatName, int64(h.MessageSize))
	if err != nil {
		return nil, err
	}

	data, err := decodePayload(h.MessageType, payload)
	if err != nil {
		return nil, err
	}

	return &Message{Header: h, Data: data}, nil
}

func decodePayload(messageType uint16, payload []byte) (Payload, error) {
	switch messageType {
	case TypeSonarData:
		sd, err := decodeSonarData(payload)
		if err != nil {
			return nil, err
		}
		return sd, nil
	case TypePitchRoll:
		return decodeFixed(payload, &PitchRollData{})
	case TypeNavigationOffsets:
		return decodeFixed(payload, &NavigationOffsets{})
	case TypeSystemInformation:
		return decodeFixed(payload, &SystemInformation{})
	case TypeNMEAString:
		ns, err := decodeNMEAString(payload)
		if err != nil {
			return nil, err
		}
		return ns, nil
	default:
		return &RawMessage{Type: messageType, Data: payload}, nil
	}
}

// decodeFixed decodes a fixed-layout payload. Bytes past the layout are
// padding declared by the message size and are ignored.
func decodeFixed(payload []byte, dst Payload) (Payload, error) {
	need := binary.Size(dst)
	if len(payload) < need {
		return nil, parser.Unsupported(FormatName, "message type %d needs %d bytes, size declares %d",
			dst.messageType(), need, len(payload))
	}
	if err := binary.Read(bytes.NewReader(payload[:need]), binary.LittleEndian, dst); err != nil {
		return nil, fmt.Errorf("jsf: decode message type %d: %w", dst.messageType(), err)
	}
	return dst, nil
}

func (m *Message) TypeCode() int { return int(m.Header.MessageType) }

// Channel maps the header channel number.
func (m *Message) Channel() model.Channel {
	return model.ChannelFromNumber(int(m.Header.ChannelNumber))
}

// Source identifies the subsystem that produced the message.
func (m *Message) Source() string {
	return fmt.Sprintf("%s:%d", FormatName, m.Header.SubsystemNumber)
}

// Records converts the message: sonar data becomes a ping, pitch/roll
// data an orientation, and everything else is unknown. NMEA text is
// converted only when the message was read by an NMEA decoder.
func (m *Message) Records() []model.Record {
	switch d := m.Data.(type) {
	case *NMEAString:
		if m.nmea {
			if rec, ok := d.Record(m.Source()); ok {
				return []model.Record{rec}
			}
		}
	case *SonarData:
		return []model.Record{&model.Ping[uint16]{
			Source:           m.Source(),
			Timestamp:        d.Timestamp(),
			Frequency:        d.MixerFrequencyHz(),
			SamplingInterval: d.SamplingIntervalSeconds(),
			Channel:          m.Channel(),
			Data:             d.Trace,
		}}
	case *PitchRollData:
		return []model.Record{&model.Orientation{
			Source:    m.Source(),
			Timestamp: d.Timestamp(),
			Pitch:     d.Pitch(),
			Roll:      d.Roll(),
			Heading:   d.Heading(),
		}}
	}

	return []model.Record{&model.Unknown{
		TypeCode: int(m.Header.MessageType),
		Size:     int(m.Header.MessageSize),
	}}
}
