package jsf

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/0xRadioAc7iv/go-sonarlocker/model"
)

// Encoder writes JSF messages. It produces the subset of fields the
// decoder reads back; everything else is zero.
type Encoder struct {
	w        *bufio.Writer
	sequence uint8
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriter(w)}
}

// WriteMessage writes a header and a raw payload. The size field and the
// sequence number are filled in.
func (e *Encoder) WriteMessage(h Header, payload []byte) error {
	h.MessageSize = int32(len(payload))
	h.SequenceNumber = e.sequence
	e.sequence++

	if _, err := e.w.Write(Magic); err != nil {
		return err
	}
	if err := binary.Write(e.w, binary.LittleEndian, &h); err != nil {
		return err
	}
	_, err := e.w.Write(payload)
	return err
}

// WritePing writes a type 80 message for one ping.
func (e *Encoder) WritePing(subsystem uint8, p *model.Ping[uint16]) error {
	var hdr SonarDataHeader
	sec, ms := splitTime(p.Timestamp)
	hdr.Time = sec
	hdr.MillisecondsToday = ms
	hdr.MixerFrequency = float32(p.Frequency)
	hdr.SamplingInterval = uint32(math.Round(p.SamplingInterval * 1e9))
	if len(p.Data) <= math.MaxUint16 {
		hdr.Samples = uint16(len(p.Data))
	}

	var buf bytes.Buffer
	buf.Grow(SonarDataHeaderSizeBytes + traceSampleWidth*len(p.Data))
	if err := binary.Write(&buf, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("encode sonar data header: %w", err)
	}
	if err := binary.Write(&buf, binary.LittleEndian, p.Data); err != nil {
		return fmt.Errorf("encode trace: %w", err)
	}

	return e.WriteMessage(Header{
		Protocol:        0x0d,
		MessageType:     TypeSonarData,
		SubsystemNumber: subsystem,
		ChannelNumber:   channelNumber(p.Channel),
	}, buf.Bytes())
}

// WriteOrientation writes a type 2020 message. Nil fields are written
// with their validity bit cleared.
func (e *Encoder) WriteOrientation(subsystem uint8, o *model.Orientation) error {
	var pr PitchRollData
	sec, ms := splitTime(o.Timestamp)
	pr.Time = sec
	pr.Milliseconds = int32(ms)

	var flags uint32
	if o.Pitch != nil {
		pr.RawPitch = int16(math.Round(*o.Pitch * 32768.0 / 180.0))
		flags |= ValidPitch
	}
	if o.Roll != nil {
		pr.RawRoll = int16(math.Round(*o.Roll * 32768.0 / 180.0))
		flags |= ValidRoll
	}
	if o.Heading != nil {
		pr.RawHeading = uint16(math.Round(*o.Heading / 0.01))
		flags |= ValidHeading
	}
	pr.ValidityFlag = int32(flags)

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, &pr); err != nil {
		return fmt.Errorf("encode pitch roll: %w", err)
	}

	return e.WriteMessage(Header{
		Protocol:        0x0d,
		MessageType:     TypePitchRoll,
		SubsystemNumber: subsystem,
	}, buf.Bytes())
}

// Flush writes any buffered data to the underlying writer.
func (e *Encoder) Flush() error {
	return e.w.Flush()
}

func splitTime(t time.Time) (int32, uint32) {
	return int32(t.Unix()), uint32(t.Nanosecond() / int(time.Millisecond))
}

func channelNumber(c model.Channel) uint8 {
	switch c {
	case model.Port:
		return 0
	case model.Starboard:
		return 1
	default:
		return 2
	}
}
