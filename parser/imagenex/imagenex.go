// Package imagenex decodes Imagenex 881 rotary sonar files (.81B).
//
// Every shot is big endian: a 112-byte header ending in a switch data
// header, the echo samples, a termination byte and fixed padding.
package imagenex

import (
	"bytes"
	"encoding/binary"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/0xRadioAc7iv/go-sonarlocker/model"
	"github.com/0xRadioAc7iv/go-sonarlocker/parser"
)

const FormatName = "81b"

var Magic = []byte("81B")

const (
	// Magic (3) + ShotHeader (109)
	ShotHeaderSizeBytes = 112

	TerminationByte byte = 0xfc

	switchHeaderI byte = 'I'
	switchHeaderX byte = 'X'

	// head id of an IMX switch data header, which is followed by less padding
	imxSwitchID = 0x4d
	imxPadding  = 19
	padding     = 63

	dateLayout = "02-Jan-2006 15:04:05"
)

// ShotHeader is the fixed part of a shot after the magic.
type ShotHeader struct {
	NToReadIndex        uint8
	TotalBytes          uint16
	NToRead             uint16
	Date                [12]byte // DD-MMM-YYYY
	Time                [9]byte  // HH:MM:SS
	Hundredths          [4]byte  // .hh
	SampleRate          uint8
	ExtendedBytes       uint8
	_                   [2]byte
	Dir                 uint8
	StartGain           uint8
	SectorSize          uint8
	TrainAngle          uint8
	RangeOffset         uint8
	Absorption          uint8
	ProfileGrid         uint8
	PulseLength         uint8
	Profile             uint8
	Velocity            uint16
	UserText            [32]byte
	Frequency           uint16 // kHz
	AzimuthDriveHead    uint16
	_                   [7]byte
	VerticalAngleOffset uint16
	_                   [7]byte
	SwitchI             byte
	IX                  uint8
	SwitchX             byte
	HeadID              uint8
	SerialStatus        uint8
	HeadPosition        uint16
	Range               uint8
	ProfileRange        uint16
	DataBytesLo         uint8
	DataBytesHi         uint8
}

// EchoLength is the number of echo samples that follow the header.
func (h *ShotHeader) EchoLength() int {
	return int(h.DataBytesHi)<<7 | int(h.DataBytesLo)
}

// Shot is one decoded 81B shot.
type Shot struct {
	Header ShotHeader
	Echo   []uint8
}

type Decoder struct{}

func init() {
	parser.Register(Decoder{}, ".81b")
}

func (Decoder) Name() string { return FormatName }

func (Decoder) Decode(r io.Reader) (parser.Frame, error) {
	s, err := ReadShot(r)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ReadShot reads one shot, or returns io.EOF at a shot boundary.
func ReadShot(r io.Reader) (*Shot, error) {
	if err := parser.ReadMagic(r, FormatName, Magic); err != nil {
		return nil, err
	}

	s := &Shot{}
	if err := binary.Read(r, binary.BigEndian, &s.Header); err != nil {
		return nil, parser.Truncated(FormatName, err)
	}
	if s.Header.SwitchI != switchHeaderI || s.Header.SwitchX != switchHeaderX {
		return nil, parser.BadMagic(FormatName, []byte{s.Header.SwitchI, s.Header.IX, s.Header.SwitchX})
	}

	echo, err := parser.ReadPayload(r, FormatName, int64(s.Header.EchoLength()))
	if err != nil {
		return nil, err
	}
	s.Echo = echo

	term := make([]byte, 1)
	if _, err := io.ReadFull(r, term); err != nil {
		return nil, parser.Truncated(FormatName, err)
	}
	if term[0] != TerminationByte {
		return nil, parser.BadMagic(FormatName, term)
	}

	pad := padding
	if s.Header.IX == imxSwitchID {
		pad = imxPadding
	}
	if err := parser.Discard(r, FormatName, int64(pad)); err != nil {
		return nil, err
	}

	return s, nil
}

// Timestamp parses the text date and time fields of the shot.
func (s *Shot) Timestamp() (time.Time, error) {
	text := cstring(s.Header.Date[:]) + " " + cstring(s.Header.Time[:])
	t, err := time.ParseInLocation(dateLayout, text, time.UTC)
	if err != nil {
		return time.Time{}, parser.Unsupported(FormatName, "shot time %q: %v", text, err)
	}

	hs := strings.TrimPrefix(cstring(s.Header.Hundredths[:]), ".")
	if n, err := strconv.Atoi(hs); err == nil && n >= 0 && n < 100 {
		t = t.Add(time.Duration(n) * 10 * time.Millisecond)
	}
	return t, nil
}

func (s *Shot) TypeCode() int { return int(s.Header.IX) }

// Records yields the shot as a single ping. A shot whose time cannot be
// parsed is unknown, since it cannot be keyed.
func (s *Shot) Records() []model.Record {
	ts, err := s.Timestamp()
	if err != nil {
		return []model.Record{&model.Unknown{TypeCode: s.TypeCode(), Size: len(s.Echo)}}
	}
	return []model.Record{&model.Ping[uint8]{
		Source:    FormatName,
		Timestamp: ts,
		Frequency: 1000 * float64(s.Header.Frequency),
		Channel:   model.Other,
		Data:      s.Echo,
	}}
}

func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return strings.TrimSpace(string(b))
}
