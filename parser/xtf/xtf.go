// Package xtf decodes Triton XTF sonar files.
//
// An XTF file starts with a file header followed by packets. Each packet
// begins with the magic 0xFACE and declares its own length, so packets the
// decoder does not model are skipped whole.
package xtf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/0xRadioAc7iv/go-sonarlocker/model"
	"github.com/0xRadioAc7iv/go-sonarlocker/parser"
)

const FormatName = "xtf"

const (
	FileHeaderMagic byte = 0x7b

	// FileHeaderSizeBytes grows to twice its size when the file declares
	// more channels than fit in the base header.
	FileHeaderSizeBytes = 1024
	maxBaseChannels     = 6
)

// PacketMagic is 0xFACE, stored little endian.
var PacketMagic = []byte{0xce, 0xfa}

// Header types.
const (
	HeaderTypeSonar uint8 = 0
)

// Magic (2) + PacketHeader (12)
const PacketHeaderSizeBytes = 14

const (
	PingHeaderSizeBytes    = 242
	ChannelHeaderSizeBytes = 64
	DefaultBytesPerSample  = 2
)

// PacketHeader follows the packet magic.
type PacketHeader struct {
	HeaderType         uint8
	SubChannelNumber   uint8
	NumChansToFollow   uint16
	_                  [4]byte
	NumBytesThisRecord uint32 // includes the packet header
}

// Packet is one decoded XTF record. Sonar packets carry a ping header and
// one entry per channel; other packets keep their raw body.
type Packet struct {
	Header   PacketHeader
	Ping     *PingHeader
	Channels []Channel
	Raw      []byte

	// FileHeader is set on the first packet of a file when the file header
	// was consumed while decoding it.
	FileHeader *FileHeader
}

// FileHeader is the part of the XTF file header the decoder uses.
type FileHeader struct {
	SystemType            uint8
	RecordingProgramName  [8]byte
	RecordingProgramVer   [8]byte
	SonarName             [16]byte
	SensorsType           uint16
	NoteString            [64]byte
	FileName              [64]byte
	NavUnits              uint16
	NumSonarChannels      uint16
	NumBathyChannels      uint16
	NumSnippetChannels    uint8
	NumForwardLookArrays  uint8
	NumEchoStrengthChans  uint16
	NumInterferometryChan uint8
	_                     [3]byte
}

// TotalChannels sums every channel count declared by the header.
func (h *FileHeader) TotalChannels() int {
	return int(h.NumSonarChannels) + int(h.NumBathyChannels) + int(h.NumSnippetChannels) +
		int(h.NumForwardLookArrays) + int(h.NumEchoStrengthChans) + int(h.NumInterferometryChan)
}

// Size is the number of bytes the file header occupies.
func (h *FileHeader) Size() int {
	if h.TotalChannels() > maxBaseChannels {
		return 2 * FileHeaderSizeBytes
	}
	return FileHeaderSizeBytes
}

// Decoder reads XTF packets. BytesPerSample applies to every channel and
// defaults to 2 when zero.
type Decoder struct {
	BytesPerSample int
}

func init() {
	parser.Register(Decoder{}, ".xtf")
}

func (Decoder) Name() string { return FormatName }

func (d Decoder) Decode(r io.Reader) (parser.Frame, error) {
	p, err := d.ReadPacket(r)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (d Decoder) bytesPerSample() int {
	if d.BytesPerSample == 0 {
		return DefaultBytesPerSample
	}
	return d.BytesPerSample
}

// ReadPacket reads one packet. A file header in front of the packet is
// consumed first, so a file holding only a header yields io.EOF.
func (d Decoder) ReadPacket(r io.Reader) (*Packet, error) {
	switch bps := d.bytesPerSample(); bps {
	case 1, 2, 4:
	default:
		return nil, parser.Unsupported(FormatName, "%d bytes per sample", bps)
	}

	first := make([]byte, 1)
	if _, err := io.ReadFull(r, first); err != nil {
		return nil, err
	}

	var fh *FileHeader
	if first[0] == FileHeaderMagic {
		var err error
		if fh, err = readFileHeader(r); err != nil {
			return nil, err
		}
		if _, err := io.ReadFull(r, first); err != nil {
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, parser.Truncated(FormatName, err)
		}
	}

	// the first magic byte was consumed above
	if first[0] != PacketMagic[0] {
		return nil, parser.BadMagic(FormatName, first)
	}
	second := make([]byte, 1)
	if _, err := io.ReadFull(r, second); err != nil {
		return nil, parser.Truncated(FormatName, err)
	}
	if second[0] != PacketMagic[1] {
		return nil, parser.BadMagic(FormatName, []byte{first[0], second[0]})
	}

	var h PacketHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, parser.Truncated(FormatName, err)
	}
	if h.NumBytesThisRecord < PacketHeaderSizeBytes {
		return nil, parser.Unsupported(FormatName, "record size %d smaller than the packet header", h.NumBytesThisRecord)
	}

	body, err := parser.ReadPayload(r, FormatName, int64(h.NumBytesThisRecord)-PacketHeaderSizeBytes)
	if err != nil {
		return nil, err
	}

	p := &Packet{Header: h, FileHeader: fh}
	if h.HeaderType != HeaderTypeSonar {
		p.Raw = body
		return p, nil
	}

	if err := p.decodeSonar(body, d.bytesPerSample()); err != nil {
		return nil, err
	}
	return p, nil
}

func readFileHeader(r io.Reader) (*FileHeader, error) {
	// magic already consumed
	fixed := make([]byte, FileHeaderSizeBytes-1)
	if _, err := io.ReadFull(r, fixed); err != nil {
		return nil, parser.Truncated(FormatName, err)
	}

	fh := &FileHeader{}
	if err := binary.Read(bytes.NewReader(fixed), binary.LittleEndian, fh); err != nil {
		return nil, fmt.Errorf("xtf: decode file header: %w", err)
	}

	if extra := fh.Size() - FileHeaderSizeBytes; extra > 0 {
		if err := parser.Discard(r, FormatName, int64(extra)); err != nil {
			return nil, err
		}
	}
	return fh, nil
}

func (p *Packet) decodeSonar(body []byte, bps int) error {
	if len(body) < PingHeaderSizeBytes {
		return parser.Unsupported(FormatName, "sonar record of %d bytes has no room for its ping header", len(body))
	}

	p.Ping = &PingHeader{}
	if err := binary.Read(bytes.NewReader(body[:PingHeaderSizeBytes]), binary.LittleEndian, p.Ping); err != nil {
		return fmt.Errorf("xtf: decode ping header: %w", err)
	}

	off := PingHeaderSizeBytes
	p.Channels = make([]Channel, 0, p.Header.NumChansToFollow)
	for i := range int(p.Header.NumChansToFollow) {
		if len(body)-off < ChannelHeaderSizeBytes {
			return parser.Unsupported(FormatName, "channel %d header overruns the record", i)
		}

		var ch Channel
		if err := binary.Read(bytes.NewReader(body[off:off+ChannelHeaderSizeBytes]), binary.LittleEndian, &ch.Header); err != nil {
			return fmt.Errorf("xtf: decode channel header: %w", err)
		}
		off += ChannelHeaderSizeBytes

		n := int64(ch.Header.NumSamples) * int64(bps)
		if n > int64(len(body)-off) {
			return parser.Unsupported(FormatName, "channel %d declares %d samples, record has %d bytes left",
				i, ch.Header.NumSamples, len(body)-off)
		}
		ch.BytesPerSample = bps
		ch.Samples = body[off : off+int(n)]
		off += int(n)

		p.Channels = append(p.Channels, ch)
	}

	// bytes past the last channel are padding up to the declared size
	return nil
}

func (p *Packet) TypeCode() int { return int(p.Header.HeaderType) }

// Records yields one ping per channel of a sonar packet, all sharing the
// ping time. Other packets are unknown.
func (p *Packet) Records() []model.Record {
	if p.Ping == nil {
		return []model.Record{&model.Unknown{
			TypeCode: int(p.Header.HeaderType),
			Size:     int(p.Header.NumBytesThisRecord),
		}}
	}

	ts := p.Ping.Timestamp()
	recs := make([]model.Record, 0, len(p.Channels))
	for i := range p.Channels {
		recs = append(recs, p.Channels[i].ping(ts))
	}
	return recs
}

// PingHeader is the fixed header of a sonar packet.
type PingHeader struct {
	Year                  uint16
	Month                 uint8
	Day                   uint8
	Hour                  uint8
	Minute                uint8
	Second                uint8
	HSeconds              uint8
	JulianDay             uint16
	EventNumber           uint32
	PingNumber            uint32
	SoundVelocity         float32
	OceanTide             float32
	_                     [4]byte
	ConductivityFreq      float32
	TemperatureFreq       float32
	PressureFreq          float32
	PressureTemp          float32
	Conductivity          float32
	WaterTemperature      float32
	Pressure              float32
	ComputedSoundVelocity float32
	MagX                  float32
	MagY                  float32
	MagZ                  float32
	AuxVal1               float32
	AuxVal2               float32
	AuxVal3               float32
	_                     [12]byte
	SpeedLog              float32
	Turbidity             float32
	ShipSpeed             float32
	ShipGyro              float32
	ShipYCoordinate       float64
	ShipXCoordinate       float64
	ShipAltitude          uint16
	ShipDepth             uint16
	FixTimeHour           uint8
	FixTimeMinute         uint8
	FixTimeSecond         uint8
	FixTimeHSecond        uint8
	SensorSpeed           float32
	KilometersPipe        float32
	SensorYCoordinate     float64
	SensorXCoordinate     float64
	SonarStatus           uint16
	RangeToFish           uint16
	BearingToFish         uint16
	CableOut              uint16
	Layback               float32
	CableTension          float32
	SensorDepth           float32
	SensorPrimaryAltitude float32
	SensorAuxAltitude     float32
	SensorPitch           float32
	SensorRoll            float32
	SensorHeading         float32
	Heave                 float32
	Yaw                   float32
	AttitudeTimeTag       uint32
	DOT                   float32
	NavFixMilliseconds    uint32
	ComputerClockHour     uint8
	ComputerClockMinute   uint8
	ComputerClockSecond   uint8
	ComputerClockHSec     uint8
	FishPositionDeltaX    int16
	FishPositionDeltaY    int16
	FishPositionErrorCode uint8
	OptionalOffset        uint32
	CableOutHundredths    uint8
	_                     [6]byte
}

func (h *PingHeader) Timestamp() time.Time {
	return time.Date(int(h.Year), time.Month(h.Month), int(h.Day),
		int(h.Hour), int(h.Minute), int(h.Second),
		int(h.HSeconds)*int(10*time.Millisecond), time.UTC)
}

// ChannelHeader precedes the samples of one channel.
type ChannelHeader struct {
	ChannelNumber         uint16
	DownsampleMethod      uint16
	SlantRange            float32
	GroundRange           float32
	TimeDelay             float32
	TimeDuration          float32 // seconds
	SecondsPerPing        float32
	ProcessingFlags       uint16
	Frequency             uint16 // kHz
	InitialGainCode       uint16
	GainCode              uint16
	BandWidth             uint16
	ContactNumber         uint32
	ContactClassification uint16
	ContactSubNumber      uint8
	ContactType           uint8
	NumSamples            uint32
	MillivoltScale        uint16
	ContactTimeOffTrack   float32
	ContactCloseNumber    uint8
	_                     [1]byte
	FixedVSOP             float32
	Weight                int16
	_                     [4]byte
}

// Channel is one channel of a sonar packet with its raw little-endian
// samples.
type Channel struct {
	Header         ChannelHeader
	BytesPerSample int
	Samples        []byte
}

func (c *Channel) ping(ts time.Time) model.Record {
	switch c.BytesPerSample {
	case 1:
		return newPing(c, ts, c.Samples)
	case 4:
		return newPing(c, ts, samples(c.Samples, 4, binary.LittleEndian.Uint32))
	default:
		return newPing(c, ts, samples(c.Samples, 2, binary.LittleEndian.Uint16))
	}
}

func newPing[T model.Sample](c *Channel, ts time.Time, data []T) *model.Ping[T] {
	var interval float64
	if n := c.Header.NumSamples; n > 0 {
		interval = float64(c.Header.TimeDuration) / float64(n)
	}
	return &model.Ping[T]{
		Source:           FormatName,
		Timestamp:        ts,
		Frequency:        1000 * float64(c.Header.Frequency),
		SamplingInterval: interval,
		Channel:          model.ChannelFromNumber(int(c.Header.ChannelNumber)),
		Data:             data,
	}
}

func samples[T uint16 | uint32](raw []byte, width int, get func([]byte) T) []T {
	out := make([]T, len(raw)/width)
	for i := range out {
		out[i] = get(raw[i*width:])
	}
	return out
}
