package jsf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/0xRadioAc7iv/go-sonarlocker/model"
	"github.com/0xRadioAc7iv/go-sonarlocker/parser"
	"github.com/0xRadioAc7iv/go-sonarlocker/parser/nmea"
)

// Validity bits of a pitch/roll message.
const (
	ValidAccelerationX uint32 = 1 << iota
	ValidAccelerationY
	ValidAccelerationZ
	ValidGyroRateX
	ValidGyroRateY
	ValidGyroRateZ
	ValidPitch
	ValidRoll
	ValidHeave
	ValidHeading
	ValidTemperature
	ValidDeviceInfo
	ValidYaw
)

// PitchRollData is a type 2020 message from an attitude sensor.
// Raw fields are only meaningful when their validity bit is set; the
// accessor methods return nil otherwise.
type PitchRollData struct {
	Time          int32
	Milliseconds  int32
	_             [4]byte
	AccelerationX int16
	AccelerationY int16
	AccelerationZ int16
	GyroRateX     int16
	GyroRateY     int16
	GyroRateZ     int16
	RawPitch      int16
	RawRoll       int16
	RawTemp       int16
	DeviceInfo    uint16
	RawHeave      int16
	RawHeading    uint16
	ValidityFlag  int32
	RawYaw        int16
	_             [2]byte
}

func (*PitchRollData) messageType() uint16 { return TypePitchRoll }

func (p *PitchRollData) Timestamp() time.Time {
	return timestamp(p.Time, int64(p.Milliseconds))
}

func (p *PitchRollData) valid(bit uint32) bool {
	return uint32(p.ValidityFlag)&bit != 0
}

func (p *PitchRollData) scaled(bit uint32, raw, scale float64) *float64 {
	if !p.valid(bit) {
		return nil
	}
	return model.Float(raw * scale)
}

// Pitch in degrees, bow up positive.
func (p *PitchRollData) Pitch() *float64 {
	return p.scaled(ValidPitch, float64(p.RawPitch), 180.0/32768.0)
}

// Roll in degrees, port up positive.
func (p *PitchRollData) Roll() *float64 {
	return p.scaled(ValidRoll, float64(p.RawRoll), 180.0/32768.0)
}

// Heading in degrees.
func (p *PitchRollData) Heading() *float64 {
	return p.scaled(ValidHeading, float64(p.RawHeading), 0.01)
}

// Yaw in degrees.
func (p *PitchRollData) Yaw() *float64 {
	return p.scaled(ValidYaw, float64(p.RawYaw), 0.01)
}

// Heave in meters.
func (p *PitchRollData) Heave() *float64 {
	return p.scaled(ValidHeave, float64(p.RawHeave), 1.0/1000.0)
}

// Temperature in degrees Celsius.
func (p *PitchRollData) Temperature() *float64 {
	return p.scaled(ValidTemperature, float64(p.RawTemp), 0.1)
}

// Acceleration in g along x, y, z. All three axes must be valid.
func (p *PitchRollData) Acceleration() (x, y, z float64, ok bool) {
	if !p.valid(ValidAccelerationX) || !p.valid(ValidAccelerationY) || !p.valid(ValidAccelerationZ) {
		return 0, 0, 0, false
	}
	const scale = 20.0 * 1.5 / 32768.0
	return float64(p.AccelerationX) * scale, float64(p.AccelerationY) * scale, float64(p.AccelerationZ) * scale, true
}

// GyroRate in degrees per second along x, y, z. All three axes must be valid.
func (p *PitchRollData) GyroRate() (x, y, z float64, ok bool) {
	if !p.valid(ValidGyroRateX) || !p.valid(ValidGyroRateY) || !p.valid(ValidGyroRateZ) {
		return 0, 0, 0, false
	}
	const scale = 500.0 * 1.5 / 32768.0
	return float64(p.GyroRateX) * scale, float64(p.GyroRateY) * scale, float64(p.GyroRateZ) * scale, true
}

// NavigationOffsets is a type 181 message.
type NavigationOffsets struct {
	X                 float32
	Y                 float32
	Latitude          float32
	Longitude         float32
	Aft               float32
	Starboard         float32
	Depth             float32
	Altitude          float32
	Heading           float32
	Pitch             float32
	Roll              float32
	Yaw               float32
	TowPointElevation float32
	_                 [12]byte
}

func (*NavigationOffsets) messageType() uint16 { return TypeNavigationOffsets }

// SystemInformation is a type 182 message. Its declared size may include
// trailing reserved bytes.
type SystemInformation struct {
	SystemType     int32
	LowRateIO      int32
	VersionNumber  int32
	NumSubsystems  int32
	NumSerialPorts int32
	SerialNumber   int32
}

func (*SystemInformation) messageType() uint16 { return TypeSystemInformation }

// NMEAStringPrefixSizeBytes is the fixed part of a type 2002 message.
const NMEAStringPrefixSizeBytes = 12

type nmeaPrefix struct {
	Time         int32
	Milliseconds int32
	Source       uint8
	_            [3]byte
}

// NMEAString is a type 2002 message carrying a raw NMEA sentence.
type NMEAString struct {
	Time         int32
	Milliseconds int32
	Source       uint8
	Sentence     []byte
}

func (*NMEAString) messageType() uint16 { return TypeNMEAString }

func (n *NMEAString) Timestamp() time.Time {
	return timestamp(n.Time, int64(n.Milliseconds))
}

// Record parses the sentence. ok is false when it is malformed or does not
// describe a position or course.
func (n *NMEAString) Record(source string) (model.Record, bool) {
	s, err := nmea.Parse(string(n.Sentence))
	if err != nil {
		return nil, false
	}
	return s.Record(source, n.Timestamp())
}

func decodeNMEAString(payload []byte) (*NMEAString, error) {
	if len(payload) < NMEAStringPrefixSizeBytes {
		return nil, parser.Unsupported(FormatName, "nmea string size %d shorter than its %d byte prefix",
			len(payload), NMEAStringPrefixSizeBytes)
	}

	var p nmeaPrefix
	if err := binary.Read(bytes.NewReader(payload[:NMEAStringPrefixSizeBytes]), binary.LittleEndian, &p); err != nil {
		return nil, fmt.Errorf("jsf: decode nmea prefix: %w", err)
	}

	return &NMEAString{
		Time:         p.Time,
		Milliseconds: p.Milliseconds,
		Source:       p.Source,
		Sentence:     payload[NMEAStringPrefixSizeBytes:],
	}, nil
}

// RawMessage holds the payload of any message type that is not modeled,
// including private vendor messages.
type RawMessage struct {
	Type uint16
	Data []byte
}

func (r *RawMessage) messageType() uint16 { return r.Type }
