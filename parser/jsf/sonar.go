package jsf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/0xRadioAc7iv/go-sonarlocker/parser"
)

// SonarDataHeaderSizeBytes is the fixed part of a type 80 message. The
// trace fills the rest of the declared message size.
const SonarDataHeaderSizeBytes = 240

// bytes per trace sample
const traceSampleWidth = 2

// SonarDataHeader is the fixed 240-byte layout of a sonar data message.
type SonarDataHeader struct {
	Time                     int32 // seconds since the epoch
	StartingDepth            uint32
	PingNumber               uint32
	_                        [4]byte
	MSBs                     uint16
	LSB1                     uint16
	LSB2                     uint16
	_                        [6]byte
	IDCode                   int16
	ValidityFlag             uint16
	_                        [2]byte
	DataFormat               int16
	AftAntennaDistance       int16
	StarboardAntennaDistance int16
	_                        [4]byte
	KmPipe                   float32
	Heave                    float32
	_                        [24]byte
	GapFillerLateralOffset   float32
	XPosition                int32
	YPosition                int32
	CoordinateUnits          int16
	AnnotationString         [24]byte
	Samples                  uint16
	SamplingInterval         uint32 // nanoseconds
	ADCGainFactor            uint16
	TransmitLevel            int16
	_                        [2]byte
	StartFrequency           uint16
	EndFrequency             uint16
	SweepLength              uint16
	Pressure                 int32
	Depth                    int32
	SampleFrequency          uint16
	OutgoingPulseIdentifier  uint16
	Altitude                 int32
	SoundSpeed               float32
	MixerFrequency           float32 // Hz
	Year                     int16
	Day                      int16
	Hour                     int16
	Minute                   int16
	Second                   int16
	TimeBasis                int16
	WeightingFactor          int16
	NumberOfPulses           int16
	Heading                  uint16
	Pitch                    int16
	Roll                     int16
	_                        [4]byte
	TriggerSource            int16
	MarkNumber               int16
	PositionFixHour          int16
	PositionFixMinutes       int16
	PositionFixSeconds       int16
	Course                   int16
	Speed                    int16
	PositionFixDay           int16
	PositionFixYear          int16
	MillisecondsToday        uint32
	MaxADCValue              uint16
	_                        [4]byte
	SoftwareVersionNumber    [6]byte
	SphericalCorrection      int32
	PacketNumber             uint16
	ADCDecimation            int16
	_                        [2]byte
	Temperature              int16
	Layback                  float32
	_                        [4]byte
	CableOut                 uint16
	_                        [2]byte
}

// SonarData is a type 80 message: one ping on one channel.
type SonarData struct {
	SonarDataHeader
	Trace []uint16
}

func (*SonarData) messageType() uint16 { return TypeSonarData }

func decodeSonarData(payload []byte) (*SonarData, error) {
	if len(payload) < SonarDataHeaderSizeBytes {
		return nil, parser.Unsupported(FormatName, "sonar data size %d shorter than its %d byte header",
			len(payload), SonarDataHeaderSizeBytes)
	}

	sd := &SonarData{}
	if err := binary.Read(bytes.NewReader(payload[:SonarDataHeaderSizeBytes]), binary.LittleEndian, &sd.SonarDataHeader); err != nil {
		return nil, fmt.Errorf("jsf: decode sonar data header: %w", err)
	}

	// The sample count is not stored; it follows from the declared size.
	// A trailing odd byte belongs to no sample and is dropped.
	count := (len(payload) - SonarDataHeaderSizeBytes) / traceSampleWidth
	sd.Trace = make([]uint16, count)
	trace := payload[SonarDataHeaderSizeBytes:]
	for i := range sd.Trace {
		sd.Trace[i] = binary.LittleEndian.Uint16(trace[i*traceSampleWidth:])
	}

	return sd, nil
}

// Timestamp combines the whole seconds field with the millisecond part of
// the milliseconds-today field.
func (sd *SonarData) Timestamp() time.Time {
	return timestamp(sd.Time, int64(sd.MillisecondsToday))
}

func (sd *SonarData) MixerFrequencyHz() float64 {
	return float64(sd.MixerFrequency)
}

func (sd *SonarData) SamplingIntervalSeconds() float64 {
	return 1e-9 * float64(sd.SamplingInterval)
}

func timestamp(seconds int32, milliseconds int64) time.Time {
	return time.Unix(int64(seconds), 0).
		Add(time.Duration(milliseconds%1000) * time.Millisecond).
		UTC()
}
