package jsf_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/0xRadioAc7iv/go-sonarlocker/model"
	"github.com/0xRadioAc7iv/go-sonarlocker/parser"
	"github.com/0xRadioAc7iv/go-sonarlocker/parser/jsf"
)

var t0 = time.Date(2015, 5, 28, 17, 26, 0, 123_000_000, time.UTC)

func encode(t *testing.T, fn func(e *jsf.Encoder)) []byte {
	t.Helper()

	var buf bytes.Buffer
	e := jsf.NewEncoder(&buf)
	fn(e)
	require.NoError(t, e.Flush())
	return buf.Bytes()
}

func TestLayoutSizes(t *testing.T) {
	require.Equal(t, jsf.SonarDataHeaderSizeBytes, binary.Size(&jsf.SonarDataHeader{}))
	require.Equal(t, 44, binary.Size(&jsf.PitchRollData{}))
	require.Equal(t, 64, binary.Size(&jsf.NavigationOffsets{}))
	require.Equal(t, 24, binary.Size(&jsf.SystemInformation{}))
	require.Equal(t, jsf.FrameHeaderSizeBytes-len(jsf.Magic), binary.Size(&jsf.Header{}))
}

func TestPingRoundTrip(t *testing.T) {
	ping := &model.Ping[uint16]{
		Timestamp:        t0,
		Frequency:        400000,
		SamplingInterval: 20e-6,
		Channel:          model.Starboard,
		Data:             []uint16{1, 2, 3, 65535},
	}

	raw := encode(t, func(e *jsf.Encoder) {
		require.NoError(t, e.WritePing(20, ping))
	})
	require.Len(t, raw, jsf.FrameHeaderSizeBytes+jsf.SonarDataHeaderSizeBytes+2*len(ping.Data))

	msg, err := jsf.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, int(jsf.TypeSonarData), msg.TypeCode())

	recs := msg.Records()
	require.Len(t, recs, 1)

	got, ok := recs[0].(*model.Ping[uint16])
	require.True(t, ok)
	require.Equal(t, "jsf:20", got.Source)
	require.True(t, got.Timestamp.Equal(t0))
	require.Equal(t, model.Starboard, got.Channel)
	require.Equal(t, ping.Data, got.Data)
	require.InDelta(t, 400000, got.Frequency, 1e-3)
	require.InDelta(t, 20e-6, got.SamplingInterval, 1e-12)

	key, ok := got.Key()
	require.True(t, ok)
	require.Equal(t, 0, key.Compare(model.NewKey(model.KindPing, t0, model.Starboard)))
}

func TestOrientationRoundTrip(t *testing.T) {
	o := &model.Orientation{
		Timestamp: t0,
		Pitch:     model.Float(1.5),
		Heading:   model.Float(271.25),
	}

	raw := encode(t, func(e *jsf.Encoder) {
		require.NoError(t, e.WriteOrientation(0, o))
	})

	msg, err := jsf.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)

	pr, ok := msg.Data.(*jsf.PitchRollData)
	require.True(t, ok)
	require.Nil(t, pr.Roll())
	require.Nil(t, pr.Yaw())

	got := msg.Records()[0].(*model.Orientation)
	require.True(t, got.Timestamp.Equal(t0))
	require.NotNil(t, got.Pitch)
	require.InDelta(t, 1.5, *got.Pitch, 0.01)
	require.Nil(t, got.Roll)
	require.InDelta(t, 271.25, *got.Heading, 1e-9)
}

func TestPitchRollScaling(t *testing.T) {
	pr := &jsf.PitchRollData{
		RawPitch:      16384,
		RawRoll:       -8192,
		RawTemp:       215,
		RawHeave:      -1250,
		AccelerationX: 32767,
		ValidityFlag:  int32(jsf.ValidPitch | jsf.ValidRoll | jsf.ValidTemperature | jsf.ValidHeave | jsf.ValidAccelerationX),
	}

	require.InDelta(t, 90, *pr.Pitch(), 1e-9)
	require.InDelta(t, -45, *pr.Roll(), 1e-9)
	require.InDelta(t, 21.5, *pr.Temperature(), 1e-9)
	require.InDelta(t, -1.25, *pr.Heave(), 1e-9)
	require.Nil(t, pr.Heading())

	// y and z are not valid, so the vector is absent
	_, _, _, ok := pr.Acceleration()
	require.False(t, ok)
}

func TestMultipleMessages(t *testing.T) {
	raw := encode(t, func(e *jsf.Encoder) {
		for i := range 3 {
			require.NoError(t, e.WritePing(0, &model.Ping[uint16]{
				Timestamp: t0.Add(time.Duration(i) * time.Second),
				Channel:   model.Port,
				Data:      make([]uint16, 10),
			}))
		}
		require.NoError(t, e.WriteOrientation(0, &model.Orientation{Timestamp: t0}))
		require.NoError(t, e.WriteMessage(jsf.Header{MessageType: 9001}, []byte{1, 2, 3}))
	})

	n, err := parser.CountFrames(bytes.NewReader(raw), jsf.Decoder{})
	require.NoError(t, err)
	require.Equal(t, 5, n)

	recs, err := parser.ReadRecords(bytes.NewReader(raw), jsf.Decoder{})
	require.NoError(t, err)
	require.Len(t, recs, 5)
	require.Equal(t, model.KindPing, recs[0].Kind())
	require.Equal(t, model.KindOrientation, recs[3].Kind())
	require.Equal(t, &model.Unknown{TypeCode: 9001, Size: 3}, recs[4])
}

func TestUnknownTypeKeepsPayload(t *testing.T) {
	raw := encode(t, func(e *jsf.Encoder) {
		require.NoError(t, e.WriteMessage(jsf.Header{MessageType: 3000}, []byte("vendor")))
	})

	msg, err := jsf.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, &jsf.RawMessage{Type: 3000, Data: []byte("vendor")}, msg.Data)
}

func TestNMEAString(t *testing.T) {
	payload := make([]byte, jsf.NMEAStringPrefixSizeBytes)
	binary.LittleEndian.PutUint32(payload[0:], uint32(t0.Unix()))
	binary.LittleEndian.PutUint32(payload[4:], 123)
	payload[8] = 2
	payload = append(payload, "$GPGGA,172600"...)

	raw := encode(t, func(e *jsf.Encoder) {
		require.NoError(t, e.WriteMessage(jsf.Header{MessageType: jsf.TypeNMEAString}, payload))
	})

	msg, err := jsf.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)

	ns := msg.Data.(*jsf.NMEAString)
	require.Equal(t, uint8(2), ns.Source)
	require.Equal(t, "$GPGGA,172600", string(ns.Sentence))
	require.True(t, ns.Timestamp().Equal(t0))
}

func nmeaMessage(t *testing.T, sentence string) []byte {
	t.Helper()

	payload := make([]byte, jsf.NMEAStringPrefixSizeBytes)
	binary.LittleEndian.PutUint32(payload[0:], uint32(t0.Unix()))
	binary.LittleEndian.PutUint32(payload[4:], 123)
	payload = append(payload, sentence...)

	return encode(t, func(e *jsf.Encoder) {
		require.NoError(t, e.WriteMessage(jsf.Header{MessageType: jsf.TypeNMEAString, SubsystemNumber: 1}, payload))
	})
}

func TestNMEADecoder(t *testing.T) {
	raw := nmeaMessage(t, "$GPGLL,4916.45,N,12311.12,W,225444,A*31\r\n")

	frame, err := jsf.Decoder{}.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, model.KindUnknown, frame.Records()[0].Kind())

	frame, err = jsf.Decoder{NMEA: true}.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	recs := frame.Records()
	require.Len(t, recs, 1)

	p, ok := recs[0].(*model.Position)
	require.True(t, ok)
	require.Equal(t, "jsf:1", p.Source)
	require.True(t, p.Timestamp.Equal(t0))
	require.InDelta(t, 49+16.45/60, *p.Latitude, 1e-9)
	require.InDelta(t, -(123 + 11.12/60), *p.Longitude, 1e-9)

	frame, err = jsf.Decoder{NMEA: true}.Decode(bytes.NewReader(nmeaMessage(t, "$GPVTG,054.7,T,034.4,M,005.5,N,010.2,K*48")))
	require.NoError(t, err)
	c, ok := frame.Records()[0].(*model.Course)
	require.True(t, ok)
	require.InDelta(t, 54.7, *c.Heading, 1e-9)
}

func TestNMEADecoderKeepsUnparsableSentences(t *testing.T) {
	for _, sentence := range []string{"$GPZDA,201530.00,04,07,2002,00,00*60", "garbage", "$GPGLL,4916.45,N*00"} {
		frame, err := jsf.Decoder{NMEA: true}.Decode(bytes.NewReader(nmeaMessage(t, sentence)))
		require.NoError(t, err)
		require.Equal(t, &model.Unknown{TypeCode: int(jsf.TypeNMEAString), Size: jsf.NMEAStringPrefixSizeBytes + len(sentence)}, frame.Records()[0], sentence)
	}
}

func TestEmptyStreamIsEOF(t *testing.T) {
	_, err := jsf.ReadMessage(bytes.NewReader(nil))
	require.Equal(t, io.EOF, err)

	n, err := parser.CountFrames(bytes.NewReader(nil), jsf.Decoder{})
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestTruncatedMessage(t *testing.T) {
	raw := encode(t, func(e *jsf.Encoder) {
		require.NoError(t, e.WritePing(0, &model.Ping[uint16]{Timestamp: t0, Data: make([]uint16, 8)}))
	})

	for _, cut := range []int{1, 3, jsf.FrameHeaderSizeBytes, len(raw) - 1} {
		_, err := jsf.ReadMessage(bytes.NewReader(raw[:cut]))
		require.ErrorIs(t, err, parser.ErrTruncated, "cut at %d", cut)
		require.ErrorIs(t, err, io.ErrUnexpectedEOF, "cut at %d", cut)

		var de *parser.DecodeError
		require.True(t, errors.As(err, &de))
		require.Equal(t, jsf.FormatName, de.Format)
	}
}

func TestBadMagic(t *testing.T) {
	_, err := jsf.ReadMessage(bytes.NewReader([]byte{0x02, 0x16, 0, 0}))
	require.ErrorIs(t, err, parser.ErrBadMagic)
}

func TestImpossibleSizes(t *testing.T) {
	raw := encode(t, func(e *jsf.Encoder) {
		require.NoError(t, e.WriteMessage(jsf.Header{MessageType: jsf.TypeSonarData}, make([]byte, 10)))
	})
	_, err := jsf.ReadMessage(bytes.NewReader(raw))
	require.ErrorIs(t, err, parser.ErrUnsupported)

	raw = encode(t, func(e *jsf.Encoder) {
		require.NoError(t, e.WriteMessage(jsf.Header{MessageType: jsf.TypePitchRoll}, make([]byte, 43)))
	})
	_, err = jsf.ReadMessage(bytes.NewReader(raw))
	require.ErrorIs(t, err, parser.ErrUnsupported)

	// negative size
	raw[len(raw)-43-4] = 0xff
	raw[len(raw)-43-3] = 0xff
	raw[len(raw)-43-2] = 0xff
	raw[len(raw)-43-1] = 0xff
	_, err = jsf.ReadMessage(bytes.NewReader(raw))
	require.ErrorIs(t, err, parser.ErrUnsupported)
}

func TestHugeDeclaredSizeOnShortStream(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(jsf.Magic)
	h := jsf.Header{MessageType: jsf.TypeSonarData, MessageSize: 32 << 20}
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, &h))
	buf.Write(make([]byte, 100))

	_, err := jsf.ReadMessage(&buf)
	require.ErrorIs(t, err, parser.ErrTruncated)
}

func TestOddTraceByteDropped(t *testing.T) {
	payload := make([]byte, jsf.SonarDataHeaderSizeBytes+5)
	raw := encode(t, func(e *jsf.Encoder) {
		require.NoError(t, e.WriteMessage(jsf.Header{MessageType: jsf.TypeSonarData}, payload))
	})

	msg, err := jsf.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Len(t, msg.Data.(*jsf.SonarData).Trace, 2)
}

func TestRegistered(t *testing.T) {
	dec, ok := parser.ForPath("/data/LINE001.JSF")
	require.True(t, ok)
	require.Equal(t, jsf.FormatName, dec.Name())

	dec, err := parser.Lookup(jsf.FormatNameNMEA)
	require.NoError(t, err)
	require.Equal(t, jsf.Decoder{NMEA: true}, dec)
}

func TestAssetFile(t *testing.T) {
	path := filepath.Join("..", "..", "testdata", "HE501_Hydro3_025.001.jsf")
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		t.Skip("asset not available")
	}
	require.NoError(t, err)
	defer f.Close()

	recs, err := parser.ReadRecords(f, jsf.Decoder{})
	require.NoError(t, err)
	require.Len(t, recs, 905)
}
