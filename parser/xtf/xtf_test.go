package xtf_test

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
	"github.com/0xRadioAc7iv/go-sonarlocker/parser/xtf"
)

func fileHeader(t *testing.T, sonarChannels uint16) []byte {
	t.Helper()

	var buf bytes.Buffer
	buf.WriteByte(xtf.FileHeaderMagic)
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, &xtf.FileHeader{NumSonarChannels: sonarChannels}))

	h := &xtf.FileHeader{NumSonarChannels: sonarChannels}
	buf.Write(make([]byte, h.Size()-buf.Len()))
	return buf.Bytes()
}

type channel struct {
	number  uint16
	samples []uint16
}

func sonarPacket(t *testing.T, ts time.Time, padding int, chans ...channel) []byte {
	t.Helper()

	var body bytes.Buffer
	ph := &xtf.PingHeader{
		Year:     uint16(ts.Year()),
		Month:    uint8(ts.Month()),
		Day:      uint8(ts.Day()),
		Hour:     uint8(ts.Hour()),
		Minute:   uint8(ts.Minute()),
		Second:   uint8(ts.Second()),
		HSeconds: uint8(ts.Nanosecond() / int(10*time.Millisecond)),
	}
	require.NoError(t, binary.Write(&body, binary.LittleEndian, ph))

	for _, c := range chans {
		ch := &xtf.ChannelHeader{
			ChannelNumber: c.number,
			TimeDuration:  0.05,
			Frequency:     400,
			NumSamples:    uint32(len(c.samples)),
		}
		require.NoError(t, binary.Write(&body, binary.LittleEndian, ch))
		require.NoError(t, binary.Write(&body, binary.LittleEndian, c.samples))
	}
	body.Write(make([]byte, padding))

	return packet(t, xtf.HeaderTypeSonar, uint16(len(chans)), body.Bytes())
}

func packet(t *testing.T, headerType uint8, nchans uint16, body []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	buf.Write(xtf.PacketMagic)
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, &xtf.PacketHeader{
		HeaderType:         headerType,
		NumChansToFollow:   nchans,
		NumBytesThisRecord: uint32(xtf.PacketHeaderSizeBytes + len(body)),
	}))
	buf.Write(body)
	return buf.Bytes()
}

var ts = time.Date(2015, 5, 28, 17, 26, 0, 250_000_000, time.UTC)

func TestLayoutSizes(t *testing.T) {
	require.Equal(t, xtf.PingHeaderSizeBytes, binary.Size(&xtf.PingHeader{}))
	require.Equal(t, xtf.ChannelHeaderSizeBytes, binary.Size(&xtf.ChannelHeader{}))
	require.Equal(t, xtf.PacketHeaderSizeBytes-len(xtf.PacketMagic), binary.Size(&xtf.PacketHeader{}))
}

func TestTwoChannelPacket(t *testing.T) {
	var raw []byte
	raw = append(raw, fileHeader(t, 2)...)
	raw = append(raw, sonarPacket(t, ts, 7,
		channel{number: 0, samples: []uint16{1, 2, 3, 4}},
		channel{number: 1, samples: []uint16{5, 6}},
	)...)

	recs, err := parser.ReadRecords(bytes.NewReader(raw), xtf.Decoder{})
	require.NoError(t, err)
	require.Len(t, recs, 2)

	port := recs[0].(*model.Ping[uint16])
	require.Equal(t, model.Port, port.Channel)
	require.True(t, port.Timestamp.Equal(ts))
	require.Equal(t, []uint16{1, 2, 3, 4}, port.Data)
	require.InDelta(t, 400000, port.Frequency, 1e-9)
	require.InDelta(t, 0.05/4, port.SamplingInterval, 1e-9)

	stbd := recs[1].(*model.Ping[uint16])
	require.Equal(t, model.Starboard, stbd.Channel)
	require.Equal(t, []uint16{5, 6}, stbd.Data)

	k0, _ := port.Key()
	k1, _ := stbd.Key()
	require.True(t, k0.Less(k1))
}

func TestFileHeaderOnFirstPacketOnly(t *testing.T) {
	var raw []byte
	raw = append(raw, fileHeader(t, 1)...)
	raw = append(raw, sonarPacket(t, ts, 0, channel{samples: []uint16{1}})...)
	raw = append(raw, packet(t, 3, 0, []byte{9, 9, 9})...)

	r := bytes.NewReader(raw)
	p, err := xtf.Decoder{}.ReadPacket(r)
	require.NoError(t, err)
	require.NotNil(t, p.FileHeader)
	require.Equal(t, 1, p.FileHeader.TotalChannels())

	p, err = xtf.Decoder{}.ReadPacket(r)
	require.NoError(t, err)
	require.Nil(t, p.FileHeader)
	require.Equal(t, 3, p.TypeCode())
	require.Equal(t, []byte{9, 9, 9}, p.Raw)
	require.Equal(t, []model.Record{&model.Unknown{TypeCode: 3, Size: 17}}, p.Records())

	_, err = xtf.Decoder{}.ReadPacket(r)
	require.Equal(t, io.EOF, err)
}

func TestLargeFileHeader(t *testing.T) {
	hdr := fileHeader(t, 8)
	require.Len(t, hdr, 2*xtf.FileHeaderSizeBytes)

	raw := append(hdr, sonarPacket(t, ts, 0, channel{samples: []uint16{1}})...)
	n, err := parser.CountFrames(bytes.NewReader(raw), xtf.Decoder{})
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestHeaderOnlyFileIsEmpty(t *testing.T) {
	n, err := parser.CountFrames(bytes.NewReader(fileHeader(t, 2)), xtf.Decoder{})
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestBytesPerSample(t *testing.T) {
	raw := sonarPacket(t, ts, 0, channel{samples: []uint16{0x0201, 0x0403}})

	p, err := xtf.Decoder{BytesPerSample: 1}.ReadPacket(bytes.NewReader(raw))
	require.NoError(t, err)
	// two declared samples of one byte each; the rest is padding
	ping := p.Records()[0].(*model.Ping[uint8])
	require.Equal(t, []uint8{0x01, 0x02}, ping.Data)

	_, err = xtf.Decoder{BytesPerSample: 3}.ReadPacket(bytes.NewReader(raw))
	require.ErrorIs(t, err, parser.ErrUnsupported)
}

func TestChannelOverrunsRecord(t *testing.T) {
	raw := sonarPacket(t, ts, 0, channel{samples: []uint16{1, 2}})
	// claim one more channel than the record holds
	binary.LittleEndian.PutUint16(raw[4:], 2)

	_, err := xtf.Decoder{}.ReadPacket(bytes.NewReader(raw))
	require.ErrorIs(t, err, parser.ErrUnsupported)
}

func TestTruncatedAndBadMagic(t *testing.T) {
	raw := sonarPacket(t, ts, 0, channel{samples: []uint16{1, 2}})

	for _, cut := range []int{1, 2, 10, len(raw) - 1} {
		_, err := xtf.Decoder{}.ReadPacket(bytes.NewReader(raw[:cut]))
		require.ErrorIs(t, err, parser.ErrTruncated, "cut at %d", cut)
	}

	_, err := xtf.Decoder{}.ReadPacket(bytes.NewReader([]byte{0xce, 0xfb, 0, 0}))
	require.ErrorIs(t, err, parser.ErrBadMagic)

	_, err = xtf.Decoder{}.ReadPacket(bytes.NewReader([]byte{0x00}))
	require.ErrorIs(t, err, parser.ErrBadMagic)
}

func TestAssetFile(t *testing.T) {
	f, err := os.Open(filepath.Join("..", "..", "testdata", "15CCT03_SSS_150528172600.xtf"))
	if errors.Is(err, os.ErrNotExist) {
		t.Skip("asset not available")
	}
	require.NoError(t, err)
	defer f.Close()

	n, err := parser.CountFrames(f, xtf.Decoder{})
	require.NoError(t, err)
	require.Equal(t, 26802, n)
}
