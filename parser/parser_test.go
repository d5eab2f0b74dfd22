package parser_test

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/0xRadioAc7iv/go-sonarlocker/model"
	"github.com/0xRadioAc7iv/go-sonarlocker/parser"
	_ "github.com/0xRadioAc7iv/go-sonarlocker/parser/imagenex"
	"github.com/0xRadioAc7iv/go-sonarlocker/parser/jsf"
	_ "github.com/0xRadioAc7iv/go-sonarlocker/parser/xtf"
)

func TestReadMagic(t *testing.T) {
	magic := []byte{0x01, 0x16}

	require.Equal(t, io.EOF, parser.ReadMagic(bytes.NewReader(nil), "test", magic))
	require.NoError(t, parser.ReadMagic(bytes.NewReader(magic), "test", magic))

	err := parser.ReadMagic(bytes.NewReader(magic[:1]), "test", magic)
	require.ErrorIs(t, err, parser.ErrTruncated)
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)

	err = parser.ReadMagic(bytes.NewReader([]byte{0x01, 0x17}), "test", magic)
	require.ErrorIs(t, err, parser.ErrBadMagic)
	require.Contains(t, err.Error(), "01 17")
}

func TestReadPayload(t *testing.T) {
	got, err := parser.ReadPayload(bytes.NewReader([]byte("abcdef")), "test", 4)
	require.NoError(t, err)
	require.Equal(t, []byte("abcd"), got)

	got, err = parser.ReadPayload(bytes.NewReader(nil), "test", 0)
	require.NoError(t, err)
	require.Empty(t, got)

	_, err = parser.ReadPayload(bytes.NewReader(nil), "test", -1)
	require.ErrorIs(t, err, parser.ErrUnsupported)

	_, err = parser.ReadPayload(bytes.NewReader(nil), "test", parser.MaxFrameSize+1)
	require.ErrorIs(t, err, parser.ErrUnsupported)

	_, err = parser.ReadPayload(bytes.NewReader(make([]byte, 10)), "test", 2<<20)
	require.ErrorIs(t, err, parser.ErrTruncated)

	big := make([]byte, 2<<20)
	got, err = parser.ReadPayload(bytes.NewReader(big), "test", int64(len(big)))
	require.NoError(t, err)
	require.Len(t, got, len(big))
}

func TestTruncatedPassesOtherErrors(t *testing.T) {
	boom := errors.New("disk on fire")
	require.Same(t, boom, parser.Truncated("test", boom))
	require.NoError(t, parser.Truncated("test", nil))

	_, err := parser.ReadPayload(iotest.ErrReader(boom), "test", 8)
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, parser.ErrTruncated)
}

func TestDecodeErrorMessage(t *testing.T) {
	err := parser.Unsupported("jsf", "size %d", 7)
	require.EqualError(t, err, "jsf: unsupported field combination: size 7")

	var de *parser.DecodeError
	require.True(t, errors.As(err, &de))
	require.Equal(t, "jsf", de.Format)
}

func writePings(t *testing.T, n int) []byte {
	t.Helper()

	var buf bytes.Buffer
	e := jsf.NewEncoder(&buf)
	for i := range n {
		require.NoError(t, e.WritePing(0, &model.Ping[uint16]{
			Timestamp: time.Unix(int64(1000+i), 0).UTC(),
			Data:      make([]uint16, i+1),
		}))
	}
	require.NoError(t, e.Flush())
	return buf.Bytes()
}

func TestScannerOffsets(t *testing.T) {
	raw := writePings(t, 3)

	var offsets []int64
	s := parser.NewScanner(bytes.NewReader(raw), jsf.Decoder{})
	for off, f := range s.All() {
		require.Equal(t, int(jsf.TypeSonarData), f.TypeCode())
		offsets = append(offsets, off)
	}
	require.NoError(t, s.Err())

	size := func(samples int) int64 {
		return int64(jsf.FrameHeaderSizeBytes + jsf.SonarDataHeaderSizeBytes + 2*samples)
	}
	require.Equal(t, []int64{0, size(1), size(1) + size(2)}, offsets)

	// each offset decodes the frame that was found there
	for i, off := range offsets {
		msg, err := jsf.ReadMessage(bytes.NewReader(raw[off:]))
		require.NoError(t, err)
		require.Len(t, msg.Data.(*jsf.SonarData).Trace, i+1)
	}
}

func TestScannerAtBase(t *testing.T) {
	raw := writePings(t, 2)

	s := parser.NewScannerAt(bytes.NewReader(raw), jsf.Decoder{}, 100)
	require.True(t, s.Next())
	require.Equal(t, int64(100), s.Offset())
	require.True(t, s.Next())
	require.Greater(t, s.Offset(), int64(100))
	require.False(t, s.Next())
	require.NoError(t, s.Err())
}

func TestScannerStopsOnError(t *testing.T) {
	raw := writePings(t, 2)
	raw = raw[:len(raw)-3]

	s := parser.NewScanner(bytes.NewReader(raw), jsf.Decoder{})
	require.True(t, s.Next())
	require.False(t, s.Next())
	require.False(t, s.Next())
	require.Nil(t, s.Frame())
	require.ErrorIs(t, s.Err(), parser.ErrTruncated)

	recs, err := parser.ReadRecords(bytes.NewReader(raw), jsf.Decoder{})
	require.ErrorIs(t, err, parser.ErrTruncated)
	require.Len(t, recs, 1)
}

func TestRegistry(t *testing.T) {
	require.Equal(t, []string{"81b", "jsf", "jsf-nmea", "xtf"}, parser.Names())

	for path, name := range map[string]string{
		"a/b/line.jsf": "jsf",
		"line.XTF":     "xtf",
		"5197DB5B.81B": "81b",
	} {
		dec, ok := parser.ForPath(path)
		require.True(t, ok, path)
		require.Equal(t, name, dec.Name())
	}

	_, ok := parser.ForPath("notes.txt")
	require.False(t, ok)

	dec, err := parser.Lookup("JSF")
	require.NoError(t, err)
	require.Equal(t, "jsf", dec.Name())

	_, err = parser.Lookup("s7k")
	require.ErrorContains(t, err, "unknown format")
}
