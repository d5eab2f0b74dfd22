package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/0xRadioAc7iv/go-sonarlocker/model"
	"github.com/0xRadioAc7iv/go-sonarlocker/parser/jsf"
	"github.com/0xRadioAc7iv/go-sonarlocker/parser/xtf"
)

var t0 = time.Date(2015, 5, 28, 17, 26, 0, 0, time.UTC)

func writeFile(t *testing.T) string {
	t.Helper()

	var buf bytes.Buffer
	e := jsf.NewEncoder(&buf)
	for i := range 3 {
		ts := t0.Add(time.Duration(i) * time.Second)
		require.NoError(t, e.WritePing(20, &model.Ping[uint16]{
			Timestamp:        ts,
			SamplingInterval: 20e-6,
			Channel:          model.Port,
			Data:             make([]uint16, 4),
		}))
		require.NoError(t, e.WritePing(20, &model.Ping[uint16]{
			Timestamp:        ts,
			SamplingInterval: 40e-6,
			Channel:          model.Starboard,
			Data:             make([]uint16, 8),
		}))
	}
	require.NoError(t, e.WriteOrientation(0, &model.Orientation{Timestamp: t0.Add(5 * time.Second)}))
	require.NoError(t, e.WriteMessage(jsf.Header{MessageType: 9999}, []byte{1, 2}))
	require.NoError(t, e.Flush())

	path := filepath.Join(t.TempDir(), "line.jsf")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func TestCount(t *testing.T) {
	path := writeFile(t)

	var out bytes.Buffer
	require.NoError(t, count(&out, path, jsf.Decoder{}))
	require.Equal(t, "1\tOrientation\n6\tPing\n1\tUnknown\n", out.String())
}

func TestList(t *testing.T) {
	path := writeFile(t)

	var out bytes.Buffer
	require.NoError(t, list(&out, path, jsf.Decoder{}))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 8)
	require.True(t, strings.HasPrefix(lines[0], "0\tPing Port 2015-05-28T17:26:00Z"), lines[0])
	require.True(t, strings.HasSuffix(lines[7], "Unknown type=9999 size=2"), lines[7])
}

func TestInfo(t *testing.T) {
	path := writeFile(t)

	var out bytes.Buffer
	require.NoError(t, info(&out, path, jsf.Decoder{}))

	s := out.String()
	require.Contains(t, s, "Format: jsf\n")
	require.Contains(t, s, "Start date: 2015-05-28T17:26:00Z\n")
	require.Contains(t, s, "End date: 2015-05-28T17:26:05Z\n")
	require.Contains(t, s, "Number of port channel pings: 3\n")
	require.Contains(t, s, "Number of starboard channel pings: 3\n")
	require.Contains(t, s, "Unique lengths of pings:\n\t4\n\t8\n")

	intervals := s[strings.Index(s, "Unique sampling intervals:"):]
	require.Equal(t, 2, strings.Count(intervals, "\t"))
}

func TestDecoderFor(t *testing.T) {
	dec, err := decoderFor("line.xtf", "")
	require.NoError(t, err)
	require.Equal(t, xtf.FormatName, dec.Name())

	dec, err = decoderFor("line.raw", "")
	require.NoError(t, err)
	require.Equal(t, jsf.FormatName, dec.Name())

	dec, err = decoderFor("line.raw", "81B")
	require.NoError(t, err)
	require.Equal(t, "81b", dec.Name())

	_, err = decoderFor("line.raw", "sgy")
	require.Error(t, err)
}

func TestCountDecodeError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.jsf")
	require.NoError(t, os.WriteFile(path, []byte("not sonar"), 0644))

	require.Error(t, count(&bytes.Buffer{}, path, jsf.Decoder{}))
}
