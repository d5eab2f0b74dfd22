// Package nmea parses the NMEA 0183 sentences that sonar files embed as
// text: GLL, RMC and GGA become positions, VTG a course. Other sentences
// are recognized but carry no record.
package nmea

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/0xRadioAc7iv/go-sonarlocker/model"
)

var (
	ErrSyntax   = errors.New("malformed nmea sentence")
	ErrChecksum = errors.New("nmea checksum mismatch")
)

const knotsToMetersPerSecond = 1852.0 / 3600.0

// Sentence is one parsed line, split into its comma separated fields.
type Sentence struct {
	Talker string   // e.g. "GP"
	Type   string   // e.g. "GLL"
	Fields []string // data fields after the address
}

// Parse splits a sentence and verifies its checksum when one is present.
// Trailing line endings and NUL padding are ignored.
func Parse(line string) (*Sentence, error) {
	line = strings.TrimRight(line, "\r\n\x00 ")
	if len(line) < 6 || (line[0] != '$' && line[0] != '!') {
		return nil, fmt.Errorf("%w: %q", ErrSyntax, line)
	}

	body := line[1:]
	if i := strings.LastIndexByte(body, '*'); i >= 0 {
		want, err := strconv.ParseUint(body[i+1:], 16, 8)
		if err != nil {
			return nil, fmt.Errorf("%w: checksum %q", ErrSyntax, body[i+1:])
		}
		body = body[:i]
		if got := checksum(body); got != uint8(want) {
			return nil, fmt.Errorf("%w: got %02X, want %02X", ErrChecksum, got, want)
		}
	}

	parts := strings.Split(body, ",")
	addr := parts[0]
	if len(addr) < 5 {
		return nil, fmt.Errorf("%w: address %q", ErrSyntax, addr)
	}

	return &Sentence{
		Talker: addr[:len(addr)-3],
		Type:   addr[len(addr)-3:],
		Fields: parts[1:],
	}, nil
}

func checksum(s string) uint8 {
	var sum uint8
	for i := 0; i < len(s); i++ {
		sum ^= s[i]
	}
	return sum
}

func (s *Sentence) field(i int) string {
	if i < len(s.Fields) {
		return s.Fields[i]
	}
	return ""
}

// Record converts the sentence into a canonical record stamped with ts.
// ok is false for sentence types that do not describe a position or course.
func (s *Sentence) Record(source string, ts time.Time) (rec model.Record, ok bool) {
	switch s.Type {
	case "GLL":
		// lat, N/S, lon, E/W, time, status
		return s.position(source, ts, 0, s.field(5) == "A", nil), true
	case "RMC":
		// time, status, lat, N/S, lon, E/W, ...
		return s.position(source, ts, 2, s.field(1) == "A", nil), true
	case "GGA":
		// time, lat, N/S, lon, E/W, quality, satellites, hdop, altitude, M, ...
		valid := s.field(5) != "" && s.field(5) != "0"
		var alt *float64
		if valid {
			alt = number(s.field(8))
		}
		return s.position(source, ts, 1, valid, alt), true
	case "VTG":
		// true course, T, magnetic course, M, knots, N, km/h, K
		c := &model.Course{Source: source, Timestamp: ts, Heading: number(s.field(0))}
		if kn := number(s.field(4)); kn != nil {
			c.Speed = model.Float(*kn * knotsToMetersPerSecond)
		} else if kmh := number(s.field(6)); kmh != nil {
			c.Speed = model.Float(*kmh / 3.6)
		}
		return c, true
	default:
		return nil, false
	}
}

// position reads the four lat/lon fields starting at field i.
func (s *Sentence) position(source string, ts time.Time, i int, valid bool, alt *float64) *model.Position {
	p := &model.Position{Source: source, Timestamp: ts, Altitude: alt}
	if !valid {
		return p
	}
	p.Latitude = coordinate(s.field(i), s.field(i+1), "N", "S")
	p.Longitude = coordinate(s.field(i+2), s.field(i+3), "E", "W")
	if p.Latitude == nil || p.Longitude == nil {
		p.Latitude, p.Longitude = nil, nil
	}
	return p
}

// coordinate converts a [d]ddmm.mmmm field and its hemisphere to signed
// degrees.
func coordinate(v, hemi, pos, neg string) *float64 {
	f := number(v)
	if f == nil || *f < 0 {
		return nil
	}

	deg := math.Floor(*f / 100)
	d := deg + (*f-deg*100)/60

	switch hemi {
	case pos:
		return &d
	case neg:
		return model.Float(-d)
	default:
		return nil
	}
}

func number(v string) *float64 {
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
