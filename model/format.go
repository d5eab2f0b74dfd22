package model

import (
	"fmt"
	"strings"
	"time"
)

func (p *Ping[T]) String() string {
	return fmt.Sprintf("Ping %s %s frequency=%gHz interval=%gs samples=%d source=%s",
		p.Channel, p.Timestamp.Format(time.RFC3339Nano), p.Frequency, p.SamplingInterval, len(p.Data), p.Source)
}

func (p *Position) String() string {
	return describe(KindPosition, p.Timestamp, p.Source,
		"longitude", p.Longitude, "latitude", p.Latitude, "altitude", p.Altitude)
}

func (o *Orientation) String() string {
	return describe(KindOrientation, o.Timestamp, o.Source,
		"pitch", o.Pitch, "roll", o.Roll, "heading", o.Heading)
}

func (c *Course) String() string {
	return describe(KindCourse, c.Timestamp, c.Source,
		"speed", c.Speed, "heading", c.Heading)
}

func (u *Unknown) String() string {
	return fmt.Sprintf("Unknown type=%d size=%d", u.TypeCode, u.Size)
}

// describe renders name/value pairs, skipping absent values.
func describe(kind Kind, ts time.Time, source string, kv ...any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", kind, ts.Format(time.RFC3339Nano))
	for i := 0; i+1 < len(kv); i += 2 {
		v, _ := kv[i+1].(*float64)
		if v == nil {
			continue
		}
		fmt.Fprintf(&b, " %s=%g", kv[i], *v)
	}
	fmt.Fprintf(&b, " source=%s", source)
	return b.String()
}
