package model

import (
	"time"
)

// Kind is the record-kind tag. Its string value is the first component
// of an index key, so the lexicographic order of these values is the
// order in which kinds appear in the index.
type Kind string

const (
	KindPing        Kind = "Ping"
	KindPosition    Kind = "Position"
	KindOrientation Kind = "Orientation"
	KindCourse      Kind = "Course"
	KindUnknown     Kind = "Unknown"
)

// Kinds lists every keyable kind.
var Kinds = []Kind{KindCourse, KindOrientation, KindPing, KindPosition}

// ParseKind validates a kind tag.
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(s); k {
	case KindPing, KindPosition, KindOrientation, KindCourse, KindUnknown:
		return k, true
	}
	return "", false
}

// Record is the format-independent form of one decoded measurement.
//
// Every decoder converges on the five implementations in this package:
// *Ping[T], *Position, *Orientation, *Course and *Unknown.
type Record interface {
	Kind() Kind

	// Key derives the index key of the record. Unknown records have no key.
	Key() (Key, bool)
}

// Sample is the set of element types a ping trace may hold.
type Sample interface {
	~uint8 | ~uint16 | ~uint32 | ~float32
}

// Ping is one transmit/receive cycle on one channel.
type Ping[T Sample] struct {
	Source           string
	Timestamp        time.Time
	Frequency        float64 // Hz
	SamplingInterval float64 // seconds
	Channel          Channel
	Data             []T
}

func (p *Ping[T]) Kind() Kind { return KindPing }

func (p *Ping[T]) Key() (Key, bool) {
	return Key{Kind: KindPing, Time: p.Timestamp, Channel: p.Channel}, true
}

// Float32 returns a copy of the ping with its samples converted to float32.
func (p *Ping[T]) Float32() *Ping[float32] {
	data := make([]float32, len(p.Data))
	for i, v := range p.Data {
		data[i] = float32(v)
	}
	return &Ping[float32]{
		Source:           p.Source,
		Timestamp:        p.Timestamp,
		Frequency:        p.Frequency,
		SamplingInterval: p.SamplingInterval,
		Channel:          p.Channel,
		Data:             data,
	}
}

// Len returns the number of samples in the trace.
func (p *Ping[T]) Len() int { return len(p.Data) }

// Position of a sensor. Absent fields were marked invalid by the source.
type Position struct {
	Source    string
	Timestamp time.Time
	Longitude *float64 // degrees
	Latitude  *float64 // degrees
	Altitude  *float64 // meters, datum left to the caller
}

func (p *Position) Kind() Kind { return KindPosition }

func (p *Position) Key() (Key, bool) {
	return Key{Kind: KindPosition, Time: p.Timestamp, Channel: Other}, true
}

// Orientation of a sensor in degrees. Pitch is bow up positive and
// heading is measured east of north.
type Orientation struct {
	Source    string
	Timestamp time.Time
	Pitch     *float64
	Roll      *float64
	Heading   *float64
}

func (o *Orientation) Kind() Kind { return KindOrientation }

func (o *Orientation) Key() (Key, bool) {
	return Key{Kind: KindOrientation, Time: o.Timestamp, Channel: Other}, true
}

// Course of a sensor: speed in m/s, heading in degrees east of north.
type Course struct {
	Source    string
	Timestamp time.Time
	Speed     *float64
	Heading   *float64
}

func (c *Course) Kind() Kind { return KindCourse }

func (c *Course) Key() (Key, bool) {
	return Key{Kind: KindCourse, Time: c.Timestamp, Channel: Other}, true
}

// Unknown stands in for every frame type that is not modeled.
// TypeCode and Size are kept for diagnostics only.
type Unknown struct {
	TypeCode int
	Size     int
}

func (u *Unknown) Kind() Kind { return KindUnknown }

func (u *Unknown) Key() (Key, bool) { return Key{}, false }

// Float returns a pointer to v. Decoders use it for optional fields.
func Float(v float64) *float64 { return &v }
