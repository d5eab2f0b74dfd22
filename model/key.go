package model

import (
	"cmp"
	"fmt"
	"strings"
	"time"
)

// Key addresses one record in a locker index.
//
// Keys order by kind, then time, then channel. Time sorts before channel
// so port and starboard pings of the same instant are adjacent.
type Key struct {
	Kind    Kind
	Time    time.Time
	Channel Channel
}

// NewKey builds a key, normalizing the time to UTC.
func NewKey(kind Kind, t time.Time, ch Channel) Key {
	return Key{Kind: kind, Time: t.UTC(), Channel: ch}
}

// Compare returns -1, 0 or +1.
func (k Key) Compare(o Key) int {
	if c := strings.Compare(string(k.Kind), string(o.Kind)); c != 0 {
		return c
	}
	if c := k.Time.Compare(o.Time); c != 0 {
		return c
	}
	return cmp.Compare(k.Channel, o.Channel)
}

// Less reports whether k sorts before o.
func (k Key) Less(o Key) bool { return k.Compare(o) < 0 }

// Equal reports whether both keys address the same record.
// Unlike ==, it ignores the time's location.
func (k Key) Equal(o Key) bool { return k.Compare(o) == 0 }

// String renders the key as Kind/RFC3339Nano/Channel.
func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Kind, k.Time.UTC().Format(time.RFC3339Nano), k.Channel)
}

// ParseKey parses the output of Key.String.
func ParseKey(s string) (Key, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return Key{}, fmt.Errorf("malformed key %q: want Kind/Time/Channel", s)
	}

	kind, ok := ParseKind(parts[0])
	if !ok {
		return Key{}, fmt.Errorf("malformed key %q: unknown kind %q", s, parts[0])
	}

	t, err := time.Parse(time.RFC3339Nano, parts[1])
	if err != nil {
		return Key{}, fmt.Errorf("malformed key %q: %w", s, err)
	}

	ch, err := ParseChannel(parts[2])
	if err != nil {
		return Key{}, fmt.Errorf("malformed key %q: %w", s, err)
	}

	return NewKey(kind, t, ch), nil
}

// KeysOf derives the keys of a batch of records, dropping those without one.
func KeysOf(recs []Record) []Key {
	keys := make([]Key, 0, len(recs))
	for _, r := range recs {
		if k, ok := r.Key(); ok {
			keys = append(keys, k)
		}
	}
	return keys
}
