package model

import (
	"fmt"
	"strings"
)

// Channel identifies which transducer produced a ping.
//
// Only pings carry a meaningful channel. Every other record kind
// uses Other so that it can still be placed in the index.
type Channel uint8

const (
	Port Channel = iota
	Starboard
	Other
)

// ChannelMin and ChannelMax bound the channel ordering used by index keys.
const (
	ChannelMin = Port
	ChannelMax = Other
)

// ChannelFromNumber maps a raw channel number from a frame header.
func ChannelFromNumber(n int) Channel {
	switch n {
	case 0:
		return Port
	case 1:
		return Starboard
	default:
		return Other
	}
}

func (c Channel) String() string {
	switch c {
	case Port:
		return "Port"
	case Starboard:
		return "Starboard"
	default:
		return "Other"
	}
}

// ParseChannel is the inverse of Channel.String. Matching is case-insensitive.
func ParseChannel(s string) (Channel, error) {
	switch strings.ToLower(s) {
	case "port":
		return Port, nil
	case "starboard":
		return Starboard, nil
	case "other":
		return Other, nil
	}
	return Other, fmt.Errorf("unknown channel %q", s)
}
