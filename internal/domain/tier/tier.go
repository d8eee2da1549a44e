// Package tier defines the three coarse quality buckets and the score
// sub-ranges that keep them from overlapping on the [0, 10] axis.
package tier

import (
	"fmt"
	"strings"
)

// Tier is a coarse quality bucket. The zero value is Bad.
type Tier int

// Tiers in ascending order on the score axis.
const (
	Bad Tier = iota
	Okay
	Good
)

// All lists tiers in display order, best first.
var All = []Tier{Good, Okay, Bad} //nolint:gochecknoglobals // fixed enumeration

// MaxScore is the top of the score axis.
const MaxScore = 10.0

func (t Tier) String() string {
	switch t {
	case Bad:
		return "bad"
	case Okay:
		return "okay"
	case Good:
		return "good"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// Valid reports whether t is one of the three tiers.
func (t Tier) Valid() bool {
	return t >= Bad && t <= Good
}

// Parse converts "bad", "okay" or "good" (any case) to a Tier.
func Parse(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bad":
		return Bad, nil
	case "okay", "ok":
		return Okay, nil
	case "good":
		return Good, nil
	default:
		return Bad, fmt.Errorf("%w: %q", ErrUnknownTier, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t Tier) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTier, int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tier) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
