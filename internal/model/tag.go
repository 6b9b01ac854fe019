package model

import (
	"strings"

	"main/internal/model/enum"
)

// EntryLetter marks orders opening a new position slice.
const EntryLetter = "e"

// Tag correlates an order back to its strategy, purpose, and owning trade.
// Wire form: "<strategy>,<letter>,<tradeID>". The letter is one of
// e (entry), s (stop), p (profit), t (time), m (flatten). Flatten orders
// carry the instrument code in place of a trade id.
type Tag struct {
	Strategy string
	Letter   string
	TradeID  string
}

// ExitTag builds the tag for an exit order derived from a trade.
func ExitTag(strategy string, kind enum.ExitKind, tradeID string) string {
	return strategy + "," + kind.Letter() + "," + tradeID
}

// FlattenTag builds the tag for a forced position flatten order.
func FlattenTag(strategy, instrument string) string {
	return strategy + "," + enum.ExitKindFlatten.Letter() + "," + instrument
}

// ParseTag splits a wire tag. Returns false for tags this strategy
// does not own or cannot parse.
func ParseTag(s string) (Tag, bool) {
	parts := strings.SplitN(s, ",", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return Tag{}, false
	}
	return Tag{
		Strategy: parts[0],
		Letter:   parts[1],
		TradeID:  parts[2],
	}, true
}

// ExitKind maps the tag letter to its exit kind, false for entry tags.
func (t Tag) ExitKind() (enum.ExitKind, bool) {
	return enum.ExitKindFromLetter(t.Letter)
}

// IsEntry reports whether the tag marks an entry order.
func (t Tag) IsEntry() bool {
	return t.Letter == EntryLetter
}
