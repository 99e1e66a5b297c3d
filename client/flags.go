package client

import "strings"

// Flag is a bitset of boolean options accepted by channel operations.
// Combine flags with bitwise OR. Each operation reads only the bits that
// apply to it.
type Flag uint16

const (
	Durable Flag = 1 << iota
	Exclusive
	AutoDelete
	Passive
	NoWait
	Internal
	IfUnused
	IfEmpty
	NoAck
	NoLocal
)

var flagNames = []struct {
	flag Flag
	name string
}{
	{Durable, "durable"},
	{Exclusive, "exclusive"},
	{AutoDelete, "auto_delete"},
	{Passive, "passive"},
	{NoWait, "no_wait"},
	{Internal, "internal"},
	{IfUnused, "if_unused"},
	{IfEmpty, "if_empty"},
	{NoAck, "no_ack"},
	{NoLocal, "no_local"},
}

// Has reports whether every bit of other is set.
func (f Flag) Has(other Flag) bool {
	return f&other == other
}

func (f Flag) String() string {
	if f == 0 {
		return "none"
	}
	var parts []string
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseFlags converts configuration names such as "durable" or
// "auto_delete" into a Flag. Unknown names are reported by ok=false.
func ParseFlags(names []string) (f Flag, ok bool) {
	ok = true
	for _, name := range names {
		found := false
		normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
		for _, fn := range flagNames {
			if fn.name == normalized {
				f |= fn.flag
				found = true
				break
			}
		}
		if !found {
			ok = false
		}
	}
	return f, ok
}
