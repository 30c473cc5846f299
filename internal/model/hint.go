package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Hint selects which rectangle orderings the packer tries. Values are bit
// flags and can be combined.
type Hint uint8

const (
	TryByArea                   Hint = 1 << iota // Largest area first
	TryByPerimeter                               // Largest perimeter first
	TryByBiggerSide                              // Longest side first
	TryByWidth                                   // Widest first
	TryByHeight                                  // Tallest first
	TryByPathologicalMultiplier                  // Most extreme aspect ratio first

	// FindBest tries every ordering.
	FindBest = TryByArea | TryByPerimeter | TryByBiggerSide | TryByWidth | TryByHeight | TryByPathologicalMultiplier
	// UnusualSizes suits inputs where one side is much bigger than the other.
	UnusualSizes = TryByPerimeter | TryByBiggerSide | TryByPathologicalMultiplier
	// MostlySquared suits inputs whose sides are similar.
	MostlySquared = TryByArea | TryByBiggerSide | TryByWidth | TryByHeight
)

// MaxHintCount is the number of single orderings a Hint can expand into.
const MaxHintCount = 6

// canonical is the fixed expansion order.
var canonical = [MaxHintCount]Hint{
	TryByArea,
	TryByPerimeter,
	TryByBiggerSide,
	TryByWidth,
	TryByHeight,
	TryByPathologicalMultiplier,
}

var hintNames = map[Hint]string{
	TryByArea:                   "TryByArea",
	TryByPerimeter:              "TryByPerimeter",
	TryByBiggerSide:             "TryByBiggerSide",
	TryByWidth:                  "TryByWidth",
	TryByHeight:                 "TryByHeight",
	TryByPathologicalMultiplier: "TryByPathologicalMultiplier",
}

var presetNames = map[string]Hint{
	"findbest":      FindBest,
	"unusualsizes":  UnusualSizes,
	"mostlysquared": MostlySquared,
	"none":          0,
}

// Expand splits the set into its single orderings, in canonical order.
func (h Hint) Expand() []Hint {
	out := make([]Hint, 0, MaxHintCount)
	for _, c := range canonical {
		if h&c != 0 {
			out = append(out, c)
		}
	}
	return out
}

// IsSingle reports whether h names exactly one known ordering.
func (h Hint) IsSingle() bool {
	_, ok := hintNames[h]
	return ok
}

// String names the known orderings in h. Unknown bits select nothing and are
// left out, so the result always parses back with ParseHint.
func (h Hint) String() string {
	switch h & FindBest {
	case 0:
		return "None"
	case FindBest:
		return "FindBest"
	}
	parts := h.Expand()
	names := make([]string, len(parts))
	for i, p := range parts {
		names[i] = hintNames[p]
	}
	return strings.Join(names, "|")
}

// ParseHint accepts flag and preset names joined by "|" or ",". Matching is
// case-insensitive and the "TryBy" prefix is optional. A plain number is
// taken as the raw bit set.
func ParseHint(s string) (Hint, error) {
	if n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 8); err == nil {
		return Hint(n), nil
	}
	var h Hint
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == '|' || r == ','
	})
	for _, f := range fields {
		name := strings.ToLower(strings.TrimSpace(f))
		if name == "" {
			continue
		}
		if p, ok := presetNames[name]; ok {
			h |= p
			continue
		}
		found := false
		for flag, n := range hintNames {
			lower := strings.ToLower(n)
			if name == lower || name == strings.TrimPrefix(lower, "tryby") {
				h |= flag
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown packing hint %q", strings.TrimSpace(f))
		}
	}
	return h, nil
}

func (h Hint) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *Hint) UnmarshalText(text []byte) error {
	parsed, err := ParseHint(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}
