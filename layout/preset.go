package layout

import (
	"fmt"
	"sort"
	"strings"
)

// PrintOrder is the grid order used for printing both card presets
const PrintOrder = "HPIJGOABFEKCNMLD"

// Regular returns the four face layout of a plain infinity card
func Regular() Layout {
	return New(PrintOrder, "ABNM", "PCOD", "IJFE", "HKGL")
}

// Clockwise returns the eight face layout, including the half-way faces
// seen while the card is folded clockwise
func Clockwise() Layout {
	return New(PrintOrder, "ABFD", "HCFD", "HJFE", "HJGL", "IJNL", "PKNL", "PBNM", "PBOD")
}

// DefaultPreset names the preset used when nothing else is configured
const DefaultPreset = "clockwise"

var presets = map[string]func() Layout{
	"regular":   Regular,
	"clockwise": Clockwise,
}

// Preset returns the named preset layout
func Preset(name string) (Layout, error) {
	f, ok := presets[strings.ToLower(name)]
	if !ok {
		return Layout{}, fmt.Errorf("layout: unknown preset %q (want one of %s)", name, strings.Join(Presets(), ", "))
	}
	return f(), nil
}

// Presets returns the known preset names, sorted
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
