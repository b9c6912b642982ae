package entities

import (
	"sort"
	"strings"
)

// HighlightColors is Zotero's annotation palette.
var HighlightColors = map[string]string{
	"yellow":  "#ffd400",
	"red":     "#ff6666",
	"green":   "#5fb236",
	"blue":    "#2ea8e5",
	"purple":  "#a28ae5",
	"magenta": "#e56eee",
	"orange":  "#f19837",
	"gray":    "#aaaaaa",
}

const DefaultHighlightColor = "yellow"

// ResolveHighlightColor accepts a palette name or a "#rrggbb" value.
func ResolveHighlightColor(name string) (string, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if hex, ok := HighlightColors[name]; ok {
		return hex, true
	}
	if len(name) == 7 && name[0] == '#' && strings.Trim(name[1:], "0123456789abcdef") == "" {
		return name, true
	}
	return "", false
}

// HighlightColorNames lists palette names in alphabetical order.
func HighlightColorNames() []string {
	names := make([]string, 0, len(HighlightColors))
	for name := range HighlightColors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
