package identity

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// PlayerIdentity pairs a display name from the event log with its comparable key.
type PlayerIdentity struct {
	Raw string
	Key string
}

func NewPlayerIdentity(raw string, aliases AliasMap) PlayerIdentity {
	return PlayerIdentity{Raw: raw, Key: aliases.Resolve(raw)}
}

// Normalize collapses a free-text player name into a lowercase alphanumeric key.
// Accents are folded before stripping so "Zézima" and "Zezima" share a key.
func Normalize(name string) string {
	if name == "" {
		return ""
	}

	folded := strings.ToLower(name)
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if out, _, err := transform.String(t, folded); err == nil {
		folded = out
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// AliasMap maps event-log names to the name WOM tracks the player under.
// The zero value is an empty, usable map.
type AliasMap struct {
	exact   map[string]string
	sources []aliasSource
}

type aliasSource struct {
	key    string
	target string
}

func NewAliasMap(raw map[string]string) AliasMap {
	exact := make(map[string]string, len(raw))
	sources := make([]aliasSource, 0, len(raw))

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		target := raw[name]
		exact[name] = target
		if key := Normalize(name); key != "" {
			sources = append(sources, aliasSource{key: key, target: target})
		}
	}

	return AliasMap{exact: exact, sources: sources}
}

// Resolve returns the external key for rawName: an exact alias wins, then the first alias
// whose normalized source equals the normalized name, then the normalized name itself.
func (m AliasMap) Resolve(rawName string) string {
	if target, ok := m.exact[rawName]; ok {
		return Normalize(target)
	}

	key := Normalize(rawName)
	for _, src := range m.sources {
		if src.key == key {
			return Normalize(src.target)
		}
	}
	return key
}

// Entries returns a copy of the configured aliases.
func (m AliasMap) Entries() map[string]string {
	out := make(map[string]string, len(m.exact))
	for k, v := range m.exact {
		out[k] = v
	}
	return out
}
