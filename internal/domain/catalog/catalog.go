package catalog

import (
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/bingo-stats/internal/domain/identity"
)

// Catalog is the immutable reference data the stats engine runs against:
// which WOM group to query, which metrics exist, how bingo categories map to
// metrics and how event-log names map to WOM names.
type Catalog struct {
	groupID    int64
	eventStart time.Time
	eventEnd   time.Time
	supported  map[string]struct{}
	categories map[string][]string
	aliases    identity.AliasMap
}

type Params struct {
	GroupID          int64
	EventStart       time.Time
	EventEnd         time.Time
	SupportedMetrics []string
	Categories       map[string][]string
	Aliases          map[string]string
}

func New(p Params) Catalog {
	supported := make(map[string]struct{}, len(p.SupportedMetrics))
	for _, m := range p.SupportedMetrics {
		if m = strings.TrimSpace(m); m != "" {
			supported[m] = struct{}{}
		}
	}

	categories := make(map[string][]string, len(p.Categories))
	for name, metrics := range p.Categories {
		cp := make([]string, 0, len(metrics))
		for _, m := range metrics {
			if m = strings.TrimSpace(m); m != "" {
				cp = append(cp, m)
			}
		}
		categories[strings.TrimSpace(name)] = cp
	}

	return Catalog{
		groupID:    p.GroupID,
		eventStart: p.EventStart,
		eventEnd:   p.EventEnd,
		supported:  supported,
		categories: categories,
		aliases:    identity.NewAliasMap(p.Aliases),
	}
}

func (c Catalog) GroupID() int64 {
	return c.groupID
}

func (c Catalog) EventWindow() (time.Time, time.Time) {
	return c.eventStart, c.eventEnd
}

func (c Catalog) Aliases() identity.AliasMap {
	return c.aliases
}

func (c Catalog) IsSupported(metric string) bool {
	_, ok := c.supported[metric]
	return ok
}

func (c Catalog) SupportedMetrics() []string {
	out := make([]string, 0, len(c.supported))
	for m := range c.supported {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// CategoryMetrics returns the metrics mapped to a bingo category. Lookup falls back to a
// case-insensitive match so "dagannoth kings" finds "Dagannoth Kings".
func (c Catalog) CategoryMetrics(category string) ([]string, bool) {
	category = strings.TrimSpace(category)
	if metrics, ok := c.categories[category]; ok {
		return append([]string(nil), metrics...), true
	}
	for name, metrics := range c.categories {
		if strings.EqualFold(name, category) {
			return append([]string(nil), metrics...), true
		}
	}
	return nil, false
}

// CanonicalCategory returns the configured spelling of category.
func (c Catalog) CanonicalCategory(category string) (string, bool) {
	category = strings.TrimSpace(category)
	if _, ok := c.categories[category]; ok {
		return category, true
	}
	for name := range c.categories {
		if strings.EqualFold(name, category) {
			return name, true
		}
	}
	return "", false
}

func (c Catalog) Categories() []string {
	out := make([]string, 0, len(c.categories))
	for name := range c.categories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
