package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/riskibarqy/bingo-stats/internal/domain/catalog"
)

const tablesEnvPrefix = "BINGO_"

// Tables is the event reference data: which WOM group and window to query, which
// metrics exist, how bingo tiles map to metrics and which names need aliasing.
type Tables struct {
	GroupID          int64               `koanf:"group_id" validate:"gt=0"`
	EventStart       string              `koanf:"event_start" validate:"required"`
	EventEnd         string              `koanf:"event_end" validate:"required"`
	SupportedMetrics []string            `koanf:"supported_metrics" validate:"min=1,dive,required"`
	Categories       map[string][]string `koanf:"categories" validate:"min=1,dive,keys,required,endkeys,min=1,dive,required"`
	Aliases          map[string]string   `koanf:"aliases" validate:"dive,keys,required,endkeys,required"`
}

func DefaultTables() Tables {
	categories := map[string][]string{
		"Dagannoth Kings":   {"dagannoth_rex", "dagannoth_prime", "dagannoth_supreme"},
		"Vorkath":           {"vorkath"},
		"Zulrah":            {"zulrah"},
		"Barrows":           {"barrows_chests"},
		"Corporeal Beast":   {"corporeal_beast"},
		"God Wars Dungeon":  {"general_graardor", "kreearra", "commander_zilyana", "kril_tsutsaroth"},
		"Nex":               {"nex"},
		"Chambers of Xeric": {"chambers_of_xeric", "chambers_of_xeric_challenge_mode"},
		"Theatre of Blood":  {"theatre_of_blood", "theatre_of_blood_hard_mode"},
		"Tombs of Amascut":  {"tombs_of_amascut", "tombs_of_amascut_expert"},
		"Wilderness Bosses": {"callisto", "venenatis", "vetion", "artio", "spindel", "calvarion"},
		"The Nightmare":     {"nightmare", "phosanis_nightmare"},
	}

	seen := make(map[string]struct{})
	supported := make([]string, 0, 32)
	for _, metrics := range categories {
		for _, m := range metrics {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			supported = append(supported, m)
		}
	}
	sort.Strings(supported)

	return Tables{
		GroupID:          1,
		EventStart:       "2026-01-10",
		EventEnd:         "2026-01-24",
		SupportedMetrics: supported,
		Categories:       categories,
		Aliases: map[string]string{
			"Iron Thrage": "thrayge",
		},
	}
}

// LoadTables layers an optional YAML file and BINGO_* env vars over DefaultTables.
// A section present in the file replaces the default section rather than merging with it.
func LoadTables(path string) (Tables, error) {
	k := koanf.New(".")

	if path = strings.TrimSpace(path); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Tables{}, fmt.Errorf("load event tables %s: %w", path, err)
		}
	}

	// BINGO_GROUP_ID -> group_id, BINGO_EVENT_START -> event_start. Set-but-empty vars are
	// skipped so they cannot blank out a value from the file.
	envProvider := env.ProviderWithValue(tablesEnvPrefix, ".", func(key, value string) (string, any) {
		if strings.TrimSpace(value) == "" {
			return "", nil
		}
		return strings.TrimPrefix(strings.ToLower(key), strings.ToLower(tablesEnvPrefix)), value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Tables{}, fmt.Errorf("load event tables env: %w", err)
	}

	var loaded Tables
	if err := k.UnmarshalWithConf("", &loaded, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Tables{}, fmt.Errorf("decode event tables: %w", err)
	}

	out := DefaultTables()
	if loaded.GroupID != 0 {
		out.GroupID = loaded.GroupID
	}
	if strings.TrimSpace(loaded.EventStart) != "" {
		out.EventStart = loaded.EventStart
	}
	if strings.TrimSpace(loaded.EventEnd) != "" {
		out.EventEnd = loaded.EventEnd
	}
	if len(loaded.SupportedMetrics) > 0 {
		out.SupportedMetrics = loaded.SupportedMetrics
	}
	if len(loaded.Categories) > 0 {
		out.Categories = loaded.Categories
	}
	if loaded.Aliases != nil {
		out.Aliases = loaded.Aliases
	}

	if err := out.Validate(); err != nil {
		return Tables{}, err
	}
	return out, nil
}

func (t Tables) Validate() error {
	if err := validator.New().Struct(t); err != nil {
		return fmt.Errorf("invalid event tables: %w", err)
	}

	start, end, err := t.window()
	if err != nil {
		return err
	}
	if !end.After(start) {
		return fmt.Errorf("invalid event tables: event_end must be after event_start")
	}

	supported := make(map[string]struct{}, len(t.SupportedMetrics))
	for _, m := range t.SupportedMetrics {
		supported[strings.TrimSpace(m)] = struct{}{}
	}
	for name, metrics := range t.Categories {
		for _, m := range metrics {
			if _, ok := supported[strings.TrimSpace(m)]; !ok {
				return fmt.Errorf("invalid event tables: category %q uses unsupported metric %q", name, m)
			}
		}
	}
	return nil
}

// Catalog converts validated tables into the engine's immutable configuration.
func (t Tables) Catalog() (catalog.Catalog, error) {
	start, end, err := t.window()
	if err != nil {
		return catalog.Catalog{}, err
	}
	return catalog.New(catalog.Params{
		GroupID:          t.GroupID,
		EventStart:       start,
		EventEnd:         end,
		SupportedMetrics: t.SupportedMetrics,
		Categories:       t.Categories,
		Aliases:          t.Aliases,
	}), nil
}

func (t Tables) window() (time.Time, time.Time, error) {
	start, err := parseEventTime(t.EventStart)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse event_start: %w", err)
	}
	end, err := parseEventTime(t.EventEnd)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse event_end: %w", err)
	}
	return start, end, nil
}

func parseEventTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed.UTC(), nil
	}
	parsed, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD or RFC3339, got %q", raw)
	}
	return parsed.UTC(), nil
}
