package wom

import (
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/bingo-stats/internal/domain/gains"
	"github.com/riskibarqy/bingo-stats/internal/domain/identity"
)

var (
	listFieldKeys     = []string{"gains", "results", "members", "players", "entries", "records", "items"}
	topLevelNameKeys  = []string{"displayName", "display_name", "username", "name", "player", "playerName", "player_name", "rsn"}
	nestedNameKeys    = []string{"displayName", "display_name", "username", "name"}
	nestedPlayerKeys  = []string{"player", "member"}
	nestedGainedKeys  = []string{"gained", "gain", "value"}
	nestedGainedHosts = []string{"data", "metric"}
)

// parseGainsPayload turns any of the tolerated /gained response shapes into a row keyed by
// normalized player name. Later records win when two names normalize to the same key.
func parseGainsPayload(raw []byte) (gains.Row, error) {
	var root any
	if err := sonic.Unmarshal(raw, &root); err != nil {
		return nil, err
	}

	records := extractRecords(root)
	row := make(gains.Row, len(records))
	for _, record := range records {
		key := identity.Normalize(extractPlayerName(record))
		if key == "" {
			continue
		}
		row[key] = extractGained(record)
	}
	return row, nil
}

func extractRecords(root any) []map[string]any {
	switch typed := root.(type) {
	case []any:
		return recordMaps(typed)
	case map[string]any:
		if data, ok := typed["data"]; ok {
			switch inner := data.(type) {
			case []any:
				return recordMaps(inner)
			case map[string]any:
				if list := listField(inner); list != nil {
					return recordMaps(list)
				}
			}
		}
		if list := listField(typed); list != nil {
			return recordMaps(list)
		}
	}
	return nil
}

func listField(obj map[string]any) []any {
	for _, key := range listFieldKeys {
		if list, ok := obj[key].([]any); ok {
			return list
		}
	}
	return nil
}

func recordMaps(items []any) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if record, ok := item.(map[string]any); ok {
			out = append(out, record)
		}
	}
	return out
}

func extractPlayerName(record map[string]any) string {
	for _, key := range topLevelNameKeys {
		if name := getString(record, key); name != "" {
			return name
		}
	}
	for _, host := range nestedPlayerKeys {
		nested := relationDataMap(record[host])
		for _, key := range nestedNameKeys {
			if name := getString(nested, key); name != "" {
				return name
			}
		}
	}
	return ""
}

func extractGained(record map[string]any) float64 {
	if v, ok := asFloat64(record["gained"]); ok {
		return v
	}
	for _, host := range nestedGainedHosts {
		nested, _ := record[host].(map[string]any)
		for _, key := range nestedGainedKeys {
			if v, ok := asFloat64(lookupMapValue(nested, key)); ok {
				return v
			}
		}
	}
	return 0
}

func getString(src map[string]any, key string) string {
	if src == nil {
		return ""
	}
	value, ok := src[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

func relationDataMap(raw any) map[string]any {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	if data, ok := obj["data"].(map[string]any); ok {
		return data
	}
	return obj
}

func lookupMapValue(src map[string]any, key string) any {
	if src == nil {
		return nil
	}
	return src[key]
}

func asFloat64(value any) (float64, bool) {
	switch typed := value.(type) {
	case float64:
		return typed, true
	case float32:
		return float64(typed), true
	case int:
		return float64(typed), true
	case int64:
		return float64(typed), true
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
