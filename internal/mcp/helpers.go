package mcpserver

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/settings"
)

// patchArg reads a content patch passed either as an object or as a JSON
// string.
func patchArg(args map[string]any, key string) (domain.Patch, error) {
	switch v := args[key].(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return domain.Patch(v), nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		var p domain.Patch
		if err := json.Unmarshal([]byte(v), &p); err != nil {
			return nil, fmt.Errorf("%s: invalid JSON object: %w", key, err)
		}
		return p, nil
	}
	return nil, fmt.Errorf("%s must be an object", key)
}

// coerceValue converts string arguments to the type a field of kind holds,
// since many clients only send strings.
func coerceValue(kind settings.FieldKind, v any) (any, error) {
	str, ok := v.(string)
	if !ok {
		return v, nil
	}
	switch kind {
	case settings.FieldNumber:
		f, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
		if err != nil {
			return nil, fmt.Errorf("expected a number, got %q", str)
		}
		return f, nil
	case settings.FieldToggle:
		b, err := strconv.ParseBool(strings.TrimSpace(str))
		if err != nil {
			return nil, fmt.Errorf("expected true or false, got %q", str)
		}
		return b, nil
	case settings.FieldList, settings.FieldLink:
		var decoded any
		if err := json.Unmarshal([]byte(str), &decoded); err != nil {
			return nil, fmt.Errorf("expected JSON: %w", err)
		}
		return decoded, nil
	}
	return str, nil
}

// idList splits a comma-separated id list, dropping blanks.
func idList(s string) []string {
	var out []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
