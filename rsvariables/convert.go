package rsvariables

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
)

// applyObject stores each top-level member of a decoded variables document.
// Member names become variable names; values are converted to strings.
func applyObject(store *Store, values map[string]any) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, key := range keys {
		value, err := scalarString(values[key])
		if err != nil {
			return fmt.Errorf("the variable \"%s\" has an unusable value: %w", key, err)
		}
		store.Set(key, value)
	}
	return nil
}

// scalarString converts a decoded document value to its variable string
// form. Numbers keep their source formatting where the decoder preserves
// it, booleans become "true" or "false", and composite values are encoded
// as JSON.
func scalarString(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case json.Number:
		return v.String(), nil
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(encoded), nil
	}
}
