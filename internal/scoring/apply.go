package scoring

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"resume-builder/internal/shared/apperr"
)

const (
	OpSet    = "set"
	OpRemove = "remove"
	OpAppend = "append"
)

// Action is a one-click fix: an operation at a dotted field path such as
// "basics.photoUrl" or "work.0.highlights".
type Action struct {
	Op    string `json:"op" validate:"required,oneof=set remove append"`
	Path  string `json:"path" validate:"required,max=200"`
	Value any    `json:"value,omitempty"`
}

// Apply returns raw with action applied. Object keys in the result are sorted.
func Apply(raw json.RawMessage, action Action) (json.RawMessage, error) {
	segments, err := splitPath(action.Path)
	if err != nil {
		return nil, err
	}

	root := map[string]any{}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&root); err != nil {
			return nil, apperr.Validation("document content is not a JSON object")
		}
	}

	value, err := normalizeValue(action.Value)
	if err != nil {
		return nil, err
	}

	var updated any
	switch action.Op {
	case OpSet:
		updated, err = setAt(root, segments, value)
	case OpRemove:
		updated, err = removeAt(root, segments)
	case OpAppend:
		updated, err = appendAt(root, segments, value)
	default:
		return nil, invalidAction("op", "must be one of: set remove append")
	}
	if err != nil {
		return nil, err
	}
	out, err := json.Marshal(updated)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return out, nil
}

func splitPath(path string) ([]string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, invalidAction("path", "required")
	}
	segments := strings.Split(path, ".")
	for _, s := range segments {
		if s == "" {
			return nil, invalidAction("path", "empty path segment")
		}
	}
	return segments, nil
}

// normalizeValue round-trips typed values so nested structs become plain JSON values.
func normalizeValue(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(v)
	if err != nil {
		return nil, invalidAction("value", "must be JSON")
	}
	dec := json.NewDecoder(bytes.NewReader(encoded))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, invalidAction("value", "must be JSON")
	}
	return out, nil
}

func setAt(node any, path []string, value any) (any, error) {
	key := path[0]
	switch n := node.(type) {
	case map[string]any:
		if len(path) == 1 {
			n[key] = value
			return n, nil
		}
		child, ok := n[key]
		if !ok || child == nil {
			child = map[string]any{}
		}
		updated, err := setAt(child, path[1:], value)
		if err != nil {
			return nil, err
		}
		n[key] = updated
		return n, nil
	case []any:
		i, err := index(key, len(n))
		if err != nil {
			return nil, err
		}
		if len(path) == 1 {
			n[i] = value
			return n, nil
		}
		updated, err := setAt(n[i], path[1:], value)
		if err != nil {
			return nil, err
		}
		n[i] = updated
		return n, nil
	default:
		return nil, invalidAction("path", "does not address an object or array")
	}
}

func removeAt(node any, path []string) (any, error) {
	key := path[0]
	switch n := node.(type) {
	case map[string]any:
		child, ok := n[key]
		if !ok {
			return n, nil
		}
		if len(path) == 1 {
			delete(n, key)
			return n, nil
		}
		updated, err := removeAt(child, path[1:])
		if err != nil {
			return nil, err
		}
		n[key] = updated
		return n, nil
	case []any:
		i, err := index(key, len(n))
		if err != nil {
			return nil, err
		}
		if len(path) == 1 {
			return append(n[:i:i], n[i+1:]...), nil
		}
		updated, err := removeAt(n[i], path[1:])
		if err != nil {
			return nil, err
		}
		n[i] = updated
		return n, nil
	default:
		return nil, invalidAction("path", "does not address an object or array")
	}
}

func appendAt(node any, path []string, value any) (any, error) {
	key := path[0]
	switch n := node.(type) {
	case map[string]any:
		child, ok := n[key]
		if len(path) == 1 {
			var list []any
			if ok && child != nil {
				existing, isList := child.([]any)
				if !isList {
					return nil, invalidAction("path", "does not address an array")
				}
				list = existing
			}
			n[key] = append(list, value)
			return n, nil
		}
		if !ok || child == nil {
			child = map[string]any{}
		}
		updated, err := appendAt(child, path[1:], value)
		if err != nil {
			return nil, err
		}
		n[key] = updated
		return n, nil
	case []any:
		i, err := index(key, len(n))
		if err != nil {
			return nil, err
		}
		if len(path) == 1 {
			list, isList := n[i].([]any)
			if !isList {
				return nil, invalidAction("path", "does not address an array")
			}
			n[i] = append(list, value)
			return n, nil
		}
		updated, err := appendAt(n[i], path[1:], value)
		if err != nil {
			return nil, err
		}
		n[i] = updated
		return n, nil
	default:
		return nil, invalidAction("path", "does not address an object or array")
	}
}

func index(segment string, length int) (int, error) {
	i, err := strconv.Atoi(segment)
	if err != nil || i < 0 || i >= length {
		return 0, invalidAction("path", "array index out of range: "+segment)
	}
	return i, nil
}

func invalidAction(field, issue string) error {
	return apperr.Validation("invalid suggestion action", apperr.FieldError{Field: "action." + field, Issue: issue})
}
