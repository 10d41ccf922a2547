package nm

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

// Decode helpers for values crossing the bus boundary. The bus layer hands
// back unwrapped variant values, which arrive as godbus types from the real
// connection and as plain Go types from test fakes; both shapes are accepted.

func asUint32(v any) (uint32, error) {
	switch value := v.(type) {
	case uint32:
		return value, nil
	case int:
		return uint32(value), nil
	default:
		return 0, fmt.Errorf("%w: want uint32, got %T", ErrDecode, v)
	}
}

func asByte(v any) (uint8, error) {
	switch value := v.(type) {
	case uint8:
		return value, nil
	case int:
		return uint8(value), nil
	default:
		return 0, fmt.Errorf("%w: want byte, got %T", ErrDecode, v)
	}
}

func asString(v any) (string, error) {
	if value, ok := v.(string); ok {
		return value, nil
	}
	return "", fmt.Errorf("%w: want string, got %T", ErrDecode, v)
}

func asBytes(v any) ([]byte, error) {
	switch value := v.(type) {
	case []byte:
		return value, nil
	case string:
		return []byte(value), nil
	default:
		return nil, fmt.Errorf("%w: want byte array, got %T", ErrDecode, v)
	}
}

func asObjectPath(v any) (string, error) {
	switch value := v.(type) {
	case dbus.ObjectPath:
		return string(value), nil
	case string:
		return value, nil
	default:
		return "", fmt.Errorf("%w: want object path, got %T", ErrDecode, v)
	}
}

func asObjectPaths(v any) ([]string, error) {
	switch value := v.(type) {
	case []dbus.ObjectPath:
		paths := make([]string, len(value))
		for i, p := range value {
			paths[i] = string(p)
		}
		return paths, nil
	case []string:
		paths := make([]string, len(value))
		copy(paths, value)
		return paths, nil
	default:
		return nil, fmt.Errorf("%w: want object path array, got %T", ErrDecode, v)
	}
}

// connectionID digs the profile id out of a GetSettings result.
func connectionID(v any) (string, bool) {
	switch settings := v.(type) {
	case map[string]map[string]dbus.Variant:
		section, ok := settings["connection"]
		if !ok {
			return "", false
		}
		variant, ok := section["id"]
		if !ok {
			return "", false
		}
		id, ok := variant.Value().(string)
		return id, ok
	case map[string]map[string]any:
		section, ok := settings["connection"]
		if !ok {
			return "", false
		}
		id, ok := section["id"].(string)
		return id, ok
	default:
		return "", false
	}
}
