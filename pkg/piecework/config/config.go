package config

// Config is a decoded configuration document with typed, defaulted
// accessors. A missing key or a value of the wrong type yields the default.
type Config struct {
	data map[string]any
}

// New wraps data. A nil map behaves as an empty document.
func New(data map[string]any) Config {
	if data == nil {
		data = make(map[string]any)
	}
	return Config{data: data}
}

func lookup[T any](c Config, key string, def T) T {
	if v, ok := c.data[key].(T); ok {
		return v
	}
	return def
}

// String returns the string under key, or def.
func (c Config) String(key, def string) string {
	return lookup(c, key, def)
}

// Bool returns the boolean under key, or def.
func (c Config) Bool(key string, def bool) bool {
	return lookup(c, key, def)
}

// StringSlice returns the list under key, or def. A single string is
// accepted as a one-element list, so `prefix: "!"` and `prefix: ["!"]` are
// equivalent. A list holding anything but strings yields def.
func (c Config) StringSlice(key string, def []string) []string {
	switch val := c.data[key].(type) {
	case string:
		return []string{val}
	case []string:
		return val
	case []any:
		out := make([]string, len(val))
		for i, item := range val {
			s, ok := item.(string)
			if !ok {
				return def
			}
			out[i] = s
		}
		return out
	default:
		return def
	}
}

// Has reports whether key is present.
func (c Config) Has(key string) bool {
	_, ok := c.data[key]
	return ok
}

// Raw returns the underlying map. Callers must not modify it.
func (c Config) Raw() map[string]any {
	return c.data
}
