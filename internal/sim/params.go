package sim

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Params is a string-keyed parameter bag handed to models.
//
// Values come from configuration (CLI flags, env) or from orchestrator
// overrides. Typed getters tolerate the loosely typed values produced by
// YAML and JSON decoding (e.g. a float64 where an int is expected).
type Params map[string]any

// Merge returns a new bag holding p overlaid with overrides.
// Neither input is modified.
func (p Params) Merge(overrides Params) Params {
	out := make(Params, len(p)+len(overrides))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// Clone returns a shallow copy.
func (p Params) Clone() Params {
	return p.Merge(nil)
}

// Keys returns the keys in sorted order.
func (p Params) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether key is set.
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// String returns the value for key as a string, or def.
func (p Params) String(key, def string) string {
	v, ok := p[key]
	if !ok {
		return def
	}
	switch val := v.(type) {
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// Int returns the value for key as an int, or def when missing or not numeric.
func (p Params) Int(key string, def int) int {
	v, ok := p[key]
	if !ok {
		return def
	}
	switch val := v.(type) {
	case int:
		return val
	case int64:
		return int(val)
	case int32:
		return int(val)
	case float64:
		return int(val)
	case string:
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return def
}

// Float returns the value for key as a float64, or def.
func (p Params) Float(key string, def float64) float64 {
	v, ok := p[key]
	if !ok {
		return def
	}
	switch val := v.(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case string:
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return def
}

// Bool returns the value for key as a bool, or def.
func (p Params) Bool(key string, def bool) bool {
	v, ok := p[key]
	if !ok {
		return def
	}
	switch val := v.(type) {
	case bool:
		return val
	case string:
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return def
}

// Duration returns the value for key as a time.Duration, or def.
// Integers are interpreted as seconds; strings use time.ParseDuration.
func (p Params) Duration(key string, def time.Duration) time.Duration {
	v, ok := p[key]
	if !ok {
		return def
	}
	switch val := v.(type) {
	case time.Duration:
		return val
	case int:
		return time.Duration(val) * time.Second
	case int64:
		return time.Duration(val) * time.Second
	case float64:
		return time.Duration(val * float64(time.Second))
	case string:
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return def
}
