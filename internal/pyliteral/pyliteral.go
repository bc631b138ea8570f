// Package pyliteral converts JSON-like Go values into Python literal source
// text. It exists so caller-supplied input values can be spliced into kernel
// source safely: names are validated against a strict identifier pattern and
// every string is fully escaped, including control characters.
package pyliteral

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// namePattern is the strict identifier shape allowed for injected variable
// names. Anything else is rejected outright since names become raw Python
// source.
var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidName reports whether s is acceptable as an injected variable name.
func ValidName(s string) bool {
	return namePattern.MatchString(s)
}

// Convert renders v as Python literal source text. Supported inputs are nil,
// booleans, finite numbers, strings, slices and string-keyed maps, applied
// recursively. Non-finite floats and unsupported types are errors.
func Convert(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "None", nil
	case bool:
		if val {
			return "True", nil
		}
		return "False", nil
	case string:
		return Quote(val), nil
	case int:
		return strconv.Itoa(val), nil
	case int32:
		return strconv.FormatInt(int64(val), 10), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case uint64:
		return strconv.FormatUint(val, 10), nil
	case float32:
		return convertFloat(float64(val))
	case float64:
		return convertFloat(val)
	}

	// Typed slices and maps (e.g. []string, map[string]int) reduce to the
	// same bracketed forms via reflection.
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		parts := make([]string, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elem, err := Convert(rv.Index(i).Interface())
			if err != nil {
				return "", err
			}
			parts[i] = elem
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return "", fmt.Errorf("unsupported map key type %s, only string keys can be converted", rv.Type().Key())
		}
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		// Map iteration order is random in Go; sort so the emitted source is
		// deterministic.
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			elem, err := Convert(rv.MapIndex(reflect.ValueOf(k)).Interface())
			if err != nil {
				return "", fmt.Errorf("in key %q: %w", k, err)
			}
			parts = append(parts, Quote(k)+": "+elem)
		}
		return "{" + strings.Join(parts, ", ") + "}", nil
	}

	return "", fmt.Errorf("unsupported value type %T, cannot convert to a Python literal", v)
}

func convertFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("non-finite number %v cannot be converted to a Python literal", f)
	}
	return strconv.FormatFloat(f, 'g', -1, 64), nil
}

// Quote renders s as a double-quoted Python string literal. Backslash, quote,
// newline, tab, carriage return and every other control character below 0x20
// plus DEL are escaped, so the result is always a single source line.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\x%02x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

// Assignments renders a set of named inputs as one combined block of Python
// assignment statements, one per line, sorted by name for determinism. Every
// name must satisfy ValidName; the caller is expected to have checked that
// already, so a violation here is an error, not a panic.
func Assignments(inputs map[string]any) (string, error) {
	names := make([]string, 0, len(inputs))
	for name := range inputs {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		if !ValidName(name) {
			return "", fmt.Errorf("invalid input name %q", name)
		}
		literal, err := Convert(inputs[name])
		if err != nil {
			return "", fmt.Errorf("input %q: %w", name, err)
		}
		lines = append(lines, name+" = "+literal)
	}
	return strings.Join(lines, "\n"), nil
}
