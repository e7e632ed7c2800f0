// Package attrs reads values back out of slog-style argument lists.
package attrs

import "log/slog"

// ExtractString returns the string value for key from args, which may mix
// alternating key/value pairs with slog.Attr entries the way slog accepts them.
// Missing keys and non-string values yield "".
func ExtractString(args []any, key string) string {
	for i := 0; i < len(args); i++ {
		switch k := args[i].(type) {
		case slog.Attr:
			if k.Key == key && k.Value.Kind() == slog.KindString {
				return k.Value.String()
			}
		case string:
			if i+1 >= len(args) {
				return ""
			}
			if k == key {
				if v, ok := args[i+1].(string); ok {
					return v
				}
			}
			i++
		}
	}
	return ""
}
