package cache

import (
	"fmt"
	"reflect"
	"strings"
)

// KeySeparator joins the parts of a cache key.
const KeySeparator = "|"

// MakeKey joins prefix and the non-nil parts with KeySeparator, in order.
// Pointers are dereferenced; nil values (including nil pointers, maps and
// slices) are skipped.
//
// Parts are not escaped, so a part containing the separator can collide with
// a different split of the same text.
func MakeKey(prefix string, parts ...any) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, p := range parts {
		s, ok := keyPart(p)
		if !ok {
			continue
		}
		b.WriteString(KeySeparator)
		b.WriteString(s)
	}
	return b.String()
}

func keyPart(p any) (string, bool) {
	if p == nil {
		return "", false
	}
	rv := reflect.ValueOf(p)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return "", false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return "", false
		}
	}
	if s, ok := rv.Interface().(fmt.Stringer); ok {
		return s.String(), true
	}
	return fmt.Sprint(rv.Interface()), true
}
