package lark

import (
	"encoding"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Serializer converts a field value to its wire form. ok is false when the
// value is absent and must not be sent.
type Serializer func(v any) (value string, ok bool)

var (
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
	stringerType      = reflect.TypeFor[fmt.Stringer]()
)

// Serialize is the default conversion of header, path and query values.
//
// Strings, booleans, integers and floats use their canonical text form.
// Nil pointers and nil slices are absent. Slices and arrays join their
// present elements with commas; []byte is sent as text. Types implementing
// encoding.TextMarshaler or fmt.Stringer use those methods.
func Serialize(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	return serializeValue(reflect.ValueOf(v))
}

func serializeValue(rv reflect.Value) (string, bool) {
	if !rv.IsValid() {
		return "", false
	}

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return "", false
		}
	}

	if s, ok, handled := serializeMethods(rv); handled {
		return s, ok
	}

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return serializeValue(rv.Elem())
	case reflect.String:
		return rv.String(), true
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32), true
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), true
	case reflect.Slice:
		if rv.IsNil() {
			return "", false
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return string(rv.Bytes()), true
		}
		return joinElements(rv), true
	case reflect.Array:
		return joinElements(rv), true
	default:
		return "", false
	}
}

func serializeMethods(rv reflect.Value) (string, bool, bool) {
	if !rv.CanInterface() {
		return "", false, false
	}
	if rv.Type().Implements(textMarshalerType) {
		text, err := rv.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return "", false, true
		}
		return string(text), true, true
	}
	if rv.CanAddr() && reflect.PointerTo(rv.Type()).Implements(textMarshalerType) {
		return serializeMethods(rv.Addr())
	}
	if rv.Type().Implements(stringerType) {
		return rv.Interface().(fmt.Stringer).String(), true, true
	}
	if rv.CanAddr() && reflect.PointerTo(rv.Type()).Implements(stringerType) {
		return serializeMethods(rv.Addr())
	}
	return "", false, false
}

func joinElements(rv reflect.Value) string {
	parts := make([]string, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		if s, ok := serializeValue(rv.Index(i)); ok {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ",")
}

// serializable reports whether Serialize can convert values of type t
func serializable(t reflect.Type) bool {
	if t.Implements(textMarshalerType) || t.Implements(stringerType) {
		return true
	}
	pt := reflect.PointerTo(t)
	if pt.Implements(textMarshalerType) || pt.Implements(stringerType) {
		return true
	}

	switch t.Kind() {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Interface:
		return true
	case reflect.Pointer, reflect.Slice, reflect.Array:
		return serializable(t.Elem())
	default:
		return false
	}
}

var serializers = struct {
	sync.RWMutex
	byName map[string]Serializer
}{byName: map[string]Serializer{
	"json":       serializeJSON,
	"unix":       serializeUnix,
	"unix_milli": serializeUnixMilli,
}}

// RegisterSerializer makes fn available to `serialize_with = 'name'`.
// Registering an existing name replaces it for descriptors compiled afterwards.
func RegisterSerializer(name string, fn Serializer) error {
	if name == "" {
		return fmt.Errorf("serializer name is empty")
	}
	if fn == nil {
		return fmt.Errorf("serializer %q is nil", name)
	}

	serializers.Lock()
	defer serializers.Unlock()
	serializers.byName[name] = fn
	return nil
}

// LookupSerializer returns the serializer registered under name
func LookupSerializer(name string) (Serializer, bool) {
	serializers.RLock()
	defer serializers.RUnlock()
	fn, ok := serializers.byName[name]
	return fn, ok
}

// SerializeWith converts v with the named serializer. Unknown names are absent.
func SerializeWith(name string, v any) (string, bool) {
	fn, ok := LookupSerializer(name)
	if !ok {
		return "", false
	}
	return fn(v)
}

func serializeJSON(v any) (string, bool) {
	if isNil(v) {
		return "", false
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", false
	}
	return string(b), true
}

func serializeUnix(v any) (string, bool) {
	t, ok := asTime(v)
	if !ok {
		return "", false
	}
	return strconv.FormatInt(t.Unix(), 10), true
}

func serializeUnixMilli(v any) (string, bool) {
	t, ok := asTime(v)
	if !ok {
		return "", false
	}
	return strconv.FormatInt(t.UnixMilli(), 10), true
}

// asTime accepts time.Time and *time.Time; the zero time is absent
func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, !t.IsZero()
	default:
		return time.Time{}, false
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
