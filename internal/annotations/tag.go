package annotations

import (
	"fmt"
	"strconv"
)

// TagKey is the struct tag key carrying request annotations
const TagKey = "request"

// TagValue is one `key:"value"` entry found in a struct tag
type TagValue struct {
	Value  string // unquoted value
	Offset int    // byte offset of the value inside the tag, after the opening quote
}

// ExtractTag returns every value stored under key in a raw struct tag.
// It follows the conventional tag syntax reflect.StructTag.Lookup uses but
// does not stop at the first match, so duplicate keys can be reported.
func ExtractTag(tag, key string) ([]TagValue, error) {
	var values []TagValue
	offset := 0
	for tag != "" {
		// skip leading space
		i := 0
		for i < len(tag) && tag[i] == ' ' {
			i++
		}
		tag = tag[i:]
		offset += i
		if tag == "" {
			break
		}

		i = 0
		for i < len(tag) && tag[i] > ' ' && tag[i] != ':' && tag[i] != '"' && tag[i] != 0x7f {
			i++
		}
		if i == 0 || i+1 >= len(tag) || tag[i] != ':' || tag[i+1] != '"' {
			return values, fmt.Errorf("malformed struct tag at offset %d", offset)
		}
		name := tag[:i]
		tag = tag[i+1:]
		offset += i + 1

		// scan quoted string to find value
		i = 1
		for i < len(tag) && tag[i] != '"' {
			if tag[i] == '\\' {
				i++
			}
			i++
		}
		if i >= len(tag) {
			return values, fmt.Errorf("unterminated value for tag key %q", name)
		}
		quoted := tag[:i+1]
		tag = tag[i+1:]

		if name == key {
			value, err := strconv.Unquote(quoted)
			if err != nil {
				return values, fmt.Errorf("invalid value for tag key %q: %w", name, err)
			}
			values = append(values, TagValue{Value: value, Offset: offset + 1})
		}
		offset += i + 1
	}
	return values, nil
}
