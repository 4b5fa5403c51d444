package lark

import "regexp"

var placeholderPattern = regexp.MustCompile(`:(\w+)`)

// ReplacePathParams substitutes every ':name' token of address with
// params[name]. Tokens without a value are left verbatim.
func ReplacePathParams(address string, params map[string]string) string {
	if len(params) == 0 {
		return address
	}
	return placeholderPattern.ReplaceAllStringFunc(address, func(token string) string {
		if value, ok := params[token[1:]]; ok {
			return value
		}
		return token
	})
}
