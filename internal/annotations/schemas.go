package annotations

import (
	"fmt"
	"strings"
)

// ParameterKind represents how an annotation argument is matched
type ParameterKind int

const (
	PositionalParameter ParameterKind = iota
	FlagParameter
	StringParameter
	FlagOrStringParameter
)

// String returns the string representation of the parameter kind
func (k ParameterKind) String() string {
	switch k {
	case PositionalParameter:
		return "positional"
	case FlagParameter:
		return "flag"
	case StringParameter:
		return "string"
	case FlagOrStringParameter:
		return "flag-or-string"
	default:
		return "unknown"
	}
}

// ParameterSpec describes one accepted argument
type ParameterSpec struct {
	Name        string
	Kind        ParameterKind
	Required    bool
	Description string
}

// AnnotationSchema describes one annotation form
type AnnotationSchema struct {
	Name        string
	Description string
	Format      string
	Parameters  []ParameterSpec
	Examples    []string
}

// Parameter returns the named parameter
func (s AnnotationSchema) Parameter(name string) (ParameterSpec, bool) {
	for _, p := range s.Parameters {
		if p.Name == name {
			return p, true
		}
	}
	return ParameterSpec{}, false
}

// Hint renders a one-line usage hint for error messages
func (s AnnotationSchema) Hint() string {
	return fmt.Sprintf("expected %s", s.Format)
}

// Describe renders the schema for humans
func (s AnnotationSchema) Describe() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", s.Name, s.Description)
	fmt.Fprintf(&b, "  format: %s\n", s.Format)
	if len(s.Parameters) > 0 {
		b.WriteString("  arguments:\n")
		for _, p := range s.Parameters {
			required := ""
			if p.Required {
				required = ", required"
			}
			fmt.Fprintf(&b, "    %-15s %s%s. %s\n", p.Name, p.Kind, required, p.Description)
		}
	}
	if len(s.Examples) > 0 {
		b.WriteString("  examples:\n")
		for _, ex := range s.Examples {
			fmt.Fprintf(&b, "    %s\n", ex)
		}
	}
	return b.String()
}

// ContainerSchema describes the annotation on the embedded lark.Endpoint field
var ContainerSchema = AnnotationSchema{
	Name:        "request",
	Description: "Declares the method, URL and response payload of a request struct",
	Format:      `request:"METHOD, 'url', Response, flatten, body = bool"`,
	Parameters: []ParameterSpec{
		{Name: "method", Kind: PositionalParameter, Description: "OPTIONS, GET, POST, PUT, DELETE, PATCH, TRACE or HEAD; defaults to POST"},
		{Name: "url", Kind: PositionalParameter, Required: true, Description: "address template, ':name' segments are path parameters"},
		{Name: "response", Kind: PositionalParameter, Required: true, Description: "name of the payload type of the embedded Endpoint"},
		{Name: "flatten", Kind: FlagParameter, Description: "payload fields sit next to code and msg instead of under data"},
		{Name: "body", Kind: FlagParameter, Description: "send the JSON encoding of the struct; defaults to true for every method but GET"},
	},
	Examples: []string{
		`lark.Endpoint[User] ` + "`" + `request:"GET, '/open-apis/contact/v3/users/:user_id', User"` + "`",
		`lark.Endpoint[Message] ` + "`" + `request:"'/open-apis/im/v1/messages', Message"` + "`",
		`lark.Endpoint[Token] ` + "`" + `request:"POST, '/open-apis/auth/v3/tenant_access_token/internal', Token, flatten"` + "`",
		`lark.Endpoint[Chat] ` + "`" + `request:"DELETE, '/open-apis/im/v1/chats/:chat_id', Chat, body = false"` + "`",
	},
}

// FieldSchema describes the annotation on request struct fields
var FieldSchema = AnnotationSchema{
	Name:        "request",
	Description: "Routes a field into a header, a path parameter or a query parameter",
	Format:      `request:"header|path|query [= 'name'], rename = 'name', serialize_with = 'fn', with = 'prefix'"`,
	Parameters: []ParameterSpec{
		{Name: "header", Kind: FlagOrStringParameter, Description: "send the field as a header; a string sets the header name"},
		{Name: "path", Kind: FlagOrStringParameter, Description: "substitute the field into the ':name' placeholder of the URL"},
		{Name: "query", Kind: FlagOrStringParameter, Description: "append the field to the query string"},
		{Name: "rename", Kind: StringParameter, Description: "wire name of the field"},
		{Name: "serialize_with", Kind: StringParameter, Description: "name of a registered serializer"},
		{Name: "with", Kind: StringParameter, Description: "prefix prepended to the serialized value"},
	},
	Examples: []string{
		`UserID string ` + "`" + `request:"path = 'user_id'"` + "`",
		`Token string ` + "`" + `request:"header, rename = 'Authorization', with = 'Bearer '"` + "`",
		`PageSize int ` + "`" + `request:"query = 'page_size'"` + "`",
		`Since time.Time ` + "`" + `request:"query, serialize_with = 'unix'"` + "`",
	},
}
