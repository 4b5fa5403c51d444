package models

import "github.com/toyz/lark/internal/annotations"

// RequestDescriptor is the compiled container annotation of a request type
type RequestDescriptor struct {
	Method   Method                     // HTTP method, POST when omitted
	Address  string                     // URL template with :name placeholders
	Response string                     // payload type reference as written
	Flatten  bool                       // payload sits next to code and msg
	Body     *bool                      // explicit body flag, nil when omitted
	Location annotations.SourceLocation // where the annotation was declared
}

// HasBody reports whether the request sends its JSON encoding.
// Without an explicit flag every method but GET sends a body.
func (d *RequestDescriptor) HasBody() bool {
	if d.Body != nil {
		return *d.Body
	}
	return d.Method != MethodGet
}

// ResponseName returns the last segment of the response reference
func (d *RequestDescriptor) ResponseName() string {
	name := d.Response
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[i+1:]
		}
	}
	return name
}

// FieldDescriptor is the compiled annotation of one request field
type FieldDescriptor struct {
	Name       string                     // Go field name
	Index      []int                      // reflect field index, empty for parsed sources
	Type       string                     // Go type expression of the field
	Role       Role                       // where the value is sent
	Rename     string                     // wire name override, empty when none
	Prefix     string                     // prepended to present values
	Serializer string                     // registered serializer name, empty for the default
	Location   annotations.SourceLocation // where the annotation was declared
}

// WireName is the header, placeholder or query key the field is sent under
func (f *FieldDescriptor) WireName() string {
	if f.Rename != "" {
		return f.Rename
	}
	return f.Name
}

// FieldSet groups field descriptors by role, each in declaration order
type FieldSet struct {
	Headers []FieldDescriptor
	Paths   []FieldDescriptor
	Queries []FieldDescriptor
}

// Add appends the field to the list of its role
func (s *FieldSet) Add(field FieldDescriptor) {
	switch field.Role {
	case RoleHeader:
		s.Headers = append(s.Headers, field)
	case RolePath:
		s.Paths = append(s.Paths, field)
	case RoleQuery:
		s.Queries = append(s.Queries, field)
	}
}

// All returns every field grouped header, path, query
func (s *FieldSet) All() []FieldDescriptor {
	all := make([]FieldDescriptor, 0, s.Len())
	all = append(all, s.Headers...)
	all = append(all, s.Paths...)
	return append(all, s.Queries...)
}

// Len returns the number of role fields
func (s *FieldSet) Len() int {
	return len(s.Headers) + len(s.Paths) + len(s.Queries)
}
