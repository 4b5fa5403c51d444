package models

import "strings"

// Method is an HTTP method accepted by the request annotation
type Method string

const (
	MethodOptions Method = "OPTIONS"
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodPatch   Method = "PATCH"
	MethodTrace   Method = "TRACE"
	MethodHead    Method = "HEAD"
)

// AllowedMethods lists the method keywords in the order they are documented
var AllowedMethods = []Method{
	MethodOptions,
	MethodGet,
	MethodPost,
	MethodPut,
	MethodDelete,
	MethodPatch,
	MethodTrace,
	MethodHead,
}

// ParseMethod returns the method named by keyword. Keywords are upper case.
func ParseMethod(keyword string) (Method, bool) {
	for _, m := range AllowedMethods {
		if string(m) == keyword {
			return m, true
		}
	}
	return "", false
}

// MethodList renders the allowed methods for messages
func MethodList() string {
	names := make([]string, len(AllowedMethods))
	for i, m := range AllowedMethods {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

// Role represents where a field is sent
type Role int

const (
	RoleHeader Role = iota
	RolePath
	RoleQuery
)

// Roles lists the roles in matching priority order
var Roles = []Role{RoleHeader, RolePath, RoleQuery}

// String returns the annotation keyword of the role
func (r Role) String() string {
	switch r {
	case RoleHeader:
		return "header"
	case RolePath:
		return "path"
	case RoleQuery:
		return "query"
	default:
		return "unknown"
	}
}

// ErrorType represents different types of generator errors
type ErrorType int

const (
	ErrorTypeAnnotationSyntax ErrorType = iota
	ErrorTypeValidation
	ErrorTypeGeneration
	ErrorTypeFileSystem
)

// String returns the string representation of the error type
func (t ErrorType) String() string {
	switch t {
	case ErrorTypeAnnotationSyntax:
		return "annotation syntax"
	case ErrorTypeValidation:
		return "validation"
	case ErrorTypeGeneration:
		return "generation"
	case ErrorTypeFileSystem:
		return "file system"
	default:
		return "unknown"
	}
}
