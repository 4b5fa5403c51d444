// Package descriptor compiles request annotations into descriptors.
//
// The same builders back the runtime interpreter in pkg/lark and the
// larkgen code generator, so both agree on every accepted and rejected
// annotation.
package descriptor

import (
	"fmt"

	"github.com/toyz/lark/internal/annotations"
	"github.com/toyz/lark/internal/models"
)

// RequestUsage is the message reported for a malformed container annotation
const RequestUsage = `expected request:"METHOD, 'url', RESPONSE" or request:"'url', RESPONSE"`

// Annotation is one raw `request` tag value and where it starts
type Annotation struct {
	Value    string
	Location annotations.SourceLocation
}

// Lookup extracts the request annotations of a raw struct tag. loc is the
// location of the first byte of the tag.
func Lookup(target, tag string, loc annotations.SourceLocation) ([]Annotation, error) {
	values, err := annotations.ExtractTag(tag, annotations.TagKey)
	if err != nil {
		return nil, &annotations.DescriptorError{
			Target: target,
			Msg:    err.Error(),
			Loc:    loc,
			Hint:   "struct tags are written key:\"value\" separated by spaces",
		}
	}

	found := make([]Annotation, len(values))
	for i, v := range values {
		found[i] = Annotation{Value: v.Value, Location: loc.At(v.Offset)}
	}
	return found, nil
}

// single rejects repeated request annotations
func single(target string, found []Annotation) error {
	if len(found) > 1 {
		return &annotations.DescriptorError{
			Target: target,
			Msg:    "duplicate attribute `request`",
			Loc:    found[1].Location,
			Hint:   "merge the arguments into a single request tag",
		}
	}
	return nil
}

// BuildRequest compiles the container annotation of target from its raw
// struct tag.
func BuildRequest(target, tag string, loc annotations.SourceLocation) (*models.RequestDescriptor, error) {
	found, err := Lookup(target, tag, loc)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, &annotations.DescriptorError{
			Target: target,
			Msg:    RequestUsage,
			Loc:    loc,
			Hint:   annotations.ContainerSchema.Hint(),
		}
	}
	if err := single(target, found); err != nil {
		return nil, err
	}
	return CompileRequest(target, found[0])
}

// CompileRequest compiles one container annotation value
func CompileRequest(target string, a Annotation) (*models.RequestDescriptor, error) {
	args, err := annotations.ParseArguments(a.Value, a.Location)
	if err != nil {
		return nil, err
	}

	usage := func(loc annotations.SourceLocation, arg string) error {
		return &annotations.DescriptorError{
			Target:   target,
			Argument: arg,
			Msg:      RequestUsage,
			Loc:      loc,
			Hint:     fmt.Sprintf("the method is one of %s", models.MethodList()),
		}
	}

	pool := annotations.NewPool(args)
	desc := &models.RequestDescriptor{Location: a.Location}

	first, ok := pool.Next()
	if !ok {
		return nil, usage(a.Location, "")
	}
	method, hasMethod := methodOf(first)
	if hasMethod {
		desc.Method = method
	} else if address, ok := stringOf(first); ok {
		desc.Method = models.MethodPost
		desc.Address = address
	} else {
		return nil, usage(first.Location, first.String())
	}

	if hasMethod {
		next, ok := pool.Next()
		if !ok {
			return nil, usage(a.Location, "")
		}
		address, ok := stringOf(next)
		if !ok {
			return nil, usage(next.Location, next.String())
		}
		desc.Address = address
	}

	response, ok := pool.Next()
	if !ok {
		return nil, usage(a.Location, "")
	}
	if response.Named() || response.Kind != annotations.PathLiteral {
		return nil, usage(response.Location, response.String())
	}
	desc.Response = response.PathString()

	flatten, err := pool.TakeFlag("flatten")
	if err != nil {
		return nil, err
	}
	desc.Flatten = flatten.Value

	body, err := pool.TakeFlag("body")
	if err != nil {
		return nil, err
	}
	if body.Found() {
		desc.Body = &body.Value
	}

	if leftover, ok := pool.Peek(); ok {
		return nil, usage(leftover.Location, leftover.String())
	}

	return desc, nil
}

func methodOf(arg annotations.Argument) (models.Method, bool) {
	if arg.Named() || arg.Kind != annotations.PathLiteral || len(arg.Path) != 1 {
		return "", false
	}
	return models.ParseMethod(arg.Path[0])
}

func stringOf(arg annotations.Argument) (string, bool) {
	if arg.Named() || arg.Kind != annotations.StringLiteral {
		return "", false
	}
	return arg.Text, true
}
