package lark

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/toyz/lark/internal/annotations"
	"github.com/toyz/lark/internal/descriptor"
	"github.com/toyz/lark/internal/models"
)

// Descriptor is the compiled form of an annotated request type
type Descriptor struct {
	Type     reflect.Type
	Method   string
	Address  string
	Response string
	Flatten  bool
	HasBody  bool
	Headers  []FieldInfo
	Paths    []FieldInfo
	Queries  []FieldInfo
}

// FieldInfo describes one header, path or query field
type FieldInfo struct {
	Field      string // Go field name
	WireName   string // name sent on the wire
	Prefix     string // prepended to present values
	Serializer string // serializer name, empty for Serialize
}

type compiledField struct {
	index     []int
	name      string
	prefix    string
	serialize func(reflect.Value) (string, bool)
}

func (f compiledField) value(rv reflect.Value) (string, bool) {
	s, ok := f.serialize(rv.FieldByIndex(f.index))
	if !ok {
		return "", false
	}
	return f.prefix + s, true
}

type compiledRequest struct {
	desc    *Descriptor
	headers []compiledField
	paths   []compiledField
	queries []compiledField
}

var registry = struct {
	sync.RWMutex
	byType map[reflect.Type]*compiledRequest
}{byType: make(map[reflect.Type]*compiledRequest)}

// Describe compiles (or fetches) the descriptor of v's type. v is an
// annotated struct or a pointer to one.
func Describe(v any) (*Descriptor, error) {
	c, err := compile(v)
	if err != nil {
		return nil, err
	}
	return c.desc, nil
}

// Register compiles the descriptors of the given values so annotation
// errors surface at startup instead of on the first call
func Register(values ...any) error {
	var errs annotations.MultipleAnnotationErrors
	for _, v := range values {
		if _, err := compile(v); err != nil {
			if annErr, ok := err.(annotations.AnnotationError); ok {
				errs.Add(annErr)
				continue
			}
			return err
		}
	}
	return errs.ErrorOrNil()
}

// MustRegister is like Register but panics on error
func MustRegister(values ...any) {
	if err := Register(values...); err != nil {
		panic(err)
	}
}

// Bind evaluates v against its compiled descriptor
func Bind[T any](v Annotated[T]) (Request[T], error) {
	c, err := compile(v)
	if err != nil {
		return nil, err
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, fmt.Errorf("lark: cannot bind a nil %s", rv.Type())
		}
		rv = rv.Elem()
	}
	if !rv.CanAddr() {
		addressable := reflect.New(rv.Type()).Elem()
		addressable.Set(rv)
		rv = addressable
	}

	return &boundRequest[T]{compiled: c, value: rv}, nil
}

func compile(v any) (*compiledRequest, error) {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("lark: %T is not an annotated struct", v)
	}

	registry.RLock()
	c, ok := registry.byType[t]
	registry.RUnlock()
	if ok {
		return c, nil
	}

	c, err := compileType(t)
	if err != nil {
		return nil, err
	}

	registry.Lock()
	defer registry.Unlock()
	if existing, ok := registry.byType[t]; ok {
		return existing, nil
	}
	registry.byType[t] = c
	return c, nil
}

func compileType(t reflect.Type) (*compiledRequest, error) {
	typeName := qualifiedName(t)

	endpoint, payload, ok := findEndpoint(t)
	if !ok {
		return nil, &annotations.DescriptorError{
			Target: typeName,
			Msg:    "struct does not embed lark.Endpoint",
			Loc:    annotations.SourceLocation{File: typeName},
			Hint:   "embed lark.Endpoint[Payload] and tag it with request:\"...\"",
		}
	}

	endpointName := typeName + "." + endpoint.Name
	req, err := descriptor.BuildRequest(endpointName, string(endpoint.Tag), annotations.SourceLocation{File: endpointName})
	if err != nil {
		return nil, err
	}

	if want := payloadName(payload); req.ResponseName() != want {
		return nil, &annotations.DescriptorError{
			Target:   endpointName,
			Argument: req.Response,
			Msg:      fmt.Sprintf("response does not name the Endpoint payload type %s", want),
			Loc:      req.Location,
			Hint:     fmt.Sprintf("write %s as the response argument", want),
		}
	}

	var sources []descriptor.FieldSource
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Index[0] == endpoint.Index[0] {
			continue
		}
		target := typeName + "." + f.Name
		sources = append(sources, descriptor.FieldSource{
			Target:   target,
			Name:     f.Name,
			Index:    f.Index,
			Type:     f.Type.String(),
			Tag:      string(f.Tag),
			Exported: f.IsExported(),
			Location: annotations.SourceLocation{File: target},
		})
	}

	fields, err := descriptor.BuildFields(sources)
	if err != nil {
		return nil, err
	}

	c := &compiledRequest{
		desc: &Descriptor{
			Type:     t,
			Method:   string(req.Method),
			Address:  req.Address,
			Response: req.Response,
			Flatten:  req.Flatten,
			HasBody:  req.HasBody(),
		},
	}

	var errs annotations.MultipleAnnotationErrors
	build := func(list []models.FieldDescriptor) ([]compiledField, []FieldInfo) {
		compiled := make([]compiledField, 0, len(list))
		infos := make([]FieldInfo, 0, len(list))
		for _, fd := range list {
			cf, err := compileField(t, fd)
			if err != nil {
				errs.Add(err)
				continue
			}
			compiled = append(compiled, cf)
			infos = append(infos, FieldInfo{
				Field:      fd.Name,
				WireName:   fd.WireName(),
				Prefix:     fd.Prefix,
				Serializer: fd.Serializer,
			})
		}
		return compiled, infos
	}

	c.headers, c.desc.Headers = build(fields.Headers)
	c.paths, c.desc.Paths = build(fields.Paths)
	c.queries, c.desc.Queries = build(fields.Queries)

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return c, nil
}

func compileField(t reflect.Type, fd models.FieldDescriptor) (compiledField, annotations.AnnotationError) {
	cf := compiledField{index: fd.Index, name: fd.WireName(), prefix: fd.Prefix}
	ft := t.FieldByIndex(fd.Index).Type

	if fd.Serializer != "" {
		fn, ok := LookupSerializer(fd.Serializer)
		if !ok {
			return cf, &annotations.DescriptorError{
				Target:   qualifiedName(t) + "." + fd.Name,
				Argument: fd.Serializer,
				Msg:      "unknown serializer",
				Loc:      fd.Location,
				Hint:     "register it with lark.RegisterSerializer before the first call",
			}
		}
		cf.serialize = func(rv reflect.Value) (string, bool) {
			return fn(rv.Interface())
		}
		return cf, nil
	}

	if !serializable(ft) {
		return cf, &annotations.DescriptorError{
			Target:   qualifiedName(t) + "." + fd.Name,
			Argument: ft.String(),
			Msg:      "unsupported field type",
			Loc:      fd.Location,
			Hint:     "use a scalar, a slice of scalars, a TextMarshaler or serialize_with",
		}
	}
	cf.serialize = serializeValue
	return cf, nil
}

func findEndpoint(t reflect.Type) (reflect.StructField, reflect.Type, bool) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.Anonymous {
			continue
		}
		ft := f.Type
		if ft.PkgPath() != endpointPkgPath || !strings.HasPrefix(ft.Name(), "Endpoint[") {
			continue
		}
		marker, ok := reflect.Zero(ft).Interface().(payloadTyped)
		if !ok {
			continue
		}
		return f, marker.payloadType(), true
	}
	return reflect.StructField{}, nil, false
}

var endpointPkgPath = reflect.TypeFor[Endpoint[struct{}]]().PkgPath()

// payloadName is the name the response argument must use for t
func payloadName(t reflect.Type) string {
	name := t.Name()
	if name == "" {
		return t.String()
	}
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	return name
}

func qualifiedName(t reflect.Type) string {
	pkg := t.PkgPath()
	if i := strings.LastIndexByte(pkg, '/'); i >= 0 {
		pkg = pkg[i+1:]
	}
	if pkg == "" {
		return t.Name()
	}
	return pkg + "." + t.Name()
}

// boundRequest implements Request by evaluating a compiled descriptor
type boundRequest[T any] struct {
	compiled *compiledRequest
	value    reflect.Value
}

func (r *boundRequest[T]) Method() string  { return r.compiled.desc.Method }
func (r *boundRequest[T]) Address() string { return r.compiled.desc.Address }

func (r *boundRequest[T]) Body() ([]byte, error) {
	if !r.compiled.desc.HasBody {
		return nil, nil
	}
	return json.Marshal(r.value.Addr().Interface())
}

func (r *boundRequest[T]) PathParams() map[string]string {
	if len(r.compiled.paths) == 0 {
		return nil
	}
	params := make(map[string]string, len(r.compiled.paths))
	for _, f := range r.compiled.paths {
		if s, ok := f.value(r.value); ok {
			params[f.name] = s
		}
	}
	return params
}

func (r *boundRequest[T]) QueryParams() []Param {
	return r.pairs(r.compiled.queries)
}

func (r *boundRequest[T]) Headers() []Param {
	return r.pairs(r.compiled.headers)
}

func (r *boundRequest[T]) pairs(fields []compiledField) []Param {
	if len(fields) == 0 {
		return nil
	}
	params := make([]Param, 0, len(fields))
	for _, f := range fields {
		if s, ok := f.value(r.value); ok {
			params = append(params, Param{Name: f.name, Value: s})
		}
	}
	return params
}

func (r *boundRequest[T]) Envelope() Response[T] {
	return NewEnvelope[T](r.compiled.desc.Flatten)
}

// target returns the annotated value for validation
func (r *boundRequest[T]) target() any {
	return r.value.Addr().Interface()
}
