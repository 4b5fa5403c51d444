package descriptor

import (
	"github.com/toyz/lark/internal/annotations"
	"github.com/toyz/lark/internal/models"
)

// FieldSource is a struct field as seen by reflection or by the source parser
type FieldSource struct {
	Target   string                     // qualified name used in messages, e.g. api.GetUser.ID
	Name     string                     // Go field name
	Index    []int                      // reflect index, nil for parsed sources
	Type     string                     // Go type expression
	Tag      string                     // raw struct tag
	Exported bool                       // whether the field is exported
	Location annotations.SourceLocation // location of the first byte of the tag
}

// BuildFields compiles the annotations of every field and groups the
// annotated ones by role. Every malformed field is reported.
func BuildFields(fields []FieldSource) (models.FieldSet, error) {
	var set models.FieldSet
	var errs annotations.MultipleAnnotationErrors

	for _, field := range fields {
		desc, err := BuildField(field)
		if err != nil {
			if annErr, ok := err.(annotations.AnnotationError); ok {
				errs.Add(annErr)
				continue
			}
			return set, err
		}
		if desc != nil {
			set.Add(*desc)
		}
	}

	return set, errs.ErrorOrNil()
}

// BuildField compiles the annotation of one field. It returns nil when the
// field carries no request tag.
func BuildField(field FieldSource) (*models.FieldDescriptor, error) {
	found, err := Lookup(field.Target, field.Tag, field.Location)
	if err != nil || len(found) == 0 {
		return nil, err
	}
	if err := single(field.Target, found); err != nil {
		return nil, err
	}

	desc, err := CompileField(field, found[0])
	if err != nil {
		return nil, err
	}

	if !field.Exported {
		return nil, &annotations.DescriptorError{
			Target: field.Target,
			Msg:    "annotated field must be exported",
			Loc:    found[0].Location,
			Hint:   "rename the field so it starts with an upper case letter and hide it from JSON with json:\"-\"",
		}
	}

	return desc, nil
}

// CompileField compiles one field annotation value
func CompileField(field FieldSource, a Annotation) (*models.FieldDescriptor, error) {
	args, err := annotations.ParseArguments(a.Value, a.Location)
	if err != nil {
		return nil, err
	}

	pool := annotations.NewPool(args)
	desc := &models.FieldDescriptor{
		Name:     field.Name,
		Index:    field.Index,
		Type:     field.Type,
		Location: a.Location,
	}

	assigned := false
	for _, role := range models.Roles {
		m, err := pool.TakeFlagOrString(role.String())
		if err != nil {
			return nil, err
		}
		if !m.Found() {
			continue
		}
		// role = false is consumed but sends nothing
		if !m.Value.Flag {
			continue
		}
		desc.Role = role
		if m.Value.HasText {
			desc.Rename = m.Value.Text
		}
		assigned = true
		break
	}

	rename, err := pool.TakeString("rename")
	if err != nil {
		return nil, err
	}
	if rename.Found() {
		desc.Rename = rename.Value
	}

	serializer, err := pool.TakeString("serialize_with")
	if err != nil {
		return nil, err
	}
	desc.Serializer = serializer.Value

	prefix, err := pool.TakeString("with")
	if err != nil {
		return nil, err
	}
	desc.Prefix = prefix.Value

	if leftover, ok := pool.Peek(); ok {
		return nil, &annotations.DescriptorError{
			Target:   field.Target,
			Argument: leftover.String(),
			Msg:      "invalid attribute",
			Loc:      leftover.Location,
			Hint:     annotations.FieldSchema.Hint(),
		}
	}

	if !assigned {
		return nil, &annotations.DescriptorError{
			Target: field.Target,
			Msg:    "missing attribute",
			Loc:    a.Location,
			Hint:   "add one of header, path or query",
		}
	}

	return desc, nil
}
