package templates

import (
	"bytes"
	"fmt"
	"strconv"
	"text/template"

	"github.com/toyz/lark/internal/models"
	"github.com/toyz/lark/internal/utils"
)

// LarkImportPath is the import path of the runtime package generated code calls into
const LarkImportPath = "github.com/toyz/lark/pkg/lark"

// FileTemplateData is the data of a generated file
type FileTemplateData struct {
	PackageName string
	Imports     string
	Requests    []RequestTemplateData
}

// RequestTemplateData is the data of one request implementation
type RequestTemplateData struct {
	TypeName string
	Lark     string // local name of the runtime package
	Payload  string
	Method   string
	Address  string
	Flatten  bool
	HasBody  bool
	Headers  []FieldTemplateData
	Paths    []FieldTemplateData
	Queries  []FieldTemplateData
}

// FieldTemplateData is one header, path or query field
type FieldTemplateData struct {
	Name       string
	WireName   string
	Prefix     string
	Serializer string
}

// ParamsTemplateData feeds the "params" template shared by QueryParams and Headers
type ParamsTemplateData struct {
	Request RequestTemplateData
	Method  string
	Fields  []FieldTemplateData
}

var funcs = template.FuncMap{
	"quote": strconv.Quote,
	"params": func(req RequestTemplateData, method string, fields []FieldTemplateData) ParamsTemplateData {
		return ParamsTemplateData{Request: req, Method: method, Fields: fields}
	},
	"serialize": serializeCall,
	"prefixed":  prefixed,
}

// serializeCall renders the expression producing (string, bool) for a field
func serializeCall(lark string, f FieldTemplateData) string {
	if f.Serializer != "" {
		return fmt.Sprintf("%s.SerializeWith(%s, r.%s)", lark, strconv.Quote(f.Serializer), f.Name)
	}
	return fmt.Sprintf("%s.Serialize(r.%s)", lark, f.Name)
}

func prefixed(f FieldTemplateData) string {
	if f.Prefix == "" {
		return "v"
	}
	return strconv.Quote(f.Prefix) + " + v"
}

// NewRequestTemplateData converts request metadata into template data
func NewRequestTemplateData(req models.RequestMetadata, larkAlias string) RequestTemplateData {
	return RequestTemplateData{
		TypeName: req.TypeName,
		Lark:     larkAlias,
		Payload:  req.Payload,
		Method:   string(req.Descriptor.Method),
		Address:  req.Descriptor.Address,
		Flatten:  req.Descriptor.Flatten,
		HasBody:  req.Descriptor.HasBody(),
		Headers:  convertFields(req.Fields.Headers),
		Paths:    convertFields(req.Fields.Paths),
		Queries:  convertFields(req.Fields.Queries),
	}
}

func convertFields(fields []models.FieldDescriptor) []FieldTemplateData {
	result := make([]FieldTemplateData, 0, len(fields))
	for _, f := range fields {
		result = append(result, FieldTemplateData{
			Name:       f.Name,
			WireName:   f.WireName(),
			Prefix:     f.Prefix,
			Serializer: f.Serializer,
		})
	}
	return result
}

// GenerateRequestFile renders the Request implementations of every
// annotated struct of a package. The result is not formatted.
func GenerateRequestFile(metadata *models.PackageMetadata) (string, error) {
	return GenerateRequestFileWithRegistry(metadata, NewTemplateRegistry())
}

// GenerateRequestFileWithRegistry is GenerateRequestFile with explicit templates
func GenerateRequestFileWithRegistry(metadata *models.PackageMetadata, registry *TemplateRegistry) (string, error) {
	if metadata == nil {
		return "", fmt.Errorf("metadata cannot be nil")
	}

	alias := metadata.LarkAlias
	if alias == "" {
		alias = "lark"
	}

	imports := NewImportManager()
	imports.AddPackageImport(alias, LarkImportPath)
	for _, imp := range metadata.Imports() {
		imports.AddPackageImport(imp.Alias, imp.Path)
	}

	data := FileTemplateData{PackageName: metadata.PackageName}
	for _, req := range metadata.Requests {
		if req.Descriptor == nil {
			return "", fmt.Errorf("request %s has no descriptor", req.TypeName)
		}
		reqData := NewRequestTemplateData(req, alias)
		if reqData.HasBody {
			imports.AddImport("encoding/json")
		}
		data.Requests = append(data.Requests, reqData)
	}
	data.Imports = imports.GenerateImports()

	tmpl := template.New("larkgen").Funcs(funcs)
	for _, name := range []string{"file", "request", "path-params", "params"} {
		if _, err := tmpl.New(name).Parse(registry.MustGet(name)); err != nil {
			return "", utils.WrapParseError("template "+name, err)
		}
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "file", data); err != nil {
		return "", utils.WrapGenerateError("request file", err)
	}
	return buf.String(), nil
}
