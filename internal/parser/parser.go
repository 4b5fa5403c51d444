package parser

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/toyz/lark/internal/annotations"
	"github.com/toyz/lark/internal/descriptor"
	"github.com/toyz/lark/internal/models"
	"github.com/toyz/lark/internal/utils"
)

// Parser implements the RequestParser interface
type Parser struct {
	fileSet *token.FileSet
}

// NewParser creates a new request parser
func NewParser() *Parser {
	return &Parser{
		fileSet: token.NewFileSet(),
	}
}

// ParseSource parses source code from a string for testing purposes
func (p *Parser) ParseSource(filename, source string) (*models.PackageMetadata, error) {
	file, err := parser.ParseFile(p.fileSet, filename, source, parser.ParseComments)
	if err != nil {
		return nil, utils.WrapParseError("source", err)
	}

	metadata := &models.PackageMetadata{
		PackageName: file.Name.Name,
		PackagePath: "./",
		LarkAlias:   DefaultLarkAlias,
	}

	requests, err := p.ExtractRequests(file, filename)
	if err != nil {
		return nil, err
	}
	metadata.Requests = requests
	if alias, ok := larkAlias(file); ok {
		metadata.LarkAlias = alias
	}

	return metadata, nil
}

// ParseDirectory parses the Go files of one directory, skipping tests and
// previously generated files, and extracts every annotated request
func (p *Parser) ParseDirectory(path string) (*models.PackageMetadata, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", path, err)
	}

	isSource := utils.DefaultGoFileFilter()
	var names []string
	for _, entry := range entries {
		if isSource(filepath.Join(path, entry.Name()), entry) {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	if len(names) == 0 {
		return nil, fmt.Errorf("no Go packages found in directory %s", path)
	}

	metadata := &models.PackageMetadata{
		PackagePath: path,
		LarkAlias:   DefaultLarkAlias,
	}

	var errs annotations.MultipleAnnotationErrors
	aliasSet := false
	for _, name := range names {
		fileName := filepath.Join(path, name)
		file, err := parser.ParseFile(p.fileSet, fileName, nil, parser.ParseComments)
		if err != nil {
			return nil, &models.GeneratorError{
				Type:    models.ErrorTypeAnnotationSyntax,
				File:    fileName,
				Message: fmt.Sprintf("failed to parse Go file: %v", err),
				Suggestions: []string{
					"Check for syntax errors in Go files",
				},
				Cause: err,
			}
		}

		if metadata.PackageName == "" {
			metadata.PackageName = file.Name.Name
		} else if metadata.PackageName != file.Name.Name {
			return nil, fmt.Errorf("multiple packages found in directory %s", path)
		}

		requests, err := p.extractRequests(file, fileName)
		if err != nil {
			if annErr, ok := err.(annotations.AnnotationError); ok {
				errs.Add(annErr)
				continue
			}
			return nil, err
		}
		if len(requests) > 0 && !aliasSet {
			metadata.LarkAlias, _ = larkAlias(file)
			aliasSet = true
		}
		metadata.Requests = append(metadata.Requests, requests...)
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, ReportAnnotationErrors(&errs)
	}
	return metadata, nil
}

// ExtractRequests finds the structs of file embedding lark.Endpoint and
// compiles their annotations. Every malformed annotation is reported.
func (p *Parser) ExtractRequests(file *ast.File, fileName string) ([]models.RequestMetadata, error) {
	requests, err := p.extractRequests(file, fileName)
	if err != nil {
		if multi, ok := err.(*annotations.MultipleAnnotationErrors); ok {
			return nil, ReportAnnotationErrors(multi)
		}
		if annErr, ok := err.(annotations.AnnotationError); ok {
			var errs annotations.MultipleAnnotationErrors
			errs.Add(annErr)
			return nil, ReportAnnotationErrors(&errs)
		}
		return nil, err
	}
	return requests, nil
}

func (p *Parser) extractRequests(file *ast.File, fileName string) ([]models.RequestMetadata, error) {
	alias, ok := larkAlias(file)
	if !ok {
		return nil, nil
	}
	imports := fileImports(file)

	var requests []models.RequestMetadata
	var errs annotations.MultipleAnnotationErrors

	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, spec := range gen.Specs {
			typeSpec, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			structType, ok := typeSpec.Type.(*ast.StructType)
			if !ok {
				continue
			}
			endpoint, payload := findEndpoint(structType, alias)
			if endpoint == nil {
				continue
			}

			req, err := p.buildRequest(fileName, typeSpec, structType, endpoint, payload, imports)
			if err != nil {
				if annErr, ok := err.(annotations.AnnotationError); ok {
					errs.Add(annErr)
					continue
				}
				return nil, err
			}
			requests = append(requests, *req)
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return requests, nil
}

func (p *Parser) buildRequest(fileName string, typeSpec *ast.TypeSpec, structType *ast.StructType, endpoint *ast.Field, payload ast.Expr, imports map[string]models.Import) (*models.RequestMetadata, error) {
	typeName := typeSpec.Name.Name
	declPos := p.fileSet.Position(typeSpec.Pos())

	if typeSpec.TypeParams != nil && len(typeSpec.TypeParams.List) > 0 {
		return nil, &annotations.DescriptorError{
			Target: typeName,
			Msg:    "generic request types are not supported",
			Loc:    annotations.SourceLocation{File: fileName, Line: declPos.Line, Column: declPos.Column},
			Hint:   "declare a concrete struct per payload type",
		}
	}

	tag, tagLoc := p.tagOf(fileName, endpoint)
	if endpoint.Tag == nil {
		tagLoc = p.location(fileName, endpoint.Pos())
	}

	desc, err := descriptor.BuildRequest(typeName, tag, tagLoc)
	if err != nil {
		return nil, err
	}

	payloadExpr := types.ExprString(payload)
	if want := payloadName(payloadExpr); desc.ResponseName() != want {
		return nil, &annotations.DescriptorError{
			Target:   typeName,
			Argument: desc.Response,
			Msg:      fmt.Sprintf("response does not name the Endpoint payload type %s", want),
			Loc:      desc.Location,
			Hint:     fmt.Sprintf("write %s as the response argument", want),
		}
	}

	var sources []descriptor.FieldSource
	var errs annotations.MultipleAnnotationErrors
	for _, field := range structType.Fields.List {
		if field == endpoint {
			continue
		}
		fieldTag, loc := p.tagOf(fileName, field)
		typeExpr := types.ExprString(field.Type)

		names := make([]string, 0, len(field.Names))
		for _, name := range field.Names {
			names = append(names, name.Name)
		}
		if len(names) == 0 {
			names = append(names, embeddedName(field.Type))
		}

		for _, name := range names {
			if reservedFields[name] {
				errs.Add(&annotations.DescriptorError{
					Target: typeName + "." + name,
					Msg:    "field name collides with a generated Request method",
					Loc:    p.location(fileName, field.Pos()),
					Hint:   "rename the field and keep the wire name with a json tag or rename",
				})
				continue
			}
			if fieldTag == "" {
				continue
			}
			sources = append(sources, descriptor.FieldSource{
				Target:   typeName + "." + name,
				Name:     name,
				Type:     typeExpr,
				Tag:      fieldTag,
				Exported: ast.IsExported(name),
				Location: loc,
			})
		}
	}

	fields, err := descriptor.BuildFields(sources)
	if err != nil {
		if annErr, ok := err.(annotations.AnnotationError); ok {
			errs.Add(annErr)
		} else {
			return nil, err
		}
	}
	for _, fd := range fields.All() {
		if fd.Serializer == "" && !supportedType(fieldType(structType, fd.Name)) {
			errs.Add(&annotations.DescriptorError{
				Target:   typeName + "." + fd.Name,
				Argument: fd.Type,
				Msg:      "unsupported field type",
				Loc:      fd.Location,
				Hint:     "use a scalar, a slice of scalars, a TextMarshaler or serialize_with",
			})
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}

	return &models.RequestMetadata{
		TypeName:   typeName,
		Payload:    payloadExpr,
		Imports:    referencedImports(payload, imports),
		Descriptor: desc,
		Fields:     fields,
		FileName:   fileName,
		Line:       declPos.Line,
	}, nil
}

// tagOf returns the unquoted struct tag of field and the location of its
// first character
func (p *Parser) tagOf(fileName string, field *ast.Field) (string, annotations.SourceLocation) {
	if field.Tag == nil {
		return "", annotations.SourceLocation{}
	}
	tag, err := strconv.Unquote(field.Tag.Value)
	if err != nil {
		return "", annotations.SourceLocation{}
	}
	// skip the opening quote
	return tag, p.location(fileName, field.Tag.Pos()).At(1)
}

func (p *Parser) location(fileName string, pos token.Pos) annotations.SourceLocation {
	position := p.fileSet.Position(pos)
	return annotations.SourceLocation{
		File:   fileName,
		Line:   position.Line,
		Column: position.Column,
	}
}

// larkAlias returns the local name of the runtime import of file
func larkAlias(file *ast.File) (string, bool) {
	for _, imp := range file.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil || path != LarkImportPath {
			continue
		}
		if imp.Name != nil {
			if imp.Name.Name == "_" || imp.Name.Name == "." {
				return "", false
			}
			return imp.Name.Name, true
		}
		return DefaultLarkAlias, true
	}
	return "", false
}

// fileImports maps local package names to imports
func fileImports(file *ast.File) map[string]models.Import {
	imports := make(map[string]models.Import, len(file.Imports))
	for _, imp := range file.Imports {
		path, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		if imp.Name != nil {
			imports[imp.Name.Name] = models.Import{Alias: imp.Name.Name, Path: path}
			continue
		}
		imports[filepath.Base(path)] = models.Import{Path: path}
	}
	return imports
}

// findEndpoint returns the embedded <alias>.Endpoint[T] field and T
func findEndpoint(st *ast.StructType, alias string) (*ast.Field, ast.Expr) {
	for _, field := range st.Fields.List {
		if len(field.Names) != 0 {
			continue
		}
		index, ok := field.Type.(*ast.IndexExpr)
		if !ok {
			continue
		}
		sel, ok := index.X.(*ast.SelectorExpr)
		if !ok || sel.Sel.Name != EndpointType {
			continue
		}
		if pkg, ok := sel.X.(*ast.Ident); ok && pkg.Name == alias {
			return field, index.Index
		}
	}
	return nil, nil
}

// referencedImports returns the imports the qualifiers of expr refer to
func referencedImports(expr ast.Expr, imports map[string]models.Import) []models.Import {
	var refs []models.Import
	seen := make(map[string]bool)
	ast.Inspect(expr, func(n ast.Node) bool {
		sel, ok := n.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		if pkg, ok := sel.X.(*ast.Ident); ok {
			if imp, ok := imports[pkg.Name]; ok && !seen[imp.Path] {
				seen[imp.Path] = true
				refs = append(refs, imp)
			}
		}
		return false
	})
	return refs
}

// payloadName strips qualifiers and type arguments from a type expression
func payloadName(expr string) string {
	expr = strings.TrimLeft(expr, "*")
	if i := strings.IndexByte(expr, '['); i >= 0 {
		expr = expr[:i]
	}
	if i := strings.LastIndexByte(expr, '.'); i >= 0 {
		expr = expr[i+1:]
	}
	return expr
}

func embeddedName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return embeddedName(t.X)
	case *ast.SelectorExpr:
		return t.Sel.Name
	case *ast.IndexExpr:
		return embeddedName(t.X)
	case *ast.IndexListExpr:
		return embeddedName(t.X)
	case *ast.Ident:
		return t.Name
	default:
		return types.ExprString(expr)
	}
}

func fieldType(st *ast.StructType, name string) ast.Expr {
	for _, field := range st.Fields.List {
		for _, n := range field.Names {
			if n.Name == name {
				return field.Type
			}
		}
		if len(field.Names) == 0 && embeddedName(field.Type) == name {
			return field.Type
		}
	}
	return nil
}

// supportedType rejects the type expressions Serialize can never render.
// Named types are accepted; their method sets are only known at run time.
func supportedType(expr ast.Expr) bool {
	switch t := expr.(type) {
	case nil:
		return false
	case *ast.MapType, *ast.FuncType, *ast.ChanType, *ast.StructType:
		return false
	case *ast.StarExpr:
		return supportedType(t.X)
	case *ast.ArrayType:
		return supportedType(t.Elt)
	case *ast.InterfaceType:
		return true
	default:
		return true
	}
}
