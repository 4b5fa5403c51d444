package models

// PackageMetadata represents all annotated requests found in a package
type PackageMetadata struct {
	PackageName string            // name of the Go package
	PackagePath string            // file system path to the package
	ImportPath  string            // import path, empty when the module is unknown
	LarkAlias   string            // local name of the lark runtime import, "lark" by default
	Requests    []RequestMetadata // annotated request structs in source order
}

// RequestMetadata is one annotated request struct
type RequestMetadata struct {
	TypeName   string             // name of the struct
	Payload    string             // type argument of the embedded Endpoint as written
	Imports    []Import           // imports the payload expression refers to
	Descriptor *RequestDescriptor // compiled container annotation
	Fields     FieldSet           // compiled field annotations
	FileName   string             // file declaring the struct
	Line       int                // line of the struct declaration
}

// Import is an import declaration of a source file
type Import struct {
	Alias string // local name, empty when the package name is used
	Path  string // import path
}

// Imports merges the imports of every request, first declaration wins
func (m *PackageMetadata) Imports() []Import {
	seen := make(map[string]bool)
	var imports []Import
	for _, req := range m.Requests {
		for _, imp := range req.Imports {
			if seen[imp.Path] {
				continue
			}
			seen[imp.Path] = true
			imports = append(imports, imp)
		}
	}
	return imports
}
