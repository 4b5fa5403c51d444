package templates

import (
	"fmt"
	"path"
	"sort"
	"strings"
)

// ImportManager collects the imports of a generated file
type ImportManager struct {
	standardImports map[string]bool
	packageImports  map[string]string // path -> alias, empty alias for the package name
}

// NewImportManager creates a new import manager
func NewImportManager() *ImportManager {
	return &ImportManager{
		standardImports: make(map[string]bool),
		packageImports:  make(map[string]string),
	}
}

// AddImport adds a standard library import
func (im *ImportManager) AddImport(importPath string) {
	if importPath != "" {
		im.standardImports[importPath] = true
	}
}

// AddPackageImport adds a third-party import. An alias equal to the last
// path element is dropped.
func (im *ImportManager) AddPackageImport(alias, importPath string) {
	if importPath == "" {
		return
	}
	if _, exists := im.packageImports[importPath]; exists {
		return
	}
	if alias == path.Base(importPath) {
		alias = ""
	}
	im.packageImports[importPath] = alias
}

// GenerateImports renders the import section, standard library first
func (im *ImportManager) GenerateImports() string {
	var std []string
	for imp := range im.standardImports {
		std = append(std, fmt.Sprintf("%q", imp))
	}
	sort.Strings(std)

	paths := make([]string, 0, len(im.packageImports))
	for p := range im.packageImports {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var pkgs []string
	for _, p := range paths {
		if alias := im.packageImports[p]; alias != "" {
			pkgs = append(pkgs, fmt.Sprintf("%s %q", alias, p))
		} else {
			pkgs = append(pkgs, fmt.Sprintf("%q", p))
		}
	}

	switch len(std) + len(pkgs) {
	case 0:
		return ""
	case 1:
		return fmt.Sprintf("import %s\n", append(std, pkgs...)[0])
	}

	var result strings.Builder
	result.WriteString("import (\n")
	for _, imp := range std {
		result.WriteString("\t" + imp + "\n")
	}
	if len(std) > 0 && len(pkgs) > 0 {
		result.WriteString("\n")
	}
	for _, imp := range pkgs {
		result.WriteString("\t" + imp + "\n")
	}
	result.WriteString(")\n")

	return result.String()
}
