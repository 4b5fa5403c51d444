package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/toyz/lark/internal/utils"
)

// ModuleResolver handles resolving Go module information
type ModuleResolver struct {
	goMod   *utils.GoModParser
	workDir string
	root    string
}

// NewModuleResolver creates a module resolver starting from the working directory
func NewModuleResolver() *ModuleResolver {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return NewModuleResolverAt(wd)
}

// NewModuleResolverAt creates a module resolver starting from dir
func NewModuleResolverAt(dir string) *ModuleResolver {
	return &ModuleResolver{
		goMod:   utils.NewGoModParser(),
		workDir: dir,
	}
}

// ResolveModuleName returns customModule when set, otherwise the module
// declared by the closest go.mod above the working directory
func (r *ModuleResolver) ResolveModuleName(customModule string) (string, error) {
	if customModule != "" {
		r.root = r.workDir
		return customModule, nil
	}

	goModPath, err := r.goMod.FindGoModFile(r.workDir)
	if err != nil {
		return "", fmt.Errorf("failed to determine module name: %w (consider using --module flag)", err)
	}

	moduleName, err := r.goMod.ParseModuleName(goModPath)
	if err != nil {
		return "", fmt.Errorf("failed to determine module name: %w", err)
	}

	r.root = filepath.Dir(goModPath)
	return moduleName, nil
}

// BuildPackagePath builds the import path of a package directory. Paths are
// relative to the module root found by ResolveModuleName.
func (r *ModuleResolver) BuildPackagePath(moduleName, packageDir string) (string, error) {
	root := r.root
	if root == "" {
		root = r.workDir
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve module root: %w", err)
	}
	absPackageDir, err := filepath.Abs(packageDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve package directory: %w", err)
	}

	relPath, err := filepath.Rel(absRoot, absPackageDir)
	if err != nil {
		return "", fmt.Errorf("failed to calculate relative path: %w", err)
	}

	importPath := filepath.ToSlash(relPath)
	if importPath == ".." || strings.HasPrefix(importPath, "../") {
		return "", fmt.Errorf("package %s is outside module %s", packageDir, moduleName)
	}
	if importPath == "." {
		return moduleName, nil
	}

	return moduleName + "/" + importPath, nil
}
