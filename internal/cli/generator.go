package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/toyz/lark/internal/generator"
	"github.com/toyz/lark/internal/models"
	"github.com/toyz/lark/internal/parser"
	"github.com/toyz/lark/internal/utils"
)

// Generator coordinates the CLI generation process
type Generator struct {
	scanner        *DirectoryScanner
	moduleResolver *ModuleResolver
	parser         parser.RequestParser
	codeGenerator  generator.CodeGenerator
	reporter       *DiagnosticReporter
	diagnostics    *utils.DiagnosticSystem
	summary        GenerationSummary
}

// NewGenerator creates a CLI generator resolving the module from the working directory
func NewGenerator(diagnostics *utils.DiagnosticSystem, reporter *DiagnosticReporter) *Generator {
	return NewGeneratorWithResolver(diagnostics, reporter, NewModuleResolver())
}

// NewGeneratorWithResolver creates a CLI generator with an explicit module resolver
func NewGeneratorWithResolver(diagnostics *utils.DiagnosticSystem, reporter *DiagnosticReporter, resolver *ModuleResolver) *Generator {
	return &Generator{
		scanner:        NewDirectoryScanner(),
		moduleResolver: resolver,
		parser:         parser.NewParser(),
		codeGenerator:  generator.NewGenerator(),
		reporter:       reporter,
		diagnostics:    diagnostics,
	}
}

// GetSummary returns the summary of the last run
func (g *Generator) GetSummary() GenerationSummary {
	return g.summary
}

// Run generates lark_requests_gen.go for every package with request structs.
// In check mode nothing is written and stale files are reported.
func (g *Generator) Run(config Config) error {
	startTime := time.Now()
	g.summary = GenerationSummary{}

	packages, err := g.collect(config)
	if err != nil {
		return err
	}

	g.diagnostics.StartProgress("Generating request files")
	for _, metadata := range packages {
		if len(metadata.Requests) == 0 {
			if err := g.removeStale(metadata.PackagePath, config.Check); err != nil {
				g.diagnostics.EndProgress("Generating request files", false)
				return err
			}
			continue
		}
		if err := g.generatePackage(metadata, config.Check); err != nil {
			g.diagnostics.EndProgress("Generating request files", false)
			g.reporter.ReportError(err)
			return fmt.Errorf("package %s: %w", metadata.PackagePath, err)
		}
	}
	g.diagnostics.EndProgress("Generating request files", true)
	g.diagnostics.Debug("Generation took %s", time.Since(startTime))

	if config.Check && len(g.summary.StaleFiles) > 0 {
		return &models.GeneratorError{
			Type:    models.ErrorTypeValidation,
			Message: fmt.Sprintf("%d generated files are out of date", len(g.summary.StaleFiles)),
			Suggestions: []string{
				"Run larkgen generate and commit the result",
			},
		}
	}
	return nil
}

// Inspect parses the configured packages and returns those with request structs
func (g *Generator) Inspect(config Config) ([]*models.PackageMetadata, error) {
	g.summary = GenerationSummary{}

	packages, err := g.collect(config)
	if err != nil {
		return nil, err
	}

	var result []*models.PackageMetadata
	for _, metadata := range packages {
		if len(metadata.Requests) > 0 {
			result = append(result, metadata)
		}
	}
	return result, nil
}

// collect resolves the module, scans the directories and parses every
// package. Each failing package is reported before the run fails.
func (g *Generator) collect(config Config) ([]*models.PackageMetadata, error) {
	g.diagnostics.Debug("Scanning directories: %v", config.Directories)

	g.diagnostics.StartProgress("Resolving module name")
	moduleName, err := g.moduleResolver.ResolveModuleName(config.ModuleName)
	if err != nil {
		g.diagnostics.EndProgress("Resolving module name", false)
		g.diagnostics.Warn("%v; import paths will not be reported", err)
		moduleName = ""
	} else {
		g.diagnostics.EndProgress("Resolving module name", true)
		g.diagnostics.Debug("Resolved module name: %s", moduleName)
	}

	g.diagnostics.StartProgress("Scanning directories for Go packages")
	dirs, err := g.scanner.ScanDirectories(config.Directories)
	if err != nil {
		g.diagnostics.EndProgress("Scanning directories for Go packages", false)
		return nil, &models.GeneratorError{
			Type:    models.ErrorTypeFileSystem,
			Message: fmt.Sprintf("failed to scan directories: %v", err),
			Suggestions: []string{
				"Check that the directories exist and are readable",
				"Use ./... to scan the current module recursively",
			},
			Cause: err,
		}
	}
	g.diagnostics.EndProgress("Scanning directories for Go packages", true)
	g.diagnostics.Verbose("Found %d package directories", len(dirs))

	var packages []*models.PackageMetadata
	var failures []error
	for _, dir := range dirs {
		metadata, err := g.parser.ParseDirectory(dir)
		if err != nil {
			g.reporter.ReportError(err)
			failures = append(failures, err)
			continue
		}
		g.summary.PackagesProcessed++
		g.summary.RequestsFound += len(metadata.Requests)

		if moduleName != "" {
			importPath, err := g.moduleResolver.BuildPackagePath(moduleName, dir)
			if err != nil {
				g.diagnostics.Debug("No import path for %s: %v", dir, err)
			} else {
				metadata.ImportPath = importPath
			}
		}
		if len(metadata.Requests) > 0 {
			g.diagnostics.Verbose("%s: %d requests", displayPath(dir), len(metadata.Requests))
		}
		packages = append(packages, metadata)
	}

	if len(failures) > 0 {
		return nil, fmt.Errorf("%d of %d packages failed to parse: %w", len(failures), len(dirs), errors.Join(failures...))
	}
	return packages, nil
}

func (g *Generator) generatePackage(metadata *models.PackageMetadata, check bool) error {
	file, err := g.codeGenerator.GenerateFile(metadata)
	if err != nil {
		return err
	}

	existing, err := os.ReadFile(file.FilePath)
	if err == nil && string(existing) == file.Content {
		g.summary.UnchangedFiles = append(g.summary.UnchangedFiles, file.FilePath)
		g.diagnostics.Verbose("%s is up to date", displayPath(file.FilePath))
		return nil
	}

	if check {
		g.summary.StaleFiles = append(g.summary.StaleFiles, file.FilePath)
		g.diagnostics.Warn("%s is out of date", displayPath(file.FilePath))
		return nil
	}

	if err := g.codeGenerator.WriteFile(file); err != nil {
		return err
	}
	g.summary.GeneratedFiles = append(g.summary.GeneratedFiles, file.FilePath)
	return nil
}

// removeStale deletes the generated file of a package that no longer declares requests
func (g *Generator) removeStale(dir string, check bool) error {
	path := filepath.Join(dir, utils.GeneratedFileName)
	if _, err := os.Stat(path); err != nil {
		return nil
	}

	if check {
		g.summary.StaleFiles = append(g.summary.StaleFiles, path)
		g.diagnostics.Warn("%s declares no requests", displayPath(path))
		return nil
	}

	if err := os.Remove(path); err != nil {
		return &models.GeneratorError{
			Type:    models.ErrorTypeFileSystem,
			File:    path,
			Message: fmt.Sprintf("failed to remove stale generated file: %v", err),
			Cause:   err,
		}
	}
	g.summary.RemovedFiles = append(g.summary.RemovedFiles, path)
	return nil
}

// displayPath shortens path relative to the working directory when possible
func displayPath(path string) string {
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	if rel, err := filepath.Rel(wd, path); err == nil && !filepath.IsAbs(rel) && len(rel) < len(path) {
		return rel
	}
	return path
}
