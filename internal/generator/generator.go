package generator

import (
	"fmt"
	"path/filepath"

	"github.com/toyz/lark/internal/models"
	"github.com/toyz/lark/internal/templates"
	"github.com/toyz/lark/internal/utils"
)

// Generator implements the CodeGenerator interface
type Generator struct {
	templates *templates.TemplateRegistry
}

// NewGenerator creates a new code generator instance
func NewGenerator() *Generator {
	return &Generator{
		templates: templates.NewTemplateRegistry(),
	}
}

// NewGeneratorWithTemplates creates a code generator rendering the given templates
func NewGeneratorWithTemplates(registry *templates.TemplateRegistry) *Generator {
	return &Generator{templates: registry}
}

// GenerateFile renders the formatted lark_requests_gen.go of a package
func (g *Generator) GenerateFile(metadata *models.PackageMetadata) (*models.GeneratedFile, error) {
	if metadata == nil {
		return nil, fmt.Errorf("metadata cannot be nil")
	}
	if len(metadata.Requests) == 0 {
		return nil, fmt.Errorf("package %s has no annotated requests", metadata.PackageName)
	}

	filePath := filepath.Join(metadata.PackagePath, utils.GeneratedFileName)

	content, err := templates.GenerateRequestFileWithRegistry(metadata, g.templates)
	if err != nil {
		return nil, &models.GeneratorError{
			Type:    models.ErrorTypeGeneration,
			File:    filePath,
			Message: fmt.Sprintf("failed to render requests: %v", err),
			Cause:   err,
		}
	}

	formatted, err := utils.FormatGoCodeString(filePath, content)
	if err != nil {
		return nil, &models.GeneratorError{
			Type:    models.ErrorTypeGeneration,
			File:    filePath,
			Message: fmt.Sprintf("generated code does not compile: %v", err),
			Suggestions: []string{
				"Check that the Endpoint payload type is a valid type expression",
			},
			Cause: err,
		}
	}

	requests := make([]string, len(metadata.Requests))
	for i, req := range metadata.Requests {
		requests[i] = req.TypeName
	}

	return &models.GeneratedFile{
		PackageName: metadata.PackageName,
		FilePath:    filePath,
		Content:     formatted,
		Requests:    requests,
	}, nil
}

// WriteFile writes a generated file, replacing the previous one
func (g *Generator) WriteFile(file *models.GeneratedFile) error {
	if file == nil {
		return fmt.Errorf("file cannot be nil")
	}
	if err := utils.FormatAndWriteGoFile(file.FilePath, file.Content); err != nil {
		return &models.GeneratorError{
			Type:    models.ErrorTypeFileSystem,
			File:    file.FilePath,
			Message: fmt.Sprintf("failed to write generated file: %v", err),
			Suggestions: []string{
				"Check write permissions of the package directory",
			},
			Cause: err,
		}
	}
	return nil
}
