package generator

import "github.com/toyz/lark/internal/models"

// CodeGenerator renders and writes the Request implementations of a package
type CodeGenerator interface {
	GenerateFile(metadata *models.PackageMetadata) (*models.GeneratedFile, error)
	WriteFile(file *models.GeneratedFile) error
}
