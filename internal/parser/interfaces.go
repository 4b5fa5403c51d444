package parser

import (
	"go/ast"

	"github.com/toyz/lark/internal/models"
)

// RequestParser defines the interface for parsing Go source files and extracting request metadata
type RequestParser interface {
	ParseDirectory(path string) (*models.PackageMetadata, error)
	ExtractRequests(file *ast.File, fileName string) ([]models.RequestMetadata, error)
}
