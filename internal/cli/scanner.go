package cli

import (
	"github.com/toyz/lark/internal/utils"
)

// DirectoryScanner finds the package directories to generate for
type DirectoryScanner struct {
	fileProcessor *utils.FileProcessor
}

// NewDirectoryScanner creates a new directory scanner
func NewDirectoryScanner() *DirectoryScanner {
	return &DirectoryScanner{
		fileProcessor: utils.NewFileProcessor(),
	}
}

// ScanDirectories returns the absolute paths of the directories holding Go
// files. Patterns ending in /... are scanned recursively.
func (s *DirectoryScanner) ScanDirectories(patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}
	return s.fileProcessor.ScanDirectoriesWithGoFiles(patterns)
}
