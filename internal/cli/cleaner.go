package cli

import (
	"os"

	"github.com/toyz/lark/internal/utils"
)

// Cleaner handles cleaning up generated files
type Cleaner struct {
	fileProcessor *utils.FileProcessor
}

// NewCleaner creates a new cleaner
func NewCleaner() *Cleaner {
	return &Cleaner{
		fileProcessor: utils.NewFileProcessor(),
	}
}

// CleanGeneratedFiles removes every lark_requests_gen.go under the given
// patterns and returns the removed paths
func (c *Cleaner) CleanGeneratedFiles(patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}

	files, err := c.fileProcessor.FindFiles(patterns, utils.GeneratedFileFilter())
	if err != nil {
		return nil, err
	}

	removed := make([]string, 0, len(files))
	for _, file := range files {
		if err := os.Remove(file); err != nil {
			return removed, utils.WrapProcessError("file "+file, err)
		}
		removed = append(removed, file)
	}
	return removed, nil
}
