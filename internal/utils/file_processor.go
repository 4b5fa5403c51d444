package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// GeneratedFileName is the file larkgen writes in every package with requests
const GeneratedFileName = "lark_requests_gen.go"

// FileProcessor provides utilities for common file processing operations
type FileProcessor struct {
	fileFilter      FileFilter
	directoryFilter DirectoryFilter
}

// NewFileProcessor creates a new file processor
func NewFileProcessor() *FileProcessor {
	return &FileProcessor{
		fileFilter:      DefaultGoFileFilter(),
		directoryFilter: DefaultDirectoryFilter(),
	}
}

// FileFilter defines a function that determines whether a file should be processed
type FileFilter func(path string, info os.DirEntry) bool

// DirectoryFilter defines a function that determines whether a directory should be processed
type DirectoryFilter func(path string, info os.DirEntry) bool

// DefaultGoFileFilter filters for .go files, excluding tests and generated files
func DefaultGoFileFilter() FileFilter {
	return func(path string, info os.DirEntry) bool {
		if info.IsDir() {
			return false
		}

		name := info.Name()
		return strings.HasSuffix(name, ".go") &&
			!strings.HasSuffix(name, "_test.go") &&
			name != GeneratedFileName
	}
}

// GeneratedFileFilter matches the files larkgen writes
func GeneratedFileFilter() FileFilter {
	return func(path string, info os.DirEntry) bool {
		return !info.IsDir() && info.Name() == GeneratedFileName
	}
}

// DefaultDirectoryFilter skips directories that shouldn't contain source code
func DefaultDirectoryFilter() DirectoryFilter {
	skipDirs := map[string]bool{
		"vendor":       true,
		"node_modules": true,
		"testdata":     true,
	}

	return func(path string, info os.DirEntry) bool {
		if !info.IsDir() {
			return true
		}

		name := info.Name()

		// the go tool ignores these
		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
			return false
		}

		return !skipDirs[name]
	}
}

// ScanDirectoriesWithGoFiles returns the directories holding Go files.
// Roots ending in "/..." are walked recursively.
func (fp *FileProcessor) ScanDirectoriesWithGoFiles(patterns []string) ([]string, error) {
	var packageDirs []string
	visited := make(map[string]bool)

	for _, pattern := range patterns {
		root, recursive := SplitPattern(pattern)
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return nil, WrapProcessError(fmt.Sprintf("path resolution %s", root), err)
		}

		info, err := os.Stat(absRoot)
		if err != nil {
			return nil, WrapProcessError(fmt.Sprintf("directory %s", root), err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", root)
		}

		dirs, err := fp.scanDirectory(absRoot, recursive, visited)
		if err != nil {
			return nil, err
		}
		packageDirs = append(packageDirs, dirs...)
	}

	return packageDirs, nil
}

func (fp *FileProcessor) scanDirectory(dir string, recursive bool, visited map[string]bool) ([]string, error) {
	if visited[dir] {
		return nil, nil
	}
	visited[dir] = true

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, WrapProcessError(fmt.Sprintf("directory read %s", dir), err)
	}

	var packageDirs []string
	for _, entry := range entries {
		if fp.fileFilter(filepath.Join(dir, entry.Name()), entry) {
			packageDirs = append(packageDirs, dir)
			break
		}
	}

	if !recursive {
		return packageDirs, nil
	}

	for _, entry := range entries {
		entryPath := filepath.Join(dir, entry.Name())
		if !entry.IsDir() || !fp.directoryFilter(entryPath, entry) {
			continue
		}
		subDirs, err := fp.scanDirectory(entryPath, true, visited)
		if err != nil {
			return nil, err
		}
		packageDirs = append(packageDirs, subDirs...)
	}

	return packageDirs, nil
}

// FindFiles returns the files matching filter under the given patterns
func (fp *FileProcessor) FindFiles(patterns []string, filter FileFilter) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		root, recursive := SplitPattern(pattern)
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				if os.IsNotExist(err) {
					return nil
				}
				return err
			}
			if d.IsDir() {
				if path != root && (!recursive || !fp.directoryFilter(path, d)) {
					return filepath.SkipDir
				}
				return nil
			}
			if filter(path, d) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, WrapProcessError(fmt.Sprintf("directory walk %s", root), err)
		}
	}
	return files, nil
}

// SplitPattern splits a Go-style pattern such as ./internal/... into its
// root directory and whether it is recursive
func SplitPattern(pattern string) (string, bool) {
	if pattern == "..." {
		return ".", true
	}
	if strings.HasSuffix(pattern, "/...") {
		root := strings.TrimSuffix(pattern, "/...")
		if root == "" {
			root = "."
		}
		return root, true
	}
	return pattern, false
}
