package cli

import (
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleaner_CleanGeneratedFiles(t *testing.T) {
	root := writeProject(t, map[string]string{
		"api/contact/users.go":             usersSource,
		"api/contact/lark_requests_gen.go": "package contact\n",
		"api/im/lark_requests_gen.go":      "package im\n",
		"vendor/x/lark_requests_gen.go":    "package x\n",
	})

	t.Run("single directory", func(t *testing.T) {
		removed, err := NewCleaner().CleanGeneratedFiles([]string{filepath.Join(root, "api", "im")})
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(root, "api", "im", "lark_requests_gen.go")}, removed)
	})

	t.Run("recursive", func(t *testing.T) {
		removed, err := NewCleaner().CleanGeneratedFiles([]string{filepath.Join(root, "...")})
		require.NoError(t, err)
		sort.Strings(removed)
		assert.Equal(t, []string{filepath.Join(root, "api", "contact", "lark_requests_gen.go")}, removed)
		assert.FileExists(t, filepath.Join(root, "api", "contact", "users.go"))
		assert.FileExists(t, filepath.Join(root, "vendor", "x", "lark_requests_gen.go"))
	})

	t.Run("nothing left", func(t *testing.T) {
		removed, err := NewCleaner().CleanGeneratedFiles([]string{filepath.Join(root, "...")})
		require.NoError(t, err)
		assert.Empty(t, removed)
	})
}

func TestDirectoryScanner_ScanDirectories(t *testing.T) {
	root := writeProject(t, map[string]string{
		"api/contact/users.go": usersSource,
		"api/im/messages.go":   messagesSource,
	})

	dirs, err := NewDirectoryScanner().ScanDirectories([]string{filepath.Join(root, "api", "...")})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "api", "contact"),
		filepath.Join(root, "api", "im"),
	}, dirs)

	t.Chdir(filepath.Join(root, "api", "im"))
	dirs, err = NewDirectoryScanner().ScanDirectories(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "api", "im")}, dirs)
}
