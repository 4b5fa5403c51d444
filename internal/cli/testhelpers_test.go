package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/toyz/lark/internal/utils"
)

const usersSource = `package contact

import "github.com/toyz/lark/pkg/lark"

type User struct {
	UserID string ` + "`json:\"user_id\"`" + `
}

type GetUserRequest struct {
	lark.Endpoint[User] ` + "`request:\"GET, '/open-apis/contact/v3/users/:user_id', User\"`" + `

	UserID string ` + "`request:\"path = 'user_id'\" json:\"-\"`" + `
	Token  string ` + "`request:\"header, rename = 'Authorization', with = 'Bearer '\" json:\"-\"`" + `
}
`

const messagesSource = `package im

import "github.com/toyz/lark/pkg/lark"

type Message struct {
	MessageID string ` + "`json:\"message_id\"`" + `
}

type SendMessageRequest struct {
	lark.Endpoint[Message] ` + "`request:\"'/open-apis/im/v1/messages', Message\"`" + `

	ReceiveIDType string ` + "`request:\"query = 'receive_id_type'\" json:\"-\"`" + `
	ReceiveID     string ` + "`json:\"receive_id\"`" + `
}
`

const plainSource = `package util

func Add(a, b int) int { return a + b }
`

const brokenSource = `package broken

import "github.com/toyz/lark/pkg/lark"

type Reply struct{}

type BrokenRequest struct {
	lark.Endpoint[Reply] ` + "`request:\"GET, 'https://example.com', Reply\"`" + `

	Missing string ` + "`request:\"rename = 'x'\"`" + `
}
`

// writeProject lays out a module with the given files and returns its root
func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	files["go.mod"] = "module example.com/bot\n\ngo 1.25\n"
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

type testOutput struct {
	out, errOut, report bytes.Buffer
}

func newTestGenerator(root string, level utils.DiagnosticLevel) (*Generator, *testOutput) {
	color.NoColor = true
	o := &testOutput{}
	diagnostics := utils.NewDiagnosticSystemWithWriters(level, &o.out, &o.errOut)
	reporter := NewDiagnosticReporterWithWriter(false, &o.report)
	return NewGeneratorWithResolver(diagnostics, reporter, NewModuleResolverAt(root)), o
}
