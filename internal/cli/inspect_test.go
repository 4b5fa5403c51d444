package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/toyz/lark/internal/utils"
)

func TestInspectReport(t *testing.T) {
	root := writeProject(t, map[string]string{
		"api/contact/users.go": usersSource,
		"api/im/messages.go":   messagesSource,
	})
	g, _ := newTestGenerator(root, utils.DiagnosticSilent)

	packages, err := g.Inspect(Config{Directories: []string{filepath.Join(root, "...")}})
	require.NoError(t, err)

	reports := NewInspectReport(packages)
	require.Len(t, reports, 2)

	users := reports[0]
	assert.Equal(t, "example.com/bot/api/contact", users.Package)
	assert.Equal(t, "GetUserRequest", users.Type)
	assert.Equal(t, "GET", users.Method)
	assert.Equal(t, "/open-apis/contact/v3/users/:user_id", users.Address)
	assert.Equal(t, "User", users.Response)
	assert.False(t, users.Body)
	assert.Equal(t, []FieldReport{{Field: "UserID", Name: "user_id"}}, users.Paths)
	assert.Equal(t, []FieldReport{{Field: "Token", Name: "Authorization", Prefix: "Bearer "}}, users.Headers)
	assert.Nil(t, users.Queries)
	assert.Contains(t, users.Source, "users.go:9")

	messages := reports[1]
	assert.Equal(t, "POST", messages.Method)
	assert.True(t, messages.Body)
	assert.Equal(t, []FieldReport{{Field: "ReceiveIDType", Name: "receive_id_type"}}, messages.Queries)

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteInspectReport(&buf, reports, "json"))

		var decoded []RequestReport
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, reports, decoded)
		assert.Contains(t, buf.String(), `"prefix": "Bearer "`)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteInspectReport(&buf, reports, "yaml"))

		var decoded []RequestReport
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, reports, decoded)
		assert.Contains(t, buf.String(), "- package: example.com/bot/api/contact\n")
	})

	t.Run("empty report", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteInspectReport(&buf, nil, "json"))
		assert.Equal(t, "[]\n", buf.String())
	})

	t.Run("unknown format", func(t *testing.T) {
		err := WriteInspectReport(&bytes.Buffer{}, reports, "toml")
		assert.EqualError(t, err, `unknown format "toml", expected json or yaml`)
	})
}
