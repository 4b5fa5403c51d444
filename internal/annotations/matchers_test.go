package annotations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) []Argument {
	t.Helper()
	args, err := ParseArguments(src, SourceLocation{File: "test.go", Line: 1, Column: 1})
	require.NoError(t, err)
	return args
}

func TestMatchFlag(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		flag      string
		wantFound bool
		wantValue bool
		wantIndex int
		wantErr   bool
	}{
		{name: "bare identifier", input: `GET, flatten`, flag: "flatten", wantFound: true, wantValue: true, wantIndex: 1},
		{name: "named true", input: `body = true`, flag: "body", wantFound: true, wantValue: true, wantIndex: 0},
		{name: "named false", input: `User, body = false`, flag: "body", wantFound: true, wantValue: false, wantIndex: 1},
		{name: "absent", input: `GET, User`, flag: "flatten", wantIndex: -1},
		{name: "first match wins", input: `body = false, body`, flag: "body", wantFound: true, wantValue: false, wantIndex: 0},
		{name: "string value", input: `flatten = "yes"`, flag: "flatten", wantIndex: -1, wantErr: true},
		{name: "qualified path is not a flag", input: `x.flatten`, flag: "flatten", wantIndex: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := MatchFlag(mustParse(t, tt.input), tt.flag)
			if tt.wantErr {
				var grammarErr *GrammarError
				require.ErrorAs(t, err, &grammarErr)
				assert.Equal(t, `flatten = "yes"`, grammarErr.Argument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, m.Found())
			assert.Equal(t, tt.wantValue, m.Value)
			assert.Equal(t, tt.wantIndex, m.Index)
		})
	}
}

func TestMatchString(t *testing.T) {
	args := mustParse(t, `header, rename = 'Authorization', with = "Bearer "`)

	m, err := MatchString(args, "rename")
	require.NoError(t, err)
	assert.True(t, m.Found())
	assert.Equal(t, "Authorization", m.Value)
	assert.Equal(t, 1, m.Index)

	m, err = MatchString(args, "serialize_with")
	require.NoError(t, err)
	assert.False(t, m.Found())

	// a bare identifier never satisfies a string matcher
	m, err = MatchString(args, "header")
	require.NoError(t, err)
	assert.False(t, m.Found())

	_, err = MatchString(mustParse(t, `rename = true`), "rename")
	var grammarErr *GrammarError
	require.ErrorAs(t, err, &grammarErr)
	assert.Equal(t, GrammarErrorCode, grammarErr.Code())
}

func TestMatchFlagOrString(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		role      string
		wantFound bool
		want      FlagOrString
		wantErr   bool
	}{
		{name: "bare identifier", input: `query`, role: "query", wantFound: true, want: FlagOrString{Flag: true}},
		{name: "named string", input: `path = 'id'`, role: "path", wantFound: true, want: FlagOrString{Flag: true, Text: "id", HasText: true}},
		{name: "named false", input: `header = false`, role: "header", wantFound: true, want: FlagOrString{Flag: false}},
		{name: "leading bare string", input: `"X-Trace"`, role: "header", wantFound: true, want: FlagOrString{Flag: true, Text: "X-Trace", HasText: true}},
		{name: "bare string not first", input: `query, "X-Trace"`, role: "header", wantFound: false},
		{name: "absent", input: `query`, role: "path", wantFound: false},
		{name: "number value", input: `query = 3`, role: "query", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := MatchFlagOrString(mustParse(t, tt.input), tt.role)
			if tt.wantErr {
				require.Error(t, err)
				assert.False(t, m.Found())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, m.Found())
			if tt.wantFound {
				assert.Equal(t, tt.want, m.Value)
			}
		})
	}
}

func TestPoolConsumesOnce(t *testing.T) {
	pool := NewPool(mustParse(t, `flatten, flatten = false, body`))

	m, err := pool.TakeFlag("flatten")
	require.NoError(t, err)
	assert.True(t, m.Found())
	assert.True(t, m.Value)
	assert.Equal(t, 2, pool.Len())

	m, err = pool.TakeFlag("flatten")
	require.NoError(t, err)
	assert.True(t, m.Found())
	assert.False(t, m.Value)

	m, err = pool.TakeFlag("flatten")
	require.NoError(t, err)
	assert.False(t, m.Found())

	remaining := pool.Remaining()
	require.Len(t, remaining, 1)
	assert.Equal(t, "body", remaining[0].Raw)
}

func TestPoolNext(t *testing.T) {
	args := mustParse(t, `GET, 'https://x'`)
	pool := NewPool(args)

	first, ok := pool.Next()
	require.True(t, ok)
	assert.True(t, first.IsIdent("GET"))

	peeked, ok := pool.Peek()
	require.True(t, ok)
	assert.Equal(t, StringLiteral, peeked.Kind)

	_, ok = pool.Next()
	require.True(t, ok)
	_, ok = pool.Next()
	assert.False(t, ok)

	// the source slice is untouched
	assert.Len(t, args, 2)
}

func TestPoolKeepsDeclaredPosition(t *testing.T) {
	pool := NewPool(mustParse(t, `"X-Id", header`))

	// the leading string is the header name even after earlier takes
	m, err := pool.TakeFlagOrString("path")
	require.NoError(t, err)
	assert.True(t, m.Found(), "leading bare string is claimed by the first role asked")
	assert.Equal(t, "X-Id", m.Value.Text)

	m, err = pool.TakeFlagOrString("header")
	require.NoError(t, err)
	assert.True(t, m.Found())
	assert.False(t, m.Value.HasText)
	assert.Equal(t, 0, pool.Len())
}
