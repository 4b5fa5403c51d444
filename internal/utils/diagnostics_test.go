package utils

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func newTestDiagnostics(level DiagnosticLevel) (*DiagnosticSystem, *bytes.Buffer, *bytes.Buffer) {
	color.NoColor = true
	var out, errOut bytes.Buffer
	return NewDiagnosticSystemWithWriters(level, &out, &errOut), &out, &errOut
}

func TestDiagnosticSystem_Levels(t *testing.T) {
	tests := []struct {
		name       string
		level      DiagnosticLevel
		wantOut    []string
		wantNotOut []string
		wantErr    []string
	}{
		{
			name:       "silent",
			level:      DiagnosticSilent,
			wantNotOut: []string{"[INFO]", "[VERBOSE]"},
		},
		{
			name:       "quiet shows errors only",
			level:      DiagnosticError,
			wantNotOut: []string{"[INFO]", "[SUCCESS]"},
			wantErr:    []string{"[ERROR] broken api/im"},
		},
		{
			name:       "info",
			level:      DiagnosticInfo,
			wantOut:    []string{"[INFO] scanning 3", "[SUCCESS] done"},
			wantNotOut: []string{"[VERBOSE]", "[DEBUG]"},
			wantErr:    []string{"[ERROR] broken api/im", "[WARN] careful"},
		},
		{
			name:    "debug",
			level:   DiagnosticDebug,
			wantOut: []string{"[VERBOSE] details", "[DEBUG] internals"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, out, errOut := newTestDiagnostics(tt.level)

			d.Error("broken %s", "api/im")
			d.Warn("careful")
			d.Info("scanning %d", 3)
			d.Success("done")
			d.Verbose("details")
			d.Debug("internals")

			for _, want := range tt.wantOut {
				assert.Contains(t, out.String(), want)
			}
			for _, notWant := range tt.wantNotOut {
				assert.NotContains(t, out.String(), notWant)
			}
			for _, want := range tt.wantErr {
				assert.Contains(t, errOut.String(), want)
			}
			if tt.level == DiagnosticSilent {
				assert.Empty(t, out.String())
				assert.Empty(t, errOut.String())
			}
		})
	}
}

func TestDiagnosticSystem_Layout(t *testing.T) {
	d, out, _ := newTestDiagnostics(DiagnosticInfo)

	d.Section("Request Generator")
	d.Subsection("Packages")
	d.Indent()
	d.List("api/%s", "im")
	d.Item("wrote %s", "lark_requests_gen.go")
	d.Unindent()
	d.Unindent()
	d.Summary("Generation complete", map[string]interface{}{
		"Requests found":     4,
		"Packages processed": 2,
	})

	assert.Equal(t, "Lark: Request Generator\n"+
		"\nPackages:\n"+
		"  - api/im\n"+
		"  ✓ wrote lark_requests_gen.go\n"+
		"\nGeneration complete\n"+
		"   Packages processed: 2\n"+
		"   Requests found: 4\n", out.String())
}

func TestDiagnosticSystem_Progress(t *testing.T) {
	d, out, _ := newTestDiagnostics(DiagnosticInfo)
	d.StartProgress("Resolving module name")
	d.EndProgress("Resolving module name", true)
	assert.Empty(t, out.String())

	d, out, _ = newTestDiagnostics(DiagnosticVerbose)
	d.StartProgress("Resolving module name")
	d.EndProgress("Resolving module name", true)
	d.EndProgress("Parsing", false)

	assert.Contains(t, out.String(), "- Resolving module name...\n")
	assert.Contains(t, out.String(), "✓ Resolving module name (")
	assert.Contains(t, out.String(), "✗ Parsing\n")
}
