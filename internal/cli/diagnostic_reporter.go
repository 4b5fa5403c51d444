package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/toyz/lark/internal/annotations"
	"github.com/toyz/lark/internal/models"
)

// DiagnosticReporter provides user-friendly error reporting and diagnostics
type DiagnosticReporter struct {
	verbose bool
	out     io.Writer
}

// NewDiagnosticReporter creates a diagnostic reporter writing to stderr
func NewDiagnosticReporter(verbose bool) *DiagnosticReporter {
	return NewDiagnosticReporterWithWriter(verbose, os.Stderr)
}

// NewDiagnosticReporterWithWriter creates a diagnostic reporter writing to out
func NewDiagnosticReporterWithWriter(verbose bool, out io.Writer) *DiagnosticReporter {
	return &DiagnosticReporter{
		verbose: verbose,
		out:     out,
	}
}

// ReportWarning provides user-friendly warning reporting
func (r *DiagnosticReporter) ReportWarning(message string) {
	color.New(color.FgYellow, color.Bold).Fprint(r.out, "! ")
	fmt.Fprintf(r.out, "%s\n", message)
}

// ReportError provides comprehensive error reporting with user-friendly output
func (r *DiagnosticReporter) ReportError(err error) {
	fmt.Fprintf(r.out, "\nERROR: Code Generation Failed\n")
	fmt.Fprintf(r.out, "=============================\n\n")

	var genErr *models.GeneratorError
	if errors.As(err, &genErr) {
		r.reportGeneratorError(genErr)
	} else {
		fmt.Fprintf(r.out, "Message: %s\n\n", err.Error())
	}
}

func (r *DiagnosticReporter) reportGeneratorError(genErr *models.GeneratorError) {
	r.printErrorHeader(genErr)

	fmt.Fprintf(r.out, "Message: %s\n\n", genErr.Message)

	if genErr.File != "" {
		if genErr.Line > 0 {
			fmt.Fprintf(r.out, "Location: %s:%d\n\n", genErr.File, genErr.Line)
		} else {
			fmt.Fprintf(r.out, "File: %s\n\n", genErr.File)
		}
	}

	if len(genErr.Suggestions) > 0 {
		r.printSuggestions(genErr.Suggestions)
	}

	r.printAdditionalHelp(genErr.Type)

	if r.verbose {
		r.printVerboseDebuggingInfo(genErr)
	}
}

func (r *DiagnosticReporter) printErrorHeader(genErr *models.GeneratorError) {
	var errorTypeStr string

	switch genErr.Type {
	case models.ErrorTypeAnnotationSyntax:
		errorTypeStr = "Annotation Syntax Error"
	case models.ErrorTypeValidation:
		errorTypeStr = "Validation Error"
	case models.ErrorTypeGeneration:
		errorTypeStr = "Code Generation Error"
	case models.ErrorTypeFileSystem:
		errorTypeStr = "File System Error"
	default:
		errorTypeStr = "Unknown Error"
	}

	fmt.Fprintf(r.out, "Type: %s\n", color.New(color.FgRed).Sprint(errorTypeStr))
	fmt.Fprintf(r.out, "%s\n\n", strings.Repeat("-", len(errorTypeStr)+6))
}

func (r *DiagnosticReporter) printSuggestions(suggestions []string) {
	fmt.Fprintf(r.out, "Suggestions:\n")

	for i, suggestion := range suggestions {
		lines := strings.Split(suggestion, "\n")
		fmt.Fprintf(r.out, "   %d. %s\n", i+1, lines[0])
		for _, line := range lines[1:] {
			if strings.TrimSpace(line) != "" {
				fmt.Fprintf(r.out, "      %s\n", line)
			}
		}
	}

	fmt.Fprintf(r.out, "\n")
}

func (r *DiagnosticReporter) printAdditionalHelp(errorType models.ErrorType) {
	switch errorType {
	case models.ErrorTypeAnnotationSyntax:
		fmt.Fprintf(r.out, "Annotation Syntax Help:\n")
		fmt.Fprintf(r.out, "  - The request annotation is the struct tag of the embedded lark.Endpoint\n")
		fmt.Fprintf(r.out, "  - Field annotations are request:\"...\" tags on exported fields\n")
		fmt.Fprintf(r.out, "  - String arguments are single quoted\n\n")
	case models.ErrorTypeValidation:
		fmt.Fprintf(r.out, "Request Requirements:\n")
		fmt.Fprintf(r.out, "  - The response argument names the Endpoint payload type\n")
		fmt.Fprintf(r.out, "  - Every field takes exactly one of header, path or query\n\n")
	}

	fmt.Fprintf(r.out, "For more help:\n")
	fmt.Fprintf(r.out, "  - Run larkgen schema for the annotation grammar\n")
	fmt.Fprintf(r.out, "  - Run with --verbose for more detailed output\n")
}

func (r *DiagnosticReporter) printVerboseDebuggingInfo(genErr *models.GeneratorError) {
	fmt.Fprintf(r.out, "\nVerbose Debug Information:\n")
	fmt.Fprintf(r.out, "  Error Type Code: %d\n", int(genErr.Type))

	var multi *annotations.MultipleAnnotationErrors
	if errors.As(genErr.Cause, &multi) {
		fmt.Fprintf(r.out, "  Annotation Errors:\n")
		for _, annErr := range multi.Errors {
			fmt.Fprintf(r.out, "    - %s\n", annErr.Error())
		}
	}

	if genErr.Cause != nil {
		fmt.Fprintf(r.out, "  Error Chain:\n")
		level := 1
		for err := genErr.Cause; err != nil; err = errors.Unwrap(err) {
			fmt.Fprintf(r.out, "    %d. %s\n", level, err.Error())
			level++
		}
	}

	fmt.Fprintf(r.out, "\n")
}

// Debug prints debug information when verbose mode is enabled
func (r *DiagnosticReporter) Debug(format string, args ...interface{}) {
	if r.verbose {
		fmt.Fprintf(r.out, "[DEBUG] "+format+"\n", args...)
	}
}

// GenerationSummary contains information about the generation process
type GenerationSummary struct {
	PackagesProcessed int
	RequestsFound     int
	GeneratedFiles    []string
	UnchangedFiles    []string
	RemovedFiles      []string
	StaleFiles        []string
}
