package parser

import (
	"fmt"
	"strings"

	"github.com/toyz/lark/internal/annotations"
	"github.com/toyz/lark/internal/models"
)

// ReportAnnotationErrors turns collected annotation errors into a single
// GeneratorError pointing at the first one and listing all of them
func ReportAnnotationErrors(errs *annotations.MultipleAnnotationErrors) error {
	if errs == nil || len(errs.Errors) == 0 {
		return nil
	}

	first := errs.Errors[0]
	loc := first.Location()

	var message string
	if len(errs.Errors) == 1 {
		message = first.Error()
	} else {
		lines := make([]string, len(errs.Errors))
		for i, err := range errs.Errors {
			lines[i] = fmt.Sprintf("  %d. %s", i+1, err.Error())
		}
		message = fmt.Sprintf("%d invalid request annotations:\n%s", len(errs.Errors), strings.Join(lines, "\n"))
	}

	errorType := models.ErrorTypeValidation
	if errs.HasType(annotations.SyntaxErrorCode) || errs.HasType(annotations.GrammarErrorCode) {
		errorType = models.ErrorTypeAnnotationSyntax
	}

	return &models.GeneratorError{
		Type:        errorType,
		File:        loc.File,
		Line:        loc.Line,
		Message:     message,
		Suggestions: suggestionsFor(errs),
		Cause:       errs,
	}
}

// suggestionsFor collects distinct hints and the grammar of the annotations involved
func suggestionsFor(errs *annotations.MultipleAnnotationErrors) []string {
	var suggestions []string
	seen := make(map[string]bool)
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			suggestions = append(suggestions, s)
		}
	}

	container := false
	for _, err := range errs.Errors {
		add(err.Suggestion())
		if strings.Contains(err.Error(), "expected request:") {
			container = true
		}
	}

	schema := annotations.FieldSchema
	if container {
		schema = annotations.ContainerSchema
	}
	add("Format: " + schema.Format)
	if len(schema.Examples) > 0 {
		add("Example: " + schema.Examples[0])
	}

	return suggestions
}
