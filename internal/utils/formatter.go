package utils

import (
	"fmt"
	"go/parser"
	"go/token"
	"os"

	"golang.org/x/tools/imports"
)

var importOptions = &imports.Options{
	Comments:   true,
	TabIndent:  true,
	TabWidth:   8,
	FormatOnly: true,
}

// FormatGoCode formats Go source the way goimports does: gofmt plus sorted,
// grouped import blocks. Imports are never added or resolved.
func FormatGoCode(filename string, source []byte) ([]byte, error) {
	return imports.Process(filename, source, importOptions)
}

// FormatGoCodeString formats Go source code from a string and returns a string
func FormatGoCodeString(filename, source string) (string, error) {
	formatted, err := FormatGoCode(filename, []byte(source))
	if err != nil {
		if parseErr := ValidateGoCode(source); parseErr != nil {
			return source, fmt.Errorf("invalid Go syntax: %w", parseErr)
		}
		return source, err
	}
	return string(formatted), nil
}

// FormatAndWriteGoFile formats Go code and writes it to a file. Unformattable
// code is not written.
func FormatAndWriteGoFile(filename string, code string) error {
	formatted, err := FormatGoCodeString(filename, code)
	if err != nil {
		return fmt.Errorf("failed to format %s: %w", filename, err)
	}
	return os.WriteFile(filename, []byte(formatted), 0o644)
}

// ValidateGoCode checks if the provided code is valid Go syntax
func ValidateGoCode(code string) error {
	fset := token.NewFileSet()
	_, err := parser.ParseFile(fset, "", code, parser.ParseComments)
	return err
}
