package utils

import "fmt"

// WrapParseError wraps a parsing failure
func WrapParseError(item string, err error) error {
	return fmt.Errorf("failed to parse %s: %w", item, err)
}

// WrapGenerateError wraps a code generation failure
func WrapGenerateError(item string, err error) error {
	return fmt.Errorf("failed to generate %s: %w", item, err)
}

// WrapProcessError wraps a file system failure
func WrapProcessError(item string, err error) error {
	return fmt.Errorf("failed to process %s: %w", item, err)
}
