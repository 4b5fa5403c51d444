package cli

// Config holds the configuration for the CLI generator
type Config struct {
	// Directories is the list of directories to scan for request structs.
	// Go-style patterns such as ./... are scanned recursively.
	Directories []string

	// ModuleName overrides the module path read from go.mod
	ModuleName string

	// Verbose enables detailed logging and error reporting
	Verbose bool

	// Check reports stale generated files instead of writing them
	Check bool
}
