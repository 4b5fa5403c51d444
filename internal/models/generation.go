package models

// GeneratedFile represents a generated glue file for one package
type GeneratedFile struct {
	PackageName string   // name of the package
	FilePath    string   // path where the file should be written
	Content     string   // generated Go code content
	Requests    []string // request types implemented by the file
}
