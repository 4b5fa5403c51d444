package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/toyz/lark/internal/models"
)

// RequestReport describes one compiled request struct
type RequestReport struct {
	Package  string        `json:"package" yaml:"package"`
	Type     string        `json:"type" yaml:"type"`
	Method   string        `json:"method" yaml:"method"`
	Address  string        `json:"address" yaml:"address"`
	Response string        `json:"response" yaml:"response"`
	Flatten  bool          `json:"flatten" yaml:"flatten"`
	Body     bool          `json:"body" yaml:"body"`
	Headers  []FieldReport `json:"headers,omitempty" yaml:"headers,omitempty"`
	Paths    []FieldReport `json:"paths,omitempty" yaml:"paths,omitempty"`
	Queries  []FieldReport `json:"queries,omitempty" yaml:"queries,omitempty"`
	Source   string        `json:"source" yaml:"source"`
}

// FieldReport describes one header, path or query field
type FieldReport struct {
	Field      string `json:"field" yaml:"field"`
	Name       string `json:"name" yaml:"name"`
	Prefix     string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Serializer string `json:"serializer,omitempty" yaml:"serializer,omitempty"`
}

// NewInspectReport flattens package metadata into one entry per request
func NewInspectReport(packages []*models.PackageMetadata) []RequestReport {
	var reports []RequestReport
	for _, pkg := range packages {
		name := pkg.ImportPath
		if name == "" {
			name = pkg.PackageName
		}
		for _, req := range pkg.Requests {
			reports = append(reports, RequestReport{
				Package:  name,
				Type:     req.TypeName,
				Method:   string(req.Descriptor.Method),
				Address:  req.Descriptor.Address,
				Response: req.Payload,
				Flatten:  req.Descriptor.Flatten,
				Body:     req.Descriptor.HasBody(),
				Headers:  fieldReports(req.Fields.Headers),
				Paths:    fieldReports(req.Fields.Paths),
				Queries:  fieldReports(req.Fields.Queries),
				Source:   fmt.Sprintf("%s:%d", displayPath(req.FileName), req.Line),
			})
		}
	}
	return reports
}

func fieldReports(fields []models.FieldDescriptor) []FieldReport {
	if len(fields) == 0 {
		return nil
	}
	reports := make([]FieldReport, len(fields))
	for i, f := range fields {
		reports[i] = FieldReport{
			Field:      f.Name,
			Name:       f.WireName(),
			Prefix:     f.Prefix,
			Serializer: f.Serializer,
		}
	}
	return reports
}

// WriteInspectReport encodes reports as "json" or "yaml"
func WriteInspectReport(w io.Writer, reports []RequestReport, format string) error {
	if reports == nil {
		reports = []RequestReport{}
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(reports); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q, expected json or yaml", format)
	}
}
