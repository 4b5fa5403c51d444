package parser

const (
	// LarkImportPath is the import path of the runtime package
	LarkImportPath = "github.com/toyz/lark/pkg/lark"

	// DefaultLarkAlias is the package name of the runtime package
	DefaultLarkAlias = "lark"

	// EndpointType is the marker type request structs embed
	EndpointType = "Endpoint"
)

// reservedFields collide with the methods generated for a request
var reservedFields = map[string]bool{
	"Method":      true,
	"Address":     true,
	"Body":        true,
	"PathParams":  true,
	"QueryParams": true,
	"Headers":     true,
	"Envelope":    true,
}
