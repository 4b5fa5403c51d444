package templates

// TemplateRegistry provides a centralized way to access all templates
type TemplateRegistry struct {
	templates map[string]string
}

// NewTemplateRegistry creates a new template registry with all templates
func NewTemplateRegistry() *TemplateRegistry {
	registry := &TemplateRegistry{
		templates: make(map[string]string),
	}

	registry.registerFileTemplates()
	registry.registerRequestTemplates()

	return registry
}

// Get retrieves a template by name
func (tr *TemplateRegistry) Get(name string) (string, bool) {
	template, exists := tr.templates[name]
	return template, exists
}

// MustGet retrieves a template by name, panics if not found
func (tr *TemplateRegistry) MustGet(name string) string {
	template, exists := tr.templates[name]
	if !exists {
		panic("template not found: " + name)
	}
	return template
}

// Names lists the registered templates
func (tr *TemplateRegistry) Names() []string {
	names := make([]string, 0, len(tr.templates))
	for name := range tr.templates {
		names = append(names, name)
	}
	return names
}

func (tr *TemplateRegistry) registerFileTemplates() {
	tr.templates["file"] = `// Code generated by larkgen. DO NOT EDIT.

package {{.PackageName}}

{{.Imports}}
{{range .Requests}}
{{template "request" .}}
{{end}}`
}

func (tr *TemplateRegistry) registerRequestTemplates() {
	tr.templates["request"] = `var _ {{.Lark}}.Request[{{.Payload}}] = {{.TypeName}}{}

// Method returns the HTTP method of {{.TypeName}}
func ({{.TypeName}}) Method() string { return {{quote .Method}} }

// Address returns the URL template of {{.TypeName}}
func ({{.TypeName}}) Address() string { return {{quote .Address}} }

{{if .HasBody}}// Body returns the JSON encoding of r
func (r {{.TypeName}}) Body() ([]byte, error) { return json.Marshal(r) }
{{else}}// Body returns nil, {{.TypeName}} sends no body
func ({{.TypeName}}) Body() ([]byte, error) { return nil, nil }
{{end}}
{{template "path-params" .}}

{{template "params" params . "QueryParams" .Queries}}

{{template "params" params . "Headers" .Headers}}

// Envelope returns a fresh response envelope
func ({{.TypeName}}) Envelope() {{.Lark}}.Response[{{.Payload}}] {
	return {{.Lark}}.NewEnvelope[{{.Payload}}]({{.Flatten}})
}`

	tr.templates["path-params"] = `{{if .Paths}}func (r {{.TypeName}}) PathParams() map[string]string {
	params := make(map[string]string, {{len .Paths}})
{{- range .Paths}}
	if v, ok := {{serialize $.Lark .}}; ok {
		params[{{quote .WireName}}] = {{prefixed .}}
	}
{{- end}}
	return params
}{{else}}func ({{.TypeName}}) PathParams() map[string]string { return nil }{{end}}`

	tr.templates["params"] = `{{if .Fields}}func (r {{.Request.TypeName}}) {{.Method}}() []{{.Request.Lark}}.Param {
	params := make([]{{.Request.Lark}}.Param, 0, {{len .Fields}})
{{- range .Fields}}
	if v, ok := {{serialize $.Request.Lark .}}; ok {
		params = append(params, {{$.Request.Lark}}.Param{Name: {{quote .WireName}}, Value: {{prefixed .}}})
	}
{{- end}}
	return params
}{{else}}func ({{.Request.TypeName}}) {{.Method}}() []{{.Request.Lark}}.Param { return nil }{{end}}`
}
