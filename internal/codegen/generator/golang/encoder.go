package golang

import (
	"log/slog"

	"github.com/Alia5/sharedcodecs/internal/codegen/meta"
	"github.com/Alia5/sharedcodecs/internal/codegen/output"
)

const sharedEncoderAlias = "sharedencoder"

func generateEncoders(logger *slog.Logger, u *meta.Unit, dst output.Destination) error {
	view := newView(u, u.Namespaces.Encoder)
	view.SharedPkg = sharedEncoderAlias

	body, err := execute("encoder", encoderTemplate, funcs(u, false), view)
	if err != nil {
		return err
	}
	imports := parentImports(u)
	if u.Role == meta.RoleSpecialized {
		imports = append(imports, goImport{Alias: sharedEncoderAlias, Path: u.SharedNamespaces.Import(u.SharedNamespaces.Encoder)})
	}
	if err := writeGo(dst, "encoder.go", view.Package, imports, body); err != nil {
		return err
	}

	logger.Debug("Generated encoders", "dictionary", u.Name, "role", u.Role, "aggregates", len(view.Aggregates))
	return nil
}

const encoderTemplate = `{{define "contract"}}
// {{.Ident}}Encoder is the {{.Name}} {{.Kind}} contract common to every dictionary.
type {{.Ident}}Encoder interface {
{{- range .Members}}
{{- if isField .}}
	Set{{.Ident}}(v {{.GoType}})
	Reset{{.Ident}}()
{{- else if isComponent .}}
	{{.Ident}}() {{.Nested}}Encoder
{{- else}}
	Add{{.Ident}}() {{.Nested}}Encoder
	{{.Ident}}Len() int
{{- end}}
{{- end}}
	ResetMessage()
}

// {{.Ident}}EncoderState holds the shared fields of {{.Name}}. Dictionary
// encoders embed it.
type {{.Ident}}EncoderState struct {
{{- range .Members}}{{if isField .}}
	{{.Var}} {{.GoType}}
	has{{.Ident}} bool
{{- end}}{{end}}
}
{{range .Members}}{{if isField .}}
func (s *{{$.Ident}}EncoderState) Set{{.Ident}}(v {{.GoType}}) {
	s.{{.Var}} = v
	s.has{{.Ident}} = true
}

func (s *{{$.Ident}}EncoderState) Reset{{.Ident}}() {
	s.{{.Var}} = {{zero .GoType}}
	s.has{{.Ident}} = false
}
{{end}}{{end}}
// ResetMessage clears the shared fields.
func (s *{{.Ident}}EncoderState) ResetMessage() {
{{- range .Members}}{{if isField .}}
	s.Reset{{.Ident}}()
{{- end}}{{end}}
}

// IsSet reports whether the shared field with tag has a value.
func (s *{{.Ident}}EncoderState) IsSet(tag int) bool {
	switch tag {
{{- range .Members}}{{if isField .}}
	case {{.Tag}}:
		return s.has{{.Ident}}
{{- end}}{{end}}
	}
	return false
}

// AppendField appends the shared field with tag if it is set.
func (s *{{.Ident}}EncoderState) AppendField(buf []byte, tag int) []byte {
	switch tag {
{{- range .Members}}{{if isField .}}
	case {{.Tag}}:
		if s.has{{.Ident}} {
			return codec.Append{{.Codec}}(buf, {{.Tag}}, s.{{.Var}})
		}
{{- end}}{{end}}
	}
	return buf
}
{{end}}

{{- define "concrete"}}
// {{.A.Ident}}Encoder encodes {{.A.Name}}.
type {{.A.Ident}}Encoder struct {
{{- if .A.Embeds}}
	{{.Shared}}.{{.A.Ident}}EncoderState
{{- end}}
{{- range .A.Members}}
{{- if isField .}}{{if not .Delegated}}
	{{.Var}} {{.GoType}}
	has{{.Ident}} bool
{{- end}}
{{- else if isComponent .}}
	{{.Var}} {{.Nested}}Encoder
{{- else}}
	{{.Var}} []*{{.Nested}}Encoder
{{- end}}
{{- end}}
}
{{if .A.Embeds}}
var _ {{.Shared}}.{{.A.Ident}}Encoder = (*{{.A.Ident}}Encoder)(nil)
{{end}}
{{- range .A.Members}}
{{- if isField .}}{{if not .Delegated}}
func (e *{{$.A.Ident}}Encoder) Set{{.Ident}}(v {{.GoType}}) {
	e.{{.Var}} = v
	e.has{{.Ident}} = true
}

func (e *{{$.A.Ident}}Encoder) Reset{{.Ident}}() {
	e.{{.Var}} = {{zero .GoType}}
	e.has{{.Ident}} = false
}
{{end}}
{{- else if isComponent .}}
{{- if .Contract}}
func (e *{{$.A.Ident}}Encoder) {{.Ident}}() {{$.Shared}}.{{.Nested}}Encoder {
	return &e.{{.Var}}
}

func (e *{{$.A.Ident}}Encoder) {{.Ident}}Variant() *{{.Nested}}Encoder {
	return &e.{{.Var}}
}
{{else}}
func (e *{{$.A.Ident}}Encoder) {{.Ident}}() *{{.Nested}}Encoder {
	return &e.{{.Var}}
}
{{end}}
{{- else}}
{{- if .Contract}}
func (e *{{$.A.Ident}}Encoder) Add{{.Ident}}() {{$.Shared}}.{{.Nested}}Encoder {
	return e.Add{{.Ident}}Variant()
}

// Add{{.Ident}}Variant appends a {{.Name}} entry.
func (e *{{$.A.Ident}}Encoder) Add{{.Ident}}Variant() *{{.Nested}}Encoder {
	entry := &{{.Nested}}Encoder{}
	e.{{.Var}} = append(e.{{.Var}}, entry)
	return entry
}
{{else}}
// Add{{.Ident}} appends a {{.Name}} entry.
func (e *{{$.A.Ident}}Encoder) Add{{.Ident}}() *{{.Nested}}Encoder {
	entry := &{{.Nested}}Encoder{}
	e.{{.Var}} = append(e.{{.Var}}, entry)
	return entry
}
{{end}}
func (e *{{$.A.Ident}}Encoder) {{.Ident}}Len() int {
	return len(e.{{.Var}})
}
{{end}}
{{- end}}
{{- if not .A.Embeds}}
// ResetMessage clears every field.
func (e *{{.A.Ident}}Encoder) ResetMessage() {
{{- range .A.Members}}{{if isField .}}
	e.Reset{{.Ident}}()
{{- end}}{{end}}
}
{{end}}
// Reset clears the encoder for reuse.
func (e *{{.A.Ident}}Encoder) Reset() {
	e.ResetMessage()
{{- range .A.Members}}
{{- if isField .}}{{if and $.A.Embeds (not .Delegated)}}
	e.Reset{{.Ident}}()
{{- end}}
{{- else if isComponent .}}
	e.{{.Var}}.Reset()
{{- else}}
	e.{{.Var}} = e.{{.Var}}[:0]
{{- end}}
{{- end}}
}

// AppendTo appends the set fields of {{.A.Name}} in dictionary order.
func (e *{{.A.Ident}}Encoder) AppendTo(buf []byte) []byte {
{{- range .A.Members}}
{{- if isField .}}
{{- if .Delegated}}
	buf = e.{{$.A.Ident}}EncoderState.AppendField(buf, {{.Tag}})
{{- else}}
	if e.has{{.Ident}} {
		buf = codec.Append{{.Codec}}(buf, {{.Tag}}, e.{{.Var}})
	}
{{- end}}
{{- else if isComponent .}}
	buf = e.{{.Var}}.AppendTo(buf)
{{- else}}
	if len(e.{{.Var}}) > 0 {
		buf = codec.AppendInt(buf, {{.CounterTag}}, int64(len(e.{{.Var}})))
		for _, entry := range e.{{.Var}} {
			buf = entry.AppendTo(buf)
		}
	}
{{- end}}
{{- end}}
	return buf
}
{{end}}

{{- define "policy"}}
// RejectUnknownField names the environment variable that makes decoders
// reject undefined tags.
const RejectUnknownField = {{quote .RejectUnknownField}}

// RejectUnknownEnumValue names the environment variable that makes decoders
// reject undefined enum representations.
const RejectUnknownEnumValue = {{quote .RejectUnknownEnumValue}}
{{end}}

{{- template "policy" .Options}}
{{- range .Aggregates}}
{{- if $.IsShared}}
{{- template "contract" .}}
{{- else}}
{{- template "concrete" (dict "A" . "Shared" $.SharedPkg)}}
{{- end}}
{{- end}}
`
