package golang

import (
	"log/slog"

	"github.com/Alia5/sharedcodecs/internal/codegen/meta"
	"github.com/Alia5/sharedcodecs/internal/codegen/output"
)

const (
	sharedDecoderAlias   = "shareddecoder"
	sharedFlyweightAlias = "sharedflyweight"
)

func generateDecoders(logger *slog.Logger, u *meta.Unit, dst output.Destination) error {
	return generateDecoderSide(logger, u, dst, false)
}

// generateFlyweightDecoders emits decoders that keep slices of the wrapped
// buffer and parse values on access.
func generateFlyweightDecoders(logger *slog.Logger, u *meta.Unit, dst output.Destination) error {
	return generateDecoderSide(logger, u, dst, true)
}

func generateDecoderSide(logger *slog.Logger, u *meta.Unit, dst output.Destination, flyweight bool) error {
	ns, alias, sharedNs := u.Namespaces.Decoder, sharedDecoderAlias, u.SharedNamespaces.Decoder
	if flyweight {
		ns, alias, sharedNs = u.Namespaces.DecoderFlyweight, sharedFlyweightAlias, u.SharedNamespaces.DecoderFlyweight
	}
	view := newView(u, ns)
	view.SharedPkg = alias
	view.Flyweight = flyweight

	body, err := execute("decoder", decoderTemplate, funcs(u, flyweight), view)
	if err != nil {
		return err
	}
	imports := parentImports(u)
	if u.Role == meta.RoleSpecialized {
		imports = append(imports, goImport{Alias: alias, Path: u.SharedNamespaces.Import(sharedNs)})
	}
	if err := writeGo(dst, "decoder.go", view.Package, imports, body); err != nil {
		return err
	}

	logger.Debug("Generated decoders", "dictionary", u.Name, "role", u.Role,
		"flyweight", flyweight, "aggregates", len(view.Aggregates))
	return nil
}

const decoderTemplate = `{{define "parse"}}
{{- if .Fly}}
		if _, err := codec.Parse{{.M.Codec}}(v); err != nil {
			return true, &codec.FieldError{Tag: {{.M.Tag}}, Err: err}
		}
{{- else}}
		x, err := codec.Parse{{.M.Codec}}(v)
		if err != nil {
			return true, &codec.FieldError{Tag: {{.M.Tag}}, Err: err}
		}
{{- end}}
{{- if .M.Enum}}
		if rejectUnknownEnumValue && {{enumPkg .M.Enum}}.Decode{{.M.Enum.Type}}(string(v)) == {{enumType .M.Enum}}Unknown {
			return true, &codec.FieldError{Tag: {{.M.Tag}}, Err: codec.ErrUnknownEnumValue}
		}
{{- end}}
{{- if .Fly}}
		{{.Recv}}.{{.M.Var}} = v
{{- else}}
		{{.Recv}}.{{.M.Var}} = x
		{{.Recv}}.has{{.M.Ident}} = true
{{- end}}
		return true, nil
{{- end}}

{{- define "storage"}}
{{- if .Fly}}
	{{.M.Var}} []byte
{{- else}}
	{{.M.Var}} {{.M.GoType}}
	has{{.M.Ident}} bool
{{- end}}
{{- end}}

{{- define "getter"}}
func ({{.Recv}} *{{.Type}}) {{.M.Ident}}() {{.M.GoType}} {
{{- if .Fly}}
	v, _ := codec.Parse{{.M.Codec}}({{.Recv}}.{{.M.Var}})
	return v
{{- else}}
	return {{.Recv}}.{{.M.Var}}
{{- end}}
}

func ({{.Recv}} *{{.Type}}) Reset{{.M.Ident}}() {
{{- if .Fly}}
	{{.Recv}}.{{.M.Var}} = nil
{{- else}}
	{{.Recv}}.{{.M.Var}} = {{zero .M.GoType}}
	{{.Recv}}.has{{.M.Ident}} = false
{{- end}}
}
{{end}}

{{- define "contract"}}{{$a := .A}}{{$fly := .V.Flyweight}}
// {{$a.Ident}}Decoder is the {{$a.Name}} {{$a.Kind}} contract common to every dictionary.
type {{$a.Ident}}Decoder interface {
{{- range $a.Members}}
{{- if isField .}}
	{{.Ident}}() {{.GoType}}
{{- if .Probe}}
	Has{{.Ident}}() bool
{{- end}}
{{- if .Enum}}
	{{.Ident}}AsEnum() {{enumType .Enum}}
{{- end}}
	Reset{{.Ident}}()
{{- else if isComponent .}}
	{{.Ident}}() {{.Nested}}Decoder
{{- else}}
	{{.Ident}}Len() int
	{{.Ident}}(i int) {{.Nested}}Decoder
{{- end}}
{{- end}}
	ResetMessage()
}

// {{$a.Ident}}DecoderState holds the decoded shared fields of {{$a.Name}}.
// Dictionary decoders embed it.
type {{$a.Ident}}DecoderState struct {
{{- range $a.Members}}{{if isField .}}
{{- template "storage" (dict "M" . "Fly" $fly)}}
{{- end}}{{end}}
}
{{range $a.Members}}{{if isField .}}
{{- template "getter" (dict "M" . "Fly" $fly "Recv" "s" "Type" (print $a.Ident "DecoderState"))}}
{{- if .Probe}}
func (s *{{$a.Ident}}DecoderState) Has{{.Ident}}() bool {
	return {{stored "s" .}}
}
{{end}}
{{- if .Enum}}
func (s *{{$a.Ident}}DecoderState) {{.Ident}}AsEnum() {{enumType .Enum}} {
	if {{stored "s" .}} {
{{- if $fly}}
		return {{enumPkg .Enum}}.Decode{{.Enum.Type}}(string(s.{{.Var}}))
{{- else}}
		return {{enumPkg .Enum}}.Decode{{.Enum.Type}}(codec.Format{{.Codec}}(s.{{.Var}}))
{{- end}}
	}
	return {{enumType .Enum}}NullVal
}
{{end}}
{{- end}}{{end}}
// ResetMessage clears the shared fields.
func (s *{{$a.Ident}}DecoderState) ResetMessage() {
{{- range $a.Members}}{{if isField .}}
	s.Reset{{.Ident}}()
{{- end}}{{end}}
}

// IsSet reports whether the shared field with tag was decoded.
func (s *{{$a.Ident}}DecoderState) IsSet(tag int) bool {
	switch tag {
{{- range $a.Members}}{{if isField .}}
	case {{.Tag}}:
		return {{stored "s" .}}
{{- end}}{{end}}
	}
	return false
}

// DecodeField stores v if tag is a shared field. It reports whether the tag
// was consumed.
func (s *{{$a.Ident}}DecoderState) DecodeField(tag int, v []byte) (bool, error) {
	switch tag {
{{- range $a.Members}}{{if isField .}}
	case {{.Tag}}:
{{- template "parse" (dict "M" . "Fly" $fly "Recv" "s")}}
{{- end}}{{end}}
	}
	return false, nil
}
{{end}}

{{- define "concrete"}}{{$a := .A}}{{$v := .V}}{{$fly := .V.Flyweight}}{{$t := print $a.Ident "Decoder"}}
// {{$t}} decodes {{$a.Name}}.
type {{$t}} struct {
{{- if $a.Embeds}}
	{{$v.SharedPkg}}.{{$a.Ident}}DecoderState
{{- end}}
{{- range $a.Members}}
{{- if isField .}}{{if not .Delegated}}
{{- template "storage" (dict "M" . "Fly" $fly)}}
{{- end}}
{{- else if isComponent .}}
	{{.Var}} {{.Nested}}Decoder
{{- else}}
	{{.Var}} []*{{.Nested}}Decoder
{{- end}}
{{- end}}
}
{{if $a.Embeds}}
var _ {{$v.SharedPkg}}.{{$a.Ident}}Decoder = (*{{$t}})(nil)
{{end}}
{{- range $a.Members}}
{{- if isField .}}
{{- if not .Delegated}}
{{- template "getter" (dict "M" . "Fly" $fly "Recv" "d" "Type" $t)}}
{{- end}}
{{- if .DeclaresProbe}}
func (d *{{$t}}) Has{{.Ident}}() bool {
	return {{isSet "d" .}}
}
{{end}}
{{- if .DeclaresEnum}}
func (d *{{$t}}) {{.Ident}}AsEnum() {{enumType .Enum}} {
	if {{isSet "d" .}} {
		return {{enumPkg .Enum}}.Decode{{.Enum.Type}}({{repr "d" .}})
	}
	return {{enumType .Enum}}NullVal
}
{{end}}
{{- else if isComponent .}}
{{- if .Contract}}
func (d *{{$t}}) {{.Ident}}() {{$v.SharedPkg}}.{{.Nested}}Decoder {
	return &d.{{.Var}}
}

func (d *{{$t}}) {{.Ident}}Variant() *{{.Nested}}Decoder {
	return &d.{{.Var}}
}
{{else}}
func (d *{{$t}}) {{.Ident}}() *{{.Nested}}Decoder {
	return &d.{{.Var}}
}
{{end}}
{{- else}}
// {{.Ident}}Len is the number of decoded {{.Name}} entries.
func (d *{{$t}}) {{.Ident}}Len() int {
	return len(d.{{.Var}})
}
{{if .Contract}}
func (d *{{$t}}) {{.Ident}}(i int) {{$v.SharedPkg}}.{{.Nested}}Decoder {
	return d.{{.Var}}[i]
}

func (d *{{$t}}) {{.Ident}}Variant(i int) *{{.Nested}}Decoder {
	return d.{{.Var}}[i]
}
{{else}}
func (d *{{$t}}) {{.Ident}}(i int) *{{.Nested}}Decoder {
	return d.{{.Var}}[i]
}
{{end}}
{{- end}}
{{- end}}
{{- if not $a.Embeds}}
// ResetMessage clears every field.
func (d *{{$t}}) ResetMessage() {
{{- range $a.Members}}{{if isField .}}
	d.Reset{{.Ident}}()
{{- end}}{{end}}
}
{{end}}
// Reset clears the decoder for reuse.
func (d *{{$t}}) Reset() {
	d.ResetMessage()
{{- range $a.Members}}
{{- if isField .}}{{if and $a.Embeds (not .Delegated)}}
	d.Reset{{.Ident}}()
{{- end}}
{{- else if isComponent .}}
	d.{{.Var}}.Reset()
{{- else}}
	d.{{.Var}} = d.{{.Var}}[:0]
{{- end}}
{{- end}}
}

func (d *{{$t}}) decodeField(s *codec.Scanner) (bool, error) {
	tag := s.Tag()
	switch tag {
{{- range $a.Members}}
{{- if isField .}}
{{- if .Delegated}}
{{- if .DeclaresEnum}}
	case {{.Tag}}:
		if rejectUnknownEnumValue && {{enumPkg .Enum}}.Decode{{.Enum.Type}}(string(s.Value())) == {{enumType .Enum}}Unknown {
			return true, &codec.FieldError{Tag: tag, Err: codec.ErrUnknownEnumValue}
		}
		return d.{{$a.Ident}}DecoderState.DecodeField(tag, s.Value())
{{- end}}
{{- else}}
	case {{.Tag}}:
		v := s.Value()
{{- template "parse" (dict "M" . "Fly" $fly "Recv" "d")}}
{{- end}}
{{- else if isGroup .}}
	case {{.CounterTag}}:
		n, err := codec.ParseInt(s.Value())
		if err != nil {
			return true, &codec.FieldError{Tag: tag, Err: err}
		}
		if n < 0 {
			return true, &codec.FieldError{Tag: tag, Err: codec.ErrMalformedField}
		}
		d.{{.Var}} = d.{{.Var}}[:0]
		for i := int64(0); i < n; i++ {
			if !s.Next() {
				if err := s.Err(); err != nil {
					return true, err
				}
				return true, &codec.FieldError{Tag: {{.Delimiter}}, Err: codec.ErrMissingField}
			}
			if s.Tag() != {{.Delimiter}} {
				return true, &codec.FieldError{Tag: s.Tag(), Err: codec.ErrMalformedField}
			}
			s.Unread()
			entry := &{{.Nested}}Decoder{}
			if err := entry.decodeEntry(s); err != nil {
				return true, err
			}
			d.{{.Var}} = append(d.{{.Var}}, entry)
		}
		return true, nil
{{- end}}
{{- end}}
	}
{{- if $a.Embeds}}
	if ok, err := d.{{$a.Ident}}DecoderState.DecodeField(tag, s.Value()); ok || err != nil {
		return ok, err
	}
{{- end}}
{{- range $a.Members}}{{if isComponent .}}
	if ok, err := d.{{.Var}}.decodeField(s); ok || err != nil {
		return ok, err
	}
{{- end}}{{end}}
	return false, nil
}
{{if $a.CounterTag}}
// decodeEntry decodes one entry. The entry ends before the next delimiter
// or the first tag it does not define.
func (d *{{$t}}) decodeEntry(s *codec.Scanner) error {
	first := true
	for s.Next() {
		if !first && s.Tag() == {{$a.Delimiter}} {
			s.Unread()
			return nil
		}
		first = false
		ok, err := d.decodeField(s)
		if err != nil {
			return err
		}
		if !ok {
			s.Unread()
			return nil
		}
	}
	return s.Err()
}
{{end}}
{{- if isMessage $a}}
{{- if $fly}}
// Wrap resets d and indexes buf. Values are parsed on access, so buf must
// not change while d is in use.
func (d *{{$t}}) Wrap(buf []byte) error {
{{- else}}
// Decode resets d and decodes the fields of buf.
func (d *{{$t}}) Decode(buf []byte) error {
{{- end}}
	d.Reset()
	s := codec.NewScanner(buf)
	for s.Next() {
		ok, err := d.decodeField(s)
		if err != nil {
			return err
		}
		if !ok && rejectUnknownField {
			return &codec.FieldError{Tag: s.Tag(), Err: codec.ErrUnknownField}
		}
	}
	return s.Err()
}
{{end}}
// Validate reports the required members of {{$a.Name}} that were not decoded.
func (d *{{$t}}) Validate() error {
	var missing []int
{{- range $a.Members}}
{{- if and (isField .) .Required}}
	if !({{isSet "d" .}}) {
		missing = append(missing, {{.Tag}})
	}
{{- else if and (isGroup .) .Required}}
	if len(d.{{.Var}}) == 0 {
		missing = append(missing, {{.CounterTag}})
	}
{{- end}}
{{- end}}
	if len(missing) > 0 {
		return &codec.MissingFieldsError{Container: {{quote $a.Name}}, Tags: missing}
	}
{{- range $a.Members}}
{{- if and (isComponent .) .Required}}
	if err := d.{{.Var}}.Validate(); err != nil {
		return err
	}
{{- else if isGroup .}}
	for _, entry := range d.{{.Var}} {
		if err := entry.Validate(); err != nil {
			return err
		}
	}
{{- end}}
{{- end}}
	return nil
}
{{end}}

{{- define "policy"}}
// RejectUnknownField names the environment variable that makes decoders
// reject undefined tags.
const RejectUnknownField = {{quote .RejectUnknownField}}

// RejectUnknownEnumValue names the environment variable that makes decoders
// reject undefined enum representations.
const RejectUnknownEnumValue = {{quote .RejectUnknownEnumValue}}

var (
	rejectUnknownField     = codec.PolicyEnabled(RejectUnknownField)
	rejectUnknownEnumValue = codec.PolicyEnabled(RejectUnknownEnumValue)
)
{{end}}

{{- template "policy" .Options}}
{{- range .Aggregates}}
{{- if $.IsShared}}
{{- template "contract" (dict "A" . "V" $)}}
{{- else}}
{{- template "concrete" (dict "A" . "V" $)}}
{{- end}}
{{- end}}
`
