package golang

import (
	"log/slog"

	"github.com/Alia5/sharedcodecs/internal/codegen/meta"
	"github.com/Alia5/sharedcodecs/internal/codegen/output"
)

func generateEnums(logger *slog.Logger, u *meta.Unit, dst output.Destination) error {
	enums := u.Enums()
	if len(enums) == 0 {
		logger.Debug("No enums to generate", "dictionary", u.Name, "role", u.Role)
		return nil
	}

	data := struct {
		unitView
		Enums []meta.Enum
	}{
		unitView: newView(u, u.Namespaces.Parent),
		Enums:    enums,
	}
	body, err := execute("enums", enumsTemplate, funcs(u, false), data)
	if err != nil {
		return err
	}
	if err := writeGo(dst, "enums.go", data.Package, []goImport{{Path: "strconv"}}, body); err != nil {
		return err
	}

	logger.Debug("Generated enums", "dictionary", u.Name, "role", u.Role, "count", len(enums))
	return nil
}

const enumsTemplate = `type enumValue struct {
	repr string
	name string
}
{{range $e := .Enums}}
// {{$e.Type}} enumerates the values of field {{$e.Field}} ({{$e.Tag}}).
type {{$e.Type}} int

const (
	// {{$e.Type}}NullVal is the value of an absent field.
	{{$e.Type}}NullVal {{$e.Type}} = -1
	// {{$e.Type}}Unknown is a representation the dictionary does not define.
	{{$e.Type}}Unknown {{$e.Type}} = -2
)

const (
{{- range $i, $v := $e.Values}}
	// {{$v.Ident}} is {{quote $v.Representation}}.
{{- with $v.Description}}
	//
	// {{comment .}}
{{- end}}
{{- if $v.AltNames}}
	//
	// Altnames: {{join $v.AltNames ", "}}
{{- end}}
	{{$v.Ident}} {{$e.Type}} = {{$i}}
{{- end}}
)

var {{lowerFirst $e.Type}}Values = [...]enumValue{
{{- range $e.Values}}
	{ {{- quote .Representation}}, {{quote .Name -}} },
{{- end}}
}

// Decode{{$e.Type}} maps a wire representation to its constant. The empty
// representation is {{$e.Type}}NullVal; anything undefined is {{$e.Type}}Unknown.
func Decode{{$e.Type}}(repr string) {{$e.Type}} {
	switch repr {
	case "":
		return {{$e.Type}}NullVal
{{- range $e.Values}}
	case {{quote .Representation}}:
		return {{.Ident}}
{{- end}}
	}
	return {{$e.Type}}Unknown
}

// Representation returns the wire form of v, or "" for the sentinels.
func (v {{$e.Type}}) Representation() string {
	if v < 0 || int(v) >= len({{lowerFirst $e.Type}}Values) {
		return ""
	}
	return {{lowerFirst $e.Type}}Values[v].repr
}

func (v {{$e.Type}}) String() string {
	switch {
	case v == {{$e.Type}}NullVal:
		return "NULL_VAL"
	case v == {{$e.Type}}Unknown:
		return "UNKNOWN"
	case v < 0 || int(v) >= len({{lowerFirst $e.Type}}Values):
		return "{{$e.Type}}(" + strconv.Itoa(int(v)) + ")"
	}
	return {{lowerFirst $e.Type}}Values[v].name
}
{{end}}`
