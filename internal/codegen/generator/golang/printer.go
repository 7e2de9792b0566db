package golang

import (
	"log/slog"

	"github.com/Alia5/sharedcodecs/internal/codegen/meta"
	"github.com/Alia5/sharedcodecs/internal/codegen/output"
)

// generatePrinters renders every concrete decoder as Name{Field=value, ...}.
func generatePrinters(logger *slog.Logger, u *meta.Unit, dst output.Destination) error {
	view := newView(u, u.Namespaces.Decoder)
	body, err := execute("printer", printerTemplate, funcs(u, false), view)
	if err != nil {
		return err
	}
	if err := writeGo(dst, "printer.go", view.Package, parentImports(u), body); err != nil {
		return err
	}

	logger.Debug("Generated printers", "dictionary", u.Name, "aggregates", len(view.Aggregates))
	return nil
}

const printerTemplate = `{{range $a := .Aggregates}}{{$t := print $a.Ident "Decoder"}}
// AppendTo appends a readable rendering of the decoded {{$a.Name}}.
func (d *{{$t}}) AppendTo(buf []byte) []byte {
	buf = append(buf, "{{$a.Name}}{"...)
	n := 0
{{- range $a.Members}}
{{- if isField .}}
	if {{isSet "d" .}} {
{{- if .Enum}}
		buf = codec.PrintField(buf, &n, {{quote .Name}}, codec.Format{{.Codec}}(d.{{.Ident}}())+" ("+d.{{.Ident}}AsEnum().String()+")")
{{- else}}
		buf = codec.PrintField(buf, &n, {{quote .Name}}, codec.Format{{.Codec}}(d.{{.Ident}}()))
{{- end}}
	}
{{- else if isComponent .}}
	buf = codec.PrintSep(buf, &n)
	buf = d.{{.Var}}.AppendTo(buf)
{{- else}}
	if len(d.{{.Var}}) > 0 {
		buf = codec.PrintSep(buf, &n)
		buf = append(buf, "{{.Name}}=["...)
		for i, entry := range d.{{.Var}} {
			if i > 0 {
				buf = append(buf, ", "...)
			}
			buf = entry.AppendTo(buf)
		}
		buf = append(buf, ']')
	}
{{- end}}
{{- end}}
	return append(buf, '}')
}

func (d *{{$t}}) String() string {
	return string(d.AppendTo(nil))
}
{{end}}`
