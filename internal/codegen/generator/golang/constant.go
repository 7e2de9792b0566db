package golang

import (
	"log/slog"

	"github.com/Alia5/sharedcodecs/internal/codegen/meta"
	"github.com/Alia5/sharedcodecs/internal/codegen/output"
)

func generateConstants(logger *slog.Logger, u *meta.Unit, dst output.Destination) error {
	data := struct {
		unitView
		Tags         []meta.Tag
		MessageTypes []meta.MessageType
	}{
		unitView:     newView(u, u.Namespaces.Parent),
		Tags:         u.Tags(),
		MessageTypes: u.MessageTypes(),
	}
	body, err := execute("constants", constantsTemplate, funcs(u, false), data)
	if err != nil {
		return err
	}
	if err := writeGo(dst, "constants.go", data.Package, nil, body); err != nil {
		return err
	}

	logger.Debug("Generated constants", "dictionary", u.Name, "role", u.Role,
		"tags", len(data.Tags), "messages", len(data.MessageTypes))
	return nil
}

const constantsTemplate = `{{if .Tags -}}
// Field tags.
const (
{{- range .Tags}}
	{{.Ident}} = {{.Number}}
{{- end}}
)
{{end}}
{{- if .MessageTypes}}
// Message types.
const (
{{- range .MessageTypes}}
	{{.Ident}} = {{quote .Value}}
{{- end}}
)
{{end}}`
