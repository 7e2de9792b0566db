package golang

import (
	"log/slog"

	"github.com/Alia5/sharedcodecs/internal/codegen/meta"
	"github.com/Alia5/sharedcodecs/internal/codegen/output"
)

// generateAcceptors emits the callback interface for the unit's messages.
// Concrete units also get a Dispatcher that decodes by MsgType, and a
// specialized unit an adapter onto the shared acceptor.
func generateAcceptors(logger *slog.Logger, u *meta.Unit, dst output.Destination) error {
	data := struct {
		unitView
		Messages []*meta.Aggregate
	}{
		unitView: newView(u, u.Namespaces.Decoder),
		Messages: u.Messages(),
	}
	data.SharedPkg = sharedDecoderAlias

	body, err := execute("acceptor", acceptorTemplate, funcs(u, false), data)
	if err != nil {
		return err
	}
	imports := append(parentImports(u), goImport{Path: "fmt"})
	if u.Role == meta.RoleSpecialized {
		imports = append(imports, goImport{Alias: sharedDecoderAlias, Path: u.SharedNamespaces.Import(u.SharedNamespaces.Decoder)})
	}
	if err := writeGo(dst, "acceptor.go", data.Package, imports, body); err != nil {
		return err
	}

	logger.Debug("Generated acceptor", "dictionary", u.Name, "role", u.Role, "messages", len(data.Messages))
	return nil
}

const acceptorTemplate = `{{if .IsShared -}}
// Acceptor receives the messages every dictionary defines.
type Acceptor interface {
{{- range .Messages}}
	On{{.Ident}}(m {{.Ident}}Decoder) error
{{- end}}
}
{{else -}}
// Acceptor receives decoded {{.Name}} messages.
type Acceptor interface {
{{- range .Messages}}
	On{{.Ident}}(m *{{.Ident}}Decoder) error
{{- end}}
}

// Dispatcher decodes message bodies and hands them to an Acceptor. Decoders
// are reused between calls, so an Acceptor must not retain them.
type Dispatcher struct {
	acceptor Acceptor
{{- range .Messages}}
	{{lowerFirst .Ident}} {{.Ident}}Decoder
{{- end}}
}

func NewDispatcher(a Acceptor) *Dispatcher {
	return &Dispatcher{acceptor: a}
}

// Dispatch decodes body as the message msgType names, validates it and
// calls the matching acceptor method.
func (d *Dispatcher) Dispatch(msgType string, body []byte) error {
	switch msgType {
{{- range .Messages}}
	case {{msgTypeConst .}}:
		if err := d.{{lowerFirst .Ident}}.Decode(body); err != nil {
			return err
		}
		if err := d.{{lowerFirst .Ident}}.Validate(); err != nil {
			return err
		}
		return d.acceptor.On{{.Ident}}(&d.{{lowerFirst .Ident}})
{{- end}}
	}
	return &codec.FieldError{Tag: 35, Err: fmt.Errorf("%w: %q", codec.ErrUnknownMessageType, msgType)}
}
{{- if .IsSpecialized}}

// Shared adapts an acceptor of the shared messages. Messages outside the
// shared contract are accepted and dropped.
func Shared(a {{.SharedPkg}}.Acceptor) Acceptor {
	return sharedAcceptor{shared: a}
}

type sharedAcceptor struct {
	shared {{.SharedPkg}}.Acceptor
}
{{range .Messages}}
func (a sharedAcceptor) On{{.Ident}}(m *{{.Ident}}Decoder) error {
{{- if .Contract}}
	return a.shared.On{{.Ident}}(m)
{{- else}}
	return nil
{{- end}}
}
{{end}}
{{- end}}
{{end}}`
