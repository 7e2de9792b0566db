// Package golang emits Go codecs for resolved dictionaries.
//
// The shared unit becomes capability interfaces plus embeddable state
// structs; each specialized unit embeds that state in its own variant
// structs and adds its local members. A standalone unit is plain structs.
package golang

import (
	"bytes"
	"fmt"
	"log/slog"
	"path"
	"strconv"
	"strings"
	"text/template"

	"github.com/Alia5/sharedcodecs/internal/codegen/common"
	"github.com/Alia5/sharedcodecs/internal/codegen/meta"
	"github.com/Alia5/sharedcodecs/internal/codegen/output"
	"github.com/Alia5/sharedcodecs/internal/codegen/share"
	"github.com/Alia5/sharedcodecs/internal/diag"
	"github.com/Alia5/sharedcodecs/internal/dictionary"

	"golang.org/x/tools/imports"
)

// Backend emits one artifact kind of a unit into one namespace.
type Backend struct {
	Name      string
	Namespace func(meta.Namespaces) string
	// Enabled is nil for backends that always run.
	Enabled  func(*meta.Unit) bool
	Generate func(logger *slog.Logger, u *meta.Unit, dst output.Destination) error
}

// Backends returns every backend in emission order. Later artifacts may
// reference earlier ones of the same unit.
func Backends() []Backend {
	parent := func(n meta.Namespaces) string { return n.Parent }
	encoder := func(n meta.Namespaces) string { return n.Encoder }
	decoder := func(n meta.Namespaces) string { return n.Decoder }
	flyweight := func(n meta.Namespaces) string { return n.DecoderFlyweight }

	return []Backend{
		{Name: "enum", Namespace: parent, Generate: generateEnums},
		{Name: "constant", Namespace: parent, Generate: generateConstants},
		{Name: "facade", Namespace: parent, Generate: generateFacade},
		{Name: "encoder", Namespace: encoder, Generate: generateEncoders},
		{Name: "decoder", Namespace: decoder, Generate: generateDecoders},
		{
			Name:      "decoder_flyweight",
			Namespace: flyweight,
			Enabled:   func(u *meta.Unit) bool { return u.Options.Flyweight },
			Generate:  generateFlyweightDecoders,
		},
		{Name: "printer", Namespace: decoder, Enabled: (*meta.Unit).Concrete, Generate: generatePrinters},
		{Name: "acceptor", Namespace: decoder, Generate: generateAcceptors},
	}
}

// Import aliases used by every template.
const (
	codecAlias       = "codec"
	sharedCodecAlias = "sharedcodec"
)

type goImport struct {
	Alias string
	Path  string
}

// unitView is the data every template renders from.
type unitView struct {
	*meta.Unit
	Package    string
	Aggregates []*meta.Aggregate
	// SharedPkg is the import alias of the shared package of the same side.
	SharedPkg string
	Flyweight bool
}

func (v unitView) IsShared() bool      { return v.Role == meta.RoleShared }
func (v unitView) IsSpecialized() bool { return v.Role == meta.RoleSpecialized }

func newView(u *meta.Unit, ns string) unitView {
	return unitView{
		Unit:       u,
		Package:    u.Namespaces.Package(ns),
		Aggregates: u.Aggregates(),
	}
}

// parentImports are the parent namespaces a file in u may reference.
func parentImports(u *meta.Unit) []goImport {
	imports := []goImport{{Alias: codecAlias, Path: u.Namespaces.Import(u.Namespaces.Parent)}}
	if u.Role == meta.RoleSpecialized {
		imports = append(imports, goImport{Alias: sharedCodecAlias, Path: u.SharedNamespaces.Import(u.SharedNamespaces.Parent)})
	}
	return imports
}

func funcs(u *meta.Unit, flyweight bool) template.FuncMap {
	return template.FuncMap{
		"quote":      strconv.Quote,
		"join":       strings.Join,
		"lowerFirst": lowerFirst,
		"zero":       zero,
		"isField":    func(m meta.Member) bool { return m.Kind == dictionary.EntryField },
		"isComponent": func(m meta.Member) bool {
			return m.Kind == dictionary.EntryComponent
		},
		"isGroup":   func(m meta.Member) bool { return m.Kind == dictionary.EntryGroup },
		"isMessage": func(a *meta.Aggregate) bool { return a.Kind == share.KindMessage },
		"enumType": func(ref *meta.EnumRef) string {
			if ref.Shared && u.Role == meta.RoleSpecialized {
				return sharedCodecAlias + "." + ref.Type
			}
			return codecAlias + "." + ref.Type
		},
		"msgTypeConst": func(a *meta.Aggregate) string {
			if a.MsgTypeShared {
				return sharedCodecAlias + ".MsgType" + a.Ident
			}
			return codecAlias + ".MsgType" + a.Ident
		},
		"enumPkg": func(ref *meta.EnumRef) string {
			if ref.Shared && u.Role == meta.RoleSpecialized {
				return sharedCodecAlias
			}
			return codecAlias
		},
		"dict": dict,
		// comment folds free text onto one comment line.
		"comment": func(s string) string { return strings.Join(strings.Fields(s), " ") },
		// stored tests the member's own storage; isSet also follows
		// delegation to an embedded shared state.
		"stored": func(recv string, m meta.Member) string {
			if flyweight {
				return fmt.Sprintf("%s.%s != nil", recv, m.Var)
			}
			return fmt.Sprintf("%s.has%s", recv, m.Ident)
		},
		"isSet": func(recv string, m meta.Member) string {
			if m.Delegated() {
				return fmt.Sprintf("%s.IsSet(%d)", recv, m.Tag)
			}
			if flyweight {
				return fmt.Sprintf("%s.%s != nil", recv, m.Var)
			}
			return fmt.Sprintf("%s.has%s", recv, m.Ident)
		},
		// repr is the wire representation of a set field, used for enum lookup.
		"repr": func(recv string, m meta.Member) string {
			switch {
			case m.Delegated():
				return fmt.Sprintf("codec.Format%s(%s.%s())", m.Codec, recv, m.Ident)
			case flyweight:
				return fmt.Sprintf("string(%s.%s)", recv, m.Var)
			default:
				return fmt.Sprintf("codec.Format%s(%s.%s)", m.Codec, recv, m.Var)
			}
		},
	}
}

// dict builds a map from alternating keys and values so a template can pass
// several values to a nested template.
func dict(kv ...any) (map[string]any, error) {
	if len(kv)%2 != 0 {
		return nil, fmt.Errorf("dict: odd number of arguments")
	}
	m := make(map[string]any, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			return nil, fmt.Errorf("dict: key %v is not a string", kv[i])
		}
		m[key] = kv[i+1]
	}
	return m, nil
}

func lowerFirst(s string) string {
	return common.ToCamelCase(s)
}

func zero(goType string) string {
	switch goType {
	case "string":
		return `""`
	case "bool":
		return "false"
	case "[]byte":
		return "nil"
	default:
		return "0"
	}
}

// execute renders tmplText with data.
func execute(name, tmplText string, fm template.FuncMap, data any) ([]byte, error) {
	tmpl, err := template.New(name).Funcs(fm).Parse(tmplText)
	if err != nil {
		return nil, fmt.Errorf("parse %s template: %w", name, err)
	}
	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return nil, fmt.Errorf("execute %s template: %w", name, err)
	}
	return body.Bytes(), nil
}

// processOptions prune unused imports and format. Every import a template
// may need is declared up front, so nothing is ever added.
var processOptions = &imports.Options{
	Comments:  true,
	TabIndent: true,
	TabWidth:  8,
}

// writeGo assembles a Go file from body with every candidate import, drops
// the imports body does not use, formats it and writes it to dst.
func writeGo(dst output.Destination, file, pkg string, candidates []goImport, body []byte) error {
	header, err := common.GeneratedHeader()
	if err != nil {
		return err
	}

	var src bytes.Buffer
	fmt.Fprintf(&src, "%s\n\npackage %s\n\n", header, pkg)
	if len(candidates) > 0 {
		src.WriteString("import (\n")
		for _, imp := range candidates {
			if imp.Alias != "" && imp.Alias != path.Base(imp.Path) {
				fmt.Fprintf(&src, "\t%s %q\n", imp.Alias, imp.Path)
			} else {
				fmt.Fprintf(&src, "\t%q\n", imp.Path)
			}
		}
		src.WriteString(")\n\n")
	}
	src.Write(body)

	name := path.Join(dst.Namespace(), file)
	formatted, err := imports.Process(name, src.Bytes(), processOptions)
	if err != nil {
		return diag.Emission(name, fmt.Errorf("format generated source: %w", err))
	}
	return dst.WriteFile(file, formatted)
}
