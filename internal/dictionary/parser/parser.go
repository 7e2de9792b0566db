// Package parser turns one raw schema fragment into a partial dictionary.
//
// A fragment may reference fields and components defined by earlier
// fragments; those references resolve against the base dictionary first so
// that the earliest definition of a name always wins.
package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/Alia5/sharedcodecs/internal/diag"
	"github.com/Alia5/sharedcodecs/internal/dictionary"
)

type Options struct {
	// AllowDuplicateFields tolerates a field defined, or referenced from one
	// container, more than once within a single fragment. The first wins.
	AllowDuplicateFields bool
}

// Parse decodes one fragment. The returned dictionary holds only the
// definitions that are new relative to base; entries inside it point at
// base's objects wherever base already defines the name. base may be nil.
func Parse(r io.Reader, base *dictionary.Dictionary, opts Options) (*dictionary.Dictionary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, diag.Malformed("", fmt.Errorf("read: %w", err))
	}
	doc, _, err := decode(data)
	if err != nil {
		return nil, diag.Malformed("", err)
	}

	b := &builder{
		base:       base,
		opts:       opts,
		out:        dictionary.New(""),
		rawComps:   make(map[string]*container),
		building:   make(map[string]bool),
		seenFields: make(map[string]bool),
	}
	if base != nil {
		b.out.Name = base.Name
	}
	if err := b.build(doc); err != nil {
		return nil, err
	}
	return b.out, nil
}

type builder struct {
	base       *dictionary.Dictionary
	opts       Options
	out        *dictionary.Dictionary
	rawComps   map[string]*container
	building   map[string]bool
	seenFields map[string]bool
}

func (b *builder) build(doc *document) error {
	b.out.Spec = dictionary.Spec{
		Type:        strings.ToUpper(doc.Type),
		Major:       doc.Major,
		Minor:       doc.Minor,
		ServicePack: doc.ServicePack,
	}

	for i := range doc.Fields {
		if err := b.defineField(&doc.Fields[i]); err != nil {
			return err
		}
	}

	for i := range doc.Components {
		c := &doc.Components[i]
		if c.Name == "" {
			return diag.Structural("component", "component at position %d has no name", i)
		}
		if _, dup := b.rawComps[c.Name]; dup {
			return diag.Duplicate("component "+c.Name, "defined more than once in one fragment")
		}
		b.rawComps[c.Name] = c
	}
	// Components are built in declaration order; forward references are
	// resolved on demand.
	for i := range doc.Components {
		if _, err := b.component(doc.Components[i].Name); err != nil {
			return err
		}
	}

	if doc.Header != nil && (b.base == nil || b.base.Header == nil) {
		h, err := b.message(doc.Header, "Header")
		if err != nil {
			return err
		}
		b.out.Header = h
	}
	if doc.Trailer != nil && (b.base == nil || b.base.Trailer == nil) {
		t, err := b.message(doc.Trailer, "Trailer")
		if err != nil {
			return err
		}
		b.out.Trailer = t
	}

	seenMsgs := make(map[string]bool, len(doc.Messages))
	for i := range doc.Messages {
		raw := &doc.Messages[i]
		if raw.Name == "" {
			return diag.Structural("message", "message at position %d has no name", i)
		}
		if seenMsgs[raw.Name] {
			return diag.Duplicate("message "+raw.Name, "defined more than once in one fragment")
		}
		seenMsgs[raw.Name] = true
		if b.base != nil && b.base.Message(raw.Name) != nil {
			continue
		}
		m, err := b.message(raw, raw.Name)
		if err != nil {
			return err
		}
		b.out.Messages = append(b.out.Messages, m)
	}
	return nil
}

func (b *builder) defineField(raw *fieldDef) error {
	if raw.Name == "" {
		return diag.Structural("field", "field with tag %d has no name", raw.Number)
	}
	entity := "field " + raw.Name
	if b.seenFields[raw.Name] {
		if b.opts.AllowDuplicateFields {
			return nil
		}
		return diag.Duplicate(entity, "defined more than once in one fragment")
	}
	b.seenFields[raw.Name] = true
	if b.base != nil && b.base.Field(raw.Name) != nil {
		return nil
	}
	if raw.Number <= 0 {
		return diag.Structural(entity, "invalid tag number %d", raw.Number)
	}
	ft, ok := dictionary.ParseFieldType(raw.Type)
	if !ok {
		return diag.Structural(entity, "unknown type %q", raw.Type)
	}

	f := &dictionary.Field{Name: raw.Name, Number: raw.Number, Type: ft}
	reprs := make(map[string]bool, len(raw.Values))
	names := make(map[string]bool, len(raw.Values))
	for _, v := range raw.Values {
		if v.Enum == "" || v.Description == "" {
			return diag.Structural(entity, "enum value needs both a representation and a name")
		}
		if reprs[v.Enum] {
			return diag.Structural(entity, "enum representation %q repeated", v.Enum)
		}
		if names[v.Description] {
			return diag.Structural(entity, "enum name %q repeated", v.Description)
		}
		reprs[v.Enum] = true
		names[v.Description] = true
		f.Values = append(f.Values, dictionary.EnumValue{
			Name:           v.Description,
			Representation: v.Enum,
			Description:    v.Doc,
		})
	}
	b.out.Fields[f.Name] = f
	return nil
}

func (b *builder) field(name, owner string) (*dictionary.Field, error) {
	if b.base != nil {
		if f := b.base.Field(name); f != nil {
			return f, nil
		}
	}
	if f := b.out.Field(name); f != nil {
		return f, nil
	}
	return nil, diag.Structural(owner, "references undefined field %q", name)
}

func (b *builder) component(name string) (*dictionary.Component, error) {
	if b.base != nil {
		if c := b.base.Component(name); c != nil {
			return c, nil
		}
	}
	if c := b.out.Component(name); c != nil {
		return c, nil
	}
	raw, ok := b.rawComps[name]
	if !ok {
		return nil, diag.Structural("component "+name, "undefined component")
	}
	if b.building[name] {
		return nil, diag.Structural("component "+name, "component contains itself")
	}
	b.building[name] = true
	defer delete(b.building, name)

	entries, err := b.entries(raw.Entries, "component "+name)
	if err != nil {
		return nil, err
	}
	c := &dictionary.Component{Aggregate: dictionary.Aggregate{Name: name, Entries: entries}}
	b.out.Components[name] = c
	return c, nil
}

func (b *builder) message(raw *container, name string) (*dictionary.Message, error) {
	entries, err := b.entries(raw.Entries, "message "+name)
	if err != nil {
		return nil, err
	}
	return &dictionary.Message{
		Aggregate: dictionary.Aggregate{Name: name, Entries: entries},
		MsgType:   raw.MsgType,
		Category:  raw.Category,
	}, nil
}

func (b *builder) group(raw *entry, owner string) (*dictionary.Group, error) {
	if b.base != nil {
		if g := b.base.Group(raw.Name); g != nil {
			return g, nil
		}
	}
	if g := b.out.Group(raw.Name); g != nil {
		return g, nil
	}
	entity := "group " + raw.Name
	counter, err := b.field(raw.Name, entity)
	if err != nil {
		return nil, diag.Structural(entity, "in %s: missing counting field", owner)
	}
	if len(raw.Entries) == 0 {
		return nil, diag.Structural(entity, "in %s: group has no entries", owner)
	}
	entries, err := b.entries(raw.Entries, entity)
	if err != nil {
		return nil, err
	}
	g := &dictionary.Group{
		Aggregate: dictionary.Aggregate{Name: raw.Name, Entries: entries},
		Counter:   counter,
	}
	b.out.Groups[g.Name] = g
	return g, nil
}

func (b *builder) entries(raws []entry, owner string) ([]dictionary.Entry, error) {
	out := make([]dictionary.Entry, 0, len(raws))
	seen := make(map[string]bool, len(raws))
	for i := range raws {
		raw := &raws[i]
		if raw.Name == "" {
			return nil, diag.Structural(owner, "entry at position %d has no name", i)
		}
		if seen[raw.Name] {
			if b.opts.AllowDuplicateFields {
				continue
			}
			return nil, diag.Duplicate(owner, "entry %q appears more than once", raw.Name)
		}
		seen[raw.Name] = true

		e := dictionary.Entry{Presence: dictionary.Required}
		if !raw.Required {
			e.Presence = dictionary.Optional
		}
		switch raw.kind() {
		case "field":
			f, err := b.field(raw.Name, owner)
			if err != nil {
				return nil, err
			}
			e.Field = f
		case "component":
			c, err := b.component(raw.Name)
			if err != nil {
				return nil, err
			}
			e.Component = c
		case "group":
			g, err := b.group(raw, owner)
			if err != nil {
				return nil, err
			}
			e.Group = g
		default:
			return nil, diag.Structural(owner, "unknown entry kind %q for %q", raw.kind(), raw.Name)
		}
		out = append(out, e)
	}
	return out, nil
}
