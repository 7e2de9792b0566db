// Package dictionary holds the intermediate representation of a protocol
// dictionary: messages, fields, components, repeating groups and enums.
//
// Values are built by the parser and the fragment merger and are treated as
// read-only afterwards. Within one dictionary every reference to a field,
// component or group by name resolves to the same pointer.
package dictionary

import (
	"fmt"
	"sort"
)

// Presence says whether an entry is mandatory in the container using it.
type Presence int

const (
	Required Presence = iota
	Optional
)

func (p Presence) String() string {
	if p == Optional {
		return "OPTIONAL"
	}
	return "REQUIRED"
}

// Relax returns the presence a contract shared by p and o must use.
func (p Presence) Relax(o Presence) Presence {
	if p == Optional || o == Optional {
		return Optional
	}
	return Required
}

// Spec identifies the protocol version a dictionary describes.
type Spec struct {
	Type        string // FIX or FIXT
	Major       int
	Minor       int
	ServicePack int
}

// Dictionary is one complete protocol schema. A nil-named (empty) dictionary
// is the shared root produced by unification.
type Dictionary struct {
	Name       string
	Spec       Spec
	Messages   []*Message
	Fields     map[string]*Field
	Components map[string]*Component
	Groups     map[string]*Group
	Header     *Message
	Trailer    *Message
}

func New(name string) *Dictionary {
	return &Dictionary{
		Name:       name,
		Fields:     make(map[string]*Field),
		Components: make(map[string]*Component),
		Groups:     make(map[string]*Group),
	}
}

func (d *Dictionary) Field(name string) *Field         { return d.Fields[name] }
func (d *Dictionary) Component(name string) *Component { return d.Components[name] }
func (d *Dictionary) Group(name string) *Group         { return d.Groups[name] }

func (d *Dictionary) Message(name string) *Message {
	for _, m := range d.Messages {
		if m.Name == name {
			return m
		}
	}
	if d.Header != nil && d.Header.Name == name {
		return d.Header
	}
	if d.Trailer != nil && d.Trailer.Name == name {
		return d.Trailer
	}
	return nil
}

// BeginString renders the session BeginString, e.g. FIX.4.4.
func (d *Dictionary) BeginString() string {
	if d.Spec.Type == "" {
		return ""
	}
	return fmt.Sprintf("%s.%d.%d", d.Spec.Type, d.Spec.Major, d.Spec.Minor)
}

// Containers returns header, messages and trailer in declaration order.
func (d *Dictionary) Containers() []*Message {
	out := make([]*Message, 0, len(d.Messages)+2)
	if d.Header != nil {
		out = append(out, d.Header)
	}
	out = append(out, d.Messages...)
	if d.Trailer != nil {
		out = append(out, d.Trailer)
	}
	return out
}

func (d *Dictionary) FieldNames() []string     { return sortedKeys(d.Fields) }
func (d *Dictionary) ComponentNames() []string { return sortedKeys(d.Components) }
func (d *Dictionary) GroupNames() []string     { return sortedKeys(d.Groups) }

func (d *Dictionary) String() string {
	name := d.Name
	if name == "" {
		name = "<shared>"
	}
	return fmt.Sprintf("Dictionary{%s messages=%d fields=%d components=%d groups=%d}",
		name, len(d.Messages), len(d.Fields), len(d.Components), len(d.Groups))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// EnumValue is one named representation of an enum field.
type EnumValue struct {
	Name           string
	Representation string
	Description    string
	AltNames       []string // names losing a representation clash, documentation only
}

// Field is a tagged value. Its type is intrinsic; presence is decided by the
// container that references it.
type Field struct {
	Name   string
	Number int
	Type   FieldType
	Values []EnumValue
}

func (f *Field) IsEnum() bool { return len(f.Values) > 0 }

func (f *Field) ValueByRepresentation(repr string) (EnumValue, bool) {
	for _, v := range f.Values {
		if v.Representation == repr {
			return v, true
		}
	}
	return EnumValue{}, false
}

// EntryKind tells which element an Entry refers to.
type EntryKind int

const (
	EntryField EntryKind = iota
	EntryComponent
	EntryGroup
)

func (k EntryKind) String() string {
	switch k {
	case EntryComponent:
		return "component"
	case EntryGroup:
		return "group"
	default:
		return "field"
	}
}

// Entry is one member of a container. Exactly one of Field, Component or
// Group is set.
type Entry struct {
	Presence  Presence
	Field     *Field
	Component *Component
	Group     *Group
}

func (e Entry) Kind() EntryKind {
	switch {
	case e.Component != nil:
		return EntryComponent
	case e.Group != nil:
		return EntryGroup
	default:
		return EntryField
	}
}

func (e Entry) Name() string {
	switch {
	case e.Field != nil:
		return e.Field.Name
	case e.Component != nil:
		return e.Component.Name
	case e.Group != nil:
		return e.Group.Name
	}
	return ""
}

func (e Entry) Valid() bool {
	n := 0
	for _, set := range []bool{e.Field != nil, e.Component != nil, e.Group != nil} {
		if set {
			n++
		}
	}
	return n == 1
}

// Aggregate is a named, ordered sequence of entries.
type Aggregate struct {
	Name    string
	Entries []Entry
}

func (a *Aggregate) Entry(name string) (Entry, bool) {
	for _, e := range a.Entries {
		if e.Name() == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Fields walks every field reachable from the aggregate, descending into
// components and groups. Each field is visited once.
func (a *Aggregate) Fields(visit func(*Field)) {
	seen := make(map[*Field]bool)
	var walk func(*Aggregate)
	walk = func(agg *Aggregate) {
		for _, e := range agg.Entries {
			switch {
			case e.Field != nil:
				if !seen[e.Field] {
					seen[e.Field] = true
					visit(e.Field)
				}
			case e.Component != nil:
				walk(&e.Component.Aggregate)
			case e.Group != nil:
				if e.Group.Counter != nil && !seen[e.Group.Counter] {
					seen[e.Group.Counter] = true
					visit(e.Group.Counter)
				}
				walk(&e.Group.Aggregate)
			}
		}
	}
	walk(a)
}

type Message struct {
	Aggregate
	MsgType  string
	Category string // admin or app
}

type Component struct {
	Aggregate
}

// Group is a repeating block preceded by its counting field.
type Group struct {
	Aggregate
	Counter *Field
}
