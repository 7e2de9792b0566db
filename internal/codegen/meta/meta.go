// Package meta holds the emission units handed to code generation backends:
// a resolved dictionary, its namespaces, and the accessor surface each
// container exposes. Backends render from these views and never consult the
// unifier directly.
package meta

import (
	"path"

	"github.com/Alia5/sharedcodecs/internal/codegen/common"
	"github.com/Alia5/sharedcodecs/internal/codegen/share"
	"github.com/Alia5/sharedcodecs/internal/dictionary"
)

// Role says how a unit relates to the shared contract.
type Role int

const (
	// RoleStandalone is a single dictionary emitted without sharing.
	RoleStandalone Role = iota
	// RoleShared is the contract common to every input dictionary.
	RoleShared
	// RoleSpecialized is one input dictionary emitted against the contract.
	RoleSpecialized
)

func (r Role) String() string {
	switch r {
	case RoleShared:
		return "shared"
	case RoleSpecialized:
		return "specialized"
	default:
		return "standalone"
	}
}

// Options are passed through to backends untouched.
type Options struct {
	RejectUnknownField     string
	RejectUnknownEnumValue string
	Flyweight              bool
}

// Namespaces are slash separated paths relative to the output root. Module is
// the import path of that root.
type Namespaces struct {
	Module           string
	Parent           string
	Encoder          string
	Decoder          string
	DecoderFlyweight string
}

// NewNamespaces lays out parent[/name] with its encoder, decoder and
// flyweight decoder children.
func NewNamespaces(module, name string) Namespaces {
	return Namespaces{
		Module:           module,
		Parent:           name,
		Encoder:          path.Join(name, "encoder"),
		Decoder:          path.Join(name, "decoder"),
		DecoderFlyweight: path.Join(name, "decoder_flyweight"),
	}
}

func (n Namespaces) Import(ns string) string {
	if ns == "" {
		return n.Module
	}
	return path.Join(n.Module, ns)
}

func (n Namespaces) Package(ns string) string {
	if ns == "" {
		return common.PackageName(path.Base(n.Module))
	}
	return common.PackageName(path.Base(ns))
}

// Unit is one dictionary to emit and where to put it.
type Unit struct {
	Role Role
	// Name is the normalised dictionary name; empty for the shared unit.
	Name       string
	Dictionary *dictionary.Dictionary
	Namespaces Namespaces
	// SharedNamespaces locate the contract a specialized unit implements.
	SharedNamespaces Namespaces
	Share            *share.Result
	Options          Options
}

func Standalone(d *dictionary.Dictionary, module string, opts Options) *Unit {
	return &Unit{
		Role:       RoleStandalone,
		Name:       d.Name,
		Dictionary: d,
		Namespaces: NewNamespaces(module, ""),
		Options:    opts,
	}
}

func Shared(res *share.Result, module string, opts Options) *Unit {
	return &Unit{
		Role:       RoleShared,
		Dictionary: res.Shared,
		Namespaces: NewNamespaces(module, ""),
		Share:      res,
		Options:    opts,
	}
}

// Specialized builds the unit for the i-th input of res.
func Specialized(res *share.Result, i int, module string, opts Options) *Unit {
	return &Unit{
		Role:             RoleSpecialized,
		Name:             res.Names[i],
		Dictionary:       res.Inputs[i],
		Namespaces:       NewNamespaces(module, res.Names[i]),
		SharedNamespaces: NewNamespaces(module, ""),
		Share:            res,
		Options:          opts,
	}
}

// Concrete reports whether the unit emits instantiable codecs.
func (u *Unit) Concrete() bool { return u.Role != RoleShared }

// EnumRef names the enum type behind an enum accessor. Shared enums live in
// the shared parent namespace.
type EnumRef struct {
	Type   string
	Shared bool
}

type EnumValue struct {
	Ident          string
	Name           string
	Representation string
	Description    string
	AltNames       []string
}

type Enum struct {
	Field  string
	Type   string
	Tag    int
	Values []EnumValue
}

// Enums returns the enums this unit owns: the union enums of shared fields
// for the shared unit, enums of local fields for a specialized unit, every
// enum for a standalone one.
func (u *Unit) Enums() []Enum {
	var names []string
	switch u.Role {
	case RoleShared:
		names = u.Share.SharedNames(share.KindEnum)
	case RoleSpecialized:
		names = u.Share.Local(u.Name).Enums
	default:
		for _, name := range u.Dictionary.FieldNames() {
			if u.Dictionary.Fields[name].IsEnum() {
				names = append(names, name)
			}
		}
	}

	enums := make([]Enum, 0, len(names))
	for _, name := range names {
		f := u.Dictionary.Field(name)
		values := f.Values
		if u.Role == RoleShared {
			es, _ := u.Share.Enum(name)
			values = es.Values
		}
		e := Enum{Field: name, Type: common.ToPascalCase(name), Tag: f.Number}
		used := map[string]bool{
			e.Type + "NullVal": true,
			e.Type + "Unknown": true,
		}
		for _, v := range values {
			e.Values = append(e.Values, EnumValue{
				Ident:          common.Unique(e.Type+common.ToPascalCase(v.Name), used),
				Name:           v.Name,
				Representation: v.Representation,
				Description:    v.Description,
				AltNames:       v.AltNames,
			})
		}
		enums = append(enums, e)
	}
	return enums
}

type Tag struct {
	Ident  string
	Name   string
	Number int
}

type MessageType struct {
	Ident string
	Name  string
	Value string
}

// Tags lists the field tags this unit declares; a specialized unit leaves
// shared fields to the contract.
func (u *Unit) Tags() []Tag {
	var names []string
	switch u.Role {
	case RoleSpecialized:
		names = u.Share.Local(u.Name).Fields
	default:
		names = u.Dictionary.FieldNames()
	}
	tags := make([]Tag, 0, len(names))
	for _, name := range names {
		tags = append(tags, Tag{Ident: "Tag" + common.ToPascalCase(name), Name: name, Number: u.Dictionary.Field(name).Number})
	}
	return tags
}

// MessageTypes lists the message types this unit declares, header and
// trailer excluded.
func (u *Unit) MessageTypes() []MessageType {
	var out []MessageType
	for _, m := range u.Dictionary.Messages {
		if u.Role == RoleSpecialized && u.Share.IsShared(share.KindMessage, m.Name) {
			continue
		}
		out = append(out, MessageType{Ident: "MsgType" + common.ToPascalCase(m.Name), Name: m.Name, Value: m.MsgType})
	}
	return out
}

// AllMessageTypes lists every message of the unit's dictionary.
func (u *Unit) AllMessageTypes() []MessageType {
	out := make([]MessageType, 0, len(u.Dictionary.Messages))
	for _, m := range u.Dictionary.Messages {
		out = append(out, MessageType{Ident: "MsgType" + common.ToPascalCase(m.Name), Name: m.Name, Value: m.MsgType})
	}
	return out
}

// Messages returns the message aggregates, header and trailer excluded.
func (u *Unit) Messages() []*Aggregate {
	var out []*Aggregate
	for _, a := range u.Aggregates() {
		if a.Kind == share.KindMessage && !a.Session {
			out = append(out, a)
		}
	}
	return out
}
