package meta

import (
	"slices"

	"github.com/Alia5/sharedcodecs/internal/codegen/common"
	"github.com/Alia5/sharedcodecs/internal/codegen/share"
	"github.com/Alia5/sharedcodecs/internal/dictionary"
)

// Side selects the encoder or decoder accessor surface.
type Side int

const (
	Decoder Side = iota
	Encoder
)

// Aggregate is the accessor surface of one component, group or message.
type Aggregate struct {
	Kind  share.Kind
	Name  string
	Ident string
	// MsgType is set for messages; MsgTypeShared when its constant lives in
	// the shared parent namespace.
	MsgType       string
	MsgTypeShared bool
	// Session marks the standard header and trailer.
	Session bool
	// Contract is set when the shared namespace holds an interface and an
	// embeddable state for this aggregate.
	Contract bool
	// Embeds is set when the emitted struct embeds the shared state.
	Embeds bool
	// Concrete is set when the emitted aggregate is instantiable.
	Concrete bool
	Members  []Member

	// Groups only.
	CounterTag int
	Delimiter  int
}

// Member is one entry of an aggregate as this unit sees it.
type Member struct {
	Name  string
	Ident string
	Var   string
	Kind  dictionary.EntryKind

	// Fields only.
	Tag    int
	Type   dictionary.FieldType
	GoType string
	Codec  string
	// Enum is set when the unit exposes <Ident>AsEnum.
	Enum *EnumRef

	// Required is the presence in this unit's own view.
	Required bool
	// Probe is set when the unit exposes Has<Ident>.
	Probe bool

	// Contract is set when the member belongs to the shared contract of its
	// aggregate. ContractProbe and ContractEnum say whether the contract
	// itself exposes the probe and the enum accessor.
	Contract      bool
	ContractProbe bool
	ContractEnum  bool

	// Components and groups only.
	Nested string
	// Groups only.
	CounterTag int
	Delimiter  int
}

// Delegated reports whether the member's storage and contract accessors come
// from the embedded shared state.
func (m Member) Delegated() bool {
	return m.Contract && m.Kind == dictionary.EntryField
}

// DeclaresProbe reports whether the emitting struct declares Has<Ident>
// itself rather than inheriting it from the shared state.
func (m Member) DeclaresProbe() bool {
	return m.Probe && !(m.Delegated() && m.ContractProbe)
}

func (m Member) DeclaresEnum() bool {
	return m.Enum != nil && !(m.Delegated() && m.ContractEnum)
}

// Aggregates returns components, then groups, each sorted by name, then
// header, messages and trailer in dictionary order.
func (u *Unit) Aggregates() []*Aggregate {
	d := u.Dictionary
	var out []*Aggregate
	for _, name := range d.ComponentNames() {
		out = append(out, u.aggregate(share.KindComponent, name, &d.Components[name].Aggregate))
	}
	for _, name := range d.GroupNames() {
		g := d.Groups[name]
		a := u.aggregate(share.KindGroup, name, &g.Aggregate)
		a.CounterTag = g.Counter.Number
		a.Delimiter = firstTag(&g.Aggregate)
		out = append(out, a)
	}
	for _, m := range d.Containers() {
		a := u.aggregate(share.KindMessage, m.Name, &m.Aggregate)
		a.MsgType = m.MsgType
		a.Session = m == d.Header || m == d.Trailer
		a.MsgTypeShared = u.Role == RoleSpecialized && a.Contract
		out = append(out, a)
	}
	return out
}

// Aggregate looks up one aggregate by kind and name.
func (u *Unit) Aggregate(kind share.Kind, name string) (*Aggregate, bool) {
	for _, a := range u.Aggregates() {
		if a.Kind == kind && a.Name == name {
			return a, true
		}
	}
	return nil, false
}

func (u *Unit) aggregate(kind share.Kind, name string, agg *dictionary.Aggregate) *Aggregate {
	a := &Aggregate{
		Kind:     kind,
		Name:     name,
		Ident:    common.ToPascalCase(name),
		Concrete: u.Concrete(),
	}
	switch u.Role {
	case RoleShared:
		a.Contract = true
	case RoleSpecialized:
		a.Contract = u.Share.IsShared(kind, name)
		a.Embeds = a.Contract
	}

	for _, e := range agg.Entries {
		a.Members = append(a.Members, u.member(a, e))
	}
	return a
}

func (u *Unit) member(a *Aggregate, e dictionary.Entry) Member {
	m := Member{
		Name:     e.Name(),
		Ident:    common.ToPascalCase(e.Name()),
		Var:      common.ToCamelCase(e.Name()),
		Kind:     e.Kind(),
		Required: e.Presence == dictionary.Required,
	}

	var contract share.Member
	if a.Contract && u.Share != nil {
		contract, m.Contract = u.Share.Member(a.Kind, a.Name, m.Name)
	}

	switch m.Kind {
	case dictionary.EntryField:
		f := e.Field
		m.Tag = f.Number
		m.Type = f.Type
		m.Probe = !m.Required
		if m.Contract {
			m.Type = u.Share.Shared.Field(f.Name).Type
			m.ContractProbe = contract.Probe
			if u.Role == RoleShared {
				m.Probe = contract.Probe
			}
		}
		m.GoType, m.Codec = GoType(m.Type)
		u.enumAccessor(&m, f)
	case dictionary.EntryComponent:
		m.Nested = common.ToPascalCase(e.Component.Name)
	case dictionary.EntryGroup:
		m.Nested = common.ToPascalCase(e.Group.Name)
		m.CounterTag = e.Group.Counter.Number
		m.Delimiter = firstTag(&e.Group.Aggregate)
	}
	return m
}

func (u *Unit) enumAccessor(m *Member, f *dictionary.Field) {
	if u.Share == nil {
		if f.IsEnum() {
			m.Enum = &EnumRef{Type: common.ToPascalCase(f.Name)}
		}
		return
	}
	fs, shared := u.Share.Field(f.Name)
	switch {
	case u.Role == RoleShared:
		if fs.EnumAccessor {
			m.Enum = &EnumRef{Type: common.ToPascalCase(f.Name), Shared: true}
			m.ContractEnum = true
		}
	case f.IsEnum():
		// Enums of shared fields are hoisted; everything else stays local.
		m.Enum = &EnumRef{Type: common.ToPascalCase(f.Name), Shared: shared}
		m.ContractEnum = m.Contract && fs.EnumAccessor
	}
}

// firstTag is the tag that opens a group entry.
func firstTag(agg *dictionary.Aggregate) int {
	for _, e := range agg.Entries {
		switch e.Kind() {
		case dictionary.EntryField:
			return e.Field.Number
		case dictionary.EntryComponent:
			if tag := firstTag(&e.Component.Aggregate); tag != 0 {
				return tag
			}
		case dictionary.EntryGroup:
			return e.Group.Counter.Number
		}
	}
	return 0
}

// GoType maps a field type to the Go type used for its value and the name of
// the wire helper family that parses and formats it.
func GoType(t dictionary.FieldType) (goType, codec string) {
	switch t.Kind() {
	case dictionary.KindInt:
		return "int64", "Int"
	case dictionary.KindFloat:
		return "float64", "Float"
	case dictionary.KindChar:
		return "byte", "Char"
	case dictionary.KindBoolean:
		return "bool", "Bool"
	case dictionary.KindData:
		return "[]byte", "Data"
	default:
		return "string", "String"
	}
}

// Capabilities returns the sorted method names the aggregate exposes on side,
// whether declared directly or promoted from an embedded shared state.
func (a *Aggregate) Capabilities(side Side) []string {
	caps := []string{"ResetMessage"}
	if a.Concrete {
		caps = append(caps, "Reset", "AppendTo")
		if side == Decoder {
			caps = append(caps, "Validate", "String")
			if a.Kind == share.KindMessage {
				caps = append(caps, "Decode")
			}
		}
	}
	for _, m := range a.Members {
		switch m.Kind {
		case dictionary.EntryField:
			caps = append(caps, "Reset"+m.Ident)
			if side == Encoder {
				caps = append(caps, "Set"+m.Ident)
				continue
			}
			caps = append(caps, m.Ident)
			if m.Probe {
				caps = append(caps, "Has"+m.Ident)
			}
			if m.Enum != nil {
				caps = append(caps, m.Ident+"AsEnum")
			}
		case dictionary.EntryComponent:
			caps = append(caps, m.Ident)
			if a.Concrete && m.Contract {
				caps = append(caps, m.Ident+"Variant")
			}
		case dictionary.EntryGroup:
			caps = append(caps, m.Ident+"Len")
			name := m.Ident
			if side == Encoder {
				name = "Add" + m.Ident
			}
			caps = append(caps, name)
			if a.Concrete && m.Contract {
				caps = append(caps, name+"Variant")
			}
		}
	}
	slices.Sort(caps)
	return slices.Compact(caps)
}
