package share

import (
	"slices"

	"github.com/Alia5/sharedcodecs/internal/dictionary"
)

// Kind names the entity kinds partitioned by unification.
type Kind int

const (
	KindField Kind = iota
	KindEnum
	KindComponent
	KindGroup
	KindMessage
)

func (k Kind) String() string {
	switch k {
	case KindEnum:
		return "enum"
	case KindComponent:
		return "component"
	case KindGroup:
		return "group"
	case KindMessage:
		return "message"
	default:
		return "field"
	}
}

// KindOf maps an entry kind to the matching entity kind.
func KindOf(k dictionary.EntryKind) Kind {
	switch k {
	case dictionary.EntryComponent:
		return KindComponent
	case dictionary.EntryGroup:
		return KindGroup
	default:
		return KindField
	}
}

// Reason explains a non-fatal unification outcome.
type Reason int

const (
	ReasonAbsent Reason = iota
	ReasonTypeClash
	ReasonTagClash
	ReasonMsgTypeClash
	ReasonCounterNotShared
	ReasonEnumAltName
	ReasonEnumDisambiguated
)

func (r Reason) String() string {
	return [...]string{
		"absent from some dictionaries",
		"incompatible types",
		"different tag numbers",
		"different message types",
		"counting field not shared",
		"alternate enum name",
		"enum name disambiguated",
	}[r]
}

// Decision records an entity that was kept local or an enum constant that
// was renamed. Decisions are informational; none of them is an error.
type Decision struct {
	Kind         Kind
	Name         string
	Reason       Reason
	Detail       string
	Dictionaries []string
}

// FieldShare is a field hoisted into the shared contract.
type FieldShare struct {
	Field *dictionary.Field // canonical definition owned by Result.Shared
	// EnumAccessor is set when every dictionary types the field as an enum,
	// so the contract may expose a typed enum conversion.
	EnumAccessor bool
	Sources      []string
}

// EnumShare is the union enum of a shared field.
type EnumShare struct {
	Name    string
	Values  []dictionary.EnumValue
	Sources []string // dictionaries that declare the field as an enum
}

// Member is one entry of a shared container's contract.
type Member struct {
	Name     string
	Kind     dictionary.EntryKind
	Presence dictionary.Presence
	// Presences holds the presence per input dictionary, in input order.
	Presences []dictionary.Presence
	// Probe is set when the member is optional in every dictionary, the only
	// case in which the contract may expose a presence probe.
	Probe bool
}

// AggregateShare is a component, group or message common to every input.
type AggregateShare struct {
	Kind    Kind
	Name    string
	Members []Member
	Sources []string
}

func (a *AggregateShare) Member(name string) (Member, bool) {
	for _, m := range a.Members {
		if m.Name == name {
			return m, true
		}
	}
	return Member{}, false
}

// Local lists, per kind, the names a dictionary keeps private.
type Local struct {
	Fields     []string
	Enums      []string
	Components []string
	Groups     []string
	Messages   []string
}

func (l *Local) names(k Kind) []string {
	switch k {
	case KindField:
		return l.Fields
	case KindEnum:
		return l.Enums
	case KindComponent:
		return l.Components
	case KindGroup:
		return l.Groups
	default:
		return l.Messages
	}
}

// Result is the outcome of unifying N dictionaries: one shared contract and
// a per-dictionary list of private entities.
type Result struct {
	// Names are the normalised dictionary names, in input order.
	Names []string
	// Inputs are the unmodified input dictionaries, parallel to Names.
	Inputs []*dictionary.Dictionary
	// Shared is the contract dictionary. Its name is empty and it only
	// references shared entities.
	Shared    *dictionary.Dictionary
	Decisions []Decision

	fields     map[string]*FieldShare
	enums      map[string]*EnumShare
	aggregates map[Kind]map[string]*AggregateShare
	local      map[string]*Local
}

func (r *Result) Field(name string) (*FieldShare, bool) {
	f, ok := r.fields[name]
	return f, ok
}

func (r *Result) Enum(name string) (*EnumShare, bool) {
	e, ok := r.enums[name]
	return e, ok
}

func (r *Result) Aggregate(kind Kind, name string) (*AggregateShare, bool) {
	a, ok := r.aggregates[kind][name]
	return a, ok
}

// Member looks up a member of a shared container's contract.
func (r *Result) Member(kind Kind, container, member string) (Member, bool) {
	a, ok := r.Aggregate(kind, container)
	if !ok {
		return Member{}, false
	}
	return a.Member(member)
}

func (r *Result) IsShared(kind Kind, name string) bool {
	switch kind {
	case KindField:
		_, ok := r.fields[name]
		return ok
	case KindEnum:
		_, ok := r.enums[name]
		return ok
	default:
		_, ok := r.aggregates[kind][name]
		return ok
	}
}

// IsLocal reports whether dictionary dict keeps a private name of kind.
func (r *Result) IsLocal(dict string, kind Kind, name string) bool {
	l, ok := r.local[dict]
	if !ok {
		return false
	}
	return slices.Contains(l.names(kind), name)
}

func (r *Result) Local(dict string) *Local {
	if l, ok := r.local[dict]; ok {
		return l
	}
	return &Local{}
}

// Index returns the input position of a normalised dictionary name, or -1.
func (r *Result) Index(dict string) int {
	return slices.Index(r.Names, dict)
}

// SharedNames lists shared names of kind; messages keep contract order,
// other kinds are sorted.
func (r *Result) SharedNames(kind Kind) []string {
	var names []string
	switch kind {
	case KindField:
		names = sortedKeys(r.fields)
	case KindEnum:
		names = sortedKeys(r.enums)
	case KindMessage:
		for _, m := range r.Shared.Containers() {
			names = append(names, m.Name)
		}
	default:
		names = sortedKeys(r.aggregates[kind])
	}
	return names
}

func (r *Result) DecisionsFor(kind Kind, name string) []Decision {
	var out []Decision
	for _, d := range r.Decisions {
		if d.Kind == kind && d.Name == name {
			out = append(out, d)
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
