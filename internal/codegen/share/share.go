// Package share unifies several independently authored dictionaries into one
// shared contract plus per-dictionary private remainders.
//
// An entity is shared only when every input defines it under the same name
// and its definitions can be unified without weakening type safety. Anything
// else stays local to the dictionaries that define it. Clashes are recorded
// as Decisions, never raised as errors; Share fails only on structurally
// malformed input.
package share

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/Alia5/sharedcodecs/internal/diag"
	"github.com/Alia5/sharedcodecs/internal/dictionary"
)

var separators = regexp.MustCompile(`[^A-Za-z0-9]+`)

// reservedNames are the child namespaces of the shared unit, which sits at
// the output root.
var reservedNames = map[string]bool{
	"encoder":           true,
	"decoder":           true,
	"decoder_flyweight": true,
}

// NormalizeName rewrites separator punctuation in a dictionary name to a
// single underscore: "shared.dictionary.1" becomes "shared_dictionary_1".
func NormalizeName(name string) string {
	return strings.Trim(separators.ReplaceAllString(name, "_"), "_")
}

// Share unifies dicts. Inputs are not modified.
func Share(dicts []*dictionary.Dictionary) (*Result, error) {
	if len(dicts) < 2 {
		return nil, diag.Configuration("sharing needs at least two dictionaries, got %d", len(dicts))
	}
	s := &sharer{
		dicts: dicts,
		res: &Result{
			Inputs:     dicts,
			Shared:     dictionary.New(""),
			fields:     make(map[string]*FieldShare),
			enums:      make(map[string]*EnumShare),
			aggregates: make(map[Kind]map[string]*AggregateShare),
			local:      make(map[string]*Local),
		},
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	s.shareFields()
	s.shareAggregates()
	s.collectLocal()
	return s.res, nil
}

type sharer struct {
	dicts []*dictionary.Dictionary
	res   *Result

	components map[string]*dictionary.Component // contract objects
	groups     map[string]*dictionary.Group
}

func (s *sharer) validate() error {
	seen := make(map[string]bool, len(s.dicts))
	for i, d := range s.dicts {
		if d == nil {
			return diag.Structural(fmt.Sprintf("dictionary #%d", i), "missing dictionary")
		}
		name := NormalizeName(d.Name)
		if name == "" {
			return diag.Structural(fmt.Sprintf("dictionary #%d", i), "shared dictionaries must be named")
		}
		if reservedNames[strings.ToLower(name)] {
			return diag.Configuration("dictionary name %q collides with the shared %s namespace", d.Name, name)
		}
		if seen[name] {
			return diag.Structural("dictionary "+name, "name is not unique after normalisation")
		}
		seen[name] = true
		s.res.Names = append(s.res.Names, name)

		for _, gname := range d.GroupNames() {
			if d.Groups[gname].Counter == nil {
				return diag.WithDictionary(diag.Structural("group "+gname, "missing counting field"), name)
			}
		}
		check := func(owner string, agg *dictionary.Aggregate) error {
			for i, e := range agg.Entries {
				if !e.Valid() {
					return diag.WithDictionary(diag.Structural(owner, "entry at position %d has no single element", i), name)
				}
			}
			return nil
		}
		for _, m := range d.Containers() {
			if err := check("message "+m.Name, &m.Aggregate); err != nil {
				return err
			}
		}
		for _, cname := range d.ComponentNames() {
			if err := check("component "+cname, &d.Components[cname].Aggregate); err != nil {
				return err
			}
		}
		for _, gname := range d.GroupNames() {
			if err := check("group "+gname, &d.Groups[gname].Aggregate); err != nil {
				return err
			}
		}
	}
	return nil
}

// definers returns the normalised names of the dictionaries for which has
// reports true.
func (s *sharer) definers(has func(*dictionary.Dictionary) bool) []string {
	var out []string
	for i, d := range s.dicts {
		if has(d) {
			out = append(out, s.res.Names[i])
		}
	}
	return out
}

func (s *sharer) decide(kind Kind, name string, reason Reason, dicts []string, format string, args ...any) {
	s.res.Decisions = append(s.res.Decisions, Decision{
		Kind:         kind,
		Name:         name,
		Reason:       reason,
		Detail:       fmt.Sprintf(format, args...),
		Dictionaries: dicts,
	})
}

func (s *sharer) allNames(names func(*dictionary.Dictionary) []string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, d := range s.dicts {
		for _, n := range names(d) {
			if !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	return out
}

func (s *sharer) shareFields() {
	n := len(s.dicts)
	for _, name := range s.allNames((*dictionary.Dictionary).FieldNames) {
		defs := make([]*dictionary.Field, 0, n)
		for _, d := range s.dicts {
			if f := d.Field(name); f != nil {
				defs = append(defs, f)
			}
		}
		owners := s.definers(func(d *dictionary.Dictionary) bool { return d.Field(name) != nil })
		if len(defs) < n {
			s.decide(KindField, name, ReasonAbsent, owners, "defined in %s only", strings.Join(owners, ", "))
			continue
		}

		tag := defs[0].Number
		typ := defs[0].Type
		clash := ""
		reason := ReasonTypeClash
		for _, f := range defs[1:] {
			if f.Number != tag {
				clash = fmt.Sprintf("tag %d vs %d", tag, f.Number)
				reason = ReasonTagClash
				break
			}
			w, ok := dictionary.Widen(typ, f.Type)
			if !ok {
				clash = fmt.Sprintf("%s vs %s", typ, f.Type)
				break
			}
			typ = w
		}
		if clash != "" {
			s.decide(KindField, name, reason, owners, "%s", clash)
			continue
		}

		canonical := &dictionary.Field{Name: name, Number: tag, Type: typ}
		share := &FieldShare{Field: canonical, Sources: owners}

		var enumSources []enumSource
		for i, f := range defs {
			if f.IsEnum() {
				enumSources = append(enumSources, enumSource{dict: s.res.Names[i], values: f.Values})
			}
		}
		if len(enumSources) > 0 {
			values, decisions := unionEnum(name, enumSources)
			canonical.Values = values
			share.EnumAccessor = len(enumSources) == n
			es := &EnumShare{Name: name, Values: values}
			for _, src := range enumSources {
				es.Sources = append(es.Sources, src.dict)
			}
			s.res.enums[name] = es
			for i := range decisions {
				decisions[i].Dictionaries = es.Sources
			}
			s.res.Decisions = append(s.res.Decisions, decisions...)
		}

		s.res.fields[name] = share
		s.res.Shared.Fields[name] = canonical
	}
}

// shareAggregates decides sharing for components, groups and messages by
// name first, then builds the contract members once every shared name is
// known so nested references never dangle.
func (s *sharer) shareAggregates() {
	s.res.aggregates[KindComponent] = make(map[string]*AggregateShare)
	s.res.aggregates[KindGroup] = make(map[string]*AggregateShare)
	s.res.aggregates[KindMessage] = make(map[string]*AggregateShare)
	s.components = make(map[string]*dictionary.Component)
	s.groups = make(map[string]*dictionary.Group)

	for _, name := range s.allNames((*dictionary.Dictionary).ComponentNames) {
		owners := s.definers(func(d *dictionary.Dictionary) bool { return d.Component(name) != nil })
		if len(owners) < len(s.dicts) {
			s.decide(KindComponent, name, ReasonAbsent, owners, "defined in %s only", strings.Join(owners, ", "))
			continue
		}
		s.components[name] = &dictionary.Component{Aggregate: dictionary.Aggregate{Name: name}}
		s.res.aggregates[KindComponent][name] = &AggregateShare{Kind: KindComponent, Name: name, Sources: owners}
	}

	for _, name := range s.allNames((*dictionary.Dictionary).GroupNames) {
		owners := s.definers(func(d *dictionary.Dictionary) bool { return d.Group(name) != nil })
		if len(owners) < len(s.dicts) {
			s.decide(KindGroup, name, ReasonAbsent, owners, "defined in %s only", strings.Join(owners, ", "))
			continue
		}
		counter := s.dicts[0].Group(name).Counter.Name
		shared, ok := s.res.fields[counter]
		sameCounter := ok
		for _, d := range s.dicts[1:] {
			if d.Group(name).Counter.Name != counter {
				sameCounter = false
			}
		}
		if !sameCounter {
			s.decide(KindGroup, name, ReasonCounterNotShared, owners, "counting field %s is not shared", counter)
			continue
		}
		s.groups[name] = &dictionary.Group{Aggregate: dictionary.Aggregate{Name: name}, Counter: shared.Field}
		s.res.aggregates[KindGroup][name] = &AggregateShare{Kind: KindGroup, Name: name, Sources: owners}
	}

	containerNames := func(d *dictionary.Dictionary) []string {
		var names []string
		for _, m := range d.Containers() {
			names = append(names, m.Name)
		}
		return names
	}
	var messages []*dictionary.Message
	for _, name := range s.allNames(containerNames) {
		owners := s.definers(func(d *dictionary.Dictionary) bool { return d.Message(name) != nil })
		if len(owners) < len(s.dicts) {
			s.decide(KindMessage, name, ReasonAbsent, owners, "defined in %s only", strings.Join(owners, ", "))
			continue
		}
		msgType := s.dicts[0].Message(name).MsgType
		clash := false
		for _, d := range s.dicts[1:] {
			if d.Message(name).MsgType != msgType {
				clash = true
			}
		}
		if clash {
			s.decide(KindMessage, name, ReasonMsgTypeClash, owners, "message types differ")
			continue
		}
		first := s.dicts[0].Message(name)
		messages = append(messages, &dictionary.Message{
			Aggregate: dictionary.Aggregate{Name: name},
			MsgType:   msgType,
			Category:  first.Category,
		})
		s.res.aggregates[KindMessage][name] = &AggregateShare{Kind: KindMessage, Name: name, Sources: owners}
	}

	for name, c := range s.components {
		c.Entries = s.members(KindComponent, name, func(d *dictionary.Dictionary) *dictionary.Aggregate {
			return &d.Component(name).Aggregate
		})
		s.res.Shared.Components[name] = c
	}
	for name, g := range s.groups {
		g.Entries = s.members(KindGroup, name, func(d *dictionary.Dictionary) *dictionary.Aggregate {
			return &d.Group(name).Aggregate
		})
		s.res.Shared.Groups[name] = g
	}
	for _, m := range messages {
		name := m.Name
		m.Entries = s.members(KindMessage, name, func(d *dictionary.Dictionary) *dictionary.Aggregate {
			return &d.Message(name).Aggregate
		})
		switch {
		case s.dicts[0].Header != nil && name == s.dicts[0].Header.Name:
			s.res.Shared.Header = m
		case s.dicts[0].Trailer != nil && name == s.dicts[0].Trailer.Name:
			s.res.Shared.Trailer = m
		default:
			s.res.Shared.Messages = append(s.res.Shared.Messages, m)
		}
	}

	spec := s.dicts[0].Spec
	for _, d := range s.dicts[1:] {
		if d.Spec != spec {
			spec = dictionary.Spec{}
		}
	}
	s.res.Shared.Spec = spec
}

// members computes the contract entries of a shared container: entries the
// first dictionary declares that every other version also declares, with the
// same element kind, and whose element is itself shared.
func (s *sharer) members(kind Kind, name string, version func(*dictionary.Dictionary) *dictionary.Aggregate) []dictionary.Entry {
	agg := s.res.aggregates[kind][name]
	var entries []dictionary.Entry
	for _, e := range version(s.dicts[0]).Entries {
		member := Member{Name: e.Name(), Kind: e.Kind()}
		ok := true
		for _, d := range s.dicts {
			other, found := version(d).Entry(member.Name)
			if !found || other.Kind() != member.Kind {
				ok = false
				break
			}
			member.Presences = append(member.Presences, other.Presence)
		}
		if !ok {
			continue
		}

		shared := dictionary.Entry{}
		switch member.Kind {
		case dictionary.EntryField:
			fs, found := s.res.fields[member.Name]
			if !found {
				continue
			}
			shared.Field = fs.Field
		case dictionary.EntryComponent:
			c, found := s.components[member.Name]
			if !found {
				continue
			}
			shared.Component = c
		case dictionary.EntryGroup:
			g, found := s.groups[member.Name]
			if !found {
				continue
			}
			shared.Group = g
		}

		member.Presence = dictionary.Required
		member.Probe = true
		for _, p := range member.Presences {
			member.Presence = member.Presence.Relax(p)
			if p != dictionary.Optional {
				member.Probe = false
			}
		}
		shared.Presence = member.Presence
		agg.Members = append(agg.Members, member)
		entries = append(entries, shared)
	}
	return entries
}

func (s *sharer) collectLocal() {
	for i, d := range s.dicts {
		name := s.res.Names[i]
		l := &Local{}
		for _, f := range d.FieldNames() {
			if _, ok := s.res.fields[f]; !ok {
				l.Fields = append(l.Fields, f)
				if d.Fields[f].IsEnum() {
					l.Enums = append(l.Enums, f)
				}
			}
		}
		for _, c := range d.ComponentNames() {
			if _, ok := s.components[c]; !ok {
				l.Components = append(l.Components, c)
			}
		}
		for _, g := range d.GroupNames() {
			if _, ok := s.groups[g]; !ok {
				l.Groups = append(l.Groups, g)
			}
		}
		for _, m := range d.Containers() {
			if !s.res.IsShared(KindMessage, m.Name) {
				l.Messages = append(l.Messages, m.Name)
			}
		}
		slices.Sort(l.Enums)
		s.res.local[name] = l
	}
}
