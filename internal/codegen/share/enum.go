package share

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/Alia5/sharedcodecs/internal/dictionary"
)

// enumSource is one dictionary's definition of an enum.
type enumSource struct {
	dict   string
	values []dictionary.EnumValue
}

type pair struct{ name, repr string }

type pairStat struct {
	count int
	first int // order of first appearance across all sources
	desc  string
}

// unionEnum merges several definitions of one enum. Each representation
// keeps the name most definitions give it (earliest wins a tie); losing
// names survive only as AltNames. A name left on several representations
// stays bare on its most common one and is suffixed on the others.
func unionEnum(field string, sources []enumSource) ([]dictionary.EnumValue, []Decision) {
	stats := make(map[pair]*pairStat)
	var reprOrder []string
	seenRepr := make(map[string]bool)
	seq := 0
	for _, src := range sources {
		for _, v := range src.values {
			p := pair{v.Name, v.Representation}
			st, ok := stats[p]
			if !ok {
				st = &pairStat{first: seq, desc: v.Description}
				stats[p] = st
				seq++
			}
			st.count++
			if !seenRepr[v.Representation] {
				seenRepr[v.Representation] = true
				reprOrder = append(reprOrder, v.Representation)
			}
		}
	}

	// rank orders by count descending, then first appearance.
	rank := func(a, b pair) int {
		sa, sb := stats[a], stats[b]
		return cmp.Or(cmp.Compare(sb.count, sa.count), cmp.Compare(sa.first, sb.first))
	}
	better := func(a, b pair) bool { return rank(a, b) < 0 }

	var decisions []Decision
	values := make([]dictionary.EnumValue, 0, len(reprOrder))
	for _, repr := range reprOrder {
		var candidates []pair
		for p := range stats {
			if p.repr == repr {
				candidates = append(candidates, p)
			}
		}
		slices.SortFunc(candidates, rank)
		winner := candidates[0]
		v := dictionary.EnumValue{
			Name:           winner.name,
			Representation: repr,
			Description:    stats[winner].desc,
		}
		for _, loser := range candidates[1:] {
			v.AltNames = append(v.AltNames, loser.name)
			decisions = append(decisions, Decision{
				Kind:   KindEnum,
				Name:   field,
				Reason: ReasonEnumAltName,
				Detail: fmt.Sprintf("%s=%q documented as alternate name of %s", loser.name, repr, winner.name),
			})
		}
		values = append(values, v)
	}

	// Split names that ended up on more than one representation.
	byName := make(map[string][]int)
	var nameOrder []string
	for i, v := range values {
		if _, ok := byName[v.Name]; !ok {
			nameOrder = append(nameOrder, v.Name)
		}
		byName[v.Name] = append(byName[v.Name], i)
	}
	used := make(map[string]bool, len(values))
	for _, v := range values {
		used[v.Name] = true
	}
	for _, name := range nameOrder {
		idxs := byName[name]
		if len(idxs) < 2 {
			continue
		}
		keep := idxs[0]
		for _, i := range idxs[1:] {
			if better(pair{name, values[i].Representation}, pair{name, values[keep].Representation}) {
				keep = i
			}
		}
		for _, i := range idxs {
			if i == keep {
				continue
			}
			renamed := uniqueName(name+"_"+reprSuffix(values[i].Representation), used)
			used[renamed] = true
			decisions = append(decisions, Decision{
				Kind:   KindEnum,
				Name:   field,
				Reason: ReasonEnumDisambiguated,
				Detail: fmt.Sprintf("%s=%q renamed to %s", name, values[i].Representation, renamed),
			})
			values[i].Name = renamed
		}
	}
	return values, decisions
}

// reprSuffix turns a representation into identifier characters.
func reprSuffix(repr string) string {
	var b strings.Builder
	for _, r := range repr {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(unicode.ToUpper(r))
			continue
		}
		b.WriteString("X" + strconv.FormatInt(int64(r), 16))
	}
	return b.String()
}

func uniqueName(name string, used map[string]bool) string {
	if !used[name] {
		return name
	}
	for i := 2; ; i++ {
		candidate := name + "_" + strconv.Itoa(i)
		if !used[candidate] {
			return candidate
		}
	}
}
