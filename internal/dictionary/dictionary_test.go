package dictionary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFieldType(t *testing.T) {
	for ft, name := range typeNames {
		got, ok := ParseFieldType(name)
		require.True(t, ok, name)
		assert.Equal(t, ft, got)
		assert.Equal(t, name, ft.String())
	}

	got, ok := ParseFieldType(" price ")
	require.True(t, ok)
	assert.Equal(t, TypePrice, got)

	_, ok = ParseFieldType("QUATERNION")
	assert.False(t, ok)
}

func TestWiden(t *testing.T) {
	tests := []struct {
		name string
		a, b FieldType
		want FieldType
		ok   bool
	}{
		{"identical", TypeChar, TypeChar, TypeChar, true},
		{"int family", TypeLength, TypeSeqNum, TypeInt, true},
		{"int and int", TypeInt, TypeNumInGroup, TypeInt, true},
		{"string family", TypeCurrency, TypeString, TypeString, true},
		{"float family", TypePrice, TypeQty, TypeFloat, true},
		{"data family", TypeXMLData, TypeData, TypeData, true},
		{"int vs string", TypeInt, TypeString, TypeUnknown, false},
		{"char vs string", TypeChar, TypeString, TypeUnknown, false},
		{"temporal never widens", TypeUTCTimestamp, TypeTZTimestamp, TypeUnknown, false},
		{"unknown", TypeUnknown, TypeUnknown, TypeUnknown, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Widen(tt.a, tt.b)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)

			rev, revOK := Widen(tt.b, tt.a)
			assert.Equal(t, ok, revOK, "widening must be symmetric")
			assert.Equal(t, got, rev)
		})
	}
}

func TestPresenceRelax(t *testing.T) {
	assert.Equal(t, Required, Required.Relax(Required))
	assert.Equal(t, Optional, Required.Relax(Optional))
	assert.Equal(t, Optional, Optional.Relax(Required))
	assert.Equal(t, Optional, Optional.Relax(Optional))
}

func TestAggregateFieldsVisitsOnce(t *testing.T) {
	symbol := &Field{Name: "Symbol", Number: 55, Type: TypeString}
	count := &Field{Name: "NoLegs", Number: 555, Type: TypeNumInGroup}
	legSymbol := &Field{Name: "LegSymbol", Number: 600, Type: TypeString}

	instrument := &Component{Aggregate{Name: "Instrument", Entries: []Entry{{Field: symbol}}}}
	legs := &Group{Aggregate: Aggregate{Name: "NoLegs", Entries: []Entry{{Field: legSymbol}, {Component: instrument}}}, Counter: count}
	msg := &Message{Aggregate: Aggregate{Name: "NewOrderMultileg", Entries: []Entry{
		{Field: symbol},
		{Component: instrument, Presence: Optional},
		{Group: legs, Presence: Optional},
	}}}

	var names []string
	msg.Fields(func(f *Field) { names = append(names, f.Name) })
	assert.Equal(t, []string{"Symbol", "NoLegs", "LegSymbol"}, names)
}

func TestEntry(t *testing.T) {
	f := &Field{Name: "Account"}
	e := Entry{Field: f}
	assert.True(t, e.Valid())
	assert.Equal(t, EntryField, e.Kind())
	assert.Equal(t, "Account", e.Name())

	assert.False(t, Entry{}.Valid())
	assert.False(t, Entry{Field: f, Group: &Group{}}.Valid())
}

func TestDictionaryLookup(t *testing.T) {
	d := New("venue")
	d.Spec = Spec{Type: "FIX", Major: 4, Minor: 4}
	d.Header = &Message{Aggregate: Aggregate{Name: "Header"}}
	d.Trailer = &Message{Aggregate: Aggregate{Name: "Trailer"}}
	d.Messages = append(d.Messages, &Message{Aggregate: Aggregate{Name: "Heartbeat"}, MsgType: "0"})

	assert.Equal(t, "FIX.4.4", d.BeginString())
	require.NotNil(t, d.Message("Heartbeat"))
	require.NotNil(t, d.Message("Header"))
	assert.Nil(t, d.Message("Logon"))

	var order []string
	for _, m := range d.Containers() {
		order = append(order, m.Name)
	}
	assert.Equal(t, []string{"Header", "Heartbeat", "Trailer"}, order)
}
