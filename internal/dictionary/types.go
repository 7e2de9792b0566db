package dictionary

import "strings"

// FieldType is the declared wire type of a field.
type FieldType int

const (
	TypeUnknown FieldType = iota

	TypeString
	TypeMultipleValueString
	TypeMultipleStringValue
	TypeMultipleCharValue
	TypeCountry
	TypeCurrency
	TypeExchange
	TypeLanguage
	TypeMonthYear
	TypeXID
	TypeXIDRef

	TypeInt
	TypeLength
	TypeSeqNum
	TypeNumInGroup
	TypeDayOfMonth
	TypeTagNum

	TypeFloat
	TypePrice
	TypeQty
	TypePriceOffset
	TypeAmt
	TypePercentage

	TypeChar
	TypeBoolean

	TypeData
	TypeXMLData

	TypeUTCTimestamp
	TypeUTCTimeOnly
	TypeUTCDateOnly
	TypeLocalMktDate
	TypeTZTimeOnly
	TypeTZTimestamp
)

// BaseKind groups field types by their value representation.
type BaseKind int

const (
	KindUnknown BaseKind = iota
	KindString
	KindInt
	KindFloat
	KindChar
	KindBoolean
	KindData
	KindTemporal
)

var typeNames = map[FieldType]string{
	TypeString:              "STRING",
	TypeMultipleValueString: "MULTIPLEVALUESTRING",
	TypeMultipleStringValue: "MULTIPLESTRINGVALUE",
	TypeMultipleCharValue:   "MULTIPLECHARVALUE",
	TypeCountry:             "COUNTRY",
	TypeCurrency:            "CURRENCY",
	TypeExchange:            "EXCHANGE",
	TypeLanguage:            "LANGUAGE",
	TypeMonthYear:           "MONTHYEAR",
	TypeXID:                 "XID",
	TypeXIDRef:              "XIDREF",
	TypeInt:                 "INT",
	TypeLength:              "LENGTH",
	TypeSeqNum:              "SEQNUM",
	TypeNumInGroup:          "NUMINGROUP",
	TypeDayOfMonth:          "DAYOFMONTH",
	TypeTagNum:              "TAGNUM",
	TypeFloat:               "FLOAT",
	TypePrice:               "PRICE",
	TypeQty:                 "QTY",
	TypePriceOffset:         "PRICEOFFSET",
	TypeAmt:                 "AMT",
	TypePercentage:          "PERCENTAGE",
	TypeChar:                "CHAR",
	TypeBoolean:             "BOOLEAN",
	TypeData:                "DATA",
	TypeXMLData:             "XMLDATA",
	TypeUTCTimestamp:        "UTCTIMESTAMP",
	TypeUTCTimeOnly:         "UTCTIMEONLY",
	TypeUTCDateOnly:         "UTCDATEONLY",
	TypeLocalMktDate:        "LOCALMKTDATE",
	TypeTZTimeOnly:          "TZTIMEONLY",
	TypeTZTimestamp:         "TZTIMESTAMP",
}

var typesByName = func() map[string]FieldType {
	m := make(map[string]FieldType, len(typeNames))
	for t, n := range typeNames {
		m[n] = t
	}
	// Aliases seen in older dictionaries.
	m["UTCDATE"] = TypeUTCDateOnly
	m["DATE"] = TypeUTCDateOnly
	m["TIME"] = TypeUTCTimestamp
	return m
}()

// ParseFieldType resolves a declared type name, case-insensitively.
func ParseFieldType(s string) (FieldType, bool) {
	t, ok := typesByName[strings.ToUpper(strings.TrimSpace(s))]
	return t, ok
}

func (t FieldType) String() string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return "UNKNOWN"
}

func (t FieldType) Kind() BaseKind {
	switch {
	case t >= TypeString && t <= TypeXIDRef:
		return KindString
	case t >= TypeInt && t <= TypeTagNum:
		return KindInt
	case t >= TypeFloat && t <= TypePercentage:
		return KindFloat
	case t == TypeChar:
		return KindChar
	case t == TypeBoolean:
		return KindBoolean
	case t == TypeData || t == TypeXMLData:
		return KindData
	case t >= TypeUTCTimestamp && t <= TypeTZTimestamp:
		return KindTemporal
	}
	return KindUnknown
}

// widened is the canonical type a kind widens to; kinds absent here only
// unify with identical types.
var widened = map[BaseKind]FieldType{
	KindString: TypeString,
	KindInt:    TypeInt,
	KindFloat:  TypeFloat,
	KindData:   TypeData,
}

// Widen returns the type a shared accessor may use for two declarations of
// the same field. ok is false when the types clash.
func Widen(a, b FieldType) (FieldType, bool) {
	if a == b {
		return a, a != TypeUnknown
	}
	if a.Kind() != b.Kind() {
		return TypeUnknown, false
	}
	w, ok := widened[a.Kind()]
	return w, ok
}
