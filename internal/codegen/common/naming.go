package common

import (
	"go/token"
	"strconv"
	"strings"
	"unicode"
)

// ToPascalCase joins the words of s, capitalising each. Words that are
// entirely upper case (enum names such as TRADE_CANCEL) are lowered after
// the first letter; mixed-case words (ExecutionReport, OrderID) are kept.
func ToPascalCase(s string) string {
	if s == "" {
		return ""
	}

	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == '_' || r == '-' || r == '.' || unicode.IsSpace(r)
	})

	var result strings.Builder
	for _, word := range words {
		if word == strings.ToUpper(word) {
			word = strings.ToLower(word)
		}
		result.WriteString(strings.ToUpper(word[:1]))
		result.WriteString(word[1:])
	}

	return SanitizeLeadingDigit(result.String())
}

// ToCamelCase is ToPascalCase with the leading upper-case run lowered, so
// "OrderID" becomes "orderID" and "ID" becomes "id".
func ToCamelCase(s string) string {
	pascal := ToPascalCase(s)
	if pascal == "" {
		return ""
	}
	runes := []rune(pascal)
	end := 1
	for end < len(runes) && unicode.IsUpper(runes[end]) {
		end++
	}
	// Keep the capital that starts the next word: "IDSource" -> "idSource".
	if end > 1 && end < len(runes) {
		end--
	}
	for i := 0; i < end; i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return SafeIdent(string(runes))
}

// SanitizeLeadingDigit prefixes names that start with a digit with "Num"
// to keep identifiers valid.
func SanitizeLeadingDigit(name string) string {
	if name == "" {
		return ""
	}
	if name[0] >= '0' && name[0] <= '9' {
		return "Num" + name
	}
	return name
}

// SafeIdent suffixes Go keywords and predeclared names that would break or
// shadow in generated code.
func SafeIdent(name string) string {
	if token.IsKeyword(name) {
		return name + "_"
	}
	switch name {
	case "len", "string", "byte", "bool", "int", "error", "append", "copy", "buf", "codec":
		return name + "_"
	}
	return name
}

// PackageName turns a path element into a Go package name.
func PackageName(elem string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(elem) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		}
	}
	name := b.String()
	if name == "" {
		return "codec"
	}
	if name[0] >= '0' && name[0] <= '9' {
		name = "v" + name
	}
	if token.IsKeyword(name) {
		name += "_"
	}
	return name
}

// Unique returns name, or name with the smallest numeric suffix not in used,
// and records the result.
func Unique(name string, used map[string]bool) string {
	candidate := name
	for i := 2; used[candidate]; i++ {
		candidate = name + strconv.Itoa(i)
	}
	used[candidate] = true
	return candidate
}
