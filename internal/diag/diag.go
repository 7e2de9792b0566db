// Package diag defines the structured failures surfaced by the codec
// generation pipeline.
//
// Every fatal error carries one of the sentinel kinds below so callers can
// branch with errors.Is, plus enough context (source, dictionary, entity,
// backend) to name the root cause in a single top-level message.
package diag

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMalformedSchema     = errors.New("malformed schema")
	ErrDuplicateDefinition = errors.New("duplicate definition")
	ErrStructuralDefect    = errors.New("structural defect")
	ErrEmissionFailure     = errors.New("emission failure")
	ErrConfiguration       = errors.New("invalid configuration")
)

// SchemaError reports a problem with schema input: an unparseable fragment,
// a same-fragment redefinition or a structurally broken definition.
type SchemaError struct {
	Kind       error // one of ErrMalformedSchema, ErrDuplicateDefinition, ErrStructuralDefect
	Source     string
	Dictionary string
	Entity     string
	Err        error
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Dictionary != "" {
		fmt.Fprintf(&b, " in dictionary %q", e.Dictionary)
	}
	if e.Source != "" {
		fmt.Fprintf(&b, " (source %s)", e.Source)
	}
	if e.Entity != "" {
		fmt.Fprintf(&b, ": %s", e.Entity)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *SchemaError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// EmissionError reports an emission backend that could not produce an
// artifact for a resolved definition.
type EmissionError struct {
	Dictionary string
	Entity     string
	Backend    string
	Err        error
}

func (e *EmissionError) Error() string {
	dict := e.Dictionary
	if dict == "" {
		dict = "<shared>"
	}
	msg := fmt.Sprintf("%s: backend %s, dictionary %s", ErrEmissionFailure, e.Backend, dict)
	if e.Entity != "" {
		msg += ", entity " + e.Entity
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *EmissionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrEmissionFailure}
	}
	return []error{ErrEmissionFailure, e.Err}
}

func Malformed(source string, err error) error {
	return &SchemaError{Kind: ErrMalformedSchema, Source: source, Err: err}
}

func Duplicate(entity string, format string, args ...any) error {
	return &SchemaError{Kind: ErrDuplicateDefinition, Entity: entity, Err: fmt.Errorf(format, args...)}
}

func Structural(entity string, format string, args ...any) error {
	return &SchemaError{Kind: ErrStructuralDefect, Entity: entity, Err: fmt.Errorf(format, args...)}
}

// Emission wraps err as an emission failure for entity. The dispatcher fills
// in the dictionary and backend identity.
func Emission(entity string, err error) error {
	return &EmissionError{Entity: entity, Err: err}
}

func Configuration(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// WithSource annotates a schema error with the fragment it came from, keeping
// any source already recorded.
func WithSource(err error, source string) error {
	var se *SchemaError
	if errors.As(err, &se) && se.Source == "" {
		se.Source = source
	}
	return err
}

// WithDictionary annotates schema or emission errors with the owning
// dictionary name.
func WithDictionary(err error, dictionary string) error {
	var se *SchemaError
	if errors.As(err, &se) && se.Dictionary == "" {
		se.Dictionary = dictionary
	}
	var ee *EmissionError
	if errors.As(err, &ee) && ee.Dictionary == "" {
		ee.Dictionary = dictionary
	}
	return err
}
