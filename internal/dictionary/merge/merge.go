// Package merge folds layered schema fragments into one dictionary.
//
// Layering is additive only: a later fragment can add messages, fields,
// components and groups but never replaces a definition an earlier fragment
// already made. Redefinitions across fragments are ignored, not errors.
package merge

import (
	"log/slog"

	"github.com/Alia5/sharedcodecs/internal/diag"
	"github.com/Alia5/sharedcodecs/internal/dictionary"
	"github.com/Alia5/sharedcodecs/internal/dictionary/parser"
	"github.com/Alia5/sharedcodecs/internal/source"
)

type Options struct {
	AllowDuplicateFields bool
}

// Fragments parses srcs in order and folds them into a dictionary called
// name. Sources are read fully but not closed; the caller owns them.
func Fragments(name string, srcs []source.Source, opts Options, logger *slog.Logger) (*dictionary.Dictionary, error) {
	acc := dictionary.New(name)
	for i, src := range srcs {
		partial, err := parser.Parse(src, acc, parser.Options{AllowDuplicateFields: opts.AllowDuplicateFields})
		if err != nil {
			return nil, diag.WithDictionary(diag.WithSource(err, src.Name), name)
		}
		Fold(acc, partial, logger)
		logger.Debug("Merged schema fragment",
			"dictionary", name,
			"fragment", src.Name,
			"index", i,
			"messages", len(partial.Messages),
			"fields", len(partial.Fields),
			"components", len(partial.Components))
	}
	return acc, nil
}

// Fold adds partial's definitions to acc. Names acc already holds keep their
// existing definition.
func Fold(acc, partial *dictionary.Dictionary, logger *slog.Logger) {
	if acc.Spec.Type == "" {
		acc.Spec = partial.Spec
	}
	if acc.Header == nil {
		acc.Header = partial.Header
	} else if partial.Header != nil {
		logger.Debug("Ignoring header redefinition", "dictionary", acc.Name)
	}
	if acc.Trailer == nil {
		acc.Trailer = partial.Trailer
	} else if partial.Trailer != nil {
		logger.Debug("Ignoring trailer redefinition", "dictionary", acc.Name)
	}

	for _, name := range partial.FieldNames() {
		if _, ok := acc.Fields[name]; ok {
			logger.Debug("Ignoring field redefinition", "dictionary", acc.Name, "field", name)
			continue
		}
		acc.Fields[name] = partial.Fields[name]
	}
	for _, name := range partial.ComponentNames() {
		if _, ok := acc.Components[name]; ok {
			logger.Debug("Ignoring component redefinition", "dictionary", acc.Name, "component", name)
			continue
		}
		acc.Components[name] = partial.Components[name]
	}
	for _, name := range partial.GroupNames() {
		if _, ok := acc.Groups[name]; ok {
			logger.Debug("Ignoring group redefinition", "dictionary", acc.Name, "group", name)
			continue
		}
		acc.Groups[name] = partial.Groups[name]
	}
	for _, m := range partial.Messages {
		if acc.Message(m.Name) != nil {
			logger.Debug("Ignoring message redefinition", "dictionary", acc.Name, "message", m.Name)
			continue
		}
		acc.Messages = append(acc.Messages, m)
	}
}
