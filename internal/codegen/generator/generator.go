// Package generator drives a generation run: it merges schema sources into
// dictionaries, unifies them when sharing is requested, and runs every
// emission backend over the resulting units.
package generator

import (
	"errors"
	"fmt"
	"log/slog"
	"path"

	"github.com/Alia5/sharedcodecs/internal/codegen/generator/golang"
	"github.com/Alia5/sharedcodecs/internal/codegen/meta"
	"github.com/Alia5/sharedcodecs/internal/codegen/output"
	"github.com/Alia5/sharedcodecs/internal/codegen/share"
	"github.com/Alia5/sharedcodecs/internal/diag"
	"github.com/Alia5/sharedcodecs/internal/dictionary"
	"github.com/Alia5/sharedcodecs/internal/dictionary/merge"
	"github.com/Alia5/sharedcodecs/internal/source"
)

type Config struct {
	// OutputDir is the root every namespace is created under.
	OutputDir string
	// Module is the import path of OutputDir.
	Module string

	Shared bool
	// DictionaryNames name the sources one to one when Shared is set. In
	// standalone mode the first name, if any, names the folded dictionary.
	DictionaryNames []string

	AllowDuplicateFields bool
	Flyweight            bool
	// Policy names are emitted verbatim.
	RejectUnknownField     string
	RejectUnknownEnumValue string

	// Output defaults to output.Filesystem.
	Output output.Factory
}

type Generator struct {
	cfg      Config
	logger   *slog.Logger
	backends []golang.Backend
}

func New(cfg Config, logger *slog.Logger) *Generator {
	if cfg.Output == nil {
		cfg.Output = output.Filesystem
	}
	return &Generator{
		cfg:      cfg,
		logger:   logger,
		backends: golang.Backends(),
	}
}

// Generate emits codecs for srcs. Every source is closed before Generate
// returns. Nothing reaches the output factory unless every unit emitted.
func (g *Generator) Generate(srcs []source.Source) (err error) {
	defer func() {
		if closeErr := source.CloseAll(srcs); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	if err := g.validate(srcs); err != nil {
		return err
	}

	var units []*meta.Unit
	if g.sharing(srcs) {
		units, err = g.sharedUnits(srcs)
	} else {
		units, err = g.standaloneUnit(srcs)
	}
	if err != nil {
		return err
	}

	staged := output.NewMemory()
	for _, u := range units {
		if err := g.emit(u, staged); err != nil {
			return err
		}
	}
	if err := staged.Flush(g.cfg.OutputDir, g.cfg.Output); err != nil {
		return fmt.Errorf("write generated codecs: %w", err)
	}

	g.logger.Info("Codec generation complete",
		"output", g.cfg.OutputDir,
		"units", len(units),
		"namespaces", len(staged.Namespaces()))
	return nil
}

func (g *Generator) sharing(srcs []source.Source) bool {
	return g.cfg.Shared && len(srcs) > 1
}

func (g *Generator) validate(srcs []source.Source) error {
	if len(srcs) == 0 {
		return diag.Configuration("no schema sources given")
	}
	if g.cfg.Module == "" {
		return diag.Configuration("module import path is required")
	}
	if g.sharing(srcs) && len(g.cfg.DictionaryNames) != len(srcs) {
		return diag.Configuration("sharing needs one dictionary name per source: got %d names for %d sources",
			len(g.cfg.DictionaryNames), len(srcs))
	}
	if g.cfg.Shared && len(srcs) == 1 {
		g.logger.Info("Sharing requested for a single source; generating standalone codecs")
	}
	return nil
}

func (g *Generator) options() meta.Options {
	return meta.Options{
		RejectUnknownField:     g.cfg.RejectUnknownField,
		RejectUnknownEnumValue: g.cfg.RejectUnknownEnumValue,
		Flyweight:              g.cfg.Flyweight,
	}
}

func (g *Generator) mergeOptions() merge.Options {
	return merge.Options{AllowDuplicateFields: g.cfg.AllowDuplicateFields}
}

// sharedUnits merges each source as its own dictionary and unifies them.
// The shared unit comes first, then one specialized unit per source in input
// order.
func (g *Generator) sharedUnits(srcs []source.Source) ([]*meta.Unit, error) {
	dicts := make([]*dictionary.Dictionary, 0, len(srcs))
	for i, src := range srcs {
		d, err := merge.Fragments(g.cfg.DictionaryNames[i], []source.Source{src}, g.mergeOptions(), g.logger)
		if err != nil {
			return nil, err
		}
		dicts = append(dicts, d)
	}

	res, err := share.Share(dicts)
	if err != nil {
		return nil, err
	}
	for _, d := range res.Decisions {
		g.logger.Debug("Sharing decision",
			"kind", d.Kind,
			"name", d.Name,
			"reason", d.Reason,
			"detail", d.Detail,
			"dictionaries", d.Dictionaries)
	}
	g.logger.Info("Unified dictionaries",
		"dictionaries", res.Names,
		"sharedFields", len(res.SharedNames(share.KindField)),
		"sharedMessages", len(res.SharedNames(share.KindMessage)),
		"decisions", len(res.Decisions))

	units := []*meta.Unit{meta.Shared(res, g.cfg.Module, g.options())}
	for i := range res.Names {
		units = append(units, meta.Specialized(res, i, g.cfg.Module, g.options()))
	}
	return units, nil
}

// standaloneUnit folds every source into one dictionary.
func (g *Generator) standaloneUnit(srcs []source.Source) ([]*meta.Unit, error) {
	name := path.Base(g.cfg.Module)
	if len(g.cfg.DictionaryNames) > 0 {
		name = g.cfg.DictionaryNames[0]
	}
	d, err := merge.Fragments(name, srcs, g.mergeOptions(), g.logger)
	if err != nil {
		return nil, err
	}
	g.logger.Info("Merged dictionary",
		"dictionary", name,
		"fragments", len(srcs),
		"messages", len(d.Messages),
		"fields", len(d.Fields))
	return []*meta.Unit{meta.Standalone(d, g.cfg.Module, g.options())}, nil
}

func (g *Generator) emit(u *meta.Unit, staged *output.Memory) error {
	g.logger.Debug("Emitting unit", "dictionary", u.Name, "role", u.Role)
	for _, b := range g.backends {
		if b.Enabled != nil && !b.Enabled(u) {
			continue
		}
		dst, err := staged.Factory(g.cfg.OutputDir, b.Namespace(u.Namespaces))
		if err != nil {
			return emissionError(u, b.Name, err)
		}
		if err := b.Generate(g.logger, u, dst); err != nil {
			return emissionError(u, b.Name, err)
		}
	}
	return nil
}

// emissionError tags err with the unit and backend that produced it.
func emissionError(u *meta.Unit, backend string, err error) error {
	var ee *diag.EmissionError
	if !errors.As(err, &ee) {
		err = diag.Emission("", err)
		errors.As(err, &ee)
	}
	if ee.Backend == "" {
		ee.Backend = backend
	}
	return diag.WithDictionary(err, u.Name)
}
