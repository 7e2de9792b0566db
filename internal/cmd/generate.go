package cmd

import (
	"log/slog"

	"github.com/Alia5/sharedcodecs/internal/codegen/generator"
	"github.com/Alia5/sharedcodecs/internal/source"
)

type Generate struct {
	Sources []string `arg:"" name:"source" help:"Schema fragments (XML, JSON or YAML) in layering order" type:"existingfile"`

	Output string `help:"Output directory for generated codecs" default:"./codecs" env:"SHAREDCODECS_OUTPUT" type:"path"`
	Module string `help:"Go import path of the output directory" env:"SHAREDCODECS_MODULE"`

	Shared       bool     `help:"Generate a shared contract plus one specialization per source" env:"SHAREDCODECS_SHARED"`
	Dictionaries []string `help:"Dictionary names, one per source when sharing" env:"SHAREDCODECS_DICTIONARIES"`

	AllowDuplicateFields bool `help:"Let a fragment define the same field twice; the first definition wins" env:"SHAREDCODECS_ALLOW_DUPLICATE_FIELDS"`
	Flyweight            bool `help:"Also generate flyweight decoders over wrapped buffers" env:"SHAREDCODECS_FLYWEIGHT"`

	RejectUnknownField     string `help:"Environment variable generated decoders read to reject undefined tags" env:"SHAREDCODECS_REJECT_UNKNOWN_FIELD"`
	RejectUnknownEnumValue string `help:"Environment variable generated decoders read to reject undefined enum values" env:"SHAREDCODECS_REJECT_UNKNOWN_ENUM_VALUE"`
}

func (g *Generate) config() generator.Config {
	return generator.Config{
		OutputDir:              g.Output,
		Module:                 g.Module,
		Shared:                 g.Shared,
		DictionaryNames:        g.Dictionaries,
		AllowDuplicateFields:   g.AllowDuplicateFields,
		Flyweight:              g.Flyweight,
		RejectUnknownField:     g.RejectUnknownField,
		RejectUnknownEnumValue: g.RejectUnknownEnumValue,
	}
}

// Run is called by Kong when the generate command is executed.
func (g *Generate) Run(logger *slog.Logger) error {
	logger.Info("Starting codec generation",
		"sources", len(g.Sources),
		"output", g.Output,
		"module", g.Module,
		"shared", g.Shared)

	srcs, err := source.Open(g.Sources...)
	if err != nil {
		return err
	}
	return generator.New(g.config(), logger).Generate(srcs)
}
