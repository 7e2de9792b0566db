// Package config declares the command line surface of sharedcodecs.
package config

import (
	"github.com/Alia5/sharedcodecs/internal/cmd"
	"github.com/Alia5/sharedcodecs/internal/log"

	"github.com/alecthomas/kong"
)

type CLI struct {
	ConfigFile string           `name:"config" help:"Path to a JSON, YAML or TOML configuration file" env:"SHAREDCODECS_CONFIG" type:"path"`
	Log        log.Config       `embed:"" prefix:"log."`
	Version    kong.VersionFlag `help:"Print version and exit"`

	Generate cmd.Generate      `cmd:"" help:"Generate Go codecs from FIX schema fragments"`
	Config   cmd.ConfigCommand `cmd:"" help:"Configuration file helpers"`
}
