package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jgcodes2020/sm64-tas-scripting/examples/turnaround"
	"github.com/jgcodes2020/sm64-tas-scripting/internal/scattershot"
)

var cli struct {
	Debug bool `help:"enable debug logging"`

	Explore    ExploreCmd    `cmd:"" help:"run a scattershot search"`
	ShowConfig ShowConfigCmd `cmd:"" help:"print the default configuration as JSON"`
}

type ExploreCmd struct {
	Config string `help:"path to a JSON configuration file" default:"config.json"`
	Report string `help:"path to write the best-block report to" default:"report.json"`
}

type ShowConfigCmd struct{}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("scattershot"),
		kong.Description("parallel scattershot TAS search"),
		kong.UsageOnError(),
	)

	setupLogger(cli.Debug)

	var err error
	switch ctx.Command() {
	case "explore":
		err = cli.Explore.Run(context.Background())
	case "show-config":
		err = cli.ShowConfig.Run()
	default:
		log.Fatal().Msgf("unknown command: %s", ctx.Command())
	}
	if err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

func setupLogger(debug bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)
}

func (cmd *ExploreCmd) Run(ctx context.Context) error {
	data, err := os.ReadFile(cmd.Config)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var config scattershot.Configuration
	if err := json.Unmarshal(data, &config); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return err
	}

	explorer, err := turnaround.NewExplorer(config, log.Logger)
	if err != nil {
		return err
	}
	if err := explorer.Run(ctx); err != nil {
		return err
	}
	return turnaround.WriteReport(explorer, cmd.Report)
}

func (cmd *ShowConfigCmd) Run() error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(turnaround.DefaultConfig())
}
