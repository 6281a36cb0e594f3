package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mitchelldurbincs/terrainfill/internal/config"
	"github.com/mitchelldurbincs/terrainfill/internal/logging"
)

const usage = `Usage: terrainfill <command> [flags]

Commands:
  paint     paint a terrain onto a tile layer of a Tiled JSON map
  preview   print the cells a paint would change without writing
  blob      paint or erase a 47-tile blob autotile cell
  automap   apply a YAML automap rule set to a tile layer

Run "terrainfill <command> -h" for command flags.
`

type command func(ctx context.Context, args []string) error

var commands = map[string]command{
	"paint":   runPaint,
	"preview": runPreview,
	"blob":    runBlob,
	"automap": runAutomap,
}

func main() {
	configPath := flag.String("config", "", "Path to config file")
	env := flag.String("env", "", "Environment overlay, merges config.<env>.yaml next to the config file")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error) (empty to use config default)")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	cmd, ok := commands[flag.Arg(0)]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", flag.Arg(0))
		flag.Usage()
		os.Exit(2)
	}

	if err := config.Init(*configPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize config")
	}
	if err := config.LoadEnvironmentConfig(*env); err != nil {
		log.Fatal().Err(err).Str("env", *env).Msg("Failed to load environment config")
	}
	if *logLevel != "" {
		config.Set("log.level", *logLevel)
	}
	cfg := config.Get()
	closer := logging.Setup(cfg.Log)
	defer closer.Close()
	log.Debug().Str("config_file", config.ConfigFilePath()).Str("env", *env).Msg("Config loaded")

	config.WatchConfig(func(c *config.Config) {
		zerolog.SetGlobalLevel(logging.ParseLevel(c.Log.Level))
		log.Info().Str("level", c.Log.Level).Msg("Config reloaded")
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd(ctx, flag.Args()[1:]); err != nil {
		log.Error().Err(err).Str("command", flag.Arg(0)).Msg("Command failed")
		stop()
		closer.Close()
		os.Exit(1)
	}
}
