// cmd/dropgate/main.go
package main

import (
	"os"

	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/dropgate/pkg/logger"
)

func main() {
	app := &cli.App{
		Name:  "dropgate",
		Usage: "Watch a drop folder and admit correctly named files into object storage",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "root",
				Usage: "Directory to watch (overrides WATCH_ROOT)",
			},
			&cli.StringFlag{
				Name:  "bucket",
				Usage: "Destination bucket (overrides STORAGE_BUCKET)",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Number of concurrent workers (overrides PIPELINE_WORKERS)",
			},
			&cli.StringFlag{
				Name:  "alert",
				Usage: "Alert backend: auto, log, console, dialog or redis (overrides ALERT_BACKEND)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (overrides LOG_LEVEL)",
			},
		},
		Before: applyOverrides,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "Process the backlog, then watch for new files until interrupted",
				Action: runCommand,
			},
			{
				Name:   "scan",
				Usage:  "Process the files currently in the folder once, then exit",
				Action: scanCommand,
			},
			{
				Name:      "classify",
				Usage:     "Show how file names would be classified, without touching anything",
				ArgsUsage: "NAME...",
				Action:    classifyCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Log.Error().Err(err).Msg("dropgate failed")
		os.Exit(1)
	}
}

// applyOverrides pushes CLI flags into viper so they win over the
// environment when the config is loaded.
func applyOverrides(c *cli.Context) error {
	overrides := map[string]string{
		"root":      "WATCH_ROOT",
		"bucket":    "STORAGE_BUCKET",
		"alert":     "ALERT_BACKEND",
		"log-level": "LOG_LEVEL",
	}
	for flag, key := range overrides {
		if c.IsSet(flag) {
			viper.Set(key, c.String(flag))
		}
	}
	if c.IsSet("workers") {
		viper.Set("PIPELINE_WORKERS", c.Int("workers"))
	}
	return nil
}
