// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// globalFlags are inherited by every subcommand and consumed by [Runner.Before].
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
			Sources: cli.EnvVars("COLORIZE_CONFIG"),
		},
		&cli.StringFlag{
			Name:    "api-url",
			Usage:   "Base URL of the colorization backend",
			Sources: cli.EnvVars("COLORIZE_API_URL", "VITE_API_URL"),
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			Sources: cli.EnvVars("COLORIZE_LOG_LEVEL"),
		},
	}
}

// runCommand colorizes a single file.
func runCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "run",
		Aliases: []string{"colorize"},
		Usage:   "Upload one image and print the colorized result",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "file",
			},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "download",
				Aliases: []string{"d"},
				Usage:   "Save the colorized image locally",
			},
			&cli.StringFlag{
				Name:    "output-dir",
				Aliases: []string{"o"},
				Usage:   "Directory for the downloaded image (default: current directory)",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the colorized image in the browser",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output the result as JSON",
			},
		},
		Action: r.Run,
	}
}

// batchCommand colorizes several files one after another.
func batchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "batch",
		Usage:     "Colorize several images sequentially and write a manifest",
		ArgsUsage: "<file>...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output-dir",
				Aliases: []string{"o"},
				Usage:   "Directory for downloaded images and the manifest (default: batch.output_dir)",
			},
			&cli.BoolFlag{
				Name:  "no-download",
				Usage: "Only print result URLs",
			},
			&cli.FloatFlag{
				Name:  "rate-limit",
				Usage: "Submissions per second (default: batch.rate_limit)",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json, csv or markdown",
				Value:   "text",
			},
			&cli.BoolFlag{
				Name:  "manifest",
				Usage: "Write the report into the output directory",
				Value: true,
			},
		},
		Action: r.Batch,
	}
}

// healthCommand checks the backend.
func healthCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Check that the colorization backend is up and its model is loaded",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Health,
	}
}

// apiCommand handles direct API calls for debugging
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct API calls to the colorization backend",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET to the backend, prints the response body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
					},
				},
				Action: r.APIGet,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive drop-and-compare interface",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "file",
			},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output-dir",
				Aliases: []string{"o"},
				Usage:   "Directory for downloads (default: current directory)",
			},
			&cli.BoolFlag{
				Name:  "no-server",
				Usage: "Do not start the local preview server",
			},
		},
		Action: r.TUI,
	}
}

// serveCommand runs the local server in the foreground.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "serve",
		Usage:     "Serve previews, the compare page and metrics until interrupted",
		ArgsUsage: "[file]",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "file"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (default: server.host:server.port)",
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "Open the compare page in the browser once the file is colorized",
			},
		},
		Action: r.Serve,
	}
}

// setupCommand handles setup operations.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example config.toml to the --config path",
				Action: r.SetupConfig,
			},
		},
	}
}
