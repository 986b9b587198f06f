// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   defaultConfigPath,
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "Enable debug logging",
		},
	}
}

func outputFlags(defaultPretty bool) []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
			Value: defaultPretty,
		},
	}
}

func withFlags(groups ...[]cli.Flag) []cli.Flag {
	flags := []cli.Flag{}
	for _, g := range groups {
		flags = append(flags, g...)
	}
	return flags
}

// filterFlags toggle the variant groups that are left unselected by default.
func filterFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{Name: "include-live", Usage: "Select live recordings by default"},
		&cli.BoolFlag{Name: "include-remix", Usage: "Select remixes that have no Taylor's Version by default"},
		&cli.BoolFlag{Name: "include-acoustic", Usage: "Select acoustic versions that have no Taylor's Version by default"},
		&cli.BoolFlag{Name: "include-demo", Usage: "Select demos that have no Taylor's Version by default"},
		&cli.BoolFlag{Name: "include-mix", Usage: "Select mixes that have no Taylor's Version by default"},
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the config file and prepare local storage",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  configFlags(),
				Action: r.SetupDatabase,
			},
		},
	}
}

func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with Spotify using OAuth2",
		Flags: withFlags(configFlags(), []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-browser",
				Usage: "Print the authorization URL without opening a browser",
			},
		}),
		Action: r.Auth,
	}
}

func meCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "me",
		Usage:  "Show the authenticated Spotify user",
		Flags:  withFlags(configFlags(), outputFlags(false)),
		Action: r.Me,
	}
}

func scanCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "Find stolen recordings in your playlists",
		Flags: withFlags(configFlags(), []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, markdown, csv or json",
				Value:   "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the report to a file instead of stdout",
			},
			&cli.StringFlag{
				Name:  "save",
				Usage: "Save the raw scan result for 'tvx replace --from'",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print JSON output",
				Value: true,
			},
		}),
		Action: r.Scan,
	}
}

func replaceCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "replace",
		Usage: "Replace stolen recordings with Taylor's Version",
		Flags: withFlags(configFlags(), filterFlags(), []cli.Flag{
			&cli.StringFlag{
				Name:  "from",
				Usage: "Use a scan saved with 'tvx scan --save' instead of scanning",
			},
			&cli.StringSliceFlag{
				Name:    "playlist",
				Aliases: []string{"p"},
				Usage:   "Only edit these playlist ids",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Never replace this stolen track id",
			},
			&cli.StringSliceFlag{
				Name:  "variant",
				Usage: "Choose a replacement, as PLAYLIST:POSITION=VARIANT",
			},
			&cli.StringFlag{
				Name:  "variant-mode",
				Usage: "Where --variant applies: single, same-stolen or everywhere",
				Value: "single",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Print the plan without editing playlists",
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Do not ask for confirmation",
			},
		}),
		Action: r.Replace,
	}
}

func catalogCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "Inspect the stolen track catalog",
		Commands: []*cli.Command{
			{
				Name:   "check",
				Usage:  "Check which replacement ids are no longer available",
				Flags:  withFlags(configFlags(), outputFlags(true)),
				Action: r.CatalogCheck,
			},
		},
	}
}

func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recorded replacement jobs",
		Flags: withFlags(configFlags(), outputFlags(true), []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of jobs to show",
				Value:   20,
			},
			&cli.StringFlag{
				Name:  "run",
				Usage: "Only show jobs of this run id",
			},
		}),
		Action: r.History,
	}
}

func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect locally cached data",
		Commands: []*cli.Command{
			{
				Name:  "tracks",
				Usage: "List cached track metadata",
				Flags: withFlags(configFlags(), outputFlags(true), []cli.Flag{
					&cli.StringFlag{
						Name:  "isrc",
						Usage: "Only show tracks with this ISRC",
					},
				}),
				Action: r.CacheTracks,
			},
		},
	}
}
