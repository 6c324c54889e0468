// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// setupCommand initializes the config file and database schema.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize configuration and run database migrations",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "rollback",
				Usage: "Roll back the most recent migration instead",
			},
		},
		Action: r.Setup,
	}
}

// stationCommand manages the crawled stations.
func stationCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "station",
		Usage: "Manage radio stations",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Register a station",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Station name",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "url",
						Usage:    "Now-playing page URL to crawl",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "strategy",
						Usage: "Crawl strategy name",
						Value: "playlist24",
					},
					&cli.StringFlag{
						Name:     "playlist",
						Usage:    "Playlist reference (spotify:user:<user>:playlist:<id>)",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "disabled",
						Usage: "Register the station without enabling it",
					},
				},
				Action: r.StationAdd,
			},
			{
				Name:   "list",
				Usage:  "List registered stations",
				Action: r.StationList,
			},
		},
	}
}

// crawlCommand runs the station crawler daemon.
func crawlCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "crawl",
		Usage:  "Crawl station pages on a schedule until interrupted",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Crawl,
	}
}

// syncCommand runs the resolver, enricher, and playlist synchronizer daemons.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "sync",
		Usage:  "Resolve plays, analyse tracks, and update playlists until interrupted",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Sync,
	}
}
