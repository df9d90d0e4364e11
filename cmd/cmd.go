// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/mimo/internal/services"
	"github.com/urfave/cli/v3"
)

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format (text, json, csv, markdown)",
		Value:   "text",
	}
}

// searchCommand queries both catalogs
func searchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage:     "Search both catalogs for tracks",
		ArgsUsage: "<query...>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "source",
				Aliases: []string{"s"},
				Usage:   "Only print results from one source (licensed or community)",
			},
			formatFlag(),
		},
		Action: r.Search,
	}
}

// trendingCommand samples popular tracks
func trendingCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "trending",
		Usage: "List a shuffled sample of trending tracks",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of tracks to return",
				Value:   services.DefaultLimit,
			},
			formatFlag(),
		},
		Action: r.Trending,
	}
}

// cacheCommand manages the response cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the response cache",
		Commands: []*cli.Command{
			{
				Name:  "sweep",
				Usage: "Delete expired cache entries",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.CacheSweep,
			},
			{
				Name:  "invalidate",
				Usage: "Delete a single cache entry",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "key",
						Usage: "Cache key to delete",
					},
					&cli.StringFlag{
						Name:  "query",
						Usage: "Delete the entry for a search query",
					},
					&cli.IntFlag{
						Name:  "trending",
						Usage: "Delete the entry for a trending limit",
					},
				},
				Action: r.CacheInvalidate,
			},
			{
				Name:   "clear",
				Usage:  "Delete every cache entry",
				Action: r.CacheClear,
			},
		},
	}
}

// setupCommand handles setup operations for the database and configuration file.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize the cache database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Revert the most recently applied migration",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:  "config",
				Usage: "Write a configuration file from the template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Path to write (default: --config)",
					},
				},
				Action: r.SetupConfig,
			},
		},
	}
}

// serveCommand runs the JSON API
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the JSON API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Interface to bind (default: server.host)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to bind (default: server.port)",
			},
			&cli.BoolFlag{
				Name:  "no-sweep",
				Usage: "Disable the background cache sweeper",
			},
		},
		Action: r.Serve,
	}
}
