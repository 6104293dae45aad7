package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/foodifind/foodifind/pkg/model"
)

// Default fallback center when a query does not name a location
const (
	defaultLat = 9.9312
	defaultLng = 76.2673
)

func discoverCommand() *cli.Command {
	var (
		cfg config
		lat float64
		lng float64
	)

	flags := []cli.Flag{
		&cli.FloatFlag{
			Name:        "lat",
			Usage:       "Fallback latitude",
			Value:       defaultLat,
			Destination: &lat,
		},
		&cli.FloatFlag{
			Name:        "lng",
			Usage:       "Fallback longitude",
			Value:       defaultLng,
			Destination: &lng,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, cacheFlags(&cfg)...)

	return &cli.Command{
		Name:      "discover",
		Usage:     "Run one discovery query and print the result as JSON",
		ArgsUsage: "<query>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if query == "" {
				return goerr.New("query argument is required")
			}

			cfg.setupLogger()

			fileCfg, err := loadConfigFile(cfg.configPath)
			if err != nil {
				return err
			}

			pipeline, err := cfg.newPipeline(ctx, fileCfg)
			if err != nil {
				return err
			}

			// Spinner suffix follows the cosmetic stage labels
			sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
			sp.Suffix = " starting"
			entries, cancelSub := pipeline.Log().Subscribe()
			go func() {
				for entry := range entries {
					sp.Suffix = fmt.Sprintf(" [%s] %s", entry.Stage, entry.Message)
				}
			}()
			sp.Start()

			result := pipeline.Run(ctx, query, model.Coordinates{Lat: lat, Lng: lng})

			sp.Stop()
			cancelSub()

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return goerr.Wrap(err, "failed to marshal result")
			}
			fmt.Fprintln(c.Root().Writer, string(out))
			return nil
		},
	}
}
