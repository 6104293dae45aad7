package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/foodifind/foodifind/pkg/model"
)

func replCommand() *cli.Command {
	var cfg config

	flags := append([]cli.Flag{}, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, cacheFlags(&cfg)...)

	return &cli.Command{
		Name:  "repl",
		Usage: "Interactive discovery session; each line is a query",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger()

			fileCfg, err := loadConfigFile(cfg.configPath)
			if err != nil {
				return err
			}

			pipeline, err := cfg.newPipeline(ctx, fileCfg)
			if err != nil {
				return err
			}

			rl, err := readline.New("foodifind> ")
			if err != nil {
				return goerr.Wrap(err, "failed to create readline")
			}
			defer rl.Close()

			fmt.Fprintf(c.Root().Writer, "Discovery session started. Type 'exit' to quit.\n")

			for {
				line, err := rl.Readline()
				if err == readline.ErrInterrupt {
					continue
				}
				if err == io.EOF {
					break
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read line")
				}

				query := strings.TrimSpace(line)
				if query == "" {
					continue
				}
				if query == "exit" {
					break
				}

				result := pipeline.Run(ctx, query, model.Coordinates{Lat: defaultLat, Lng: defaultLng})

				fmt.Fprintf(c.Root().Writer, "%s (%.4f, %.4f): %d spots [%s]\n",
					result.LocationName, result.Center.Lat, result.Center.Lng, len(result.Spots), result.Source)
				for _, spot := range result.Spots {
					fmt.Fprintf(c.Root().Writer, "  %-28s %-16s trending %3.0f  sentiment %3.0f  %s\n",
						spot.Name, spot.Cuisine, spot.TrendingScore, spot.SentimentScore, spot.PriceTier)
				}
			}

			return nil
		},
	}
}
