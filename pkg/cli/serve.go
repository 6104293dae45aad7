package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/foodifind/foodifind/pkg/server"
	"github.com/foodifind/foodifind/pkg/utils/logging"
)

func serveCommand() *cli.Command {
	var (
		cfg  config
		addr string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Listen address",
			Value:       ":8080",
			Sources:     cli.EnvVars("FOODIFIND_ADDR"),
			Destination: &addr,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, cacheFlags(&cfg)...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API server",
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

			srv := server.New(addr, pipeline, fileCfg.Tiles)

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			logging.Default().Info("starting foodifind server",
				"addr", addr,
				"mock_mode", cfg.geminiAPIKey == "",
				"redis", cfg.redisAddr != "",
			)
			return srv.Start(ctx)
		},
	}
}
