package main

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/b1naryth1ef/snakeshot"
	"github.com/b1naryth1ef/snakeshot/api"
	"github.com/b1naryth1ef/snakeshot/pipeline"
	"github.com/b1naryth1ef/snakeshot/web"
	"github.com/urfave/cli/v2"
)

var commonFlags = []cli.Flag{
	&cli.PathFlag{
		Name:  "config",
		Usage: "path to the configuration file",
		Value: "config.hcl",
	},
	&cli.StringFlag{
		Name:  "log-level",
		Usage: "minimum log level (debug, info, warn, error)",
		Value: "info",
	},
}

func main() {
	app := &cli.App{
		Name:        "snakeshot",
		Description: "periodic screenshots of running snake games",
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "capture and evict screenshots on the configured intervals",
				Action: commandRun,
				Flags:  commonFlags,
			},
			{
				Name:   "capture",
				Usage:  "run a single capture cycle",
				Action: commandCapture,
				Flags:  commonFlags,
			},
			{
				Name:   "evict",
				Usage:  "delete screenshots the latest report does not reference",
				Action: commandEvict,
				Flags:  commonFlags,
			},
			{
				Name:   "render",
				Usage:  "render an objects payload file to a jpeg",
				Action: commandRender,
				Flags: append([]cli.Flag{
					&cli.PathFlag{
						Name:     "map",
						Usage:    "path to a JSON objects payload",
						Required: true,
					},
					&cli.PathFlag{
						Name:     "out",
						Usage:    "path of the jpeg to write",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "length",
						Usage: "maximum width and height of the image",
						Value: 500,
					},
					&cli.BoolFlag{
						Name:  "strict",
						Usage: "resample so the longer side is exactly --length",
					},
				}, commonFlags...),
			},
			{
				Name:   "serve",
				Usage:  "serve the latest screenshots over HTTP",
				Action: commandServe,
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Usage: "address to listen on, overrides the config",
					},
				}, commonFlags...),
			},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func setupLogger(ctx *cli.Context) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(ctx.String("log-level"))); err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger, nil
}

// loadConfig falls back to the defaults when the default config file is
// absent.
func loadConfig(ctx *cli.Context) (*snakeshot.Config, error) {
	path := ctx.Path("config")
	if !ctx.IsSet("config") {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return snakeshot.DefaultConfig(), nil
		}
	}
	return snakeshot.LoadConfig(path)
}

func openPipeline(ctx *cli.Context) (*pipeline.Pipeline, *snakeshot.Config, error) {
	logger, err := setupLogger(ctx)
	if err != nil {
		return nil, nil, err
	}

	config, err := loadConfig(ctx)
	if err != nil {
		return nil, nil, err
	}

	p, err := pipeline.New(config, logger)
	if err != nil {
		return nil, nil, err
	}
	return p, config, nil
}

func signalContext(ctx *cli.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
}

func commandRun(ctx *cli.Context) error {
	p, _, err := openPipeline(ctx)
	if err != nil {
		return err
	}
	defer p.Close()

	runCtx, stop := signalContext(ctx)
	defer stop()

	return p.Run(runCtx)
}

func commandCapture(ctx *cli.Context) error {
	p, _, err := openPipeline(ctx)
	if err != nil {
		return err
	}
	defer p.Close()

	return p.CaptureCycle(ctx.Context)
}

func commandEvict(ctx *cli.Context) error {
	p, _, err := openPipeline(ctx)
	if err != nil {
		return err
	}
	defer p.Close()

	return p.EvictCycle(ctx.Context)
}

func commandServe(ctx *cli.Context) error {
	p, config, err := openPipeline(ctx)
	if err != nil {
		return err
	}
	defer p.Close()

	palette, err := config.Palette()
	if err != nil {
		return err
	}

	listen := config.Listen
	if ctx.IsSet("listen") {
		listen = ctx.String("listen")
	}

	serveCtx, stop := signalContext(ctx)
	defer stop()

	server := web.NewServer(config.OutputPath, p.Store(), palette, slog.Default())
	return server.ListenAndServe(serveCtx, listen)
}

func commandRender(ctx *cli.Context) error {
	if _, err := setupLogger(ctx); err != nil {
		return err
	}

	config, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	palette, err := config.Palette()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(ctx.Path("map"))
	if err != nil {
		return err
	}

	var payload api.ObjectsPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("failed to parse %s: %w", ctx.Path("map"), err)
	}

	size, objects, err := payload.DecodeWithin(config.API.MaxMapDimension)
	if err != nil {
		return err
	}

	length := ctx.Int("length")
	img, err := snakeshot.NewRenderer(palette).Render(size, image.Pt(length, length), objects, ctx.Bool("strict"))
	if err != nil {
		return err
	}

	fd, err := os.Create(ctx.Path("out"))
	if err != nil {
		return err
	}
	defer fd.Close()

	err = jpeg.Encode(fd, img, &jpeg.Options{Quality: config.Quality})
	if err != nil {
		return err
	}

	slog.Info("render: wrote screenshot", "file", ctx.Path("out"), "width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return fd.Close()
}
