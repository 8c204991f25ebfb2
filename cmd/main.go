package main

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	_ "net/http/pprof"

	_ "github.com/KimMachineGun/automemlimit"
	_ "go.uber.org/automaxprocs"

	"github.com/royalcat/geosdr/geocsv"
	"github.com/royalcat/geosdr/geoencode"
	"github.com/royalcat/geosdr/geomodel"
	"github.com/royalcat/geosdr/internal/stats"
)

func main() {
	app := &cli.App{
		Name:        "geosdr",
		Description: "Encodes geospatial telemetry into sparse binary feature vectors",
		Commands: []*cli.Command{
			{
				Name:    "encode",
				Aliases: []string{"e"},
				Usage:   "encode a telemetry csv file into a vector batch",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:      "input",
						Aliases:   []string{"i"},
						Required:  true,
						TakesFile: true,
					},
					&cli.StringFlag{
						Name:      "output",
						Aliases:   []string{"o"},
						TakesFile: true,
					},
					&cli.StringFlag{
						Name:        "cache",
						Value:       "processed",
						DefaultText: "processed",
						Usage:       "cache directory, or leveldb:<path> for an embedded store",
					},
					&cli.BoolFlag{
						Name: "no-cache",
					},
					&cli.IntFlag{
						Name:        "threads",
						Aliases:     []string{"t"},
						DefaultText: "max",
					},
					&cli.StringFlag{
						Name: "stats",
					},
					&cli.StringFlag{
						Name:        "pprof.listen",
						DefaultText: "",
					},
					&cli.BoolFlag{
						Name:        "pprof.profile",
						DefaultText: "",
					},
					&cli.BoolFlag{
						Name:        "pprof.heap",
						DefaultText: "",
					},
				}, encoderFlags...),
				Action: encode,
			},
			serveCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

var encoderFlags = []cli.Flag{
	&cli.StringFlag{
		Name:        "encoder",
		Aliases:     []string{"e"},
		Value:       "numenta",
		DefaultText: "numenta",
		Usage:       "encoder variant: numenta or altgeo",
	},
	&cli.IntFlag{Name: "scale", Value: 5},
	&cli.IntFlag{Name: "w", Value: 21},
	&cli.IntFlag{Name: "n", Value: 1000},
	&cli.IntFlag{Name: "timestep", Value: 10},
	&cli.IntFlag{Name: "g-prec", Value: 6},
	&cli.IntFlag{Name: "s-prec", Value: 1},
	&cli.Float64Flag{Name: "s-max", Value: 140},
}

func buildEncoder(ctx *cli.Context) (geoencode.Encoder, error) {
	switch name := ctx.String("encoder"); name {
	case "numenta":
		return geoencode.NewNumentaEncoder(geoencode.NumentaConfig{
			Scale:    ctx.Int("scale"),
			W:        ctx.Int("w"),
			N:        ctx.Int("n"),
			Timestep: ctx.Int("timestep"),
		})
	case "altgeo", "alt":
		return geoencode.NewAltGeoEncoder(geoencode.AltGeoConfig{
			GeoPrecision:   ctx.Int("g-prec"),
			SpeedPrecision: ctx.Int("s-prec"),
			SpeedMax:       ctx.Float64("s-max"),
		})
	default:
		return nil, fmt.Errorf("unknown encoder: %s", name)
	}
}

func encode(ctx *cli.Context) error {
	log := slog.Default()

	threads := ctx.Int("threads")
	if threads == 0 {
		threads = runtime.GOMAXPROCS(0)
	}
	log = log.With("threads", threads)

	if pprofListen := ctx.String("pprof.listen"); pprofListen != "" {
		go func() {
			log.Info("Starting pprof server")
			err := http.ListenAndServe(pprofListen, nil)
			if err != nil {
				log.Error("Error starting pprof server", "error", err)
			}
		}()
	}

	if ctx.Bool("pprof.profile") {
		f, err := os.OpenFile("profile.cpu.pprof", os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return fmt.Errorf("error creating pprof file: %w", err)
		}
		err = pprof.StartCPUProfile(f)
		if err != nil {
			return fmt.Errorf("error starting pprof: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	var collector *stats.Collector
	if ctx.String("stats") != "" {
		var err error
		collector, err = stats.NewCollector(time.Second)
		if err != nil {
			return fmt.Errorf("error creating stats collector: %w", err)
		}
		collector.Start()
	}

	enc, err := buildEncoder(ctx)
	if err != nil {
		return err
	}

	input := ctx.String("input")
	started := time.Now()

	compute := func() (geomodel.Batch, error) {
		records, err := geocsv.ReadFile(input)
		if err != nil {
			return geomodel.Batch{}, fmt.Errorf("error reading telemetry: %w", err)
		}
		return geoencode.EncodeBatch(ctx.Context, enc, records, threads)
	}
	batch, err := obtainBatch(ctx, input, enc, compute)
	if err != nil {
		return err
	}

	if output := ctx.String("output"); output != "" {
		if err := saveBatch(output, input, enc, batch); err != nil {
			return fmt.Errorf("failed to save batch: %w", err)
		}
		if stat, err := os.Stat(output); err == nil {
			log = log.With("output_size", humanize.IBytes(uint64(stat.Size())))
		}
	}

	if ctx.Bool("pprof.heap") {
		if err := writeHeapProfile("profile"); err != nil {
			return fmt.Errorf("error writing heap profile: %w", err)
		}
	}

	if stat, err := os.Stat(input); err == nil {
		log = log.With("input_size", humanize.IBytes(uint64(stat.Size())))
	}
	log.Info("Encoding complete",
		"rows", batch.Rows,
		"cols", batch.Cols,
		"encoder", enc.Identity(),
		"elapsed", time.Since(started).Round(time.Millisecond).String(),
	)

	if collector != nil {
		runStats := collector.Stop()
		if err := runStats.SaveToFile(ctx.String("stats")); err != nil {
			return fmt.Errorf("error writing stats report: %w", err)
		}
	}

	return nil
}

func writeHeapProfile(name string) error {
	f, err := os.Create(name + ".heap.prof")
	if err != nil {
		return err
	}
	defer f.Close()
	return pprof.WriteHeapProfile(f)
}
