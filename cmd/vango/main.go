package main

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/openvange/vango/pkg/m3d"
	"github.com/openvange/vango/pkg/store"
	"github.com/openvange/vango/pkg/terrain"
	"github.com/openvange/vango/pkg/version"

	"github.com/alecthomas/kong"
	"github.com/go-redis/redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var CLI struct {
	Version kong.VersionFlag `help:"Print version information and exit." short:"v"`
	Debug   bool             `help:"Whether to enable debug logging."`
	Cache   string           `help:"Decoded-asset cache: a directory, a redis:// URL, or 'none'." placeholder:"BACKEND"`

	Level struct {
		Config string `arg:"" name:"config" help:"Level configuration file." type:"existingfile"`
		Output string `help:"Where to write the diagnostic raster." short:"o" default:"level.png"`
	} `cmd:"" help:"Decode a level and export its diagnostic raster as PNG."`

	Model struct {
		File    string `arg:"" name:"file" help:"Model binary to decode." type:"existingfile"`
		Output  string `help:"Directory to unpack into." short:"o" default:"model"`
		Compact bool   `help:"Weld duplicate vertices and emit an index buffer."`
	} `cmd:"" help:"Decode a model and unpack it to OBJ files plus metadata."`
}

func writeError(err error) {
	fmt.Fprintf(os.Stderr, "%s\n", err)
	os.Exit(1)
}

// openCache builds the decode cache for the chosen backend. Cache setup
// problems degrade to uncached decodes; they never fail the command.
func openCache(spec string) *store.Cache {
	var backing store.Store
	switch {
	case spec == "none":
		return nil
	case strings.HasPrefix(spec, "redis://"), strings.HasPrefix(spec, "rediss://"):
		options, err := redis.ParseURL(spec)
		if err != nil {
			log.Warn().Err(err).Msg("bad cache URL, caching disabled")
			return nil
		}
		backing = store.NewRedisStore(redis.NewClient(options))
	case spec != "":
		backing = store.FSStore(spec)
	default:
		base, err := os.UserCacheDir()
		if err != nil {
			log.Warn().Err(err).Msg("no user cache directory, caching disabled")
			return nil
		}
		backing = store.FSStore(filepath.Join(base, "vango"))
	}

	cache, err := store.NewCache(backing)
	if err != nil {
		log.Warn().Err(err).Msg("caching disabled")
		return nil
	}
	return cache
}

func levelCommand(ctx context.Context, cache *store.Cache, configPath string, output string) error {
	config, err := terrain.LoadConfig(configPath)
	if err != nil {
		return err
	}

	var level *terrain.Level
	if cache != nil {
		level, err = cache.Level(ctx, config)
	} else {
		level, err = terrain.Load(config)
	}
	if err != nil {
		return err
	}

	img := image.NewRGBA(image.Rect(0, 0, int(level.Size[0]), int(level.Size[1])))
	img.Pix = level.Export()

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return err
	}
	log.Info().Str("path", output).Msg("wrote level raster")
	return nil
}

func modelCommand(ctx context.Context, cache *store.Cache, file string, output string, compact bool) error {
	var model *m3d.Model
	var err error
	if cache != nil {
		model, err = cache.Model(ctx, file, compact)
	} else {
		model, err = m3d.LoadModel(file, compact)
	}
	if err != nil {
		return err
	}
	return m3d.ExportModel(model, output)
}

func main() {
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	log.Logger = log.Output(consoleWriter)

	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	parsed := kong.Parse(&CLI,
		kong.Name("vango"),
		kong.Description("a toolkit for the Vangers asset formats"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		kong.Vars{
			"version": fmt.Sprintf(
				"vango %s (commit %s, built %s)",
				version.Version,
				version.GitCommit,
				version.BuildTime,
			),
		})

	if CLI.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Warn().Msg("debug logging enabled")
	}

	ctx := context.Background()
	cache := openCache(CLI.Cache)

	switch parsed.Command() {
	case "level <config>":
		if err := levelCommand(ctx, cache, CLI.Level.Config, CLI.Level.Output); err != nil {
			writeError(err)
		}
	case "model <file>":
		if err := modelCommand(ctx, cache, CLI.Model.File, CLI.Model.Output, CLI.Model.Compact); err != nil {
			writeError(err)
		}
	}
}
