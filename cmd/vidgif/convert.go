package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/ideamans/go-l10n"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/user/vidgif/pkg/adapters/ffmpegsource"
	"github.com/user/vidgif/pkg/adapters/osfilesystem"
	"github.com/user/vidgif/pkg/config"
	"github.com/user/vidgif/pkg/pipeline"
	"github.com/user/vidgif/pkg/summarizer"
	"github.com/user/vidgif/pkg/vidgif"
)

func convertCommand() *cli.Command {
	var (
		catOutput  = l10n.T("Output")
		catClip    = l10n.T("Clip")
		catQuality = l10n.T("Size and Quality")
		catBackend = l10n.T("Backends")
		catDebug   = l10n.T("Debug")
	)

	flags := []cli.Flag{
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: l10n.T("Output GIF file path (default: input name with .gif)"), Category: catOutput},
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: l10n.T("YAML configuration file"), Category: catOutput},
		&cli.StringFlag{Name: "summary", Usage: l10n.T("Output conversion summary to file (Markdown format)"), Category: catOutput},
		&cli.BoolFlag{Name: "no-progress", Usage: l10n.T("Hide the progress bar"), Category: catOutput},

		&cli.Float64Flag{Name: "start", Aliases: []string{"s"}, Usage: l10n.T("Window start in seconds"), Category: catClip},
		&cli.Float64Flag{Name: "end", Aliases: []string{"e"}, Usage: l10n.T("Window end in seconds (default: start + 3)"), Category: catClip},
		&cli.IntFlag{Name: "fps", Aliases: []string{"r"}, Usage: l10n.T("Frames per second (1-60, default: 10)"), Category: catClip},

		&cli.IntFlag{Name: "width", Aliases: []string{"W"}, Usage: l10n.T("Output width (height follows the aspect ratio)"), Category: catQuality},
		&cli.IntFlag{Name: "height", Aliases: []string{"H"}, Usage: l10n.T("Output height (width follows the aspect ratio)"), Category: catQuality},
		&cli.IntFlag{Name: "max-width", Usage: l10n.T("Maximum width when no size is given (default: 480, 0 = native)"), Category: catQuality},
		&cli.StringFlag{Name: "preset", Aliases: []string{"p"}, Usage: l10n.T("Scale preset (360p, 480p, 720p)"), Category: catQuality},
		&cli.IntFlag{Name: "quality", Aliases: []string{"q"}, Usage: l10n.T("Quality (1-30, lower is better, default: 10)"), Category: catQuality},
		&cli.StringFlag{Name: "quality-preset", Usage: l10n.T("Quality preset (low, medium, high)"), Category: catQuality},

		&cli.StringFlag{Name: "engine", Usage: l10n.T("Conversion engine (pipeline, ffmpeg)"), Category: catBackend},
		&cli.StringFlag{Name: "source", Usage: l10n.T("Frame source for the pipeline engine (ffmpeg, chrome)"), Category: catBackend},
		&cli.StringFlag{Name: "codec", Usage: l10n.T("GIF codec (builtin, ffmpeg)"), Category: catBackend},
		&cli.StringFlag{Name: "worker", Usage: l10n.T("Where the codec runs (inprocess, process)"), Category: catBackend},
		&cli.StringFlag{Name: "ffmpeg-path", Usage: l10n.T("Path to ffmpeg executable"), EnvVars: []string{"FFMPEG_PATH"}, Category: catBackend},
		&cli.StringFlag{Name: "chrome-path", Usage: l10n.T("Path to Chrome executable"), Category: catBackend},
		&cli.BoolFlag{Name: "no-headless", Usage: l10n.T("Run browser in non-headless mode"), Category: catBackend},
		&cli.BoolFlag{Name: "no-install-chromium", Usage: l10n.T("Do not download Chromium when Chrome is not found"), Category: catBackend},

		&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: l10n.T("Enable debug output"), Category: catDebug},
		&cli.StringFlag{Name: "debug-dir", Value: "./debug", Usage: l10n.T("Directory for debug output"), Category: catDebug},
	}

	return &cli.Command{
		Name:      "convert",
		Usage:     l10n.T("Convert a video clip to an animated GIF"),
		ArgsUsage: "<video>",
		Flags:     append(flags, logFlags()...),
		Action:    runConvert,
	}
}

func runConvert(c *cli.Context) error {
	cfg, err := buildConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	log := newLogger(c)
	ctx, cancel := signalContext(c.Context, log)
	defer cancel()

	conv, err := vidgif.NewConverter(cfg, log)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	log.Info(l10n.F("Converting %s (%s to %s, %d fps)", cfg.Input,
		pipeline.FormatTime(cfg.StartTime), pipeline.FormatTime(cfg.EndTime), cfg.FPS))

	bar := newProgressBar(c.App.ErrWriter, !c.Bool("no-progress") && !c.Bool("quiet") && isTerminal(os.Stderr))
	result, err := conv.Run(ctx, bar.Update)
	bar.Finish()
	if err != nil {
		return cli.Exit(l10n.F("Conversion failed [%s]: %s", pipeline.KindOf(err), err), 1)
	}

	log.Info(l10n.F("Output saved to %s (%s, %d frames, %dx%d)", cfg.OutputPath,
		humanize.Bytes(uint64(result.FileSize)), result.FrameCount, result.Width, result.Height))

	if path := c.String("summary"); path != "" {
		summary := summarizer.NewBuilder().
			WithSource(probedSource(c, cfg)).
			WithSettings(summarizer.Settings{
				Engine: cfg.Engine,
				Source: cfg.Source,
				Codec:  cfg.Codec,
				Worker: cfg.Worker,
			}).
			WithResult(result).
			Build()
		writer := summarizer.NewWriter(summarizer.NewMarkdownFormatter(summarizer.WithTranslator(l10n.T)), osfilesystem.New())
		if err := writer.Write(path, summary); err != nil {
			log.Error(l10n.F("Failed to write summary: %s", err))
		} else {
			log.Info(l10n.F("Summary saved to %s", path))
		}
	}
	return nil
}

// buildConfig layers the config file, then command-line flags, over defaults.
func buildConfig(c *cli.Context) (config.Config, error) {
	base := config.Defaults()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return config.Config{}, err
		}
		base = loaded
	}

	if c.Args().Len() > 1 {
		return config.Config{}, errors.New(l10n.T("Exactly one video argument is expected"))
	}
	if c.Args().Present() {
		base.Input = c.Args().First()
	}
	if base.Input == "" {
		return config.Config{}, errors.New(l10n.T("Video argument is required"))
	}

	b := vidgif.FromConfig(base)

	start, end := base.StartTime, base.EndTime
	if c.IsSet("start") {
		start = c.Float64("start")
	}
	if c.IsSet("end") {
		end = c.Float64("end")
	} else if end <= start {
		end = start + 3
	}
	b.WithWindow(start, end)

	if c.IsSet("fps") {
		b.WithFPS(c.Int("fps"))
	}
	if c.IsSet("width") {
		b.WithWidth(c.Int("width"))
	}
	if c.IsSet("height") {
		b.WithHeight(c.Int("height"))
	}
	if c.IsSet("max-width") {
		b.WithMaxWidth(c.Int("max-width"))
	}
	if c.IsSet("preset") {
		b.WithScalePreset(c.String("preset"))
	}
	if c.IsSet("quality-preset") {
		b.WithQualityPreset(vidgif.QualityPreset(c.String("quality-preset")))
	}
	if c.IsSet("quality") {
		b.WithQuality(c.Int("quality"))
	}
	if c.IsSet("engine") {
		b.WithEngine(c.String("engine"))
	}
	if c.IsSet("source") {
		b.WithSource(c.String("source"))
	}
	if c.IsSet("codec") {
		b.WithCodec(c.String("codec"))
	}
	if c.IsSet("worker") {
		b.WithWorker(c.String("worker"))
	}
	if c.IsSet("ffmpeg-path") {
		b.WithFFmpegPath(c.String("ffmpeg-path"))
	}
	if c.IsSet("chrome-path") {
		b.WithChromePath(c.String("chrome-path"))
	}
	if c.Bool("no-headless") {
		b.WithHeadless(false)
	}
	if c.Bool("debug") {
		b.WithDebug(c.String("debug-dir"))
	}

	output := base.OutputPath
	if c.IsSet("output") {
		output = c.String("output")
	}
	if output == "" {
		output = strings.TrimSuffix(base.Input, filepath.Ext(base.Input)) + ".gif"
	}
	b.WithOutput(output)

	cfg := b.Build()
	if c.Bool("no-install-chromium") {
		cfg.InstallChromium = false
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// probedSource describes the input for the summary. Probe failures only
// leave fields empty.
func probedSource(c *cli.Context, cfg config.Config) summarizer.SourceInfo {
	info := summarizer.SourceInfo{Path: cfg.Input}
	md, err := ffmpegsource.Prober{FFmpegPath: cfg.FFmpegPath}.Probe(c.Context, cfg.Input)
	if err == nil {
		info.Width, info.Height = md.Width, md.Height
		info.Duration = md.Duration
		info.Codec = md.Codec
	}
	return info
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
