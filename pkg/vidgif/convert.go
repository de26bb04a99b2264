package vidgif

import (
	"context"
	"fmt"

	"github.com/user/vidgif/pkg/adapters/chromesource"
	"github.com/user/vidgif/pkg/adapters/ffmpegcodec"
	"github.com/user/vidgif/pkg/adapters/ffmpegconvert"
	"github.com/user/vidgif/pkg/adapters/ffmpegsource"
	"github.com/user/vidgif/pkg/adapters/filesink"
	"github.com/user/vidgif/pkg/adapters/ggrenderer"
	"github.com/user/vidgif/pkg/adapters/gifcodec"
	"github.com/user/vidgif/pkg/adapters/nullsink"
	"github.com/user/vidgif/pkg/adapters/osfilesystem"
	"github.com/user/vidgif/pkg/channel"
	"github.com/user/vidgif/pkg/config"
	"github.com/user/vidgif/pkg/orchestrator"
	"github.com/user/vidgif/pkg/pipeline"
	"github.com/user/vidgif/pkg/ports"
	"github.com/user/vidgif/pkg/stages/encode"
	"github.com/user/vidgif/pkg/stages/pack"
	"github.com/user/vidgif/pkg/stages/plan"
	"github.com/user/vidgif/pkg/stages/sample"
)

// Converter assembles the adapters and stages selected by a config.Config.
type Converter struct {
	cfg      config.Config
	logger   ports.Logger
	fs       ports.FileSystem
	renderer ports.Renderer
}

// NewConverter checks cfg and creates a Converter.
func NewConverter(cfg config.Config, logger ports.Logger) (*Converter, error) {
	if cfg.Input == "" {
		return nil, pipeline.Errorf(pipeline.KindInvalidConfig, "no input video")
	}
	if err := cfg.Validate(); err != nil {
		return nil, pipeline.NewError(pipeline.KindInvalidConfig, "invalid configuration", err)
	}
	return &Converter{
		cfg:      cfg,
		logger:   logger,
		fs:       osfilesystem.New(),
		renderer: ggrenderer.New(),
	}, nil
}

// Run converts the configured clip.
func (c *Converter) Run(ctx context.Context, onProgress pipeline.ProgressFunc) (orchestrator.RunResult, error) {
	if c.cfg.Engine == config.EngineFFmpeg {
		conv, err := ffmpegconvert.New(c.cfg.FFmpegPath, c.fs, c.logger)
		if err != nil {
			return orchestrator.RunResult{}, err
		}
		return conv.Convert(ctx, c.cfg.Input, c.cfg.ToOrchestratorConfig(), onProgress)
	}

	sink, err := c.debugSink()
	if err != nil {
		return orchestrator.RunResult{}, err
	}

	spawner, err := c.spawner()
	if err != nil {
		return orchestrator.RunResult{}, err
	}
	ch := channel.New(spawner, c.cfg.ChannelOptions(), c.logger)
	defer ch.Close()

	source, err := c.openSource(ctx)
	if err != nil {
		return orchestrator.RunResult{}, fmt.Errorf("open source: %w", pipeline.NewError(pipeline.KindSourceLoadFailed, "open "+c.cfg.Input, err))
	}
	defer source.Close()

	orch := orchestrator.New(
		plan.NewStage(),
		sample.New(c.renderer, sink, c.logger, c.cfg.SampleOptions()),
		pack.NewStage(sink, c.logger),
		encode.NewStage(ch, c.logger),
		c.fs,
		sink,
		c.logger,
	)
	return orch.Run(ctx, c.cfg.ToOrchestratorConfig(), source, onProgress)
}

func (c *Converter) debugSink() (ports.DebugSink, error) {
	if !c.cfg.Debug {
		return nullsink.New(), nil
	}
	if err := c.fs.MkdirAll(c.cfg.DebugDir); err != nil {
		return nil, fmt.Errorf("create debug directory: %w", err)
	}
	return filesink.New(c.cfg.DebugDir, c.fs, c.renderer), nil
}

func (c *Converter) openSource(ctx context.Context) (ports.MediaSource, error) {
	switch c.cfg.Source {
	case config.SourceChrome:
		return chromesource.Open(ctx, c.cfg.Input, c.renderer, c.logger, chromesource.Options{
			ChromePath:      c.cfg.ChromePath,
			Headless:        c.cfg.Headless,
			InstallChromium: c.cfg.InstallChromium,
		})
	default:
		return ffmpegsource.Open(c.cfg.Input, c.renderer, c.logger, ffmpegsource.Options{FFmpegPath: c.cfg.FFmpegPath})
	}
}

func (c *Converter) spawner() (channel.Spawner, error) {
	if c.cfg.Worker == config.WorkerProcess {
		p, err := channel.NewSelfProcess(c.cfg.Codec, c.logger)
		if err != nil {
			return nil, err
		}
		if c.cfg.FFmpegPath != "" {
			p.Args = append(p.Args, "--ffmpeg-path", c.cfg.FFmpegPath)
		}
		return p, nil
	}
	codec, err := NewCodec(c.cfg.Codec, c.cfg.FFmpegPath, c.logger)
	if err != nil {
		return nil, err
	}
	return channel.NewInProcess(codec, c.logger), nil
}

// NewCodec returns the GIF codec registered under name.
func NewCodec(name, ffmpegPath string, logger ports.Logger) (ports.Codec, error) {
	switch name {
	case config.CodecBuiltin, "":
		return gifcodec.New(), nil
	case config.CodecFFmpeg:
		return ffmpegcodec.New(ffmpegPath, logger), nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}
