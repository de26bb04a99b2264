package main

import (
	"io"
	"time"

	"github.com/ideamans/go-l10n"
	"github.com/schollz/progressbar/v3"

	"github.com/user/vidgif/pkg/pipeline"
)

// progressBar renders unified conversion progress. A disabled bar
// ignores updates.
type progressBar struct {
	bar   *progressbar.ProgressBar
	stage pipeline.ProgressStage
}

func newProgressBar(w io.Writer, enabled bool) *progressBar {
	if !enabled {
		return &progressBar{}
	}
	return &progressBar{
		bar: progressbar.NewOptions(100,
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetWidth(30),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionThrottle(65*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		),
	}
}

// Update is a pipeline.ProgressFunc.
func (p *progressBar) Update(pr pipeline.Progress) {
	if p.bar == nil {
		return
	}
	if pr.Stage != p.stage {
		p.stage = pr.Stage
		p.bar.Describe(stageLabel(pr.Stage))
	}
	_ = p.bar.Set(int(pr.Percent))
}

func (p *progressBar) Finish() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
}

func stageLabel(stage pipeline.ProgressStage) string {
	switch stage {
	case pipeline.StageSampling:
		return l10n.T("Sampling")
	case pipeline.StageEncoding:
		return l10n.T("Encoding")
	case pipeline.StagePalette:
		return l10n.T("Palette")
	case pipeline.StageRender:
		return l10n.T("Rendering")
	case pipeline.StageFinalize:
		return l10n.T("Finalizing")
	case pipeline.StageComplete:
		return l10n.T("Done")
	default:
		return string(stage)
	}
}
