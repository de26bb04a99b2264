package summarizer

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/user/vidgif/pkg/pipeline"
)

// Translator maps an English label to the output language.
type Translator func(string) string

// MarkdownOption configures the markdown formatter.
type MarkdownOption func(*markdownFormatter)

// WithTranslator translates headings and labels.
func WithTranslator(t Translator) MarkdownOption {
	return func(f *markdownFormatter) {
		if t != nil {
			f.t = t
		}
	}
}

type markdownFormatter struct {
	t Translator
}

// NewMarkdownFormatter returns a Formatter producing a markdown report.
func NewMarkdownFormatter(opts ...MarkdownOption) Formatter {
	f := &markdownFormatter{t: func(s string) string { return s }}
	for _, opt := range opts {
		opt(f)
	}
	return FormatFunc(f.format)
}

func (f *markdownFormatter) format(s *Summary) string {
	var b strings.Builder
	t := f.t

	fmt.Fprintf(&b, "# %s\n\n", t("Conversion Summary"))
	fmt.Fprintf(&b, "%s: %s\n\n", t("Generated"), s.GeneratedAt.Format("2006-01-02 15:04:05"))

	fmt.Fprintf(&b, "## %s\n\n", t("Source"))
	rows := [][2]string{
		{t("File"), orDash(s.Source.Path)},
		{t("Size"), size(s.Source.Width, s.Source.Height)},
	}
	if s.Source.Duration > 0 {
		rows = append(rows, [2]string{t("Duration"), pipeline.FormatTime(s.Source.Duration)})
	}
	if s.Source.Codec != "" {
		rows = append(rows, [2]string{t("Codec"), s.Source.Codec})
	}
	table(&b, t, rows)

	fmt.Fprintf(&b, "## %s\n\n", t("Settings"))
	table(&b, t, [][2]string{
		{t("Window"), fmt.Sprintf("%s - %s", pipeline.FormatTime(s.Settings.Start), pipeline.FormatTime(s.Settings.End))},
		{t("Frame Rate"), fmt.Sprintf("%d fps", s.Settings.FPS)},
		{t("Quality"), fmt.Sprintf("%d", s.Settings.Quality)},
		{t("Engine"), orDash(s.Settings.Engine)},
		{t("Media Source"), orDash(s.Settings.Source)},
		{t("Codec"), orDash(s.Settings.Codec)},
		{t("Worker"), orDash(s.Settings.Worker)},
	})

	fmt.Fprintf(&b, "## %s\n\n", t("Output"))
	table(&b, t, [][2]string{
		{t("File"), orDash(s.Output.Path)},
		{t("Frames"), humanize.Comma(int64(s.Output.FrameCount))},
		{t("Size"), size(s.Output.Width, s.Output.Height)},
		{t("Playback"), fmt.Sprintf("%d ms", s.Output.DurationMs)},
		{t("File Size"), humanize.Bytes(uint64(s.Output.FileSize))},
	})

	fmt.Fprintf(&b, "## %s\n\n", t("Timing"))
	table(&b, t, [][2]string{
		{t("Sampling"), fmt.Sprintf("%d ms", s.Timing.SampleMs)},
		{t("Encoding"), fmt.Sprintf("%d ms", s.Timing.EncodeMs)},
		{t("Total"), fmt.Sprintf("%d ms", s.Timing.TotalMs)},
	})

	return b.String()
}

func table(b *strings.Builder, t Translator, rows [][2]string) {
	fmt.Fprintf(b, "| %s | %s |\n|---|---|\n", t("Item"), t("Value"))
	for _, r := range rows {
		fmt.Fprintf(b, "| %s | %s |\n", r[0], strings.ReplaceAll(r[1], "|", `\|`))
	}
	b.WriteString("\n")
}

func size(w, h int) string {
	if w == 0 || h == 0 {
		return "-"
	}
	return fmt.Sprintf("%dx%d", w, h)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
