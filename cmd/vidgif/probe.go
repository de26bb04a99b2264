package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/vidgif/pkg/adapters/ffmpegsource"
	"github.com/user/vidgif/pkg/pipeline"
)

func probeCommand() *cli.Command {
	return &cli.Command{
		Name:      "probe",
		Usage:     l10n.T("Show dimensions, duration and codec of videos"),
		ArgsUsage: "<video>...",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "ffmpeg-path", Usage: l10n.T("Path to ffmpeg executable"), EnvVars: []string{"FFMPEG_PATH"}},
		},
		Action: runProbe,
	}
}

func runProbe(c *cli.Context) error {
	if !c.Args().Present() {
		return cli.Exit(l10n.T("Video argument is required"), 2)
	}

	prober := ffmpegsource.Prober{FFmpegPath: c.String("ffmpeg-path")}
	var rows [][]string
	failed := 0
	for _, path := range c.Args().Slice() {
		md, err := prober.Probe(c.Context, path)
		if err != nil {
			fmt.Fprintln(c.App.ErrWriter, l10n.F("Failed to probe %s: %s", path, err))
			failed++
			continue
		}
		rows = append(rows, probeRow(path, md))
	}

	if len(rows) > 0 {
		fmt.Fprintln(c.App.Writer, renderTable(probeColumns(), rows))
	}
	if failed > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

func probeColumns() []column {
	return []column{
		{title: l10n.T("File")},
		{title: l10n.T("Width"), numeric: true},
		{title: l10n.T("Height"), numeric: true},
		{title: l10n.T("Duration"), numeric: true},
		{title: l10n.T("Size"), numeric: true},
		{title: l10n.T("Codec")},
		{title: l10n.T("Prober")},
	}
}

func probeRow(path string, md ffmpegsource.Metadata) []string {
	size := "-"
	if info, err := os.Stat(path); err == nil {
		size = humanize.Bytes(uint64(info.Size()))
	}
	return []string{
		path,
		strconv.Itoa(md.Width),
		strconv.Itoa(md.Height),
		pipeline.FormatTime(md.Duration),
		size,
		md.Codec,
		md.Prober,
	}
}
