// Package mp4probe reads video metadata from MP4 containers without decoding.
package mp4probe

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Eyevinn/mp4ff/mp4"
)

// ErrNoVideoTrack is returned when a file has no video track.
var ErrNoVideoTrack = errors.New("mp4probe: no video track found")

// Info describes the first video track of a file.
type Info struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Duration   float64 `json:"duration"` // seconds, 0 when unknown
	Codec      string  `json:"codec"`    // sample entry type: avc1, hvc1, av01, vp09...
	Fragmented bool    `json:"fragmented"`
	Samples    int     `json:"samples"`
}

// ProbeFile reads metadata from the MP4 at path.
func ProbeFile(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return Probe(f)
}

// ProbeBytes reads metadata from MP4 data.
func ProbeBytes(data []byte) (Info, error) {
	return Probe(bytes.NewReader(data))
}

// Probe reads metadata from an MP4 stream.
func Probe(r io.ReadSeeker) (Info, error) {
	file, err := mp4.DecodeFile(r)
	if err != nil {
		return Info{}, fmt.Errorf("decode mp4: %w", err)
	}

	moov := file.Moov
	if file.IsFragmented() && file.Init != nil {
		moov = file.Init.Moov
	}
	if moov == nil {
		return Info{}, ErrNoVideoTrack
	}

	trak := videoTrack(moov)
	if trak == nil {
		return Info{}, ErrNoVideoTrack
	}

	info := Info{Fragmented: file.IsFragmented()}
	info.Width = int(trak.Tkhd.Width >> 16)
	info.Height = int(trak.Tkhd.Height >> 16)

	stsd := trak.Mdia.Minf.Stbl.Stsd
	if len(stsd.Children) > 0 {
		entry := stsd.Children[0]
		info.Codec = entry.Type()
		if vse, ok := entry.(*mp4.VisualSampleEntryBox); ok && (info.Width == 0 || info.Height == 0) {
			info.Width = int(vse.Width)
			info.Height = int(vse.Height)
		}
	}

	var timescale uint32
	if trak.Mdia.Mdhd != nil {
		timescale = trak.Mdia.Mdhd.Timescale
	}

	if info.Fragmented {
		ticks, samples, err := fragmentTicks(file, moov, trak.Tkhd.TrackID)
		if err != nil {
			return Info{}, err
		}
		info.Samples = samples
		if timescale > 0 {
			info.Duration = float64(ticks) / float64(timescale)
		}
	} else {
		if timescale > 0 && trak.Mdia.Mdhd.Duration > 0 {
			info.Duration = float64(trak.Mdia.Mdhd.Duration) / float64(timescale)
		} else if moov.Mvhd != nil && moov.Mvhd.Timescale > 0 {
			info.Duration = float64(moov.Mvhd.Duration) / float64(moov.Mvhd.Timescale)
		}
		if stsz := trak.Mdia.Minf.Stbl.Stsz; stsz != nil {
			info.Samples = int(stsz.SampleNumber)
		}
	}

	return info, nil
}

func videoTrack(moov *mp4.MoovBox) *mp4.TrakBox {
	for _, trak := range moov.Traks {
		if trak.Mdia == nil || trak.Mdia.Hdlr == nil || trak.Tkhd == nil {
			continue
		}
		if trak.Mdia.Hdlr.HandlerType != "vide" {
			continue
		}
		if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsd == nil {
			continue
		}
		return trak
	}
	return nil
}

// fragmentTicks sums the sample durations of trackID across all fragments.
func fragmentTicks(file *mp4.File, moov *mp4.MoovBox, trackID uint32) (uint64, int, error) {
	var trex *mp4.TrexBox
	if moov.Mvex != nil {
		for _, t := range moov.Mvex.Trexs {
			if t.TrackID == trackID {
				trex = t
				break
			}
		}
	}

	var ticks uint64
	var count int
	for _, seg := range file.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			samples, err := frag.GetFullSamples(trex)
			if err != nil {
				return 0, 0, fmt.Errorf("read fragment samples: %w", err)
			}
			for _, s := range samples {
				ticks += uint64(s.Dur)
			}
			count += len(samples)
		}
	}
	return ticks, count, nil
}
