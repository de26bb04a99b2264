package gifcodec

import (
	"image/color"
	"sort"
)

// alphaThreshold separates transparent from opaque pixels.
const alphaThreshold = 128

type histEntry struct {
	c     [3]uint8
	count int
}

// colorBox is a run of histogram entries with shared bounds.
type colorBox struct {
	entries []histEntry
	total   int
}

func newBox(entries []histEntry) *colorBox {
	b := &colorBox{entries: entries}
	for _, e := range entries {
		b.total += e.count
	}
	return b
}

// widest returns the channel with the largest range and that range.
func (b *colorBox) widest() (int, int) {
	lo := [3]uint8{255, 255, 255}
	hi := [3]uint8{}
	for _, e := range b.entries {
		for ch := 0; ch < 3; ch++ {
			if e.c[ch] < lo[ch] {
				lo[ch] = e.c[ch]
			}
			if e.c[ch] > hi[ch] {
				hi[ch] = e.c[ch]
			}
		}
	}
	best, span := 0, -1
	for ch := 0; ch < 3; ch++ {
		if s := int(hi[ch]) - int(lo[ch]); s > span {
			best, span = ch, s
		}
	}
	return best, span
}

// split cuts the box at the weighted median of its widest channel.
func (b *colorBox) split() (*colorBox, *colorBox) {
	ch, _ := b.widest()
	sort.Slice(b.entries, func(i, j int) bool { return b.entries[i].c[ch] < b.entries[j].c[ch] })

	half := b.total / 2
	acc := 0
	cut := 1
	for i, e := range b.entries {
		acc += e.count
		if acc >= half {
			cut = i + 1
			break
		}
	}
	if cut >= len(b.entries) {
		cut = len(b.entries) - 1
	}
	return newBox(b.entries[:cut]), newBox(b.entries[cut:])
}

func (b *colorBox) mean() color.RGBA {
	var r, g, bl int
	for _, e := range b.entries {
		r += int(e.c[0]) * e.count
		g += int(e.c[1]) * e.count
		bl += int(e.c[2]) * e.count
	}
	n := b.total
	return color.RGBA{R: uint8((r + n/2) / n), G: uint8((g + n/2) / n), B: uint8((bl + n/2) / n), A: 255}
}

// medianCut builds a palette of at most maxColors opaque colors from the
// opaque pixels of rgba, visiting every stride-th pixel.
func medianCut(rgba []byte, stride, maxColors int) color.Palette {
	if stride < 1 {
		stride = 1
	}

	hist := make(map[uint32]int)
	for i := 0; i+3 < len(rgba); i += 4 * stride {
		if rgba[i+3] < alphaThreshold {
			continue
		}
		key := uint32(rgba[i])<<16 | uint32(rgba[i+1])<<8 | uint32(rgba[i+2])
		hist[key]++
	}

	if len(hist) == 0 {
		return color.Palette{color.RGBA{A: 255}}
	}

	entries := make([]histEntry, 0, len(hist))
	for key, n := range hist {
		entries = append(entries, histEntry{c: [3]uint8{uint8(key >> 16), uint8(key >> 8), uint8(key)}, count: n})
	}

	boxes := []*colorBox{newBox(entries)}
	for len(boxes) < maxColors {
		idx, span := -1, 0
		for i, b := range boxes {
			if len(b.entries) < 2 {
				continue
			}
			if _, s := b.widest(); s > span {
				idx, span = i, s
			}
		}
		if idx < 0 {
			break
		}
		a, c := boxes[idx].split()
		boxes[idx] = a
		boxes = append(boxes, c)
	}

	palette := make(color.Palette, len(boxes))
	for i, b := range boxes {
		palette[i] = b.mean()
	}
	return palette
}
