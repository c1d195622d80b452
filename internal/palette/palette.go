// Package palette derives a small set of dominant colors from an image.
package palette

import (
	"fmt"
	"image"
	"io"
	"sort"

	// Register decoders for the formats artwork arrives in.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	xdraw "golang.org/x/image/draw"
)

const (
	sampleSize   = 64
	maxColors    = 5
	channelShift = 4 // quantize each channel to 16 buckets
)

// Extract decodes an image and returns up to five dominant colors as
// lowercase hex strings, most frequent first.
func Extract(r io.Reader) ([]string, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return FromImage(src), nil
}

// FromImage computes the dominant colors of an already decoded image.
func FromImage(src image.Image) []string {
	// Downscale so the histogram pass is cheap regardless of input size.
	small := image.NewRGBA(image.Rect(0, 0, sampleSize, sampleSize))
	xdraw.CatmullRom.Scale(small, small.Bounds(), src, src.Bounds(), xdraw.Over, nil)

	type bucket struct {
		count   int
		r, g, b uint64
	}
	hist := make(map[uint32]*bucket)

	for y := 0; y < sampleSize; y++ {
		for x := 0; x < sampleSize; x++ {
			i := small.PixOffset(x, y)
			r, g, b, a := small.Pix[i], small.Pix[i+1], small.Pix[i+2], small.Pix[i+3]
			if a < 128 {
				continue
			}
			key := uint32(r>>channelShift)<<8 | uint32(g>>channelShift)<<4 | uint32(b>>channelShift)
			bk := hist[key]
			if bk == nil {
				bk = &bucket{}
				hist[key] = bk
			}
			bk.count++
			bk.r += uint64(r)
			bk.g += uint64(g)
			bk.b += uint64(b)
		}
	}

	buckets := make([]*bucket, 0, len(hist))
	for _, bk := range hist {
		buckets = append(buckets, bk)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].count > buckets[j].count })

	n := len(buckets)
	if n > maxColors {
		n = maxColors
	}
	colors := make([]string, 0, n)
	for _, bk := range buckets[:n] {
		c := uint64(bk.count)
		colors = append(colors, fmt.Sprintf("#%02x%02x%02x", bk.r/c, bk.g/c, bk.b/c))
	}
	return colors
}
