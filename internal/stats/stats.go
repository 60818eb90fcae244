// Package stats computes statistics of a mask layer over its image layer.
package stats

import (
	"fmt"
	"image"

	"segmate/internal/mask"
	"segmate/pkg/geometry"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MaskStats describes the on pixels of a mask.
type MaskStats struct {
	Area     int
	Coverage float64 // Area over the image area
	Centroid geometry.Point2D

	// Intensity of the image luminance under the mask.
	Mean   float64
	StdDev float64
}

// String formats the statistics for the side panel and the CLI.
func (s MaskStats) String() string {
	if s.Area == 0 {
		return "empty mask"
	}
	return fmt.Sprintf("area %d px (%.2f%%), centroid (%.1f, %.1f), intensity %.1f ± %.1f",
		s.Area, s.Coverage*100, s.Centroid.X, s.Centroid.Y, s.Mean, s.StdDev)
}

// Compute measures layer as a mask against base. base may be nil, in which
// case the intensity fields stay zero. Both images must share their bounds.
func Compute(base image.Image, layer image.Image) (MaskStats, error) {
	var s MaskStats
	m := mask.Binary(layer)
	b := m.Bounds()
	if base != nil && base.Bounds() != b {
		return s, fmt.Errorf("image bounds %v differ from mask bounds %v", base.Bounds(), b)
	}

	var gray *image.Gray
	if base != nil {
		gray = mask.Grayscale(base)
	}

	var xs, ys, values []float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if m.GrayAt(x, y).Y == 0 {
				continue
			}
			xs = append(xs, float64(x))
			ys = append(ys, float64(y))
			if gray != nil {
				values = append(values, float64(gray.GrayAt(x, y).Y))
			}
		}
	}

	s.Area = len(xs)
	if total := b.Dx() * b.Dy(); total > 0 {
		s.Coverage = float64(s.Area) / float64(total)
	}
	if s.Area == 0 {
		return s, nil
	}
	n := float64(s.Area)
	s.Centroid = geometry.NewPoint2D(floats.Sum(xs)/n, floats.Sum(ys)/n)
	if len(values) > 1 {
		s.Mean, s.StdDev = stat.MeanStdDev(values, nil)
	} else if len(values) == 1 {
		s.Mean = values[0]
	}
	return s, nil
}

// Layers computes the statistics of every mask layer of a frame against its
// first layer. Non-mask layers get a zero entry.
func Layers(frame []*image.RGBA, isMask func(l int) bool) ([]MaskStats, error) {
	out := make([]MaskStats, len(frame))
	if len(frame) == 0 {
		return out, nil
	}
	for l, img := range frame {
		if !isMask(l) {
			continue
		}
		s, err := Compute(frame[0], img)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", l, err)
		}
		out[l] = s
	}
	return out, nil
}
