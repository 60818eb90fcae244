// Package colorutil provides shared color utilities for segmate.
package colorutil

import (
	"encoding/json"
	"fmt"
	"image/color"
)

// Common overlay colors used throughout the application.
var (
	Black         = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White         = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Transparent   = color.RGBA{}
	DarkSlateGray = color.RGBA{R: 47, G: 79, B: 79, A: 255}
)

// Luminance weights, ITU-R BT.709 (the ones skimage rgb2gray uses).
const (
	WeightR = 0.2125
	WeightG = 0.7154
	WeightB = 0.0721
)

// RGB is an opaque layer draw color. In project files it is stored as
// {"r": .., "g": .., "b": ..}; a plain [r, g, b] array is also accepted.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// RGBA returns the color with full alpha.
func (c RGB) RGBA() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// IsZero reports whether the color is black, which cannot be told apart from
// an empty mask pixel.
func (c RGB) IsZero() bool {
	return c.R == 0 && c.G == 0 && c.B == 0
}

func (c RGB) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// UnmarshalJSON accepts both the object and the array form.
func (c *RGB) UnmarshalJSON(data []byte) error {
	var arr []int
	if err := json.Unmarshal(data, &arr); err == nil {
		if len(arr) < 3 {
			return fmt.Errorf("color needs 3 components, got %d", len(arr))
		}
		r, err := component(arr[0])
		if err != nil {
			return err
		}
		g, err := component(arr[1])
		if err != nil {
			return err
		}
		b, err := component(arr[2])
		if err != nil {
			return err
		}
		*c = RGB{R: r, G: g, B: b}
		return nil
	}

	var obj struct {
		R int `json:"r"`
		G int `json:"g"`
		B int `json:"b"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid color %s: %w", string(data), err)
	}
	r, err := component(obj.R)
	if err != nil {
		return err
	}
	g, err := component(obj.G)
	if err != nil {
		return err
	}
	b, err := component(obj.B)
	if err != nil {
		return err
	}
	*c = RGB{R: r, G: g, B: b}
	return nil
}

func component(v int) (uint8, error) {
	if v < 0 || v > 255 {
		return 0, fmt.Errorf("color component %d out of range", v)
	}
	return uint8(v), nil
}

// Palette is the default set of layer colors handed out to new layers.
var Palette = []RGB{
	{R: 255, G: 255, B: 255},
	{R: 255, G: 0, B: 0},
	{R: 0, G: 255, B: 0},
	{R: 0, G: 0, B: 255},
	{R: 255, G: 255, B: 0},
	{R: 0, G: 255, B: 255},
	{R: 255, G: 0, B: 255},
}

// PaletteColor returns the i-th default layer color, cycling.
func PaletteColor(i int) RGB {
	if i < 0 {
		i = -i
	}
	return Palette[i%len(Palette)]
}

// Gray returns the 8-bit luminance of an RGB triple.
func Gray(r, g, b uint8) uint8 {
	v := WeightR*float64(r) + WeightG*float64(g) + WeightB*float64(b)
	if v > 255 {
		v = 255
	}
	return uint8(v + 0.5)
}
