package colorpool

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"sort"

	"golang.org/x/image/draw"

	"leadhub/internal/domain"
)

const (
	// sampleSize is the edge length logos are downscaled to before
	// clustering. Pure Go, no CGo.
	sampleSize = 64
	// paletteSize is how many cluster centroids are considered.
	paletteSize = 6
	// minLuminanceSpread is the light/dark gap below which the palette
	// is considered too flat and programmatic variants are used.
	minLuminanceSpread = 0.1
	// variantAmount is the lighten/darken mix for programmatic
	// variants.
	variantAmount = 0.3
	// accentDarken is applied to primary when the palette has no
	// second color.
	accentDarken = 0.6
	// wcagContrastMin is the contrast ratio required for white text.
	wcagContrastMin = 4.5
	// lightLogoThreshold classifies a logo as light by primary
	// luminance.
	lightLogoThreshold = 0.5
)

type rgb struct {
	r, g, b float64
}

// PaletteFromImage decodes a logo and derives the dashboard palette:
// dominant color as primary, the brightest and darkest centroids as
// light/dark variants, the runner-up centroid as accent, and a text
// color chosen by WCAG contrast against primary.
func PaletteFromImage(data []byte) (domain.BusinessColors, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return domain.BusinessColors{}, fmt.Errorf("%w: decode: %w", domain.ErrExtractionFailed, err)
	}

	palette := clusterColors(downscale(img))
	if len(palette) == 0 {
		return domain.BusinessColors{}, fmt.Errorf("%w: no opaque pixels", domain.ErrExtractionFailed)
	}

	primary := palette[0]

	light, dark := primary, primary
	for _, c := range palette {
		if luminance(c) > luminance(light) {
			light = c
		}
		if luminance(c) < luminance(dark) {
			dark = c
		}
	}
	if len(palette) < 2 || luminance(light)-luminance(dark) < minLuminanceSpread {
		light = mix(primary, rgb{255, 255, 255}, variantAmount)
		dark = mix(primary, rgb{0, 0, 0}, variantAmount)
	}

	accent := mix(primary, rgb{0, 0, 0}, accentDarken)
	if len(palette) > 1 {
		accent = palette[1]
	}

	return domain.BusinessColors{
		Primary:      hexColor(primary),
		PrimaryDark:  hexColor(dark),
		PrimaryLight: hexColor(light),
		Accent:       hexColor(accent),
		TextColor:    textColorFor(primary),
		IsLightLogo:  luminance(primary) > lightLogoThreshold,
	}, nil
}

// downscale bounds the pixel count before clustering. Never upscales.
func downscale(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > sampleSize || h > sampleSize {
		if w >= h {
			h = h * sampleSize / w
			w = sampleSize
		} else {
			w = w * sampleSize / h
			h = sampleSize
		}
		if w < 1 {
			w = 1
		}
		if h < 1 {
			h = 1
		}
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// clusterColors buckets pixels into a coarse RGB grid and returns the
// centroids of the most populated buckets, most populated first.
func clusterColors(img *image.RGBA) []rgb {
	type bucket struct {
		count   int
		r, g, b float64
	}
	buckets := make(map[uint32]*bucket)

	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := img.RGBAAt(x, y)
			if c.A < 128 {
				continue
			}
			key := uint32(c.R>>5)<<10 | uint32(c.G>>5)<<5 | uint32(c.B>>5)
			b, ok := buckets[key]
			if !ok {
				b = &bucket{}
				buckets[key] = b
			}
			b.count++
			b.r += float64(c.R)
			b.g += float64(c.G)
			b.b += float64(c.B)
		}
	}

	ordered := make([]*bucket, 0, len(buckets))
	for _, b := range buckets {
		ordered = append(ordered, b)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].count > ordered[j].count })
	if len(ordered) > paletteSize {
		ordered = ordered[:paletteSize]
	}

	palette := make([]rgb, 0, len(ordered))
	for _, b := range ordered {
		n := float64(b.count)
		palette = append(palette, rgb{b.r / n, b.g / n, b.b / n})
	}
	return palette
}

// luminance is the relative luminance of an sRGB color per WCAG.
func luminance(c rgb) float64 {
	return 0.2126*linearize(c.r) + 0.7152*linearize(c.g) + 0.0722*linearize(c.b)
}

func linearize(channel float64) float64 {
	v := channel / 255.0
	if v <= 0.03928 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}

// contrastRatio is the WCAG contrast between two colors, >= 1.
func contrastRatio(a, b rgb) float64 {
	la, lb := luminance(a), luminance(b)
	if la < lb {
		la, lb = lb, la
	}
	return (la + 0.05) / (lb + 0.05)
}

// textColorFor prefers white text when it clears the WCAG minimum
// against the primary color, black otherwise.
func textColorFor(primary rgb) string {
	white := rgb{255, 255, 255}
	if contrastRatio(primary, white) >= wcagContrastMin {
		return "#FFFFFF"
	}
	return "#000000"
}

// mix blends c toward target by amount in [0,1].
func mix(c, target rgb, amount float64) rgb {
	return rgb{
		r: c.r + (target.r-c.r)*amount,
		g: c.g + (target.g-c.g)*amount,
		b: c.b + (target.b-c.b)*amount,
	}
}

func hexColor(c rgb) string {
	clamp := func(v float64) int {
		i := int(math.Round(v))
		if i < 0 {
			return 0
		}
		if i > 255 {
			return 255
		}
		return i
	}
	return fmt.Sprintf("#%02X%02X%02X", clamp(c.r), clamp(c.g), clamp(c.b))
}
