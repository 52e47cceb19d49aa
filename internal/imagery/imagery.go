// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package imagery prepares the JPEG payload carried by image attachment
// events.
package imagery

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	_ "image/png" // decoder for Load
	"os"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	// PlaceholderWidth and PlaceholderHeight size the rendered stand-in
	// image.
	PlaceholderWidth  = 128
	PlaceholderHeight = 64

	jpegQuality = 80
	lineHeight  = 13
)

// Load reads a JPEG or PNG file, scales it so neither side exceeds maxDim
// and returns it as base64 JPEG.
func Load(path string, maxDim int) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("decode image %s: %w", path, err)
	}
	return encode(Thumbnail(img, maxDim))
}

// Thumbnail scales img down, keeping its aspect ratio, so that neither side
// exceeds maxDim. Smaller images are returned unchanged.
func Thumbnail(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return img
	}

	var tw, th int
	if w >= h {
		tw = maxDim
		th = max(1, h*maxDim/w)
	} else {
		th = maxDim
		tw = max(1, w*maxDim/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, tw, th))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Placeholder renders lines of text on a blank frame, one line per 13px
// row, and returns it as base64 JPEG.
func Placeholder(lines ...string) (string, error) {
	img := image.NewGray(image.Rect(0, 0, PlaceholderWidth, PlaceholderHeight))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		y := lineHeight * (i + 1)
		if y > PlaceholderHeight {
			break
		}
		drawer.Dot = fixed.P(2, y)
		drawer.DrawString(line)
	}
	return encode(img)
}

// Resolve loads path when set, otherwise renders a placeholder.
func Resolve(path string, maxDim int, label ...string) (string, error) {
	if path == "" {
		return Placeholder(label...)
	}
	return Load(path, maxDim)
}

func encode(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
