// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imagery

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodePayload(t *testing.T, payload string) image.Image {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	return img
}

func writePNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "frame.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestLoad_ScalesDown(t *testing.T) {
	payload, err := Load(writePNG(t, 640, 480), 320)
	require.NoError(t, err)

	b := decodePayload(t, payload).Bounds()
	assert.Equal(t, 320, b.Dx())
	assert.Equal(t, 240, b.Dy())
}

func TestLoad_PortraitKeepsAspect(t *testing.T) {
	payload, err := Load(writePNG(t, 100, 400), 200)
	require.NoError(t, err)

	b := decodePayload(t, payload).Bounds()
	assert.Equal(t, 50, b.Dx())
	assert.Equal(t, 200, b.Dy())
}

func TestLoad_SmallImageUnchanged(t *testing.T) {
	payload, err := Load(writePNG(t, 64, 48), 320)
	require.NoError(t, err)

	b := decodePayload(t, payload).Bounds()
	assert.Equal(t, 64, b.Dx())
	assert.Equal(t, 48, b.Dy())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.jpg"), 320)
	assert.Error(t, err)

	junk := filepath.Join(t.TempDir(), "junk.jpg")
	require.NoError(t, os.WriteFile(junk, []byte("not an image"), 0o644))
	_, err = Load(junk, 320)
	assert.Error(t, err)
}

func TestPlaceholder_DrawsText(t *testing.T) {
	payload, err := Placeholder("CoT bridge", "no image")
	require.NoError(t, err)

	img := decodePayload(t, payload)
	require.Equal(t, image.Rect(0, 0, PlaceholderWidth, PlaceholderHeight), img.Bounds())

	lit := 0
	for y := 0; y < PlaceholderHeight; y++ {
		for x := 0; x < PlaceholderWidth; x++ {
			if r, _, _, _ := img.At(x, y).RGBA(); r > 0x8000 {
				lit++
			}
		}
	}
	assert.Greater(t, lit, 20, "text pixels expected")
}

func TestResolve(t *testing.T) {
	placeholder, err := Resolve("", 320, "x")
	require.NoError(t, err)
	assert.NotEmpty(t, placeholder)

	loaded, err := Resolve(writePNG(t, 10, 10), 320)
	require.NoError(t, err)
	assert.Equal(t, 10, decodePayload(t, loaded).Bounds().Dx())
}
