// Package compressor fetches remote images and re-encodes them as
// fixed-quality JPEG files in the asset store.
package compressor

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"net/http"
	"time"

	_ "image/gif"
	_ "image/png"

	"github.com/google/uuid"

	"github.com/cwygoda/imagepress/internal/domain"
)

const jpegQuality = 50

// Compressor implements domain.ImageCompressor.
type Compressor struct {
	client  *http.Client
	assets  domain.AssetStore
	baseURL string
}

// New creates a compressor writing into the given asset store.
// References are baseURL + "/output/<filename>"; an empty baseURL
// yields server-relative references.
func New(assets domain.AssetStore, baseURL string, timeout time.Duration) *Compressor {
	return &Compressor{
		client:  &http.Client{Timeout: timeout},
		assets:  assets,
		baseURL: baseURL,
	}
}

// Compress fetches one image, converts it to a 3-channel color model,
// re-encodes it at the fixed quality and stores it under a fresh unique
// filename. Nothing is written on failure.
func (c *Compressor) Compress(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch image: unexpected status code: %d", resp.StatusCode)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flatten(img), &jpeg.Options{Quality: jpegQuality}); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}

	u := uuid.New()
	filename := fmt.Sprintf("compressed_%s.jpg", hex.EncodeToString(u[:]))
	if err := c.assets.Save(filename, buf.Bytes()); err != nil {
		return "", fmt.Errorf("store asset: %w", err)
	}

	return c.baseURL + "/output/" + filename, nil
}

// flatten redraws the image onto an RGBA canvas unless it is already in
// a 3-channel color model. This drops alpha and widens grayscale before
// the JPEG encode.
func flatten(img image.Image) image.Image {
	switch img.(type) {
	case *image.YCbCr, *image.RGBA:
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, img, b.Min, draw.Src)
	return dst
}
