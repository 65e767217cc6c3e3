package compressor

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/cwygoda/imagepress/internal/adapter/assetdir"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 32), G: uint8(y * 32), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func setup(t *testing.T, handler http.HandlerFunc) (*Compressor, *assetdir.Store, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store, err := assetdir.New(t.TempDir())
	if err != nil {
		t.Fatalf("assetdir.New() error = %v", err)
	}
	return New(store, "", 5*time.Second), store, srv
}

func TestCompressor_Compress(t *testing.T) {
	payload := pngBytes(t)
	comp, store, srv := setup(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(payload)
	})

	ref, err := comp.Compress(context.Background(), srv.URL+"/image.png")
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}

	if !strings.HasPrefix(ref, "/output/compressed_") || !strings.HasSuffix(ref, ".jpg") {
		t.Errorf("reference = %q, want /output/compressed_<hex>.jpg", ref)
	}

	// The stored asset is a decodable JPEG
	filename := strings.TrimPrefix(ref, "/output/")
	path, err := store.Path(filename)
	if err != nil {
		t.Fatalf("Path() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("stored asset is not a JPEG: %v", err)
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 8 {
		t.Errorf("decoded bounds = %v, want 8x8", img.Bounds())
	}
}

func TestCompressor_Compress_BaseURL(t *testing.T) {
	payload := pngBytes(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	store, _ := assetdir.New(t.TempDir())
	comp := New(store, "http://localhost:8080", 5*time.Second)

	ref, err := comp.Compress(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Compress() error = %v", err)
	}
	if !strings.HasPrefix(ref, "http://localhost:8080/output/compressed_") {
		t.Errorf("reference = %q, want base URL prefix", ref)
	}
}

func TestCompressor_Compress_UniqueFilenames(t *testing.T) {
	payload := pngBytes(t)
	comp, _, srv := setup(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	})

	a, _ := comp.Compress(context.Background(), srv.URL)
	b, _ := comp.Compress(context.Background(), srv.URL)
	if a == b {
		t.Errorf("two compressions produced the same reference %q", a)
	}
}

func TestCompressor_Compress_NotAnImage(t *testing.T) {
	comp, _, srv := setup(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not an image</html>"))
	})

	if _, err := comp.Compress(context.Background(), srv.URL); err == nil {
		t.Error("Compress() error = nil, want decode error")
	}
}

func TestCompressor_Compress_BadStatus(t *testing.T) {
	comp, _, srv := setup(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})

	_, err := comp.Compress(context.Background(), srv.URL)
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("Compress() error = %v, want status code error", err)
	}
}

func TestCompressor_Compress_UnreachableHost(t *testing.T) {
	store, _ := assetdir.New(t.TempDir())
	comp := New(store, "", time.Second)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	if _, err := comp.Compress(context.Background(), url); err == nil {
		t.Error("Compress() error = nil, want connection error")
	}
}

func TestCompressor_Compress_EmptyURL(t *testing.T) {
	store, _ := assetdir.New(t.TempDir())
	comp := New(store, "", time.Second)

	if _, err := comp.Compress(context.Background(), ""); err == nil {
		t.Error("Compress() error = nil, want error")
	}
}

func TestCompressor_NothingWrittenOnFailure(t *testing.T) {
	dir := t.TempDir()
	store, _ := assetdir.New(dir)
	comp := New(store, "", time.Second)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("garbage"))
	}))
	defer srv.Close()

	comp.Compress(context.Background(), srv.URL)

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("asset dir has %d files after failed compression, want 0", len(entries))
	}
}
