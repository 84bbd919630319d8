// Package images optimizes image and font assets.
//
// PNG files are re-encoded at best compression and JPEG files at quality 85;
// SVG files are minified. Any other file is copied unchanged. When an
// optimized result is not smaller than the original, the original bytes are
// written instead.
package images

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	ferrors "git.home.luguber.info/inful/sitepipe/internal/foundation/errors"
	"git.home.luguber.info/inful/sitepipe/internal/fsutil"
	"git.home.luguber.info/inful/sitepipe/internal/logfields"
	"git.home.luguber.info/inful/sitepipe/internal/minifier"
)

// JPEGQuality is the quality JPEG files are re-encoded with.
const JPEGQuality = 85

// Stats summarizes an optimization run.
type Stats struct {
	Files     int
	Optimized int // files whose output is smaller than the input
	Before    int64
	After     int64
}

// Saved returns the number of bytes saved.
func (s Stats) Saved() int64 { return s.Before - s.After }

// String renders a human-readable summary with grouped digits.
func (s Stats) String() string {
	p := message.NewPrinter(language.English)
	pct := 0.0
	if s.Before > 0 {
		pct = float64(s.Saved()) * 100 / float64(s.Before)
	}
	return p.Sprintf("Minified %d of %d files (saved %d bytes - %.1f%%)", s.Optimized, s.Files, s.Saved(), pct)
}

// Optimizer processes files with a bounded worker group.
type Optimizer struct {
	Workers  int
	minifier *minifier.Minifier
}

// NewOptimizer creates an optimizer using one worker per CPU.
func NewOptimizer() *Optimizer {
	return &Optimizer{Workers: runtime.GOMAXPROCS(0), minifier: minifier.New()}
}

// Optimize returns the optimized form of data, or data itself when
// optimizing does not make it smaller.
func (o *Optimizer) Optimize(name string, data []byte) ([]byte, error) {
	var (
		out []byte
		err error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		out, err = encodePNG(data)
	case ".jpg", ".jpeg":
		out, err = encodeJPEG(data)
	case ".svg":
		out, err = o.minifier.Bytes(minifier.MediaSVG, data)
	default:
		return data, nil
	}
	if err != nil {
		return nil, ferrors.TaskError("optimize " + name).WithCause(err).WithContext("file", name).Build()
	}
	if len(out) >= len(data) {
		return data, nil
	}
	return out, nil
}

func encodePNG(data []byte) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeJPEG(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Run optimizes every file under srcDir matching any of patterns into
// dstDir, keeping relative paths.
func (o *Optimizer) Run(ctx context.Context, srcDir, dstDir string, patterns ...string) (Stats, error) {
	seen := map[string]bool{}
	var files []string
	for _, pattern := range patterns {
		matches, err := fsutil.Glob(srcDir, pattern)
		if err != nil {
			return Stats{}, err
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}

	var (
		mu    sync.Mutex
		stats Stats
	)
	g, gctx := errgroup.WithContext(ctx)
	workers := o.Workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)
	for _, rel := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			src := filepath.Join(srcDir, filepath.FromSlash(rel))
			data, err := os.ReadFile(src)
			if err != nil {
				return ferrors.FileSystemError("read image").WithCause(err).WithContext("path", src).Build()
			}
			out, err := o.Optimize(rel, data)
			if err != nil {
				return err
			}
			if err := fsutil.WriteFile(filepath.Join(dstDir, filepath.FromSlash(rel)), out); err != nil {
				return err
			}
			mu.Lock()
			stats.Files++
			stats.Before += int64(len(data))
			stats.After += int64(len(out))
			if len(out) < len(data) {
				stats.Optimized++
			}
			mu.Unlock()
			slog.Debug("Optimized asset", logfields.File(rel), slog.Int("before", len(data)), slog.Int("after", len(out)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}
	return stats, nil
}
