// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

// Package imaging turns uploaded images into the JPEG files served under /img.
//
// Every upload is decoded, cover-fitted to a fixed size (scaled until it
// fills the box, then centre-cropped) and re-encoded as JPEG. Adventure
// images are processed concurrently.
package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	// Decoders accepted for uploads.
	_ "image/gif"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/arko8919/cotswold-cycling-adventures/internal/config"
	"github.com/arko8919/cotswold-cycling-adventures/internal/logging"
)

// ErrNotImage rejects uploads whose Content-Type is not image/*.
var ErrNotImage = errors.New("Not an image! Please upload only images.") //nolint:stylecheck // user-facing message

// MaxInputPixels bounds width times height of an upload before it is
// decoded. It matches a 16383 x 16383 image.
const MaxInputPixels = 268402689

// ErrTooManyPixels rejects uploads whose header declares more than
// MaxInputPixels, or no pixels at all.
var ErrTooManyPixels = errors.New("image dimensions exceed the pixel limit")

// UploadError wraps a failure to read, decode or store an upload.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string { return "File upload error: " + e.Err.Error() }

func (e *UploadError) Unwrap() error { return e.Err }

// Folder selects where processed files live.
type Folder int

const (
	FolderUsers Folder = iota
	FolderAdventures
)

// Processor resizes uploads and stores them on disk.
type Processor struct {
	usersDir      string
	adventuresDir string
	photoSize     int
	coverWidth    int
	coverHeight   int
	quality       int
	now           func() time.Time
}

// NewProcessor creates a Processor. Relative folders are resolved against
// the public directory.
func NewProcessor(cfg *config.UploadsConfig) *Processor {
	return &Processor{
		usersDir:      resolve(cfg.PublicDir, cfg.UsersDir),
		adventuresDir: resolve(cfg.PublicDir, cfg.AdventuresDir),
		photoSize:     cfg.PhotoSize,
		coverWidth:    cfg.CoverWidth,
		coverHeight:   cfg.CoverHeight,
		quality:       cfg.JPEGQuality,
		now:           time.Now,
	}
}

func resolve(public, dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(public, dir)
}

// SetClockForTesting replaces the clock used in file names.
func (p *Processor) SetClockForTesting(now func() time.Time) {
	p.now = now
}

// Dir returns the directory backing folder.
func (p *Processor) Dir(folder Folder) string {
	if folder == FolderUsers {
		return p.usersDir
	}
	return p.adventuresDir
}

// Open checks that fh is an image and opens it.
func Open(fh *multipart.FileHeader) (multipart.File, error) {
	if !strings.HasPrefix(fh.Header.Get("Content-Type"), "image/") {
		return nil, ErrNotImage
	}
	f, err := fh.Open()
	if err != nil {
		return nil, &UploadError{Err: err}
	}
	return f, nil
}

// ProcessUserPhoto stores r as a square user photo and returns the file name.
func (p *Processor) ProcessUserPhoto(userID string, r io.Reader) (string, error) {
	name := fmt.Sprintf("user-%s-%d.jpeg", userID, p.now().UnixMilli())
	if err := p.process(r, filepath.Join(p.usersDir, name), p.photoSize, p.photoSize); err != nil {
		return "", err
	}
	return name, nil
}

// ProcessAdventureImages stores the cover and gallery images of one
// adventure. A nil cover is skipped. Gallery names keep the order of images
// and are numbered from 1. On failure every file written by this call is
// removed.
func (p *Processor) ProcessAdventureImages(ctx context.Context, adventureID string, cover io.Reader, images []io.Reader) (string, []string, error) {
	stamp := p.now().UnixMilli()

	var coverName string
	if cover != nil {
		coverName = fmt.Sprintf("adventure-%s-%d-cover.jpeg", adventureID, stamp)
	}
	names := make([]string, len(images))
	for i := range images {
		names[i] = fmt.Sprintf("adventure-%s-%d-%d.jpeg", adventureID, stamp, i+1)
	}

	g, gctx := errgroup.WithContext(ctx)
	if cover != nil {
		g.Go(func() error {
			return p.processContext(gctx, cover, coverName)
		})
	}
	for i, r := range images {
		g.Go(func() error {
			return p.processContext(gctx, r, names[i])
		})
	}

	if err := g.Wait(); err != nil {
		written := names
		if coverName != "" {
			written = append([]string{coverName}, names...)
		}
		p.DeleteFiles(ctx, FolderAdventures, written)
		return "", nil, err
	}
	return coverName, names, nil
}

func (p *Processor) processContext(ctx context.Context, r io.Reader, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.process(r, filepath.Join(p.adventuresDir, name), p.coverWidth, p.coverHeight)
}

func (p *Processor) process(r io.Reader, path string, width, height int) error {
	src, err := decodeBounded(r)
	if err != nil {
		return &UploadError{Err: err}
	}
	dst := CoverFit(src, width, height)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return &UploadError{Err: err}
	}
	f, err := os.Create(path) //nolint:gosec // path is built from generated names
	if err != nil {
		return &UploadError{Err: err}
	}
	if err := jpeg.Encode(f, dst, &jpeg.Options{Quality: p.quality}); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return &UploadError{Err: err}
	}
	if err := f.Close(); err != nil {
		return &UploadError{Err: err}
	}
	return nil
}

// decodeBounded reads the image header first and refuses to decode images
// whose declared size exceeds MaxInputPixels. The bytes consumed by the
// header read are replayed ahead of the rest of r.
func decodeBounded(r io.Reader) (image.Image, error) {
	var header bytes.Buffer
	cfg, _, err := image.DecodeConfig(io.TeeReader(r, &header))
	if err != nil {
		return nil, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxInputPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrTooManyPixels, cfg.Width, cfg.Height)
	}
	src, _, err := image.Decode(io.MultiReader(&header, r))
	return src, err
}

// CoverFit scales src to fill width x height and crops the centre.
func CoverFit(src image.Image, width, height int) *image.RGBA {
	b := src.Bounds()
	sw, sh := b.Dx(), b.Dy()

	crop := b
	// Compare aspect ratios without floats: sw/sh against width/height.
	if sw*height > sh*width {
		cw := sh * width / height
		x0 := b.Min.X + (sw-cw)/2
		crop = image.Rect(x0, b.Min.Y, x0+cw, b.Max.Y)
	} else if sw*height < sh*width {
		ch := sw * height / width
		y0 := b.Min.Y + (sh-ch)/2
		crop = image.Rect(b.Min.X, y0, b.Max.X, y0+ch)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Src, nil)
	return dst
}

// DeleteFiles removes names from folder. Missing files and failures are
// logged, never returned.
func (p *Processor) DeleteFiles(ctx context.Context, folder Folder, names []string) {
	dir := p.Dir(folder)
	for _, name := range names {
		if name == "" || name != filepath.Base(name) {
			continue
		}
		err := os.Remove(filepath.Join(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			logging.Ctx(ctx).Debug().Str("file", name).Msg("File already gone")
			continue
		}
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("file", name).Msg("Failed to delete file")
		}
	}
}
