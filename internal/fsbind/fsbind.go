// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fsbind writes text payloads to files through an afero.Fs.
//
// A Binding exposes two primitive calls, CreateFile (new files only) and
// WriteFile (truncate and write), and Save, which runs them in order:
// create first, overwrite only when the file already exists. Every failure
// is returned to the caller wrapped with the operation and path.
package fsbind

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Encoding names how a payload string is turned into file bytes.
type Encoding string

const (
	EncodingUTF8   Encoding = "utf8"
	EncodingBase64 Encoding = "base64"
	EncodingASCII  Encoding = "ascii"
)

var (
	// ErrExist is returned by CreateFile when the target already exists.
	ErrExist = errors.New("file already exists")
	// ErrUnknownEncoding is returned for encodings other than utf8, base64, ascii.
	ErrUnknownEncoding = errors.New("unknown encoding")
	// ErrNotASCII is returned when an ascii payload holds a byte above 0x7F.
	ErrNotASCII = errors.New("payload is not ASCII")
)

// ParseEncoding validates s. The empty string means utf8.
func ParseEncoding(s string) (Encoding, error) {
	switch Encoding(strings.ToLower(s)) {
	case "", EncodingUTF8, "utf-8":
		return EncodingUTF8, nil
	case EncodingBase64:
		return EncodingBase64, nil
	case EncodingASCII:
		return EncodingASCII, nil
	}
	return "", fmt.Errorf("%w: %q (use utf8, base64, or ascii)", ErrUnknownEncoding, s)
}

// Bytes converts data to the bytes written to disk under enc.
func (enc Encoding) Bytes(data string) ([]byte, error) {
	switch enc {
	case EncodingUTF8, "":
		return []byte(data), nil
	case EncodingBase64:
		return []byte(base64.StdEncoding.EncodeToString([]byte(data))), nil
	case EncodingASCII:
		for i := 0; i < len(data); i++ {
			if data[i] > 0x7F {
				return nil, fmt.Errorf("%w: byte 0x%02x at offset %d", ErrNotASCII, data[i], i)
			}
		}
		return []byte(data), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, string(enc))
}

// ExpandPath replaces a leading "~" with the user's home directory.
func ExpandPath(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expanding %s: %w", p, err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}

// SaveMode reports which call Save completed with.
type SaveMode string

const (
	ModeCreated     SaveMode = "created"
	ModeOverwritten SaveMode = "overwritten"
)

// SaveResult describes a completed Save.
type SaveResult struct {
	Path  string
	Mode  SaveMode
	Bytes int
}

// Binding performs file writes against an afero filesystem.
type Binding struct {
	fs     afero.Fs
	logger *zap.Logger

	// MkdirParents makes Save create missing parent directories.
	MkdirParents bool
}

// New returns a Binding over fs. A nil fs means the OS filesystem.
func New(fs afero.Fs, logger *zap.Logger) *Binding {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Binding{fs: fs, logger: logger}
}

// WithMkdirParents returns a copy of b with MkdirParents set to on.
func (b *Binding) WithMkdirParents(on bool) *Binding {
	c := *b
	c.MkdirParents = on
	return &c
}

// Fs returns the underlying filesystem.
func (b *Binding) Fs() afero.Fs {
	return b.fs
}

// CreateFile writes data to a new file at path. It fails with ErrExist when
// path is already present. A file it created but could not finish writing is
// removed.
func (b *Binding) CreateFile(path, data string, enc Encoding) (int, error) {
	content, err := enc.Bytes(data)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}

	f, err := b.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return 0, fmt.Errorf("create %s: %w", path, ErrExist)
		}
		return 0, fmt.Errorf("create %s: %w", path, err)
	}
	n, err := writeAndClose(f, path, content, "create")
	if err != nil {
		// Leave no partial file, so a retried Save still creates.
		if rmErr := b.fs.Remove(path); rmErr != nil {
			b.logger.Warn("removing partial file", zap.String("path", path), zap.Error(rmErr))
		}
		return 0, err
	}
	return n, nil
}

// WriteFile truncates path, creating it if needed, and writes data.
func (b *Binding) WriteFile(path, data string, enc Encoding) (int, error) {
	content, err := enc.Bytes(data)
	if err != nil {
		return 0, fmt.Errorf("write %s: %w", path, err)
	}

	f, err := b.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("write %s: %w", path, err)
	}
	return writeAndClose(f, path, content, "write")
}

func writeAndClose(f afero.File, path string, content []byte, op string) (int, error) {
	n, err := f.Write(content)
	if err != nil {
		f.Close()
		return n, fmt.Errorf("%s %s: %w", op, path, err)
	}
	if err := f.Close(); err != nil {
		return n, fmt.Errorf("%s %s: closing: %w", op, path, err)
	}
	return n, nil
}

// Save writes data to path. It calls CreateFile and falls back to WriteFile
// only when the file already exists, so the two calls never race.
func (b *Binding) Save(ctx context.Context, path, data string, enc Encoding) (SaveResult, error) {
	if err := ctx.Err(); err != nil {
		return SaveResult{}, err
	}

	path, err := ExpandPath(path)
	if err != nil {
		return SaveResult{}, err
	}

	if b.MkdirParents {
		if err := b.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return SaveResult{}, fmt.Errorf("creating directory for %s: %w", path, err)
		}
	}

	n, err := b.CreateFile(path, data, enc)
	if err == nil {
		b.logger.Debug("file created", zap.String("path", path), zap.Int("bytes", n))
		return SaveResult{Path: path, Mode: ModeCreated, Bytes: n}, nil
	}
	if !errors.Is(err, ErrExist) {
		return SaveResult{}, err
	}

	if err := ctx.Err(); err != nil {
		return SaveResult{}, err
	}

	n, err = b.WriteFile(path, data, enc)
	if err != nil {
		return SaveResult{}, err
	}
	b.logger.Debug("file overwritten", zap.String("path", path), zap.Int("bytes", n))
	return SaveResult{Path: path, Mode: ModeOverwritten, Bytes: n}, nil
}
