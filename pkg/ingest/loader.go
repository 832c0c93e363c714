// Package ingest loads files, splits them into chunks, embeds the chunks and
// stores them in the documents table.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"
)

var ErrUnsupportedFile = errors.New("unsupported file type")

var supportedExtensions = map[string]bool{
	".txt": true,
	".md":  true,
	".pdf": true,
}

// Supported reports whether a file name has a loadable extension.
func Supported(name string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(name))]
}

// LoadReader parses one uploaded or on-disk file. PDFs yield one document per page.
func LoadReader(ctx context.Context, name string, r io.Reader) ([]schema.Document, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if !supportedExtensions[ext] {
		return nil, fmt.Errorf("%w %q", ErrUnsupportedFile, ext)
	}

	var (
		docs []schema.Document
		err  error
	)
	if ext == ".pdf" {
		raw, readErr := io.ReadAll(r)
		if readErr != nil {
			return nil, fmt.Errorf("read %s: %w", name, readErr)
		}
		docs, err = documentloaders.NewPDF(bytes.NewReader(raw), int64(len(raw))).Load(ctx)
	} else {
		docs, err = documentloaders.NewText(r).Load(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}

	source := filepath.Base(name)
	for i := range docs {
		if docs[i].Metadata == nil {
			docs[i].Metadata = map[string]any{}
		}
		docs[i].Metadata["source"] = source
	}
	return docs, nil
}

// LoadDirectory walks dir and loads every supported file. Files that fail to
// load are reported in the returned map and skipped.
func LoadDirectory(ctx context.Context, dir string) ([]schema.Document, map[string]error, error) {
	var docs []schema.Document
	failed := map[string]error{}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !Supported(d.Name()) {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			failed[path] = err
			return nil
		}
		defer f.Close()

		loaded, err := LoadReader(ctx, path, f)
		if err != nil {
			failed[path] = err
			return nil
		}
		docs = append(docs, loaded...)
		return nil
	})
	if err != nil {
		return nil, failed, fmt.Errorf("walk %s: %w", dir, err)
	}
	return docs, failed, nil
}
