package retrieval

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FilesystemSource searches dataset documentation files (schema notes,
// data dictionaries) under a base directory.
type FilesystemSource struct {
	basePath   string
	extensions []string
	maxFiles   int
	maxSize    int64
}

// FilesystemOption configures a FilesystemSource.
type FilesystemOption func(*FilesystemSource)

// WithExtensions sets which file extensions to search.
func WithExtensions(exts []string) FilesystemOption {
	return func(f *FilesystemSource) {
		f.extensions = exts
	}
}

// WithMaxFiles caps how many files one search reads.
func WithMaxFiles(max int) FilesystemOption {
	return func(f *FilesystemSource) {
		f.maxFiles = max
	}
}

// NewFilesystemSource creates a filesystem source rooted at basePath.
func NewFilesystemSource(basePath string, opts ...FilesystemOption) *FilesystemSource {
	f := &FilesystemSource{
		basePath:   basePath,
		extensions: []string{".md", ".txt", ".csv", ".json", ".yaml", ".yml"},
		maxFiles:   100,
		maxSize:    1024 * 1024,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name returns the source identifier.
func (f *FilesystemSource) Name() string { return "filesystem" }

// Available reports whether the base path is a directory.
func (f *FilesystemSource) Available() bool {
	info, err := os.Stat(f.basePath)
	return err == nil && info.IsDir()
}

// Search reads matching files and scores them by keyword overlap.
func (f *FilesystemSource) Search(ctx context.Context, query string) ([]Document, error) {
	keywords := extractKeywords(strings.ToLower(query))
	if len(keywords) == 0 {
		return nil, nil
	}

	var results []Document
	read := 0

	err := filepath.WalkDir(f.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || read >= f.maxFiles {
			return nil
		}
		if !f.wantsExtension(filepath.Ext(path)) {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.Size() > f.maxSize {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		read++

		confidence := keywordOverlap(strings.ToLower(string(data)), keywords)
		if confidence == 0 {
			return nil
		}
		results = append(results, Document{
			Content:    string(data),
			Path:       path,
			Source:     f.Name(),
			Confidence: confidence,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (f *FilesystemSource) wantsExtension(ext string) bool {
	for _, want := range f.extensions {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}
