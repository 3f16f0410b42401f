package curation

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Writer persists generated outlines below Dir. Existing files are
// replaced, never merged.
type Writer struct {
	Dir string
}

func sortedPaths(entries map[string]string) []string {
	paths := make([]string, 0, len(entries))
	for p := range entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Write writes every entry and returns the written file paths in order.
func (w *Writer) Write(entries map[string]string) ([]string, error) {
	var written []string
	for _, rel := range sortedPaths(entries) {
		path := filepath.Join(w.Dir, filepath.FromSlash(rel))
		if err := writeFileAtomic(path, []byte(entries[rel])); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// writeFileAtomic writes through a temporary file in the target directory
// and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".symdoc-*.md")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("setting mode of %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming into %s: %w", path, err)
	}
	return nil
}

// WriteArchive writes the entries as a zstd-compressed tar stream. File
// times are fixed so equal inputs give equal archives.
func WriteArchive(out io.Writer, entries map[string]string) error {
	zw, err := zstd.NewWriter(out)
	if err != nil {
		return fmt.Errorf("creating zstd writer: %w", err)
	}
	tw := tar.NewWriter(zw)
	for _, rel := range sortedPaths(entries) {
		content := entries[rel]
		hdr := &tar.Header{
			Name:    rel,
			Mode:    0o644,
			Size:    int64(len(content)),
			ModTime: time.Unix(0, 0),
			Format:  tar.FormatPAX,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			zw.Close()
			return fmt.Errorf("writing header for %s: %w", rel, err)
		}
		if _, err := io.WriteString(tw, content); err != nil {
			zw.Close()
			return fmt.Errorf("writing %s: %w", rel, err)
		}
	}
	if err := tw.Close(); err != nil {
		zw.Close()
		return fmt.Errorf("closing tar stream: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("closing zstd stream: %w", err)
	}
	return nil
}
