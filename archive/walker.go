// Package archive builds Walk and Rewrite abstractions on top of zip
// archives. It uses a zip fork able to copy entries between archives
// without recompression, so untouched entries survive byte for byte.
package archive

import (
	"fmt"
	"os"
	"path"
	"strings"

	fixzip "github.com/hidez8891/zip"
)

// WalkFunc is the type of the function called for each file in archive
// visited by Walk. The archive argument contains path to archive passed to Walk
// The file argument is the zip.File structure for file in archive which satisfies
// match condition. If an error is returned, processing stops.
type WalkFunc func(archive string, file *fixzip.File) error

// Walk walks the all files in the archive which satisfy match condition,
// calling walkFn for each item. Entries with path traversal components
// ("..") or absolute paths are rejected to prevent Zip Slip attacks.
func Walk(archive, pattern string, walkFn WalkFunc) error {

	r, err := fixzip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		name := f.FileHeader.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if !f.FileInfo().IsDir() && strings.HasPrefix(name, pattern) {
			if err := walkFn(archive, f); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReplaceFunc decides the fate of a single entry during Rewrite. When
// replace is false the entry is copied through untouched; when true its
// content is substituted with data under the original entry name.
type ReplaceFunc func(file *fixzip.File) (data []byte, replace bool, err error)

// Rewrite copies the archive at src into a new archive at dst, letting
// replace substitute the content of individual entries. Directory entries
// and entries the callback leaves alone keep their raw compressed bytes.
func Rewrite(src, dst string, replace ReplaceFunc) (rerr error) {

	r, err := fixzip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("unable to read archive file (%s): %w", src, err)
	}
	defer r.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("unable to create target file (%s): %w", dst, err)
	}
	defer func() {
		if err := out.Close(); err != nil && rerr == nil {
			rerr = err
		}
	}()

	w := fixzip.NewWriter(out)
	defer func() {
		if err := w.Close(); err != nil && rerr == nil {
			rerr = err
		}
	}()

	for _, file := range r.File {
		name := file.FileHeader.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}

		var (
			data     []byte
			replaced bool
		)
		if !file.FileInfo().IsDir() {
			if data, replaced, err = replace(file); err != nil {
				return err
			}
		}

		if !replaced {
			// unset data descriptor flag.
			file.Flags &= ^fixzip.FlagDataDescriptor

			// copy zip entry
			if err := w.CopyFile(file); err != nil {
				return fmt.Errorf("unable to copy entry (%s): %w", name, err)
			}
			continue
		}

		ew, err := w.CreateHeader(&fixzip.FileHeader{
			Name:     name,
			Method:   fixzip.Deflate,
			Modified: file.FileHeader.Modified,
		})
		if err != nil {
			return fmt.Errorf("unable to create entry (%s): %w", name, err)
		}
		if _, err := ew.Write(data); err != nil {
			return fmt.Errorf("unable to write entry (%s): %w", name, err)
		}
	}
	return nil
}

// isSafePath returns false for paths that could escape the extraction
// directory: absolute paths and those containing ".." components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return false
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
