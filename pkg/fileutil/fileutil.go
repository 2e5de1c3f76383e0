// Package fileutil provides file system utility functions.
package fileutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotFound is returned when no matching file exists.
var ErrNotFound = errors.New("file not found")

// FindFileCaseInsensitive searches for a file with the given name in the specified directory.
// The search is case-insensitive, so "song.MID" finds "Song.mid".
//
// Example:
//
//	path, err := FindFileCaseInsensitive("/path/to/dir", "GeneralUser-GS.SF2")
//	// Will find "GeneralUser-GS.sf2", "generaluser-gs.sf2", etc.
func FindFileCaseInsensitive(dir, filename string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	name, ok := matchName(entries, filename)
	if !ok {
		return "", fmt.Errorf("%w: %s (searched in %s)", ErrNotFound, filename, dir)
	}
	return filepath.Join(dir, name), nil
}

// FindFileCaseInsensitiveFS is FindFileCaseInsensitive for an fs.FS such as
// embed.FS. The returned path uses forward slashes.
func FindFileCaseInsensitiveFS(fsys fs.FS, dir, filename string) (string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	name, ok := matchName(entries, filename)
	if !ok {
		return "", fmt.Errorf("%w: %s (searched in %s)", ErrNotFound, filename, dir)
	}
	return path.Join(dir, name), nil
}

// FindByExtFS returns the first file in dir, in name order, whose extension
// matches ext case-insensitively.
func FindByExtFS(fsys fs.FS, dir, ext string) (string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.EqualFold(path.Ext(entry.Name()), ext) {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return "", fmt.Errorf("%w: *%s (searched in %s)", ErrNotFound, ext, dir)
	}
	sort.Strings(names)
	return path.Join(dir, names[0]), nil
}

// ResolvePath returns p if it exists, or the case-insensitive match for its
// base name in its directory.
func ResolvePath(p string) (string, error) {
	if _, err := os.Stat(p); err == nil {
		return p, nil
	}
	return FindFileCaseInsensitive(filepath.Dir(p), filepath.Base(p))
}

func matchName(entries []fs.DirEntry, filename string) (string, bool) {
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(entry.Name(), filename) {
			return entry.Name(), true
		}
	}
	return "", false
}
