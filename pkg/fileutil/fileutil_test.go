package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func TestFindFileCaseInsensitive(t *testing.T) {
	// Create a temporary directory for testing
	tmpDir := t.TempDir()

	// Create test files with various cases
	testFiles := []string{
		"TestFile.txt",
		"UPPERCASE.SF2",
		"lowercase.mid",
		"MixedCase.Mid",
	}

	for _, filename := range testFiles {
		path := filepath.Join(tmpDir, filename)
		if err := os.WriteFile(path, []byte("test"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
	}

	tests := []struct {
		name          string
		searchName    string
		shouldFind    bool
		expectedMatch string
	}{
		{
			name:          "exact match",
			searchName:    "TestFile.txt",
			shouldFind:    true,
			expectedMatch: "TestFile.txt",
		},
		{
			name:          "lowercase search for mixed case file",
			searchName:    "testfile.txt",
			shouldFind:    true,
			expectedMatch: "TestFile.txt",
		},
		{
			name:          "uppercase search for mixed case file",
			searchName:    "TESTFILE.TXT",
			shouldFind:    true,
			expectedMatch: "TestFile.txt",
		},
		{
			name:          "mixed case search for uppercase file",
			searchName:    "Uppercase.sf2",
			shouldFind:    true,
			expectedMatch: "UPPERCASE.SF2",
		},
		{
			name:          "uppercase search for lowercase file",
			searchName:    "LOWERCASE.MID",
			shouldFind:    true,
			expectedMatch: "lowercase.mid",
		},
		{
			name:       "file not found",
			searchName: "nonexistent.txt",
			shouldFind: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := FindFileCaseInsensitive(tmpDir, tt.searchName)

			if tt.shouldFind {
				if err != nil {
					t.Errorf("Expected to find file, but got error: %v", err)
					return
				}

				actualFilename := filepath.Base(path)
				if actualFilename != tt.expectedMatch {
					t.Errorf("Expected filename %s, got %s", tt.expectedMatch, actualFilename)
				}

				// Verify the file actually exists
				if _, err := os.Stat(path); err != nil {
					t.Errorf("Returned path does not exist: %s", path)
				}
			} else {
				if !errors.Is(err, ErrNotFound) {
					t.Errorf("Expected ErrNotFound, got path %q err %v", path, err)
				}
			}
		})
	}
}



func TestResolvePath(t *testing.T) {
	tmpDir := t.TempDir()
	actual := filepath.Join(tmpDir, "Song.MID")
	if err := os.WriteFile(actual, []byte("MThd"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	got, err := ResolvePath(filepath.Join(tmpDir, "song.mid"))
	if err != nil {
		t.Fatalf("ResolvePath failed: %v", err)
	}
	if got != actual {
		t.Errorf("ResolvePath = %s, want %s", got, actual)
	}

	if _, err := ResolvePath(filepath.Join(tmpDir, "other.mid")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestFindByExtFS(t *testing.T) {
	fsys := fstest.MapFS{
		"sf/readme.txt": {Data: []byte("x")},
		"sf/b.SF2":      {Data: []byte("b")},
		"sf/a.sf2":      {Data: []byte("a")},
	}

	got, err := FindByExtFS(fsys, "sf", ".sf2")
	if err != nil {
		t.Fatalf("FindByExtFS failed: %v", err)
	}
	if got != "sf/a.sf2" {
		t.Errorf("FindByExtFS = %s, want sf/a.sf2", got)
	}

	if _, err := FindByExtFS(fsys, "sf", ".mid"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
