package fileutil

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func TestEmbedFS(t *testing.T) {
	fsys := fstest.MapFS{
		"soundfonts/GeneralUser-GS.sf2": {Data: []byte("RIFF")},
		"soundfonts/README":             {Data: []byte("readme")},
	}
	efs := NewEmbedFS(fsys, "soundfonts")

	if !efs.IsEmbedded() {
		t.Error("EmbedFS should report embedded")
	}

	name, err := efs.FindFile("generaluser-gs.SF2")
	if err != nil {
		t.Fatalf("FindFile failed: %v", err)
	}
	if name != "GeneralUser-GS.sf2" {
		t.Errorf("FindFile = %s", name)
	}

	data, err := efs.ReadFile("GENERALUSER-GS.sf2")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "RIFF" {
		t.Errorf("ReadFile = %q", data)
	}

	name, err = efs.FindByExt(".sf2")
	if err != nil || name != "GeneralUser-GS.sf2" {
		t.Errorf("FindByExt = %q, %v", name, err)
	}
}

func TestRealFS(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "Piano.SF2"), []byte("sf"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
	rfs := NewRealFS(tmpDir)

	if rfs.IsEmbedded() {
		t.Error("RealFS should not report embedded")
	}
	if rfs.BasePath() != tmpDir {
		t.Errorf("BasePath = %s", rfs.BasePath())
	}

	data, err := rfs.ReadFile("/piano.sf2")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "sf" {
		t.Errorf("ReadFile = %q", data)
	}

	name, err := rfs.FindByExt(".sf2")
	if err != nil || name != "Piano.SF2" {
		t.Errorf("FindByExt = %q, %v", name, err)
	}

	if _, err := rfs.FindFile("missing.sf2"); err == nil {
		t.Error("Expected error for missing file")
	}
}
