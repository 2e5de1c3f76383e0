package app

import (
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/sinshu/go-meltysynth/meltysynth"
	"github.com/zurustar/pianoroll/pkg/fileutil"
	"github.com/zurustar/pianoroll/pkg/synth"
)

// SoundFontLocation represents the location of a SoundFont file.
type SoundFontLocation struct {
	// Path is the file name relative to FileSystem's base path
	Path string
	// FileSystem is the FileSystem to load from
	FileSystem fileutil.FileSystem
}

// IsEmbedded reports whether the SoundFont comes from the binary.
func (l *SoundFontLocation) IsEmbedded() bool {
	return l.FileSystem.IsEmbedded()
}

func (l *SoundFontLocation) String() string {
	if l.IsEmbedded() {
		return "embedded:" + l.Path
	}
	return filepath.Join(l.FileSystem.BasePath(), l.Path)
}

// DefaultSoundFontName is the default SoundFont filename to search for.
const DefaultSoundFontName = "GeneralUser-GS.sf2"

// findSoundFont searches for a SoundFont file in the following order:
// 1. The explicit path (flag or SOUNDFONT)
// 2. Embedded soundfonts directory
// 3. Current directory
// 4. The MIDI file's directory
//
// Within a directory DefaultSoundFontName wins over any other .sf2 file.
// An explicit path that does not exist is an error rather than a fallthrough.
func findSoundFont(embedFS fs.FS, explicit, midiDir string) (*SoundFontLocation, error) {
	if explicit != "" {
		path, err := fileutil.ResolvePath(explicit)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", synth.ErrSoundFontNotFound, explicit)
		}
		return &SoundFontLocation{
			Path:       filepath.Base(path),
			FileSystem: fileutil.NewRealFS(filepath.Dir(path)),
		}, nil
	}

	var candidates []fileutil.FileSystem
	if embedFS != nil {
		candidates = append(candidates, fileutil.NewEmbedFS(embedFS, "soundfonts"))
	}
	candidates = append(candidates, fileutil.NewRealFS("."))
	if midiDir != "" {
		candidates = append(candidates, fileutil.NewRealFS(midiDir))
	}

	for _, fsys := range candidates {
		if name, ok := lookupSoundFont(fsys); ok {
			return &SoundFontLocation{Path: name, FileSystem: fsys}, nil
		}
	}
	return nil, synth.ErrNoSoundFont
}

func lookupSoundFont(fsys fileutil.FileSystem) (string, bool) {
	if name, err := fsys.FindFile(DefaultSoundFontName); err == nil {
		return name, true
	}
	if name, err := fsys.FindByExt(".sf2"); err == nil {
		return name, true
	}
	return "", false
}

// loadSoundFont reads and parses the SoundFont at loc.
func loadSoundFont(loc *SoundFontLocation) (*meltysynth.SoundFont, error) {
	data, err := loc.FileSystem.ReadFile(loc.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read SoundFont %s: %w", loc, err)
	}
	return synth.ParseSoundFont(data)
}
