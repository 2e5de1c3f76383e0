package fileutil

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FileSystem は実ファイルシステムと埋め込みファイルシステムを統一的に扱うインターフェース
type FileSystem interface {
	// ReadFile はファイルの内容を読み込む（大文字小文字を無視）
	ReadFile(name string) ([]byte, error)
	// FindFile は大文字小文字を無視してファイルを検索し、ベースパスからの相対パスを返す
	FindFile(filename string) (string, error)
	// FindByExt は拡張子が一致する最初のファイルを返す
	FindByExt(ext string) (string, error)
	// BasePath はベースパスを返す
	BasePath() string
	// IsEmbedded は埋め込みファイルシステムかどうかを返す
	IsEmbedded() bool
}

// RealFS は実ファイルシステムへのアクセスを提供する
type RealFS struct {
	basePath string
}

// NewRealFS は実ファイルシステム用のFileSystemを作成する
func NewRealFS(basePath string) *RealFS {
	if basePath == "" {
		basePath = "."
	}
	return &RealFS{basePath: basePath}
}

func (r *RealFS) ReadFile(name string) ([]byte, error) {
	actualPath, err := ResolvePath(r.resolvePath(name))
	if err != nil {
		return nil, err
	}
	return os.ReadFile(actualPath)
}

func (r *RealFS) FindFile(filename string) (string, error) {
	p, err := FindFileCaseInsensitive(r.basePath, filename)
	if err != nil {
		return "", err
	}
	return filepath.Base(p), nil
}

func (r *RealFS) FindByExt(ext string) (string, error) {
	p, err := FindByExtFS(os.DirFS(r.basePath), ".", ext)
	if err != nil {
		return "", err
	}
	return path.Base(p), nil
}

func (r *RealFS) BasePath() string {
	return r.basePath
}

func (r *RealFS) IsEmbedded() bool {
	return false
}

func (r *RealFS) resolvePath(name string) string {
	// 先頭の "/" や "\" を除去
	cleanName := strings.TrimPrefix(strings.TrimPrefix(name, "/"), "\\")
	return filepath.Join(r.basePath, cleanName)
}

// EmbedFS は埋め込みファイルシステムへのアクセスを提供する
type EmbedFS struct {
	fsys     fs.FS
	basePath string
}

// NewEmbedFS は埋め込みファイルシステム用のFileSystemを作成する
func NewEmbedFS(fsys fs.FS, basePath string) *EmbedFS {
	if basePath == "" {
		basePath = "."
	}
	return &EmbedFS{fsys: fsys, basePath: basePath}
}

func (e *EmbedFS) ReadFile(name string) ([]byte, error) {
	p := e.resolvePath(name)
	// まず直接アクセスを試みる
	if data, err := fs.ReadFile(e.fsys, p); err == nil {
		return data, nil
	}
	// 大文字小文字を無視して検索
	actualPath, err := FindFileCaseInsensitiveFS(e.fsys, path.Dir(p), path.Base(p))
	if err != nil {
		return nil, err
	}
	return fs.ReadFile(e.fsys, actualPath)
}

func (e *EmbedFS) FindFile(filename string) (string, error) {
	p, err := FindFileCaseInsensitiveFS(e.fsys, e.basePath, filename)
	if err != nil {
		return "", err
	}
	return path.Base(p), nil
}

func (e *EmbedFS) FindByExt(ext string) (string, error) {
	p, err := FindByExtFS(e.fsys, e.basePath, ext)
	if err != nil {
		return "", err
	}
	return path.Base(p), nil
}

func (e *EmbedFS) BasePath() string {
	return e.basePath
}

func (e *EmbedFS) IsEmbedded() bool {
	return true
}

func (e *EmbedFS) resolvePath(name string) string {
	// embed.FSでは "/" を使用
	cleanName := strings.TrimPrefix(strings.ReplaceAll(name, "\\", "/"), "/")
	return path.Join(e.basePath, cleanName)
}
