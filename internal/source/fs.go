// Package source builds item trees from a directory on disk. It is the
// collaborator that feeds the indexer at startup and on rebuild.
package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/indexer/item"
	"github.com/Adithya-Monish-Kumar-K/docsearch/pkg/config"
)

// Type tags assigned by extension.
const (
	TypeMarkdown = "markdown"
	TypeText     = "text"
	TypeCode     = "code"
	TypeData     = "data"
	TypeImage    = "image"
	TypePDF      = "pdf"
	TypeAudio    = "audio"
	TypeVideo    = "video"
	TypeArchive  = "archive"
)

var typeByExt = map[string]string{
	".md": TypeMarkdown, ".markdown": TypeMarkdown, ".mdx": TypeMarkdown,
	".txt": TypeText, ".log": TypeText, ".rst": TypeText, ".org": TypeText,
	".go": TypeCode, ".py": TypeCode, ".js": TypeCode, ".ts": TypeCode,
	".tsx": TypeCode, ".jsx": TypeCode, ".java": TypeCode, ".rs": TypeCode,
	".c": TypeCode, ".h": TypeCode, ".cpp": TypeCode, ".cs": TypeCode,
	".rb": TypeCode, ".php": TypeCode, ".sh": TypeCode, ".sql": TypeCode,
	".swift": TypeCode, ".kt": TypeCode, ".html": TypeCode, ".css": TypeCode,
	".json": TypeData, ".yaml": TypeData, ".yml": TypeData, ".toml": TypeData,
	".csv": TypeData, ".xml": TypeData, ".ini": TypeData,
	".png": TypeImage, ".jpg": TypeImage, ".jpeg": TypeImage, ".gif": TypeImage,
	".svg": TypeImage, ".webp": TypeImage, ".bmp": TypeImage,
	".pdf": TypePDF,
	".mp3": TypeAudio, ".wav": TypeAudio, ".flac": TypeAudio,
	".mp4": TypeVideo, ".mov": TypeVideo, ".mkv": TypeVideo,
	".zip": TypeArchive, ".tar": TypeArchive, ".gz": TypeArchive, ".7z": TypeArchive,
}

// textual types get their content read.
var textual = map[string]bool{
	TypeMarkdown: true,
	TypeText:     true,
	TypeCode:     true,
	TypeData:     true,
}

// DetectType returns the type tag for a file name, or "" when unknown.
func DetectType(name string) string {
	return typeByExt[strings.ToLower(filepath.Ext(name))]
}

type Options struct {
	// MaxContentBytes caps how much of a text file is read. Zero or negative
	// disables content extraction.
	MaxContentBytes int64
	IncludeHidden   bool
}

func OptionsFrom(cfg config.IndexerConfig) Options {
	return Options{MaxContentBytes: cfg.MaxContentBytes, IncludeHidden: cfg.IncludeHidden}
}

type pending struct {
	dir    string
	folder *item.Folder
}

// Scan walks root and returns it as a folder tree. Symlinks are skipped.
// Unreadable subdirectories and files are logged and left out; only a
// problem with root itself or a cancelled ctx fails the scan.
func Scan(ctx context.Context, root string, opts Options) (*item.Folder, error) {
	logger := slog.Default().With("component", "fs-source")
	root = filepath.Clean(root)
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", root)
	}

	top := item.NewFolder(root, info.ModTime())
	stack := []pending{{dir: root, folder: top}}
	var folders, documents int
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		folders++

		entries, err := os.ReadDir(cur.dir)
		if err != nil {
			logger.Warn("skipping unreadable directory", "path", cur.dir, "error", err)
			continue
		}
		for _, e := range entries {
			name := e.Name()
			if !opts.IncludeHidden && strings.HasPrefix(name, ".") {
				continue
			}
			if e.Type()&os.ModeSymlink != 0 {
				continue
			}
			path := filepath.Join(cur.dir, name)
			fi, err := e.Info()
			if err != nil {
				logger.Warn("skipping entry", "path", path, "error", err)
				continue
			}
			if e.IsDir() {
				child := item.NewFolder(path, fi.ModTime())
				cur.folder.Children = append(cur.folder.Children, child)
				stack = append(stack, pending{dir: path, folder: child})
				continue
			}
			if !fi.Mode().IsRegular() {
				continue
			}
			cur.folder.Children = append(cur.folder.Children, readDocument(path, fi, opts, logger))
			documents++
		}
	}

	logger.Info("directory scanned",
		"root", root,
		"folders", folders,
		"documents", documents,
	)
	return top, nil
}

func readDocument(path string, fi os.FileInfo, opts Options, logger *slog.Logger) *item.Document {
	tag := DetectType(fi.Name())
	docOpts := []item.DocumentOption{item.WithType(tag), item.WithSize(fi.Size())}
	if textual[tag] && opts.MaxContentBytes > 0 {
		content, err := readText(path, opts.MaxContentBytes)
		if err != nil {
			logger.Warn("content not indexed", "path", path, "error", err)
		} else {
			docOpts = append(docOpts, item.WithContent(content))
		}
	}
	return item.NewDocument(path, fi.ModTime(), docOpts...)
}

// readText returns up to limit bytes of path. Files containing NUL bytes are
// treated as binary and yield no content.
func readText(path string, limit int64) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, limit))
	if err != nil {
		return "", err
	}
	if bytes.IndexByte(data, 0) >= 0 {
		return "", nil
	}
	if int64(len(data)) == limit {
		data = trimSplitRune(data)
	}
	return string(data), nil
}

// trimSplitRune drops an incomplete UTF-8 sequence that a read limit cut off
// at the end of data. Only the last utf8.UTFMax-1 bytes are considered.
func trimSplitRune(data []byte) []byte {
	for i := 1; i < utf8.UTFMax && i <= len(data); i++ {
		if !utf8.RuneStart(data[len(data)-i]) {
			continue
		}
		if !utf8.FullRune(data[len(data)-i:]) {
			return data[:len(data)-i]
		}
		break
	}
	return data
}
