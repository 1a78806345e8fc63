package constants

import (
	"path/filepath"
	"strings"
)

// MediaKind is the processing family of a submitted file.
type MediaKind string

const (
	KindAudio    MediaKind = "audio"
	KindVideo    MediaKind = "video"
	KindDocument MediaKind = "document"
)

var audioExts = map[string]struct{}{
	"mp3": {}, "wav": {}, "m4a": {}, "flac": {}, "aac": {}, "ogg": {},
}

var videoExts = map[string]struct{}{
	"mp4": {}, "mov": {}, "avi": {}, "mkv": {}, "webm": {},
}

var documentExts = map[string]struct{}{
	"pdf": {}, "docx": {}, "txt": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// KindOf classifies a path by extension. ok is false for unsupported files.
func KindOf(path string) (MediaKind, bool) {
	ext := NormalizeExt(filepath.Ext(path))
	if _, ok := audioExts[ext]; ok {
		return KindAudio, true
	}
	if _, ok := videoExts[ext]; ok {
		return KindVideo, true
	}
	if _, ok := documentExts[ext]; ok {
		return KindDocument, true
	}
	return "", false
}

// IsSupported is a convenience wrapper used by the inbox watcher.
func IsSupported(path string) bool {
	_, ok := KindOf(path)
	return ok
}
