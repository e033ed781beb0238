// Package classify assigns a coarse type tag to uploaded content. Sniffing
// reads only a bounded prefix of the file, so it operates on the
// materialized temp file rather than the request stream.
package classify

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Kind is the coarse content type driving moderation and enrichment.
type Kind string

const (
	KindText    Kind = "text"
	KindImage   Kind = "image"
	KindVideo   Kind = "video"
	KindAudio   Kind = "audio"
	KindCode    Kind = "code"
	KindDefault Kind = "default"
)

var documentMIMEs = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

var codeExtensions = map[string]struct{}{
	".java": {}, ".py": {}, ".js": {}, ".ts": {}, ".cpp": {}, ".c": {},
	".go": {}, ".rs": {}, ".html": {}, ".css": {}, ".json": {}, ".xml": {},
	".yaml": {}, ".yml": {},
}

var videoExtensions = map[string]struct{}{
	".mp4": {}, ".mkv": {}, ".webm": {}, ".mov": {}, ".avi": {},
}

var audioExtensions = map[string]struct{}{
	".mp3": {}, ".wav": {}, ".m4a": {}, ".aac": {},
}

// Detector sniffs file content and falls back to filename extensions.
type Detector struct{}

func NewDetector() Detector { return Detector{} }

// Detect reads a bounded prefix of the file at path and maps it to a Kind.
// When sniffing yields only a generic binary type, the filename extension
// decides; unknown content is KindDefault.
func (Detector) Detect(path, filename string) Kind {
	mtype, err := mimetype.DetectFile(path)
	if err == nil {
		switch {
		case strings.HasPrefix(mtype.String(), "text/"):
			return KindText
		case strings.HasPrefix(mtype.String(), "image/"):
			return KindImage
		case strings.HasPrefix(mtype.String(), "video/"):
			return KindVideo
		case strings.HasPrefix(mtype.String(), "audio/"):
			return KindAudio
		}
		for _, m := range documentMIMEs {
			if mtype.Is(m) {
				return KindText
			}
		}
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := codeExtensions[ext]; ok {
		return KindCode
	}
	if _, ok := videoExtensions[ext]; ok {
		return KindVideo
	}
	if _, ok := audioExtensions[ext]; ok {
		return KindAudio
	}

	return KindDefault
}
