package library

import (
	"mime"
	"path/filepath"
	"strings"
)

// Accepted lists the allowed file extensions, lower case without the dot.
var Accepted = []string{"mp3", "wav", "flac", "ogg", "aac", "m4a", "webm"}

var mimeFormats = map[string]string{
	"audio/mpeg":   "mp3",
	"audio/mp3":    "mp3",
	"audio/wav":    "wav",
	"audio/wave":   "wav",
	"audio/x-wav":  "wav",
	"audio/flac":   "flac",
	"audio/x-flac": "flac",
	"audio/ogg":    "ogg",
	"audio/vorbis": "ogg",
	"audio/aac":    "aac",
	"audio/mp4":    "m4a",
	"audio/x-m4a":  "m4a",
	"audio/webm":   "webm",
}

// FormatOf returns the lower-case format of a file from its MIME type when
// given, otherwise from its extension. ok is false when the format is not
// in the allow-list.
func FormatOf(filename, mimeType string) (format string, ok bool) {
	if mimeType != "" {
		if mt, _, err := mime.ParseMediaType(mimeType); err == nil {
			if f, found := mimeFormats[mt]; found {
				return f, true
			}
		}
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	for _, a := range Accepted {
		if ext == a {
			return ext, true
		}
	}

	return ext, false
}

// AcceptedList returns the allow-list for messages, e.g. "MP3, WAV".
func AcceptedList() string {
	up := make([]string, len(Accepted))
	for i, a := range Accepted {
		up[i] = strings.ToUpper(a)
	}

	return strings.Join(up, ", ")
}
