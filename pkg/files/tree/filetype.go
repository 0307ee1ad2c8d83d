package tree

import (
	"path/filepath"
	"strings"
)

// fileTypeMap maps file extensions to human-readable type names.
var fileTypeMap = map[string]string{
	// Video
	".mp4":  "Video",
	".m4v":  "Video",
	".mov":  "Video",
	".avi":  "Video",
	".mkv":  "Video",
	".webm": "Video",
	".ts":   "Video",

	// Audio
	".mp3":  "Audio",
	".m4a":  "Audio",
	".wav":  "Audio",
	".ogg":  "Audio",
	".flac": "Audio",
	".aac":  "Audio",
	".opus": "Audio",

	// Subtitles
	".srt": "Subtitles",
	".ass": "Subtitles",
	".ssa": "Subtitles",
	".sub": "Subtitles",
	".vtt": "Subtitles",

	// Images
	".png":  "Image",
	".jpg":  "Image",
	".jpeg": "Image",
	".gif":  "Image",
	".webp": "Image",
	".bmp":  "Image",

	// Documents
	".txt":  "Text",
	".nfo":  "Text",
	".md":   "Text",
	".pdf":  "PDF",
	".epub": "Ebook",
	".mobi": "Ebook",

	// Archives
	".zip": "Archive",
	".rar": "Archive",
	".7z":  "Archive",
	".tar": "Archive",
	".gz":  "Archive",
	".xz":  "Archive",

	// Disk images and executables
	".iso": "Disk Image",
	".img": "Disk Image",
	".exe": "Executable",
	".dmg": "Disk Image",
}

// DetectFileType returns a human-readable file type based on the name's
// extension.
func DetectFileType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if fileType, ok := fileTypeMap[ext]; ok {
		return fileType
	}
	return "File"
}
