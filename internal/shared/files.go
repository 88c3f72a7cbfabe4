package shared

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/colorize/internal/models"
)

// ImageExtensions lists the extensions offered by pickers.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".gif", ".bmp"}

var extMediaTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
}

// CleanDroppedPath normalizes a path pasted into the terminal by a drag and drop.
//
// Terminals wrap dropped paths in quotes or escape spaces with backslashes, and some prefix file://.
func CleanDroppedPath(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			s = s[1 : len(s)-1]
		}
	}
	s = strings.TrimPrefix(s, "file://")
	s = strings.ReplaceAll(s, `\ `, " ")
	return s
}

// DetectMediaType derives a media type from the file extension, falling back to content sniffing.
func DetectMediaType(name string, head []byte) string {
	ext := strings.ToLower(filepath.Ext(name))
	if mt, ok := extMediaTypes[ext]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	if len(head) == 0 {
		return "application/octet-stream"
	}
	return http.DetectContentType(head)
}

// OpenCandidate stats the file at path and returns a [models.Candidate] whose content is read lazily.
func OpenCandidate(path string) (models.Candidate, error) {
	path = CleanDroppedPath(path)
	if path == "" {
		return models.Candidate{}, fmt.Errorf("%w: empty path", ErrMissingArgument)
	}

	info, err := os.Stat(path)
	if err != nil {
		return models.Candidate{}, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return models.Candidate{}, fmt.Errorf("%w: %s is a directory", ErrInvalidInput, path)
	}

	head, err := readHead(path)
	if err != nil {
		return models.Candidate{}, err
	}

	return models.Candidate{
		Name:      filepath.Base(path),
		MediaType: DetectMediaType(path, head),
		Size:      info.Size(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

func readHead(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return buf[:n], nil
}
