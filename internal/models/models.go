// package models defines the data model for the colorize client
package models

import (
	"bytes"
	"io"
	"strings"
)

// Candidate is a file handle offered by the picker or a drop, before validation.
//
// Open is only called once validation has passed, so oversized files are never read.
type Candidate struct {
	Name      string
	MediaType string
	Size      int64
	Open      func() (io.ReadCloser, error)
}

// IsImage reports whether the declared media type indicates an image.
func (c Candidate) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(c.MediaType), "image/")
}

// CandidateFromBytes builds a [Candidate] over an in-memory buffer.
func CandidateFromBytes(name, mediaType string, content []byte) Candidate {
	return Candidate{
		Name:      name,
		MediaType: mediaType,
		Size:      int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(content)), nil
		},
	}
}

// SelectedFile is the image currently chosen for colorization.
type SelectedFile struct {
	Name      string
	MediaType string
	Size      int64
	Content   []byte
}

// ColorizeResult is the decoded success response of POST /api/colorize.
type ColorizeResult struct {
	Status      string `json:"status,omitempty"`
	Filename    string `json:"filename,omitempty"`
	PreviewURL  string `json:"preview_url"`
	DownloadURL string `json:"download_url"`
}

// DisplayURLs are absolute URLs for rendering and downloading a result.
type DisplayURLs struct {
	Preview  string `json:"preview"`
	Download string `json:"download"`
}

// ResolveURLs concatenates base with the result's relative paths.
func ResolveURLs(base string, r *ColorizeResult) DisplayURLs {
	if r == nil {
		return DisplayURLs{}
	}
	return DisplayURLs{
		Preview:  base + r.PreviewURL,
		Download: base + r.DownloadURL,
	}
}

// HealthStatus is the response of GET /api/health.
type HealthStatus struct {
	Status      string `json:"status"`
	Service     string `json:"service"`
	ModelLoaded bool   `json:"model_loaded"`
}

// Mode is the visible UI mode.
type Mode int

const (
	Empty Mode = iota
	HasFileNoResult
	Submitting
	HasResult
)

func (m Mode) String() string {
	switch m {
	case Empty:
		return "empty"
	case HasFileNoResult:
		return "has_file"
	case Submitting:
		return "submitting"
	case HasResult:
		return "has_result"
	default:
		return ""
	}
}
