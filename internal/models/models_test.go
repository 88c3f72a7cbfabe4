package models

import (
	"io"
	"testing"
)

func TestResolveURLs(t *testing.T) {
	t.Run("concatenates base and relative paths", func(t *testing.T) {
		got := ResolveURLs("http://localhost:8000", &ColorizeResult{
			PreviewURL:  "/p/123.jpg",
			DownloadURL: "/d/123.jpg",
		})

		if got.Preview != "http://localhost:8000/p/123.jpg" {
			t.Errorf("expected preview http://localhost:8000/p/123.jpg, got %s", got.Preview)
		}
		if got.Download != "http://localhost:8000/d/123.jpg" {
			t.Errorf("expected download http://localhost:8000/d/123.jpg, got %s", got.Download)
		}
	})

	t.Run("nil result yields empty URLs", func(t *testing.T) {
		if got := ResolveURLs("http://localhost:8000", nil); got != (DisplayURLs{}) {
			t.Errorf("expected empty URLs, got %+v", got)
		}
	})
}

func TestCandidate(t *testing.T) {
	tc := []struct {
		mediaType string
		want      bool
	}{
		{"image/png", true},
		{"image/jpeg", true},
		{"IMAGE/WEBP", true},
		{"text/plain", false},
		{"application/pdf", false},
		{"", false},
	}

	for _, tt := range tc {
		t.Run(tt.mediaType, func(t *testing.T) {
			c := Candidate{MediaType: tt.mediaType}
			if got := c.IsImage(); got != tt.want {
				t.Errorf("IsImage() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("CandidateFromBytes", func(t *testing.T) {
		c := CandidateFromBytes("a.png", "image/png", []byte("abc"))
		if c.Size != 3 {
			t.Errorf("expected size 3, got %d", c.Size)
		}

		rc, err := c.Open()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer rc.Close()

		data, _ := io.ReadAll(rc)
		if string(data) != "abc" {
			t.Errorf("expected content abc, got %q", data)
		}
	})
}

func TestModeString(t *testing.T) {
	modes := map[Mode]string{
		Empty:           "empty",
		HasFileNoResult: "has_file",
		Submitting:      "submitting",
		HasResult:       "has_result",
		Mode(99):        "",
	}
	for m, want := range modes {
		if got := m.String(); got != want {
			t.Errorf("Mode(%d).String() = %q, want %q", m, got, want)
		}
	}
}
