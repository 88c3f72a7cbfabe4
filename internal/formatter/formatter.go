// package formatter renders colorize results to various formats (text, JSON, CSV, Markdown)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/colorize/internal/shared"
	"github.com/desertthunder/colorize/internal/tasks"
)

// Format names accepted by [Render].
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
)

// ParseFormat normalizes a user supplied format name.
func ParseFormat(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (use text, json, csv or markdown)", shared.ErrInvalidArgument, s)
	}
}

// Entry is the flattened, serializable view of one batch item.
type Entry struct {
	Input       string `json:"input"`
	Status      string `json:"status"`
	Filename    string `json:"filename,omitempty"`
	PreviewURL  string `json:"preview_url,omitempty"`
	DownloadURL string `json:"download_url,omitempty"`
	SavedTo     string `json:"saved_to,omitempty"`
	Error       string `json:"error,omitempty"`
	ElapsedMS   int64  `json:"elapsed_ms"`
}

// Manifest is the JSON document written for a batch run.
type Manifest struct {
	Total     int     `json:"total"`
	Succeeded int     `json:"succeeded"`
	Failed    int     `json:"failed"`
	OutputDir string  `json:"output_dir,omitempty"`
	Results   []Entry `json:"results"`
}

// Entries flattens a batch result. Item errors become their user-facing message.
func Entries(res *tasks.BatchResult) []Entry {
	entries := make([]Entry, 0, len(res.Items))
	for _, item := range res.Items {
		e := Entry{
			Input:       item.Path,
			Status:      "failed",
			PreviewURL:  item.URLs.Preview,
			DownloadURL: item.URLs.Download,
			SavedTo:     item.SavedTo,
			ElapsedMS:   item.Elapsed.Milliseconds(),
		}
		if item.Result != nil {
			e.Filename = item.Result.Filename
			e.Status = item.Result.Status
			if e.Status == "" {
				e.Status = "success"
			}
		}
		if item.Error != nil {
			e.Status = "failed"
			e.Error = shared.UserMessage(item.Error)
		}
		entries = append(entries, e)
	}
	return entries
}

// ToManifest builds the JSON manifest for res.
func ToManifest(res *tasks.BatchResult) Manifest {
	return Manifest{
		Total:     res.Total,
		Succeeded: res.Succeeded,
		Failed:    res.Failed,
		OutputDir: res.OutputDir,
		Results:   Entries(res),
	}
}

// ToJSON renders res as an indented JSON manifest.
func ToJSON(res *tasks.BatchResult) ([]byte, error) {
	data, err := shared.MarshalJSON(ToManifest(res), true)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// ToCSV converts res to CSV with columns: Input, Status, Filename, Preview URL, Download URL, Saved To, Error, Elapsed (ms)
func ToCSV(res *tasks.BatchResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Input", "Status", "Filename", "Preview URL", "Download URL", "Saved To", "Error", "Elapsed (ms)"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, e := range Entries(res) {
		record := []string{
			e.Input,
			e.Status,
			e.Filename,
			e.PreviewURL,
			e.DownloadURL,
			e.SavedTo,
			e.Error,
			strconv.FormatInt(e.ElapsedMS, 10),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ToMarkdown renders res as a Markdown report with inline previews of colorized images.
func ToMarkdown(res *tasks.BatchResult) []byte {
	var buf bytes.Buffer

	buf.WriteString("# Colorize Results\n\n")
	buf.WriteString(fmt.Sprintf("**Files**: %d\n", res.Total))
	buf.WriteString(fmt.Sprintf("**Succeeded**: %d\n", res.Succeeded))
	buf.WriteString(fmt.Sprintf("**Failed**: %d\n", res.Failed))
	if res.OutputDir != "" {
		buf.WriteString(fmt.Sprintf("**Output**: `%s`\n", res.OutputDir))
	}
	buf.WriteString("\n")

	buf.WriteString("| # | Input | Status | Result |\n")
	buf.WriteString("|---|-------|--------|--------|\n")
	for i, e := range Entries(res) {
		result := e.Error
		if e.Error == "" {
			result = fmt.Sprintf("[download](%s)", e.DownloadURL)
		}
		buf.WriteString(fmt.Sprintf("| %d | %s | %s | %s |\n", i+1, mdEscape(e.Input), e.Status, mdEscape(result)))
	}

	var previews []Entry
	for _, e := range Entries(res) {
		if e.Error == "" && e.PreviewURL != "" {
			previews = append(previews, e)
		}
	}
	if len(previews) > 0 {
		buf.WriteString("\n## Previews\n\n")
		for _, e := range previews {
			buf.WriteString(fmt.Sprintf("![%s](%s)\n\n", mdEscape(e.Input), e.PreviewURL))
		}
	}

	return buf.Bytes()
}

// ToText renders res as plain text, one line per file.
func ToText(res *tasks.BatchResult) []byte {
	var buf bytes.Buffer

	for i, e := range Entries(res) {
		if e.Error != "" {
			buf.WriteString(fmt.Sprintf("%d. ✗ %s: %s\n", i+1, e.Input, e.Error))
			continue
		}
		buf.WriteString(fmt.Sprintf("%d. ✓ %s\n", i+1, e.Input))
		buf.WriteString(fmt.Sprintf("   preview:  %s\n", e.PreviewURL))
		buf.WriteString(fmt.Sprintf("   download: %s\n", e.DownloadURL))
		if e.SavedTo != "" {
			buf.WriteString(fmt.Sprintf("   saved:    %s\n", e.SavedTo))
		}
	}

	buf.WriteString(fmt.Sprintf("\n%d of %d colorized", res.Succeeded, res.Total))
	if res.Failed > 0 {
		buf.WriteString(fmt.Sprintf(", %d failed", res.Failed))
	}
	buf.WriteString("\n")

	return buf.Bytes()
}

// Render dispatches to the renderer for format.
func Render(res *tasks.BatchResult, format string) ([]byte, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}

	switch f {
	case FormatJSON:
		return ToJSON(res)
	case FormatCSV:
		return ToCSV(res)
	case FormatMarkdown:
		return ToMarkdown(res), nil
	default:
		return ToText(res), nil
	}
}

// WriteManifest renders res in format and writes it to path.
func WriteManifest(res *tasks.BatchResult, format, path string) error {
	data, err := Render(res, format)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// ManifestName returns the conventional manifest filename for format.
func ManifestName(format string) string {
	switch format {
	case FormatJSON:
		return "manifest.json"
	case FormatCSV:
		return "manifest.csv"
	case FormatMarkdown:
		return "README.md"
	default:
		return "manifest.txt"
	}
}

var mdReplacer = strings.NewReplacer("|", `\|`, "\n", " ")

func mdEscape(s string) string {
	return mdReplacer.Replace(s)
}
