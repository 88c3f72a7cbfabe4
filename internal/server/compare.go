package server

import (
	"bytes"
	"html/template"
	"net/http"
)

// CompareData is the before/after pair rendered by the compare page.
type CompareData struct {
	Name     string // Original filename
	Before   string // URL of the original (local preview)
	After    string // Absolute URL of the colorized preview
	Download string // Absolute download URL
}

// CompareSource returns the current pair, or false when there is no result yet.
type CompareSource func() (CompareData, bool)

var compareTmpl = template.Must(template.New("compare").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Name}} · colorize</title>
<style>
  body { margin: 0; padding: 2rem; font-family: system-ui, sans-serif; background: #111; color: #eee; }
  .frame { position: relative; display: inline-block; max-width: 100%; }
  .frame img { display: block; max-width: 100%; }
  .frame .after { position: absolute; inset: 0; clip-path: inset(0 0 0 50%); }
  input[type=range] { width: 100%; margin-top: 1rem; }
  a { color: #b48ead; }
</style>
</head>
<body>
<h1>{{.Name}}</h1>
<div class="frame">
  <img class="before" src="{{.Before}}" alt="original">
  <img class="after" id="after" src="{{.After}}" alt="colorized">
</div>
<input id="slider" type="range" min="0" max="100" value="50" aria-label="before/after">
<p><a href="{{.Download}}" download>Download colorized image</a></p>
<script>
  const after = document.getElementById("after");
  document.getElementById("slider").addEventListener("input", (e) => {
    after.style.clipPath = "inset(0 0 0 " + e.target.value + "%)";
  });
</script>
</body>
</html>
`))

// CompareHandler renders the before/after slider page.
type CompareHandler struct {
	source CompareSource
}

// NewCompareHandler creates a handler reading from source on each request.
func NewCompareHandler(source CompareSource) *CompareHandler {
	return &CompareHandler{source: source}
}

// Routes returns the HTTP routes this handler serves.
func (h *CompareHandler) Routes() []string {
	return []string{"/compare"}
}

// ServeHTTP renders the page, or 404 when nothing has been colorized.
func (h *CompareHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data, ok := h.source()
	if !ok {
		http.Error(w, "Nothing to compare yet", http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := compareTmpl.Execute(&buf, data); err != nil {
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}
