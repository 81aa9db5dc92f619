// templates/engine.go
package templates

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// LayoutTemplate is the entry point every page is executed through. The
// layout calls {{ template "content" . }}, which each page defines.
const LayoutTemplate = "layout"

// Engine holds one compiled template set per page: a clone of the shared
// layout plus that page's file, so every page can define "content" and
// "head" without clashing.
type Engine struct {
	pages  map[string]*template.Template
	logger *zap.Logger
}

// New parses the files matching sharedPattern as the layout and every file
// matching pagePattern as a page named after its base name without
// extension ("pages/contact.gohtml" -> "contact").
func New(fsys fs.FS, sharedPattern, pagePattern string, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	base, err := template.New("root").Funcs(Funcs()).ParseFS(fsys, sharedPattern)
	if err != nil {
		return nil, fmt.Errorf("parse shared templates: %w", err)
	}
	if base.Lookup(LayoutTemplate) == nil {
		return nil, fmt.Errorf("shared templates do not define %q", LayoutTemplate)
	}

	files, err := fs.Glob(fsys, pagePattern)
	if err != nil {
		return nil, fmt.Errorf("glob %q: %w", pagePattern, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no page templates match %q", pagePattern)
	}
	sort.Strings(files)

	e := &Engine{pages: make(map[string]*template.Template, len(files)), logger: logger}
	for _, file := range files {
		src, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout for %s: %w", file, err)
		}
		if _, err := clone.Parse(string(src)); err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		name := strings.TrimSuffix(path.Base(file), path.Ext(file))
		e.pages[name] = clone
		logger.Debug("template page compiled", zap.String("page", name))
	}
	return e, nil
}

// Pages returns the compiled page names in order.
func (e *Engine) Pages() []string {
	names := make([]string, 0, len(e.pages))
	for name := range e.pages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute renders page into a buffer so a failing template never leaves a
// half-written response.
func (e *Engine) Execute(page string, data any) ([]byte, error) {
	t, ok := e.pages[page]
	if !ok {
		return nil, fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, LayoutTemplate, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", page, err)
	}
	return buf.Bytes(), nil
}

// Render writes page as text/html with status 200, or logs and answers 500.
func (e *Engine) Render(w http.ResponseWriter, page string, data any) {
	body, err := e.Execute(page, data)
	if err != nil {
		e.logger.Error("template render failed", zap.String("page", page), zap.Error(err))
		http.Error(w, "template exec error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
