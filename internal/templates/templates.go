// Package templates manages the HTML template set for the wiki pages. A set
// always contains the built-in templates; a templates directory, when
// present, overrides them and is watched so edits take effect without a
// restart.
package templates

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/TheSilvus/smeagol/internal/logging"
)

// Set is a reloadable template collection. Render is safe for concurrent use
// with reloads.
type Set struct {
	dir     string
	logger  *logging.Logger
	watcher *fsnotify.Watcher

	mu   sync.RWMutex
	tmpl *template.Template
}

// Load parses the built-in templates and overlays *.html files from dir if it
// exists. An empty dir disables the overlay and the watcher.
func Load(dir string, logger *logging.Logger) (*Set, error) {
	s := &Set{dir: dir, logger: logger}
	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Watch starts reloading the set whenever a file in the templates directory
// changes. It is a no-op when the directory does not exist.
func (s *Set) Watch() error {
	if s.dir == "" {
		return nil
	}
	if _, err := os.Stat(s.dir); os.IsNotExist(err) {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating template watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watching %s: %w", s.dir, err)
	}
	s.watcher = watcher

	go s.watchLoop()
	return nil
}

func (s *Set) watchLoop() {
	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Ext(event.Name) != ".html" {
				continue
			}
			if err := s.reload(); err != nil {
				s.logger.Warn("template reload failed",
					zap.String("file", event.Name),
					zap.Error(err),
				)
				continue
			}
			s.logger.Info("templates reloaded", zap.String("file", event.Name))
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("template watcher error", zap.Error(err))
		}
	}
}

func (s *Set) reload() error {
	tmpl, err := template.New("").Parse(builtin)
	if err != nil {
		return fmt.Errorf("parsing built-in templates: %w", err)
	}

	if s.dir != "" {
		pattern := filepath.Join(s.dir, "*.html")
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return fmt.Errorf("globbing %s: %w", pattern, err)
		}
		if len(matches) > 0 {
			tmpl, err = tmpl.ParseGlob(pattern)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", pattern, err)
			}
		}
	}

	s.mu.Lock()
	s.tmpl = tmpl
	s.mu.Unlock()
	return nil
}

// Render executes the named template.
func (s *Set) Render(w io.Writer, name string, data any) error {
	s.mu.RLock()
	tmpl := s.tmpl
	s.mu.RUnlock()

	if err := tmpl.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("rendering template %s: %w", name, err)
	}
	return nil
}

func (s *Set) Close() error {
	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}

// builtin holds the default template set. A templates directory can override
// any of these by defining a template with the same name.
const builtin = `
{{define "layout_head"}}<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { max-width: 48rem; margin: 2rem auto; padding: 0 1rem; font-family: sans-serif; }
nav { color: #666; margin-bottom: 1rem; }
nav a { color: #666; }
textarea { width: 100%; height: 24rem; font-family: monospace; }
ul.listing { list-style: none; padding-left: 0; }
ul.listing li.dir::before { content: "\1F4C1 "; }
ul.listing li.file::before { content: "\1F4C4 "; }
</style>
</head>
<body>
<nav><a href="/">wiki</a> / {{.Path}}</nav>
{{end}}

{{define "layout_foot"}}</body>
</html>{{end}}

{{define "page"}}{{template "layout_head" .}}
<p><a href="{{.EditURL}}">edit</a></p>
<main>{{.Content}}</main>
{{template "layout_foot" .}}{{end}}

{{define "edit"}}{{template "layout_head" .}}
<form method="POST" action="{{.SaveURL}}">
<textarea name="content">{{.Content}}</textarea>
<p><input type="text" name="message" placeholder="Commit message"></p>
<p><button type="submit">Save</button></p>
</form>
{{template "layout_foot" .}}{{end}}

{{define "listing"}}{{template "layout_head" .}}
<ul class="listing">
{{range .Entries}}<li class="{{if .IsDir}}dir{{else}}file{{end}}"><a href="{{.URL}}">{{.Name}}</a></li>
{{end}}</ul>
{{template "layout_foot" .}}{{end}}

{{define "error"}}{{template "layout_head" .}}
<p>{{.Message}}</p>
{{if .EditURL}}<p><a href="{{.EditURL}}">Create this page</a></p>{{end}}
{{template "layout_foot" .}}{{end}}
`
