// internal/api/handlers.go
package api

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/TheSilvus/smeagol/internal/filetype"
	"github.com/TheSilvus/smeagol/internal/logging"
	"github.com/TheSilvus/smeagol/internal/repo"
	"github.com/TheSilvus/smeagol/internal/templates"
	"github.com/TheSilvus/smeagol/internal/wikipath"
)

// WikiHandler serves the wiki: page views, directory listings, edit forms and
// saves. It owns the mapping from the repository's error taxonomy to HTTP
// statuses; the repository itself never sees a request.
type WikiHandler struct {
	repo      *repo.Repository
	templates *templates.Set
	logger    *logging.Logger
	index     string
}

func NewWikiHandler(repository *repo.Repository, tmpl *templates.Set, logger *logging.Logger, index string) *WikiHandler {
	return &WikiHandler{
		repo:      repository,
		templates: tmpl,
		logger:    logger,
		index:     index,
	}
}

func (h *WikiHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/" && r.Method == http.MethodGet {
		http.Redirect(w, r, "/"+wikipath.FromString(h.index).PercentEncode(), http.StatusSeeOther)
		return
	}

	// The escaped form is decoded by the path type itself so filenames that
	// are not valid text survive the round trip.
	path := wikipath.FromPercentEncoded(strings.TrimPrefix(r.URL.EscapedPath(), "/"))
	item := h.repo.Item(path)

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, item)
	case http.MethodPost:
		h.save(w, r, item)
	default:
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}

func viewURL(path wikipath.Path) string {
	return "/" + path.PercentEncode()
}

func editURL(path wikipath.Path) string {
	return viewURL(path) + "?edit"
}

func (h *WikiHandler) get(w http.ResponseWriter, r *http.Request, item *repo.Item) {
	if r.URL.Query().Has("edit") {
		h.editForm(w, r, item)
		return
	}

	isDir, err := item.IsDir()
	if errors.Is(err, repo.ErrNotFound) {
		h.notFound(w, r, item)
		return
	}
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	if isDir {
		h.listing(w, r, item)
		return
	}
	h.page(w, r, item)
}

func (h *WikiHandler) page(w http.ResponseWriter, r *http.Request, item *repo.Item) {
	content, err := item.Content()
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	ft := filetype.FromPath(item.Path())
	if r.URL.Query().Has("raw") || !ft.Safe() {
		w.Header().Set("Content-Type", http.DetectContentType(content))
		w.Write(content)
		return
	}

	rendered, err := ft.Render(content)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "page", map[string]any{
		"Title":   item.Path().String(),
		"Path":    item.Path().String(),
		"Content": template.HTML(rendered),
		"EditURL": editURL(item.Path()),
	})
}

func (h *WikiHandler) listing(w http.ResponseWriter, r *http.Request, item *repo.Item) {
	children, err := item.List()
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	type entry struct {
		Name  string
		URL   string
		IsDir bool
	}
	entries := make([]entry, 0, len(children))
	for _, child := range children {
		name, ok := child.Path().Filename()
		if !ok {
			continue
		}
		isDir, err := child.IsDir()
		if err != nil {
			h.internalError(w, r, err)
			return
		}
		entries = append(entries, entry{
			Name:  string(name),
			URL:   viewURL(child.Path()),
			IsDir: isDir,
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	h.render(w, r, http.StatusOK, "listing", map[string]any{
		"Title":   item.Path().String() + "/",
		"Path":    item.Path().String(),
		"Entries": entries,
	})
}

func (h *WikiHandler) editForm(w http.ResponseWriter, r *http.Request, item *repo.Item) {
	canExist, err := item.CanExist()
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if !canExist {
		h.errorPage(w, r, http.StatusConflict, "A file along this path blocks the page.", "")
		return
	}

	content, err := item.Content()
	switch {
	case errors.Is(err, repo.ErrIsDir):
		h.errorPage(w, r, http.StatusConflict, "This path is a directory.", "")
		return
	case errors.Is(err, repo.ErrNotFound):
		content = nil
	case err != nil:
		h.internalError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "edit", map[string]any{
		"Title":   "Editing " + item.Path().String(),
		"Path":    item.Path().String(),
		"Content": string(content),
		"SaveURL": viewURL(item.Path()),
	})
}

func (h *WikiHandler) save(w http.ResponseWriter, r *http.Request, item *repo.Item) {
	content, message, err := readEdit(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Content Too Large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if message == "" {
		message = fmt.Sprintf("Edit %s", item.Path())
	}

	outcome, err := item.Edit(content, message)
	switch {
	case errors.Is(err, repo.ErrCannotCreate):
		h.errorPage(w, r, http.StatusConflict, "A file along this path blocks the page.", "")
		return
	case errors.Is(err, repo.ErrIsDir):
		h.errorPage(w, r, http.StatusConflict, "This path is a directory.", "")
		return
	case err != nil:
		h.internalError(w, r, err)
		return
	}

	h.logger.WithRequestID(r.Context()).Info("page saved",
		zap.String("path", item.Path().String()),
		zap.Stringer("outcome", outcome),
	)
	http.Redirect(w, r, viewURL(item.Path()), http.StatusSeeOther)
}

// readEdit extracts content and commit message from a save request. Form
// submissions carry them as fields; anything else is taken as raw content
// with an optional message query parameter.
func readEdit(r *http.Request) ([]byte, string, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			return nil, "", err
		}
		return []byte(r.PostForm.Get("content")), r.PostForm.Get("message"), nil
	}

	content, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, "", err
	}
	return content, r.URL.Query().Get("message"), nil
}

func (h *WikiHandler) notFound(w http.ResponseWriter, r *http.Request, item *repo.Item) {
	canExist, err := item.CanExist()
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	edit := ""
	if canExist {
		edit = editURL(item.Path())
	}
	h.errorPage(w, r, http.StatusNotFound, "This page does not exist.", edit)
}

func (h *WikiHandler) errorPage(w http.ResponseWriter, r *http.Request, status int, message, edit string) {
	h.render(w, r, status, "error", map[string]any{
		"Title":   "Error",
		"Path":    "",
		"Message": message,
		"EditURL": edit,
	})
}

// internalError hides store failures behind a plain 500; details go to the
// log only.
func (h *WikiHandler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.WithRequestID(r.Context()).Error("internal error", zap.Error(err))
	http.Error(w, "An internal error occurred.", http.StatusInternalServerError)
}

// render buffers template output so a rendering failure can still become a
// clean 500 instead of a half-written page.
func (h *WikiHandler) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := h.templates.Render(&buf, name, data); err != nil {
		h.internalError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
