package api

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Public locations of the generated files, relative to the application URL.
const (
	iconRoute       = "/icon/board/"
	stylesheetRoute = "/style/boardIcon.less"
)

func (s *Server) registerStaticRoutes() {
	if s.opts.IconDir != "" {
		s.router.Get(iconRoute+"*", s.handleServeIcon)
	}
	if s.opts.StylesheetPath != "" {
		s.router.Get(stylesheetRoute, s.handleServeStylesheet)
	}
}

// handleServeIcon serves permanent and staged icon files. Directory listings are not served.
func (s *Server) handleServeIcon(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")
	if name == "" || strings.HasSuffix(name, "/") || strings.Contains(name, "..") {
		http.NotFound(w, r)
		return
	}

	full := filepath.Join(s.opts.IconDir, filepath.FromSlash(path.Clean("/"+name)))
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	// Permanent names contain the content hash, staged ones are overwritten in place.
	if strings.Contains(name, "/") {
		w.Header().Set("Cache-Control", CacheNoStore)
	} else {
		w.Header().Set("Cache-Control", CacheOneWeek)
	}
	http.ServeFile(w, r, full)
}

func (s *Server) handleServeStylesheet(w http.ResponseWriter, r *http.Request) {
	if _, err := os.Stat(s.opts.StylesheetPath); err != nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", CacheNoStore)
	http.ServeFile(w, r, s.opts.StylesheetPath)
}
