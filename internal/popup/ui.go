package popup

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"LinkCart/internal/links"
	"LinkCart/internal/scrape"
	"LinkCart/internal/view"
)

func (s *Server) page(w http.ResponseWriter, r *http.Request) {
	var m view.Model
	entries, err := s.Store.List(r.Context())
	if err != nil {
		s.Log.Error("load links for page", zap.Error(err))
		m = view.Failed()
	} else {
		m = view.Build(entries)
	}
	m.Notice = r.URL.Query().Get("notice")

	var buf bytes.Buffer
	if err := view.Render(&buf, m); err != nil {
		s.Log.Error("render page", zap.Error(err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) uiAdd(w http.ResponseWriter, r *http.Request) {
	if !s.scrapeLimiter.AllowRequest(r) {
		redirectHome(w, r, "Too many requests, try again in a minute.")
		return
	}

	raw := strings.TrimSpace(r.PostFormValue("url"))
	if err := s.Validator.Validate(scrapeReq{URL: raw}); err != nil {
		redirectHome(w, r, "Enter an http(s) page address.")
		return
	}

	resp, err := s.collect(r.Context(), raw)
	if err != nil {
		s.Log.Warn("add from page failed", zap.String("url", raw), zap.Error(err))
		redirectHome(w, r, addFailure(err))
		return
	}
	redirectHome(w, r, addSummary(resp))
}

func (s *Server) uiDelete(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	notice := ""
	if err := s.Store.Delete(r.Context(), key); err != nil {
		s.Log.Warn("delete from page failed", zap.String("key", key), zap.Error(err))
		notice = "Could not delete link " + key + "."
	}
	redirectHome(w, r, notice)
}

func (s *Server) uiClear(w http.ResponseWriter, r *http.Request) {
	if r.PostFormValue("confirm") != "yes" {
		redirectHome(w, r, "")
		return
	}
	notice := "All links deleted."
	if err := s.Store.Clear(r.Context()); err != nil {
		s.Log.Warn("clear from page failed", zap.Error(err))
		notice = "Could not delete links."
	}
	redirectHome(w, r, notice)
}

// redirectHome sends the browser back to the page; every form post ends here.
func redirectHome(w http.ResponseWriter, r *http.Request, notice string) {
	target := "/"
	if notice != "" {
		target += "?notice=" + url.QueryEscape(notice)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func addSummary(resp scrapeResp) string {
	switch {
	case len(resp.Saved) == 0:
		return "Already saved."
	case len(resp.Duplicates) > 0:
		return fmt.Sprintf("Saved %d, already saved: %s.", len(resp.Saved), strings.Join(resp.Duplicates, ", "))
	default:
		return fmt.Sprintf("Saved %d.", len(resp.Saved))
	}
}

func addFailure(err error) string {
	switch {
	case errors.Is(err, scrape.ErrNotFound):
		return "No product data found on that page."
	case errors.Is(err, scrape.ErrBadURL):
		return "Enter an http(s) page address."
	case errors.Is(err, links.ErrStorageUnavailable):
		return "Saved links could not be updated."
	default:
		return "Could not load that page."
	}
}
