package popup

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"LinkCart/internal/export"
	"LinkCart/internal/links"
	"LinkCart/internal/scrape"
	"LinkCart/internal/substitute"
	"LinkCart/pkg/kit"
)

const (
	maxBodyBytes  = 1 << 20
	scrapeTimeout = 15 * time.Second
	readyTimeout  = 1 * time.Second
)

// PageFetcher loads and parses a product page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (scrape.Page, error)
}

type Server struct {
	Store     *links.Store
	Fetcher   PageFetcher
	Exporter  *export.Exporter
	Validator *Validator
	Log       *zap.Logger

	scrapeLimiter *kit.IPRateLimiter
}

func (s *Server) Routes() http.Handler {
	if s.Log == nil {
		s.Log = zap.NewNop()
	}
	if s.Validator == nil {
		s.Validator = NewValidator()
	}
	if s.scrapeLimiter == nil {
		s.scrapeLimiter = kit.NewIPRateLimiter(0, time.Minute)
	}

	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", s.ready)

	r.Get("/", s.page)
	r.Route("/ui", func(ur chi.Router) {
		ur.Post("/add", s.uiAdd)
		ur.Post("/delete/{key}", s.uiDelete)
		ur.Post("/clear", s.uiClear)
	})

	r.Route("/links", func(lr chi.Router) {
		lr.Get("/", s.list)
		lr.Post("/", s.save)
		lr.Delete("/", s.clear)
		lr.With(s.scrapeLimiter.Middleware).Post("/scrape", s.scrape)
		lr.Get("/{key}", s.get)
		lr.Delete("/{key}", s.delete)
	})

	r.Get("/export.csv", s.export)
	r.Post("/export.csv", s.export)
	r.Post("/expand", s.expand)

	return r
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.Store.Ping(ctx); err != nil {
		s.Log.Warn("readyz failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	entries, err := s.Store.List(r.Context())
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusOK, entries)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	rec, ok, err := s.Store.Get(r.Context(), key)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"key": key})
		return
	}
	kit.WriteJSON(w, http.StatusOK, links.Entry{Key: key, Record: rec})
}

type saveReq struct {
	Link        string `json:"link" validate:"required,httpurl,max=2048"`
	Title       string `json:"title" validate:"max=1024"`
	ProductName string `json:"productName" validate:"max=1024"`
	Price       string `json:"price" validate:"max=256"`
	Img         string `json:"img" validate:"omitempty,httpurl,max=2048"`
	Count       int    `json:"count" validate:"gte=0"`
}

func (s *Server) save(w http.ResponseWriter, r *http.Request) {
	var req saveReq
	if err := decodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	req.Link = strings.TrimSpace(req.Link)

	if err := s.Validator.Validate(req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid record", fieldErrors(err))
		return
	}

	e, err := s.Store.Save(r.Context(), links.Record{
		Link:        req.Link,
		Title:       strings.TrimSpace(req.Title),
		ProductName: strings.TrimSpace(req.ProductName),
		Price:       strings.TrimSpace(req.Price),
		Img:         strings.TrimSpace(req.Img),
		Count:       req.Count,
	})
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	kit.WriteJSON(w, http.StatusCreated, e)
}

type scrapeReq struct {
	URL string `json:"url" validate:"required,httpurl,max=2048"`
}

type scrapeResp struct {
	Page       scrape.Page   `json:"page"`
	Saved      []links.Entry `json:"saved"`
	Duplicates []string      `json:"duplicates,omitempty"`
}

func (s *Server) scrape(w http.ResponseWriter, r *http.Request) {
	var req scrapeReq
	if err := decodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	if err := s.Validator.Validate(req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid url", fieldErrors(err))
		return
	}

	resp, err := s.collect(r.Context(), req.URL)
	if err != nil {
		s.writeScrapeError(w, r, err)
		return
	}

	status := http.StatusCreated
	if len(resp.Saved) == 0 {
		status = http.StatusConflict
	}
	kit.WriteJSON(w, status, resp)
}

// collect fetches url and saves what it finds. Duplicates are reported per
// product and do not stop the remaining products from being saved.
func (s *Server) collect(ctx context.Context, url string) (scrapeResp, error) {
	ctx, cancel := context.WithTimeout(ctx, scrapeTimeout)
	defer cancel()

	page, err := s.Fetcher.Fetch(ctx, url)
	if err != nil {
		return scrapeResp{}, err
	}

	resp := scrapeResp{Page: page, Saved: []links.Entry{}}
	for _, rec := range RecordsFromPage(page) {
		e, err := s.Store.Save(ctx, rec)
		switch {
		case errors.Is(err, links.ErrDuplicateRecord):
			name := rec.ProductName
			if name == "" {
				name = rec.Link
			}
			resp.Duplicates = append(resp.Duplicates, name)
		case err != nil:
			return resp, err
		default:
			resp.Saved = append(resp.Saved, e)
		}
	}
	return resp, nil
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if err := s.Store.Delete(r.Context(), key); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) clear(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.Clear(r.Context()); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// export serves the CSV download. GET only clears with ?clear=1 so a link
// prefetch cannot empty the store; POST clears as configured unless
// ?keep=1.
func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	ex := *s.Exporter
	q := r.URL.Query()
	if r.Method == http.MethodGet {
		ex.ClearAfter = isTrue(q.Get("clear"))
	} else if isTrue(q.Get("keep")) {
		ex.ClearAfter = false
	}

	var buf strings.Builder
	res, err := ex.Export(r.Context(), &buf)
	if err != nil {
		s.Log.Error("export failed", zap.String("export_id", res.ID), zap.Error(err))
		s.writeStoreError(w, r, err)
		return
	}

	kit.Attachment(w, export.ContentType, export.FileName)
	w.Header().Set("X-Export-Id", res.ID)
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, buf.String())
}

type expandReq struct {
	Text string `json:"text" validate:"max=65536"`
}

type expandResp struct {
	Text string `json:"text"`
}

func (s *Server) expand(w http.ResponseWriter, r *http.Request) {
	var req expandReq
	if err := decodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	if err := s.Validator.Validate(req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "text too long", fieldErrors(err))
		return
	}

	kit.WriteJSON(w, http.StatusOK, expandResp{Text: ExpandText(r.Context(), s.Store, req.Text)})
}

// ExpandText resolves $key tokens against the saved links. The store is
// only read when the text holds at least one token.
func ExpandText(ctx context.Context, store *links.Store, text string) string {
	if len(substitute.Keys(text)) == 0 {
		return text
	}
	lookup := store.Lookup(ctx)
	return substitute.Expand(text, func(key string) (string, bool) {
		rec, ok := lookup(key)
		return rec.Link, ok
	})
}

func isTrue(v string) bool { return v == "1" || v == "true" }

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("extra data after json object")
	}
	return nil
}

func (s *Server) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, links.ErrDuplicateRecord):
		kit.WriteError(w, r, http.StatusConflict, "duplicate record", map[string]any{"cause": err.Error()})
	case errors.Is(err, links.ErrNotFound):
		kit.WriteError(w, r, http.StatusNotFound, "not found", nil)
	case errors.Is(err, links.ErrInvalidRecord):
		kit.WriteError(w, r, http.StatusBadRequest, "invalid record", map[string]any{"cause": err.Error()})
	case errors.Is(err, links.ErrStorageUnavailable):
		s.Log.Error("storage unavailable", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "storage unavailable", nil)
	case isTimeoutErr(err):
		kit.WriteError(w, r, http.StatusGatewayTimeout, "timeout", nil)
	default:
		s.Log.Error("request failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
	}
}

func (s *Server) writeScrapeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, scrape.ErrBadURL):
		kit.WriteError(w, r, http.StatusBadRequest, "invalid url", nil)
	case errors.Is(err, scrape.ErrNotFound):
		s.Log.Info("scrape found nothing", zap.Error(err))
		kit.WriteError(w, r, http.StatusUnprocessableEntity, "product data not found", nil)
	case errors.Is(err, scrape.ErrBadStatus):
		kit.WriteError(w, r, http.StatusBadGateway, "shop page error", map[string]any{"cause": err.Error()})
	case errors.Is(err, scrape.ErrUnavailable):
		kit.WriteError(w, r, http.StatusServiceUnavailable, "shop page unavailable", nil)
	default:
		s.writeStoreError(w, r, err)
	}
}

func isTimeoutErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
