package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/jonathan/resumator/internal/ingestion"
	"github.com/jonathan/resumator/internal/scrape"
	"github.com/jonathan/resumator/internal/store"
	"github.com/jonathan/resumator/internal/watch"
)

// maxRequestBody bounds POST /extract bodies, which may carry a whole page.
const maxRequestBody = 10 << 20

// Watch stream bounds.
const (
	defaultWatchAttempts = 10
	maxWatchAttempts     = 60
	minWatchInterval     = 500 * time.Millisecond
)

var validate = validator.New()

// ExtractRequest is the body of POST /extract. Either URL or HTML must be set;
// with HTML, URL only drives platform classification.
type ExtractRequest struct {
	URL        string `json:"url" validate:"omitempty,url"`
	HTML       string `json:"html"`
	UseBrowser *bool  `json:"use_browser,omitempty"`
	Trace      bool   `json:"trace"`
	Save       bool   `json:"save"`
}

// ExtractResponse is returned by POST /extract.
type ExtractResponse struct {
	Record   *scrape.JobRecord   `json:"record"`
	Metadata *ingestion.Metadata `json:"metadata"`
	Complete bool                `json:"complete"`
	Stored   *store.StoredRecord `json:"stored,omitempty"`
}

// ListRecordsResponse represents the response for listing records
type ListRecordsResponse struct {
	Records []store.StoredRecord `json:"records"`
	Count   int                  `json:"count"`
	Limit   int                  `json:"limit"`
	Offset  int                  `json:"offset"`
}

// WatchEvent is the payload of attempt and complete events.
type WatchEvent struct {
	Attempt  int               `json:"attempt,omitempty"`
	Record   *scrape.JobRecord `json:"record"`
	Missing  []scrape.Field    `json:"missing"`
	Complete bool              `json:"complete"`
}

func parseQueryInt(r *http.Request, key string, defaultValue, maxValue int) int {
	valStr := r.URL.Query().Get(key)
	if valStr == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val < 0 {
		return defaultValue
	}
	if maxValue > 0 && val > maxValue {
		return maxValue
	}
	return val
}

func (req *ExtractRequest) validate() error {
	if req.URL == "" && req.HTML == "" {
		return &ErrValidation{Field: "url", Message: "url or html is required"}
	}
	if err := validate.Struct(req); err != nil {
		return &ErrValidation{Field: "url", Message: "must be an absolute URL"}
	}
	return nil
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ok", "database": "disabled"}
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			resp["database"] = "unavailable"
			s.jsonResponse(w, http.StatusServiceUnavailable, resp)
			return
		}
		resp["database"] = "ok"
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// handleExtract fetches or parses a page and returns the extracted record.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	if req.Save && s.store == nil {
		s.errorResponse(w, HTTPStatus(ErrStoreUnavailable), ErrStoreUnavailable.Error())
		return
	}

	opts := s.requestOptions(req.Trace)
	if req.UseBrowser != nil {
		opts.UseBrowser = *req.UseBrowser
	}

	var (
		rec  *scrape.JobRecord
		meta *ingestion.Metadata
		err  error
	)
	if req.HTML != "" {
		rec, meta, err = ingestion.FromHTML(req.HTML, req.URL, opts)
	} else {
		rec, meta, err = ingestion.FromURL(r.Context(), req.URL, opts)
	}
	if err != nil {
		log.Warn().Err(err).Str("url", req.URL).Msg("extraction failed")
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	resp := ExtractResponse{Record: rec, Metadata: meta, Complete: rec.Complete()}
	if req.Save {
		if rec.URL == "" {
			s.errorResponse(w, http.StatusBadRequest, "url is required to save a record")
			return
		}
		stored, err := s.store.UpsertRecord(r.Context(), rec)
		if err != nil {
			s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
			return
		}
		resp.Stored = stored
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

// requestOptions copies the server's ingestion options so per-request overrides
// never leak into shared state.
func (s *Server) requestOptions(trace bool) *ingestion.Options {
	opts := *s.ingest
	scrapeOpts := scrape.DefaultOptions()
	if s.ingest.Scrape != nil {
		copied := *s.ingest.Scrape
		scrapeOpts = &copied
	}
	if trace {
		scrapeOpts.Trace = true
	}
	opts.Scrape = scrapeOpts
	return &opts
}

// handleWatch polls a page and streams every attempt as an SSE event until the
// record is complete or the attempts run out.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	pageURL := r.URL.Query().Get("url")
	if err := validate.Var(pageURL, "required,url"); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "url must be an absolute URL")
		return
	}
	browser := r.URL.Query().Get("browser") == "true"

	opts := *s.watch
	opts.Scrape = s.requestOptions(r.URL.Query().Get("trace") == "true").Scrape
	opts.MaxAttempts = parseQueryInt(r, "max_attempts", defaultWatchAttempts, maxWatchAttempts)
	if ms := parseQueryInt(r, "interval_ms", 0, 0); ms > 0 {
		opts.Interval = max(time.Duration(ms)*time.Millisecond, minWatchInterval)
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	src, closeSource, err := s.openSource(r.Context(), pageURL, browser)
	if err != nil {
		sse.WriteError(err.Error())
		return
	}
	defer closeSource()

	opts.OnRecord = func(attempt int, rec *scrape.JobRecord) {
		_ = sse.WriteEvent(EventAttempt, WatchEvent{
			Attempt:  attempt,
			Record:   rec,
			Missing:  rec.Missing(),
			Complete: rec.Complete(),
		})
	}

	rec, err := watch.Watch(r.Context(), src, pageURL, &opts)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			sse.WriteError(err.Error())
		}
		return
	}
	_ = sse.WriteEvent(EventComplete, WatchEvent{
		Record:   rec,
		Missing:  rec.Missing(),
		Complete: rec.Complete(),
	})
}

// handleListRecords lists stored records with optional platform filter and pagination
func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.errorResponse(w, HTTPStatus(ErrStoreUnavailable), ErrStoreUnavailable.Error())
		return
	}

	opts := store.ListOptions{
		Platform: scrape.Platform(r.URL.Query().Get("platform")),
		Limit:    parseQueryInt(r, "limit", store.DefaultListLimit, store.MaxListLimit),
		Offset:   parseQueryInt(r, "offset", 0, 0),
	}

	records, err := s.store.ListRecords(r.Context(), opts)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, ListRecordsResponse{
		Records: records,
		Count:   len(records),
		Limit:   opts.Limit,
		Offset:  opts.Offset,
	})
}

// handleGetRecordByURL retrieves a stored record by its URL
func (s *Server) handleGetRecordByURL(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.errorResponse(w, HTTPStatus(ErrStoreUnavailable), ErrStoreUnavailable.Error())
		return
	}
	url := r.URL.Query().Get("url")
	if url == "" {
		s.errorResponse(w, http.StatusBadRequest, "url query parameter is required")
		return
	}

	rec, err := s.store.GetRecordByURL(r.Context(), url)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if rec == nil {
		s.errorResponse(w, http.StatusNotFound, "Record not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, rec)
}

// handleDeleteRecordByURL removes a stored record
func (s *Server) handleDeleteRecordByURL(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.errorResponse(w, HTTPStatus(ErrStoreUnavailable), ErrStoreUnavailable.Error())
		return
	}
	url := r.URL.Query().Get("url")
	if url == "" {
		s.errorResponse(w, http.StatusBadRequest, "url query parameter is required")
		return
	}

	deleted, err := s.store.DeleteRecord(r.Context(), url)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if !deleted {
		s.errorResponse(w, http.StatusNotFound, "Record not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
