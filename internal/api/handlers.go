package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/adrbook/internal/adr"
	"github.com/starford/adrbook/internal/adrservice"
	"github.com/starford/adrbook/internal/index"
)

// Handler holds API route handlers.
type Handler struct {
	svc *adrservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *adrservice.Service) *Handler {
	return &Handler{svc: svc}
}

// adrSlug extracts the full slug from the URL (everything after /api/adrs/).
// Supports encoded slashes from OpenAPI clients (e.g. billing%2F0001-db).
func adrSlug(r *http.Request) string {
	raw := strings.Trim(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// ListADRs handles GET /api/adrs.
//
//	@Summary		List ADRs with optional pagination and filtering
//	@Tags			adrs
//	@Produce		json
//	@Param			limit	query		int		false	"Page size"
//	@Param			offset	query		int		false	"Page offset"
//	@Param			status	query		string	false	"Filter by status"
//	@Param			package	query		string	false	"Filter by package"
//	@Param			sort	query		string	false	"Sort field"	Enums(date, -date, title, slug)
//	@Success		200		{object}	ADRListResponse
//	@Security		BearerAuth
//	@Router			/adrs [get]
func (h *Handler) ListADRs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.svc.ListADRs(r.Context(), index.ListQuery{
		Limit:   limit,
		Offset:  offset,
		Status:  q.Get("status"),
		Package: q.Get("package"),
		Sort:    q.Get("sort"),
	})
	if err != nil {
		writeError(w, "list adrs", err)
		return
	}
	writeJSON(w, http.StatusOK, ADRListResponse{ADRs: items, Total: total})
}

// GetADR handles GET /api/adrs/*.
//
//	@Summary		Get a single ADR by full slug
//	@Tags			adrs
//	@Produce		json
//	@Param			slug	path		string	true	"Full slug"
//	@Success		200		{object}	ADRDetail
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/adrs/{slug} [get]
func (h *Handler) GetADR(w http.ResponseWriter, r *http.Request) {
	s := adrSlug(r)
	if s == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("slug is required"))
		return
	}
	d, err := h.svc.GetADR(r.Context(), s)
	if err != nil {
		writeError(w, "get adr", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// CreateADR handles POST /api/adrs.
//
//	@Summary		Create a draft ADR from its scope template
//	@Tags			adrs
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateADRRequest	true	"ADR to create"
//	@Success		201		{object}	CreateADRResponse
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/adrs [post]
func (h *Handler) CreateADR(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CreateADRRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("title is required"))
		return
	}
	d, err := h.svc.CreateADR(r.Context(), req.Identifier, req.Title)
	if err != nil && !adr.IsPartial(err) {
		writeError(w, "create adr", err)
		return
	}
	resp := CreateADRResponse{ADRDetail: d}
	if err != nil {
		slog.Warn("create adr: render failed", slog.String("slug", d.ADR.Slug), slog.String("error", err.Error()))
		resp.Warning = err.Error()
	}
	writeJSON(w, http.StatusCreated, resp)
}

// GenerateSlug handles GET /api/slug.
//
//	@Summary		Preview the slug a new ADR would receive
//	@Tags			adrs
//	@Produce		json
//	@Param			title	query		string	true	"ADR title"
//	@Param			package	query		string	false	"Package scope"
//	@Success		200		{object}	SlugResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/slug [get]
func (h *Handler) GenerateSlug(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	title := q.Get("title")
	if strings.TrimSpace(title) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'title' is required"))
		return
	}
	s, err := h.svc.GenerateSlug(r.Context(), q.Get("package"), title)
	if err != nil {
		writeError(w, "generate slug", err)
		return
	}
	writeJSON(w, http.StatusOK, SlugResponse{Slug: s})
}

// Supersede handles POST /api/supersede.
//
//	@Summary		Mark an ADR as superseded by another
//	@Tags			adrs
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SupersedeRequest	true	"Relation"
//	@Success		200		{object}	SupersedeResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/supersede [post]
func (h *Handler) Supersede(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req SupersedeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Superseded == "" || req.Superseder == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("superseded and superseder are required"))
		return
	}
	err := h.svc.Supersede(r.Context(), req.Superseded, req.Superseder)
	if err != nil && !adr.IsPartial(err) {
		writeError(w, "supersede", err)
		return
	}
	var resp SupersedeResponse
	if err != nil {
		resp.Warning = err.Error()
	}
	if resp.Superseded, err = h.svc.GetADR(r.Context(), req.Superseded); err != nil {
		writeError(w, "supersede", err)
		return
	}
	if resp.Superseder, err = h.svc.GetADR(r.Context(), req.Superseder); err != nil {
		writeError(w, "supersede", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across ADRs
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Graph handles GET /api/graph.
//
//	@Summary		Get the supersede and wikilink graph
//	@Tags			graph
//	@Produce		json
//	@Success		200	{object}	GraphResponse
//	@Security		BearerAuth
//	@Router			/graph [get]
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	nodes, links, err := h.svc.Graph(r.Context())
	if err != nil {
		writeError(w, "graph", err)
		return
	}
	writeJSON(w, http.StatusOK, GraphResponse{Nodes: nodes, Links: links})
}
