package news

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/kadikoy/service/internal/media"
	"github.com/kadikoy/service/internal/middleware"
	"github.com/kadikoy/service/internal/paging"
	"github.com/kadikoy/service/internal/response"
	"github.com/kadikoy/service/internal/sport"
)

// Handler holds HTTP handlers for news endpoints.
type Handler struct {
	svc      *Service
	maxBytes int64
	log      zerolog.Logger
}

// NewHandler creates a new news Handler. maxBytes caps media upload bodies
// and should be the largest size any media policy accepts.
func NewHandler(svc *Service, maxBytes int64, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, maxBytes: maxBytes, log: log.With().Str("component", "news-handler").Logger()}
}

// List godoc
//
//	@Summary		List news
//	@Description	Paged news, newest first, with media files.
//	@Tags			news
//	@Produce		json
//	@Param			sportType	query		int		false	"0=All 1=Archery 2=Basketball 3=Volleyball"
//	@Param			newsType	query		int		false	"0=Info 1=ScoreUpdate 2=SpecialDay"
//	@Param			isActive	query		bool	false	"Active flag"
//	@Param			pageNumber	query		int		false	"Page number (default 1)"
//	@Param			pageSize	query		int		false	"Page size (default 10, max 100)"
//	@Success		200			{object}	response.Envelope{data=paging.Page[Article]}
//	@Failure		400			{object}	response.Envelope
//	@Failure		500			{object}	response.Envelope
//	@Router			/news [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f Filter
	if v := q.Get("sportType"); v != "" {
		n, err := strconv.Atoi(v)
		t, perr := sport.Parse(n)
		if err != nil || perr != nil {
			response.BadRequest(w, "invalid sportType")
			return
		}
		f.SportType = &t
	}
	if v := q.Get("newsType"); v != "" {
		n, err := strconv.Atoi(v)
		t := Type(n)
		if err != nil || !t.Valid() {
			response.BadRequest(w, "invalid newsType")
			return
		}
		f.NewsType = &t
	}
	if v := q.Get("isActive"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			response.BadRequest(w, "invalid isActive")
			return
		}
		f.IsActive = &b
	}

	page, err := h.svc.List(r.Context(), f, paging.FromQuery(q))
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.OK(w, page)
}

// Get godoc
//
//	@Summary		Get news
//	@Tags			news
//	@Produce		json
//	@Param			id	path		int	true	"News ID"
//	@Success		200	{object}	response.Envelope{data=Article}
//	@Failure		400	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Router			/news/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	a, err := h.svc.Get(r.Context(), id)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.OK(w, a)
}

// Create godoc
//
//	@Summary		Create news
//	@Tags			news
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		CreateInput	true	"News article"
//	@Success		201		{object}	response.Envelope{data=Article}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		403		{object}	response.Envelope
//	@Router			/news [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	a, err := h.svc.Create(r.Context(), in)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.Created(w, a)
}

// Update godoc
//
//	@Summary		Update news
//	@Description	Partial update. Omitted fields keep their values.
//	@Tags			news
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		int			true	"News ID"
//	@Param			request	body		UpdateInput	true	"Fields to change"
//	@Success		200		{object}	response.Envelope{data=Article}
//	@Failure		400		{object}	response.Envelope
//	@Failure		404		{object}	response.Envelope
//	@Router			/news/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	a, err := h.svc.Update(r.Context(), id, in)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.OK(w, a)
}

// Delete godoc
//
//	@Summary		Delete news
//	@Description	Deletes the article and all of its media files.
//	@Tags			news
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		int	true	"News ID"
//	@Success		200	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Router			/news/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.OK(w, map[string]interface{}{"id": id, "deleted": true})
}

// UploadMedia godoc
//
//	@Summary		Upload news media
//	@Description	Attaches a photo (mediaKind=0) or video (mediaKind=1) to an article.
//	@Tags			news
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id			path		int		true	"News ID"
//	@Param			file		formData	file	true	"Photo or video"
//	@Param			mediaKind	formData	int		false	"0=Photo 1=Video"
//	@Param			order		formData	int		false	"Display order"
//	@Success		201			{object}	response.Envelope{data=media.Record}
//	@Failure		400			{object}	response.Envelope
//	@Failure		404			{object}	response.Envelope
//	@Failure		500			{object}	response.Envelope
//	@Router			/news/{id}/media [post]
func (h *Handler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	up, err := media.ReadUpload(w, r, "file", h.maxBytes)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	defer up.Close()

	kind := media.KindPhoto
	if v := up.Value("mediaKind"); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			kind, err = media.ParseKind(n)
		}
		if err != nil {
			response.BadRequest(w, "mediaKind must be 0 (photo) or 1 (video)")
			return
		}
	}
	order := 0
	if v := up.Value("order"); v != "" {
		if order, err = strconv.Atoi(v); err != nil {
			response.BadRequest(w, "order must be an integer")
			return
		}
	}

	rec, err := h.svc.AttachMedia(r.Context(), id, MediaUpload{
		Kind:       kind,
		Order:      order,
		File:       up.File,
		UploadedBy: middleware.Username(r.Context()),
	})
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.Created(w, rec)
}

// PhotoStats godoc
//
//	@Summary		News photo statistics
//	@Tags			news
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	response.Envelope{data=PhotoStats}
//	@Failure		401	{object}	response.Envelope
//	@Failure		403	{object}	response.Envelope
//	@Router			/news/media/photo-stats [get]
func (h *Handler) PhotoStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.PhotoStats(r.Context())
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.OK(w, stats)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "invalid id")
		return 0, false
	}
	return id, true
}
