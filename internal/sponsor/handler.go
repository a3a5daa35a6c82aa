package sponsor

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

// Handler holds HTTP handlers for sponsor endpoints.
type Handler struct {
	svc      *Service
	maxBytes int64
	log      zerolog.Logger
}

// NewHandler creates a new sponsor Handler.
func NewHandler(svc *Service, maxBytes int64, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, maxBytes: maxBytes, log: log.With().Str("component", "sponsor-handler").Logger()}
}

// List godoc
//
//	@Summary		List sponsors
//	@Description	Paged sponsors, newest first.
//	@Tags			sponsors
//	@Produce		json
//	@Param			sportType	query		int		false	"0=All 1=Archery 2=Basketball 3=Volleyball"
//	@Param			placement	query		int		false	"0=Banner 1=Sidebar"
//	@Param			isActive	query		bool	false	"Active flag"
//	@Param			pageNumber	query		int		false	"Page number (default 1)"
//	@Param			pageSize	query		int		false	"Page size (default 10, max 100)"
//	@Success		200			{object}	response.Envelope{data=paging.Page[Sponsor]}
//	@Failure		400			{object}	response.Envelope
//	@Router			/sponsors [get]
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
	if v := q.Get("placement"); v != "" {
		n, err := strconv.Atoi(v)
		p := Placement(n)
		if err != nil || !p.Valid() {
			response.BadRequest(w, "invalid placement")
			return
		}
		f.Placement = &p
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
//	@Summary		Get sponsor
//	@Tags			sponsors
//	@Produce		json
//	@Param			id	path		int	true	"Sponsor ID"
//	@Success		200	{object}	response.Envelope{data=Sponsor}
//	@Failure		404	{object}	response.Envelope
//	@Router			/sponsors/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	sp, err := h.svc.Get(r.Context(), id)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.OK(w, sp)
}

// Create godoc
//
//	@Summary		Create sponsor
//	@Tags			sponsors
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		CreateInput	true	"Sponsor"
//	@Success		201		{object}	response.Envelope{data=Sponsor}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		403		{object}	response.Envelope
//	@Router			/sponsors [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	sp, err := h.svc.Create(r.Context(), in)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.Created(w, sp)
}

// Update godoc
//
//	@Summary		Update sponsor
//	@Description	Partial update. Omitted fields keep their values; blank image URLs are ignored.
//	@Tags			sponsors
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		int			true	"Sponsor ID"
//	@Param			request	body		UpdateInput	true	"Fields to change"
//	@Success		200		{object}	response.Envelope{data=Sponsor}
//	@Failure		400		{object}	response.Envelope
//	@Failure		404		{object}	response.Envelope
//	@Router			/sponsors/{id} [put]
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
	sp, err := h.svc.Update(r.Context(), id, in)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.OK(w, sp)
}

// Delete godoc
//
//	@Summary		Delete sponsor
//	@Description	Deletes the sponsor and all of its media files.
//	@Tags			sponsors
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		int	true	"Sponsor ID"
//	@Success		200	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Router			/sponsors/{id} [delete]
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
//	@Summary		Upload sponsor media
//	@Tags			sponsors
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id			path		int		true	"Sponsor ID"
//	@Param			file		formData	file	true	"Photo or video"
//	@Param			mediaKind	formData	int		false	"0=Photo 1=Video"
//	@Param			order		formData	int		false	"Display order"
//	@Success		201			{object}	response.Envelope{data=media.Record}
//	@Failure		400			{object}	response.Envelope
//	@Failure		404			{object}	response.Envelope
//	@Router			/sponsors/{id}/media [post]
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

	rec, err := h.svc.AttachMedia(r.Context(), id, kind, order, up.File, middleware.Username(r.Context()))
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.Created(w, rec)
}

// UploadPhoto godoc
//
//	@Summary		Upload sponsor photo
//	@Description	Uploads the sponsor photo and sets photoUrl.
//	@Tags			sponsors
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		int		true	"Sponsor ID"
//	@Param			file	formData	file	true	"Image file"
//	@Success		200		{object}	response.Envelope{data=Sponsor}
//	@Failure		400		{object}	response.Envelope
//	@Failure		404		{object}	response.Envelope
//	@Router			/sponsors/{id}/photo [post]
func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	h.setImage(w, r, ImagePhoto)
}

// UploadLogo godoc
//
//	@Summary		Upload sponsor logo
//	@Description	Uploads the sponsor logo and sets logoUrl.
//	@Tags			sponsors
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		int		true	"Sponsor ID"
//	@Param			file	formData	file	true	"Image file"
//	@Success		200		{object}	response.Envelope{data=Sponsor}
//	@Failure		400		{object}	response.Envelope
//	@Failure		404		{object}	response.Envelope
//	@Router			/sponsors/{id}/logo [post]
func (h *Handler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	h.setImage(w, r, ImageLogo)
}

func (h *Handler) setImage(w http.ResponseWriter, r *http.Request, img Image) {
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

	sp, err := h.svc.SetImage(r.Context(), id, img, up.File, middleware.Username(r.Context()))
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.OK(w, sp)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "invalid id")
		return 0, false
	}
	return id, true
}
