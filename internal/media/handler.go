package media

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/kadikoy/service/internal/middleware"
	"github.com/kadikoy/service/internal/response"
)

// Handler holds HTTP handlers for gallery objects and media records.
type Handler struct {
	registry *Registry
	maxBytes int64
	log      zerolog.Logger
}

// NewHandler creates a new media Handler. maxBytes caps gallery upload bodies.
func NewHandler(registry *Registry, maxBytes int64, log zerolog.Logger) *Handler {
	return &Handler{
		registry: registry,
		maxBytes: maxBytes,
		log:      log.With().Str("component", "media-handler").Logger(),
	}
}

type fileEntry struct {
	FileName string `json:"fileName" example:"01j9x4k1y7m3d2h8r5t6v9w0qz.jpg"`
	FileURL  string `json:"fileUrl"  example:"https://kadikoy-media.s3.eu-north-1.amazonaws.com/gallery/01j9x4k1y7m3d2h8r5t6v9w0qz.jpg"`
}

type listData struct {
	Folder string      `json:"folder" example:"gallery/"`
	Count  int         `json:"count"  example:"1"`
	Files  []fileEntry `json:"files"`
}

type uploadData struct {
	FileName      string    `json:"fileName"`
	FileURL       string    `json:"fileUrl"`
	FileSizeBytes int64     `json:"fileSizeBytes"`
	ContentType   string    `json:"contentType"`
	UploadedAt    time.Time `json:"uploadedAt"`
	UploadedBy    string    `json:"uploadedBy"`
}

type deleteData struct {
	FileName  string    `json:"fileName"`
	DeletedAt time.Time `json:"deletedAt"`
	DeletedBy string    `json:"deletedBy"`
}

// folder returns the ?folder= query value or the gallery folder.
func (h *Handler) folder(r *http.Request) string {
	if f := r.URL.Query().Get("folder"); f != "" {
		return f
	}
	return h.registry.Namer().GalleryFolder()
}

// List godoc
//
//	@Summary		List files
//	@Description	Lists the objects stored in a folder. Defaults to the gallery folder.
//	@Tags			media
//	@Produce		json
//	@Param			folder	query		string	false	"Folder prefix, e.g. gallery/"
//	@Success		200		{object}	response.Envelope{data=listData}
//	@Failure		400		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/media [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	folder := h.folder(r)
	objs, err := h.registry.List(r.Context(), folder)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}

	files := make([]fileEntry, 0, len(objs))
	for _, o := range objs {
		files = append(files, fileEntry{FileName: o.Name, FileURL: o.URL})
	}
	response.OK(w, listData{Folder: folder, Count: len(files), Files: files})
}

// Get godoc
//
//	@Summary		Get file URL
//	@Description	Returns the public URL of a file. The store is not contacted.
//	@Tags			media
//	@Produce		json
//	@Param			fileName	path		string	true	"File name"
//	@Param			folder		query		string	false	"Folder prefix"
//	@Success		200			{object}	response.Envelope{data=fileEntry}
//	@Failure		400			{object}	response.Envelope
//	@Router			/media/{fileName} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "fileName")
	url, err := h.registry.URL(h.folder(r), name)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.OK(w, fileEntry{FileName: name, FileURL: url})
}

// Upload godoc
//
//	@Summary		Upload gallery photo
//	@Description	Uploads one file to the gallery. Admin or PhotoUploader only.
//	@Tags			media
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			file	formData	file	true	"Image file"
//	@Param			folder	formData	string	false	"Target folder, only the gallery folder is accepted"
//	@Success		201		{object}	response.Envelope{data=uploadData}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		403		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/media/upload [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	up, err := ReadUpload(w, r, "file", h.maxBytes)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	defer up.Close()

	domain, err := h.registry.LooseDomain(up.Value("folder"))
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}

	user := middleware.Username(r.Context())
	h.log.Info().Str("user", user).Str("file", up.File.Name).Msg("gallery upload")

	obj, err := h.registry.Upload(r.Context(), domain, "", up.File)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}

	response.Created(w, uploadData{
		FileName:      obj.Name,
		FileURL:       obj.URL,
		FileSizeBytes: obj.Size,
		ContentType:   obj.ContentType,
		UploadedAt:    obj.UploadedAt,
		UploadedBy:    user,
	})
}

// Delete godoc
//
//	@Summary		Delete file
//	@Description	Deletes a gallery file. Deleting a missing file succeeds. News and sponsor files are removed through /media-records.
//	@Tags			media
//	@Produce		json
//	@Security		BearerAuth
//	@Param			fileName	path		string	true	"File name"
//	@Param			folder		query		string	false	"Folder prefix"
//	@Success		200			{object}	response.Envelope{data=deleteData}
//	@Failure		400			{object}	response.Envelope
//	@Failure		401			{object}	response.Envelope
//	@Failure		403			{object}	response.Envelope
//	@Failure		500			{object}	response.Envelope
//	@Router			/media/{fileName} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "fileName")
	if err := h.registry.Remove(r.Context(), h.folder(r), name); err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.OK(w, deleteData{
		FileName:  name,
		DeletedAt: time.Now().UTC(),
		DeletedBy: middleware.Username(r.Context()),
	})
}

// DeleteRecord godoc
//
//	@Summary		Delete media record
//	@Description	Detaches a media record from its news article or sponsor and deletes the file.
//	@Tags			media
//	@Produce		json
//	@Security		BearerAuth
//	@Param			mediaId	path		int	true	"Media record ID"
//	@Success		200		{object}	response.Envelope
//	@Failure		400		{object}	response.Envelope
//	@Failure		404		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/media-records/{mediaId} [delete]
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "mediaId"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "invalid media id")
		return
	}
	if err := h.registry.Detach(r.Context(), id); err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.OK(w, map[string]interface{}{"id": id, "deleted": true})
}
