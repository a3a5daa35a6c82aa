package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/kadikoy/service/internal/middleware"
	"github.com/kadikoy/service/internal/response"
)

// Handler holds HTTP handlers for auth endpoints.
type Handler struct {
	svc *Service
	log zerolog.Logger
}

// NewHandler creates a new auth Handler.
func NewHandler(svc *Service, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, log: log.With().Str("component", "auth-handler").Logger()}
}

type loginRequest struct {
	Username string `json:"username" example:"admin"`
	Password string `json:"password" example:"Admin123!"`
}

type loginData struct {
	Token     string   `json:"token"     example:"eyJhbGci..."`
	ExpiresAt string   `json:"expiresAt" example:"2026-10-17T09:00:00Z"`
	Username  string   `json:"username"  example:"admin"`
	Email     string   `json:"email"     example:"admin@kadikoy.local"`
	Roles     []string `json:"roles"`
}

type meData struct {
	UserID   int64    `json:"userId"   example:"1"`
	Username string   `json:"username" example:"admin"`
	Email    string   `json:"email"    example:"admin@kadikoy.local"`
	FullName *string  `json:"fullName"`
	Roles    []string `json:"roles"`
}

func decodeLogin(r *http.Request) (loginRequest, bool) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, false
	}
	req.Username = strings.TrimSpace(req.Username)
	return req, req.Username != "" && req.Password != ""
}

// Login godoc
//
//	@Summary		Log in
//	@Description	Exchange a username and password for a bearer token.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		loginRequest	true	"Credentials"
//	@Success		200		{object}	response.Envelope{data=loginData}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeLogin(r)
	if !ok {
		response.BadRequest(w, "username and password are required")
		return
	}
	res, err := h.svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.OK(w, toLoginData(res))
}

// AdminLogin godoc
//
//	@Summary		Admin panel log in
//	@Description	Same as /auth/login but only succeeds for accounts with the Admin role.
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Param			request	body		loginRequest	true	"Credentials"
//	@Success		200		{object}	response.Envelope{data=loginData}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		403		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/admin/login [post]
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeLogin(r)
	if !ok {
		response.BadRequest(w, "username and password are required")
		return
	}
	res, err := h.svc.AdminLogin(r.Context(), req.Username, req.Password)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.OK(w, toLoginData(res))
}

// Me godoc
//
//	@Summary		Current admin
//	@Description	Returns the account the bearer token was issued for.
//	@Tags			admin
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	response.Envelope{data=meData}
//	@Failure		401	{object}	response.Envelope
//	@Failure		403	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Router			/admin/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id := middleware.IdentityFrom(r.Context())
	if id == nil {
		response.Unauthorized(w, "authentication required")
		return
	}
	u, err := h.svc.Account(r.Context(), id.UserID)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	response.OK(w, meData{
		UserID:   u.ID,
		Username: u.Username,
		Email:    u.Email,
		FullName: u.FullName,
		Roles:    u.Roles,
	})
}

func toLoginData(res *LoginResult) loginData {
	return loginData{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		Username:  res.Username,
		Email:     res.Email,
		Roles:     res.Roles,
	}
}
