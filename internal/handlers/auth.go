package handlers

import (
	"errors"
	"net/http"

	"github.com/akorchagin/vidstream/internal/apperrors"
	"github.com/akorchagin/vidstream/internal/handlers/render"
	"github.com/akorchagin/vidstream/internal/handlers/userctx"
	"github.com/akorchagin/vidstream/internal/logger"
	"github.com/akorchagin/vidstream/internal/models"
	"github.com/akorchagin/vidstream/internal/service/auth"
)

// AuthHandler serves the session lifecycle endpoints.
type AuthHandler struct {
	sessions *auth.SessionService
	media    mediaStore
	log      logger.Logger
}

func NewAuth(sessions *auth.SessionService, media mediaStore, log logger.Logger) *AuthHandler {
	return &AuthHandler{sessions: sessions, media: media, log: log}
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		render.Error(w, apperrors.Validation("Invalid multipart form"))
		return
	}

	avatarPath, err := saveUploadedFile(r, "avatar")
	if err != nil {
		h.log.Error("saving avatar upload failed", "error", err.Error())
		render.Error(w, apperrors.ServerWrap(err, "Error in uploading avatar image"))
		return
	}
	if avatarPath == "" {
		render.Error(w, apperrors.Validation("Avatar image is required"))
		return
	}

	avatarURL, err := h.media.Upload(r.Context(), avatarPath)
	if err != nil {
		h.log.Error("avatar upload failed", "error", err.Error())
		render.Error(w, apperrors.ServerWrap(err, "Error in uploading avatar image"))
		return
	}

	// Cover image is optional and its upload failure is not fatal
	var coverURL string
	if coverPath, err := saveUploadedFile(r, "coverImage"); err == nil && coverPath != "" {
		coverURL, err = h.media.Upload(r.Context(), coverPath)
		if err != nil {
			h.log.Warn("cover image upload failed", "error", err.Error())
		}
	}

	user, err := h.sessions.Register(r.Context(), auth.RegisterParams{
		FullName:      r.FormValue("fullName"),
		Email:         r.FormValue("email"),
		Username:      r.FormValue("username"),
		Password:      r.FormValue("password"),
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
	})
	if err != nil {
		h.renderError(w, err, "registration failed")
		return
	}

	render.JSON(w, http.StatusCreated, user.Public(), "User registered successfully")
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	type loginRequest struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password" validate:"required"`
	}
	type loginResponse struct {
		User         models.PublicUser `json:"user"`
		AccessToken  string            `json:"accessToken"`
		RefreshToken string            `json:"refreshToken"`
	}

	data, err := render.BindAndValidate[loginRequest](w, r)
	if err != nil {
		return
	}

	login := data.Username
	if login == "" {
		login = data.Email
	}

	user, pair, err := h.sessions.Login(r.Context(), login, data.Password)
	if err != nil {
		h.renderError(w, err, "login failed")
		return
	}

	h.sessions.SetTokenPair(w, pair)
	render.JSON(w, http.StatusOK, loginResponse{
		User:         user.Public(),
		AccessToken:  pair.Access.Value,
		RefreshToken: pair.Refresh.Value,
	}, "User logged in successfully")
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	user, _ := userctx.FromContext(r.Context())

	if err := h.sessions.Logout(r.Context(), user.ID); err != nil {
		h.renderError(w, err, "logout failed")
		return
	}

	h.sessions.ClearTokenPair(w)
	render.JSON(w, http.StatusOK, nil, "User logged out successfully")
}

func (h *AuthHandler) refresh(w http.ResponseWriter, r *http.Request) {
	type refreshResponse struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}

	incoming := h.sessions.RefreshFromRequest(r)

	pair, err := h.sessions.Refresh(r.Context(), incoming)
	if err != nil {
		h.renderError(w, err, "token refresh failed")
		return
	}

	h.sessions.SetTokenPair(w, pair)
	render.JSON(w, http.StatusOK, refreshResponse{
		AccessToken:  pair.Access.Value,
		RefreshToken: pair.Refresh.Value,
	}, "Access token refreshed successfully")
}

func (h *AuthHandler) changePassword(w http.ResponseWriter, r *http.Request) {
	type changePasswordRequest struct {
		OldPassword string `json:"oldPassword" validate:"required"`
		NewPassword string `json:"newPassword" validate:"required"`
	}

	data, err := render.BindAndValidate[changePasswordRequest](w, r)
	if err != nil {
		return
	}

	user, _ := userctx.FromContext(r.Context())

	if err := h.sessions.ChangePassword(r.Context(), user.ID, data.OldPassword, data.NewPassword); err != nil {
		h.renderError(w, err, "password change failed")
		return
	}

	render.JSON(w, http.StatusOK, nil, "Password changed successfully")
}

func (h *AuthHandler) currentUser(w http.ResponseWriter, r *http.Request) {
	user, _ := userctx.FromContext(r.Context())

	current, err := h.sessions.CurrentUser(r.Context(), user.ID)
	if err != nil {
		h.renderError(w, err, "current user lookup failed")
		return
	}

	render.JSON(w, http.StatusOK, current.Public(), "Current user fetched successfully")
}

// renderError logs untyped failures before the adapter turns them into 500s
func (h *AuthHandler) renderError(w http.ResponseWriter, err error, msg string) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) || appErr.Kind == apperrors.KindServer {
		h.log.Error(msg, "error", err.Error())
	}
	render.Error(w, err)
}
