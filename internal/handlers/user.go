package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/akorchagin/vidstream/internal/apperrors"
	"github.com/akorchagin/vidstream/internal/handlers/render"
	"github.com/akorchagin/vidstream/internal/handlers/userctx"
	"github.com/akorchagin/vidstream/internal/logger"
	"github.com/akorchagin/vidstream/internal/models"
	"github.com/akorchagin/vidstream/internal/service/user"
)

// UserHandler serves the profile endpoints: plain record mutation and read
// composition on top of an already authenticated caller.
type UserHandler struct {
	profiles *user.ProfileService
	log      logger.Logger
}

func NewUser(profiles *user.ProfileService, log logger.Logger) *UserHandler {
	return &UserHandler{profiles: profiles, log: log}
}

func (h *UserHandler) updateAccount(w http.ResponseWriter, r *http.Request) {
	type updateAccountRequest struct {
		FullName string `json:"fullName" validate:"required"`
		Email    string `json:"email" validate:"required,email"`
	}

	data, err := render.BindAndValidate[updateAccountRequest](w, r)
	if err != nil {
		return
	}

	u, _ := userctx.FromContext(r.Context())

	updated, err := h.profiles.UpdateAccountDetails(r.Context(), u.ID, data.FullName, data.Email)
	if err != nil {
		render.Error(w, err)
		return
	}

	render.JSON(w, http.StatusOK, updated.Public(), "Account details updated successfully")
}

func (h *UserHandler) updateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", "Avatar image is required", "Avatar updated successfully", h.profiles.UpdateAvatar)
}

func (h *UserHandler) updateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage", "Cover image is required", "Cover image updated successfully", h.profiles.UpdateCoverImage)
}

func (h *UserHandler) updateImage(
	w http.ResponseWriter,
	r *http.Request,
	field string,
	missingMsg string,
	successMsg string,
	update func(ctx context.Context, userID uuid.UUID, localPath string) (models.User, error),
) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		render.Error(w, apperrors.Validation("Invalid multipart form"))
		return
	}

	path, err := saveUploadedFile(r, field)
	if err != nil {
		h.log.Error("saving image upload failed", "error", err.Error())
		render.Error(w, apperrors.ServerWrap(err, "Error in uploading image"))
		return
	}
	if path == "" {
		render.Error(w, apperrors.Validation(missingMsg))
		return
	}

	u, _ := userctx.FromContext(r.Context())

	updated, err := update(r.Context(), u.ID, path)
	if err != nil {
		render.Error(w, err)
		return
	}

	render.JSON(w, http.StatusOK, updated.Public(), successMsg)
}

func (h *UserHandler) channelProfile(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	viewer, _ := userctx.FromContext(r.Context())

	profile, err := h.profiles.GetChannelProfile(r.Context(), username, viewer.ID)
	if err != nil {
		render.Error(w, err)
		return
	}

	render.JSON(w, http.StatusOK, profile, "User channel profile fetched successfully")
}
