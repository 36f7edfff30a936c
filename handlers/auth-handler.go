package handlers

import (
	"errors"
	"net/http"

	"taskmanager/backend/apperrors"
	"taskmanager/backend/models"
	"taskmanager/backend/response"
	"taskmanager/backend/services"
	"taskmanager/backend/validation"
)

// multipartOverhead is allowed on top of the image limit for form framing.
const multipartOverhead = 1 << 20

type AuthHandler struct {
	auth          *services.AuthService
	uploads       *services.UploadService
	maxImageBytes int64
	resp          *response.Responder
}

func NewAuthHandler(auth *services.AuthService, uploads *services.UploadService, maxImageBytes int64, resp *response.Responder) *AuthHandler {
	return &AuthHandler{auth: auth, uploads: uploads, maxImageBytes: maxImageBytes, resp: resp}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input models.RegisterInput
	if err := decodeJSON(w, r, &input); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	if err := validation.Struct(input); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	result, err := h.auth.Register(r.Context(), input)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.Success(w, http.StatusCreated, "Register user successfully", result)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input models.LoginInput
	if err := decodeJSON(w, r, &input); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	if err := validation.Struct(input); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	result, err := h.auth.Login(r.Context(), input)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.Success(w, http.StatusOK, "Login successfully", result)
}

func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	profile, err := h.auth.GetProfile(r.Context(), caller)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.Success(w, http.StatusOK, "Get user profile successfully", profile)
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	caller, err := callerOf(r)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	var input models.UpdateProfileInput
	if err := decodeJSON(w, r, &input); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	if err := validation.Struct(input); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	result, err := h.auth.UpdateProfile(r.Context(), caller, input)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.Success(w, http.StatusOK, "Update user profile successfully", result)
}

// UploadImage takes the "image" field of a multipart form.
func (h *AuthHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxImageBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxImageBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.resp.Error(w, r, apperrors.NewValidation("File too large, the limit is %d bytes", h.maxImageBytes))
			return
		}
		h.resp.Error(w, r, apperrors.NewValidation("No file uploaded"))
		return
	}

	var img *services.UploadedImage
	file, header, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		h.resp.Error(w, r, apperrors.NewValidation("Invalid file upload: %v", err))
		return
	default:
		defer file.Close()
		img = &services.UploadedImage{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        file,
		}
	}

	url, err := h.uploads.UploadImage(r.Context(), img)
	if err != nil {
		h.resp.Error(w, r, err)
		return
	}
	h.resp.Success(w, http.StatusOK, "Upload image successfully", map[string]string{"imageUrl": url})
}
