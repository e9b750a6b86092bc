package api

import (
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"imagestore/internal/ingest"
	"imagestore/internal/models"

	"github.com/go-chi/chi/v5"
)

type UploadImageRequest struct {
	Content    string     `json:"content" validate:"required" example:"QUJD"`
	Extension  string     `json:"extension" validate:"required,max=17" example:"jpg"`
	ImageName  *string    `json:"image_name" validate:"omitempty,max=255" example:"holiday.jpg"`
	CreatedAt  *time.Time `json:"created_at"`
	ModifiedAt *time.Time `json:"modified_at"`
}

type UploadImageResponse struct {
	Hash string `json:"hash" example:"d1bd4f4e5f6a..."`
}

type ConflictResponse struct {
	Hash  string        `json:"hash"`
	Image *models.Image `json:"image"`
}

type HashesResponse struct {
	Hashes []string `json:"hashes"`
}

type ImageResponse struct {
	*models.Image
	Content string `json:"content" example:"QUJD"`
}

type DeleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// @Summary      Upload an image
// @Description  Stores base64 encoded image bytes for the caller. The content digest is the image id; uploading the same bytes twice returns 409 with the stored record.
// @Tags         images
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        uploadRequest  body      UploadImageRequest  true  "Image"
// @Success      201            {object}  UploadImageResponse
// @Failure      400            {string}  string "Invalid input"
// @Failure      401            {string}  string "Unauthorized"
// @Failure      409            {object}  ConflictResponse
// @Failure      413            {string}  string "Request body too large"
// @Failure      500            {string}  string "Internal Server Error"
// @Router       /img [post]
func (s *Server) UploadImageHandler(w http.ResponseWriter, r *http.Request) {
	owner := OwnerFromContext(r.Context())

	var req UploadImageRequest
	if !s.decodeBody(w, r, &req) {
		uploadsTotal.WithLabelValues(uploadRejected).Inc()
		return
	}

	res, err := s.service.Upload(r.Context(), owner, ingest.UploadRequest{
		Content:    req.Content,
		Extension:  req.Extension,
		ImageName:  req.ImageName,
		CreatedAt:  req.CreatedAt,
		ModifiedAt: req.ModifiedAt,
	})
	if err != nil {
		if errors.Is(err, ingest.ErrInvalidInput) {
			uploadsTotal.WithLabelValues(uploadRejected).Inc()
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		uploadsTotal.WithLabelValues(uploadFailed).Inc()
		s.serverError(w, r, "upload failed", err)
		return
	}

	if res.Duplicate {
		uploadsTotal.WithLabelValues(uploadDuplicate).Inc()
		writeJSON(w, http.StatusConflict, ConflictResponse{Hash: res.Image.Hash, Image: res.Image})
		return
	}

	uploadsTotal.WithLabelValues(uploadCreated).Inc()
	writeJSON(w, http.StatusCreated, UploadImageResponse{Hash: res.Image.Hash})
}

// @Summary      List image hashes
// @Description  Returns the hashes of the caller's images, newest first.
// @Tags         images
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  HashesResponse
// @Failure      401  {string}  string "Unauthorized"
// @Failure      500  {string}  string "Internal Server Error"
// @Router       /img/hashes [get]
func (s *Server) ListImageHashesHandler(w http.ResponseWriter, r *http.Request) {
	owner := OwnerFromContext(r.Context())

	hashes, err := s.service.ListHashes(r.Context(), owner)
	if err != nil {
		s.serverError(w, r, "failed to list images", err)
		return
	}

	writeJSON(w, http.StatusOK, HashesResponse{Hashes: hashes})
}

// @Summary      Get an image
// @Description  Returns the image record and its base64 encoded bytes. Images of other users are reported as not found.
// @Tags         images
// @Produce      json
// @Security     BearerAuth
// @Param        hash  path      string  true  "Content hash"
// @Success      200   {object}  ImageResponse
// @Failure      401   {string}  string "Unauthorized"
// @Failure      404   {string}  string "Image not found"
// @Failure      500   {string}  string "Internal Server Error"
// @Router       /img/{hash} [get]
func (s *Server) GetImageHandler(w http.ResponseWriter, r *http.Request) {
	owner := OwnerFromContext(r.Context())
	key := models.ImageKey{Hash: chi.URLParam(r, "hash"), Owner: owner}

	img, err := s.service.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, ingest.ErrImageNotFound) {
			http.Error(w, "Image not found", http.StatusNotFound)
			return
		}
		s.serverError(w, r, "failed to load image", err)
		return
	}

	writeJSON(w, http.StatusOK, ImageResponse{
		Image:   img.Image,
		Content: base64.StdEncoding.EncodeToString(img.Content),
	})
}

// @Summary      Delete an image
// @Description  Deletes the caller's image record. The stored bytes are removed once no user references them.
// @Tags         images
// @Produce      json
// @Security     BearerAuth
// @Param        hash  path      string  true  "Content hash"
// @Success      200   {object}  DeleteResponse
// @Failure      401   {string}  string "Unauthorized"
// @Failure      404   {object}  DeleteResponse
// @Failure      500   {string}  string "Internal Server Error"
// @Router       /img/{hash} [delete]
func (s *Server) DeleteImageHandler(w http.ResponseWriter, r *http.Request) {
	owner := OwnerFromContext(r.Context())
	key := models.ImageKey{Hash: chi.URLParam(r, "hash"), Owner: owner}

	err := s.service.Delete(r.Context(), key)
	if err != nil {
		if errors.Is(err, ingest.ErrImageNotFound) {
			writeJSON(w, http.StatusNotFound, DeleteResponse{Success: false, Message: "Image not found"})
			return
		}
		s.serverError(w, r, "failed to delete image", err)
		return
	}

	writeJSON(w, http.StatusOK, DeleteResponse{Success: true, Message: "Image deleted"})
}
