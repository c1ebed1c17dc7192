package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"clipvault/internal/config"
	domain "clipvault/internal/domain/video"
	"clipvault/internal/infrastructure/auth"
	"clipvault/internal/infrastructure/metrics"
	"clipvault/internal/interfaces/httpserver/responses"
	"clipvault/internal/utils/platformerrors"
)

// VideoHandler exposes video endpoints.
type VideoHandler struct {
	cfg     *config.Config
	service *domain.Service
	log     zerolog.Logger
}

func NewVideoHandler(cfg *config.Config, service *domain.Service, log zerolog.Logger) *VideoHandler {
	return &VideoHandler{
		cfg:     cfg,
		service: service,
		log:     log.With().Str("component", "video-handler").Logger(),
	}
}

type uploadResponse struct {
	ID           string `json:"id"`
	OriginalName string `json:"original_name"`
	Mime         string `json:"mime"`
	SizeBytes    int64  `json:"size_bytes"`
	StorageKey   string `json:"storage_key"`
	UploadedAt   string `json:"uploaded_at"`
}

type accessURLResponse struct {
	Target    string `json:"target"`
	URL       string `json:"url"`
	ExpiresIn int    `json:"expires_in"`
}

// Upload godoc
// @Summary      Upload a video
// @Description  Accepts a multipart video upload, transcodes it, and persists both artifact and metadata.
// @Tags         videos
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "Video file"
// @Success      201   {object}  uploadResponse
// @Failure      400   {object}  responses.ErrorResponse
// @Failure      422   {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/videos [post]
func (h *VideoHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	ownerID := c.GetString(auth.OwnerContextKey)
	if ownerID == "" {
		ownerID = c.Request.FormValue("owner_id")
	}

	record, err := h.service.Ingest(c.Request.Context(), domain.IngestInput{
		Body:         file,
		OriginalName: header.Filename,
		MimeType:     mimeType,
		SizeBytes:    header.Size,
		OwnerID:      ownerID,
	})
	if err != nil {
		// Validation rejections are the client's fault, not pipeline
		// failures; keep them out of the error rate.
		status := "error"
		if platformerrors.IsType(err, platformerrors.ErrorTypeValidation) {
			status = "rejected"
		}
		metrics.RecordIngest(status, 0)
		h.log.Error().Err(err).Str("filename", header.Filename).Msg("ingest failed")
		responses.HandleError(c, err, "ingest failed")
		return
	}

	metrics.RecordIngest("success", record.SizeBytes)
	c.JSON(http.StatusCreated, uploadResponse{
		ID:           record.ID,
		OriginalName: record.OriginalName,
		Mime:         record.MimeType,
		SizeBytes:    record.SizeBytes,
		StorageKey:   record.StorageKey,
		UploadedAt:   record.UploadedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	})
}

// List godoc
// @Summary      List videos
// @Description  Returns all video records, most recent first.
// @Tags         videos
// @Produce      json
// @Success      200  {array}  domain.Video
// @Security     BearerAuth
// @Router       /v1/videos [get]
func (h *VideoHandler) List(c *gin.Context) {
	records, err := h.service.List(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list failed")
		responses.HandleError(c, err, "list failed")
		return
	}
	c.JSON(http.StatusOK, records)
}

// Get godoc
// @Summary      Get video metadata
// @Tags         videos
// @Produce      json
// @Param        id   path      string  true  "Video ID (vid_xxx)"
// @Success      200  {object}  domain.Video
// @Failure      404  {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/videos/{id} [get]
func (h *VideoHandler) Get(c *gin.Context) {
	record, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "lookup failed")
		return
	}
	c.JSON(http.StatusOK, record)
}

// AccessURL godoc
// @Summary      Issue a signed read URL
// @Description  Returns a time-limited signed URL for a video id, valid for one hour.
// @Tags         videos
// @Produce      json
// @Param        id   path      string  true  "Video ID (vid_xxx)"
// @Success      200  {object}  accessURLResponse
// @Failure      404  {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/videos/{id}/url [get]
func (h *VideoHandler) AccessURL(c *gin.Context) {
	h.issueAccessURL(c, c.Param("id"))
}

// AccessURLByTarget godoc
// @Summary      Issue a signed read URL for an id or raw key
// @Description  Same contract as the per-id route but accepts raw-namespace object keys.
// @Tags         videos
// @Produce      json
// @Param        target  query     string  true  "Video ID or raw/ object key"
// @Success      200     {object}  accessURLResponse
// @Failure      404     {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/access-url [get]
func (h *VideoHandler) AccessURLByTarget(c *gin.Context) {
	h.issueAccessURL(c, c.Query("target"))
}

func (h *VideoHandler) issueAccessURL(c *gin.Context, target string) {
	url, err := h.service.IssueAccessURL(c.Request.Context(), target)
	if err != nil {
		h.log.Error().Err(err).Str("target", target).Msg("issue access url failed")
		responses.HandleError(c, err, "issue access url failed")
		return
	}
	c.JSON(http.StatusOK, accessURLResponse{
		Target:    target,
		URL:       url,
		ExpiresIn: int(h.cfg.SignedURLTTL.Seconds()),
	})
}

// Stream godoc
// @Summary      Stream video bytes
// @Description  Streams the processed object through the service without exposing storage URLs.
// @Tags         videos
// @Produce      octet-stream
// @Param        id   path      string  true  "Video ID"
// @Success      200  "binary data"
// @Failure      404  {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/videos/{id}/content [get]
func (h *VideoHandler) Stream(c *gin.Context) {
	reader, mime, err := h.service.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "download failed")
		return
	}
	defer reader.Close()

	if mime == "" {
		mime = "application/octet-stream"
	}

	c.Header("Content-Type", mime)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, reader); err != nil {
		h.log.Error().Err(err).Msg("stream error")
	}
}

// Delete godoc
// @Summary      Delete a video
// @Description  Removes the stored object first, then the metadata row.
// @Tags         videos
// @Produce      json
// @Param        id   path  string  true  "Video ID"
// @Success      204  "deleted"
// @Failure      404  {object}  responses.ErrorResponse
// @Security     BearerAuth
// @Router       /v1/videos/{id} [delete]
func (h *VideoHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		metrics.RecordDelete("error")
		h.log.Error().Err(err).Str("id", c.Param("id")).Msg("delete failed")
		responses.HandleError(c, err, "delete failed")
		return
	}
	metrics.RecordDelete("success")
	c.Status(http.StatusNoContent)
}
