package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/benvon/levelup-ai/internal/models"
	"github.com/benvon/levelup-ai/internal/request"
	"github.com/benvon/levelup-ai/internal/validation"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// formOverhead is the multipart slack allowed on top of the file size limit
const formOverhead = 1 << 20

// Processor runs generation requests
type Processor interface {
	ProcessText(ctx context.Context, req models.GenerationRequest) (*models.GenerationResult, error)
	ProcessAudio(ctx context.Context, req models.GenerationRequest) (*models.GenerationResult, error)
	ProcessImage(ctx context.Context, req models.GenerationRequest) (*models.GenerationResult, error)
}

// AIHandler handles the /api/ai endpoints
type AIHandler struct {
	processor      Processor
	dailyLimit     int
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewAIHandler creates a new AI handler
func NewAIHandler(processor Processor, dailyLimit int, maxUploadBytes int64, logger *zap.Logger) *AIHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AIHandler{
		processor:      processor,
		dailyLimit:     dailyLimit,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// RegisterRoutes registers AI routes on the given router
// The router should already have the /api/ai prefix
func (h *AIHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/process", h.ProcessText).Methods("POST")
	r.HandleFunc("/process-audio", h.ProcessAudio).Methods("POST")
	r.HandleFunc("/process-image", h.ProcessImage).Methods("POST")
}

// ProcessRequest is the body of POST /api/ai/process
type ProcessRequest struct {
	Mode              string `json:"mode" validate:"max=64"`
	Text              string `json:"text" validate:"max=100000"`
	UserID            string `json:"userId" validate:"max=128"`
	Format            string `json:"format" validate:"max=64"`
	DietaryConstraint string `json:"contrainte_alim" validate:"max=200"`
	Tone              string `json:"ton" validate:"max=64"`
}

// ProcessResponse is returned by all three processing endpoints
type ProcessResponse struct {
	Success       bool   `json:"success"`
	Transcription string `json:"transcription,omitempty"`
	Result        string `json:"result"`
	Usage         int    `json:"usage"`
}

// ProcessText handles typed input
func (h *AIHandler) ProcessText(w http.ResponseWriter, r *http.Request) {
	var req ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}
	if err := validation.Validate.Struct(req); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Validation Error", validation.FieldErrors(err))
		return
	}

	genReq := models.GenerationRequest{
		UserID: request.ResolveUserID(r, req.UserID),
		Mode:   req.Mode,
		Text:   validation.SanitizeText(req.Text),
		Params: models.ModeParams{
			Format:            req.Format,
			DietaryConstraint: req.DietaryConstraint,
			Tone:              req.Tone,
		},
	}
	h.finish(w, r, models.InputText, genReq, h.processor.ProcessText)
}

// ProcessAudio handles multipart audio uploads in the "audio" field
func (h *AIHandler) ProcessAudio(w http.ResponseWriter, r *http.Request) {
	genReq, err := h.parseUpload(w, r, "audio")
	if err != nil {
		respondError(w, err, h.dailyLimit)
		return
	}
	h.finish(w, r, models.InputAudio, genReq, h.processor.ProcessAudio)
}

// ProcessImage handles multipart image uploads in the "image" field
func (h *AIHandler) ProcessImage(w http.ResponseWriter, r *http.Request) {
	genReq, err := h.parseUpload(w, r, "image")
	if err != nil {
		respondError(w, err, h.dailyLimit)
		return
	}
	h.finish(w, r, models.InputImage, genReq, h.processor.ProcessImage)
}

type processFunc func(ctx context.Context, req models.GenerationRequest) (*models.GenerationResult, error)

func (h *AIHandler) finish(w http.ResponseWriter, r *http.Request, kind models.InputKind, req models.GenerationRequest, fn processFunc) {
	result, err := fn(r.Context(), req)
	if err != nil {
		status, _ := errorStatus(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("ai_request_failed",
				zap.String("input_kind", string(kind)),
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
		}
		respondError(w, err, h.dailyLimit)
		return
	}

	respondJSON(w, http.StatusOK, ProcessResponse{
		Success:       true,
		Transcription: result.Transcription,
		Result:        result.Result,
		Usage:         result.Usage,
	})
}

// parseUpload reads the multipart form. A missing file yields a request without media.
func (h *AIHandler) parseUpload(w http.ResponseWriter, r *http.Request, field string) (models.GenerationRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+formOverhead)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return models.GenerationRequest{}, fmt.Errorf("%w: limit is %d bytes", models.ErrPayloadTooLarge, h.maxUploadBytes)
		}
		return models.GenerationRequest{}, fmt.Errorf("%w: invalid multipart form", models.ErrMissingPayload)
	}

	req := models.GenerationRequest{
		UserID: request.ResolveUserID(r, r.FormValue("userId")),
		Mode:   r.FormValue("mode"),
		Params: models.ModeParams{
			Format:            r.FormValue("format"),
			DietaryConstraint: r.FormValue("contrainte_alim"),
			Tone:              r.FormValue("ton"),
		},
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return req, nil
		}
		return req, fmt.Errorf("%w: %v", models.ErrMissingPayload, err)
	}
	defer file.Close()

	media, err := h.readMedia(file, header)
	if err != nil {
		return req, err
	}
	req.Media = media
	return req, nil
}

func (h *AIHandler) readMedia(file multipart.File, header *multipart.FileHeader) (*models.InlineMedia, error) {
	if header.Size > h.maxUploadBytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", models.ErrPayloadTooLarge, h.maxUploadBytes)
	}
	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read upload: %v", models.ErrMissingPayload, err)
	}
	if int64(len(data)) > h.maxUploadBytes {
		return nil, fmt.Errorf("%w: limit is %d bytes", models.ErrPayloadTooLarge, h.maxUploadBytes)
	}
	if len(data) == 0 {
		return nil, nil
	}

	return &models.InlineMedia{
		MIMEType: detectMIME(header.Header.Get("Content-Type"), data),
		Data:     data,
		Filename: header.Filename,
	}, nil
}

// detectMIME trusts the part's declared type unless it is missing or generic
func detectMIME(declared string, data []byte) string {
	if mediaType, _, err := mime.ParseMediaType(declared); err == nil && mediaType != "application/octet-stream" {
		return mediaType
	}
	detected := mimetype.Detect(data).String()
	if mediaType, _, err := mime.ParseMediaType(detected); err == nil {
		return mediaType
	}
	return detected
}
