package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matiasleandrokruk/neoguard/internal/domain/generation"
)

const (
	maxGenerateBodyBytes = 1 << 20
	maxEditBodyBytes     = 64 << 20
	maxEditMemoryBytes   = 32 << 20
	editImagesField      = "images"
)

// GenerationService is the contract the handler needs from generation.Service.
type GenerationService interface {
	Generate(ctx context.Context, in generation.GenerateInput) (*generation.GenerationResult, error)
	EditImage(ctx context.Context, in generation.EditInput) (*generation.GenerationResult, error)
	ListModels() []generation.ProviderModels
	EditInfo() generation.EditInfo
	NewConversation() string
	History(conversationID string) ([]generation.Message, error)
	ClearConversation(conversationID string)
}

// GenerationHandler serves the /generation routes.
type GenerationHandler struct {
	service GenerationService
	logger  *slog.Logger
}

// NewGenerationHandler creates a new GenerationHandler instance.
func NewGenerationHandler(service GenerationService, logger *slog.Logger) *GenerationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GenerationHandler{service: service, logger: logger}
}

// GenerateRequest is the JSON body accepted by Generate. The same fields are
// accepted as form values.
type GenerateRequest struct {
	Prompt            string `json:"prompt"`
	Model             string `json:"model"`
	ConversationID    string `json:"conversation_id,omitempty"`
	UseSummaryContext bool   `json:"use_summary_context,omitempty"`
}

// GenerationResponse is the unified result for text, image and edit calls.
type GenerationResponse struct {
	Content       string `json:"content,omitempty"`
	ImageBase64   string `json:"imageBase64,omitempty"`
	ImageMIMEType string `json:"imageMimeType,omitempty"`
	ModelUsed     string `json:"modelUsed"`
	Provider      string `json:"provider"`
}

// ConversationResponse describes a conversation and its stored turns.
type ConversationResponse struct {
	ConversationID string               `json:"conversation_id"`
	Messages       []generation.Message `json:"messages"`
}

// Generate handles POST /api/v1/generation/{provider}
func (h *GenerationHandler) Generate(w http.ResponseWriter, r *http.Request) {
	provider, err := generation.ParseProvider(chi.URLParam(r, "provider"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxGenerateBodyBytes)
	req, err := decodeGenerateRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Model == "" {
		writeError(w, http.StatusBadRequest, "model is required")
		return
	}

	result, err := h.service.Generate(r.Context(), generation.GenerateInput{
		Provider:          provider,
		Model:             req.Model,
		Prompt:            req.Prompt,
		ConversationID:    req.ConversationID,
		UseSummaryContext: req.UseSummaryContext,
	})
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toGenerationResponse(result))
}

// EditImage handles POST /api/v1/generation/openai/edit
func (h *GenerationHandler) EditImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxEditBodyBytes)
	if err := r.ParseMultipartForm(maxEditMemoryBytes); err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart form with prompt, model and images")
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	model := r.FormValue("model")
	if model == "" {
		writeError(w, http.StatusBadRequest, "model is required")
		return
	}

	result, err := h.service.EditImage(r.Context(), generation.EditInput{
		Provider: generation.ProviderOpenAI,
		Model:    model,
		Prompt:   r.FormValue("prompt"),
		Images:   imageUploads(r.MultipartForm.File[editImagesField]),
	})
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, toGenerationResponse(result))
}

// ListModels handles GET /api/v1/generation/models
func (h *GenerationHandler) ListModels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.service.ListModels())
}

// EditInfo handles GET /api/v1/generation/edit-info
func (h *GenerationHandler) EditInfo(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.service.EditInfo())
}

// CreateConversation handles POST /api/v1/generation/conversations
func (h *GenerationHandler) CreateConversation(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusCreated, ConversationResponse{
		ConversationID: h.service.NewConversation(),
		Messages:       []generation.Message{},
	})
}

// GetConversation handles GET /api/v1/generation/conversations/{id}
func (h *GenerationHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	messages, err := h.service.History(id)
	if err != nil {
		writeServiceError(r.Context(), w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ConversationResponse{ConversationID: id, Messages: messages})
}

// DeleteConversation handles DELETE /api/v1/generation/conversations/{id}
func (h *GenerationHandler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	h.service.ClearConversation(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

// decodeGenerateRequest reads a JSON body or form values, by content type.
func decodeGenerateRequest(r *http.Request) (GenerateRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get(headerContentType))
	if mediaType == mimeJSON {
		var req GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return GenerateRequest{}, errors.New("invalid request body")
		}
		return req, nil
	}

	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxGenerateBodyBytes); err != nil {
			return GenerateRequest{}, errors.New("invalid form body")
		}
	} else if err := r.ParseForm(); err != nil {
		return GenerateRequest{}, errors.New("invalid form body")
	}

	req := GenerateRequest{
		Prompt:         r.FormValue("prompt"),
		Model:          r.FormValue("model"),
		ConversationID: r.FormValue("conversation_id"),
	}
	if raw := r.FormValue("use_summary_context"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return GenerateRequest{}, errors.New("use_summary_context must be a boolean")
		}
		req.UseSummaryContext = v
	}
	return req, nil
}

func imageUploads(files []*multipart.FileHeader) []generation.ImageUpload {
	uploads := make([]generation.ImageUpload, 0, len(files))
	for _, fh := range files {
		uploads = append(uploads, generation.ImageUpload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get(headerContentType),
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		})
	}
	return uploads
}

func toGenerationResponse(res *generation.GenerationResult) GenerationResponse {
	out := GenerationResponse{
		Content:   res.Content,
		ModelUsed: res.Model,
		Provider:  string(res.Provider),
	}
	if res.IsImage() {
		out.ImageBase64 = base64.StdEncoding.EncodeToString(res.Image)
		out.ImageMIMEType = res.ImageMIMEType
	}
	return out
}
