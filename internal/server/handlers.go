package server

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/harina-project/harina/internal/category"
	"github.com/harina-project/harina/internal/scanning"
)

// processResponse is the envelope every processing endpoint answers with.
// fallbackUsed and keyType surface which credential tier served the
// request.
type processResponse struct {
	Success      bool   `json:"success"`
	Data         string `json:"data,omitempty"`
	Format       string `json:"format"`
	Model        string `json:"model"`
	Error        string `json:"error,omitempty"`
	FallbackUsed *bool  `json:"fallbackUsed,omitempty"`
	KeyType      string `json:"keyType,omitempty"`
}

type base64Request struct {
	ImageBase64  string `json:"image_base64"`
	Model        string `json:"model"`
	Format       string `json:"format"`
	Instructions string `json:"instructions"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleRoot describes the service.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Harina Receipt OCR API",
		"endpoints": map[string]string{
			"process":        "/process - process a receipt image (file upload)",
			"process_base64": "/process_base64 - process a receipt image (base64)",
			"health":         "/health - health check",
			"metrics":        "/metrics - prometheus metrics",
		},
	})
}

// handleHealth reports service status and the size of the current
// category snapshot.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snapshot := ""
	if s.categories != nil {
		snapshot = s.categories.Snapshot(r.Context())
	}
	categories, subcategories := category.Stats(snapshot)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "harina-api",
		"categories": map[string]int{
			"count":         categories,
			"subcategories": subcategories,
		},
	})
}

// handleRefreshCategories forces a database synchronization of the
// taxonomy.
func (s *Server) handleRefreshCategories(w http.ResponseWriter, r *http.Request) {
	if s.categories == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "category provider not configured"})
		return
	}
	snapshot, err := s.categories.Sync(r.Context())
	if err != nil {
		slog.Error("Category refresh failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not refresh categories"})
		return
	}
	categories, subcategories := category.Stats(snapshot)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"categories":    categories,
		"subcategories": subcategories,
	})
}

// handleProcess accepts a multipart upload with the receipt image.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	// 50MB cap handles high-resolution phone photos.
	maxFormSize := int64(50 << 20)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Error parsing form"})
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No file provided"})
		return
	}
	defer f.Close()

	model := r.FormValue("model")
	format := r.FormValue("format")
	instructions := r.FormValue("instructions")

	contentType := normalizeContentType(header.Header.Get("Content-Type"), header.Filename)
	if !strings.HasPrefix(contentType, "image/") && contentType != "application/pdf" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Upload an image or PDF file"})
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading upload", "error", err, "filename", header.Filename)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Error reading file"})
		return
	}

	s.process(w, r, scanning.Request{
		Image:        data,
		ContentType:  contentType,
		Model:        model,
		Format:       format,
		Instructions: instructions,
	})
}

// handleProcessBase64 accepts the receipt image as a base64 JSON field.
func (s *Server) handleProcessBase64(w http.ResponseWriter, r *http.Request) {
	var req base64Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid base64 data"})
		return
	}

	s.process(w, r, scanning.Request{
		Image:        data,
		Model:        req.Model,
		Format:       req.Format,
		Instructions: req.Instructions,
	})
}

// process runs the pipeline and writes the response envelope. Pipeline
// failures come back as a success=false envelope rather than a transport
// error; the caller decides how to surface them.
func (s *Server) process(w http.ResponseWriter, r *http.Request, req scanning.Request) {
	if req.Model == "" {
		req.Model = DefaultModel
	}
	if req.Format == "" {
		req.Format = scanning.FormatXML
	}
	if req.Format != scanning.FormatXML && req.Format != scanning.FormatCSV {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "format must be 'xml' or 'csv'"})
		return
	}
	if req.Instructions != "" {
		slog.Info("Received additional instructions", "instructions", strings.TrimSpace(req.Instructions))
	}

	result, err := s.processor.Process(r.Context(), req)
	if err != nil {
		slog.Error("Processing failed", "model", req.Model, "format", req.Format, "error", err)
		s.metrics.RecordFailure()
		writeJSON(w, http.StatusOK, processResponse{
			Success: false,
			Format:  req.Format,
			Model:   req.Model,
			Error:   err.Error(),
		})
		return
	}

	s.metrics.RecordSuccess(result.Format, result.KeyLabel, result.UsedFallback)
	writeJSON(w, http.StatusOK, processResponse{
		Success:      true,
		Data:         result.Data,
		Format:       result.Format,
		Model:        req.Model,
		FallbackUsed: &result.UsedFallback,
		KeyType:      result.KeyLabel,
	})
}

// normalizeContentType falls back to the file extension when the client
// sent no usable content type.
func normalizeContentType(contentType, filename string) string {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if contentType != "" && contentType != "application/octet-stream" {
		return contentType
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}
