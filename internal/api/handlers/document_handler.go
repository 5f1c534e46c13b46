package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/docuflow-ai/docuflow/internal/services"
)

type DocumentHandler struct {
	ingest *services.IngestService
}

func NewDocumentHandler(ingest *services.IngestService) *DocumentHandler {
	return &DocumentHandler{ingest: ingest}
}

// UploadDocument stores an uploaded file, registers it and converts it in
// one request. Conversion failures come back as success=false with a
// reason, mirroring the converter contract.
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	r.ParseMultipartForm(32 << 20)

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "invalid file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, fmt.Sprintf("read upload: %v", err), http.StatusBadRequest)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	procCtx, cancel := context.WithTimeout(r.Context(), 15*time.Minute)
	defer cancel()

	res, record, err := h.ingest.UploadAndProcess(procCtx, header.Filename, contentType, data)
	if err != nil {
		log.Printf("upload of %s failed: %v", header.Filename, err)
		http.Error(w, fmt.Sprintf("upload failed: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"file":      record,
		"success":   res.Success,
		"reason":    res.Reason,
		"documents": res.Documents,
	})
}

// ProcessDocument re-runs conversion for an already-stored upload.
func (h *DocumentHandler) ProcessDocument(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ID == "" {
		http.Error(w, "missing file id", http.StatusBadRequest)
		return
	}

	procCtx, cancel := context.WithTimeout(r.Context(), 15*time.Minute)
	defer cancel()

	res, err := h.ingest.ProcessUpload(procCtx, body.ID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}
