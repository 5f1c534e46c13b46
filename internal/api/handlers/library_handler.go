package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/docuflow-ai/docuflow/internal/services"
)

type LibraryHandler struct {
	library *services.LibraryService
}

func NewLibraryHandler(library *services.LibraryService) *LibraryHandler {
	return &LibraryHandler{library: library}
}

// LocalFiles returns the document-root folder tree.
func (h *LibraryHandler) LocalFiles(w http.ResponseWriter, r *http.Request) {
	tree, err := h.library.LocalFiles()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tree)
}

// DocumentData returns one stored document record by its root-relative path
// or bare filename.
func (h *LibraryHandler) DocumentData(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		http.Error(w, "missing document name", http.StatusBadRequest)
		return
	}

	data, err := h.library.DocumentData(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if data == nil {
		http.Error(w, "document not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

// PurgeDocument removes one document from every store. Unknown or invalid
// targets are treated as already gone.
func (h *LibraryHandler) PurgeDocument(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		http.Error(w, "missing document name", http.StatusBadRequest)
		return
	}

	if err := h.library.PurgeDocument(r.Context(), body.Name); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}

// PurgeFolder removes a whole folder from every store.
func (h *LibraryHandler) PurgeFolder(w http.ResponseWriter, r *http.Request) {
	folderName := chi.URLParam(r, "name")
	if folderName == "" {
		http.Error(w, "missing folder name", http.StatusBadRequest)
		return
	}

	if err := h.library.PurgeFolder(r.Context(), folderName); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]bool{"success": true})
}
