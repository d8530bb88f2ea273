package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"propmarket-go/models"
)

// multipartOverhead leaves room for the form fields around the file part.
const multipartOverhead = 1 << 20

func (h *Handlers) UploadDocument(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.badRequest(w, "file is too large")
			return
		}
		h.badRequest(w, "Expected a multipart form with a file")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.badRequest(w, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		h.badRequest(w, "Failed to read file")
		return
	}

	propertyID := mux.Vars(r)["id"]
	doc, err := h.verification.AttachDocument(r.Context(), propertyID, userID, models.DocumentUpload{
		DocumentType: r.FormValue("documentType"),
		FileName:     header.Filename,
		Data:         data,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	h.logAudit(r, userID, "CREATE", "DOCUMENT", doc.ID, "Document uploaded: "+doc.DocumentType)
	respondJSON(w, http.StatusCreated, doc)
}

func (h *Handlers) ListDocuments(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	docs, err := h.verification.ListDocuments(r.Context(), mux.Vars(r)["id"], userID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, docs)
}

func (h *Handlers) DocumentURL(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	link, err := h.verification.DocumentURL(r.Context(), mux.Vars(r)["id"], userID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"url": link})
}

func (h *Handlers) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	if err := h.verification.RemoveDocument(r.Context(), id, userID); err != nil {
		h.handleError(w, r, err)
		return
	}
	h.logAudit(r, userID, "DELETE", "DOCUMENT", id, "Document removed")
	respondMessage(w, http.StatusOK, "Document deleted")
}

func (h *Handlers) RequestVerification(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	property, err := h.verification.RequestVerification(r.Context(), mux.Vars(r)["id"], userID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, property)
}

func (h *Handlers) StorageStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]bool{"configured": h.verification.StorageConfigured()})
}
