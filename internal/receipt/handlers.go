package receipt

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
)

// setCORSHeaders sets standard CORS headers on the response.
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// handleIndex serves the interactive document view when a record is ready,
// otherwise the upload page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if s.service.State() == StateReady {
		record, err := s.service.Current()
		if err == nil {
			page, rerr := s.renderer.Screen(record)
			if rerr != nil {
				slog.Error("Failed to render document view", "error", rerr)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write(page)
			return
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(uploadPage())
}

// handleUploadReceipt accepts a multipart document upload and runs the full
// extraction workflow synchronously.
func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "Failed to parse upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, MaxUploadSize+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read upload")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = mime.TypeByExtension(filepath.Ext(header.Filename))
	}

	record, err := s.service.ProcessDocument(r.Context(), header.Filename, data, mimeType)
	if err != nil {
		switch {
		case errors.Is(err, ErrFileTooLarge), errors.Is(err, ErrUnsupportedType):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrSuperseded):
			writeError(w, http.StatusConflict, "Upload superseded by a newer document")
		default:
			writeError(w, http.StatusUnprocessableEntity, s.service.FailureMessage())
		}
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

// handleGetReceipt returns the current record as JSON.
func (s *Server) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	record, err := s.service.Current()
	if err != nil {
		writeError(w, http.StatusNotFound, "No receipt available")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// handleExportJSON returns the indented interchange form of the record.
func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	data, err := s.service.ExportJSON()
	if err != nil {
		writeError(w, http.StatusNotFound, "No receipt available")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

type dateEditRequest struct {
	Date string `json:"date"`
}

// handleEditDate applies a date edit to the current record.
func (s *Server) handleEditDate(w http.ResponseWriter, r *http.Request) {
	var req dateEditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	record, err := s.service.EditDate(req.Date)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidDate):
			writeError(w, http.StatusBadRequest, "Unrecognized date format")
		case errors.Is(err, ErrNoRecord):
			writeError(w, http.StatusConflict, "No receipt to edit")
		default:
			writeError(w, http.StatusInternalServerError, "Failed to apply edit")
		}
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// handleReset discards the current record and source document.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.service.Reset()
	w.WriteHeader(http.StatusNoContent)
}

// handleGetSource serves the originally uploaded document bytes.
func (s *Server) handleGetSource(w http.ResponseWriter, r *http.Request) {
	data, mimeType, err := s.service.Source()
	if err != nil {
		writeError(w, http.StatusNotFound, "No source document available")
		return
	}
	w.Header().Set("Content-Type", mimeType)
	w.Write(data)
}

type stateResponse struct {
	State   string `json:"state"`
	Message string `json:"message,omitempty"`
}

// handleState reports the workflow state for upload-page polling.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	resp := stateResponse{State: string(s.service.State())}
	if s.service.State() == StateFailed {
		resp.Message = s.service.FailureMessage()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleExportDocument serves the print-ready document.
func (s *Server) handleExportDocument(w http.ResponseWriter, r *http.Request) {
	if s.service.State() != StateReady {
		writeError(w, http.StatusConflict, "No completed receipt to export")
		return
	}

	record, err := s.service.Current()
	if err != nil {
		writeError(w, http.StatusConflict, "No completed receipt to export")
		return
	}

	page, err := s.renderer.Print(record)
	if err != nil {
		slog.Error("Failed to render print document", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}
