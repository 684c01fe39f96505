package trip

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/zombor/trip-planner/internal/itinerary"
)

// maxFormSize bounds a whole upload, high-resolution phone photos included
const maxFormSize = int64(50 << 20)

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// jsonError writes a JSON error body with CORS headers set
func jsonError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// handleListTrips returns a list of all trips
func (s *Server) handleListTrips(w http.ResponseWriter, r *http.Request) {
	trips, err := s.service.ListTrips()
	if err != nil {
		slog.Error("Error listing trips", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, trips)
}

// handleCreateTrip creates an empty trip
func (s *Server) handleCreateTrip(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	trip, err := s.service.CreateTrip(req.Name)
	if err != nil {
		if errors.Is(err, ErrInvalidTrip) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("Error creating trip", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, trip)
}

// handleGetTrip returns a single trip
func (s *Server) handleGetTrip(w http.ResponseWriter, r *http.Request) {
	trip, err := s.service.GetTrip(r.PathValue("id"))
	if err != nil {
		corsError(w, "Trip not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

// handleDeleteTrip deletes a trip
func (s *Server) handleDeleteTrip(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteTrip(r.PathValue("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			corsError(w, "Trip not found", http.StatusNotFound)
			return
		}
		slog.Error("Error deleting trip", "error", err)
		corsError(w, "Error deleting trip", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetDocument returns an uploaded original
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.service.GetDocument(r.PathValue("id"), r.PathValue("name"))
	if err != nil {
		corsError(w, "Document not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleAnalyzeDocuments analyzes uploaded documents into the trip's
// itinerary. The dates query parameter decides date conflicts.
func (s *Server) handleAnalyzeDocuments(w http.ResponseWriter, r *http.Request) {
	var resolver itinerary.ConflictResolver
	switch r.URL.Query().Get("dates") {
	case "accept":
		resolver = itinerary.AcceptAll
	case "decline", "":
		resolver = itinerary.DeclineAll
	default:
		jsonError(w, "dates must be accept or decline", http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			errorMsg = "Upload is too large. Maximum size is 50MB."
		}
		jsonError(w, errorMsg, http.StatusBadRequest)
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["file"]
	}
	if len(headers) == 0 {
		jsonError(w, "No files were selected. Please choose documents to upload.", http.StatusBadRequest)
		return
	}

	files := make([]itinerary.File, 0, len(headers))
	for _, header := range headers {
		file, err := readUpload(header)
		if err != nil {
			slog.Error("Error reading file data", "error", err, "filename", header.Filename)
			jsonError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
			return
		}
		files = append(files, file)
	}

	trip, result, err := s.service.AnalyzeDocuments(r.Context(), r.PathValue("id"), files, resolver)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			corsError(w, "Trip not found", http.StatusNotFound)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			slog.Warn("Document analysis interrupted", "trip", r.PathValue("id"), "error", err)
			jsonError(w, "Analysis was interrupted", http.StatusServiceUnavailable)
		default:
			slog.Error("Error analyzing documents", "trip", r.PathValue("id"), "error", err)
			jsonError(w, "Error analyzing documents", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"trip":   trip,
		"result": result,
	})
}

func readUpload(header *multipart.FileHeader) (itinerary.File, error) {
	f, err := header.Open()
	if err != nil {
		return itinerary.File{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return itinerary.File{}, err
	}

	return itinerary.File{
		Name:        header.Filename,
		ContentType: detectContentType(header.Filename, header.Header.Get("Content-Type"), data),
		Data:        data,
	}, nil
}

// detectContentType prefers the declared type, then the extension, then
// sniffing. Generic binary types are ignored so that images sent as
// application/octet-stream still reach the multimodal parser.
func detectContentType(filename, declared string, data []byte) string {
	contentType := strings.ToLower(strings.TrimSpace(declared))
	if contentType != "" && contentType != "application/octet-stream" {
		return contentType
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	case ".html", ".htm":
		return "text/html"
	case ".txt", ".eml":
		return "text/plain"
	}

	sniffed, _, _ := strings.Cut(http.DetectContentType(data), ";")
	return sniffed
}
