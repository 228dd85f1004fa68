package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/matsen/artman/internal/article"
	"github.com/matsen/artman/internal/blob"
	"github.com/matsen/artman/internal/ingest"
)

// errorResponse is the body of every non-2xx JSON response.
type errorResponse struct {
	Error string `json:"error"`
}

// deleteResponse is the body of a successful delete.
type deleteResponse struct {
	Success bool `json:"success"`
	ingest.DeleteResult
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeFailure maps a coordinator error to a status code.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case article.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case article.IsNotFound(err), errors.Is(err, blob.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case article.IsDOINotFound(err):
		writeError(w, http.StatusNotFound, article.ErrDOINotFound.Error())
	case errors.Is(err, blob.ErrInvalidRef):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
	default:
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listHandler(w http.ResponseWriter, r *http.Request) {
	articles, err := s.articles.ListArticles(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if articles == nil {
		articles = []article.Article{}
	}
	writeJSON(w, http.StatusOK, articles)
}

func (s *Server) getHandler(w http.ResponseWriter, r *http.Request) {
	a, err := s.articles.GetArticle(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) createHandler(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	defer cleanupForm(r)

	up, err := readUpload(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	fields := article.Fields{
		Title:   r.FormValue("title"),
		Author:  r.FormValue("author"),
		Summary: r.FormValue("summary"),
		Notes:   r.FormValue("notes"),
		DOI:     r.FormValue("doi"),
	}

	a, err := s.articles.CreateArticle(r.Context(), fields, up)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) extractSummaryHandler(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	defer cleanupForm(r)

	up, err := readUpload(r)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	res, err := s.articles.ExtractSummary(r.Context(), up)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) fetchDOIHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DOI string `json:"doi"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeFailure(w, r, err)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	meta, err := s.articles.LookupDOI(r.Context(), req.DOI)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (s *Server) downloadHandler(w http.ResponseWriter, r *http.Request) {
	s.serveFile(w, r, "attachment")
}

func (s *Server) viewHandler(w http.ResponseWriter, r *http.Request) {
	s.serveFile(w, r, "inline")
}

func (s *Server) serveFile(w http.ResponseWriter, r *http.Request, disposition string) {
	ref := mux.Vars(r)["ref"]

	rc, err := s.articles.OpenFile(r.Context(), ref)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			writeError(w, http.StatusNotFound, "file not found")
			return
		}
		s.writeFailure(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", blob.ContentType(ref))
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, blob.DisplayName(ref)))
	if _, err := io.Copy(w, rc); err != nil {
		s.logger.WarnContext(r.Context(), "streaming file", "ref", ref, "error", err)
	}
}

func (s *Server) deleteHandler(w http.ResponseWriter, r *http.Request) {
	res, err := s.articles.DeleteArticle(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{Success: true, DeleteResult: res})
}

// parseForm parses multipart bodies and falls back to url-encoded forms.
// Malformed bodies are reported as validation errors.
func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(multipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err == nil {
		return nil
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return &article.ValidationError{Field: "form", Message: err.Error()}
}

func cleanupForm(r *http.Request) {
	if r.MultipartForm != nil {
		r.MultipartForm.RemoveAll()
	}
}

// readUpload returns the "file" part of the form, or nil when none was sent.
func readUpload(r *http.Request) (*ingest.Upload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	f, hdr, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	return &ingest.Upload{Name: strings.TrimSpace(hdr.Filename), Data: data}, nil
}
