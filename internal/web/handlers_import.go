package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/stockpilot/internal/core"
	"github.com/JonMunkholm/stockpilot/internal/logging"
)

var errNoFile = &core.ValidationError{Field: "file", Message: "no file uploaded"}

// bodyError turns a body read failure into a validation error, keeping the
// size limit distinguishable.
func bodyError(err error, limit int64) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
		return &core.ValidationError{Message: fmt.Sprintf("file too large: limit is %d bytes", limit)}
	}
	return &core.ValidationError{Message: "invalid request body: " + err.Error()}
}

// handleImport accepts either a multipart form with a CSV in the "file" field
// or a JSON array of product rows. The whole batch is committed or none of it.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var (
		result core.ImportResult
		err    error
	)
	switch mediaType {
	case "multipart/form-data":
		result, err = s.importMultipart(r, maxSize)
	case "application/json":
		var records []core.ImportRecord
		if decodeErr := json.NewDecoder(r.Body).Decode(&records); decodeErr != nil {
			err = bodyError(decodeErr, maxSize)
			break
		}
		result, err = s.service.ImportRecords(r.Context(), records)
	default:
		err = errNoFile
	}
	if err != nil {
		respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("import finished",
		"batch_id", result.BatchID,
		"added", result.Added,
		"skipped", result.Skipped,
	)
	writeJSON(w, result)
}

func (s *Server) importMultipart(r *http.Request, maxSize int64) (core.ImportResult, error) {
	if err := r.ParseMultipartForm(maxSize); err != nil {
		return core.ImportResult{}, bodyError(err, maxSize)
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("file")
	if err != nil {
		return core.ImportResult{}, errNoFile
	}
	defer file.Close()

	return s.service.ImportCSV(r.Context(), file)
}

// handleExport downloads every product as a CSV attachment.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.service.Export(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	filename := core.ExportFilename(time.Now())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		logging.FromContext(r.Context()).Warn("export write failed", "error", err)
	}
}
