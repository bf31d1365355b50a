package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"docchat/internal/contextutil"
	"docchat/internal/service"
)

const (
	// maxUploadFiles caps the number of files in one upload request.
	maxUploadFiles = 10
	// multipartMemory is the part of a multipart body kept in memory; the rest spills to disk.
	multipartMemory = 32 << 20
	// multipartOverhead allows for boundaries and part headers on top of the file bytes.
	multipartOverhead = 1 << 20
)

// UploadHandler handles document uploads.
type UploadHandler struct {
	library        service.LibraryService
	maxUploadBytes int64
}

// NewUploadHandler creates a new UploadHandler. maxUploadBytes is the per-file
// limit; 0 disables the request body limit.
func NewUploadHandler(library service.LibraryService, maxUploadBytes int64) *UploadHandler {
	return &UploadHandler{
		library:        library,
		maxUploadBytes: maxUploadBytes,
	}
}

// ServeHTTP accepts multipart uploads in the "files" field and indexes them.
//
// swagger:route POST /upload uploadDocuments
//
// # Upload documents
//
// Accepts PDF, text, Markdown, DOCX and HTML files. Re-uploading a file with
// the same name replaces its previous chunks.
//
// ---
// consumes:
// - multipart/form-data
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Files processed; status is "success" or "partial"
//	'400':
//	  description: No files, or an unsupported file type
//	'413':
//	  description: A file exceeds the upload limit
//	'422':
//	  description: No file could be processed
func (h *UploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes*maxUploadFiles+multipartOverhead)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			handleServiceError(w, ctx, err, "")
			return
		}
		logger.WarnContext(ctx, "invalid multipart body", "error", err)
		writeError(w, http.StatusBadRequest, "No files uploaded")
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logger.WarnContext(ctx, "failed to remove multipart temp files", "error", err)
		}
	}()

	headers := r.MultipartForm.File["files"]
	if len(headers) > maxUploadFiles {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Too many files: at most %d per upload", maxUploadFiles))
		return
	}

	uploads, closeAll, err := openUploads(headers)
	defer closeAll()
	if err != nil {
		logger.ErrorContext(ctx, "failed to open uploaded file", "error", err)
		writeError(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}

	result, err := h.library.Upload(ctx, uploads)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to process upload")
		return
	}

	status := http.StatusOK
	if result.Status == "failed" {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(ctx, w, status, result)
}

// openUploads opens every multipart file. The returned func closes whatever was opened.
func openUploads(headers []*multipart.FileHeader) ([]service.Upload, func(), error) {
	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	uploads := make([]service.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, closeAll, fmt.Errorf("open %s: %w", fh.Filename, err)
		}
		opened = append(opened, f)
		uploads = append(uploads, service.Upload{Name: fh.Filename, Content: f})
	}
	return uploads, closeAll, nil
}
