package handler

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"
	"tush00nka/bbbab_files/internal/model"
	"tush00nka/bbbab_files/internal/pkg/httputils"
	"tush00nka/bbbab_files/internal/service"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

//go:embed templates/index.html
var templatesFS embed.FS

var indexTemplate = template.Must(
	template.New("index.html").
		Funcs(template.FuncMap{
			"bytes": func(n int64) string { return humanize.Bytes(uint64(n)) },
			"join":  strings.Join,
		}).
		ParseFS(templatesFS, "templates/index.html"),
)

// multipart parts above this are spooled to disk by net/http
const multipartMemory = 8 << 20

var errUploadTooLarge = errors.New("upload exceeds size limit")

type FileHandlerOptions struct {
	MaxUploadBytes    int64
	AllowedExtensions []string
}

type FileHandler struct {
	fileService service.FileService
	opts        FileHandlerOptions
	log         *zap.Logger
}

func NewFileHandler(fileService service.FileService, opts FileHandlerOptions, log *zap.Logger) *FileHandler {
	return &FileHandler{
		fileService: fileService,
		opts:        opts,
		log:         log.Named("http.files"),
	}
}

func (h *FileHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/", h.index).Methods("GET")
	router.HandleFunc("/", h.uploadForm).Methods("POST")
	router.HandleFunc("/download/{fileName}", h.download).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/files", h.listFiles).Methods("GET", "OPTIONS")
	api.HandleFunc("/files", h.uploadFile).Methods("POST", "OPTIONS")
	api.HandleFunc("/files/{fileName}/url", h.downloadURL).Methods("GET", "OPTIONS")
}

type indexPage struct {
	Files   []model.FileRecord
	Allowed []string
	Accept  string
	MaxSize string
}

// @Summary Upload page
// @Description Upload form and the list of stored files
// @Tags files
// @Produce html
// @Success 200 {string} string
// @Failure 500 {string} string
// @Router / [get]
func (h *FileHandler) index(w http.ResponseWriter, r *http.Request) {
	files, err := h.fileService.List(r.Context())
	if err != nil {
		status, msg := h.errorStatus(err)
		httputils.ResponseText(w, status, msg)
		return
	}

	accept := make([]string, 0, len(h.opts.AllowedExtensions))
	for _, ext := range h.opts.AllowedExtensions {
		accept = append(accept, "."+ext)
	}

	page := indexPage{
		Files:   files,
		Allowed: h.opts.AllowedExtensions,
		Accept:  strings.Join(accept, ","),
		MaxSize: humanize.Bytes(uint64(h.opts.MaxUploadBytes)),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, page); err != nil {
		h.log.Error("failed to render index page", zap.Error(err))
	}
}

// uploadForm is the browser form target. Success redirects back to the page.
// @Summary Upload file from the form
// @Description Stores the file and redirects back to the upload page
// @Tags files
// @Accept mpfd
// @Produce plain
// @Param file formData file true "File to upload"
// @Success 302
// @Failure 400 {string} string
// @Failure 413 {string} string
// @Failure 415 {string} string
// @Failure 500 {string} string
// @Failure 502 {string} string
// @Router / [post]
func (h *FileHandler) uploadForm(w http.ResponseWriter, r *http.Request) {
	if _, err := h.upload(w, r); err != nil {
		status, msg := h.errorStatus(err)
		httputils.ResponseText(w, status, msg)
		return
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// @Summary Download file
// @Description Redirects to a freshly signed object store link
// @Tags files
// @Param fileName path string true "Stored file name"
// @Success 302
// @Failure 404 {string} string
// @Router /download/{fileName} [get]
func (h *FileHandler) download(w http.ResponseWriter, r *http.Request) {
	fileName := mux.Vars(r)["fileName"]

	url, err := h.fileService.DownloadURL(r.Context(), fileName)
	if err != nil {
		status, msg := h.errorStatus(err)
		httputils.ResponseText(w, status, msg)
		return
	}

	http.Redirect(w, r, url, http.StatusFound)
}

type FileResponse struct {
	FileName     string    `json:"file_name"`
	FileSize     int64     `json:"file_size"`
	UploadDate   time.Time `json:"upload_date"`
	S3URL        string    `json:"s3_url"`
	DownloadPath string    `json:"download_path"`
}

func toFileResponse(f model.FileRecord) FileResponse {
	return FileResponse{
		FileName:     f.FileName,
		FileSize:     f.FileSize,
		UploadDate:   f.UploadDate,
		S3URL:        f.S3URL,
		DownloadPath: "/download/" + f.FileName,
	}
}

// @Summary List files
// @Description Metadata of every uploaded file
// @Tags files
// @Produce json
// @Success 200 {array} FileResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/files [get]
func (h *FileHandler) listFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.fileService.List(r.Context())
	if err != nil {
		status, msg := h.errorStatus(err)
		httputils.ResponseError(w, status, msg)
		return
	}

	resp := make([]FileResponse, 0, len(files))
	for _, f := range files {
		resp = append(resp, toFileResponse(f))
	}

	httputils.ResponseJSON(w, http.StatusOK, resp)
}

// @Summary Upload file
// @Description Uploads a file to object storage and records its metadata
// @Tags files
// @Accept mpfd
// @Produce json
// @Param file formData file true "File to upload"
// @Success 201 {object} FileResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 413 {object} response.ErrorResponse
// @Failure 415 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Router /api/files [post]
func (h *FileHandler) uploadFile(w http.ResponseWriter, r *http.Request) {
	record, err := h.upload(w, r)
	if err != nil {
		status, msg := h.errorStatus(err)
		httputils.ResponseError(w, status, msg)
		return
	}

	httputils.ResponseJSON(w, http.StatusCreated, toFileResponse(*record))
}

type DownloadURLResponse struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expires_in"`
}

// @Summary Get download link
// @Description Mints a time limited GET link for a stored file
// @Tags files
// @Produce json
// @Param fileName path string true "Stored file name"
// @Success 200 {object} DownloadURLResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /api/files/{fileName}/url [get]
func (h *FileHandler) downloadURL(w http.ResponseWriter, r *http.Request) {
	fileName := mux.Vars(r)["fileName"]

	url, err := h.fileService.DownloadURL(r.Context(), fileName)
	if err != nil {
		status, msg := h.errorStatus(err)
		httputils.ResponseError(w, status, msg)
		return
	}

	httputils.ResponseJSON(w, http.StatusOK, DownloadURLResponse{
		URL:       url,
		ExpiresIn: int(h.fileService.LinkExpiry().Seconds()),
	})
}

// upload reads the "file" part of a multipart request and hands it to the
// service. A part sent with an empty filename lands in the form values, not
// in the files, which is how "no selected file" is told from "no file part".
func (h *FileHandler) upload(w http.ResponseWriter, r *http.Request) (*model.FileRecord, error) {
	if h.opts.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errUploadTooLarge
		}
		return nil, service.ErrNoFilePart
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		if _, ok := r.MultipartForm.Value["file"]; ok {
			return nil, service.ErrNoSelectedFile
		}
		return nil, service.ErrNoFilePart
	}
	defer file.Close()

	return h.fileService.Upload(r.Context(), service.UploadInput{
		Filename:    header.Filename,
		Content:     file,
		ContentType: header.Header.Get("Content-Type"),
	})
}

// errorStatus maps a service error to a status and a message safe to show.
// The full error is logged.
func (h *FileHandler) errorStatus(err error) (int, string) {
	status, msg := http.StatusInternalServerError, "Internal server error"

	switch {
	case errors.Is(err, service.ErrNoFilePart):
		status, msg = http.StatusBadRequest, "No file part"
	case errors.Is(err, service.ErrNoSelectedFile):
		status, msg = http.StatusBadRequest, "No selected file"
	case errors.Is(err, service.ErrUnsupportedFileType):
		status, msg = http.StatusUnsupportedMediaType, "File type not allowed"
	case errors.Is(err, errUploadTooLarge):
		status, msg = http.StatusRequestEntityTooLarge, "File is too large"
	case errors.Is(err, service.ErrNotFound):
		status, msg = http.StatusNotFound, "File not found"
	case errors.Is(err, service.ErrStagingWrite):
		msg = "Failed to save file"
	case errors.Is(err, service.ErrObjectStoreUpload):
		status, msg = http.StatusBadGateway, "Failed to upload file to storage"
	case errors.Is(err, service.ErrDownloadLinkGeneration):
		status, msg = http.StatusBadGateway, "Error generating download link"
	case errors.Is(err, service.ErrMetadataWrite):
		msg = "Failed to save file metadata"
	case errors.Is(err, service.ErrMetadataRead):
		msg = "Failed to list files"
	case errors.Is(err, context.Canceled):
		// client went away, nobody reads the body
		status = 499
	}

	if status < http.StatusInternalServerError {
		h.log.Info("request rejected", zap.Int("status", status), zap.Error(err))
		return status, msg
	}
	h.log.Error("request failed", zap.Int("status", status), zap.Error(err))
	return status, msg
}
