package interviews

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
	"github.com/google/uuid"

	"interview-backend/internal/extract"
	"interview-backend/internal/questions"
	"interview-backend/internal/shared/server/middleware"
	"interview-backend/internal/shared/server/respond"
	"interview-backend/internal/shared/storage/object"
	"interview-backend/internal/shared/telemetry"
)

// multipartSlack covers multipart headers and boundaries on top of the
// file size limit.
const multipartSlack = 1 << 20

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

//go:embed templates/*.tmpl
var templateFiles embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFiles, "templates/*.tmpl"))

// Handler wires HTTP handlers to the pipeline.
type Handler struct {
	Pipeline *Pipeline
	Repo     RunsRepo
	Archive  object.ObjectStore
}

// NewHandler constructs a Handler. repo and archive may be nil.
func NewHandler(pipeline *Pipeline, repo RunsRepo, archive object.ObjectStore) *Handler {
	return &Handler{Pipeline: pipeline, Repo: repo, Archive: archive}
}

// RegisterPage attaches the HTML page routes.
func (h *Handler) RegisterPage(r gin.IRoutes) {
	r.GET("/", h.page)
	r.POST("/", h.submit)
}

// RegisterRoutes attaches the JSON API routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/interviews", h.create)
	rg.GET("/interviews", h.list)
	rg.GET("/interviews/:id", h.get)
	rg.GET("/interviews/:id/extracted", h.extracted)
}

type pageData struct {
	Accept      string
	Extensions  string
	MaxUploadMB int
	Run         *Run
}

func (h *Handler) page(c *gin.Context) {
	h.render(c, nil)
}

func (h *Handler) submit(c *gin.Context) {
	up, err := h.readUpload(c)
	if errors.Is(err, ErrInvalidInput) {
		h.render(c, nil)
		return
	}
	run, _ := h.Pipeline.Run(c.Request.Context(), up)
	setRunContext(c, run)
	h.render(c, &run)
}

func (h *Handler) render(c *gin.Context, run *Run) {
	exts := strings.ToUpper(strings.ReplaceAll(strings.Join(extract.SupportedExtensions, ", "), ".", ""))
	c.Render(http.StatusOK, render.HTML{
		Template: pageTemplate,
		Name:     "index",
		Data: pageData{
			Accept:      strings.Join(extract.SupportedExtensions, ","),
			Extensions:  exts,
			MaxUploadMB: h.Pipeline.Gates().MaxUploadMB,
			Run:         run,
		},
	})
}

func (h *Handler) create(c *gin.Context) {
	up, err := h.readUpload(c)
	if errors.Is(err, ErrInvalidInput) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "file is required", nil)
		return
	}

	run, err := h.Pipeline.Run(c.Request.Context(), up)
	setRunContext(c, run)
	if err != nil {
		status, code := errorStatus(err)
		respond.Error(c, status, code, lastBanner(run), NewRunResponse(run))
		return
	}
	respond.JSON(c, http.StatusCreated, NewRunResponse(run))
}

func (h *Handler) get(c *gin.Context) {
	run, ok := h.lookup(c)
	if !ok {
		return
	}
	respond.OK(c, NewRunResponse(run))
}

func (h *Handler) list(c *gin.Context) {
	limit := defaultListLimit
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respond.Error(c, http.StatusBadRequest, "validation_error", "limit must be a positive integer", nil)
			return
		}
		limit = min(n, maxListLimit)
	}
	if h.Repo == nil {
		respond.OK(c, gin.H{"interviews": []RunSummary{}})
		return
	}
	runs, err := h.Repo.ListRecent(c.Request.Context(), limit)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list interviews", nil)
		return
	}
	out := make([]RunSummary, 0, len(runs))
	for _, run := range runs {
		out = append(out, toSummary(run))
	}
	respond.OK(c, gin.H{"interviews": out})
}

func (h *Handler) extracted(c *gin.Context) {
	run, ok := h.lookup(c)
	if !ok {
		return
	}
	if run.ArchiveKey == "" || h.Archive == nil {
		respond.Error(c, http.StatusNotFound, "not_found", "extracted text not archived", nil)
		return
	}
	rc, err := h.Archive.Open(c.Request.Context(), run.ArchiveKey)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "extracted text not archived", nil)
			return
		}
		telemetry.Error("interview.archive.open_failed", map[string]any{"run_id": run.ID, "error": err})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to read extracted text", nil)
		return
	}
	defer rc.Close()

	name := path.Base(run.ArchiveKey)
	c.DataFromReader(http.StatusOK, -1, "text/plain; charset=utf-8", rc, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", name),
	})
}

func (h *Handler) lookup(c *gin.Context) (Run, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid interview id", nil)
		return Run{}, false
	}
	if h.Repo == nil {
		respond.Error(c, http.StatusNotFound, "not_found", "interview not found", nil)
		return Run{}, false
	}
	run, err := h.Repo.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			respond.Error(c, http.StatusNotFound, "not_found", "interview not found", nil)
		} else {
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch interview", nil)
		}
		return Run{}, false
	}
	c.Set(middleware.RunIDKey, run.ID)
	return run, true
}

// readUpload reads the multipart "file" field. An oversized body yields
// ErrFileTooLarge with the declared size so the size gate can report it.
func (h *Handler) readUpload(c *gin.Context) (Upload, error) {
	limit := h.Pipeline.Gates().MaxBytes()
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+multipartSlack)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		if isBodyTooLarge(err) {
			size := c.Request.ContentLength
			if size <= limit {
				size = limit + 1
			}
			return Upload{Size: size}, ErrFileTooLarge
		}
		return Upload{}, fmt.Errorf("%w: file is required", ErrInvalidInput)
	}
	c.Set(middleware.FileNameKey, fileHeader.Filename)

	file, err := fileHeader.Open()
	if err != nil {
		return Upload{}, fmt.Errorf("%w: unable to read file", ErrInvalidInput)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return Upload{}, fmt.Errorf("%w: unable to read file", ErrInvalidInput)
	}
	return Upload{FileName: fileHeader.Filename, Data: data, Size: fileHeader.Size}, nil
}

func isBodyTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large")
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, "file_too_large"
	case errors.Is(err, extract.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType, "unsupported_file_type"
	case errors.Is(err, extract.ErrExtraction):
		return http.StatusUnprocessableEntity, "extraction_failed"
	case errors.Is(err, ErrContentTooShort):
		return http.StatusUnprocessableEntity, "content_too_short"
	case errors.Is(err, questions.ErrGeneration):
		return http.StatusBadGateway, "generation_failed"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func lastBanner(run Run) string {
	if len(run.Banners) == 0 {
		return "interview run failed"
	}
	return run.Banners[len(run.Banners)-1].Message
}

func setRunContext(c *gin.Context, run Run) {
	c.Set(middleware.RunIDKey, run.ID)
	if run.FileName != "" {
		c.Set(middleware.FileNameKey, run.FileName)
	}
}
