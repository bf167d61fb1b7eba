package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"docsearch/backend/go/internal/models"
	"docsearch/backend/go/internal/rag_service/rag/schema"
	"docsearch/backend/go/internal/rag_service/service"
	"docsearch/backend/go/pkg/logger"

	"github.com/gin-gonic/gin"
)

const (
	defaultSearchLimit = 5
	uploadField        = "files"
)

// API provides handlers for the document search service.
type API struct {
	service        *service.Service
	logger         *logger.Logger
	maxUploadBytes int64
}

// NewAPI creates a new API handler. maxUploadBytes caps the size of an
// ingest request body; zero or less leaves it unbounded.
func NewAPI(service *service.Service, logger *logger.Logger, maxUploadBytes int64) *API {
	return &API{
		service:        service,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
}

// IngestHandler indexes the files of a multipart upload.
func (a *API) IngestHandler(c *gin.Context) {
	if a.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, a.maxUploadBytes)
	}

	var headers []*multipart.FileHeader
	form, err := c.MultipartForm()
	switch {
	case err == nil:
		headers = form.File[uploadField]
	case isTooLarge(err):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Upload is too large"})
		return
	case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary):
		// no files; the service rejects the empty batch
	default:
		a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Invalid multipart payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart payload"})
		return
	}

	files := make([]schema.UploadedFile, 0, len(headers))
	for _, h := range headers {
		data, err := readUpload(h)
		if err != nil {
			if isTooLarge(err) {
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Upload is too large"})
				return
			}
			a.logger.WithErr(err, "upload_error").Warn(fmt.Sprintf("Failed to read uploaded file %s", h.Filename))
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Could not read file %s", h.Filename)})
			return
		}
		files = append(files, schema.UploadedFile{Name: h.Filename, Data: data})
	}

	ingested, err := a.service.Ingest(c.Request.Context(), files)
	if err != nil {
		a.writeError(c, err, "Failed to process documents")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("%d documents processed successfully", len(ingested)),
		"files":   ingested,
	})
}

// SearchHandler ranks chunks against the q query parameter.
func (a *API) SearchHandler(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultSearchLimit)))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Parameter 'limit' must be a positive integer"})
		return
	}

	results, err := a.service.Search(c.Query("q"), limit)
	if err != nil {
		a.writeError(c, err, "Search failed")
		return
	}
	if results == nil {
		results = []schema.SearchResult{}
	}
	c.JSON(http.StatusOK, results)
}

// AskHandler answers a question from the indexed documents.
func (a *API) AskHandler(c *gin.Context) {
	var payload struct {
		Question string `json:"question"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	answer, err := a.service.Ask(c.Request.Context(), payload.Question)
	if err != nil {
		a.writeError(c, err, "Failed to answer question")
		return
	}
	c.JSON(http.StatusOK, answer)
}

// StatsHandler reports index sizes.
func (a *API) StatsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, a.service.Stats())
}

// OllamaStatusHandler reports whether the language model backend is
// reachable. It always answers 200.
func (a *API) OllamaStatusHandler(c *gin.Context) {
	st := a.service.OllamaStatus(c.Request.Context())
	if !st.Connected {
		c.JSON(http.StatusOK, gin.H{"status": "error", "message": st.Message})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":        "connected",
		"models":        st.Models,
		"default_model": st.DefaultModel,
	})
}

// HealthHandler is the liveness probe.
func (a *API) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func (a *API) writeError(c *gin.Context, err error, fallback string) {
	var inputErr *service.InputError
	if errors.As(err, &inputErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": inputErr.Message})
		return
	}
	_ = c.Error(err)
	a.logger.WithErr(err, "internal_error").Error(fallback)
	c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
}

func readUpload(h *multipart.FileHeader) ([]byte, error) {
	f, err := h.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
