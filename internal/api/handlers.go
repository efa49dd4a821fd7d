package api

import (
	"context"
	"database/sql"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"chartgen/internal/models"
	"chartgen/internal/prompt"
	"chartgen/internal/service/chart"
	"chartgen/web"
)

// genericFailure is the only failure text shown to callers; details are logged.
const genericFailure = "Error processing the file."

type ChartService interface {
	Generate(ctx context.Context, upload models.Upload, chartType string) (*models.ChartResult, error)
	ListRecent(ctx context.Context, limit int) ([]*models.ChartResult, error)
	Get(ctx context.Context, id int64) (*models.ChartResult, error)
	HistoryEnabled() bool
}

// Options carries the handler's upload and history settings.
type Options struct {
	UploadDir       string
	MaxUploadBytes  int64
	HistoryPageSize int
	// RateLimit is the number of generations allowed per client per minute;
	// zero disables limiting.
	RateLimit int
}

// Handler wires HTTP routes to the chart service.
type Handler struct {
	charts    ChartService
	opts      Options
	counter   WindowCounter
	metrics   *handlerMetrics
	templates *template.Template
	logger    *slog.Logger
}

// NewHandler constructs a Handler instance. counter may be nil, in which case
// rate limiting (when enabled) is tracked in process.
func NewHandler(charts ChartService, opts Options, counter WindowCounter, logger *slog.Logger) (*Handler, error) {
	if opts.UploadDir == "" {
		opts.UploadDir = "uploads"
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	if opts.HistoryPageSize <= 0 {
		opts.HistoryPageSize = 20
	}
	if logger == nil {
		logger = slog.Default()
	}
	tmpl, err := web.Templates()
	if err != nil {
		return nil, err
	}
	return &Handler{
		charts:    charts,
		opts:      opts,
		counter:   counter,
		metrics:   newHandlerMetrics(),
		templates: tmpl,
		logger:    logger,
	}, nil
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.SetHTMLTemplate(h.templates)
	limit := h.rateLimit()

	router.GET("/", h.index)
	router.POST("/upload", limit, h.uploadPage)
	router.GET("/charts", h.historyPage)
	router.GET("/charts/:id", h.chartPage)
	router.GET("/healthz", h.health)
	router.GET("/metrics", h.metrics.handler())

	api := router.Group("/api")
	api.POST("/charts", limit, h.createChart)
	api.GET("/charts", h.listCharts)
	api.GET("/charts/:id", h.getChart)
}

type pageData struct {
	Title          string
	HistoryEnabled bool
	ChartTypes     []string
	Chart          *models.ChartResult
	Script         template.JS
	Message        string
	Charts         []*models.ChartResult
}

func (h *Handler) page(title string) pageData {
	return pageData{Title: title, HistoryEnabled: h.charts.HistoryEnabled()}
}

func (h *Handler) index(c *gin.Context) {
	data := h.page("Chart generator")
	data.ChartTypes = prompt.Keywords()
	c.HTML(http.StatusOK, "index.html", data)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) uploadPage(c *gin.Context) {
	result, status := h.generate(c)
	if result == nil {
		h.renderError(c, status, genericFailure)
		return
	}
	h.renderChart(c, result)
}

func (h *Handler) createChart(c *gin.Context) {
	result, status := h.generate(c)
	if result == nil {
		c.JSON(status, gin.H{"error": strings.ToLower(strings.TrimSuffix(genericFailure, "."))})
		return
	}
	c.JSON(http.StatusCreated, result)
}

// generate receives the upload, runs the pipeline and always removes the
// stored file before returning. A nil result comes with the status to send.
func (h *Handler) generate(c *gin.Context) (*models.ChartResult, int) {
	started := time.Now()
	upload, status, err := h.receiveUpload(c)
	if err != nil {
		h.logger.Warn("upload rejected", "path", c.Request.URL.Path, "status", status, "error", err)
		h.metrics.observe("", "rejected", started)
		return nil, status
	}
	defer h.removeUpload(upload)

	chartType := strings.TrimSpace(c.PostForm("chartType"))
	result, err := h.charts.Generate(c.Request.Context(), *upload, chartType)
	if err != nil {
		h.metrics.observe(chartType, "failed", started)
		stage := "unknown"
		var stageErr *chart.StageError
		if errors.As(err, &stageErr) {
			stage = stageErr.Stage
		}
		h.logger.Error("chart generation failed",
			"path", c.Request.URL.Path,
			"stage", stage,
			"chart_type", chartType,
			"file", upload.FileName,
			"error", err,
		)
		return nil, http.StatusInternalServerError
	}
	h.metrics.observe(chartType, "ok", started)
	return result, http.StatusOK
}

func (h *Handler) historyPage(c *gin.Context) {
	charts, err := h.charts.ListRecent(c.Request.Context(), h.opts.HistoryPageSize)
	if err != nil {
		status := h.historyStatus(err)
		h.renderError(c, status, http.StatusText(status))
		return
	}
	data := h.page("Recent charts")
	data.Charts = charts
	c.HTML(http.StatusOK, "history.html", data)
}

func (h *Handler) chartPage(c *gin.Context) {
	result, status := h.lookup(c)
	if result == nil {
		h.renderError(c, status, http.StatusText(status))
		return
	}
	h.renderChart(c, result)
}

func (h *Handler) listCharts(c *gin.Context) {
	limit := h.opts.HistoryPageSize
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}
	charts, err := h.charts.ListRecent(c.Request.Context(), limit)
	if err != nil {
		status := h.historyStatus(err)
		c.JSON(status, gin.H{"error": strings.ToLower(http.StatusText(status))})
		return
	}
	if charts == nil {
		charts = make([]*models.ChartResult, 0)
	}
	c.JSON(http.StatusOK, gin.H{"charts": charts})
}

func (h *Handler) getChart(c *gin.Context) {
	result, status := h.lookup(c)
	if result == nil {
		c.JSON(status, gin.H{"error": strings.ToLower(http.StatusText(status))})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) lookup(c *gin.Context) (*models.ChartResult, int) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return nil, http.StatusBadRequest
	}
	result, err := h.charts.Get(c.Request.Context(), id)
	if err != nil {
		return nil, h.historyStatus(err)
	}
	return result, http.StatusOK
}

func (h *Handler) historyStatus(err error) int {
	switch {
	case errors.Is(err, chart.ErrHistoryDisabled), errors.Is(err, sql.ErrNoRows):
		return http.StatusNotFound
	default:
		h.logger.Error("chart history query failed", "error", err)
		return http.StatusInternalServerError
	}
}

func (h *Handler) renderChart(c *gin.Context, result *models.ChartResult) {
	data := h.page("Generated chart")
	data.Chart = result
	// the model output is passed through as script, unvalidated
	data.Script = template.JS(result.Config)
	c.HTML(http.StatusOK, "chart.html", data)
}

func (h *Handler) renderError(c *gin.Context, status int, message string) {
	data := h.page("Error")
	data.Message = message
	c.HTML(status, "error.html", data)
}
