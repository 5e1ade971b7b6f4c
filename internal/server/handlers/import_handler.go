package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/driverledger/internal/domain/models"
	"github.com/mamadbah2/driverledger/internal/repository/sheets"
	"github.com/mamadbah2/driverledger/internal/service/importer"
	"github.com/mamadbah2/driverledger/internal/service/ledger"
	"github.com/mamadbah2/driverledger/pkg/validation"
)

const maxUploadBytes = 10 << 20

// Importer runs bulk imports.
type Importer interface {
	Defaults() importer.Options
	Import(ctx context.Context, input importer.Input, opts importer.Options, dryRun bool) (models.ImportReport, error)
	ImportSheet(ctx context.Context, reader importer.SheetReader, sheetRange string, opts importer.Options, dryRun bool) (models.ImportReport, error)
}

// Reloader refreshes the active month after data changes.
type Reloader interface {
	Reload(ctx context.Context) error
}

// ImportRequest is the JSON body of POST /api/import.
type ImportRequest struct {
	Format  string             `json:"format" validate:"omitempty,oneof=text json"`
	Data    string             `json:"data" validate:"required"`
	Options importer.Overrides `json:"options"`
	DryRun  bool               `json:"dryRun"`
}

// SheetImportRequest is the JSON body of POST /api/import/sheets.
type SheetImportRequest struct {
	Range   string             `json:"range" validate:"required"`
	Options importer.Overrides `json:"options"`
	DryRun  bool               `json:"dryRun"`
}

// ImportHandler exposes the bulk importer over HTTP.
type ImportHandler struct {
	svc      Importer
	sheets   importer.SheetReader
	reloader Reloader
	logger   *zap.Logger
}

// NewImportHandler constructs the HTTP handler adapter. sheetReader is nil
// when Google Sheets is not configured.
func NewImportHandler(svc Importer, sheetReader importer.SheetReader, reloader Reloader, logger *zap.Logger) *ImportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportHandler{svc: svc, sheets: sheetReader, reloader: reloader, logger: logger}
}

// Import accepts either a JSON body carrying pasted text or a JSON array, or
// a multipart upload with a "file" field (.xlsx, .csv, .tsv, .txt or .json).
func (h *ImportHandler) Import(c *gin.Context) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		h.importUpload(c)
		return
	}

	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid import payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if errs := validation.ValidateStruct(req); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "details": errs})
		return
	}

	format := importer.FormatText
	if req.Format == string(importer.FormatJSON) {
		format = importer.FormatJSON
	}

	h.run(c, importer.Input{Format: format, Data: []byte(req.Data)}, req.Options, req.DryRun)
}

func (h *ImportHandler) importUpload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}
	if file.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	var overrides importer.Overrides
	if err := c.ShouldBind(&overrides); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid import options"})
		return
	}
	dryRun := c.PostForm("dryRun") == "true"

	f, err := file.Open()
	if err != nil {
		h.logger.Error("failed opening upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read upload"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		h.logger.Error("failed reading upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read upload"})
		return
	}

	input, err := importer.InputFromFile(file.Filename, data, c.PostForm("sheet"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.run(c, input, overrides, dryRun)
}

// ImportSheet imports a Google Sheets range.
func (h *ImportHandler) ImportSheet(c *gin.Context) {
	if h.sheets == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "google sheets integration disabled"})
		return
	}

	var req SheetImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid sheet import payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := sheets.ValidateRange(req.Range); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts, err := h.svc.Defaults().Apply(req.Options)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.svc.ImportSheet(c.Request.Context(), h.sheets, req.Range, opts, req.DryRun)
	h.respond(c, report, err)
}

func (h *ImportHandler) run(c *gin.Context, input importer.Input, overrides importer.Overrides, dryRun bool) {
	opts, err := h.svc.Defaults().Apply(overrides)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.svc.Import(c.Request.Context(), input, opts, dryRun)
	h.respond(c, report, err)
}

func (h *ImportHandler) respond(c *gin.Context, report models.ImportReport, err error) {
	if err != nil {
		if isStructural(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("import failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "import failed"})
		return
	}

	if report.Written > 0 && h.reloader != nil {
		if err := h.reloader.Reload(c.Request.Context()); err != nil && !errors.Is(err, ledger.ErrNotLoaded) {
			h.logger.Warn("reload after import failed", zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, report)
}

func isStructural(err error) bool {
	return errors.Is(err, importer.ErrMalformedInput) ||
		errors.Is(err, importer.ErrUnknownFormat) ||
		errors.Is(err, importer.ErrInvalidLayout) ||
		errors.Is(err, importer.ErrInvalidOptions) ||
		errors.Is(err, sheets.ErrInvalidRange)
}
