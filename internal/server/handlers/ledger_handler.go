package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/driverledger/internal/domain/models"
	"github.com/mamadbah2/driverledger/internal/repository/mongodb"
	"github.com/mamadbah2/driverledger/internal/service/ledger"
	"github.com/mamadbah2/driverledger/internal/service/planner"
	"github.com/mamadbah2/driverledger/pkg/validation"
)

// LedgerService is the state container the HTTP layer reads and writes.
type LedgerService interface {
	View(ctx context.Context, month models.YearMonth) (ledger.Snapshot, error)
	AddShift(ctx context.Context, record models.ShiftRecord) (string, error)
	DeleteShift(ctx context.Context, id string) error
	SaveConfig(ctx context.Context, month models.YearMonth, cfg models.MonthlyConfig) error
}

// LedgerHandler serves shifts, monthly configuration and plans.
type LedgerHandler struct {
	store  LedgerService
	logger *zap.Logger
	now    func() time.Time
}

// NewLedgerHandler constructs the HTTP handler adapter.
func NewLedgerHandler(store LedgerService, logger *zap.Logger) *LedgerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerHandler{store: store, logger: logger, now: time.Now}
}

// ListShifts returns the shifts of ?month=YYYY-MM (default: current month)
// with a per-platform breakdown.
func (h *LedgerHandler) ListShifts(c *gin.Context) {
	month, ok := h.monthParam(c, c.Query("month"))
	if !ok {
		return
	}

	snap, err := h.store.View(c.Request.Context(), month)
	if err != nil {
		h.logger.Error("failed loading shifts", zap.Error(err), zap.String("month", month.String()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load shifts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"month":     month.String(),
		"shifts":    snap.Shifts,
		"platforms": planner.PlatformBreakdown(snap.Shifts),
	})
}

// CreateShift stores a shift entered through the form.
func (h *LedgerHandler) CreateShift(c *gin.Context) {
	var req models.ShiftCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid shift payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if errs := validation.ValidateStruct(req); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "details": errs})
		return
	}

	id, err := h.store.AddShift(c.Request.Context(), req.ToRecord())
	if err != nil {
		h.logger.Error("failed saving shift", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save shift"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// DeleteShift removes one shift by id.
func (h *LedgerHandler) DeleteShift(c *gin.Context) {
	id := c.Param("id")

	if err := h.store.DeleteShift(c.Request.Context(), id); err != nil {
		if errors.Is(err, mongodb.ErrShiftNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "shift not found"})
			return
		}
		h.logger.Error("failed deleting shift", zap.Error(err), zap.String("id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete shift"})
		return
	}

	c.Status(http.StatusNoContent)
}

// GetConfig returns the effective configuration of a month.
func (h *LedgerHandler) GetConfig(c *gin.Context) {
	month, ok := h.monthParam(c, c.Param("month"))
	if !ok {
		return
	}

	snap, err := h.store.View(c.Request.Context(), month)
	if err != nil {
		h.logger.Error("failed loading config", zap.Error(err), zap.String("month", month.String()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load config"})
		return
	}

	c.JSON(http.StatusOK, snap.Config)
}

// PutConfig replaces the configuration of a month.
func (h *LedgerHandler) PutConfig(c *gin.Context) {
	month, ok := h.monthParam(c, c.Param("month"))
	if !ok {
		return
	}

	var cfg models.MonthlyConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		h.logger.Warn("invalid config payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if errs := validation.ValidateStruct(cfg); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "details": errs})
		return
	}

	if err := h.store.SaveConfig(c.Request.Context(), month, cfg); err != nil {
		h.logger.Error("failed saving config", zap.Error(err), zap.String("month", month.String()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save config"})
		return
	}

	c.JSON(http.StatusOK, cfg)
}

// GetPlan returns the weighted plan and progress of ?month. With ?date it
// also returns that day's classification and target.
func (h *LedgerHandler) GetPlan(c *gin.Context) {
	month, ok := h.monthParam(c, c.Query("month"))
	if !ok {
		return
	}

	snap, err := h.store.View(c.Request.Context(), month)
	if err != nil {
		h.logger.Error("failed loading plan", zap.Error(err), zap.String("month", month.String()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load plan"})
		return
	}

	body := gin.H{"plan": snap.Plan}

	if date := c.Query("date"); date != "" {
		day, err := time.Parse(models.DateLayout, date)
		if err != nil || models.MonthOf(day) != month {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD within the requested month"})
			return
		}
		target, err := planner.ClassifyDay(date, snap.Config, snap.Plan.Plan)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		body["day"] = target
	}

	c.JSON(http.StatusOK, body)
}

func (h *LedgerHandler) monthParam(c *gin.Context, value string) (models.YearMonth, bool) {
	if value == "" {
		return models.MonthOf(h.now()), true
	}
	month, err := models.ParseYearMonth(value)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "month must be formatted YYYY-MM"})
		return models.YearMonth{}, false
	}
	return month, true
}
