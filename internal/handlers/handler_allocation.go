package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/fincore-erp/fincore/internal/apperrors"
	portssvc "github.com/fincore-erp/fincore/internal/core/ports/services"
	"github.com/fincore-erp/fincore/internal/dto"
	"github.com/fincore-erp/fincore/internal/middleware"
	"github.com/gin-gonic/gin"
)

// allocationHandler handles HTTP requests for the two-phase payment
// allocation flow.
type allocationHandler struct {
	allocationService portssvc.AllocationSvcFacade
}

// newAllocationHandler creates a new allocationHandler.
func newAllocationHandler(allocationService portssvc.AllocationSvcFacade) *allocationHandler {
	return &allocationHandler{
		allocationService: allocationService,
	}
}

// registerAllocationRoutes wires the allocation endpoints under a company group.
func registerAllocationRoutes(rg *gin.RouterGroup, allocationService portssvc.AllocationSvcFacade) {
	h := newAllocationHandler(allocationService)

	allocations := rg.Group("/allocations")
	{
		allocations.POST("/preview", h.previewAllocation)
		allocations.POST("/apply", h.applyAllocation)
	}
}

// previewAllocation godoc
// @Summary Preview a payment allocation
// @Description Computes the allocation plan for a payment without side effects
// @Tags allocations
// @Accept  json
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   request body dto.AllocationRequest true "Payment and strategy"
// @Success 200 {object} domain.AllocationPlan
// @Failure 400 {object} map[string]string "Invalid request or strategy"
// @Failure 409 {object} map[string]string "Payment is not allocatable"
// @Router /companies/{companyID}/allocations/preview [post]
func (h *allocationHandler) previewAllocation(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")

	var req dto.AllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for previewAllocation", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	plan, err := h.allocationService.PreviewAllocation(c.Request.Context(), companyID, req)
	if err != nil {
		h.respondAllocationError(c, logger, req.PaymentID, "preview", err)
		return
	}

	c.JSON(http.StatusOK, plan)
}

// applyAllocation godoc
// @Summary Apply a payment allocation
// @Description Recomputes the plan and executes it transactionally, posting the implied GL entries
// @Tags allocations
// @Accept  json
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   request body dto.AllocationRequest true "Payment and strategy"
// @Success 200 {object} domain.AllocationResult
// @Failure 409 {object} map[string]string "Payment already allocated or balances drifted"
// @Router /companies/{companyID}/allocations/apply [post]
func (h *allocationHandler) applyAllocation(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")

	var req dto.AllocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for applyAllocation", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	result, err := h.allocationService.ApplyAllocation(c.Request.Context(), companyID, req, userID)
	if err != nil {
		h.respondAllocationError(c, logger, req.PaymentID, "apply", err)
		return
	}

	logger.Info("Allocation applied",
		slog.String("payment_id", req.PaymentID),
		slog.String("payment_kind", string(result.PaymentKind)),
	)
	c.JSON(http.StatusOK, result)
}

func (h *allocationHandler) respondAllocationError(c *gin.Context, logger *slog.Logger, paymentID string, phase string, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrValidation):
		logger.Warn("Allocation validation failed", slog.String("payment_id", paymentID), slog.String("phase", phase), slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrConflict):
		logger.Warn("Allocation conflict", slog.String("payment_id", paymentID), slog.String("phase", phase), slog.String("error", err.Error()))
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error("Allocation failed", slog.String("payment_id", paymentID), slog.String("phase", phase), slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + phase + " allocation"})
	}
}
