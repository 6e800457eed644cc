package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/fincore-erp/fincore/internal/apperrors"
	"github.com/fincore-erp/fincore/internal/core/domain"
	portssvc "github.com/fincore-erp/fincore/internal/core/ports/services"
	"github.com/fincore-erp/fincore/internal/dto"
	"github.com/fincore-erp/fincore/internal/middleware"
	"github.com/gin-gonic/gin"
)

// chainHandler handles HTTP requests for hash chain verification and
// maintenance.
type chainHandler struct {
	chainService portssvc.ChainSvcFacade
}

// newChainHandler creates a new chainHandler.
func newChainHandler(chainService portssvc.ChainSvcFacade) *chainHandler {
	return &chainHandler{
		chainService: chainService,
	}
}

// registerChainRoutes wires the chain endpoints under a company group.
func registerChainRoutes(rg *gin.RouterGroup, chainService portssvc.ChainSvcFacade) {
	h := newChainHandler(chainService)

	chain := rg.Group("/chain")
	{
		chain.GET("/journal/verify", h.verifyJournalChain)
		chain.GET("/documents/verify", h.verifyDocumentChain)
		chain.POST("/documents/link", h.linkDocument)
		chain.POST("/documents/backfill", h.backfillDocumentChain)
	}
}

// verifyJournalChain godoc
// @Summary Verify the journal hash chain of a company
// @Tags chain
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Success 200 {object} domain.ChainVerification
// @Router /companies/{companyID}/chain/journal/verify [get]
func (h *chainHandler) verifyJournalChain(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")

	result, err := h.chainService.VerifyJournalChain(c.Request.Context(), companyID)
	if err != nil {
		logger.Error("Journal chain verification failed to run", slog.String("error", err.Error()), slog.String("company_id", companyID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify journal chain"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// verifyDocumentChain godoc
// @Summary Verify the fiscal document chain of a company and document type
// @Tags chain
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   documentType query string true "INVOICE or CREDIT_NOTE"
// @Success 200 {object} domain.ChainVerification
// @Failure 400 {object} map[string]string "Unknown document type"
// @Router /companies/{companyID}/chain/documents/verify [get]
func (h *chainHandler) verifyDocumentChain(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")

	var params dto.VerifyChainParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	result, err := h.chainService.VerifyDocumentChain(c.Request.Context(), companyID, domain.DocumentType(params.DocumentType))
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Document chain verification failed to run", slog.String("error", err.Error()), slog.String("company_id", companyID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify document chain"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// linkDocument godoc
// @Summary Link a document to its fiscal chain
// @Tags chain
// @Accept  json
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   request body dto.LinkDocumentRequest true "Document reference"
// @Success 200 {object} domain.Document
// @Failure 409 {object} map[string]string "Document already chained"
// @Router /companies/{companyID}/chain/documents/link [post]
func (h *chainHandler) linkDocument(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")

	var req dto.LinkDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	linked, err := h.chainService.LinkDocument(c.Request.Context(), companyID, req.DocumentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, apperrors.ErrConflict) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to link document", slog.String("error", err.Error()), slog.String("document_id", req.DocumentID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to link document"})
		return
	}

	c.JSON(http.StatusOK, linked)
}

// backfillDocumentChain godoc
// @Summary Backfill the fiscal chain of a company and document type
// @Description Links all unchained documents in chronological order; dryRun reports without persisting
// @Tags chain
// @Accept  json
// @Produce  json
// @Param   companyID path string true "Company ID"
// @Param   request body dto.BackfillChainRequest true "Scope and mode"
// @Success 200 {object} domain.BackfillResult
// @Failure 400 {object} map[string]string "Unknown document type"
// @Router /companies/{companyID}/chain/documents/backfill [post]
func (h *chainHandler) backfillDocumentChain(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("companyID")

	var req dto.BackfillChainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	result, err := h.chainService.BackfillDocumentChain(c.Request.Context(), companyID, domain.DocumentType(req.DocumentType), req.DryRun)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Backfill failed", slog.String("error", err.Error()), slog.String("company_id", companyID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to backfill document chain"})
		return
	}

	c.JSON(http.StatusOK, result)
}
