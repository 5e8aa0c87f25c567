package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"homease-backend/internal/models"
)

type ContractorsHandler struct {
	contractors ContractorAPI
	logger      *zap.Logger
}

func NewContractorsHandler(contractors ContractorAPI, logger *zap.Logger) *ContractorsHandler {
	return &ContractorsHandler{
		contractors: contractors,
		logger:      logger.Named("contractors_handler"),
	}
}

func (h *ContractorsHandler) GetProfile(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	profile, err := h.contractors.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.NewContractorProfileResponse(profile))
}

func (h *ContractorsHandler) UpdateProfile(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req models.ContractorProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	profile, err := h.contractors.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.NewContractorProfileResponse(profile))
}

// StartOnboarding returns a Stripe Connect onboarding link.
func (h *ContractorsHandler) StartOnboarding(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	url, err := h.contractors.StartOnboarding(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.OnboardingResponse{URL: url})
}

// Payout transfers project funds to a contractor's connected account.
func (h *ContractorsHandler) Payout(c *gin.Context) {
	adminID, ok := requireUser(c)
	if !ok {
		return
	}

	var req models.PayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	// Both ids passed the uuid binding rule.
	projectID := uuid.MustParse(req.ProjectID)
	contractorID := uuid.MustParse(req.ContractorID)

	result, err := h.contractors.Payout(c.Request.Context(), adminID, projectID, contractorID, req.AmountCents)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, models.PayoutResponse{
		TransferID: result.TransferID,
		PaymentID:  result.Payment.ID.String(),
	})
}
