package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"homease-backend/internal/middleware"
	"homease-backend/internal/models"
)

type LeadsHandler struct {
	leads  LeadAPI
	logger *zap.Logger
}

func NewLeadsHandler(leads LeadAPI, logger *zap.Logger) *LeadsHandler {
	return &LeadsHandler{
		leads:  leads,
		logger: logger.Named("leads_handler"),
	}
}

func (h *LeadsHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var q models.LeadFilterQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	leads, err := h.leads.ListAvailable(c.Request.Context(), userID, middleware.CurrentRole(c), q.ToFilter())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	resp := models.LeadListResponse{Leads: make([]models.LeadResponse, 0, len(leads))}
	for i := range leads {
		resp.Leads = append(resp.Leads, models.NewLeadResponse(&leads[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *LeadsHandler) Get(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	leadID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	lead, err := h.leads.Get(c.Request.Context(), userID, middleware.CurrentRole(c), leadID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.NewLeadResponse(lead))
}

// Checkout starts a hosted payment for a lead. The lead only changes state
// once the payment webhook confirms the purchase.
func (h *LeadsHandler) Checkout(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	leadID, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	session, err := h.leads.Checkout(c.Request.Context(), userID, leadID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.CheckoutResponse{SessionID: session.ID, URL: session.URL})
}
