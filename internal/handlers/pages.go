package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"homease-backend/internal/config"
	"homease-backend/internal/middleware"
	"homease-backend/internal/models"
	"homease-backend/internal/services"
)

// PagesHandler renders the server-side pages. Every route it serves sits
// behind AccessMiddleware, so the user and role are always set.
type PagesHandler struct {
	assessments AssessmentAPI
	leads       LeadAPI
	contractors ContractorAPI
	cfg         *config.Config
	logger      *zap.Logger
}

func NewPagesHandler(assessments AssessmentAPI, leads LeadAPI, contractors ContractorAPI, cfg *config.Config, logger *zap.Logger) *PagesHandler {
	return &PagesHandler{
		assessments: assessments,
		leads:       leads,
		contractors: contractors,
		cfg:         cfg,
		logger:      logger.Named("pages"),
	}
}

func (h *PagesHandler) render(c *gin.Context, status int, name, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["Title"] = title
	data["Role"] = middleware.CurrentRole(c)
	if _, ok := data["Message"]; !ok {
		data["Message"] = c.Query("message")
	}
	c.HTML(status, name, data)
}

func (h *PagesHandler) renderError(c *gin.Context, err error) {
	status := statusFor(err)
	detail := "Something went wrong. Please try again."
	switch status {
	case http.StatusNotFound:
		detail = "We could not find that page."
	case http.StatusForbidden:
		detail = "You do not have access to this page."
	case http.StatusBadRequest, http.StatusConflict:
		detail = err.Error()
	default:
		h.logger.Error("page failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	h.render(c, status, "error", http.StatusText(status), gin.H{"Status": status, "Detail": detail})
}

func (h *PagesHandler) pageUser(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.Redirect(http.StatusFound, "/login")
		return uuid.Nil, false
	}
	return userID, true
}

func (h *PagesHandler) Landing(c *gin.Context) {
	h.render(c, http.StatusOK, "landing", "", nil)
}

func (h *PagesHandler) Login(c *gin.Context) {
	h.render(c, http.StatusOK, "login", "Sign in", nil)
}

func (h *PagesHandler) Signup(c *gin.Context) {
	h.render(c, http.StatusOK, "signup", "Sign up", nil)
}

type homeownerStats struct {
	Total, Open, Visualized, Matched int
}

func (h *PagesHandler) HomeownerDashboard(c *gin.Context) {
	userID, ok := h.pageUser(c)
	if !ok {
		return
	}

	projects, err := h.assessments.ListProjects(c.Request.Context(), userID)
	if err != nil {
		h.renderError(c, err)
		return
	}

	stats := homeownerStats{Total: len(projects)}
	for _, p := range projects {
		switch p.Status {
		case models.ProjectOpen:
			stats.Open++
		case models.ProjectVisualized:
			stats.Open++
			stats.Visualized++
		case models.ProjectMatched, models.ProjectInProgress, models.ProjectCompleted:
			stats.Matched++
		}
	}
	h.render(c, http.StatusOK, "homeowner_dashboard", "Dashboard", gin.H{"Projects": projects, "Stats": stats})
}

func (h *PagesHandler) assessForm(c *gin.Context, status int, userID uuid.UUID, formErr string) {
	h.render(c, status, "assess", "New assessment", gin.H{
		"HomeownerID":      userID.String(),
		"SubmissionKey":    uuid.NewString(),
		"RoomTypes":        models.RoomTypes,
		"BudgetRanges":     models.BudgetRanges,
		"MobilityConcerns": models.MobilityConcerns,
		"Error":            formErr,
	})
}

func (h *PagesHandler) AssessForm(c *gin.Context) {
	userID, ok := h.pageUser(c)
	if !ok {
		return
	}
	h.assessForm(c, http.StatusOK, userID, "")
}

// SubmitAssessment runs the pipeline for the browser form and redirects to
// the resulting project.
func (h *PagesHandler) SubmitAssessment(c *gin.Context) {
	userID, ok := h.pageUser(c)
	if !ok {
		return
	}

	sub, err := bindSubmission(c)
	if err == nil {
		var result *services.SubmissionResult
		result, err = h.assessments.Submit(c.Request.Context(), userID, sub)
		if err == nil {
			c.Redirect(http.StatusSeeOther, "/homeowner/projects/"+result.Project.ID.String())
			return
		}
	}

	if errors.Is(err, services.ErrValidation) || errors.Is(err, services.ErrForbidden) {
		h.assessForm(c, http.StatusBadRequest, userID, "Please check the form: "+err.Error())
		return
	}
	h.renderError(c, err)
}

func (h *PagesHandler) ProjectDetail(c *gin.Context) {
	userID, ok := h.pageUser(c)
	if !ok {
		return
	}
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.renderError(c, services.ErrNotFound)
		return
	}

	detail, err := h.assessments.ProjectDetail(c.Request.Context(), userID, middleware.CurrentRole(c), projectID)
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.render(c, http.StatusOK, "project_detail", detail.Project.Title, gin.H{"Detail": detail})
}

func (h *PagesHandler) Scanner(c *gin.Context) {
	userID, ok := h.pageUser(c)
	if !ok {
		return
	}
	h.render(c, http.StatusOK, "scanner", "AR scan", gin.H{
		"UserID":    userID.String(),
		"SessionID": uuid.NewString(),
		"MaxFPS":    h.cfg.ARMaxFramesPerSecond,
	})
}

func (h *PagesHandler) ContractorDashboard(c *gin.Context) {
	userID, ok := h.pageUser(c)
	if !ok {
		return
	}

	dashboard, err := h.leads.Dashboard(c.Request.Context(), userID)
	if err != nil {
		h.renderError(c, err)
		return
	}
	profile, err := h.contractors.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.render(c, http.StatusOK, "contractor_dashboard", "Dashboard", gin.H{"Dashboard": dashboard, "Profile": profile})
}

func (h *PagesHandler) Leads(c *gin.Context) {
	userID, ok := h.pageUser(c)
	if !ok {
		return
	}

	var q models.LeadFilterQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		q = models.LeadFilterQuery{}
	}

	leads, err := h.leads.ListAvailable(c.Request.Context(), userID, middleware.CurrentRole(c), q.ToFilter())
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.render(c, http.StatusOK, "leads", "Leads", gin.H{"Leads": leads, "Filter": q, "RoomTypes": models.RoomTypes})
}

func (h *PagesHandler) LeadDetail(c *gin.Context) {
	userID, ok := h.pageUser(c)
	if !ok {
		return
	}
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.renderError(c, services.ErrNotFound)
		return
	}

	lead, err := h.leads.Get(c.Request.Context(), userID, middleware.CurrentRole(c), leadID)
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.render(c, http.StatusOK, "lead_detail", lead.Project.Title, gin.H{
		"Lead": lead,
		// The webhook confirms the purchase; until then the return from
		// checkout is only shown as pending.
		"PaymentSuccess":   c.Query("payment_success") == "true",
		"PaymentCancelled": c.Query("payment_cancelled") == "true",
	})
}

// LeadCheckout sends the contractor to the hosted checkout page.
func (h *PagesHandler) LeadCheckout(c *gin.Context) {
	userID, ok := h.pageUser(c)
	if !ok {
		return
	}
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.renderError(c, services.ErrNotFound)
		return
	}

	session, err := h.leads.Checkout(c.Request.Context(), userID, leadID)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, session.URL)
}

func (h *PagesHandler) ContractorProfile(c *gin.Context) {
	userID, ok := h.pageUser(c)
	if !ok {
		return
	}

	profile, err := h.contractors.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.render(c, http.StatusOK, "contractor_profile", "Profile", gin.H{"Profile": profile})
}

// splitList turns a comma separated form field into a list.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (h *PagesHandler) UpdateContractorProfile(c *gin.Context) {
	userID, ok := h.pageUser(c)
	if !ok {
		return
	}

	req := models.ContractorProfileRequest{
		CompanyName:    strings.TrimSpace(c.PostForm("company_name")),
		LicenseNumber:  strings.TrimSpace(c.PostForm("license_number")),
		ServiceAreas:   splitList(c.PostForm("service_areas")),
		Specialties:    splitList(c.PostForm("specialties")),
		Certifications: splitList(c.PostForm("certifications")),
		PhoneNumber:    strings.TrimSpace(c.PostForm("phone_number")),
	}
	if req.CompanyName == "" {
		c.Redirect(http.StatusSeeOther, "/contractor/profile?message=Company+name+is+required")
		return
	}

	if _, err := h.contractors.UpdateProfile(c.Request.Context(), userID, req); err != nil {
		h.renderError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/contractor/profile?message=Profile+saved")
}

func (h *PagesHandler) StartOnboarding(c *gin.Context) {
	userID, ok := h.pageUser(c)
	if !ok {
		return
	}

	url, err := h.contractors.StartOnboarding(c.Request.Context(), userID)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, url)
}

func (h *PagesHandler) AdminDashboard(c *gin.Context) {
	payments, err := h.contractors.RecentPayments(c.Request.Context(), 50)
	if err != nil {
		h.renderError(c, err)
		return
	}
	h.render(c, http.StatusOK, "admin_dashboard", "Admin", gin.H{"Payments": payments})
}

func (h *PagesHandler) AdminPayout(c *gin.Context) {
	adminID, ok := h.pageUser(c)
	if !ok {
		return
	}

	var req models.PayoutRequest
	if err := c.ShouldBind(&req); err != nil {
		c.Redirect(http.StatusSeeOther, "/admin/dashboard?message=Invalid+payout+request")
		return
	}

	_, err := h.contractors.Payout(c.Request.Context(), adminID, uuid.MustParse(req.ProjectID), uuid.MustParse(req.ContractorID), req.AmountCents)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/admin/dashboard?message=Payout+created")
}
