package models

// AssessmentSubmission is the homeowner's assessment form. Field names match
// the HTML form so the same struct binds browser posts and API calls.
type AssessmentSubmission struct {
	HomeownerID       string   `form:"homeowner_id" json:"homeowner_id" validate:"required,uuid"`
	HomeAddress       string   `form:"homeAddress" json:"homeAddress" validate:"required,max=500"`
	RoomType          string   `form:"roomType" json:"roomType" validate:"required,room_type"`
	AssessmentDetails string   `form:"assessmentDetails" json:"assessmentDetails" validate:"required,max=5000"`
	BudgetRange       string   `form:"budgetRange" json:"budgetRange" validate:"omitempty,budget_range"`
	MobilityConcerns  []string `form:"mobilityConcerns" json:"mobilityConcerns" validate:"omitempty,dive,mobility_concern"`
	HomeownerAge      int      `form:"homeownerAge" json:"homeownerAge" validate:"omitempty,min=18,max=120"`
	SubmissionKey     string   `form:"submission_key" json:"submission_key" validate:"omitempty,max=200"`

	Image         []byte `form:"-" json:"-"`
	ImageFilename string `form:"-" json:"-"`
	ImageMIMEType string `form:"-" json:"-"`
}

type VisualizeRequest struct {
	// Modifications overrides the analysis' top modifications when set.
	Modifications []string `json:"modifications" binding:"omitempty,max=5,dive,min=1,max=200"`
}

type LoginRequest struct {
	Email    string `form:"email" json:"email" binding:"required,email"`
	Password string `form:"password" json:"password" binding:"required,min=6"`
}

type SignupRequest struct {
	Email    string `form:"email" json:"email" binding:"required,email"`
	Password string `form:"password" json:"password" binding:"required,min=6"`
	FullName string `form:"full_name" json:"full_name" binding:"omitempty,max=200"`
	Role     string `form:"role" json:"role" binding:"omitempty,signup_role"`
}

type ContractorProfileRequest struct {
	CompanyName    string   `form:"company_name" json:"company_name" binding:"required,max=200"`
	LicenseNumber  string   `form:"license_number" json:"license_number" binding:"omitempty,max=100"`
	ServiceAreas   []string `form:"service_areas" json:"service_areas" binding:"omitempty,dive,max=100"`
	Specialties    []string `form:"specialties" json:"specialties" binding:"omitempty,dive,max=100"`
	Certifications []string `form:"certifications" json:"certifications" binding:"omitempty,dive,max=100"`
	PhoneNumber    string   `form:"phone_number" json:"phone_number" binding:"omitempty,max=30"`
}

type PayoutRequest struct {
	ProjectID    string `form:"project_id" json:"project_id" binding:"required,uuid"`
	ContractorID string `form:"contractor_id" json:"contractor_id" binding:"required,uuid"`
	AmountCents  int64  `form:"amount_cents" json:"amount_cents" binding:"required,gt=0"`
}

type LeadFilterQuery struct {
	Query     string `form:"query" binding:"omitempty,max=200"`
	MinBudget int64  `form:"min_budget" binding:"omitempty,min=0"`
	MaxBudget int64  `form:"max_budget" binding:"omitempty,min=0"`
	RoomType  string `form:"room_type" binding:"omitempty,room_type"`
}

// ToFilter converts dollar budgets to cents.
func (q LeadFilterQuery) ToFilter() LeadFilter {
	return LeadFilter{
		Query:          q.Query,
		MinBudgetCents: q.MinBudget * 100,
		MaxBudgetCents: q.MaxBudget * 100,
		RoomType:       q.RoomType,
		Limit:          100,
	}
}

type ARFrameRequest struct {
	Frame     string `json:"frame"`
	MIMEType  string `json:"mime_type,omitempty"`
	RoomLabel string `json:"room_label,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Mode      string `json:"mode,omitempty"`
}
