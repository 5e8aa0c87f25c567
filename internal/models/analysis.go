package models

// RoomAnalysis is the structured aging-in-place assessment returned by the
// analysis model and stored verbatim in ar_assessments.ai_analysis.
type RoomAnalysis struct {
	RoomType           string         `json:"room_type"`
	AccessibilityScore int            `json:"accessibility_score"`
	Summary            string         `json:"summary"`
	SafetyHazards      []SafetyHazard `json:"safety_hazards"`
	Modifications      []Modification `json:"modifications"`
	PositiveFeatures   []string       `json:"positive_features"`
	EstimatedTotalCost string         `json:"estimated_total_cost"`
	PriorityOrder      []string       `json:"priority_order"`
}

type SafetyHazard struct {
	Hazard          string `json:"hazard"`
	Location        string `json:"location"`
	Severity        string `json:"severity"`
	ImmediateAction string `json:"immediate_action"`
}

type Modification struct {
	Name               string `json:"name"`
	Category           string `json:"category"`
	Priority           string `json:"priority"`
	Description        string `json:"description"`
	Location           string `json:"location"`
	EstimatedCostRange string `json:"estimated_cost_range"`
	DIYPossible        bool   `json:"diy_possible"`
	ContractorType     string `json:"contractor_type"`
	SafetyImpact       string `json:"safety_impact"`
	IndependenceImpact string `json:"independence_impact"`
}

// TopModificationNames returns the names of the first n modifications.
func (a *RoomAnalysis) TopModificationNames(n int) []string {
	names := make([]string, 0, n)
	for _, m := range a.Modifications {
		if len(names) == n {
			break
		}
		if m.Name != "" {
			names = append(names, m.Name)
		}
	}
	return names
}

// AnalysisOptions are the optional inputs to a room analysis.
type AnalysisOptions struct {
	HomeownerAge      int
	BudgetRange       string
	AdditionalContext string
}

// Visualization is an edited "after" image produced from a room photo.
type Visualization struct {
	Image       []byte
	MIMEType    string
	Description string
}

// Dimensions are estimated sizes of a detected object in inches.
type Dimensions struct {
	Width  *float64 `json:"width,omitempty"`
	Height *float64 `json:"height,omitempty"`
	Depth  *float64 `json:"depth,omitempty"`
}

type DetectedObject struct {
	Label                    string      `json:"label"`
	Box2D                    []int       `json:"box_2d"`
	Confidence               float64     `json:"confidence"`
	AccessibilityConcern     string      `json:"accessibility_concern"`
	ADACompliant             bool        `json:"ada_compliant"`
	EstimatedDimensionInches *Dimensions `json:"estimated_dimension_inches,omitempty"`
}

// AROverlay is a single box rendered over the live camera frame.
type AROverlay struct {
	Type           string `json:"type"`
	Box2D          []int  `json:"box_2d"`
	Label          string `json:"label"`
	Severity       string `json:"severity"`
	Color          string `json:"color"`
	Description    string `json:"description"`
	ADARequirement string `json:"ada_requirement,omitempty"`
}

type FrameDetection struct {
	Objects            []DetectedObject `json:"objects"`
	Overlays           []AROverlay      `json:"overlays"`
	ADAIssues          []string         `json:"ada_issues"`
	AccessibilityScore int              `json:"accessibility_score"`
	FrameSummary       string           `json:"frame_summary"`
}

type SegmentationMask struct {
	Label                string `json:"label"`
	Box2D                []int  `json:"box_2d"`
	MaskBase64           string `json:"mask_base64"`
	AccessibilityConcern string `json:"accessibility_concern"`
}

type Segmentation struct {
	Segments               []SegmentationMask `json:"segments"`
	RoomDimensionsEstimate *struct {
		WidthFeet *float64 `json:"width_feet,omitempty"`
		DepthFeet *float64 `json:"depth_feet,omitempty"`
	} `json:"room_dimensions_estimate,omitempty"`
}
