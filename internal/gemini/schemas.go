package gemini

import "google.golang.org/genai"

func str(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: desc}
}

func strEnum(desc string, values ...string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: desc, Enum: values}
}

func strList(desc string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Description: desc, Items: &genai.Schema{Type: genai.TypeString}}
}

var modificationSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"name":                 str("Name of the modification (e.g., 'Grab Bar Installation')"),
		"category":             str("Category: grab_bars, ramps, lighting, flooring, door_widening, lever_handles, raised_toilet, walk_in_shower, stair_lift, handrails, non_slip_surfaces, smart_home, seating, storage, other"),
		"priority":             strEnum("Priority level - critical for safety hazards, high for important improvements", "critical", "high", "medium", "low"),
		"description":          str("Detailed description of the modification and why it's needed"),
		"location":             str("Specific location in the room (e.g., 'left side of bathtub at 36 inches height')"),
		"estimated_cost_range": str("Estimated cost range (e.g., '$200-$500')"),
		"diy_possible":         {Type: genai.TypeBoolean, Description: "Whether this can be a DIY project for someone handy"},
		"contractor_type":      str("Type of contractor needed if not DIY (e.g., 'plumber', 'electrician', 'general contractor')"),
		"safety_impact":        str("How this modification improves safety"),
		"independence_impact":  str("How this modification improves independence and quality of life"),
	},
	Required: []string{
		"name", "category", "priority", "description", "location", "estimated_cost_range",
		"diy_possible", "contractor_type", "safety_impact", "independence_impact",
	},
}

var safetyHazardSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"hazard":           str("Clear description of the safety hazard"),
		"location":         str("Exact location of the hazard in the room"),
		"severity":         strEnum("Severity level - high means immediate risk of injury", "high", "medium", "low"),
		"immediate_action": str("Recommended immediate action to mitigate the hazard"),
	},
	Required: []string{"hazard", "location", "severity", "immediate_action"},
}

// RoomAnalysisSchema is the response schema of the room analysis call.
var RoomAnalysisSchema = &genai.Schema{
	Type:        genai.TypeObject,
	Description: "Complete aging-in-place assessment for a room",
	Properties: map[string]*genai.Schema{
		"room_type":           str("Type of room analyzed"),
		"accessibility_score": {Type: genai.TypeInteger, Description: "Accessibility score from 1 (poor) to 10 (excellent)"},
		"summary":             str("Brief 2-3 sentence summary of key findings and recommendations"),
		"safety_hazards": {
			Type:        genai.TypeArray,
			Items:       safetyHazardSchema,
			Description: "List of identified safety hazards that need attention",
		},
		"modifications": {
			Type:        genai.TypeArray,
			Items:       modificationSchema,
			Description: "List of recommended modifications in priority order",
		},
		"positive_features":    strList("Existing features that already support aging-in-place"),
		"estimated_total_cost": str("Total estimated cost range for all modifications (e.g., '$2,000-$5,000')"),
		"priority_order":       strList("Names of modifications in recommended priority order"),
	},
	Required: []string{
		"room_type", "accessibility_score", "summary", "safety_hazards", "modifications",
		"positive_features", "estimated_total_cost", "priority_order",
	},
}

var detectedObjectSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"label": str("Descriptive label (e.g., 'narrow_doorway', 'step_threshold', 'bathtub_edge')"),
		"box_2d": {
			Type:        genai.TypeArray,
			Items:       &genai.Schema{Type: genai.TypeInteger},
			Description: "[ymin, xmin, ymax, xmax] normalized to 0-1000",
		},
		"confidence":            {Type: genai.TypeNumber, Description: "Detection confidence 0.0-1.0"},
		"accessibility_concern": str("Why this object is relevant for accessibility assessment"),
		"ada_compliant":         {Type: genai.TypeBoolean, Description: "Whether this meets ADA requirements"},
		"estimated_dimension_inches": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"width":  {Type: genai.TypeNumber},
				"height": {Type: genai.TypeNumber},
				"depth":  {Type: genai.TypeNumber},
			},
			Description: "Estimated dimensions based on reference objects",
		},
	},
	Required: []string{"label", "box_2d", "confidence", "accessibility_concern", "ada_compliant"},
}

// FrameDetectionSchema is the response schema of the AR frame detection call.
var FrameDetectionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"objects": {
			Type:        genai.TypeArray,
			Items:       detectedObjectSchema,
			Description: "All detected accessibility-relevant objects",
		},
		"ada_issues":          strList("List of ADA compliance issues found"),
		"accessibility_score": {Type: genai.TypeInteger, Description: "Overall accessibility score 0-100"},
		"frame_summary":       str("Brief summary of what's in this frame"),
	},
	Required: []string{"objects", "ada_issues", "accessibility_score", "frame_summary"},
}
