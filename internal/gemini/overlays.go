package gemini

import (
	"strings"

	"homease-backend/internal/models"
)

const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
	SeverityOK       = "ok"
)

var severityColors = map[string]string{
	SeverityCritical: "#FF0000",
	SeverityHigh:     "#FF6600",
	SeverityMedium:   "#FFCC00",
	SeverityLow:      "#00CC00",
	SeverityOK:       "#00FF00",
}

// adaRequirements is checked in order; the first keyword contained in the
// label wins.
var adaRequirements = []struct {
	keyword     string
	requirement string
}{
	{"doorway", `Min 32" clear width (36" preferred)`},
	{"threshold", `Max 1/2" height`},
	{"hallway", `Min 36" width (48" for wheelchairs)`},
	{"grab_bar", `33-36" height, 1.25-1.5" diameter`},
	{"toilet", `60" turning radius clearance`},
	{"counter", `Max 34" height for accessibility`},
	{"switch", `Max 48" height`},
	{"outlet", `Min 15" height`},
}

// Severity grades a detected object from its compliance flag and label.
func Severity(obj models.DetectedObject) string {
	if obj.ADACompliant {
		return SeverityOK
	}

	label := strings.ToLower(obj.Label)
	switch {
	case containsAny(label, "blocked", "no_access"):
		return SeverityCritical
	case containsAny(label, "step", "threshold", "trip", "narrow"):
		return SeverityHigh
	case containsAny(label, "height", "reach", "grip"):
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func SeverityColor(severity string) string {
	return severityColors[severity]
}

// ADARequirement returns the ADA rule relevant to a label, or "".
func ADARequirement(label string) string {
	label = strings.ToLower(label)
	for _, r := range adaRequirements {
		if strings.Contains(label, r.keyword) {
			return r.requirement
		}
	}
	return ""
}

// Overlays converts detected objects into AR overlay boxes.
func Overlays(objects []models.DetectedObject) []models.AROverlay {
	overlays := make([]models.AROverlay, 0, len(objects))
	for _, obj := range objects {
		severity := Severity(obj)
		kind := "barrier"
		if obj.ADACompliant {
			kind = "compliant"
		}
		overlays = append(overlays, models.AROverlay{
			Type:           kind,
			Box2D:          obj.Box2D,
			Label:          obj.Label,
			Severity:       severity,
			Color:          SeverityColor(severity),
			Description:    obj.AccessibilityConcern,
			ADARequirement: ADARequirement(obj.Label),
		})
	}
	return overlays
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
