package gemini

import (
	"fmt"
	"strings"
)

// BuildAnalysisPrompt renders the room analysis instructions for the given
// room type and mobility concerns.
func BuildAnalysisPrompt(roomType string, concerns []string, age int, budgetRange, context string) string {
	var b strings.Builder

	fmt.Fprintf(&b, `You are an expert aging-in-place home modification consultant. Analyze this %s image and provide detailed recommendations for modifications that will improve safety, accessibility, and independence for aging residents.

## Context
- Room Type: %s
- Mobility/Accessibility Concerns: %s`, roomType, roomType, strings.Join(concerns, ", "))

	if age > 0 {
		fmt.Fprintf(&b, "\n- Homeowner Age: %d years old", age)
	}
	if budgetRange != "" {
		fmt.Fprintf(&b, "\n- Budget Range: %s", budgetRange)
	}
	if context != "" {
		fmt.Fprintf(&b, "\n- Additional Context: %s", context)
	}

	b.WriteString(`

## Your Task
Carefully examine the image and provide:

1. **Safety Hazards**: Identify any immediate safety concerns (trip hazards, lack of support, poor lighting, etc.)

2. **Recommended Modifications**: For each modification, consider:
   - Specific location in the room
   - Priority level (critical for safety hazards, high for important improvements)
   - Realistic cost estimates based on current market rates
   - Whether it can be DIY or needs a contractor
   - Impact on safety and independence

3. **Positive Features**: Note any existing features that already support aging-in-place

4. **Overall Assessment**: Provide an accessibility score (1-10) and prioritized action plan

## Important Guidelines
- Be specific about locations (e.g., "left side of bathtub" not just "bathtub")
- Consider the actual layout shown in the image
- Provide realistic cost ranges based on current market rates
- Prioritize safety-critical items first
- Consider the specific mobility concerns mentioned
- Recommend professional installation for electrical, plumbing, or structural work

Analyze the image now and provide your detailed assessment.`)

	return b.String()
}

// BuildVisualizationPrompt renders the image-editing instructions for the
// listed modifications.
func BuildVisualizationPrompt(modifications []string) string {
	lines := make([]string, len(modifications))
	for i, m := range modifications {
		lines[i] = "- " + m
	}

	return `Edit this room image to show the following aging-in-place modifications professionally installed:

` + strings.Join(lines, "\n") + `

## Requirements
- Keep the EXACT same room layout, camera angle, perspective, and lighting
- Add the modifications in realistic, appropriate locations
- Make it photorealistic - this should look like a real "after" photo
- Modifications should look professionally installed
- Maintain the room's existing color scheme and aesthetic

## Specific Standards
- Grab bars: Stainless steel or chrome, mounted at 33-36 inches height
- Non-slip surfaces: Subtle texture change, realistic appearance
- Handrails: Wood or metal, proper height with secure wall mounting
- Walk-in features: Realistic tile/glass materials

Generate the modified room image now.`
}

const detectionPrompt = `You are an accessibility assessment AI analyzing a frame from a WebXR AR session.

TASK: Detect ALL accessibility-relevant objects and provide bounding boxes.

For each object, provide:
1. label: Descriptive name (e.g., "narrow_doorway_32in", "step_threshold_2in", "grab_bar_location")
2. box_2d: Bounding box as [ymin, xmin, ymax, xmax] normalized to 0-1000 scale
3. confidence: Your confidence in the detection (0.0-1.0)
4. accessibility_concern: Why this matters for accessibility
5. ada_compliant: Whether it meets ADA requirements
6. estimated_dimension_inches: Estimate dimensions using reference objects

ADA REQUIREMENTS TO CHECK:
- Doorways: minimum 32" clear width (36" preferred)
- Hallways: minimum 36" width (48" preferred for wheelchairs)
- Thresholds: maximum 1/2" height
- Grab bars: 33-36" mounting height, 1.25-1.5" diameter
- Toilet clearance: 60" turning radius
- Counter heights: 34" maximum for accessibility
- Light switches: 48" maximum height
- Outlets: 15" minimum height

OBJECTS TO DETECT:
- Doorways (measure width)
- Thresholds/steps (measure height)
- Stairs and handrails
- Bathroom fixtures (toilet, tub, shower)
- Grab bar mounting locations
- Flooring transitions
- Light switches and outlets
- Counters and cabinets
- Obstacles and trip hazards

Provide accurate bounding boxes for AR overlay rendering.`

const segmentationPrompt = `Segment all accessibility-relevant objects in this image.

For each object, provide:
- label: Descriptive name
- box_2d: [ymin, xmin, ymax, xmax] normalized to 0-1000
- mask_base64: Base64 encoded PNG segmentation mask within the bounding box
- accessibility_concern: Why this is relevant

Focus on objects that would need modification for aging-in-place:
doorways, thresholds, stairs, bathroom fixtures, flooring, etc.

Return precise contour masks for accurate AR overlay and measurement.`

// DetectionPrompt returns the AR frame prompt, with the room label appended
// when the scanner supplied one.
func DetectionPrompt(roomLabel string) string {
	if roomLabel == "" {
		return detectionPrompt
	}
	return detectionPrompt + "\n\nThe user reports this frame shows a " + roomLabel + "."
}
