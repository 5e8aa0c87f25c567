package models

import (
	"slices"

	"github.com/go-playground/validator/v10"
)

var RoomTypes = []string{
	"bathroom", "bedroom", "kitchen", "living_room", "hallway",
	"entrance", "stairs", "garage", "laundry", "outdoor",
}

var BudgetRanges = []string{
	"under_1000", "1000_5000", "5000_15000", "15000_50000", "over_50000",
}

var MobilityConcerns = []string{
	"wheelchair_access", "walker_use", "balance_issues", "limited_reach",
	"vision_impairment", "hearing_impairment", "arthritis",
	"cognitive_decline", "fatigue", "general_aging",
}

const DefaultMobilityConcern = "general_aging"

// RegisterValidations adds the domain enum tags (room_type, budget_range,
// mobility_concern, signup_role) to v.
func RegisterValidations(v *validator.Validate) error {
	rules := map[string][]string{
		"room_type":        RoomTypes,
		"budget_range":     BudgetRanges,
		"mobility_concern": MobilityConcerns,
		"signup_role":      {RoleHomeowner, RoleContractor},
	}
	for tag, allowed := range rules {
		allowed := allowed
		if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
			return slices.Contains(allowed, fl.Field().String())
		}); err != nil {
			return err
		}
	}
	return nil
}

// NewValidator returns a validator with the domain tags registered.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := RegisterValidations(v); err != nil {
		panic(err)
	}
	return v
}

// RoomLabel turns a room type key into a display label ("living_room" ->
// "Living Room").
func RoomLabel(roomType string) string {
	b := []byte(roomType)
	upper := true
	for i, c := range b {
		switch {
		case c == '_':
			b[i] = ' '
			upper = true
		case upper && c >= 'a' && c <= 'z':
			b[i] = c - 'a' + 'A'
			upper = false
		default:
			upper = false
		}
	}
	return string(b)
}
