package model

import "strings"

// ActivityTypeInfo carries display metadata and vendor vocabulary for one
// activity type.
type ActivityTypeInfo struct {
	Key     ActivityType
	Label   string
	Aliases []string // vendor export spellings that map to this type
}

// ActivityTypes lists every known activity type in display order.
var ActivityTypes = []ActivityTypeInfo{
	{Key: TypeBasketball, Label: "Basketball", Aliases: []string{"Basketball"}},
	{Key: TypeYoga, Label: "Yoga", Aliases: []string{"Yoga"}},
	{Key: TypeOpenWaterSwimming, Label: "Open Water Swimming", Aliases: []string{"Open Water Swimming", "Open Water"}},
	{Key: TypeWeightlifting, Label: "Weightlifting", Aliases: []string{"Strength Training", "Strength", "Weightlifting"}},
	{Key: TypeRunning, Label: "Running", Aliases: []string{"Running", "Trail Running", "Treadmill Running"}},
	{Key: TypeCycling, Label: "Cycling", Aliases: []string{"Cycling", "Road Cycling", "Mountain Biking", "Indoor Cycling"}},
	{Key: TypeOther, Label: "Other"},
}

// ResolveActivityType maps a vendor type string to the closed enumeration.
// Matching is case-insensitive against each type's alias list. Unknown or
// blank values map to TypeOther; resolution never fails.
func ResolveActivityType(raw string) ActivityType {
	trimmed := strings.TrimSpace(raw)
	for _, info := range ActivityTypes {
		for _, alias := range info.Aliases {
			if strings.EqualFold(alias, trimmed) {
				return info.Key
			}
		}
	}
	return TypeOther
}

// ValidActivityType reports whether t is one of the closed enumeration values.
func ValidActivityType(t ActivityType) bool {
	for _, info := range ActivityTypes {
		if info.Key == t {
			return true
		}
	}
	return false
}

// TypeLabel returns the display label for an activity type, or "" if the
// type is not in the enumeration.
func TypeLabel(t ActivityType) string {
	for _, info := range ActivityTypes {
		if info.Key == t {
			return info.Label
		}
	}
	return ""
}

// ValidPainCategory reports whether c is a known pain category.
func ValidPainCategory(c PainCategory) bool {
	return c == PainBack || c == PainKnee
}
