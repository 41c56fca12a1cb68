package derive

import (
	"strconv"
	"strings"
	"time"

	"github.com/WessleyAI/vesbot/engine/provider"
	"github.com/golang-sql/civil"
)

// ImportStatus flags vehicles first registered outside Great Britain.
func ImportStatus(ves *provider.VESRecord) string {
	if ves.Imported() {
		return "**Imported vehicle**\n"
	}
	return ""
}

// RecallStatus flags an outstanding manufacturer recall.
func RecallStatus(mot *provider.MOTRecord) string {
	if mot != nil && strings.EqualFold(provider.Str(mot.HasOutstandingRecall), "yes") {
		return "**Outstanding recall**\n"
	}
	return ""
}

// LastV5C phrases when the registration certificate was last issued,
// followed by the date as dd/mm/yyyy.
func LastV5C(ves *provider.VESRecord, today civil.Date) string {
	if ves == nil {
		return Unknown
	}
	issued, ok := parseDate(provider.Str(ves.DateOfLastV5CIssued))
	if !ok {
		return Unknown
	}
	return RelativeDistance(today, issued) + "\n" + issued.In(time.UTC).Format("02/01/2006")
}

var colourEmoji = map[string]string{
	"WHITE":  "⚪️",
	"SILVER": "⚪️",
	"BLACK":  "⚫️",
	"RED":    "🔴",
	"BLUE":   "🔵",
	"BROWN":  "🟤",
	"ORANGE": "🟠",
	"GREEN":  "🟢",
	"YELLOW": "🟡",
	"PURPLE": "🟣",
}

// ColourEmoji maps a DVLA colour to an emoji, returning unmapped colours unchanged.
func ColourEmoji(colour string) string {
	if e, ok := colourEmoji[strings.ToUpper(strings.TrimSpace(colour))]; ok {
		return e
	}
	return colour
}

// VehicleYear resolves the year of manufacture: MOT manufacture date,
// then the DVLA year, then the VIN lookup.
func VehicleYear(ves *provider.VESRecord, mot *provider.MOTRecord, vin *provider.VINRecord) string {
	if mot != nil {
		if y, ok := testYear(provider.Str(mot.ManufactureDate)); ok {
			return strconv.Itoa(y)
		}
	}
	if ves != nil {
		if y, ok := provider.Int(ves.YearOfManufacture); ok {
			return strconv.Itoa(y)
		}
	}
	if vin != nil {
		if y, ok := vin.Year.Int(); ok {
			return strconv.Itoa(y)
		}
	}
	return "Unknown Year"
}
