package derive

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/WessleyAI/vesbot/engine/provider"
)

const (
	NoMOTHistory = "❔ No MOT history"
	NoMOTFails   = "✅ No MOT fails"

	defectWindowYears = 5
	otherCategory     = "Other"
)

type defectCategory struct {
	marker string
	name   string
}

// defectCategories maps the inspection manual section that prefixes each
// defect reference, e.g. "(1.1.13 (a))", to its section title.
var defectCategories = []defectCategory{
	{"(0", "Identification of the vehicle"},
	{"(1", "Brakes"},
	{"(2", "Steering"},
	{"(3", "Visibility"},
	{"(4", "Lamps, reflectors and electrical equipment"},
	{"(5", "Axles, wheels, tyres and suspension"},
	{"(6", "Body, structure and attachments"},
	{"(7", "SRS, ESC, electrical equipment"},
	{"(8", "Noise, emissions, EML"},
	{"(9", "Supplementary tests for buses and coaches"},
}

// failingDefect reports whether a defect type fails the test.
func failingDefect(typ string) bool {
	switch typ {
	case provider.DefectMajor, provider.DefectDangerous, provider.DefectPRS:
		return true
	}
	return false
}

// categoryOf returns the category whose marker occurs earliest in text.
func categoryOf(text string) string {
	best, at := otherCategory, -1
	for _, c := range defectCategories {
		if i := strings.Index(text, c.marker); i >= 0 && (at < 0 || i < at) {
			best, at = c.name, i
		}
	}
	return best
}

// SummariseDefects lists failing defects per test year, newest first,
// covering tests up to five years before currentYear. Tests are expected
// most recent first; the scan stops at the first test outside the window.
func SummariseDefects(tests []provider.MOTTest, currentYear int) string {
	if len(tests) == 0 {
		return NoMOTHistory
	}

	var b strings.Builder
	for _, test := range tests {
		year, ok := testYear(test.CompletedDate)
		if !ok {
			continue
		}
		if currentYear-year > defectWindowYears {
			break
		}

		var order []string
		counts := make(map[string]int)
		for _, d := range test.Defects {
			if !failingDefect(d.Type) {
				continue
			}
			cat := categoryOf(d.Text)
			if counts[cat] == 0 {
				order = append(order, cat)
			}
			counts[cat]++
		}
		if len(order) == 0 {
			continue
		}

		parts := make([]string, len(order))
		for i, cat := range order {
			parts[i] = fmt.Sprintf("%dx %s", counts[cat], cat)
		}
		fmt.Fprintf(&b, "%d - %s\n", year, strings.Join(parts, ", "))
	}

	if b.Len() == 0 {
		return NoMOTFails
	}
	return b.String()
}

func testYear(completed string) (int, bool) {
	if len(completed) < 4 {
		return 0, false
	}
	y, err := strconv.Atoi(completed[:4])
	if err != nil {
		return 0, false
	}
	return y, true
}
