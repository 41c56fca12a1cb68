package derive

import (
	"github.com/WessleyAI/vesbot/engine/provider"
	"github.com/golang-sql/civil"
)

// Due is a licensing status with its phrased due date.
type Due struct {
	Status string `json:"status"`
	Due    string `json:"due"`
}

const taxStatusSORN = "SORN"

// TaxStatus phrases the vehicle tax status and due date. A SORN vehicle
// has no due date.
func TaxStatus(ves *provider.VESRecord, today civil.Date) Due {
	if ves == nil || provider.Str(ves.TaxStatus) == "" {
		return Due{Status: Unknown, Due: Unknown}
	}
	status := provider.Str(ves.TaxStatus)
	if status == taxStatusSORN {
		return Due{Status: status, Due: "N/A"}
	}
	return Due{Status: status, Due: duePhrase(provider.Str(ves.TaxDueDate), today)}
}

// MOTStatus phrases the MOT status and expiry.
func MOTStatus(ves *provider.VESRecord, today civil.Date) Due {
	if ves == nil || provider.Str(ves.MOTStatus) == "" {
		return Due{Status: Unknown, Due: Unknown}
	}
	return Due{Status: provider.Str(ves.MOTStatus), Due: duePhrase(provider.Str(ves.MOTExpiryDate), today)}
}

func duePhrase(raw string, today civil.Date) string {
	due, ok := parseDate(raw)
	if !ok {
		return Unknown
	}
	switch {
	case due == today:
		return "Expires today"
	case due.After(today):
		return "Expires " + RelativeDistance(today, due)
	default:
		return "Expired " + RelativeDistance(today, due)
	}
}
