package derive

import (
	"strings"

	"github.com/WessleyAI/vesbot/engine/domain"
	"github.com/WessleyAI/vesbot/engine/provider"
)

// Embed colours for the vehicle status.
const (
	ColourUnknown = 0x0000ff
	ColourClean   = 0x00b67a
	ColourAlert   = 0xb11212
)

// Status is the headline vehicle status and its display colour.
type Status struct {
	Label string `json:"label"`
	Color int    `json:"color"`
}

// VehicleStatus classifies the vehicle from the marketplace record.
// Flags appear in a fixed order: Q plate, stolen, scrapped, write-off.
func VehicleStatus(m *provider.MarketplaceRecord, reg domain.Registration) Status {
	if m == nil || reg.IsZero() {
		return Status{Label: Unknown, Color: ColourUnknown}
	}

	var flags []string
	if reg.QPlate() {
		flags = append(flags, "**Q Plate**")
	}
	if provider.Bool(m.Stolen) {
		flags = append(flags, "**Stolen**")
	}
	if provider.Bool(m.Scrapped) {
		flags = append(flags, "**Scrapped**")
	}
	if cat := provider.Str(m.WriteOffCategory); cat != "" && !strings.EqualFold(cat, "none") {
		flags = append(flags, "**Write-off - CAT "+cat+"**")
	}

	if len(flags) == 0 {
		return Status{Label: "Clean ✨", Color: ColourClean}
	}
	return Status{Label: strings.Join(flags, ", "), Color: ColourAlert}
}
