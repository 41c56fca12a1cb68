package derive

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/WessleyAI/vesbot/engine/provider"
	"github.com/golang-sql/civil"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// LEZ is the estimated London Low Emission Zone compliance.
type LEZ struct {
	Title  string `json:"title"`
	Status string `json:"status"`
}

const (
	lezCompliant    = "LEZ ✅"
	lezNonCompliant = "LEZ ❌"
	lezPotential    = "LEZ ✅⚠️"
	lezUnknown      = "LEZ ❓"

	fuelPetrol         = "Petrol"
	fuelDiesel         = "Diesel"
	fuelElectricity    = "Electricity"
	fuelHybridElectric = "Hybrid Electric"

	euroStatusNone = "None"
)

var (
	euro4Introduced = civil.Date{Year: 2005, Month: 1, Day: 1}
	euro4Mandatory  = civil.Date{Year: 2006, Month: 1, Day: 1}
	euro6Introduced = civil.Date{Year: 2015, Month: 9, Day: 1}
	euro6Mandatory  = civil.Date{Year: 2016, Month: 9, Day: 1}
)

var euroStandard = regexp.MustCompile(`[1-6]`)

// titleCase builds a fresh Caser per call; Casers are not safe to share.
func titleCase(s string) string {
	return cases.Title(language.BritishEnglish).String(strings.ToLower(s))
}

// LEZCompliance estimates LEZ compliance. A known Euro standard decides
// outright; otherwise the registration date is compared with the dates the
// relevant standard was introduced and made mandatory.
func LEZCompliance(ves *provider.VESRecord, mot *provider.MOTRecord, euro *provider.EuroRecord) LEZ {
	fuel := fuelType(ves, mot)
	if fuel == "" {
		return LEZ{Title: lezUnknown, Status: Unknown}
	}
	if fuel == fuelElectricity || fuel == fuelHybridElectric {
		return LEZ{Title: lezCompliant, Status: fuel}
	}

	if status, n, ok := euroStatus(euro); ok && (fuel == fuelPetrol || fuel == fuelDiesel) {
		label := euroLabel(status) + " " + fuel
		if (fuel == fuelPetrol && n >= 4) || (fuel == fuelDiesel && n == 6) {
			return LEZ{Title: lezCompliant, Status: label + "\nCompliant"}
		}
		return LEZ{Title: lezNonCompliant, Status: label + "\nNon-compliant"}
	}

	regDate, ok := registrationDate(ves, mot)
	if !ok {
		return LEZ{Title: lezUnknown, Status: Unknown}
	}
	switch fuel {
	case fuelPetrol:
		return estimate(regDate, fuel, "4", euro4Introduced, euro4Mandatory, "Euro 3/4")
	case fuelDiesel:
		return estimate(regDate, fuel, "6", euro6Introduced, euro6Mandatory, "Euro 5/6")
	}
	return LEZ{Title: lezUnknown, Status: Unknown}
}

func estimate(regDate civil.Date, fuel, standard string, introduced, mandatory civil.Date, transition string) LEZ {
	switch {
	case onOrAfter(regDate, mandatory):
		return LEZ{Title: lezCompliant, Status: "Post-Euro " + standard + " " + fuel + "\nCompliant"}
	case onOrAfter(regDate, introduced):
		return LEZ{Title: lezPotential, Status: transition + " " + fuel + "\nPotentially compliant"}
	default:
		return LEZ{Title: lezNonCompliant, Status: "Pre-Euro " + standard + " " + fuel + "\nNon-compliant"}
	}
}

// fuelType normalises the DVLA or MOT fuel type to title case.
func fuelType(ves *provider.VESRecord, mot *provider.MOTRecord) string {
	var raw string
	if ves != nil {
		raw = provider.Str(ves.FuelType)
	}
	if raw == "" && mot != nil {
		raw = provider.Str(mot.FuelType)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	return titleCase(raw)
}

// euroLabel keeps the provider's status text, suffixes such as "6d-TEMP"
// included, and only normalises a shouted leading "EURO".
func euroLabel(status string) string {
	if len(status) >= 4 && strings.EqualFold(status[:4], "euro") {
		return "Euro" + status[4:]
	}
	return status
}

// euroStatus returns the Euro status text and its standard number.
func euroStatus(euro *provider.EuroRecord) (string, int, bool) {
	if euro == nil {
		return "", 0, false
	}
	status := strings.TrimSpace(provider.Str(euro.EuroStatus))
	if status == "" || strings.EqualFold(status, euroStatusNone) {
		return "", 0, false
	}
	digit := euroStandard.FindString(status)
	if digit == "" {
		return "", 0, false
	}
	n, _ := strconv.Atoi(digit)
	return status, n, true
}
