package derive

import (
	"fmt"

	"github.com/WessleyAI/vesbot/engine/provider"
	"github.com/golang-sql/civil"
)

type vedRate struct {
	maxCO2 int // inclusive, g/km
	band   string
	rate   int // pounds per year
}

// vedRates covers cars first registered between 1 March 2001 and
// 31 March 2017. Rows ascend by CO2; the last row catches everything above.
var vedRates = []vedRate{
	{100, "A", 20},
	{110, "B", 20},
	{120, "C", 35},
	{130, "D", 165},
	{140, "E", 195},
	{150, "F", 215},
	{165, "G", 265},
	{175, "H", 315},
	{185, "I", 345},
	{200, "J", 395},
	{225, "K", 430},
	{255, "L", 735},
	{999, "M", 760},
}

var (
	flatRateStart  = civil.Date{Year: 2017, Month: 4, Day: 1}
	bandKCapBefore = civil.Date{Year: 2006, Month: 3, Day: 23}
	co2RegimeStart = civil.Date{Year: 2001, Month: 3, Day: 1}
)

const (
	flatRate           = 195
	expensiveCarRate   = 620
	expensiveCarYears  = 5
	bandKCap           = 430
	importRate         = 345
	largeEngineRate    = 360
	smallEngineRate    = 220
	largeEngineMinimum = 1549 // cc
)

// TaxCost estimates annual Vehicle Excise Duty from registration date,
// CO2 emissions, engine capacity and import status.
func TaxCost(ves *provider.VESRecord, mot *provider.MOTRecord, today civil.Date) string {
	regDate, ok := registrationDate(ves, mot)
	if !ok {
		return Unknown
	}

	if ves.Imported() {
		if co2, ok := co2Of(ves); ok && co2 > 0 {
			return fmt.Sprintf("(TC39) £%d", importRate)
		}
		return capacityRate(ves, mot)
	}

	switch {
	case onOrAfter(regDate, flatRateStart):
		// The expensive-car supplement applies only in the first five years.
		if today.Before(addYears(regDate, expensiveCarYears)) {
			return fmt.Sprintf("£%d / £%d", flatRate, expensiveCarRate)
		}
		return fmt.Sprintf("£%d", flatRate)

	case onOrAfter(regDate, co2RegimeStart):
		co2, ok := co2Of(ves)
		if !ok {
			return Unknown
		}
		row := vedBand(co2)
		if regDate.Before(bandKCapBefore) && row.rate > bandKCap {
			return fmt.Sprintf("£%d (Band K cap)", bandKCap)
		}
		return fmt.Sprintf("£%d", row.rate)

	default:
		return capacityRate(ves, mot)
	}
}

func vedBand(co2 int) vedRate {
	for _, r := range vedRates {
		if co2 <= r.maxCO2 {
			return r
		}
	}
	return vedRates[len(vedRates)-1]
}

func co2Of(ves *provider.VESRecord) (int, bool) {
	if ves == nil {
		return 0, false
	}
	return provider.Int(ves.CO2Emissions)
}

// engineCapacity prefers the DVLA figure over the MOT engine size.
func engineCapacity(ves *provider.VESRecord, mot *provider.MOTRecord) (int, bool) {
	if ves != nil {
		if cc, ok := provider.Int(ves.EngineCapacity); ok {
			return cc, true
		}
	}
	if mot != nil {
		return mot.EngineSize.Int()
	}
	return 0, false
}

func capacityRate(ves *provider.VESRecord, mot *provider.MOTRecord) string {
	cc, ok := engineCapacity(ves, mot)
	if !ok {
		return Unknown
	}
	if cc >= largeEngineMinimum {
		return fmt.Sprintf("£%d", largeEngineRate)
	}
	return fmt.Sprintf("£%d", smallEngineRate)
}
