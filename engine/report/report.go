// Package report assembles the derived facts and raw provider fields of a
// lookup into the display record shown to users.
package report

import (
	"fmt"
	"strings"

	"github.com/WessleyAI/vesbot/engine/aggregate"
	"github.com/WessleyAI/vesbot/engine/derive"
	"github.com/WessleyAI/vesbot/engine/provider"
	"github.com/WessleyAI/vesbot/pkg/fn"
	"github.com/golang-sql/civil"
)

const (
	unknownMake  = "Unknown Make"
	unknownModel = "Unknown Model"
	noTrim       = "No trim level found"
)

// Field is one labelled value of the display record.
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Facts are the derived values behind the display fields, for API clients
// that do not want to parse the rendered strings.
type Facts struct {
	Make     string        `json:"make"`
	Model    string        `json:"model"`
	Trim     string        `json:"trim"`
	Year     string        `json:"year"`
	FuelType string        `json:"fuelType"`
	VIN      string        `json:"vin,omitempty"`
	Status   derive.Status `json:"status"`
	Tax      derive.Due    `json:"tax"`
	MOT      derive.Due    `json:"mot"`
	TaxCost  string        `json:"taxCost"`
	LEZ      derive.LEZ    `json:"lez"`
	Defects  string        `json:"defects"`
	LastV5C  string        `json:"lastV5c"`
	Imported bool          `json:"imported"`
	Recall   bool          `json:"outstandingRecall"`
}

// Report is the display record for one lookup.
type Report struct {
	LookupID     string            `json:"lookupId,omitempty"`
	Registration string            `json:"registration"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Color        int               `json:"color"`
	Fields       []Field           `json:"fields"`
	Footer       string            `json:"footer"`
	Facts        Facts             `json:"facts"`
	Sources      []provider.Name   `json:"sources"`
	Failures     map[string]string `json:"failures,omitempty"`
}

// Build derives every fact from res as of today and lays them out in the
// fixed field order.
func Build(res *aggregate.Result, today civil.Date) *Report {
	ves, mot, vin, mp := res.VES(), res.MOT(), res.VIN(), res.Marketplace()

	f := Facts{
		Make: firstOf(unknownMake,
			field(ves, func(v *provider.VESRecord) *string { return v.Make }),
			field(mot, func(m *provider.MOTRecord) *string { return m.Make }),
			vin.MakeName(),
			field(mp, func(m *provider.MarketplaceRecord) *string { return m.Make }),
		),
		Model: firstOf(unknownModel,
			field(mp, func(m *provider.MarketplaceRecord) *string { return m.Model }),
			field(mot, func(m *provider.MOTRecord) *string { return m.Model }),
			field(vin, func(v *provider.VINRecord) *string { return v.Model }),
		),
		Trim: firstOf(noTrim,
			field(mp, func(m *provider.MarketplaceRecord) *string { return m.DerivativeShort }),
			field(vin, func(v *provider.VINRecord) *string { return v.Description }),
		),
		FuelType: firstOf(derive.Unknown,
			field(mot, func(m *provider.MOTRecord) *string { return m.FuelType }),
			field(ves, func(v *provider.VESRecord) *string { return v.FuelType }),
		),
		Year:     derive.VehicleYear(ves, mot, vin),
		VIN:      field(vin, func(v *provider.VINRecord) *string { return v.VIN }),
		Status:   derive.VehicleStatus(mp, res.Registration),
		Tax:      derive.TaxStatus(ves, today),
		MOT:      derive.MOTStatus(ves, today),
		TaxCost:  derive.TaxCost(ves, mot, today),
		LEZ:      derive.LEZCompliance(ves, mot, res.Euro()),
		Defects:  derive.SummariseDefects(mot.Tests(), today.Year),
		LastV5C:  derive.LastV5C(ves, today),
		Imported: ves.Imported(),
		Recall:   derive.RecallStatus(mot) != "",
	}
	colour := derive.ColourEmoji(field(ves, func(v *provider.VESRecord) *string { return v.Colour }))

	vinValue := derive.Unknown
	if f.VIN != "" {
		vinValue = "`" + f.VIN + "`"
	}

	r := &Report{
		Registration: res.Registration.String(),
		Title:        title(colour, f.Year, f.Make, f.Model),
		Description:  derive.ImportStatus(ves) + derive.RecallStatus(mot) + f.Trim,
		Color:        f.Status.Color,
		Fields: []Field{
			{Name: "Vehicle Status", Value: f.Status.Label, Inline: true},
			{Name: "VIN", Value: vinValue, Inline: true},
			{Name: "Last V5C", Value: f.LastV5C, Inline: true},
			{Name: "Last 5 years:", Value: f.Defects},
			{Name: "Tax Status", Value: f.Tax.Status, Inline: true},
			{Name: "Tax Expiry", Value: f.Tax.Due, Inline: true},
			{Name: "Tax Cost", Value: f.TaxCost, Inline: true},
			{Name: "MOT Status", Value: f.MOT.Status, Inline: true},
			{Name: "MOT Expiry", Value: f.MOT.Due, Inline: true},
			{Name: f.LEZ.Title, Value: f.LEZ.Status, Inline: true},
		},
		Footer:  res.Registration.String() + res.FailureSummary(),
		Facts:   f,
		Sources: res.Sources(),
	}
	if len(res.Failures) > 0 {
		r.Failures = make(map[string]string, len(res.Failures))
		for name, err := range res.Failures {
			r.Failures[string(name)] = provider.Reason(err)
		}
	}
	return r
}

// Text renders the report for a terminal.
func (r *Report) Text() string {
	var b strings.Builder
	b.WriteString(r.Title + "\n")
	if r.Description != "" {
		b.WriteString(r.Description + "\n")
	}
	b.WriteString("\n")
	for _, f := range r.Fields {
		value := strings.TrimRight(f.Value, "\n")
		if strings.Contains(value, "\n") {
			fmt.Fprintf(&b, "%s\n  %s\n", f.Name, strings.ReplaceAll(value, "\n", "\n  "))
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", f.Name, value)
	}
	b.WriteString("\n" + r.Footer + "\n")
	return b.String()
}

func title(parts ...string) string {
	kept := fn.Filter(fn.Map(parts, strings.TrimSpace), func(p string) bool { return p != "" })
	return strings.Join(kept, " ")
}

// firstOf returns the first non-blank value, trimmed, or fallback.
func firstOf(fallback string, values ...string) string {
	if v, ok := fn.FirstNonZero(fn.Map(values, strings.TrimSpace)...); ok {
		return v
	}
	return fallback
}

// field reads an optional string from a possibly absent record.
func field[R any](r *R, get func(*R) *string) string {
	if r == nil {
		return ""
	}
	return provider.Str(get(r))
}
