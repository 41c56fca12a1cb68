package provider

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Record is the parsed response of one successful provider call.
type Record interface {
	Source() Name
}

// Scalar is a JSON scalar kept in textual form, so "1598" and 1598 decode alike.
type Scalar string

func (s *Scalar) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err == nil {
		*s = Scalar(str)
		return nil
	}
	*s = Scalar(bytes.TrimSpace(b))
	return nil
}

// Int parses the scalar as a whole number.
func (s *Scalar) Int() (int, bool) {
	if s == nil {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(*s)))
	if err != nil {
		return 0, false
	}
	return n, true
}

func (s *Scalar) String() string {
	if s == nil {
		return ""
	}
	return string(*s)
}

// Str dereferences an optional string, returning "" when absent.
func Str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// Int dereferences an optional number.
func Int(p *int) (int, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}

// Bool dereferences an optional flag, treating absence as false.
func Bool(p *bool) bool {
	return p != nil && *p
}

// VESRecord is a DVLA Vehicle Enquiry Service response.
type VESRecord struct {
	RegistrationNumber           *string `json:"registrationNumber"`
	TaxStatus                    *string `json:"taxStatus"`
	TaxDueDate                   *string `json:"taxDueDate"`
	MOTStatus                    *string `json:"motStatus"`
	MOTExpiryDate                *string `json:"motExpiryDate"`
	Make                         *string `json:"make"`
	YearOfManufacture            *int    `json:"yearOfManufacture"`
	EngineCapacity               *int    `json:"engineCapacity"`
	CO2Emissions                 *int    `json:"co2Emissions"`
	FuelType                     *string `json:"fuelType"`
	MarkedForExport              *bool   `json:"markedForExport"`
	Colour                       *string `json:"colour"`
	TypeApproval                 *string `json:"typeApproval"`
	Wheelplan                    *string `json:"wheelplan"`
	RevenueWeight                *int    `json:"revenueWeight"`
	EuroStatus                   *string `json:"euroStatus"`
	DateOfLastV5CIssued          *string `json:"dateOfLastV5CIssued"`
	MonthOfFirstRegistration     *string `json:"monthOfFirstRegistration"`
	MonthOfFirstDVLARegistration *string `json:"monthOfFirstDvlaRegistration"`
}

func (*VESRecord) Source() Name { return VESName }

// Imported reports whether the vehicle was first registered abroad.
func (v *VESRecord) Imported() bool {
	return v != nil && Str(v.MonthOfFirstDVLARegistration) != ""
}

// MOTRecord is a DVSA MOT history response.
type MOTRecord struct {
	Registration         *string   `json:"registration"`
	Make                 *string   `json:"make"`
	Model                *string   `json:"model"`
	FirstUsedDate        *string   `json:"firstUsedDate"`
	FuelType             *string   `json:"fuelType"`
	PrimaryColour        *string   `json:"primaryColour"`
	RegistrationDate     *string   `json:"registrationDate"`
	ManufactureDate      *string   `json:"manufactureDate"`
	EngineSize           *Scalar   `json:"engineSize"`
	HasOutstandingRecall *string   `json:"hasOutstandingRecall"`
	MOTTests             []MOTTest `json:"motTests"`
}

func (*MOTRecord) Source() Name { return MOTName }

// Tests returns the MOT tests in provider order, most recent first.
func (m *MOTRecord) Tests() []MOTTest {
	if m == nil {
		return nil
	}
	return m.MOTTests
}

// MOTTest is one MOT test outcome.
type MOTTest struct {
	CompletedDate string   `json:"completedDate"`
	TestResult    string   `json:"testResult"`
	ExpiryDate    string   `json:"expiryDate"`
	OdometerValue Scalar   `json:"odometerValue"`
	OdometerUnit  string   `json:"odometerUnit"`
	MOTTestNumber string   `json:"motTestNumber"`
	Defects       []Defect `json:"defects"`
}

// Defect types reported by the MOT history service.
const (
	DefectAdvisory    = "ADVISORY"
	DefectMinor       = "MINOR"
	DefectMajor       = "MAJOR"
	DefectDangerous   = "DANGEROUS"
	DefectPRS         = "PRS"
	DefectFail        = "FAIL"
	DefectUserEntered = "USER ENTERED"
)

// Defect is one item recorded against an MOT test.
type Defect struct {
	Text      string `json:"text"`
	Type      string `json:"type"`
	Dangerous bool   `json:"dangerous"`
}

// EuroRecord carries the Euro emissions standard, e.g. "EURO 5".
type EuroRecord struct {
	EuroStatus *string `json:"euroStatus"`
}

func (*EuroRecord) Source() Name { return EuroName }

// MarketplaceRecord is a marketplace VRM lookup.
type MarketplaceRecord struct {
	Make             *string `json:"make"`
	Model            *string `json:"model"`
	DerivativeShort  *string `json:"derivativeShort"`
	DerivativeID     *string `json:"derivativeId"`
	VehicleType      *string `json:"vehicleType"`
	Scrapped         *bool   `json:"scrapped"`
	Stolen           *bool   `json:"stolen"`
	WriteOffCategory *string `json:"writeOffCategory"`
}

func (*MarketplaceRecord) Source() Name { return MarketplaceName }

// VINRecord is a plate-to-VIN lookup.
type VINRecord struct {
	VIN          *string `json:"vin"`
	Make         *string `json:"make"`
	Manufacturer *string `json:"manufacturer"`
	Model        *string `json:"model"`
	Description  *string `json:"description"`
	Colour       *string `json:"colour"`
	Year         *Scalar `json:"year"`
}

func (*VINRecord) Source() Name { return VINName }

// MakeName prefers the explicit make over the manufacturer.
func (v *VINRecord) MakeName() string {
	if v == nil {
		return ""
	}
	if m := Str(v.Make); m != "" {
		return m
	}
	return Str(v.Manufacturer)
}
