package models

import "fmt"

// SeverityClass is a wheat rust resistance/severity label.
type SeverityClass string

const (
	ClassImmune SeverityClass = "Immune"
	ClassR      SeverityClass = "R"    // resistant
	ClassRMR    SeverityClass = "RMR"  // resistant to moderately resistant
	ClassMR     SeverityClass = "MR"   // moderately resistant
	ClassMRMS   SeverityClass = "MRMS" // moderately resistant to moderately susceptible
	ClassMS     SeverityClass = "MS"   // moderately susceptible
	ClassMSS    SeverityClass = "MSS"  // moderately susceptible to susceptible
	ClassS      SeverityClass = "S"    // susceptible
)

// Classes lists every label the analysis service can emit, ordered from
// most resistant to most susceptible.
var Classes = []SeverityClass{
	ClassImmune, ClassR, ClassRMR, ClassMR, ClassMRMS, ClassMS, ClassMSS, ClassS,
}

// DashboardClasses are the classes plotted on the results dashboard.
var DashboardClasses = []SeverityClass{ClassR, ClassMR, ClassMS, ClassS, ClassRMR, ClassMRMS}

var classDescriptions = map[SeverityClass]string{
	ClassImmune: "Immune",
	ClassR:      "Resistant",
	ClassRMR:    "Resistant to moderately resistant",
	ClassMR:     "Moderately resistant",
	ClassMRMS:   "Moderately resistant to moderately susceptible",
	ClassMS:     "Moderately susceptible",
	ClassMSS:    "Moderately susceptible to susceptible",
	ClassS:      "Susceptible",
}

// ParseSeverityClass returns the class for a label, or an error for labels
// the service is not known to produce.
func ParseSeverityClass(s string) (SeverityClass, error) {
	c := SeverityClass(s)
	if _, ok := classDescriptions[c]; !ok {
		return "", fmt.Errorf("unknown severity class %q", s)
	}
	return c, nil
}

// Valid reports whether c is a known class.
func (c SeverityClass) Valid() bool {
	_, ok := classDescriptions[c]
	return ok
}

// Description returns the long form of the class label.
func (c SeverityClass) Description() string {
	if d, ok := classDescriptions[c]; ok {
		return d
	}
	return string(c)
}
