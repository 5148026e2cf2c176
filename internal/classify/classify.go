// Package classify assigns discovered companies to an outreach category.
package classify

import (
	"strconv"
	"strings"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/textmatch"
)

const (
	// DefaultEmployeeEstimate is used when no staff count can be parsed.
	DefaultEmployeeEstimate = 10

	// SmallCompanyMaxEmployees is the largest headcount still treated as a startup.
	SmallCompanyMaxEmployees = 50
)

// researchMarkers flag universities and research organisations by name or description.
var researchMarkers = []string{"university", "research", "institute"}

// Classify returns the category for c. First match wins:
// research markers, then headcount <= 50, then everything else.
func Classify(c model.Company) model.Category {
	if isResearch(c) {
		return model.CategoryResearchInstitute
	}
	if EmployeeEstimate(c) <= SmallCompanyMaxEmployees {
		return model.CategoryStartupSmall
	}
	return model.CategoryEstablishedBig
}

func isResearch(c model.Company) bool {
	name := textmatch.Fold(c.Name)
	desc := textmatch.Fold(c.Description)
	for _, m := range researchMarkers {
		if strings.Contains(name, m) || strings.Contains(desc, m) {
			return true
		}
	}
	return strings.Contains(desc, "research institution")
}

// EmployeeEstimate returns the numeric headcount used for classification:
// the enrichment estimate when present, otherwise the lower bound of the
// discovery range string, otherwise DefaultEmployeeEstimate.
func EmployeeEstimate(c model.Company) int {
	if c.EmployeeEstimate != nil && *c.EmployeeEstimate > 0 {
		return *c.EmployeeEstimate
	}
	if n, ok := ParseEmployeeCount(c.EmployeeCount); ok {
		return n
	}
	return DefaultEmployeeEstimate
}

// ParseEmployeeCount extracts the lower bound from strings such as "51-200",
// "10,001+", "1001-5000 employees" or "37". Reports false when no number is present.
func ParseEmployeeCount(s string) (int, bool) {
	start := strings.IndexFunc(s, isASCIIDigit)
	if start < 0 {
		return 0, false
	}

	var digits strings.Builder
scan:
	for _, r := range s[start:] {
		switch {
		case isASCIIDigit(r):
			digits.WriteRune(r)
		case r == ',':
			// thousands separator
		default:
			break scan
		}
	}

	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0, false
	}
	return n, true
}

func isASCIIDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
