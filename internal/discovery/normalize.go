package discovery

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// Item is one raw company record from the search actor. Several actors
// publish the same data under different keys; both spellings are accepted.
type Item struct {
	Name               string          `json:"name"`
	CompanyName        string          `json:"companyName"`
	Website            string          `json:"website"`
	Domain             string          `json:"domain"`
	URL                string          `json:"url"`
	LinkedInURL        string          `json:"linkedinUrl"`
	Description        string          `json:"description"`
	Headquarters       json.RawMessage `json:"headquarters"`
	EmployeeCountRange json.RawMessage `json:"employeeCountRange"`
	EmployeeCount      json.RawMessage `json:"employeeCount"`
	StaffCount         *int            `json:"staffCount"`
	Industry           string          `json:"industry"`
	Industries         []string        `json:"industries"`
	Specialities       []string        `json:"specialities"`
	Specialties        []string        `json:"specialties"`
	FollowerCount      int             `json:"followerCount"`
	Logo               string          `json:"logo"`
	LogoURL            string          `json:"logoUrl"`
}

type hqObject struct {
	City    string `json:"city"`
	Region  string `json:"geographicArea"`
	Country string `json:"country"`
}

type rangeObject struct {
	Start *int `json:"start"`
	End   *int `json:"end"`
}

// Normalize converts an actor item into a Company. Items without a name are
// rejected.
func Normalize(it Item) (model.Company, bool) {
	name := strings.TrimSpace(firstNonEmpty(it.Name, it.CompanyName))
	if name == "" {
		return model.Company{}, false
	}

	specialties := it.Specialities
	if len(specialties) == 0 {
		specialties = it.Specialties
	}
	industry := it.Industry
	if industry == "" && len(it.Industries) > 0 {
		industry = it.Industries[0]
	}

	return model.Company{
		Name:          name,
		Domain:        NormalizeDomain(firstNonEmpty(it.Domain, it.Website)),
		SourceURL:     firstNonEmpty(it.LinkedInURL, it.URL),
		Description:   strings.TrimSpace(it.Description),
		Headquarters:  headquarters(it.Headquarters),
		EmployeeCount: employeeCount(it),
		Industry:      industry,
		Specialties:   specialties,
		FollowerCount: it.FollowerCount,
		LogoURL:       firstNonEmpty(it.LogoURL, it.Logo),
	}, true
}

// NormalizeDomain reduces a website to its bare host: no scheme, no "www.",
// no port or path. Returns "" when nothing usable remains.
func NormalizeDomain(raw string) string {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	if !strings.Contains(host, ".") {
		return ""
	}
	return host
}

// employeeCount keeps a reported range verbatim, renders a numeric count as
// a string, and falls back to "Unknown".
func employeeCount(it Item) string {
	if s := rangeString(it.EmployeeCountRange); s != "" {
		return s
	}
	if s := rangeString(it.EmployeeCount); s != "" {
		return s
	}
	if it.StaffCount != nil && *it.StaffCount > 0 {
		return strconv.Itoa(*it.StaffCount)
	}
	return model.UnknownEmployeeCount
}

func rangeString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		if n <= 0 {
			return ""
		}
		return strconv.Itoa(n)
	}
	var r rangeObject
	if err := json.Unmarshal(raw, &r); err == nil && r.Start != nil {
		if r.End == nil {
			return strconv.Itoa(*r.Start) + "+"
		}
		return strconv.Itoa(*r.Start) + "-" + strconv.Itoa(*r.End)
	}
	return ""
}

func headquarters(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var hq hqObject
	if err := json.Unmarshal(raw, &hq); err != nil {
		return ""
	}
	var parts []string
	for _, p := range []string{hq.City, hq.Region, hq.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
