package model

// UnknownEmployeeCount is the literal stored when discovery reports no staff data.
const UnknownEmployeeCount = "Unknown"

// Category is the company-size/type bucket used to select messaging insights.
type Category string

const (
	CategoryStartupSmall      Category = "startup_small"
	CategoryEstablishedBig    Category = "established_big"
	CategoryResearchInstitute Category = "research_institute"
)

// AllCategories returns every category in a stable order.
func AllCategories() []Category {
	return []Category{CategoryStartupSmall, CategoryEstablishedBig, CategoryResearchInstitute}
}

// Valid reports whether c is one of the three known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryStartupSmall, CategoryEstablishedBig, CategoryResearchInstitute:
		return true
	}
	return false
}

// Company is a discovered company, optionally overlaid with enrichment data.
type Company struct {
	Name          string   `json:"name"`
	Domain        string   `json:"domain,omitempty"` // empty when discovery had no website
	SourceURL     string   `json:"source_url,omitempty"`
	Description   string   `json:"description,omitempty"`
	Headquarters  string   `json:"headquarters,omitempty"`
	EmployeeCount string   `json:"employee_count"` // range string as reported, e.g. "51-200"
	Industry      string   `json:"industry,omitempty"`
	Specialties   []string `json:"specialties,omitempty"`
	FollowerCount int      `json:"follower_count,omitempty"`
	LogoURL       string   `json:"logo_url,omitempty"`
	Location      string   `json:"location,omitempty"` // discovery location that produced the record

	// Enrichment overlay. Zero unless Enriched is true.
	Enriched         bool     `json:"enriched"`
	OrganizationID   string   `json:"organization_id,omitempty"`
	EmployeeEstimate *int     `json:"employee_estimate,omitempty"`
	Keywords         []string `json:"keywords,omitempty"`
	Technologies     []string `json:"technologies,omitempty"`
	FundingStage     string   `json:"funding_stage,omitempty"`
	Revenue          *float64 `json:"revenue,omitempty"`
	FundingTotal     *float64 `json:"funding_total,omitempty"`
	Phone            string   `json:"phone,omitempty"`
	FoundedYear      *int     `json:"founded_year,omitempty"`

	Category Category `json:"category,omitempty"`
}

// HasDomain reports whether the company can take part in domain-keyed lookups.
func (c Company) HasDomain() bool {
	return c.Domain != ""
}

// Enrichment is the firmographic overlay fetched for a single domain.
// A non-empty Error marks a failed lookup; no other field is meaningful then.
type Enrichment struct {
	Domain         string   `json:"domain"`
	OrganizationID string   `json:"organization_id,omitempty"`
	EmployeeCount  *int     `json:"employee_count,omitempty"`
	Industry       string   `json:"industry,omitempty"`
	Keywords       []string `json:"keywords"`
	Technologies   []string `json:"technologies"`
	FundingStage   string   `json:"funding_stage,omitempty"`
	Revenue        *float64 `json:"revenue,omitempty"`
	FundingTotal   *float64 `json:"funding_total,omitempty"`
	Phone          string   `json:"phone,omitempty"`
	FoundedYear    *int     `json:"founded_year,omitempty"`
	Error          string   `json:"error,omitempty"`
}

// Failed reports whether the enrichment carries an error marker.
func (e Enrichment) Failed() bool {
	return e.Error != ""
}

// Contact is a decision-maker found for a company domain.
type Contact struct {
	Name        string `json:"name"`
	Title       string `json:"title,omitempty"`
	Email       string `json:"email,omitempty"`
	LinkedInURL string `json:"linkedin_url,omitempty"`
	PhotoURL    string `json:"photo_url,omitempty"`
}
