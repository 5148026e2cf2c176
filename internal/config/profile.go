package config

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Generation providers accepted by strategy.provider.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// MaxContactsPerCompanyLimit is the most contacts an output record may carry.
const MaxContactsPerCompanyLimit = 3

// ErrMissingGenerationKey is returned when no credential exists for the
// configured generation provider.
var ErrMissingGenerationKey = eris.New("config: generation API key is required")

// Profile is the search profile for a single pipeline run. It is supplied as a
// JSON object; YAML is accepted too.
type Profile struct {
	SearchQuery            string   `yaml:"searchQuery" json:"searchQuery"`
	Locations              []string `yaml:"locations" json:"locations"`
	MaxCompanies           int      `yaml:"maxCompanies" json:"maxCompanies"`
	NumTargets             int      `yaml:"numTargets" json:"numTargets"`
	ApolloAPIKey           string   `yaml:"apolloApiKey" json:"apolloApiKey,omitempty"`
	GeminiAPIKey           string   `yaml:"geminiApiKey" json:"geminiApiKey,omitempty"`
	MaxContactsPerCompany  int      `yaml:"maxContactsPerCompany" json:"maxContactsPerCompany"`
	EnableApolloEnrichment bool     `yaml:"enableApolloEnrichment" json:"enableApolloEnrichment"`
	EnableContactFinding   bool     `yaml:"enableContactFinding" json:"enableContactFinding"`
}

// DefaultProfile returns the profile used when a field is not supplied.
func DefaultProfile() Profile {
	return Profile{
		SearchQuery:            "artificial intelligence machine learning",
		Locations:              []string{"Denmark", "Sweden", "Norway", "Finland"},
		MaxCompanies:           20,
		NumTargets:             5,
		MaxContactsPerCompany:  3,
		EnableApolloEnrichment: true,
		EnableContactFinding:   true,
	}
}

// ParseProfile decodes a profile document over the defaults. Keys absent from
// data keep their default value.
func ParseProfile(data []byte) (Profile, error) {
	p := DefaultProfile()
	if len(strings.TrimSpace(string(data))) == 0 {
		return p, nil
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, eris.Wrap(err, "config: decode profile")
	}
	return p, nil
}

// LoadProfile reads and decodes a profile file.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, eris.Wrapf(err, "config: read profile %s", path)
	}
	return ParseProfile(data)
}

// WithFallbackKeys fills empty API keys from the application config.
func (p Profile) WithFallbackKeys(cfg *Config) Profile {
	if cfg == nil {
		return p
	}
	if p.ApolloAPIKey == "" {
		p.ApolloAPIKey = cfg.Apollo.Key
	}
	if p.GeminiAPIKey == "" {
		p.GeminiAPIKey = cfg.Gemini.Key
	}
	return p
}

// Validate checks the profile before any work begins. A missing credential for
// the generation provider is fatal; a missing Apollo key is not.
func (p Profile) Validate(provider string, anthropicKey string) error {
	switch provider {
	case "", ProviderGemini:
		if strings.TrimSpace(p.GeminiAPIKey) == "" {
			return eris.Wrap(ErrMissingGenerationKey, "geminiApiKey")
		}
	case ProviderAnthropic:
		if strings.TrimSpace(anthropicKey) == "" {
			return eris.Wrap(ErrMissingGenerationKey, "anthropic.key")
		}
	default:
		return eris.Errorf("config: unsupported strategy provider %q", provider)
	}
	if len(p.Locations) == 0 {
		return eris.New("config: at least one location is required")
	}
	if p.MaxCompanies <= 0 {
		return eris.New("config: maxCompanies must be positive")
	}
	if p.NumTargets < 0 {
		return eris.New("config: numTargets must not be negative")
	}
	if p.MaxContactsPerCompany < 0 {
		return eris.New("config: maxContactsPerCompany must not be negative")
	}
	if p.MaxContactsPerCompany > MaxContactsPerCompanyLimit {
		return eris.Errorf("config: maxContactsPerCompany must be at most %d", MaxContactsPerCompanyLimit)
	}
	return nil
}

// Redacted returns a copy with API keys masked, safe for logs and persistence.
func (p Profile) Redacted() Profile {
	p.ApolloAPIKey = redact(p.ApolloAPIKey)
	p.GeminiAPIKey = redact(p.GeminiAPIKey)
	p.Locations = append([]string(nil), p.Locations...)
	return p
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
