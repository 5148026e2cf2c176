package salesforce

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Lead represents a Salesforce Lead record.
type Lead struct {
	ID                string `json:"Id" salesforce:"Id"`
	FirstName         string `json:"FirstName" salesforce:"FirstName"`
	LastName          string `json:"LastName" salesforce:"LastName"`
	Title             string `json:"Title" salesforce:"Title"`
	Email             string `json:"Email" salesforce:"Email"`
	Company           string `json:"Company" salesforce:"Company"`
	Website           string `json:"Website" salesforce:"Website"`
	Industry          string `json:"Industry" salesforce:"Industry"`
	Phone             string `json:"Phone" salesforce:"Phone"`
	NumberOfEmployees int    `json:"NumberOfEmployees" salesforce:"NumberOfEmployees"`
	LeadSource        string `json:"LeadSource" salesforce:"LeadSource"`
	Description       string `json:"Description" salesforce:"Description"`
}

// leadFields are the SOQL fields selected for Lead queries.
var leadFields = []string{
	"Id", "FirstName", "LastName", "Title", "Email", "Company", "Website",
	"Industry", "Phone", "NumberOfEmployees", "LeadSource", "Description",
}

// Salesforce caps Lead.Description at 32k characters.
const maxDescriptionLen = 32000

// FindLeadByWebsite returns the first Lead whose Website matches, or nil.
func FindLeadByWebsite(ctx context.Context, c Client, website string) (*Lead, error) {
	soql := fmt.Sprintf(
		"SELECT %s FROM Lead WHERE Website = '%s' LIMIT 1",
		strings.Join(leadFields, ", "),
		escapeSoql(website),
	)

	var leads []Lead
	if err := c.Query(ctx, soql, &leads); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("sf: find lead by website %s", website))
	}
	if len(leads) == 0 {
		return nil, nil
	}
	return &leads[0], nil
}

// UpsertLead updates the Lead sharing lead.Website, or inserts a new one.
// Leads without a website are always inserted. Returns the Lead ID.
func UpsertLead(ctx context.Context, c Client, lead Lead) (string, error) {
	if strings.TrimSpace(lead.Company) == "" {
		return "", eris.New("sf: lead Company is required")
	}
	fields := leadFieldMap(lead)

	if lead.Website != "" {
		existing, err := FindLeadByWebsite(ctx, c, lead.Website)
		if err != nil {
			return "", err
		}
		if existing != nil {
			if err := c.UpdateOne(ctx, "Lead", existing.ID, fields); err != nil {
				return "", eris.Wrap(err, fmt.Sprintf("sf: update lead %s", existing.ID))
			}
			return existing.ID, nil
		}
	}

	id, err := c.InsertOne(ctx, "Lead", fields)
	if err != nil {
		return "", eris.Wrap(err, fmt.Sprintf("sf: create lead %s", lead.Company))
	}
	return id, nil
}

func leadFieldMap(l Lead) map[string]any {
	last := strings.TrimSpace(l.LastName)
	if last == "" {
		// LastName is required on Lead.
		last = "Unknown"
	}
	m := map[string]any{
		"LastName": last,
		"Company":  l.Company,
	}
	set := func(k, v string) {
		if v != "" {
			m[k] = v
		}
	}
	set("FirstName", l.FirstName)
	set("Title", l.Title)
	set("Email", l.Email)
	set("Website", l.Website)
	set("Industry", l.Industry)
	set("Phone", l.Phone)
	set("LeadSource", l.LeadSource)
	if l.Description != "" {
		desc := []rune(l.Description)
		m["Description"] = string(desc[:min(len(desc), maxDescriptionLen)])
	}
	if l.NumberOfEmployees > 0 {
		m["NumberOfEmployees"] = l.NumberOfEmployees
	}
	return m
}

// escapeSoql escapes single quotes in SOQL string literals to prevent injection.
func escapeSoql(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}
