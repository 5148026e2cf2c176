package notion

import (
	"context"
	"strings"

	"github.com/jomei/notionapi"
)

// Notion rejects rich text objects longer than this many characters.
const maxRichTextLen = 2000

// Property names in the lead database.
const (
	propName      = "Name"
	propDomain    = "Domain"
	propCategory  = "Category"
	propIndustry  = "Industry"
	propLocation  = "Location"
	propEmployees = "Employees"
	propContacts  = "Contacts"
	propStack     = "Stack"
	propStrategy  = "Strategy"
	propRun       = "Run"
)

// Lead is one company row in the lead database.
type Lead struct {
	Name      string
	Domain    string
	Category  string
	Employees string
	Industry  string
	Location  string
	Contacts  []string
	Stack     []string
	Strategy  string
	RunID     string
}

// UpsertLead creates a page for lead, or updates the page whose Domain matches.
// Leads without a domain are always created. Returns the page ID.
func UpsertLead(ctx context.Context, c Client, lead Lead) (string, error) {
	if lead.Domain != "" {
		pageID, err := c.FindLeadByDomain(ctx, lead.Domain)
		if err != nil {
			return "", err
		}
		if pageID != "" {
			return pageID, c.UpdateLead(ctx, pageID, lead)
		}
	}
	return c.CreateLead(ctx, lead)
}

func leadProperties(l Lead) notionapi.Properties {
	props := notionapi.Properties{
		propName: notionapi.TitleProperty{
			Type:  notionapi.PropertyTypeTitle,
			Title: richText(l.Name),
		},
		propDomain:    textProp(l.Domain),
		propIndustry:  textProp(l.Industry),
		propLocation:  textProp(l.Location),
		propEmployees: textProp(l.Employees),
		propContacts:  textProp(strings.Join(l.Contacts, "\n")),
		propStack:     textProp(strings.Join(l.Stack, ", ")),
		propStrategy:  textProp(l.Strategy),
		propRun:       textProp(l.RunID),
	}
	if l.Category != "" {
		props[propCategory] = notionapi.SelectProperty{
			Type:   notionapi.PropertyTypeSelect,
			Select: notionapi.Option{Name: l.Category},
		}
	}
	return props
}

func textProp(s string) notionapi.RichTextProperty {
	return notionapi.RichTextProperty{
		Type:     notionapi.PropertyTypeRichText,
		RichText: richText(s),
	}
}

// richText splits s into chunks Notion accepts.
func richText(s string) []notionapi.RichText {
	runes := []rune(s)
	if len(runes) == 0 {
		return []notionapi.RichText{}
	}
	var out []notionapi.RichText
	for len(runes) > 0 {
		n := min(len(runes), maxRichTextLen)
		out = append(out, notionapi.RichText{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: string(runes[:n])},
		})
		runes = runes[n:]
	}
	return out
}
