package strategy

import (
	"fmt"
	"strings"

	"github.com/sells-group/leadgen-cli/internal/insight"
	"github.com/sells-group/leadgen-cli/internal/model"
)

// MaxPromptContacts is the number of contacts embedded in a prompt.
const MaxPromptContacts = 2

const systemPrompt = `You are a senior B2B sales strategist for an AI infrastructure provider selling GPU compute, model training and inference platforms to Nordic technology companies. Write concise, specific outreach strategies grounded only in the facts you are given.`

const taskPrompt = `Write an outreach strategy for this company with these sections:
1. Key talking points (3 bullets tied to their pain points and technology signals)
2. Recommended first contact and why
3. Opening message (under 120 words, personalised)
4. Follow-up angle if there is no reply`

// BuildPrompt renders the user prompt for one company. The structure is fixed;
// absent values are rendered as "Unknown" or "None detected".
func BuildPrompt(c model.Company, contacts []model.Contact, sig model.TechSignal, ins insight.Insight) string {
	var b strings.Builder

	b.WriteString("## Company\n")
	fmt.Fprintf(&b, "Name: %s\n", c.Name)
	fmt.Fprintf(&b, "Domain: %s\n", orUnknown(c.Domain))
	fmt.Fprintf(&b, "Industry: %s\n", orUnknown(c.Industry))
	fmt.Fprintf(&b, "Headquarters: %s\n", orUnknown(c.Headquarters))
	fmt.Fprintf(&b, "Employees: %s\n", orUnknown(c.EmployeeCount))
	fmt.Fprintf(&b, "Category: %s (%s)\n", c.Category, ins.Label)
	fmt.Fprintf(&b, "Description: %s\n", orUnknown(c.Description))
	if len(c.Specialties) > 0 {
		fmt.Fprintf(&b, "Specialties: %s\n", strings.Join(c.Specialties, ", "))
	}
	if c.Enriched {
		if c.FundingStage != "" {
			fmt.Fprintf(&b, "Funding stage: %s\n", c.FundingStage)
		}
		if c.FundingTotal != nil {
			fmt.Fprintf(&b, "Total funding: $%.0f\n", *c.FundingTotal)
		}
		if c.Revenue != nil {
			fmt.Fprintf(&b, "Annual revenue: $%.0f\n", *c.Revenue)
		}
		if c.FoundedYear != nil {
			fmt.Fprintf(&b, "Founded: %d\n", *c.FoundedYear)
		}
	}

	b.WriteString("\n## Decision makers\n")
	if len(contacts) == 0 {
		b.WriteString("None found\n")
	}
	for i, ct := range contacts {
		if i == MaxPromptContacts {
			break
		}
		fmt.Fprintf(&b, "- %s, %s\n", ct.Name, orUnknown(ct.Title))
	}

	b.WriteString("\n## Technology signals\n")
	fmt.Fprintf(&b, "AI/ML indicators: %s\n", joinOrNone(sig.AIMLIndicators))
	fmt.Fprintf(&b, "Likely stack: %s\n", joinOrNone(sig.LikelyStack))
	fmt.Fprintf(&b, "Data infrastructure: %s\n", joinOrNone(sig.DataInfrastructure))

	b.WriteString("\n## Segment insight\n")
	fmt.Fprintf(&b, "Pain points: %s\n", strings.Join(ins.PainPoints, "; "))
	fmt.Fprintf(&b, "Priorities: %s\n", strings.Join(ins.Priorities, "; "))
	fmt.Fprintf(&b, "Messaging: %s\n", strings.Join(ins.Messaging, "; "))

	b.WriteString("\n")
	b.WriteString(taskPrompt)
	return b.String()
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}

func joinOrNone(vals []string) string {
	if len(vals) == 0 {
		return "None detected"
	}
	return strings.Join(vals, ", ")
}
