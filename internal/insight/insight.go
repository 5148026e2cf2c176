// Package insight holds the hand-authored messaging guidance for each company category.
package insight

import "github.com/sells-group/leadgen-cli/internal/model"

// Insight is the messaging guidance for one category.
type Insight struct {
	Label      string   `json:"label"`
	PainPoints []string `json:"pain_points"`
	Priorities []string `json:"priorities"`
	Messaging  []string `json:"messaging"`
}

var (
	startupSmall = Insight{
		Label: "AI startup / small company",
		PainPoints: []string{
			"Limited GPU budget and unpredictable compute costs",
			"Small team stretched across research and production",
			"Slow iteration from prototype to deployed model",
			"No dedicated MLOps or platform engineering",
		},
		Priorities: []string{
			"Time to market",
			"Cost efficiency",
			"Developer velocity",
			"Scaling without rewriting infrastructure",
		},
		Messaging: []string{
			"Lead with fast setup and pay-as-you-go pricing",
			"Show how the team ships models without hiring platform engineers",
		},
	}

	establishedBig = Insight{
		Label: "Established enterprise",
		PainPoints: []string{
			"Fragmented ML tooling across business units",
			"Governance, compliance and data residency requirements",
			"Legacy infrastructure slowing AI adoption",
			"Hard to prove ROI of AI initiatives",
		},
		Priorities: []string{
			"Security and compliance (GDPR)",
			"Integration with existing cloud and data platforms",
			"Operational reliability at scale",
			"Measurable business outcomes",
		},
		Messaging: []string{
			"Lead with enterprise references and compliance posture",
			"Frame the offer around consolidation and total cost of ownership",
		},
	}

	researchInstitute = Insight{
		Label: "University / research institute",
		PainPoints: []string{
			"Shared compute clusters with long queue times",
			"Grant-bound budgets and procurement cycles",
			"Reproducibility of experiments",
			"Moving research results into real-world use",
		},
		Priorities: []string{
			"Access to compute for large experiments",
			"Open-source and academic pricing",
			"Collaboration across research groups",
			"Publication and reproducibility",
		},
		Messaging: []string{
			"Lead with academic programs and research partnerships",
			"Emphasise reproducibility and open tooling",
		},
	}
)

// For returns the insight for cat. Unrecognised values get the startup entry.
func For(cat model.Category) Insight {
	switch cat {
	case model.CategoryEstablishedBig:
		return establishedBig
	case model.CategoryResearchInstitute:
		return researchInstitute
	case model.CategoryStartupSmall:
		return startupSmall
	default:
		return startupSmall
	}
}
