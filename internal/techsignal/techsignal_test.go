package techsignal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/model"
)

func TestExtract_EmptyText(t *testing.T) {
	for _, text := range []string{"", "   ", "We make handcrafted wooden furniture."} {
		sig := Extract(text)
		require.NotNil(t, sig.LikelyStack)
		require.NotNil(t, sig.AIMLIndicators)
		require.NotNil(t, sig.DataInfrastructure)
		assert.Empty(t, sig.LikelyStack, text)
		assert.Empty(t, sig.AIMLIndicators, text)
		assert.Empty(t, sig.DataInfrastructure, text)
	}
}

func TestExtract_CaseInsensitive(t *testing.T) {
	sig := Extract("We train models in PyTorch and deploy on aws.")
	assert.Contains(t, sig.LikelyStack, "PyTorch")
	assert.Contains(t, sig.DataInfrastructure, "AWS")

	upper := Extract("WE TRAIN MODELS IN PYTORCH AND DEPLOY ON AWS.")
	assert.Equal(t, sig, upper)
}

func TestExtract_Vocabularies(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantStack []string
		wantAIML  []string
		wantInfra []string
	}{
		{
			name:      "ml_platform",
			text:      "Machine learning platform built with TensorFlow and Kubernetes on Google Cloud",
			wantStack: []string{"TensorFlow"},
			wantAIML:  []string{"Machine Learning"},
			wantInfra: []string{"Google Cloud", "Kubernetes"},
		},
		{
			name:      "nlp_company",
			text:      "Natural language processing and large language model products using Hugging Face",
			wantStack: []string{"Hugging Face"},
			wantAIML:  []string{"NLP", "Generative AI"},
			wantInfra: []string{},
		},
		{
			name:      "standalone_ai",
			text:      "AI for logistics",
			wantStack: []string{},
			wantAIML:  []string{"AI"},
			wantInfra: []string{},
		},
		{
			name:      "data_stack",
			text:      "Data pipelines on Snowflake and Databricks with Apache Spark",
			wantStack: []string{"Spark"},
			wantAIML:  []string{},
			wantInfra: []string{"Snowflake", "Databricks", "Data Pipelines"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := Extract(tt.text)
			assert.Equal(t, tt.wantStack, sig.LikelyStack)
			assert.Equal(t, tt.wantAIML, sig.AIMLIndicators)
			assert.Equal(t, tt.wantInfra, sig.DataInfrastructure)
		})
	}
}

func TestForCompany_IncludesSpecialtiesAndTechnologies(t *testing.T) {
	c := model.Company{
		Description:  "Nordic consultancy",
		Specialties:  []string{"Computer Vision"},
		Technologies: []string{"Docker", "Python"},
	}

	sig := ForCompany(c)
	assert.Equal(t, []string{"Computer Vision"}, sig.AIMLIndicators)
	assert.Equal(t, []string{"Python"}, sig.LikelyStack)
	assert.Equal(t, []string{"Docker"}, sig.DataInfrastructure)
}
