// Package techsignal flags likely technology usage from a company description.
package techsignal

import (
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/textmatch"
)

var (
	aiml = textmatch.NewMatcher(
		textmatch.Term{Name: "Machine Learning", Patterns: []string{"machine learning"}},
		textmatch.Term{Name: "Deep Learning", Patterns: []string{"deep learning"}},
		textmatch.Term{Name: "Artificial Intelligence", Patterns: []string{"artificial intelligence"}},
		textmatch.Term{Name: "AI", Patterns: []string{" ai ", " ai,", " ai.", "ai-", "(ai)"}},
		textmatch.Term{Name: "Neural Networks", Patterns: []string{"neural network"}},
		textmatch.Term{Name: "Computer Vision", Patterns: []string{"computer vision"}},
		textmatch.Term{Name: "NLP", Patterns: []string{"natural language processing", "nlp"}},
		textmatch.Term{Name: "Generative AI", Patterns: []string{"generative ai", "genai", "llm", "large language model"}},
		textmatch.Term{Name: "Data Science", Patterns: []string{"data science"}},
		textmatch.Term{Name: "MLOps", Patterns: []string{"mlops"}},
	)

	stack = textmatch.NewMatcher(
		textmatch.Term{Name: "PyTorch"},
		textmatch.Term{Name: "TensorFlow"},
		textmatch.Term{Name: "scikit-learn", Patterns: []string{"scikit-learn", "sklearn"}},
		textmatch.Term{Name: "Keras"},
		textmatch.Term{Name: "Hugging Face", Patterns: []string{"hugging face", "huggingface"}},
		textmatch.Term{Name: "Python"},
		textmatch.Term{Name: "CUDA"},
		textmatch.Term{Name: "JAX", Patterns: []string{" jax"}},
		textmatch.Term{Name: "OpenCV"},
		textmatch.Term{Name: "Spark", Patterns: []string{"apache spark", "pyspark", "spark"}},
	)

	infra = textmatch.NewMatcher(
		textmatch.Term{Name: "AWS", Patterns: []string{"aws", "amazon web services"}},
		textmatch.Term{Name: "Google Cloud", Patterns: []string{"google cloud", "gcp"}},
		textmatch.Term{Name: "Azure"},
		textmatch.Term{Name: "Kubernetes", Patterns: []string{"kubernetes", "k8s"}},
		textmatch.Term{Name: "Docker"},
		textmatch.Term{Name: "Snowflake"},
		textmatch.Term{Name: "Databricks"},
		textmatch.Term{Name: "Kafka"},
		textmatch.Term{Name: "GPU", Patterns: []string{"gpu"}},
		textmatch.Term{Name: "Data Pipelines", Patterns: []string{"data pipeline", "etl"}},
		textmatch.Term{Name: "Data Warehouse", Patterns: []string{"data warehouse", "data lake"}},
	)
)

// Extract scans text for known AI/ML, stack and infrastructure keywords.
// Matching is binary per keyword; text without hits yields three empty sets.
func Extract(text string) model.TechSignal {
	// Pad so word-bounded patterns such as " ai " match at the edges.
	padded := " " + text + " "
	return model.TechSignal{
		LikelyStack:        stack.Match(padded),
		AIMLIndicators:     aiml.Match(padded),
		DataInfrastructure: infra.Match(padded),
	}
}

// ForCompany extracts signals from the company's description, specialties,
// and any technologies reported by enrichment.
func ForCompany(c model.Company) model.TechSignal {
	text := c.Description
	for _, s := range c.Specialties {
		text += ", " + s
	}
	for _, s := range c.Technologies {
		text += ", " + s
	}
	return Extract(text)
}
