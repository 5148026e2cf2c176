// Package strategy generates outreach strategies with a generative text model.
package strategy

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/insight"
	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/pkg/anthropic"
	"github.com/sells-group/leadgen-cli/pkg/gemini"
)

// ErrorPrefix starts the text stored in place of a strategy when generation fails.
const ErrorPrefix = "Error generating strategy: "

// Model completes a prompt.
type Model interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
	Name() string
}

// Input is everything the prompt is built from.
type Input struct {
	Company  model.Company
	Contacts []model.Contact
	Signal   model.TechSignal
}

// Result is the outcome of one generation. On failure Text carries a readable
// message and Err the underlying error text.
type Result struct {
	Text string
	Err  string
}

// Failed reports whether generation failed.
func (r Result) Failed() bool {
	return r.Err != ""
}

// Generator turns an Input into a strategy.
type Generator struct {
	model Model
}

// NewGenerator returns a Generator backed by m.
func NewGenerator(m Model) *Generator {
	return &Generator{model: m}
}

// Generate builds the prompt and calls the model once. It never returns an
// error: failures are carried in the Result.
func (g *Generator) Generate(ctx context.Context, in Input) Result {
	prompt := BuildPrompt(in.Company, in.Contacts, in.Signal, insight.For(in.Company.Category))

	text, err := g.model.Complete(ctx, systemPrompt, prompt)
	if err == nil && strings.TrimSpace(text) == "" {
		err = eris.New("strategy: empty response")
	}
	if err != nil {
		zap.L().Warn("strategy generation failed",
			zap.String("company", in.Company.Name),
			zap.String("model", g.model.Name()),
			zap.Error(err),
		)
		return Result{Text: ErrorPrefix + err.Error(), Err: err.Error()}
	}
	return Result{Text: strings.TrimSpace(text)}
}

// GeminiModel adapts a gemini.Client. The system prompt is prepended to the
// user prompt.
type GeminiModel struct {
	Client gemini.Client
	Model  string
}

// Complete implements Model.
func (m *GeminiModel) Complete(ctx context.Context, system, prompt string) (string, error) {
	full := prompt
	if system != "" {
		full = system + "\n\n" + prompt
	}
	return m.Client.GenerateText(ctx, full)
}

// Name implements Model.
func (m *GeminiModel) Name() string {
	return m.Model
}

// AnthropicModel adapts an anthropic.Client.
type AnthropicModel struct {
	Client    anthropic.Client
	Model     string
	MaxTokens int64
}

// Complete implements Model.
func (m *AnthropicModel) Complete(ctx context.Context, system, prompt string) (string, error) {
	resp, err := m.Client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     m.Model,
		MaxTokens: m.MaxTokens,
		System:    system,
		Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}
	resp.Usage.LogCost(m.Model, "strategy")
	return resp.Text(), nil
}

// Name implements Model.
func (m *AnthropicModel) Name() string {
	return m.Model
}
