// Package insight asks a generative text service for pastoral follow-up
// suggestions about a family. Failures never reach the caller: they are
// logged and replaced by a fixed message.
package insight

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukerupert/kerigma/internal/model"
	"github.com/go-resty/resty/v2"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-3-flash-preview"

	FallbackError = "Não foi possível gerar insights agora. Verifique a chave de API."
	FallbackEmpty = "Sem insights disponíveis no momento."

	systemInstruction = "Você é um assistente pastoral sábio e empático que ajuda na gestão de comunidades religiosas."
	temperature       = 0.7
	requestTimeout    = 30 * time.Second
)

// Config holds the generative API settings from the environment.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Client sends one prompt per call. There is no retry.
type Client struct {
	cfg    Config
	http   *resty.Client
	logger *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	rc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(requestTimeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{cfg: cfg, http: rc, logger: logger}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.cfg.APIKey != ""
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	SystemInstruction content   `json:"systemInstruction"`
	Contents          []content `json:"contents"`
	GenerationConfig  struct {
		Temperature float64 `json:"temperature"`
	} `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Prompt is the text sent for f.
func Prompt(f model.Family) string {
	return fmt.Sprintf(`Analise os dados desta família e forneça sugestões breves de acompanhamento espiritual ou social (máximo 100 palavras):
Nome: %s
Líder: %s
Departamento: %s
Status: %s
Membros: %d`, f.Name, f.Leader, f.Department, f.Status, f.MembersCount)
}

// Insights returns the generated text for f, FallbackEmpty when the service
// answers with no text, or FallbackError on any failure.
func (c *Client) Insights(ctx context.Context, f model.Family) string {
	text, err := c.generate(ctx, Prompt(f))
	if err != nil {
		c.logger.Error("generate insights", "family_id", f.ID, "error", err)
		return FallbackError
	}
	if text == "" {
		return FallbackEmpty
	}
	return text
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("insight client not configured: missing API key")
	}

	var req generateRequest
	req.SystemInstruction = content{Parts: []part{{Text: systemInstruction}}}
	req.Contents = []content{{Parts: []part{{Text: prompt}}}}
	req.GenerationConfig.Temperature = temperature

	var out generateResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("x-goog-api-key", c.cfg.APIKey).
		SetBody(req).
		SetResult(&out).
		Post("/models/" + c.cfg.Model + ":generateContent")
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("generate content: status %d", resp.StatusCode())
	}

	if len(out.Candidates) == 0 {
		return "", nil
	}
	var b strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	return strings.TrimSpace(b.String()), nil
}
