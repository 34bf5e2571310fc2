package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"wealthnav/internal/core"
)

const DefaultModel = "gemini-2.5-flash"

// generator is the slice of *genai.Models used here.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// NewClient opens a Gemini API client.
func NewClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY")
	}
	return genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
}

const extractInstruction = `
You read screenshots of a Japanese brokerage account (Matsui Securities).
Report three yen amounts exactly as displayed:
- cash: 現物買付余力 (buying power)
- spot: 現物時価総額 (market value of cash holdings)
- margin: 信用評価損益 (unrealized profit or loss on margin positions, may be negative)
Use an empty string for any amount you cannot read with confidence. Never guess.
`

var candidateSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"cash":   {Type: genai.TypeString, Description: "現物買付余力 in yen, digits only"},
		"spot":   {Type: genai.TypeString, Description: "現物時価総額 in yen, digits only"},
		"margin": {Type: genai.TypeString, Description: "信用評価損益 in yen, signed"},
	},
	Required: []string{"cash", "spot", "margin"},
}

// GeminiExtractor asks a Gemini model for the three figures as JSON.
type GeminiExtractor struct {
	models generator
	model  string
}

func NewGeminiExtractor(client *genai.Client, model string) *GeminiExtractor {
	return newGeminiExtractor(client.Models, model)
}

func newGeminiExtractor(g generator, model string) *GeminiExtractor {
	if model == "" {
		model = DefaultModel
	}
	return &GeminiExtractor{models: g, model: model}
}

func (e *GeminiExtractor) Extract(ctx context.Context, images ...Image) (core.Entry, error) {
	if err := checkImages(images); err != nil {
		return core.Entry{}, err
	}

	parts := make([]*genai.Part, 0, len(images)+1)
	for _, img := range images {
		parts = append(parts, genai.NewPartFromBytes(img.Data, img.MIMEType))
	}
	parts = append(parts, genai.NewPartFromText("Extract cash, spot and margin."))

	resp, err := e.models.GenerateContent(ctx, e.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: extractInstruction}}},
			ResponseMIMEType:  "application/json",
			ResponseSchema:    candidateSchema,
		})
	if err != nil {
		return core.Entry{}, fmt.Errorf("generate content: %w", err)
	}
	if resp == nil {
		return core.Entry{}, ErrNoCandidate
	}

	entry, err := parseCandidate(resp.Text())
	if err != nil {
		slog.Warn("Extraction produced no usable candidate", "model", e.model, "error", err)
		return core.Entry{}, err
	}
	return entry, nil
}

type candidate struct {
	Cash   *string `json:"cash"`
	Spot   *string `json:"spot"`
	Margin *string `json:"margin"`
}

// parseCandidate decodes the model's JSON answer. Any absent or unreadable
// field turns the whole answer into ErrNoCandidate.
func parseCandidate(text string) (core.Entry, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimSuffix(strings.TrimPrefix(text, "```"), "```")
	if strings.TrimSpace(text) == "" {
		return core.Entry{}, ErrNoCandidate
	}

	var c candidate
	if err := json.Unmarshal([]byte(text), &c); err != nil {
		return core.Entry{}, fmt.Errorf("%w: %v", ErrNoCandidate, err)
	}

	var e core.Entry
	fields := []struct {
		name string
		raw  *string
		dst  *core.Yen
	}{
		{"cash", c.Cash, &e.Cash},
		{"spot", c.Spot, &e.Spot},
		{"margin", c.Margin, &e.Margin},
	}
	for _, f := range fields {
		if f.raw == nil {
			return core.Entry{}, fmt.Errorf("%w: %s missing", ErrNoCandidate, f.name)
		}
		v, err := core.ParseAmount(*f.raw)
		if err != nil {
			return core.Entry{}, fmt.Errorf("%w: %s %q", ErrNoCandidate, f.name, *f.raw)
		}
		*f.dst = v
	}
	return e, nil
}

const commentInstruction = `
You are a terse personal finance aide. In two or three sentences of plain
Japanese, comment on the progress toward the goal using only the figures given.
Do not give investment advice.
`

// GeminiCommentator writes a short remark on Metrics.
type GeminiCommentator struct {
	models generator
	model  string
}

func NewGeminiCommentator(client *genai.Client, model string) *GeminiCommentator {
	return newGeminiCommentator(client.Models, model)
}

func newGeminiCommentator(g generator, model string) *GeminiCommentator {
	if model == "" {
		model = DefaultModel
	}
	return &GeminiCommentator{models: g, model: model}
}

func (c *GeminiCommentator) Comment(ctx context.Context, m core.Metrics) (string, error) {
	prompt := fmt.Sprintf(
		"総資産 %s (前回比 %s, 今月 %s). 目標 %s まで残り %s, 進捗 %s.",
		m.CurrentTotal, m.DayOverDayDelta.Signed(), m.MonthToDateDelta.Signed(),
		core.Yen(m.Goal), m.Remaining, m.ProgressPercent(),
	)
	if m.HasPriorMonth {
		prompt += fmt.Sprintf(" 先月 (%s) は %s.", m.PriorMonth, m.PriorMonthDelta.Signed())
	}

	resp, err := c.models.GenerateContent(ctx, c.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: commentInstruction}}},
		})
	if err != nil {
		return "", fmt.Errorf("generate comment: %w", err)
	}
	if resp == nil {
		return "", nil
	}
	return strings.TrimSpace(resp.Text()), nil
}
