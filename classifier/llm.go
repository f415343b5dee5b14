package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/maastricht-university/listening-eye/emotion"
)

const systemPrompt = `You are an expert emotion classifier that can detect subtle emotional cues in speech.
Analyze the text and infer the speaker's emotional state, even when emotions aren't
explicitly stated. Look for content and context clues, word choice and intensity markers,
sentence structure and phrasing patterns, and implied emotional undercurrents.

Classify into one of these categories: Happy, Sad, Angry, Fearful, Anxious, Excited,
Neutral, Surprised, Disgusted, Confused, Tired, or Hungry.

Also assign an intensity value from -100 (extremely negative) to +100 (extremely positive).

Respond ONLY with a JSON object in this format:
{"emotion":"Category","intensity":value}`

// LLM labels text with a chat completion model.
type LLM struct {
	client oai.Client
	model  string
}

func NewLLM(apiKey, baseURL, model string, timeout time.Duration) *LLM {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if timeout > 0 {
		opts = append(opts, option.WithHTTPClient(&http.Client{Timeout: timeout}))
	}
	if model == "" {
		model = "gpt-4"
	}
	return &LLM{client: oai.NewClient(opts...), model: model}
}

type llmVerdict struct {
	Emotion   string      `json:"emotion"`
	Intensity json.Number `json:"intensity"`
}

func (l *LLM) Classify(ctx context.Context, text string) (*emotion.Result, error) {
	resp, err := l.client.Chat.Completions.New(ctx, oai.ChatCompletionNewParams{
		Model: shared.ChatModel(l.model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(systemPrompt),
			oai.UserMessage(`Text: "` + text + `"`),
		},
		Temperature:         param.NewOpt(0.0),
		MaxCompletionTokens: param.NewOpt(int64(50)),
	})
	if err != nil {
		return nil, fmt.Errorf("llm classify: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("llm classify: empty response")
	}
	label, intensity, err := parseVerdict(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	return Result(label, intensity), nil
}

// parseVerdict reads the model's JSON answer. A missing label means Neutral
// and a missing intensity means 0; fractional intensities are truncated.
func parseVerdict(raw string) (string, int, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var v llmVerdict
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &v); err != nil {
		return "", 0, fmt.Errorf("llm decode: %w", err)
	}
	label := v.Emotion
	if label == "" {
		label = "Neutral"
	}
	intensity := 0
	if v.Intensity != "" {
		f, err := v.Intensity.Float64()
		if err != nil {
			return "", 0, fmt.Errorf("llm decode: %w", err)
		}
		intensity = int(f)
	}
	return label, intensity, nil
}
