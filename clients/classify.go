package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/maastricht-university/listening-eye/emotion"
)

// --- Emotion classifier (/classify) ---
type ClassifyReq struct {
	Text string `json:"text"`
}
type ClassifyResp struct {
	Emotion     string             `json:"emotion"`
	Intensity   *float64           `json:"intensity"`
	Confidences map[string]float64 `json:"confidences"`
}

// Classify posts text to the classifier and returns its verdict. Any non-2xx
// status or a body without confidences is an error.
func (h *HTTP) Classify(ctx context.Context, url, text string) (*emotion.Result, error) {
	b, _ := json.Marshal(ClassifyReq{Text: text})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(url, "/")+"/classify", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("classify %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var out ClassifyResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("classify decode: %w", err)
	}
	if len(out.Confidences) == 0 {
		return nil, fmt.Errorf("classify decode: response has no confidences")
	}
	if out.Intensity == nil {
		return nil, fmt.Errorf("classify decode: response has no intensity")
	}
	return &emotion.Result{
		Emotion:     out.Emotion,
		Intensity:   *out.Intensity,
		Confidences: emotion.FromMap(out.Confidences),
	}, nil
}

// Remote binds the classifier client to one service URL.
type Remote struct {
	HTTP *HTTP
	URL  string
}

func (r Remote) Classify(ctx context.Context, text string) (*emotion.Result, error) {
	return r.HTTP.Classify(ctx, r.URL, text)
}
