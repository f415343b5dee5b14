package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maastricht-university/listening-eye/emotion"
)

func TestInfer(t *testing.T) {
	cases := []struct {
		text      string
		label     string
		intensity int
	}{
		{"I had a really long day and I just want to go home", "Tired", -36},
		{"I got the job!!!", "Happy", 72},
		{"The weather is okay", "Neutral", 0},
		{"I am not happy", "Neutral", 0},
		{"I'm so hungry, I haven't eaten all day", "Hungry", -24},
		{"Why is this so complicated???", "Confused", -24},
		{"I'm worried about the exam tomorrow", "Anxious", -48},
		{"I feel great", "Happy", 36},
		// substring matching: "hello" contains "hell"
		{"hello", "Angry", -42},
	}
	for _, c := range cases {
		t.Run(c.text, func(t *testing.T) {
			label, intensity := Infer(c.text)
			assert.Equal(t, c.label, label)
			assert.Equal(t, c.intensity, intensity)
		})
	}
}

func TestScoresNeutralFloor(t *testing.T) {
	s := Scores("zzz")
	assert.Equal(t, 2.0, s["Neutral"])
	for _, l := range Labels {
		if l != "Neutral" {
			assert.Zero(t, s[l], l)
		}
	}
}

func TestMapConfidences(t *testing.T) {
	v := MapConfidences("Happy", 72)
	assert.InDelta(t, 0.36, v[emotion.Joy], 1e-9)
	assert.InDelta(t, 0.216, v[emotion.Excitement], 1e-9)
	assert.InDelta(t, 0.2, v[emotion.Neutral], 1e-9)
	assert.Equal(t, emotion.Joy, emotion.Dominant(v))

	v = MapConfidences("Anxious", -48)
	assert.InDelta(t, 0.288, v[emotion.Anxiety], 1e-9)
	assert.InDelta(t, 0.144, v[emotion.Fear], 1e-9)
	assert.InDelta(t, 0.048, v[emotion.Sad], 1e-9)

	// zero intensity scales the negative categories away
	v = MapConfidences("Sad", 0)
	assert.Zero(t, v[emotion.Sad])
	assert.Equal(t, emotion.Sad, emotion.Dominant(v), "all zero ties resolve to the first category")

	assert.Equal(t, emotion.Initial(), MapConfidences("Bewildered", 50))
}

func TestInferentialClassify(t *testing.T) {
	res, err := Inferential{}.Classify(context.Background(), "I got the job!!!")
	require.NoError(t, err)
	assert.Equal(t, "Happy", res.Emotion)
	assert.Equal(t, 72.0, res.Intensity)
	assert.Equal(t, emotion.Joy, emotion.Dominant(res.Confidences))

	_, err = Inferential{}.Classify(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrNoText)
}

type stubClassifier struct {
	res   *emotion.Result
	err   error
	calls int
}

func (s *stubClassifier) Classify(context.Context, string) (*emotion.Result, error) {
	s.calls++
	return s.res, s.err
}

func TestChain(t *testing.T) {
	llm := &stubClassifier{res: Result("Excited", 90)}
	c := &Chain{Primary: llm, Fallback: Inferential{}}
	res, err := c.Classify(context.Background(), "I feel great")
	require.NoError(t, err)
	assert.Equal(t, "Excited", res.Emotion)

	llm.err = errors.New("llm classify: 401 Unauthorized")
	res, err = c.Classify(context.Background(), "I feel great")
	require.NoError(t, err)
	assert.Equal(t, "Happy", res.Emotion, "falls back to keyword rules")
	assert.Equal(t, 2, llm.calls)

	_, err = c.Classify(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoText)
	assert.Equal(t, 2, llm.calls, "empty text never reaches a classifier")

	res, err = (&Chain{Fallback: Inferential{}}).Classify(context.Background(), "The weather is okay")
	require.NoError(t, err)
	assert.Equal(t, "Neutral", res.Emotion)
}

func TestParseVerdict(t *testing.T) {
	label, intensity, err := parseVerdict(`{"emotion":"Sad","intensity":-65.7}`)
	require.NoError(t, err)
	assert.Equal(t, "Sad", label)
	assert.Equal(t, -65, intensity)

	label, intensity, err = parseVerdict("```json\n{\"emotion\":\"Happy\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "Happy", label)
	assert.Zero(t, intensity)

	label, _, err = parseVerdict(`{}`)
	require.NoError(t, err)
	assert.Equal(t, "Neutral", label)

	_, _, err = parseVerdict(`I think they are sad`)
	assert.ErrorContains(t, err, "llm decode")
}

func fakeOpenAI(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4", body.Model)
		if assert.Len(t, body.Messages, 2) {
			assert.Equal(t, "system", body.Messages[0].Role)
			assert.Equal(t, `Text: "my dog died"`, body.Messages[1].Content)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 0,
			"model":   "gpt-4",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLLMClassify(t *testing.T) {
	srv := fakeOpenAI(t, http.StatusOK, `{"emotion":"Sad","intensity":-80}`)
	l := NewLLM("test-key", srv.URL, "", time.Second)

	res, err := l.Classify(context.Background(), "my dog died")
	require.NoError(t, err)
	assert.Equal(t, "Sad", res.Emotion)
	assert.Equal(t, -80.0, res.Intensity)
	assert.InDelta(t, 0.56, res.Confidences[emotion.Sad], 1e-9)
	assert.Equal(t, emotion.Sad, emotion.Dominant(res.Confidences))
}

func TestLLMFailureFallsBack(t *testing.T) {
	srv := fakeOpenAI(t, http.StatusBadRequest, "")
	c := &Chain{Primary: NewLLM("test-key", srv.URL, "gpt-4", time.Second), Fallback: Inferential{}}

	res, err := c.Classify(context.Background(), "my dog died")
	require.NoError(t, err)
	assert.Equal(t, "Sad", res.Emotion)
}
