package clients

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maastricht-university/listening-eye/emotion"
)

func TestClassifySuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/classify", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var req ClassifyReq
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "what a lovely day", req.Text)
		w.Write([]byte(`{"emotion":"joy","intensity":80,"confidences":{"sad":0,"fear":0,"anger":0,"anxiety":0,"neutral":0.1,"excitement":0,"joy":0.9}}`))
	}))
	defer srv.Close()

	res, err := NewHTTP(time.Second).Classify(context.Background(), srv.URL+"/", "what a lovely day")
	require.NoError(t, err)
	assert.Equal(t, "joy", res.Emotion)
	assert.Equal(t, 80.0, res.Intensity)
	assert.Equal(t, emotion.Joy, emotion.Dominant(res.Confidences))
}

func TestClassifyNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"No text to classify"}`))
	}))
	defer srv.Close()

	_, err := NewHTTP(time.Second).Classify(context.Background(), srv.URL, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Contains(t, err.Error(), "No text to classify")
}

func TestClassifyMalformed(t *testing.T) {
	for name, body := range map[string]string{
		"not json":       `<html>oops</html>`,
		"no confidences": `{"emotion":"joy","intensity":1}`,
		"no intensity":   `{"emotion":"joy","confidences":{"joy":1}}`,
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			}))
			defer srv.Close()

			_, err := NewHTTP(time.Second).Classify(context.Background(), srv.URL, "hi")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "classify decode")
		})
	}
}

func TestClassifyTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTP(time.Second).Classify(context.Background(), url, "hi")
	require.Error(t, err)
}

func TestASRUploadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFFfake"), 0o644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transcribe", r.URL.Path)
		f, hdr, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "clip.wav", hdr.Filename)
		assert.Equal(t, "RIFFfake", string(data))
		assert.Equal(t, "en-US", r.FormValue("language"))
		w.Write([]byte(`{"segments":[{"start":0,"end":1,"text":" hello "},{"start":1,"end":2,"text":""},{"start":2,"end":3,"text":"there"}],"language":"en"}`))
	}))
	defer srv.Close()

	out, err := NewHTTP(time.Second).ASR(context.Background(), srv.URL, path, "en-US")
	require.NoError(t, err)
	assert.Equal(t, "hello there", out.Text())
}

func TestASRStatusError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.wav")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewHTTP(time.Second).ASR(context.Background(), srv.URL, path, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "asr 503")
}
