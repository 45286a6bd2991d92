package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 2*time.Second)
}

func TestTokenizeSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/tokenize", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req TokenizeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "नमस्ते", req.Text)

		io.WriteString(w, `{
			"stats": {"original_chars": 6, "token_count": 2, "unique_tokens": 2, "compression_ratio": 3.0},
			"token_details": [{"token": "नम", "length": 2, "type": "compound"}, {"token": "स्ते", "length": 4, "type": "compound"}],
			"token_numbers": [101, 202],
			"merge_history": [{"pair": ["न", "म"], "new_token": "नम", "frequency": 12}],
			"original_tokens": ["न", "म"],
			"original_encoded_tokens": ["न", "म"],
			"bpe_tokens": ["नम", "स्ते"]
		}`)
	})

	res, err := client.Tokenize(context.Background(), "नमस्ते")
	require.NoError(t, err)
	require.NotNil(t, res.Stats)
	assert.Equal(t, 2, res.Stats.TokenCount)
	assert.Equal(t, []int{101, 202}, res.TokenNumbers)
	assert.Equal(t, [2]string{"न", "म"}, res.MergeHistory[0].Pair)
	assert.Equal(t, "compound", res.TokenDetails[1].Type)
}

func TestTokenizeErrors(t *testing.T) {
	testCases := []struct {
		description string
		status      int
		body        string
		wantMsg     string
		malformed   bool
	}{
		{"detail field", 500, `{"detail": "model not loaded"}`, "model not loaded", false},
		{"legacy error field", 400, `{"error": "text too long"}`, "text too long", false},
		{"detail wins over error", 500, `{"error": "second", "detail": "first"}`, "first", false},
		{"non-string detail falls through", 422, `{"detail": [{"msg": "x"}], "message": "bad input"}`, "bad input", false},
		{"no known field", 500, `{"oops": true}`, DefaultTokenizeError, false},
		{"not json", 502, `<html>bad gateway</html>`, DefaultTokenizeError, false},
		{"unparseable success body", 200, `{"stats": `, DefaultTokenizeError, true},
		{"misaligned token numbers", 200, `{"token_details": [{"token": "a"}], "token_numbers": [1, 2]}`, DefaultTokenizeError, true},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				io.WriteString(w, tc.body)
			})

			res, err := client.Tokenize(context.Background(), "text")
			require.Error(t, err)
			assert.Nil(t, res)
			assert.Equal(t, tc.malformed, errors.Is(err, ErrMalformedResponse))
			assert.Equal(t, tc.wantMsg, UserMessage(err, DefaultTokenizeError))
		})
	}
}

func TestTransportErrorUsesFallback(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := NewClient(srv.URL, time.Second)

	_, err := client.Tokenize(context.Background(), "text")
	require.Error(t, err)
	assert.Equal(t, DefaultTokenizeError, UserMessage(err, DefaultTokenizeError))
}

func TestStartTraining(t *testing.T) {
	var got TrainingRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/start-training", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	})

	err := client.StartTraining(context.Background(), TrainingRequest{MaxSentences: 500, VocabSize: 2000})
	require.NoError(t, err)
	assert.Equal(t, TrainingRequest{MaxSentences: 500, VocabSize: 2000}, got)
}

func TestTrainingProgressPartialFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/training-progress", r.URL.Path)
		io.WriteString(w, `{"target_vocab_size": 5000, "steps": []}`)
	})

	st, err := client.TrainingProgress(context.Background())
	require.NoError(t, err)
	assert.Nil(t, st.BaseVocabStats)
	assert.Nil(t, st.Metrics)
	require.NotNil(t, st.Steps)
	assert.Equal(t, 0, st.StepCount())
	target, ok := st.Target()
	assert.True(t, ok)
	assert.Equal(t, 5000, target)
}

func TestTrainingProgressOpaqueSteps(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"target_vocab_size": 500, "steps": ["a", "x"]}`)
	})

	st, err := client.TrainingProgress(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, st.StepCount())
	target, _ := st.Target()
	assert.Equal(t, 500, target)
}

func TestStatsEndpoints(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/training-stats":
			io.WriteString(w, `{"vocab_growth": {"merge_steps": [1], "frequencies": [9], "tokens": ["कर"], "compositions": [["क", "र"]]}}`)
		case "/vocabulary-stats":
			io.WriteString(w, `{"vocab_size": 1200, "most_frequent_tokens": [["का", 40], ["है", 31]], "most_frequent_pairs": {}}`)
		default:
			http.NotFound(w, r)
		}
	})

	ts, err := client.TrainingStats(context.Background())
	require.NoError(t, err)
	require.NotNil(t, ts.VocabGrowth)
	assert.Equal(t, []string{"कर"}, ts.VocabGrowth.Tokens)

	vs, err := client.VocabularyStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1200, vs.VocabSize)
	assert.Equal(t, []TokenCount{{"का", 40}, {"है", 31}}, vs.MostFrequentTokens)
}

func TestPushURL(t *testing.T) {
	testCases := []struct {
		base, path, want string
	}{
		{"http://localhost:8000", "/ws", "ws://localhost:8000/ws"},
		{"https://example.com/api/", "ws", "wss://example.com/api/ws"},
	}
	for _, tc := range testCases {
		t.Run(tc.base, func(t *testing.T) {
			got, err := NewClient(tc.base, time.Second).PushURL(tc.path)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
