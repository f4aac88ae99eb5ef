package moderation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestGoogleClassifierModerate(t *testing.T) {
	var gotBody map[string]interface{}
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"moderationCategories":[{"name":"Toxic","confidence":0.75},{"name":"Insult","confidence":0.2}]}`))
	}))
	defer server.Close()

	classifier := NewGoogleClassifier(server.URL, APIKeyProvider{Key: "test-key"}, time.Second, zaptest.NewLogger(t))
	result, err := classifier.Moderate(context.Background(), "some comment text")
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-key", gotAuth)
	document, ok := gotBody["document"].(map[string]interface{})
	require.True(t, ok, "request body must carry a document object")
	assert.Equal(t, "PLAIN_TEXT", document["type"])
	assert.Equal(t, "some comment text", document["content"])

	require.Len(t, result.Categories, 2)
	assert.Equal(t, "Toxic", result.Categories[0].Name)
	assert.InDelta(t, 0.75, result.Categories[0].Confidence, 1e-9)
	assert.NotNil(t, result.Raw, "raw response kept for audit")
}

func TestGoogleClassifierNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"permission denied"}`, http.StatusForbidden)
	}))
	defer server.Close()

	classifier := NewGoogleClassifier(server.URL, APIKeyProvider{Key: "k"}, time.Second, zaptest.NewLogger(t))
	_, err := classifier.Moderate(context.Background(), "text")
	assert.Error(t, err)
}

func TestGoogleClassifierMalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	}))
	defer server.Close()

	classifier := NewGoogleClassifier(server.URL, APIKeyProvider{Key: "k"}, time.Second, zaptest.NewLogger(t))
	_, err := classifier.Moderate(context.Background(), "text")
	assert.Error(t, err)
}

func TestGoogleClassifierTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	classifier := NewGoogleClassifier(server.URL, APIKeyProvider{Key: "k"}, 20*time.Millisecond, zaptest.NewLogger(t))
	_, err := classifier.Moderate(context.Background(), "text")
	assert.Error(t, err)
}

// Without credentials the classifier must not spend an HTTP roundtrip.
func TestGoogleClassifierNoCredentialsFailsFast(t *testing.T) {
	var calls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
	}))
	defer server.Close()

	classifier := NewGoogleClassifier(server.URL, CredentialChain{}, time.Second, zaptest.NewLogger(t))
	_, err := classifier.Moderate(context.Background(), "text")
	require.ErrorIs(t, err, ErrNoCredentials)
	assert.Zero(t, atomic.LoadInt64(&calls))
}

func TestResultFirstOver(t *testing.T) {
	tests := []struct {
		name       string
		categories []Category
		threshold  float64
		wantName   string
		wantOver   bool
	}{
		{
			name:       "strictly over flags",
			categories: []Category{{Name: "Toxic", Confidence: 0.75}},
			threshold:  0.6,
			wantName:   "Toxic",
			wantOver:   true,
		},
		{
			name:       "exactly at threshold does not flag",
			categories: []Category{{Name: "Toxic", Confidence: 0.6}},
			threshold:  0.6,
			wantOver:   false,
		},
		{
			name: "first match wins",
			categories: []Category{
				{Name: "Insult", Confidence: 0.61},
				{Name: "Toxic", Confidence: 0.99},
			},
			threshold: 0.6,
			wantName:  "Insult",
			wantOver:  true,
		},
		{
			name:      "no categories",
			threshold: 0.6,
			wantOver:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := &Result{Categories: tt.categories}
			cat, over := result.FirstOver(tt.threshold)
			assert.Equal(t, tt.wantOver, over)
			assert.Equal(t, tt.wantName, cat.Name)
		})
	}
}
