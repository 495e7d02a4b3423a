package groq_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"nutriplan/ai/groq"

	should "github.com/stretchr/testify/assert"
	must "github.com/stretchr/testify/require"
)

type mockDoer struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockDoer) Do(req *http.Request) (*http.Response, error) {
	return m.doFunc(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

func TestNewClient(t *testing.T) {
	_, err := groq.NewClient(groq.Options{})
	must.Error(t, err, "api key is mandatory")

	client, err := groq.NewClient(groq.Options{APIKey: "key"})
	must.NoError(t, err)
	must.NotNil(t, client)
}

func TestInvoke(t *testing.T) {
	var captured *http.Request
	var capturedBody []byte

	client, err := groq.NewClient(groq.Options{
		APIKey: "test-key",
		HTTPClient: &mockDoer{doFunc: func(req *http.Request) (*http.Response, error) {
			captured = req
			capturedBody, _ = io.ReadAll(req.Body)
			return jsonResponse(http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"{\"intent\":\"GENERAL_QA\"}"}}]}`), nil
		}},
	})
	must.NoError(t, err)

	raw, err := client.Invoke(context.Background(), "You are an expert", "what is GI")
	must.NoError(t, err)
	should.JSONEq(t, `{"intent":"GENERAL_QA"}`, string(raw))

	must.NotNil(t, captured)
	should.Equal(t, "Bearer test-key", captured.Header.Get("Authorization"))
	should.Equal(t, "application/json", captured.Header.Get("Content-Type"))

	var body map[string]any
	must.NoError(t, json.Unmarshal(capturedBody, &body))
	should.Equal(t, "llama-3.3-70b-versatile", body["model"])
	should.Equal(t, map[string]any{"type": "json_object"}, body["response_format"])

	messages, ok := body["messages"].([]any)
	must.True(t, ok)
	must.Len(t, messages, 2)
	system := messages[0].(map[string]any)
	should.Equal(t, "system", system["role"])
	should.Contains(t, system["content"], "You MUST return valid JSON")
}

func TestInvokeErrors(t *testing.T) {
	tests := []struct {
		name    string
		doFunc  func(req *http.Request) (*http.Response, error)
		wantMsg string
	}{
		{
			name: "transport error",
			doFunc: func(req *http.Request) (*http.Response, error) {
				return nil, errors.New("connection refused")
			},
			wantMsg: "connection refused",
		},
		{
			name: "api error body",
			doFunc: func(req *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusTooManyRequests, `{"error":{"message":"rate limited","type":"rate_limit_exceeded"}}`), nil
			},
			wantMsg: "rate limited",
		},
		{
			name: "non-json error body",
			doFunc: func(req *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusBadGateway, "upstream down"), nil
			},
			wantMsg: "upstream down",
		},
		{
			name: "no choices",
			doFunc: func(req *http.Request) (*http.Response, error) {
				return jsonResponse(http.StatusOK, `{"choices":[]}`), nil
			},
			wantMsg: "no choices",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := groq.NewClient(groq.Options{
				APIKey:     "key",
				HTTPClient: &mockDoer{doFunc: tt.doFunc},
			})
			must.NoError(t, err)

			_, err = client.Invoke(context.Background(), "system", "user")
			must.Error(t, err)
			should.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}
