package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sign(payload, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func githubRequest(event, payload, signature string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/webhook/github", strings.NewReader(payload))
	if signature != "" {
		req.Header.Set("X-Hub-Signature-256", signature)
	}
	req.Header.Set("X-GitHub-Event", event)
	return req
}

func TestGitHubHandler_TagEvents(t *testing.T) {
	const secret = "test-secret"
	tests := []struct {
		name     string
		event    string
		payload  string
		wantCode int
		want     []TagPush
	}{
		{
			name:     "create tag",
			event:    "create",
			payload:  `{"ref":"v7.2.0-beta.1","ref_type":"tag","repository":{"full_name":"signalapp/Signal-Desktop"}}`,
			wantCode: http.StatusAccepted,
			want:     []TagPush{{Host: "github", Repo: "signalapp/Signal-Desktop", Tag: "v7.2.0-beta.1"}},
		},
		{
			name:     "push tag",
			event:    "push",
			payload:  `{"ref":"refs/tags/v1.2.4","deleted":false,"repository":{"full_name":"signalapp/Signal-Android"}}`,
			wantCode: http.StatusAccepted,
			want:     []TagPush{{Host: "github", Repo: "signalapp/Signal-Android", Tag: "v1.2.4"}},
		},
		{
			name:     "create branch",
			event:    "create",
			payload:  `{"ref":"release/1.2","ref_type":"branch","repository":{"full_name":"signalapp/Signal-Android"}}`,
			wantCode: http.StatusNoContent,
		},
		{
			name:     "push branch",
			event:    "push",
			payload:  `{"ref":"refs/heads/main","repository":{"full_name":"signalapp/Signal-Android"}}`,
			wantCode: http.StatusNoContent,
		},
		{
			name:     "deleted tag",
			event:    "push",
			payload:  `{"ref":"refs/tags/v1.2.4","deleted":true,"repository":{"full_name":"signalapp/Signal-Android"}}`,
			wantCode: http.StatusNoContent,
		},
		{
			name:     "other event",
			event:    "pull_request",
			payload:  `{"action":"opened","number":1}`,
			wantCode: http.StatusNoContent,
		},
		{
			name:     "ping",
			event:    "ping",
			payload:  `{"zen":"Keep it logically awesome."}`,
			wantCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []TagPush
			handler := NewGitHubHandler(secret, func(push TagPush) error {
				got = append(got, push)
				return nil
			})

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, githubRequest(tt.event, tt.payload, sign(tt.payload, secret)))

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d, body = %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("pushes mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGitHubHandler_InvalidSignature(t *testing.T) {
	payload := `{"ref":"v1.0.0","ref_type":"tag","repository":{"full_name":"o/r"}}`

	handler := NewGitHubHandler("test-secret", func(push TagPush) error {
		t.Error("handler should not be called with invalid signature")
		return nil
	})

	for _, signature := range []string{"sha256=invalid", sign(payload, "other-secret"), "sha1=abc"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, githubRequest("create", payload, signature))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("signature %q: status = %d, want %d", signature, rec.Code, http.StatusUnauthorized)
		}
	}
}

func TestGitHubHandler_MissingSignature(t *testing.T) {
	handler := NewGitHubHandler("test-secret", func(push TagPush) error {
		t.Error("handler should not be called with missing signature")
		return nil
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, githubRequest("create", `{}`, ""))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestGitHubHandler_InvalidJSON(t *testing.T) {
	const secret = "test-secret"
	payload := `{not json`

	handler := NewGitHubHandler(secret, func(push TagPush) error {
		t.Error("handler should not be called with invalid JSON")
		return nil
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, githubRequest("create", payload, sign(payload, secret)))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestGitHubHandler_HandlerError(t *testing.T) {
	const secret = "test-secret"
	payload := `{"ref":"v1.0.0","ref_type":"tag","repository":{"full_name":"o/r"}}`

	handler := NewGitHubHandler(secret, func(push TagPush) error {
		return errors.New("queue full")
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, githubRequest("create", payload, sign(payload, secret)))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestGitHubHandler_MethodNotAllowed(t *testing.T) {
	handler := NewGitHubHandler("test-secret", func(push TagPush) error { return nil })

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/webhook/github", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}
