package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// githubPayload covers the fields of create and push events.
type githubPayload struct {
	Ref        string `json:"ref"`
	RefType    string `json:"ref_type"`
	Deleted    bool   `json:"deleted"`
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
}

// GitHubHandler handles GitHub webhook requests.
type GitHubHandler struct {
	secret  string
	handler TagPushHandler
}

// NewGitHubHandler creates a new GitHub webhook handler.
func NewGitHubHandler(secret string, handler TagPushHandler) *GitHubHandler {
	return &GitHubHandler{
		secret:  secret,
		handler: handler,
	}
}

// ServeHTTP implements http.Handler. Verified tag creations reach the
// handler and get 202; other events get 204.
func (h *GitHubHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get("X-Hub-Signature-256")
	if signature == "" {
		http.Error(w, "missing signature", http.StatusUnauthorized)
		return
	}
	if !h.verifySignature(body, signature) {
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	eventType := r.Header.Get("X-GitHub-Event")
	if eventType == "ping" {
		w.WriteHeader(http.StatusOK)
		return
	}

	var payload githubPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "failed to parse payload", http.StatusBadRequest)
		return
	}

	push, ok := githubTagPush(eventType, payload)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := h.handler(push); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func githubTagPush(eventType string, p githubPayload) (TagPush, bool) {
	push := TagPush{Host: "github", Repo: p.Repository.FullName}
	switch eventType {
	case "create":
		if p.RefType != "tag" {
			return TagPush{}, false
		}
		push.Tag = p.Ref
	case "push":
		if p.Deleted || !strings.HasPrefix(p.Ref, tagRefPrefix) {
			return TagPush{}, false
		}
		push.Tag = strings.TrimPrefix(p.Ref, tagRefPrefix)
	default:
		return TagPush{}, false
	}
	return push, push.Repo != "" && push.Tag != ""
}

// verifySignature verifies the GitHub webhook signature.
func (h *GitHubHandler) verifySignature(payload []byte, signature string) bool {
	if !strings.HasPrefix(signature, "sha256=") {
		return false
	}

	sig, err := hex.DecodeString(strings.TrimPrefix(signature, "sha256="))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write(payload)
	return hmac.Equal(sig, mac.Sum(nil))
}
