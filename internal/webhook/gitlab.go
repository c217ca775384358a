package webhook

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

type gitlabPayload struct {
	ObjectKind string `json:"object_kind"`
	Ref        string `json:"ref"`
	After      string `json:"after"`
	Project    struct {
		PathWithNamespace string `json:"path_with_namespace"`
	} `json:"project"`
}

// GitLabHandler handles GitLab webhook requests.
type GitLabHandler struct {
	secret  string
	handler TagPushHandler
}

// NewGitLabHandler creates a new GitLab webhook handler.
func NewGitLabHandler(secret string, handler TagPushHandler) *GitLabHandler {
	return &GitLabHandler{
		secret:  secret,
		handler: handler,
	}
}

// ServeHTTP implements http.Handler. Verified tag pushes reach the handler
// and get 202; other events and tag deletions get 204.
func (h *GitLabHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	token := r.Header.Get("X-Gitlab-Token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.secret)) != 1 {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	if r.Header.Get("X-Gitlab-Event") != "Tag Push Hook" {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var payload gitlabPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "failed to parse payload", http.StatusBadRequest)
		return
	}
	if payload.ObjectKind != "tag_push" || payload.After == zeroSHA || !strings.HasPrefix(payload.Ref, tagRefPrefix) {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	push := TagPush{
		Host: "gitlab",
		Repo: payload.Project.PathWithNamespace,
		Tag:  strings.TrimPrefix(payload.Ref, tagRefPrefix),
	}
	if err := h.handler(push); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}
