package agent

import (
	"net/http"
	"strings"

	"podsync/internal/store/model"
)

// Tokens 是 region 访问各个机架 agent 的凭据。每个 agent 进程用 agent.token 校验请求，
// 可以为单个 agent 配置独立的 token，未配置的 agent 使用共享 token。
type Tokens struct {
	shared   string
	perAgent map[string]string
}

// NewTokens perAgent 以 agent 的 system id 为键，空值会被忽略。
func NewTokens(shared string, perAgent map[string]string) *Tokens {
	t := &Tokens{shared: strings.TrimSpace(shared), perAgent: make(map[string]string, len(perAgent))}
	for id, tok := range perAgent {
		if tok = strings.TrimSpace(tok); tok != "" {
			t.perAgent[id] = tok
		}
	}
	return t
}

// For 返回访问 a 使用的 token，没有可用 token 时返回空串。
func (t *Tokens) For(a model.Agent) string {
	if t == nil {
		return ""
	}
	if tok, ok := t.perAgent[a.ID]; ok {
		return tok
	}
	return t.shared
}

// authorize 给请求加上 a 对应的 Bearer 头。
func (t *Tokens) authorize(req *http.Request, header string, a model.Agent) {
	if tok := t.For(a); tok != "" {
		req.Header.Set(header, "Bearer "+tok)
	}
}
