package discovery

import "errors"

var ErrEmptyResult = errors.New("agent returned an empty discovery result")

// AgentError 记录单个 agent 的发现失败，错误信息与底层错误保持一致。
type AgentError struct {
	AgentID string
	Err     error
}

func (e *AgentError) Error() string {
	return e.Err.Error()
}

func (e *AgentError) Unwrap() error {
	return e.Err
}
