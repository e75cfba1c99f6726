package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"podsync/internal/discovery"
	"podsync/internal/store/model"
	"podsync/internal/util"
)

const (
	DiscoverAPI = "/api/v1/discover"
	HealthAPI   = "/healthz"
)

// ErrorResponse 是 agent 出错时返回的 JSON 体。
type ErrorResponse struct {
	Error string `json:"error"`
}

// Config 控制 region 访问 agent 的方式。
type Config struct {
	Tokens         *Tokens
	AuthHeaderName string
	Timeout        time.Duration
	RetryAttempts  int
	RetryBackoff   time.Duration
}

// Connector 为每次同步创建独立的 HTTP 会话。
type Connector struct {
	cfg Config
}

func NewConnector(cfg Config) *Connector {
	if strings.TrimSpace(cfg.AuthHeaderName) == "" {
		cfg.AuthHeaderName = "Authorization"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 1
	}
	return &Connector{cfg: cfg}
}

// Connect 实现 discovery.Connector。
func (c *Connector) Connect(context.Context) (discovery.Caller, error) {
	return c.NewSession(), nil
}

// NewSession 创建一个使用独立连接池的会话。
func (c *Connector) NewSession() *Session {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	return &Session{
		cfg:        c.cfg,
		transport:  transport,
		httpClient: &http.Client{Timeout: c.cfg.Timeout, Transport: transport},
	}
}

// Session 是 Connector 创建的单次会话，Close 后释放连接。
type Session struct {
	cfg        Config
	transport  *http.Transport
	httpClient *http.Client
}

// Discover 请求 agent 对目标 pod 执行发现。agent 报告的错误信息原样返回。
func (s *Session) Discover(ctx context.Context, a model.Agent, target discovery.Target) (*discovery.Result, error) {
	payload, err := json.Marshal(target)
	if err != nil {
		return nil, fmt.Errorf("编码发现请求失败: %w", err)
	}

	var result *discovery.Result
	var agentErr error
	err = util.Retry(ctx, s.cfg.RetryAttempts, s.cfg.RetryBackoff, func() error {
		resp, err := s.do(ctx, http.MethodPost, a, DiscoverAPI, payload)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			// agent 已给出明确结论，不再重试
			agentErr = decodeError(resp)
			return nil
		}
		// 每次尝试都解码到新的值，避免上一次的半截结果残留
		var decoded discovery.Result
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return fmt.Errorf("解析 agent %s 响应失败: %w", a.ID, err)
		}
		result = &decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	if agentErr != nil {
		return nil, agentErr
	}
	return result, nil
}

// Ping 探测 agent 是否存活。
func (s *Session) Ping(ctx context.Context, a model.Agent) error {
	resp, err := s.do(ctx, http.MethodGet, a, HealthAPI, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("agent %s 健康检查返回状态码 %d", a.ID, resp.StatusCode)
	}
	return nil
}

func (s *Session) Close() error {
	s.transport.CloseIdleConnections()
	return nil
}

func (s *Session) do(ctx context.Context, method string, a model.Agent, path string, payload []byte) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(a.URL, "/")+path, body)
	if err != nil {
		return nil, fmt.Errorf("构建请求失败: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	s.cfg.Tokens.authorize(req, s.cfg.AuthHeaderName, a)
	return s.httpClient.Do(req)
}

func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var er ErrorResponse
	if err := json.Unmarshal(data, &er); err == nil && er.Error != "" {
		return errors.New(er.Error)
	}
	if msg := strings.TrimSpace(string(data)); msg != "" {
		return errors.New(msg)
	}
	return fmt.Errorf("agent 返回状态码 %d", resp.StatusCode)
}
