package lxd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// response 是 LXD REST API 的统一返回格式。
type response struct {
	Type       string          `json:"type"`
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Error      string          `json:"error"`
	ErrorCode  int             `json:"error_code"`
	Metadata   json.RawMessage `json:"metadata"`
}

type serverInfo struct {
	APIExtensions []string `json:"api_extensions"`
	Auth          string   `json:"auth"`
	Environment   struct {
		ServerName         string `json:"server_name"`
		ServerVersion      string `json:"server_version"`
		KernelArchitecture string `json:"kernel_architecture"`
		ServerClustered    bool   `json:"server_clustered"`
	} `json:"environment"`
}

func (s *serverInfo) hasExtension(name string) bool {
	for _, ext := range s.APIExtensions {
		if ext == name {
			return true
		}
	}
	return false
}

type hostResources struct {
	CPU struct {
		Total   int `json:"total"`
		Sockets []struct {
			Frequency      int `json:"frequency"`
			FrequencyTurbo int `json:"frequency_turbo"`
		} `json:"sockets"`
	} `json:"cpu"`
	Memory struct {
		Total          int64 `json:"total"`
		HugepagesTotal int64 `json:"hugepages_total"`
	} `json:"memory"`
}

type storagePool struct {
	Name   string            `json:"name"`
	Driver string            `json:"driver"`
	Config map[string]string `json:"config"`
}

type storagePoolResources struct {
	Space struct {
		Total int64 `json:"total"`
		Used  int64 `json:"used"`
	} `json:"space"`
}

type instance struct {
	Name            string                       `json:"name"`
	Type            string                       `json:"type"`
	Project         string                       `json:"project"`
	Location        string                       `json:"location"`
	StatusCode      int                          `json:"status_code"`
	ExpandedConfig  map[string]string            `json:"expanded_config"`
	ExpandedDevices map[string]map[string]string `json:"expanded_devices"`
}

type clusterMember struct {
	ServerName   string `json:"server_name"`
	URL          string `json:"url"`
	Architecture string `json:"architecture"`
	Status       string `json:"status"`
}

// client 是访问单个 LXD 端点的最小 REST 客户端。
type client struct {
	endpoint   string
	httpClient *http.Client
}

func (c *client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	target := c.endpoint + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to the LXD REST API: %w", err)
	}
	defer resp.Body.Close()

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return fmt.Errorf("invalid LXD response from %s: %w", path, err)
	}
	if r.Type == "error" || resp.StatusCode >= http.StatusBadRequest {
		if r.Error == "" {
			r.Error = fmt.Sprintf("LXD returned status %d", resp.StatusCode)
		}
		return errors.New(r.Error)
	}
	if out == nil || len(r.Metadata) == 0 {
		return nil
	}
	return json.Unmarshal(r.Metadata, out)
}
