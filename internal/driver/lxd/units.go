package lxd

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"k8s.io/utils/cpuset"
)

// ParseByteSize 解析 "4GiB"、"500MB"、"1073741824" 这类取值，返回字节数。
// kB/MB/GB 是十进制单位，KiB/MiB/GiB 是二进制单位。
func ParseByteSize(value string) (int64, error) {
	n, err := humanize.ParseBytes(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("invalid LXD size %q: %w", value, err)
	}
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("LXD size %q out of range", value)
	}
	return int64(n), nil
}

// ParseCPULimits 解析 limits.cpu：纯数字表示核数，否则是绑定的核集合，如 "0-3,5"。
func ParseCPULimits(value string) (int, []int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 1, nil, nil
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n, nil, nil
	}
	set, err := cpuset.Parse(value)
	if err != nil {
		return 0, nil, fmt.Errorf("invalid limits.cpu %q: %w", value, err)
	}
	return set.Size(), set.List(), nil
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1":
		return true
	}
	return false
}

// EndpointURL 补全 power address：缺省 https 协议和 8443 端口。
func EndpointURL(address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", fmt.Errorf("empty LXD address")
	}
	if !strings.Contains(address, "://") {
		address = "https://" + address
	}
	u, err := url.Parse(address)
	if err != nil {
		return "", fmt.Errorf("invalid LXD address %q: %w", address, err)
	}
	if u.Port() == "" {
		u.Host = u.Host + ":8443"
	}
	u.Path = strings.TrimRight(u.Path, "/")
	return u.String(), nil
}
