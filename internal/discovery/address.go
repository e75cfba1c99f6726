package discovery

import (
	"net"
	"net/url"
	"strings"
)

// AddressHost 从 power address 中提取主机部分（去掉 scheme、用户、端口、路径），用于地址比较。
func AddressHost(address string) string {
	address = strings.TrimSpace(address)
	if address == "" {
		return ""
	}
	if !strings.Contains(address, "://") {
		address = "//" + address
	}
	u, err := url.Parse(address)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// SameAddress 判断两个地址是否指向同一主机。
func SameAddress(a, b string) bool {
	ha, hb := AddressHost(a), AddressHost(b)
	return ha != "" && ha == hb
}

// IPFromAddress 当地址主机部分是 IP 字面量时返回该 IP。
func IPFromAddress(address string) string {
	h := AddressHost(address)
	if ip := net.ParseIP(h); ip != nil {
		return ip.String()
	}
	return ""
}
