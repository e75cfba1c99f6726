package driver

import "strings"

var kernelToDebian = map[string]string{
	"x86_64":  "amd64",
	"i686":    "i386",
	"aarch64": "arm64",
	"armv7l":  "armhf",
	"ppc64le": "ppc64el",
	"s390x":   "s390x",
}

// DebianArchitecture 把内核架构名转换为 "<debian>/generic" 形式。
func DebianArchitecture(kernel string) string {
	kernel = strings.TrimSpace(kernel)
	if kernel == "" {
		return ""
	}
	arch, ok := kernelToDebian[kernel]
	if !ok {
		arch = kernel
	}
	return arch + "/generic"
}
