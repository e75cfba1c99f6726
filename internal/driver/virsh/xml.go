package virsh

import (
	"encoding/xml"
	"fmt"
	"strings"

	"k8s.io/utils/cpuset"
)

type domainXML struct {
	XMLName xml.Name `xml:"domain"`
	Name    string   `xml:"name"`
	Memory  struct {
		Unit  string `xml:"unit,attr"`
		Value int64  `xml:",chardata"`
	} `xml:"memory"`
	VCPU struct {
		CPUSet string `xml:"cpuset,attr"`
		Value  int    `xml:",chardata"`
	} `xml:"vcpu"`
	CPUTune struct {
		VCPUPins []struct {
			VCPU   int    `xml:"vcpu,attr"`
			CPUSet string `xml:"cpuset,attr"`
		} `xml:"vcpupin"`
	} `xml:"cputune"`
	MemoryBacking *struct {
		Hugepages *struct{} `xml:"hugepages"`
	} `xml:"memoryBacking"`
	Devices struct {
		Disks []struct {
			Type   string `xml:"type,attr"`
			Device string `xml:"device,attr"`
			Source struct {
				Pool   string `xml:"pool,attr"`
				Volume string `xml:"volume,attr"`
				File   string `xml:"file,attr"`
				Dev    string `xml:"dev,attr"`
			} `xml:"source"`
		} `xml:"devices>disk"`
	} `xml:"devices"`
}

type poolXML struct {
	XMLName xml.Name `xml:"pool"`
	Type    string   `xml:"type,attr"`
	Target  struct {
		Path string `xml:"path"`
	} `xml:"target"`
}

// domainSpec 是从 domain XML 中提取的资源占用。
type domainSpec struct {
	Memory    int64
	Cores     int
	Pinned    []int
	Hugepages bool
	Disks     []diskRef
}

// diskRef 指向 pool 中的卷，或者是一个本地文件路径。
type diskRef struct {
	Pool   string
	Volume string
	File   string
}

var memoryUnits = map[string]int64{
	"":      1 << 10,
	"b":     1,
	"bytes": 1,
	"kb":    1000,
	"k":     1 << 10,
	"kib":   1 << 10,
	"mb":    1000 * 1000,
	"m":     1 << 20,
	"mib":   1 << 20,
	"gb":    1000 * 1000 * 1000,
	"g":     1 << 30,
	"gib":   1 << 30,
}

func parseDomainXML(data string) (*domainSpec, error) {
	var d domainXML
	if err := xml.Unmarshal([]byte(data), &d); err != nil {
		return nil, fmt.Errorf("解析 domain XML 失败: %w", err)
	}
	unit, ok := memoryUnits[strings.ToLower(d.Memory.Unit)]
	if !ok {
		return nil, fmt.Errorf("domain %s 内存单位未知: %q", d.Name, d.Memory.Unit)
	}
	spec := &domainSpec{
		Memory:    d.Memory.Value * unit,
		Cores:     d.VCPU.Value,
		Hugepages: d.MemoryBacking != nil && d.MemoryBacking.Hugepages != nil,
	}
	if spec.Cores == 0 {
		spec.Cores = 1
	}

	pinned, err := pinnedCores(d)
	if err != nil {
		return nil, fmt.Errorf("domain %s: %w", d.Name, err)
	}
	spec.Pinned = pinned

	for _, disk := range d.Devices.Disks {
		if disk.Device != "" && disk.Device != "disk" {
			continue
		}
		switch {
		case disk.Source.Pool != "" && disk.Source.Volume != "":
			spec.Disks = append(spec.Disks, diskRef{Pool: disk.Source.Pool, Volume: disk.Source.Volume})
		case disk.Source.File != "":
			spec.Disks = append(spec.Disks, diskRef{File: disk.Source.File})
		case disk.Source.Dev != "":
			spec.Disks = append(spec.Disks, diskRef{File: disk.Source.Dev})
		}
	}
	return spec, nil
}

// pinnedCores 优先使用 cputune 中逐个 vcpu 的绑定，其次是 vcpu 的 cpuset 属性。
func pinnedCores(d domainXML) ([]int, error) {
	if len(d.CPUTune.VCPUPins) > 0 {
		set := cpuset.New()
		for _, pin := range d.CPUTune.VCPUPins {
			s, err := cpuset.Parse(pin.CPUSet)
			if err != nil {
				return nil, fmt.Errorf("invalid vcpupin cpuset %q: %w", pin.CPUSet, err)
			}
			set = set.Union(s)
		}
		return set.List(), nil
	}
	if d.VCPU.CPUSet == "" {
		return nil, nil
	}
	set, err := cpuset.Parse(d.VCPU.CPUSet)
	if err != nil {
		return nil, fmt.Errorf("invalid vcpu cpuset %q: %w", d.VCPU.CPUSet, err)
	}
	return set.List(), nil
}

func parsePoolXML(data string) (*poolXML, error) {
	var p poolXML
	if err := xml.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("解析 pool XML 失败: %w", err)
	}
	return &p, nil
}
