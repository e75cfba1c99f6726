package virsh

import (
	"context"

	libvirt "github.com/libvirt/libvirt-go"
)

type libvirtHypervisor struct {
	conn *libvirt.Connect
}

func dialLibvirt(_ context.Context, uri string) (hypervisor, error) {
	conn, err := libvirt.NewConnect(uri)
	if err != nil {
		return nil, err
	}
	return &libvirtHypervisor{conn: conn}, nil
}

func (h *libvirtHypervisor) Hostname() (string, error) {
	return h.conn.GetHostname()
}

func (h *libvirtHypervisor) NodeInfo() (*nodeInfo, error) {
	info, err := h.conn.GetNodeInfo()
	if err != nil {
		return nil, err
	}
	return &nodeInfo{
		Model:  info.Model,
		Memory: int64(info.Memory) * 1024, // KiB
		Cores:  int(info.Cpus),
		MHz:    int(info.MHz),
	}, nil
}

func (h *libvirtHypervisor) Pools() ([]poolInfo, error) {
	pools, err := h.conn.ListAllStoragePools(libvirt.CONNECT_LIST_STORAGE_POOLS_ACTIVE)
	if err != nil {
		return nil, err
	}
	res := make([]poolInfo, 0, len(pools))
	for i := range pools {
		p := &pools[i]
		info, err := readPool(p)
		_ = p.Free()
		if err != nil {
			return nil, err
		}
		res = append(res, *info)
	}
	return res, nil
}

func readPool(p *libvirt.StoragePool) (*poolInfo, error) {
	name, err := p.GetName()
	if err != nil {
		return nil, err
	}
	info, err := p.GetInfo()
	if err != nil {
		return nil, err
	}
	desc, err := p.GetXMLDesc(0)
	if err != nil {
		return nil, err
	}
	return &poolInfo{Name: name, Capacity: int64(info.Capacity), XML: desc}, nil
}

func (h *libvirtHypervisor) Domains() ([]domainInfo, error) {
	domains, err := h.conn.ListAllDomains(0)
	if err != nil {
		return nil, err
	}
	res := make([]domainInfo, 0, len(domains))
	for i := range domains {
		d := &domains[i]
		info, err := readDomain(d)
		_ = d.Free()
		if err != nil {
			return nil, err
		}
		res = append(res, *info)
	}
	return res, nil
}

func readDomain(d *libvirt.Domain) (*domainInfo, error) {
	name, err := d.GetName()
	if err != nil {
		return nil, err
	}
	state, _, err := d.GetState()
	if err != nil {
		return nil, err
	}
	desc, err := d.GetXMLDesc(0)
	if err != nil {
		return nil, err
	}
	running := state == libvirt.DOMAIN_RUNNING || state == libvirt.DOMAIN_PAUSED
	return &domainInfo{Name: name, Running: running, XML: desc}, nil
}

func (h *libvirtHypervisor) VolumeSize(pool, volume string) (int64, error) {
	p, err := h.conn.LookupStoragePoolByName(pool)
	if err != nil {
		return 0, err
	}
	defer p.Free()
	v, err := p.LookupStorageVolByName(volume)
	if err != nil {
		return 0, err
	}
	defer v.Free()
	info, err := v.GetInfo()
	if err != nil {
		return 0, err
	}
	return int64(info.Capacity), nil
}

func (h *libvirtHypervisor) Close() error {
	_, err := h.conn.Close()
	return err
}
