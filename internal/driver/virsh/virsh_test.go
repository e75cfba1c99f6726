package virsh

import (
	"context"
	"errors"
	"testing"

	"podsync/internal/discovery"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pinnedDomain = `<domain type='kvm'>
  <name>vm-pinned</name>
  <memory unit='KiB'>2097152</memory>
  <vcpu placement='static' cpuset='0-3'>2</vcpu>
  <cputune>
    <vcpupin vcpu='0' cpuset='4'/>
    <vcpupin vcpu='1' cpuset='6'/>
  </cputune>
  <memoryBacking><hugepages/></memoryBacking>
  <devices>
    <disk type='volume' device='disk'>
      <source pool='default' volume='vm-pinned-root'/>
    </disk>
    <disk type='file' device='cdrom'>
      <source file='/iso/ubuntu.iso'/>
    </disk>
  </devices>
</domain>`

const plainDomain = `<domain type='kvm'>
  <name>vm-plain</name>
  <memory unit='GiB'>1</memory>
  <vcpu>4</vcpu>
  <devices>
    <disk type='file' device='disk'>
      <source file='/var/lib/libvirt/images/vm-plain.qcow2'/>
    </disk>
    <disk type='file' device='disk'>
      <source file='/srv/elsewhere/data.img'/>
    </disk>
  </devices>
</domain>`

const defaultPool = `<pool type='dir'><name>default</name><target><path>/var/lib/libvirt/images</path></target></pool>`

type fakeHypervisor struct {
	pools   []poolInfo
	domains []domainInfo
	volumes map[string]int64
	closed  bool
}

func (f *fakeHypervisor) Hostname() (string, error) { return "kvm01", nil }

func (f *fakeHypervisor) NodeInfo() (*nodeInfo, error) {
	return &nodeInfo{Model: "x86_64", Memory: 16 << 30, Cores: 8, MHz: 2400}, nil
}

func (f *fakeHypervisor) Pools() ([]poolInfo, error)     { return f.pools, nil }
func (f *fakeHypervisor) Domains() ([]domainInfo, error) { return f.domains, nil }

func (f *fakeHypervisor) VolumeSize(pool, volume string) (int64, error) {
	size, ok := f.volumes[pool+"/"+volume]
	if !ok {
		return 0, errors.New("volume not found")
	}
	return size, nil
}

func (f *fakeHypervisor) Close() error {
	f.closed = true
	return nil
}

func newTestDriver(hv *fakeHypervisor) *Driver {
	d := New(nil)
	d.dial = func(context.Context, string) (hypervisor, error) { return hv, nil }
	return d
}

func TestParseDomainXML(t *testing.T) {
	spec, err := parseDomainXML(pinnedDomain)
	require.NoError(t, err)
	assert.Equal(t, int64(2<<30), spec.Memory)
	assert.Equal(t, 2, spec.Cores)
	assert.Equal(t, []int{4, 6}, spec.Pinned)
	assert.True(t, spec.Hugepages)
	assert.Equal(t, []diskRef{{Pool: "default", Volume: "vm-pinned-root"}}, spec.Disks)

	spec, err = parseDomainXML(plainDomain)
	require.NoError(t, err)
	assert.Equal(t, int64(1<<30), spec.Memory)
	assert.Equal(t, 4, spec.Cores)
	assert.Empty(t, spec.Pinned)
	assert.False(t, spec.Hugepages)
	assert.Len(t, spec.Disks, 2)

	_, err = parseDomainXML("<domain><memory unit='furlong'>1</memory></domain>")
	assert.Error(t, err)
}

func TestDiscover(t *testing.T) {
	hv := &fakeHypervisor{
		pools: []poolInfo{{Name: "default", Capacity: 500 << 30, XML: defaultPool}},
		domains: []domainInfo{
			{Name: "vm-plain", Running: false, XML: plainDomain},
			{Name: "vm-pinned", Running: true, XML: pinnedDomain},
		},
		volumes: map[string]int64{
			"default/vm-pinned-root": 20 << 30,
			"default/vm-plain.qcow2": 8 << 30,
		},
	}
	res, err := newTestDriver(hv).Discover(context.Background(), discovery.Target{PodType: PodType, PowerAddress: "qemu+ssh://root@10.0.0.5/system"})
	require.NoError(t, err)
	assert.True(t, hv.closed)
	require.NotNil(t, res.Pod)

	pod := res.Pod
	assert.Equal(t, "kvm01", pod.Name)
	assert.Equal(t, []string{"amd64/generic"}, pod.Architectures)
	assert.Equal(t, 8, pod.Cores)
	assert.Equal(t, 2400, pod.CPUSpeed)
	assert.Equal(t, int64(500<<30), pod.LocalStorage)
	assert.Equal(t, "/var/lib/libvirt/images", pod.StoragePools[0].Path)
	assert.Equal(t, "dir", pod.StoragePools[0].Type)

	require.Len(t, pod.Machines, 2)
	pinned, plain := pod.Machines[0], pod.Machines[1]
	assert.Equal(t, "vm-pinned", pinned.Name)
	assert.Equal(t, "on", pinned.PowerState)
	assert.Equal(t, []discovery.MachineDisk{{Size: 20 << 30, Pool: "default"}}, pinned.Disks)
	assert.Equal(t, "off", plain.PowerState)
	assert.Equal(t, []discovery.MachineDisk{{Size: 8 << 30, Pool: "default"}}, plain.Disks)
}

func TestDiscoverRequiresPools(t *testing.T) {
	_, err := newTestDriver(&fakeHypervisor{}).Discover(context.Background(), discovery.Target{PowerAddress: "qemu:///system"})
	assert.ErrorContains(t, err, "no active storage pools")
}

func TestDiscoverDialError(t *testing.T) {
	d := New(nil)
	d.dial = func(context.Context, string) (hypervisor, error) { return nil, errors.New("auth failed") }
	_, err := d.Discover(context.Background(), discovery.Target{PowerAddress: "qemu:///system"})
	assert.EqualError(t, err, "failed to connect to qemu:///system: auth failed")
}
