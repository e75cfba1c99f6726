package vmhost

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNoAgents 表示没有任何 agent 能访问目标宿主机。
var ErrNoAgents = errors.New("no agents available to reach the VM host")

// ErrDiscoveryExhausted 所有 agent 均失败，Error() 与底层错误信息一致。
type ErrDiscoveryExhausted struct {
	error
}

func NewErrDiscoveryExhausted(cause error) *ErrDiscoveryExhausted {
	return &ErrDiscoveryExhausted{cause}
}

func (e *ErrDiscoveryExhausted) Unwrap() error {
	return e.error
}

// ErrInvalidTopology 发现的集群中没有成员能对应到发起同步的宿主机。
type ErrInvalidTopology struct {
	error
}

func NewErrInvalidTopology(cluster, host string) *ErrInvalidTopology {
	return &ErrInvalidTopology{fmt.Errorf("discovered cluster %q has no member matching VM host %q", cluster, host)}
}

func (e *ErrInvalidTopology) Unwrap() error {
	return e.error
}

// ErrDuplicateMember 目标宿主机对应的 pod 已经由集群中的另一台宿主机登记。
type ErrDuplicateMember struct {
	error
	ExistingID uuid.UUID
}

func NewErrDuplicateMember(cluster, pod string, existing uuid.UUID) *ErrDuplicateMember {
	return &ErrDuplicateMember{
		error:      fmt.Errorf("pod %q of cluster %q is already registered as VM host %s", pod, cluster, existing),
		ExistingID: existing,
	}
}

func (e *ErrDuplicateMember) Unwrap() error {
	return e.error
}

type ErrHostNotFound struct {
	error
}

func NewErrHostNotFound(id fmt.Stringer) *ErrHostNotFound {
	return &ErrHostNotFound{fmt.Errorf("VM host %s not found", id)}
}

func (e *ErrHostNotFound) Unwrap() error {
	return e.error
}
