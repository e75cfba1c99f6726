package app

import "errors"

// ErrInvalidArgument 请求参数不合法，HTTP 层映射为 400。
type ErrInvalidArgument struct {
	error
}

func NewErrInvalidArgument(msg string) *ErrInvalidArgument {
	return &ErrInvalidArgument{errors.New(msg)}
}

// ErrGraphMismatch 关系库与图数据库的宿主机数量不一致。
var ErrGraphMismatch = errors.New("graph is out of sync with the store")
