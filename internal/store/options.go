package store

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BaseQuerier struct {
	QueryFn []func(tx *gorm.DB) *gorm.DB
}

type HostQueryFilter BaseQuerier

func NewHostQueryFilter() *HostQueryFilter {
	return &HostQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (f *HostQueryFilter) ByClusterID(id uuid.UUID) *HostQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("cluster_id = ?", id)
	})
	return f
}

func (f *HostQueryFilter) ByName(name string) *HostQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("name = ?", name)
	})
	return f
}

func (f *HostQueryFilter) ByPowerAddress(address string) *HostQueryFilter {
	f.QueryFn = append(f.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("power_address = ?", address)
	})
	return f
}

func (f *HostQueryFilter) apply(tx *gorm.DB) *gorm.DB {
	if f == nil {
		return tx
	}
	for _, fn := range f.QueryFn {
		tx = fn(tx)
	}
	return tx
}
