package store

import (
	"context"
	"fmt"

	"podsync/internal/store/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Host interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Host, error)
	List(ctx context.Context, filter *HostQueryFilter) ([]model.Host, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, host *model.Host) error
	Update(ctx context.Context, host *model.Host) error
	Delete(ctx context.Context, id uuid.UUID) error
	ReplaceStoragePools(ctx context.Context, hostID uuid.UUID, pools []model.StoragePool) error
	ReplaceVirtualMachines(ctx context.Context, hostID uuid.UUID, vms []model.VirtualMachine) error
	ReplaceRackRelationships(ctx context.Context, hostID uuid.UUID, rels []model.RackRelationship) error
}

type hostStore struct {
	db *gorm.DB
}

func NewHostStore(db *gorm.DB) Host {
	return &hostStore{db: db}
}

func preloadHost(tx *gorm.DB) *gorm.DB {
	return tx.
		Preload("Cluster").
		Preload("Tags").
		Preload("StoragePools", func(db *gorm.DB) *gorm.DB { return db.Order("name") }).
		Preload("VirtualMachines", func(db *gorm.DB) *gorm.DB { return db.Order("name") }).
		Preload("VirtualMachines.Disks").
		Preload("RackRelationships", func(db *gorm.DB) *gorm.DB { return db.Order("agent_id") })
}

func (s *hostStore) Get(ctx context.Context, id uuid.UUID) (*model.Host, error) {
	var host model.Host
	if err := preloadHost(getDB(ctx, s.db)).First(&host, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &host, nil
}

func (s *hostStore) List(ctx context.Context, filter *HostQueryFilter) ([]model.Host, error) {
	var hosts []model.Host
	tx := filter.apply(preloadHost(getDB(ctx, s.db)))
	if err := tx.Order("name").Order("id").Find(&hosts).Error; err != nil {
		return nil, err
	}
	return hosts, nil
}

func (s *hostStore) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := getDB(ctx, s.db).Model(&model.Host{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (s *hostStore) Create(ctx context.Context, host *model.Host) error {
	if err := getDB(ctx, s.db).Omit(clause.Associations).Create(host).Error; err != nil {
		return translate(err)
	}
	return nil
}

// Update 只写宿主机自身的列，关联数据通过 Replace* 维护。
func (s *hostStore) Update(ctx context.Context, host *model.Host) error {
	if err := getDB(ctx, s.db).Omit(clause.Associations).Save(host).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (s *hostStore) Delete(ctx context.Context, id uuid.UUID) error {
	db := getDB(ctx, s.db)
	if err := s.deleteVirtualMachines(db, id); err != nil {
		return err
	}
	steps := []any{&model.StoragePool{}, &model.RackRelationship{}, &model.HostTag{}}
	for _, m := range steps {
		if err := db.Where("host_id = ?", id).Delete(m).Error; err != nil {
			return fmt.Errorf("删除宿主机关联数据失败: %w", err)
		}
	}
	result := db.Delete(&model.Host{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

func (s *hostStore) ReplaceStoragePools(ctx context.Context, hostID uuid.UUID, pools []model.StoragePool) error {
	db := getDB(ctx, s.db)
	if err := db.Where("host_id = ?", hostID).Delete(&model.StoragePool{}).Error; err != nil {
		return fmt.Errorf("删除存储池失败: %w", err)
	}
	for i := range pools {
		pools[i].ID = uuid.Nil
		pools[i].HostID = hostID
		if err := db.Create(&pools[i]).Error; err != nil {
			return fmt.Errorf("写入存储池 %s 失败: %w", pools[i].Name, translate(err))
		}
	}
	return nil
}

func (s *hostStore) ReplaceVirtualMachines(ctx context.Context, hostID uuid.UUID, vms []model.VirtualMachine) error {
	db := getDB(ctx, s.db)
	if err := s.deleteVirtualMachines(db, hostID); err != nil {
		return err
	}
	for i := range vms {
		vms[i].ID = uuid.Nil
		vms[i].HostID = hostID
		for j := range vms[i].Disks {
			vms[i].Disks[j].ID = uuid.Nil
		}
		if err := db.Create(&vms[i]).Error; err != nil {
			return fmt.Errorf("写入虚拟机 %s 失败: %w", vms[i].Name, translate(err))
		}
	}
	return nil
}

func (s *hostStore) ReplaceRackRelationships(ctx context.Context, hostID uuid.UUID, rels []model.RackRelationship) error {
	db := getDB(ctx, s.db)
	if err := db.Where("host_id = ?", hostID).Delete(&model.RackRelationship{}).Error; err != nil {
		return fmt.Errorf("删除机架关系失败: %w", err)
	}
	for i := range rels {
		rels[i].HostID = hostID
		if err := db.Create(&rels[i]).Error; err != nil {
			return fmt.Errorf("写入机架关系失败 agent=%s: %w", rels[i].AgentID, translate(err))
		}
	}
	return nil
}

func (s *hostStore) deleteVirtualMachines(db *gorm.DB, hostID uuid.UUID) error {
	vmIDs := db.Model(&model.VirtualMachine{}).Select("id").Where("host_id = ?", hostID)
	if err := db.Where("virtual_machine_id IN (?)", vmIDs).Delete(&model.VirtualMachineDisk{}).Error; err != nil {
		return fmt.Errorf("删除虚拟机磁盘失败: %w", err)
	}
	if err := db.Where("host_id = ?", hostID).Delete(&model.VirtualMachine{}).Error; err != nil {
		return fmt.Errorf("删除虚拟机失败: %w", err)
	}
	return nil
}
