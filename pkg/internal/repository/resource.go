package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/yeisme/photoarchive/pkg/internal/model"
)

type gormResourceRepository struct {
	db *gorm.DB
}

// NewResourceRepository 创建基于 GORM 的资源存储.
func NewResourceRepository(db *gorm.DB) ResourceRepository {
	return &gormResourceRepository{db: db}
}

func (r *gormResourceRepository) Create(ctx context.Context, res *model.Resource) error {
	return translate(r.db.WithContext(ctx).Create(res).Error)
}

func (r *gormResourceRepository) GetByID(ctx context.Context, id uint) (*model.Resource, error) {
	var res model.Resource
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&res).Error; err != nil {
		return nil, translate(err)
	}

	return &res, nil
}

func (r *gormResourceRepository) ContentIDExists(ctx context.Context, contentID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Resource{}).Where("content_id = ?", contentID).Count(&n).Error

	return n > 0, err
}

func (r *gormResourceRepository) FindLiveByRelation(ctx context.Context, resourceType, relatedTable, relatedID string) ([]model.Resource, error) {
	var out []model.Resource
	err := r.db.WithContext(ctx).
		Where("resource_type = ? AND related_table = ? AND related_id = ? AND status = ?",
			resourceType, relatedTable, relatedID, model.ResourceLive).
		Order("id").
		Find(&out).Error

	return out, err
}

func (r *gormResourceRepository) GetLiveByStorageName(ctx context.Context, storageName string) (*model.Resource, error) {
	var res model.Resource

	err := r.db.WithContext(ctx).
		Where("storage_name = ? AND status = ?", storageName, model.ResourceLive).
		Order("id DESC").
		First(&res).Error
	if err != nil {
		return nil, translate(err)
	}

	return &res, nil
}

func (r *gormResourceRepository) SoftDelete(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Resource{}).
		Where("id = ? AND status = ?", id, model.ResourceLive).
		Update("status", model.ResourceDeleted)

	return res.RowsAffected == 1, res.Error
}

func (r *gormResourceRepository) MarkBytesRemoved(ctx context.Context, id uint) error {
	return translate(r.db.WithContext(ctx).Model(&model.Resource{}).Where("id = ?", id).Update("bytes_removed", true).Error)
}

func (r *gormResourceRepository) ListPendingByteRemoval(ctx context.Context, limit int) ([]model.Resource, error) {
	var out []model.Resource

	q := r.db.WithContext(ctx).
		Where("status = ? AND bytes_removed = ?", model.ResourceDeleted, false).
		Order("id")
	if limit > 0 {
		q = q.Limit(limit)
	}

	return out, q.Find(&out).Error
}

