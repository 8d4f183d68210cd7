package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yeisme/photoarchive/pkg/internal/model"
)

type gormAccountRepository struct {
	db *gorm.DB
}

// NewAccountRepository 创建基于 GORM 的账号存储.
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &gormAccountRepository{db: db}
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}

func (r *gormAccountRepository) Create(ctx context.Context, account *model.Account) error {
	return translate(r.db.WithContext(ctx).Create(account).Error)
}

func (r *gormAccountRepository) first(ctx context.Context, query string, arg any) (*model.Account, error) {
	var a model.Account
	if err := r.db.WithContext(ctx).Where(query, arg).First(&a).Error; err != nil {
		return nil, translate(err)
	}

	return &a, nil
}

func (r *gormAccountRepository) GetByID(ctx context.Context, id uint) (*model.Account, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *gormAccountRepository) GetByUsername(ctx context.Context, username string) (*model.Account, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *gormAccountRepository) GetByIdentifier(ctx context.Context, identifier string) (*model.Account, error) {
	return r.first(ctx, "unique_identifier = ?", identifier)
}

func (r *gormAccountRepository) taken(ctx context.Context, column, value string, excludeID uint) (bool, error) {
	var n int64

	q := r.db.WithContext(ctx).Model(&model.Account{}).Where(column+" = ?", value)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}

	if err := q.Count(&n).Error; err != nil {
		return false, err
	}

	return n > 0, nil
}

func (r *gormAccountRepository) UsernameTaken(ctx context.Context, username string, excludeID uint) (bool, error) {
	return r.taken(ctx, "username", username, excludeID)
}

func (r *gormAccountRepository) EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error) {
	return r.taken(ctx, "email", email, excludeID)
}

func (r *gormAccountRepository) SetPendingNotes(ctx context.Context, id uint, notes string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Account{}).
		Where("id = ? AND status = ?", id, model.AccountPending).
		Update("notes", notes)

	return res.RowsAffected == 1, res.Error
}

func (r *gormAccountRepository) Activate(ctx context.Context, id uint, group string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Account{}).
		Where("id = ? AND status = ?", id, model.AccountPending).
		Updates(map[string]any{
			"status":           model.AccountActive,
			"permission_group": group,
			"notes":            "",
		})

	return res.RowsAffected == 1, res.Error
}

func (r *gormAccountRepository) Deactivate(ctx context.Context, id uint) (model.AccountStatus, error) {
	var prev model.AccountStatus

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a model.Account
		if err := tx.Select("id", "status").Where("id = ?", id).First(&a).Error; err != nil {
			return translate(err)
		}

		prev = a.Status

		return tx.Model(&model.Account{}).Where("id = ?", id).Update("status", model.AccountDeactivated).Error
	})

	return prev, err
}

func (r *gormAccountRepository) UpdateProfile(ctx context.Context, id uint, upd ProfileUpdate) error {
	fields := map[string]any{}
	if upd.Username != nil {
		fields["username"] = *upd.Username
	}

	if upd.Email != nil {
		fields["email"] = *upd.Email
	}

	if upd.Bio != nil {
		fields["bio"] = *upd.Bio
	}

	if len(fields) == 0 {
		return nil
	}

	res := r.db.WithContext(ctx).Model(&model.Account{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return translate(res.Error)
	}

	if res.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *gormAccountRepository) SetAvatar(ctx context.Context, id uint, path string) error {
	return translate(r.db.WithContext(ctx).Model(&model.Account{}).Where("id = ?", id).Update("avatar", path).Error)
}

func (r *gormAccountRepository) TouchLogin(ctx context.Context, id uint, at time.Time) error {
	return translate(r.db.WithContext(ctx).Model(&model.Account{}).Where("id = ?", id).Update("last_login_at", at).Error)
}
