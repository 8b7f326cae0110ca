package adapters

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"pricing_backend/internal/feature/auth/domain/entity"
	"pricing_backend/internal/feature/auth/usecase"
)

// sessionRepository はSessionRepositoryのGORM実装です。Redisが使えない場合に利用します。
type sessionRepository struct {
	db  *gorm.DB
	now func() time.Time
}

var _ usecase.SessionRepository = (*sessionRepository)(nil)

// NewSessionRepository はGORMをバックエンドとするセッションリポジトリを生成します。
func NewSessionRepository(db *gorm.DB) *sessionRepository {
	return &sessionRepository{db: db, now: time.Now}
}

// live は失効しておらず期限内のセッションに絞り込みます。
func (r *sessionRepository) live(ctx context.Context, userID uint) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&SessionModel{}).
		Where("user_id = ? AND revoked_at IS NULL AND expires_at > ?", userID, r.now())
}

// Create はセッションを保存します。
func (r *sessionRepository) Create(ctx context.Context, session *entity.Session) error {
	return r.db.WithContext(ctx).Create(sessionModelFrom(session)).Error
}

// FindByID はリフレッシュトークン値でセッションを取得します。
func (r *sessionRepository) FindByID(ctx context.Context, id string) (*entity.Session, error) {
	var model SessionModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, usecase.ErrSessionNotFound
		}
		return nil, err
	}
	return model.toEntity(), nil
}

// Revoke は未失効のセッションに失効日時を設定します。
func (r *sessionRepository) Revoke(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&SessionModel{}).
		Where("id = ? AND revoked_at IS NULL", id).
		Update("revoked_at", r.now())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return usecase.ErrSessionNotFound
	}
	return nil
}

// DeleteExpired は期限切れのセッションを削除します。
func (r *sessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("expires_at < ?", r.now()).
		Delete(&SessionModel{})
	return result.RowsAffected, result.Error
}

// CountByUserID は有効なセッション数を返します。
func (r *sessionRepository) CountByUserID(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.live(ctx, userID).Count(&count).Error
	return count, err
}

// DeleteOldestByUserID は最も古い有効なセッションを削除します。
func (r *sessionRepository) DeleteOldestByUserID(ctx context.Context, userID uint) error {
	var oldest SessionModel
	if err := r.live(ctx, userID).Order("created_at ASC").First(&oldest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return r.db.WithContext(ctx).Delete(&SessionModel{}, "id = ?", oldest.ID).Error
}
