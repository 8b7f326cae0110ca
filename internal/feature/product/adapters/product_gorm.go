// Package adapters はproductフィーチャーのリポジトリ実装を提供します。
package adapters

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pricing_backend/internal/feature/product/domain"
	"pricing_backend/internal/feature/product/domain/entity"
	"pricing_backend/internal/feature/product/usecase"
)

type productRepository struct {
	db *gorm.DB
}

var _ usecase.ProductRepository = (*productRepository)(nil)

// NewProductRepository はGORMをバックエンドとする商品リポジトリを生成します。
func NewProductRepository(db *gorm.DB) *productRepository {
	return &productRepository{db: db}
}

func (r *productRepository) withEstimation(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Estimation").Order("id ASC")
}

// List は全商品をID順に返します。
func (r *productRepository) List(ctx context.Context) ([]entity.Product, error) {
	var rows []ProductModel
	if err := r.withEstimation(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toEntities(rows), nil
}

// FindByID は商品を1件取得します。
func (r *productRepository) FindByID(ctx context.Context, id uint) (*entity.Product, error) {
	var m ProductModel
	if err := r.withEstimation(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	p := m.toEntity()
	return &p, nil
}

// FindByIDs は指定IDのうち存在する商品をID順に返します。
func (r *productRepository) FindByIDs(ctx context.Context, ids []uint) ([]entity.Product, error) {
	if len(ids) == 0 {
		return []entity.Product{}, nil
	}
	var rows []ProductModel
	if err := r.withEstimation(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	return toEntities(rows), nil
}

// Create は商品を保存します。見積もりは UpsertEstimation で別途保存します。
func (r *productRepository) Create(ctx context.Context, p *entity.Product) error {
	var m ProductModel
	m.assign(p)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&m).Error; err != nil {
		return err
	}
	p.ID = m.ID
	p.CreatedAt = m.CreatedAt
	p.UpdatedAt = m.UpdatedAt
	return nil
}

// Update は既存の商品を置き換えます。作成日時は保持します。
func (r *productRepository) Update(ctx context.Context, p *entity.Product) error {
	var m ProductModel
	if err := r.db.WithContext(ctx).First(&m, p.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrProductNotFound
		}
		return err
	}
	m.assign(p)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Save(&m).Error; err != nil {
		return err
	}
	p.CreatedAt = m.CreatedAt
	p.UpdatedAt = m.UpdatedAt
	return nil
}

// Delete は見積もりと商品を1トランザクションで削除します。
func (r *productRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&EstimationModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&ProductModel{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrProductNotFound
		}
		return nil
	})
}

// UpsertEstimation は見積もりを渡された値で作成または上書きします（未指定の値は NULL）。
func (r *productRepository) UpsertEstimation(ctx context.Context, productID uint, params entity.EstimationParams) error {
	m := estimationModelFrom(productID, params)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"demand_forecast", "optimized_price"}),
	}).Create(m).Error
}

func toEntities(rows []ProductModel) []entity.Product {
	out := make([]entity.Product, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toEntity())
	}
	return out
}
