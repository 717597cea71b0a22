package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ArticleRepository interface {
	Create(ctx context.Context, article *model.Article) error
	Update(ctx context.Context, article *model.Article) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Article, error)
	FindByCode(ctx context.Context, code string) (*model.Article, error)
	List(ctx context.Context, page, limit int, search string) ([]model.Article, int64, error)
}

type articleRepository struct {
	db *gorm.DB
}

func NewArticleRepository(db *gorm.DB) ArticleRepository {
	return &articleRepository{db: db}
}

func (r *articleRepository) Create(ctx context.Context, article *model.Article) error {
	return GetDB(ctx, r.db).Create(article).Error
}

func (r *articleRepository) Update(ctx context.Context, article *model.Article) error {
	return GetDB(ctx, r.db).Save(article).Error
}

func (r *articleRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Article, error) {
	var article model.Article
	if err := GetDB(ctx, r.db).First(&article, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &article, nil
}

func (r *articleRepository) FindByCode(ctx context.Context, code string) (*model.Article, error) {
	var article model.Article
	if err := GetDB(ctx, r.db).Where("code = ?", code).First(&article).Error; err != nil {
		return nil, err
	}
	return &article, nil
}

func (r *articleRepository) List(ctx context.Context, page, limit int, search string) ([]model.Article, int64, error) {
	var articles []model.Article
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Article{})
	if search != "" {
		db = db.Where("name ILIKE ? OR code ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&articles).Error; err != nil {
		return nil, 0, err
	}

	return articles, total, nil
}
