package usecase

import (
	"context"
	"net/http"
	"strings"

	"app/internal/domain/model"
	repo "app/internal/repository"
)

type CategoryUsecase struct {
	categoryRepo repo.CategoryRepository
}

func NewCategoryUsecase(categoryRepo repo.CategoryRepository) *CategoryUsecase {
	return &CategoryUsecase{categoryRepo: categoryRepo}
}

func (u *CategoryUsecase) List(ctx context.Context, activeOnly bool) ([]model.Category, error) {
	items, err := u.categoryRepo.List(ctx, activeOnly)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return items, nil
}

func (u *CategoryUsecase) Get(ctx context.Context, categoryID int64) (model.Category, error) {
	if categoryID <= 0 {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "invalid category id")
	}

	c, err := u.categoryRepo.FindByID(ctx, categoryID)
	if err == repo.ErrNotFound {
		return model.Category{}, NewHTTPError(http.StatusNotFound, "category not found")
	}
	if err != nil {
		return model.Category{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return c, nil
}

type CreateCategoryInput struct {
	Name        string
	Description string
	Image       string
	SortOrder   int
	IsActive    bool
}

func (u *CategoryUsecase) Create(ctx context.Context, in CreateCategoryInput) (model.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > 255 {
		return model.Category{}, NewHTTPError(http.StatusUnprocessableEntity, "invalid name")
	}

	slug := Slugify(name)
	if _, err := u.categoryRepo.FindBySlug(ctx, slug); err == nil {
		slug = slug + "-" + shortID()
	} else if err != repo.ErrNotFound {
		return model.Category{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	c := model.Category{
		Name:        name,
		Slug:        slug,
		Description: in.Description,
		Image:       in.Image,
		SortOrder:   in.SortOrder,
		IsActive:    in.IsActive,
	}

	created, err := u.categoryRepo.Create(ctx, c)
	if err != nil {
		return model.Category{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return created, nil
}

type UpdateCategoryInput struct {
	Name        *string
	Description *string
	Image       *string
	SortOrder   *int
	IsActive    *bool
}

func (u *CategoryUsecase) Update(ctx context.Context, categoryID int64, in UpdateCategoryInput) (model.Category, error) {
	c, err := u.Get(ctx, categoryID)
	if err != nil {
		return model.Category{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" || len(name) > 255 {
			return model.Category{}, NewHTTPError(http.StatusUnprocessableEntity, "invalid name")
		}
		c.Name = name
	}
	if in.Description != nil {
		c.Description = *in.Description
	}
	if in.Image != nil {
		c.Image = *in.Image
	}
	if in.SortOrder != nil {
		c.SortOrder = *in.SortOrder
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}

	if err := u.categoryRepo.Update(ctx, c); err != nil {
		return model.Category{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return c, nil
}

// 配下に商品が残るカテゴリは消せない
func (u *CategoryUsecase) Delete(ctx context.Context, categoryID int64) error {
	if _, err := u.Get(ctx, categoryID); err != nil {
		return err
	}

	hasProducts, err := u.categoryRepo.HasProducts(ctx, categoryID)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if hasProducts {
		return NewHTTPError(http.StatusConflict, "category has products")
	}

	if err := u.categoryRepo.SoftDelete(ctx, categoryID); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}
