// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"fmt"

	"prismic/internal/cache"
	"prismic/internal/models"

	"gorm.io/gorm"
)

// PostFilter narrows the feed query. Zero values mean "no filter"; a zero
// Limit returns every match.
type PostFilter struct {
	Search string
	Model  string
	Color  string
	Limit  int
	Offset int
}

// Signature returns a canonical cache-key fragment for the filter.
func (f PostFilter) Signature() string {
	return fmt.Sprintf("%s|%s|%s|%d|%d", f.Search, f.Model, f.Color, f.Limit, f.Offset)
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context, filter PostFilter) ([]*models.Post, error)
	GetByIDs(ctx context.Context, ids []uint) ([]models.Post, error)
	Lineage(ctx context.Context, id uint) (*models.Lineage, error)
	Delete(ctx context.Context, id uint) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Create(post).Error
	if err == nil {
		cache.InvalidatePostsList(ctx)
		if post.ParentID != nil {
			// Parent's lineage now has a new child.
			cache.Invalidate(ctx, cache.LineageKey(*post.ParentID))
		}
	}
	return err
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, func() error {
		return r.db.WithContext(ctx).First(&post, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, filter PostFilter) ([]*models.Post, error) {
	var posts []*models.Post
	err := cache.Aside(ctx, cache.PostsListKey(filter.Signature()), &posts, cache.PostsListTTL, func() error {
		q := r.db.WithContext(ctx).Model(&models.Post{})
		if filter.Search != "" {
			like := "%" + filter.Search + "%"
			q = q.Where("name ILIKE ? OR prompt ILIKE ? OR model ILIKE ?", like, like, like)
		}
		if filter.Model != "" {
			// Exact match, unlike the fuzzy search above.
			q = q.Where("model = ?", filter.Model)
		}
		if filter.Color != "" {
			q = q.Where("colors @> ?", fmt.Sprintf(`[%q]`, filter.Color))
		}
		q = q.Order("id DESC")
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
		return q.Find(&posts).Error
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// GetByIDs resolves a set of post IDs, silently dropping any that no
// longer exist. Order of the result is not guaranteed.
func (r *postRepository) GetByIDs(ctx context.Context, ids []uint) ([]models.Post, error) {
	if len(ids) == 0 {
		return []models.Post{}, nil
	}
	var posts []models.Post
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// Lineage returns the one-hop remix neighborhood of a post: its parent
// (nil if the post is a root or the parent was deleted), the post itself,
// and its direct children ordered oldest first.
func (r *postRepository) Lineage(ctx context.Context, id uint) (*models.Lineage, error) {
	var lineage models.Lineage
	err := cache.Aside(ctx, cache.LineageKey(id), &lineage, cache.LineageTTL, func() error {
		var current models.Post
		if err := r.db.WithContext(ctx).First(&current, id).Error; err != nil {
			return err
		}
		lineage.Current = &current

		if current.ParentID != nil {
			var parent models.Post
			err := r.db.WithContext(ctx).First(&parent, *current.ParentID).Error
			switch {
			case err == nil:
				lineage.Parent = &parent
			case err == gorm.ErrRecordNotFound:
				// Dangling parent reference: treat as root.
				lineage.Parent = nil
			default:
				return err
			}
		}

		var children []models.Post
		if err := r.db.WithContext(ctx).
			Where("parent_id = ?", id).
			Order("id ASC").
			Find(&children).Error; err != nil {
			return err
		}
		lineage.Children = children
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &lineage, nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return err
	}
	var childIDs []uint
	if err := r.db.WithContext(ctx).Model(&models.Post{}).
		Where("parent_id = ?", id).
		Pluck("id", &childIDs).Error; err != nil {
		return err
	}

	// No cascade: children keep their parent_id and become danglers,
	// collections keep the stale membership entry.
	if err := r.db.WithContext(ctx).Delete(&models.Post{}, id).Error; err != nil {
		return err
	}

	cache.InvalidatePost(ctx, id)
	cache.InvalidatePostsList(ctx)
	// Cached lineages on both sides are stale now: the parent lost a child
	// and each child lost its parent.
	keys := make([]string, 0, len(childIDs)+1)
	if post.ParentID != nil {
		keys = append(keys, cache.LineageKey(*post.ParentID))
	}
	for _, childID := range childIDs {
		keys = append(keys, cache.LineageKey(childID))
	}
	cache.Invalidate(ctx, keys...)
	return nil
}
