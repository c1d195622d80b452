package repository

import (
	"context"
	"errors"

	"prismic/internal/cache"
	"prismic/internal/models"

	"gorm.io/gorm"
)

// CollectionRepository defines persistence operations for collections.
// All lookups are scoped to the owning user: a collection that exists but
// belongs to someone else is reported as not found, never as forbidden.
type CollectionRepository interface {
	ListByUser(ctx context.Context, userID uint) ([]models.Collection, error)
	GetByIDAndOwner(ctx context.Context, id, userID uint) (*models.Collection, error)
	Create(ctx context.Context, collection *models.Collection) error
	AddPost(ctx context.Context, id, userID, postID uint) (*models.Collection, error)
	RemovePost(ctx context.Context, id, userID, postID uint) (*models.Collection, error)
	Delete(ctx context.Context, id, userID uint) error
}

type collectionRepository struct {
	db *gorm.DB
}

// NewCollectionRepository returns a new CollectionRepository implementation.
func NewCollectionRepository(db *gorm.DB) CollectionRepository {
	return &collectionRepository{db: db}
}

func (r *collectionRepository) ListByUser(ctx context.Context, userID uint) ([]models.Collection, error) {
	var collections []models.Collection
	err := cache.Aside(ctx, cache.CollectionsKey(userID), &collections, cache.CollectionsTTL, func() error {
		if err := r.db.WithContext(ctx).
			Where("user_id = ?", userID).
			Order("updated_at DESC").
			Find(&collections).Error; err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return collections, nil
}

func (r *collectionRepository) GetByIDAndOwner(ctx context.Context, id, userID uint) (*models.Collection, error) {
	var collection models.Collection
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&collection).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Collection", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &collection, nil
}

func (r *collectionRepository) Create(ctx context.Context, collection *models.Collection) error {
	if collection.PostIDs == nil {
		collection.PostIDs = []uint{}
	}
	if err := r.db.WithContext(ctx).Create(collection).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateCollections(ctx, collection.UserID)
	return nil
}

// AddPost appends postID to the collection's membership. Adding a post that
// is already a member is rejected so clients can surface it.
func (r *collectionRepository) AddPost(ctx context.Context, id, userID, postID uint) (*models.Collection, error) {
	collection, err := r.GetByIDAndOwner(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if collection.Contains(postID) {
		return nil, models.NewValidationError("Post already in collection")
	}
	collection.PostIDs = append(collection.PostIDs, postID)
	if err := r.db.WithContext(ctx).Save(collection).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	cache.InvalidateCollections(ctx, userID)
	return collection, nil
}

// RemovePost deletes postID from the membership. Removing a post that is
// not a member is a no-op and succeeds.
func (r *collectionRepository) RemovePost(ctx context.Context, id, userID, postID uint) (*models.Collection, error) {
	collection, err := r.GetByIDAndOwner(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if !collection.Contains(postID) {
		return collection, nil
	}
	kept := make([]uint, 0, len(collection.PostIDs))
	for _, pid := range collection.PostIDs {
		if pid != postID {
			kept = append(kept, pid)
		}
	}
	collection.PostIDs = kept
	if err := r.db.WithContext(ctx).Save(collection).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	cache.InvalidateCollections(ctx, userID)
	return collection, nil
}

func (r *collectionRepository) Delete(ctx context.Context, id, userID uint) error {
	if _, err := r.GetByIDAndOwner(ctx, id, userID); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Delete(&models.Collection{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateCollections(ctx, userID)
	return nil
}
