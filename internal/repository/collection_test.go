package repository

import (
	"context"
	"regexp"
	"testing"

	"prismic/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestCollectionRepository_GetByIDAndOwner_ScopedToOwner(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCollectionRepository(db)
	ctx := context.Background()

	// The collection exists but belongs to user 2; user 1 sees not-found.
	mock.ExpectQuery(regexp.QuoteMeta(`id = $1 AND user_id = $2`)).
		WithArgs(5, 1, 1).
		WillReturnError(gorm.ErrRecordNotFound)

	_, err := repo.GetByIDAndOwner(ctx, 5, 1)
	var appErr *models.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCollectionRepository_AddPost(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCollectionRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`id = $1 AND user_id = $2`)).
		WithArgs(5, 1, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "user_id", "post_ids"}).
			AddRow(5, "Favorites", 1, `[10,11]`))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "collections"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	collection, err := repo.AddPost(ctx, 5, 1, 12)
	assert.NoError(t, err)
	assert.Equal(t, []uint{10, 11, 12}, collection.PostIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCollectionRepository_AddPost_DuplicateRejected(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCollectionRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`id = $1 AND user_id = $2`)).
		WithArgs(5, 1, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "user_id", "post_ids"}).
			AddRow(5, "Favorites", 1, `[10,11]`))

	_, err := repo.AddPost(ctx, 5, 1, 11)
	var appErr *models.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
	// No UPDATE was issued.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCollectionRepository_RemovePost(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCollectionRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`id = $1 AND user_id = $2`)).
		WithArgs(5, 1, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "user_id", "post_ids"}).
			AddRow(5, "Favorites", 1, `[10,11,12]`))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "collections"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	collection, err := repo.RemovePost(ctx, 5, 1, 11)
	assert.NoError(t, err)
	assert.Equal(t, []uint{10, 12}, collection.PostIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCollectionRepository_RemovePost_NonMemberIsNoop(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCollectionRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`id = $1 AND user_id = $2`)).
		WithArgs(5, 1, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "user_id", "post_ids"}).
			AddRow(5, "Favorites", 1, `[10]`))

	collection, err := repo.RemovePost(ctx, 5, 1, 42)
	assert.NoError(t, err)
	assert.Equal(t, []uint{10}, collection.PostIDs)
	// No UPDATE was issued.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCollectionRepository_Create_DefaultsEmptyMembership(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCollectionRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "collections"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	collection := &models.Collection{Name: "Moodboard", UserID: 1}
	err := repo.Create(ctx, collection)
	assert.NoError(t, err)
	assert.NotNil(t, collection.PostIDs)
	assert.NoError(t, mock.ExpectationsWereMet())
}
