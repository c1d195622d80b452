package repository

import (
	"context"
	"regexp"
	"testing"

	"prismic/internal/cache"
	"prismic/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestPostRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	post := &models.Post{Name: "Neon City", Prompt: "a neon city", Model: "stabilityai/stable-diffusion-xl-base-1.0"}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "posts"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	err := repo.Create(ctx, post)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_List_ModelFilterIsExact(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`model = $1`)).
		WithArgs("stabilityai/stable-diffusion-xl-base-1.0", 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "model"}).
			AddRow(2, "Second", "stabilityai/stable-diffusion-xl-base-1.0").
			AddRow(1, "First", "stabilityai/stable-diffusion-xl-base-1.0"))

	posts, err := repo.List(ctx, PostFilter{Model: "stabilityai/stable-diffusion-xl-base-1.0", Limit: 20})
	assert.NoError(t, err)
	assert.Len(t, posts, 2)
	assert.Equal(t, uint(2), posts[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_List_SearchMatchesNamePromptModel(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`name ILIKE $1 OR prompt ILIKE $2 OR model ILIKE $3`)).
		WithArgs("%fox%", "%fox%", "%fox%", 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(7, "Autumn Fox"))

	posts, err := repo.List(ctx, PostFilter{Search: "fox", Limit: 10})
	assert.NoError(t, err)
	assert.Len(t, posts, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_List_EmptyFilterReturnsAll(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	// No filter conditions: only the soft-delete guard remains.
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" WHERE "posts"."deleted_at" IS NULL ORDER BY id DESC LIMIT $1`)).
		WithArgs(20).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3).AddRow(2).AddRow(1))

	posts, err := repo.List(ctx, PostFilter{Limit: 20})
	assert.NoError(t, err)
	assert.Len(t, posts, 3)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_List_NoLimitReturnsEverything(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	// A zero filter generates no LIMIT or OFFSET clause at all.
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" WHERE "posts"."deleted_at" IS NULL ORDER BY id DESC`) + "$").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(25).AddRow(24).AddRow(23))

	posts, err := repo.List(ctx, PostFilter{})
	assert.NoError(t, err)
	assert.Len(t, posts, 3)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_List_ColorFilter(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`colors @> $1`)).
		WithArgs(`["#ff0000"]`, 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "colors"}).AddRow(4, `["#ff0000","#00ff00"]`))

	posts, err := repo.List(ctx, PostFilter{Color: "#ff0000", Limit: 20})
	assert.NoError(t, err)
	assert.Len(t, posts, 1)
	assert.Contains(t, posts[0].Colors, "#ff0000")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_Lineage(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	parentID := 5

	// current post
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" WHERE "posts"."id" = $1 AND "posts"."deleted_at" IS NULL ORDER BY "posts"."id" LIMIT $2`)).
		WithArgs(10, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "parent_id"}).AddRow(10, "Remix", parentID))

	// parent lookup
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" WHERE "posts"."id" = $1 AND "posts"."deleted_at" IS NULL ORDER BY "posts"."id" LIMIT $2`)).
		WithArgs(5, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(5, "Original"))

	// children
	mock.ExpectQuery(regexp.QuoteMeta(`parent_id = $1`)).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "parent_id"}).
			AddRow(11, "Child A", 10).
			AddRow(12, "Child B", 10))

	lineage, err := repo.Lineage(ctx, 10)
	assert.NoError(t, err)
	assert.Equal(t, uint(5), lineage.Parent.ID)
	assert.Equal(t, uint(10), lineage.Current.ID)
	assert.Len(t, lineage.Children, 2)
	assert.Equal(t, uint(11), lineage.Children[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_Lineage_DanglingParentTreatedAsRoot(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" WHERE "posts"."id" = $1 AND "posts"."deleted_at" IS NULL ORDER BY "posts"."id" LIMIT $2`)).
		WithArgs(10, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "parent_id"}).AddRow(10, "Orphan", 99))

	// parent was deleted
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" WHERE "posts"."id" = $1 AND "posts"."deleted_at" IS NULL ORDER BY "posts"."id" LIMIT $2`)).
		WithArgs(99, 1).
		WillReturnError(gorm.ErrRecordNotFound)

	mock.ExpectQuery(regexp.QuoteMeta(`parent_id = $1`)).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	lineage, err := repo.Lineage(ctx, 10)
	assert.NoError(t, err)
	assert.Nil(t, lineage.Parent)
	assert.Equal(t, uint(10), lineage.Current.ID)
	assert.Empty(t, lineage.Children)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_Lineage_MissingPost(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts"`)).
		WithArgs(404, 1).
		WillReturnError(gorm.ErrRecordNotFound)

	_, err := repo.Lineage(ctx, 404)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_Delete_DoesNotTouchChildren(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" WHERE "posts"."id" = $1 AND "posts"."deleted_at" IS NULL ORDER BY "posts"."id" LIMIT $2`)).
		WithArgs(10, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(10, "Original"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id" FROM "posts" WHERE parent_id = $1`)).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11).AddRow(12))

	// Soft delete of the single row; no UPDATE of children, no collection writes.
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "posts" SET "deleted_at"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Delete(ctx, 10)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_Delete_InvalidatesParentLineage(t *testing.T) {
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	// Warm the parent's lineage cache while child 2 is alive.
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" WHERE "posts"."id" = $1 AND "posts"."deleted_at" IS NULL ORDER BY "posts"."id" LIMIT $2`)).
		WithArgs(1, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Original"))
	mock.ExpectQuery(regexp.QuoteMeta(`parent_id = $1`)).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "parent_id"}).AddRow(2, 1))

	lineage, err := repo.Lineage(ctx, 1)
	require.NoError(t, err)
	require.Len(t, lineage.Children, 1)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" WHERE "posts"."id" = $1 AND "posts"."deleted_at" IS NULL ORDER BY "posts"."id" LIMIT $2`)).
		WithArgs(2, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "parent_id"}).AddRow(2, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id" FROM "posts" WHERE parent_id = $1`)).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "posts" SET "deleted_at"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	require.NoError(t, repo.Delete(ctx, 2))

	// The parent's lineage must be re-read from the database, not served
	// from cache with the deleted child still in it.
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" WHERE "posts"."id" = $1 AND "posts"."deleted_at" IS NULL ORDER BY "posts"."id" LIMIT $2`)).
		WithArgs(1, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Original"))
	mock.ExpectQuery(regexp.QuoteMeta(`parent_id = $1`)).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	lineage, err = repo.Lineage(ctx, 1)
	assert.NoError(t, err)
	assert.Empty(t, lineage.Children)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_Delete_InvalidatesChildLineages(t *testing.T) {
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	// Warm the child's lineage cache while parent 1 is alive.
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" WHERE "posts"."id" = $1 AND "posts"."deleted_at" IS NULL ORDER BY "posts"."id" LIMIT $2`)).
		WithArgs(2, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "parent_id"}).AddRow(2, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" WHERE "posts"."id" = $1 AND "posts"."deleted_at" IS NULL ORDER BY "posts"."id" LIMIT $2`)).
		WithArgs(1, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Original"))
	mock.ExpectQuery(regexp.QuoteMeta(`parent_id = $1`)).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	lineage, err := repo.Lineage(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, lineage.Parent)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" WHERE "posts"."id" = $1 AND "posts"."deleted_at" IS NULL ORDER BY "posts"."id" LIMIT $2`)).
		WithArgs(1, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Original"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id" FROM "posts" WHERE parent_id = $1`)).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "posts" SET "deleted_at"`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	require.NoError(t, repo.Delete(ctx, 1))

	// The child's lineage now shows a dangling parent instead of the
	// cached live one.
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" WHERE "posts"."id" = $1 AND "posts"."deleted_at" IS NULL ORDER BY "posts"."id" LIMIT $2`)).
		WithArgs(2, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "parent_id"}).AddRow(2, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" WHERE "posts"."id" = $1 AND "posts"."deleted_at" IS NULL ORDER BY "posts"."id" LIMIT $2`)).
		WithArgs(1, 1).
		WillReturnError(gorm.ErrRecordNotFound)
	mock.ExpectQuery(regexp.QuoteMeta(`parent_id = $1`)).
		WithArgs(2).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	lineage, err = repo.Lineage(ctx, 2)
	assert.NoError(t, err)
	assert.Nil(t, lineage.Parent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_GetByIDs_EmptyInput(t *testing.T) {
	db, _ := setupMockDB(t)
	repo := NewPostRepository(db)

	posts, err := repo.GetByIDs(context.Background(), nil)
	assert.NoError(t, err)
	assert.Empty(t, posts)
}
