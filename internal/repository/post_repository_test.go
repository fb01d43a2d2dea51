package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plume/internal/models"
)

func TestPostListAllOrdersNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")

	base := time.Now().Add(-time.Hour)
	createTestPost(t, db, user.ID, "oldest", nil, base)
	createTestPost(t, db, user.ID, "middle", nil, base.Add(time.Minute))
	createTestPost(t, db, user.ID, "newest", nil, base.Add(2*time.Minute))

	posts, err := repo.ListAll(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, posts, 3)
	assert.Equal(t, "newest", posts[0].Text)
	assert.Equal(t, "middle", posts[1].Text)
	assert.Equal(t, "oldest", posts[2].Text)
	assert.Equal(t, "alice", posts[0].User.Username)
}

func TestPostListAllBreaksTimestampTiesByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")

	at := time.Now().Truncate(time.Second)
	first := createTestPost(t, db, user.ID, "first", nil, at)
	second := createTestPost(t, db, user.ID, "second", nil, at)

	posts, err := repo.ListAll(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, second.ID, posts[0].ID, "later insert wins the tie")
	assert.Equal(t, first.ID, posts[1].ID)
}

func TestPostListAllPaginates(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 15; i++ {
		createTestPost(t, db, user.ID, "post", nil, base.Add(time.Duration(i)*time.Minute))
	}

	pageOne, err := repo.ListAll(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, pageOne, 10)

	pageTwo, err := repo.ListAll(ctx, 10, 10)
	require.NoError(t, err)
	assert.Len(t, pageTwo, 5)

	total, err := repo.CountAll(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 15, total)
}

func TestPostListByGroupFiltersOtherGroups(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")
	cats := createTestGroup(t, db, "cats")
	dogs := createTestGroup(t, db, "dogs")

	now := time.Now()
	createTestPost(t, db, user.ID, "in cats", &cats.ID, now)
	createTestPost(t, db, user.ID, "in dogs", &dogs.ID, now)
	createTestPost(t, db, user.ID, "ungrouped", nil, now)

	posts, err := repo.ListByGroup(ctx, cats.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "in cats", posts[0].Text)

	count, err := repo.CountByGroup(ctx, cats.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestPostListByAuthor(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	now := time.Now()
	createTestPost(t, db, alice.ID, "by alice", nil, now)
	createTestPost(t, db, bob.ID, "by bob", nil, now)

	posts, err := repo.ListByAuthor(ctx, alice.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "by alice", posts[0].Text)
}

func TestPostGetByIDCountsComments(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	user := createTestUser(t, db, "alice")
	post := createTestPost(t, db, user.ID, "commented", nil, time.Now())

	for i := 0; i < 3; i++ {
		require.NoError(t, db.Create(&models.Comment{
			Text: "reply", UserID: user.ID, PostID: post.ID,
		}).Error)
	}

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.CommentsCount)
}

func TestPostUpdateKeepsAuthor(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()
	alice := createTestUser(t, db, "alice")
	post := createTestPost(t, db, alice.ID, "original", nil, time.Now())

	post.Text = "edited"
	require.NoError(t, repo.Update(ctx, post))

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Text)
	assert.Equal(t, alice.ID, got.UserID)
}

func TestPostListFollowed(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPostRepository(db)
	follows := NewFollowRepository(db)
	ctx := context.Background()

	reader := createTestUser(t, db, "reader")
	followed := createTestUser(t, db, "followed")
	other := createTestUser(t, db, "other")

	require.NoError(t, follows.Create(ctx, &models.Follow{UserID: reader.ID, AuthorID: followed.ID}))

	now := time.Now()
	createTestPost(t, db, followed.ID, "from followed", nil, now)
	createTestPost(t, db, other.ID, "from other", nil, now)
	createTestPost(t, db, reader.ID, "own post", nil, now)

	posts, err := repo.ListFollowed(ctx, reader.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "from followed", posts[0].Text)

	count, err := repo.CountFollowed(ctx, reader.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	empty, err := repo.ListFollowed(ctx, other.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, empty, "user following nobody gets an empty feed")
}
