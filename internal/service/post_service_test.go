package service

import (
	"Agora/internal/api/dto"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }

func TestCreatePost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	post, err := env.postSvc.CreatePost(ctx, 1, &dto.PostCreateDTO{Title: " hi ", Content: "body"})
	require.NoError(t, err)
	assert.NotZero(t, post.ID)
	assert.Equal(t, "hi", post.Title)
	assert.True(t, post.IsPublished)

	draft, err := env.postSvc.CreatePost(ctx, 1, &dto.PostCreateDTO{Title: "draft", Content: "body", IsPublished: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, env.reload(t, draft.ID).IsPublished)

	_, err = env.postSvc.CreatePost(ctx, 0, &dto.PostCreateDTO{Title: "t", Content: "c"})
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = env.postSvc.CreatePost(ctx, 1, &dto.PostCreateDTO{Title: "  ", Content: "c"})
	assert.ErrorIs(t, err, ErrParamInvalid)
}

func TestGetPost_TracksView(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post := env.newPost(t, 1)
	now := time.Now()

	got, err := env.postSvc.GetPost(ctx, 2, post.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ViewCount)

	got, err = env.postSvc.GetPost(ctx, 2, post.ID, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, got.ViewCount)

	got, err = env.postSvc.GetPost(ctx, 0, post.ID, now)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ViewCount)
	assert.False(t, got.IsLiked)

	require.NoError(t, env.actionSvc.LikePost(ctx, 2, post.ID))
	got, err = env.postSvc.GetPost(ctx, 2, post.ID, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.True(t, got.IsLiked)
	assert.Equal(t, 2, got.ViewCount)
	assert.Equal(t, 1, got.LikesCount)
}

func TestGetPost_UnpublishedVisibleToAuthorOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	draft, err := env.postSvc.CreatePost(ctx, 1, &dto.PostCreateDTO{Title: "draft", Content: "body", IsPublished: boolPtr(false)})
	require.NoError(t, err)

	_, err = env.postSvc.GetPost(ctx, 2, draft.ID, time.Now())
	assert.ErrorIs(t, err, ErrPostNotFound)
	_, err = env.postSvc.GetPost(ctx, 0, draft.ID, time.Now())
	assert.ErrorIs(t, err, ErrPostNotFound)

	got, err := env.postSvc.GetPost(ctx, 1, draft.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, draft.ID, got.ID)
}

func TestUpdatePost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post := env.newPost(t, 1)
	require.NoError(t, env.actionSvc.LikePost(ctx, 2, post.ID))

	got, err := env.postSvc.UpdatePost(ctx, 1, post.ID, &dto.PostUpdateDTO{Title: strPtr("new"), IsPublished: boolPtr(false)})
	require.NoError(t, err)
	assert.Equal(t, "new", got.Title)
	assert.False(t, got.IsPublished)

	reloaded := env.reload(t, post.ID)
	assert.Equal(t, "new", reloaded.Title)
	assert.Equal(t, "content", reloaded.Content)
	assert.Equal(t, 1, reloaded.LikesCount)

	_, err = env.postSvc.UpdatePost(ctx, 2, post.ID, &dto.PostUpdateDTO{Title: strPtr("x")})
	assert.ErrorIs(t, err, ErrNoPermission)
	_, err = env.postSvc.UpdatePost(ctx, 1, post.ID, &dto.PostUpdateDTO{Content: strPtr(" ")})
	assert.ErrorIs(t, err, ErrParamInvalid)
	_, err = env.postSvc.UpdatePost(ctx, 1, post.ID+100, &dto.PostUpdateDTO{Title: strPtr("x")})
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestDeletePost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post := env.newPost(t, 1)

	assert.ErrorIs(t, env.postSvc.DeletePost(ctx, 2, post.ID), ErrNoPermission)
	require.NoError(t, env.postSvc.DeletePost(ctx, 1, post.ID))

	_, err := env.postSvc.GetPost(ctx, 1, post.ID, time.Now())
	assert.ErrorIs(t, err, ErrPostNotFound)
	assert.ErrorIs(t, env.actionSvc.LikePost(ctx, 2, post.ID), ErrPostNotFound)
	_, err = env.actionSvc.GetPostStats(ctx, post.ID)
	assert.ErrorIs(t, err, ErrPostNotFound)
	assert.ErrorIs(t, env.postSvc.DeletePost(ctx, 1, post.ID), ErrPostNotFound)
}

func TestGetPostByUserId(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		env.newPost(t, 1)
	}
	env.newPost(t, 2)

	posts, err := env.postSvc.GetPostByUserId(ctx, 1, 1, 2)
	require.NoError(t, err)
	assert.Len(t, posts, 2)

	posts, err = env.postSvc.GetPostByUserId(ctx, 1, 2, 2)
	require.NoError(t, err)
	assert.Len(t, posts, 1)
}

func TestGetTotals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post := env.newPost(t, 1)
	_, err := env.postSvc.CreatePost(ctx, 1, &dto.PostCreateDTO{Title: "draft", Content: "body", IsPublished: boolPtr(false)})
	require.NoError(t, err)
	require.NoError(t, env.actionSvc.LikePost(ctx, 2, post.ID))
	env.comment(t, 2, post.ID, 0, "hi")

	totals, err := env.postSvc.GetTotals(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), totals.TotalPosts)
	assert.Equal(t, int64(1), totals.PublishedPosts)
	assert.Equal(t, int64(1), totals.TotalComments)
	assert.Equal(t, int64(1), totals.TotalLikes)
}

func TestNormalizePage(t *testing.T) {
	page, size := normalizePage(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, size)

	_, size = normalizePage(3, 1000)
	assert.Equal(t, 100, size)
}
