package service

import (
	"Agora/internal/api/dto"
	"Agora/internal/model"
	"Agora/internal/pkg/consts"
	"Agora/internal/pkg/kafka"
	"Agora/internal/repository"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) comment(t *testing.T, userID, postID, parentID uint64, content string) *dto.CommentDTO {
	t.Helper()
	c, err := e.commentSvc.CreateComment(context.Background(), userID, &dto.CommentCreateDTO{
		PostID:   postID,
		Content:  content,
		ParentID: parentID,
	})
	require.NoError(t, err)
	return c
}

func TestCreateComment_IncrementsCount(t *testing.T) {
	env := newTestEnv(t)
	post := env.newPost(t, 1)

	c := env.comment(t, 2, post.ID, 0, "  hello  ")

	assert.Equal(t, "hello", c.Content)
	assert.Equal(t, uint64(0), c.ParentID)
	assert.Equal(t, int8(0), c.Depth)
	assert.Equal(t, 1, env.reload(t, post.ID).CommentsCount)
	assert.Equal(t, []kafka.EventType{kafka.EventCommentCreated}, env.publisher.types())
}

func TestCreateComment_ReplyToReplyCollapsesToRoot(t *testing.T) {
	env := newTestEnv(t)
	post := env.newPost(t, 1)

	root := env.comment(t, 2, post.ID, 0, "root")
	reply := env.comment(t, 3, post.ID, root.ID, "reply")
	nested := env.comment(t, 4, post.ID, reply.ID, "nested")

	assert.Equal(t, root.ID, reply.ParentID)
	assert.Equal(t, uint64(2), reply.ReplyToUserID)
	assert.Equal(t, int8(1), reply.Depth)

	assert.Equal(t, root.ID, nested.ParentID)
	assert.Equal(t, uint64(3), nested.ReplyToUserID)
	assert.Equal(t, int8(1), nested.Depth)

	assert.Equal(t, 3, env.reload(t, post.ID).CommentsCount)
}

func TestCreateComment_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post := env.newPost(t, 1)
	other := env.newPost(t, 1)
	otherRoot := env.comment(t, 2, other.ID, 0, "elsewhere")

	tests := []struct {
		name   string
		userID uint64
		req    *dto.CommentCreateDTO
		want   error
	}{
		{"anonymous", 0, &dto.CommentCreateDTO{PostID: post.ID, Content: "x"}, ErrUnauthenticated},
		{"blank content", 2, &dto.CommentCreateDTO{PostID: post.ID, Content: "   "}, ErrCommentContentInvalid},
		{"too long", 2, &dto.CommentCreateDTO{PostID: post.ID, Content: strings.Repeat("评", MaxCommentLength+1)}, ErrCommentContentInvalid},
		{"missing post", 2, &dto.CommentCreateDTO{PostID: post.ID + 100, Content: "x"}, ErrPostNotFound},
		{"missing parent", 2, &dto.CommentCreateDTO{PostID: post.ID, Content: "x", ParentID: 999}, ErrPostCommentNotFound},
		{"parent on another post", 2, &dto.CommentCreateDTO{PostID: post.ID, Content: "x", ParentID: otherRoot.ID}, ErrCommentNotBelongToPost},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.commentSvc.CreateComment(ctx, tt.userID, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.Equal(t, 0, env.reload(t, post.ID).CommentsCount)
	assert.Equal(t, int64(0), env.countRows(t, &model.PostComment{}, "post_id = ?", post.ID))
}

func TestCreateComment_MaxLengthAccepted(t *testing.T) {
	env := newTestEnv(t)
	post := env.newPost(t, 1)

	c := env.comment(t, 2, post.ID, 0, strings.Repeat("评", MaxCommentLength))
	assert.Equal(t, MaxCommentLength, len([]rune(c.Content)))
}

func TestCreateComment_ReplyToTombstoneRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post := env.newPost(t, 1)

	root := env.comment(t, 2, post.ID, 0, "root")
	env.comment(t, 3, post.ID, root.ID, "reply")
	_, err := env.commentSvc.DeleteComment(ctx, 2, root.ID)
	require.NoError(t, err)

	_, err = env.commentSvc.CreateComment(ctx, 4, &dto.CommentCreateDTO{PostID: post.ID, Content: "late", ParentID: root.ID})
	assert.ErrorIs(t, err, ErrPostCommentNotFound)
}

func TestDeleteComment_Leaf(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post := env.newPost(t, 1)
	c := env.comment(t, 2, post.ID, 0, "bye")

	res, err := env.commentSvc.DeleteComment(ctx, 2, c.ID)
	require.NoError(t, err)

	assert.False(t, res.Tombstoned)
	assert.Equal(t, 1, res.Removed)
	assert.Equal(t, 0, env.reload(t, post.ID).CommentsCount)
	assert.Equal(t, int64(0), env.countRows(t, &model.PostComment{}, "id = ?", c.ID))

	_, err = env.commentSvc.DeleteComment(ctx, 2, c.ID)
	assert.ErrorIs(t, err, ErrPostCommentNotFound)
}

func TestDeleteComment_WithRepliesTombstones(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post := env.newPost(t, 1)
	root := env.comment(t, 2, post.ID, 0, "root")
	env.comment(t, 3, post.ID, root.ID, "reply")

	res, err := env.commentSvc.DeleteComment(ctx, 2, root.ID)
	require.NoError(t, err)

	assert.True(t, res.Tombstoned)
	assert.Equal(t, 0, res.Removed)
	assert.Equal(t, 2, env.reload(t, post.ID).CommentsCount)

	got, err := env.commentSvc.GetComment(ctx, root.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted)
	assert.Equal(t, consts.CommentTombstone, got.Content)

	_, err = env.commentSvc.DeleteComment(ctx, 2, root.ID)
	assert.ErrorIs(t, err, ErrPostCommentNotFound)
	_, err = env.commentSvc.UpdateComment(ctx, 2, root.ID, "revive")
	assert.ErrorIs(t, err, ErrPostCommentNotFound)
}

func TestDeleteComment_LastReplyRemovesTombstonedParent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post := env.newPost(t, 1)
	root := env.comment(t, 2, post.ID, 0, "root")
	reply := env.comment(t, 3, post.ID, root.ID, "reply")

	_, err := env.commentSvc.DeleteComment(ctx, 2, root.ID)
	require.NoError(t, err)
	require.Equal(t, 2, env.reload(t, post.ID).CommentsCount)

	res, err := env.commentSvc.DeleteComment(ctx, 3, reply.ID)
	require.NoError(t, err)

	assert.False(t, res.Tombstoned)
	assert.Equal(t, 2, res.Removed)
	assert.Equal(t, 0, env.reload(t, post.ID).CommentsCount)
	assert.Equal(t, int64(0), env.countRows(t, &model.PostComment{}, "post_id = ?", post.ID))
}

func TestDeleteComment_ReplyKeepsLiveParent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post := env.newPost(t, 1)
	root := env.comment(t, 2, post.ID, 0, "root")
	reply := env.comment(t, 3, post.ID, root.ID, "reply")

	res, err := env.commentSvc.DeleteComment(ctx, 3, reply.ID)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Removed)
	assert.Equal(t, 1, env.reload(t, post.ID).CommentsCount)
	assert.Equal(t, int64(1), env.countRows(t, &model.PostComment{}, "id = ?", root.ID))
}

func TestDeleteComment_Permission(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post := env.newPost(t, 1)
	c := env.comment(t, 2, post.ID, 0, "mine")

	_, err := env.commentSvc.DeleteComment(ctx, 3, c.ID)
	assert.ErrorIs(t, err, ErrNoPermission)
	_, err = env.commentSvc.DeleteComment(ctx, 0, c.ID)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	assert.Equal(t, 1, env.reload(t, post.ID).CommentsCount)
}

func TestUpdateComment(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post := env.newPost(t, 1)
	c := env.comment(t, 2, post.ID, 0, "draft")

	updated, err := env.commentSvc.UpdateComment(ctx, 2, c.ID, " final ")
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Content)

	got, err := env.commentSvc.GetComment(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "final", got.Content)

	_, err = env.commentSvc.UpdateComment(ctx, 3, c.ID, "hijack")
	assert.ErrorIs(t, err, ErrNoPermission)
	_, err = env.commentSvc.UpdateComment(ctx, 2, c.ID, "")
	assert.ErrorIs(t, err, ErrCommentContentInvalid)
	_, err = env.commentSvc.UpdateComment(ctx, 2, c.ID+100, "x")
	assert.ErrorIs(t, err, ErrPostCommentNotFound)
}

func TestCommentsOnDeletedPost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post := env.newPost(t, 1)
	c := env.comment(t, 2, post.ID, 0, "before")

	require.NoError(t, env.postSvc.DeletePost(ctx, 1, post.ID))

	_, err := env.commentSvc.CreateComment(ctx, 2, &dto.CommentCreateDTO{PostID: post.ID, Content: "after"})
	assert.ErrorIs(t, err, ErrPostNotFound)
	_, err = env.commentSvc.DeleteComment(ctx, 2, c.ID)
	assert.ErrorIs(t, err, ErrPostNotFound)
	_, err = env.commentSvc.GetCommentTree(ctx, post.ID, 1, 10)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestGetCommentTree(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post := env.newPost(t, 1)

	first := env.comment(t, 2, post.ID, 0, "first")
	second := env.comment(t, 3, post.ID, 0, "second")
	third := env.comment(t, 4, post.ID, 0, "third")
	r1 := env.comment(t, 5, post.ID, first.ID, "r1")
	r2 := env.comment(t, 6, post.ID, r1.ID, "r2")

	page, err := env.commentSvc.GetCommentTree(ctx, post.ID, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.True(t, page.HasMore)
	require.Len(t, page.List, 2)
	assert.Equal(t, third.ID, page.List[0].ID)
	assert.Equal(t, second.ID, page.List[1].ID)
	assert.Empty(t, page.List[0].Children)

	page, err = env.commentSvc.GetCommentTree(ctx, post.ID, 2, 2)
	require.NoError(t, err)
	assert.False(t, page.HasMore)
	require.Len(t, page.List, 1)
	assert.Equal(t, first.ID, page.List[0].ID)
	require.Len(t, page.List[0].Children, 2)
	assert.Equal(t, r1.ID, page.List[0].Children[0].ID)
	assert.Equal(t, r2.ID, page.List[0].Children[1].ID)
	assert.Equal(t, uint64(5), page.List[0].Children[1].ReplyToUserID)
}

func TestCreateComment_ConcurrentReplies(t *testing.T) {
	env := newTestEnv(t)
	post := env.newPost(t, 1)
	root := env.comment(t, 2, post.ID, 0, "root")

	const n = 30
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(userID uint64) {
			defer wg.Done()
			_, err := env.commentSvc.CreateComment(context.Background(), userID, &dto.CommentCreateDTO{
				PostID:   post.ID,
				Content:  "reply",
				ParentID: root.ID,
			})
			assert.NoError(t, err)
		}(uint64(10 + i))
	}
	wg.Wait()

	assert.Equal(t, n+1, env.reload(t, post.ID).CommentsCount)
	assert.Equal(t, int64(n), env.countRows(t, &model.PostComment{}, "parent_id = ?", root.ID))
}

// lockRecorder 记录评论行的加锁顺序，children:<id> 表示锁定 id 的全部回复
type lockRecorder struct {
	repository.CommentRepo
	mu    sync.Mutex
	locks []string
}

func (r *lockRecorder) record(lock string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locks = append(r.locks, lock)
}

func (r *lockRecorder) GetCommentForUpdate(ctx context.Context, commentID uint64) (*model.PostComment, error) {
	r.record(fmt.Sprintf("row:%d", commentID))
	return r.CommentRepo.GetCommentForUpdate(ctx, commentID)
}

func (r *lockRecorder) CountChildrenForUpdate(ctx context.Context, parentID uint64) (int64, error) {
	r.record(fmt.Sprintf("children:%d", parentID))
	return r.CommentRepo.CountChildrenForUpdate(ctx, parentID)
}

func (r *lockRecorder) take() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	locks := r.locks
	r.locks = nil
	return locks
}

func TestCommentWrites_LockRootBeforeReply(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	post := env.newPost(t, 1)
	recorder := &lockRecorder{CommentRepo: repository.NewCommentRepo(env.db)}
	svc := env.buildCommentSvc(recorder)

	root := env.comment(t, 2, post.ID, 0, "root")
	reply := env.comment(t, 3, post.ID, root.ID, "reply")
	other := env.comment(t, 5, post.ID, root.ID, "other")

	_, err := svc.CreateComment(ctx, 4, &dto.CommentCreateDTO{PostID: post.ID, Content: "nested", ParentID: reply.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{fmt.Sprintf("row:%d", root.ID), fmt.Sprintf("row:%d", reply.ID)}, recorder.take())

	res, err := svc.DeleteComment(ctx, 2, root.ID)
	require.NoError(t, err)
	require.True(t, res.Tombstoned)
	assert.Equal(t, []string{fmt.Sprintf("row:%d", root.ID), fmt.Sprintf("children:%d", root.ID)}, recorder.take())

	_, err = svc.DeleteComment(ctx, 5, other.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{
		fmt.Sprintf("row:%d", root.ID),
		fmt.Sprintf("row:%d", other.ID),
		fmt.Sprintf("children:%d", other.ID),
		fmt.Sprintf("children:%d", root.ID),
	}, recorder.take())
}
