package services

import (
	"testing"

	"github.com/Sergecodes/rmusiclines-sub000/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// corruptColumns 人为把冗余计数写坏，模拟漂移
func corruptColumns(t *testing.T, conn *gorm.DB, model interface{}, id uint, cols []string) {
	t.Helper()
	bad := map[string]interface{}{}
	for _, c := range cols {
		bad[c] = 999
	}
	require.NoError(t, conn.Model(model).Where("id = ?", id).UpdateColumns(bad).Error)
}

func TestReconcilePostRestoresCounts(t *testing.T) {
	conn := testDB(t)
	svc, _, _ := newPostFixture(t, conn)

	poster := createTestUser(t, conn)
	alice := createTestUser(t, conn)
	bob := createTestUser(t, conn)
	post := createTestPost(t, conn, poster.ID)
	ref := post.Ref()

	require.NoError(t, svc.RatePost(conn, alice.ID, ref, 5))
	require.NoError(t, svc.RatePost(conn, bob.ID, ref, 3))
	require.NoError(t, svc.BookmarkPost(conn, alice.ID, ref))
	require.NoError(t, svc.RepostPost(conn, alice.ID, ref, ""))
	require.NoError(t, svc.RepostPost(conn, bob.ID, ref, "banger"))
	_, err := svc.CreateComment(conn, alice.ID, ref, nil, "root comment")
	require.NoError(t, err)

	corruptColumns(t, conn, &models.NonArtistPost{}, post.ID, []string{
		"num_stars", "num_bookmarks", "num_simple_reposts", "num_comment_reposts", "num_comments",
	})

	require.NoError(t, ReconcilePost(conn, ref.Kind, ref.ID))

	var fixed models.NonArtistPost
	require.NoError(t, conn.First(&fixed, post.ID).Error)
	assert.Equal(t, 8, fixed.NumStars)
	assert.Equal(t, 1, fixed.NumBookmarks)
	assert.Equal(t, 1, fixed.NumSimpleReposts)
	assert.Equal(t, 1, fixed.NumCommentReposts)
	assert.Equal(t, 1, fixed.NumComments)
}

func TestReconcileUserRestoresCounts(t *testing.T) {
	conn := testDB(t)
	svc, _, _ := newPostFixture(t, conn)

	alice := createTestUser(t, conn)
	bob := createTestUser(t, conn)
	require.NoError(t, svc.Accounts.FollowUser(conn, bob.ID, alice.ID))

	post := createTestPost(t, conn, alice.ID)
	require.NoError(t, svc.RepostPost(conn, alice.ID, post.Ref(), ""))
	// 根评论计入，回复不计入
	root, err := svc.CreateComment(conn, alice.ID, post.Ref(), nil, "root")
	require.NoError(t, err)
	_, err = svc.CreateComment(conn, alice.ID, post.Ref(), &root.ID, "reply")
	require.NoError(t, err)

	corruptColumns(t, conn, &models.User{}, alice.ID, []string{
		"num_followers", "num_following", "num_non_artist_posts",
		"num_reposts", "num_non_artist_post_comments",
	})

	require.NoError(t, ReconcileUser(conn, alice.ID))

	var fixed models.User
	require.NoError(t, conn.First(&fixed, alice.ID).Error)
	assert.Equal(t, 1, fixed.NumFollowers)
	assert.Equal(t, 0, fixed.NumFollowing)
	assert.Equal(t, 1, fixed.NumNonArtistPosts)
	assert.Equal(t, 1, fixed.NumReposts)
	assert.Equal(t, 1, fixed.NumNonArtistPostComments)
}

func TestReconcileAllCoversArtists(t *testing.T) {
	conn := testDB(t)
	svc, notify, _ := newPostFixture(t, conn)

	artists := NewArtistService(notify)
	artist := createTestArtist(t, conn)
	fan := createTestUser(t, conn)
	require.NoError(t, artists.FollowArtist(conn, fan.ID, artist.ID))

	_, err := svc.CreateArtistPost(conn, fan.ID, PostInput{
		Body: "live set", ArtistID: artist.ID, MusicTitle: "Set 1",
	})
	require.NoError(t, err)

	corruptColumns(t, conn, &models.Artist{}, artist.ID, []string{"num_followers", "num_posts"})

	require.NoError(t, ReconcileAll(conn))

	var fixed models.Artist
	require.NoError(t, conn.First(&fixed, artist.ID).Error)
	assert.Equal(t, 1, fixed.NumFollowers)
	assert.Equal(t, 1, fixed.NumPosts)
}
