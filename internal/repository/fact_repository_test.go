package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/channel-feed/internal/testutil"
)

func TestFactRepository_ExistenceIsState(t *testing.T) {
	db := testutil.NewDB(t)
	seed := testutil.NewSeeder(t, db)
	repo := NewFactRepository(db)
	ctx := context.Background()

	ch := seed.Channel("c")
	u := seed.User("u")
	p := seed.Post(ch.ID, u.ID)
	r := seed.Reaction(p.ID, u.ID)
	conv := seed.Conversation(r.ID, p.ID, u.ID)

	cases := []struct {
		fact   Fact
		target string
	}{
		{PostLikes, p.ID},
		{ReactionLikes, r.ID},
		{ConversationLikes, conv.ID},
		{PostFavorites, p.ID},
		{ReactionFavorites, r.ID},
		{ConversationFavorites, conv.ID},
	}
	for _, tc := range cases {
		t.Run(tc.fact.Name(), func(t *testing.T) {
			row := FactRow{UserID: u.ID, TargetID: tc.target, PostID: p.ID, CreatorID: u.ID}

			ok, err := repo.Exists(ctx, tc.fact, u.ID, tc.target)
			require.NoError(t, err)
			assert.False(t, ok)

			inserted, err := repo.Insert(ctx, tc.fact, row)
			require.NoError(t, err)
			assert.True(t, inserted)

			inserted, err = repo.Insert(ctx, tc.fact, row)
			require.NoError(t, err)
			assert.False(t, inserted, "duplicate insert must be absorbed")

			present, err := repo.Present(ctx, tc.fact, u.ID, []string{tc.target, "other"})
			require.NoError(t, err)
			assert.Equal(t, map[string]bool{tc.target: true}, present)

			deleted, err := repo.Delete(ctx, tc.fact, u.ID, tc.target)
			require.NoError(t, err)
			assert.True(t, deleted)

			deleted, err = repo.Delete(ctx, tc.fact, u.ID, tc.target)
			require.NoError(t, err)
			assert.False(t, deleted)
		})
	}
}
