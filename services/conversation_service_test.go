package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/conghoan1211/v0-app-chat-cute/db"
	apiErrors "github.com/conghoan1211/v0-app-chat-cute/errors"
	"github.com/conghoan1211/v0-app-chat-cute/models"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func newConversationService(t *testing.T) ConversationService {
	return NewConversationService(db.NewConversationRepo(newTestDB(t)), testConfig())
}

func TestNormalizeParticipants(t *testing.T) {
	got := NormalizeParticipants([]string{" Bob@Example.com ", "", "bob@example.com", "carol"}, "ALICE")
	require.Equal(t, []string{"bob@example.com", "carol", "alice"}, got)
}

func TestConversationService_PrivateConversationIsReused(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	svc := newConversationService(t)

	// Given a private conversation between alice and bob
	first, err := svc.ResolveOrCreate(ctx, []string{"bob"}, "alice", models.ConversationPrivate, "Bob", "")
	req.NoError(err)
	_, err = uuid.Parse(first.ID)
	req.NoError(err)
	req.Equal(models.DefaultAvatar, first.Avatar)

	// When bob starts a chat with alice, in any casing
	second, err := svc.ResolveOrCreate(ctx, []string{" ALICE "}, "Bob", models.ConversationPrivate, "Alice", "")

	// Then the existing conversation is returned
	req.NoError(err)
	req.Equal(first.ID, second.ID)
	participants, err := svc.GetParticipants(ctx, first.ID)
	req.NoError(err)
	req.Equal([]string{"alice", "bob"}, participants)
}

func TestConversationService_ConcurrentPrivateCreate(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	svc := newConversationService(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ids := map[string]bool{}
	var errs []error
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conversation, err := svc.ResolveOrCreate(ctx, []string{"bob"}, "alice", models.ConversationPrivate, "", "")
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			ids[conversation.ID] = true
		}()
	}
	wg.Wait()

	req.Empty(errs)
	req.Len(ids, 1)
}

func TestConversationService_GroupsAreNotDeduplicated(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	svc := newConversationService(t)

	a, err := svc.ResolveOrCreate(ctx, []string{"bob", "carol"}, "alice", models.ConversationGroup, "team", "")
	req.NoError(err)
	b, err := svc.ResolveOrCreate(ctx, []string{"bob", "carol"}, "alice", models.ConversationGroup, "team", "")
	req.NoError(err)

	req.NotEqual(a.ID, b.ID)
	req.Nil(a.ParticipantKey)
	req.ElementsMatch([]string{"alice", "bob", "carol"}, a.Identities())
}

func TestConversationService_RejectsBadParticipantSets(t *testing.T) {
	ctx := context.Background()
	svc := newConversationService(t)

	cases := []struct {
		name         string
		participants []string
		createdBy    string
		kind         models.ConversationKind
	}{
		{"private with three", []string{"bob", "carol"}, "alice", models.ConversationPrivate},
		{"only the creator", []string{"alice"}, "alice", models.ConversationPrivate},
		{"group of one", nil, "alice", models.ConversationGroup},
		{"no creator", []string{"bob"}, " ", models.ConversationPrivate},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ResolveOrCreate(ctx, tc.participants, tc.createdBy, tc.kind, "", "")
			require.True(t, errors.Is(err, apiErrors.ErrValidation), "got %v", err)
		})
	}
}

func TestConversationService_UpdateAndList(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	svc := newConversationService(t)

	withBob, err := svc.ResolveOrCreate(ctx, []string{"bob"}, "alice", models.ConversationPrivate, "Bob", "")
	req.NoError(err)
	withCarol, err := svc.ResolveOrCreate(ctx, []string{"carol"}, "alice", models.ConversationPrivate, "Carol", "")
	req.NoError(err)
	req.NoError(svc.TouchLastMessage(ctx, withBob.ID, "latest", time.Now().Add(time.Hour)))

	list, err := svc.ListForIdentity(ctx, "Alice")
	req.NoError(err)
	req.Len(list, 2)
	req.Equal(withBob.ID, list[0].ID)
	req.Equal("latest", list[0].LastMessage)

	name := "Carol ✿"
	pinned := true
	updated, err := svc.Update(ctx, withCarol.ID, models.ConversationUpdate{DisplayName: &name, Pinned: &pinned})
	req.NoError(err)
	req.Equal(name, updated.DisplayName)
	req.True(updated.Pinned)

	blank := "  "
	_, err = svc.Update(ctx, withCarol.ID, models.ConversationUpdate{DisplayName: &blank})
	req.True(errors.Is(err, apiErrors.ErrValidation))

	_, err = svc.Update(ctx, "missing", models.ConversationUpdate{Pinned: &pinned})
	req.True(errors.Is(err, apiErrors.ErrNotFound))
	_, err = svc.GetParticipants(ctx, "missing")
	req.True(errors.Is(err, apiErrors.ErrNotFound))
}
