package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/offset-service/internal/domain"
	"github.com/spec-kit/offset-service/internal/events"
	"github.com/spec-kit/offset-service/internal/repository/memory"
	apperrors "github.com/spec-kit/offset-service/pkg/util/errorutil"
)

func newOffsetFixture(t *testing.T) (*OffsetService, *memory.OffsetRepository, *[]events.Event, string) {
	t.Helper()
	repo := newMemOffsetRepo()
	bobsOffset := &domain.NamedOffset{Label: "Tokyo", City: "Tokyo", Offset: "+09:00", OwnerID: bob.ID}
	require.NoError(t, repo.Create(context.Background(), bobsOffset))

	var published []events.Event
	d := events.NewInMemoryDispatcher()
	d.SubscribeAll(func(_ context.Context, e events.Event) error {
		published = append(published, e)
		return nil
	})
	return NewOffsetService(repo, d, nil), repo, &published, bobsOffset.ID
}

func TestOffsetService_CreateAssignsCaller(t *testing.T) {
	svc, _, published, _ := newOffsetFixture(t)

	record, err := svc.Create(context.Background(), alice, OffsetInput{Label: " Pacific Time ", City: "LA", Offset: "-08:00"})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, record.OwnerID)
	assert.Equal(t, "Pacific Time", record.Label)

	list, err := svc.List(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, record.ID, list[0].ID)

	require.Len(t, *published, 1)
	assert.Equal(t, events.EventOffsetCreated, (*published)[0].Type)
	assert.Equal(t, "alice", (*published)[0].Actor)
}

func TestOffsetService_CreateValidates(t *testing.T) {
	svc, _, _, _ := newOffsetFixture(t)

	cases := []OffsetInput{
		{Label: "ab", Offset: "+01:00"},
		{Label: "Somewhere", Offset: "+1:00"},
		{Label: "Somewhere", Offset: "+19:00"},
		{Label: "Somewhere", Offset: "01:00"},
	}
	for _, in := range cases {
		_, err := svc.Create(context.Background(), alice, in)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "%+v", in)
	}
}

func TestOffsetService_GetOwnership(t *testing.T) {
	svc, _, _, bobsID := newOffsetFixture(t)

	record, err := svc.Get(context.Background(), bob, bobsID)
	require.NoError(t, err)
	assert.Equal(t, "Tokyo", record.Label)

	_, err = svc.Get(context.Background(), alice, bobsID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorizedAction))

	_, err = svc.Get(context.Background(), alice, "missing")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestOffsetService_UpdateByNonOwnerLeavesRecord(t *testing.T) {
	svc, repo, published, bobsID := newOffsetFixture(t)

	_, err := svc.Update(context.Background(), alice, bobsID, OffsetInput{Label: "Hijacked", Offset: "+00:00"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorizedAction))

	stored, err := repo.GetByID(context.Background(), bobsID)
	require.NoError(t, err)
	assert.Equal(t, "Tokyo", stored.Label)
	assert.Empty(t, *published)
}

func TestOffsetService_UpdateByOwner(t *testing.T) {
	svc, repo, published, bobsID := newOffsetFixture(t)

	updated, err := svc.Update(context.Background(), bob, bobsID, OffsetInput{Label: "Japan", City: "Osaka", Offset: "+09:00"})
	require.NoError(t, err)
	assert.Equal(t, bob.ID, updated.OwnerID)

	stored, err := repo.GetByID(context.Background(), bobsID)
	require.NoError(t, err)
	assert.Equal(t, "Japan", stored.Label)
	assert.Equal(t, "Osaka", stored.City)
	require.Len(t, *published, 1)
	assert.Equal(t, events.EventOffsetUpdated, (*published)[0].Type)
}

func TestOffsetService_MissingIsNotFoundBeforeOwnership(t *testing.T) {
	svc, _, _, _ := newOffsetFixture(t)

	_, err := svc.Update(context.Background(), alice, "missing", OffsetInput{Label: "Whatever", Offset: "+00:00"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	err = svc.Delete(context.Background(), alice, "missing")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestOffsetService_DeleteByNonOwnerLeavesRecord(t *testing.T) {
	svc, repo, _, bobsID := newOffsetFixture(t)

	err := svc.Delete(context.Background(), alice, bobsID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorizedAction))
	assert.Equal(t, "Unauthorized to delete this TimeZone", apperrors.ToDomainError(err).Message)

	_, err = repo.GetByID(context.Background(), bobsID)
	assert.NoError(t, err)
}

func TestOffsetService_DeleteByOwner(t *testing.T) {
	svc, repo, published, bobsID := newOffsetFixture(t)

	require.NoError(t, svc.Delete(context.Background(), bob, bobsID))
	_, err := repo.GetByID(context.Background(), bobsID)
	assert.Error(t, err)
	require.Len(t, *published, 1)
	assert.Equal(t, events.EventOffsetDeleted, (*published)[0].Type)
}

func TestAuthorize(t *testing.T) {
	record := &domain.NamedOffset{OwnerID: alice.ID}
	assert.NoError(t, Authorize(record, alice, "update"))
	assert.Error(t, Authorize(record, bob, "update"))
	assert.Error(t, Authorize(record, nil, "update"))
}
