package db_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/notewallet/internal/core/domain"
)

func TestRecordRepositoryImplementations(t *testing.T) {
	managers := createRepoManagers(t)

	for i := range managers {
		m := managers[i]

		t.Run(m.Name, func(t *testing.T) {
			t.Run("testAddAndTagRecords", func(t *testing.T) {
				testAddAndTagRecords(t, m.Manager.OwnedRecordRepository())
			})
			t.Run("testAccountMetadata", func(t *testing.T) {
				testAccountMetadata(t, m.Manager.AccountMetadataRepository())
			})
			t.Run("testSyncState", func(t *testing.T) {
				testSyncState(t, m.Manager.SyncStateRepository())
			})
			t.Run("testDAppSessions", func(t *testing.T) {
				testDAppSessions(t, m.Manager.DAppSessionRepository())
			})
		})
	}
}

func testAddAndTagRecords(t *testing.T, repo domain.OwnedRecordRepository) {
	ctx := context.Background()

	address := randomHex(20)
	records := makeRandomRecords(20, address)

	count, err := repo.AddRecords(ctx, records...)
	require.NoError(t, err)
	require.Equal(t, 20, count)

	count, err = repo.AddRecords(ctx, records[:5]...)
	require.NoError(t, err)
	require.Zero(t, count)

	owned, err := repo.GetRecordsForAddress(ctx, address)
	require.NoError(t, err)
	require.Len(t, owned, 20)
	for i := 1; i < len(owned); i++ {
		require.LessOrEqual(t, owned[i-1].ID, owned[i].ID)
	}

	for i, rec := range records[:10] {
		err := repo.UpdateRecord(
			ctx, rec.Key(),
			func(r *domain.OwnedRecord) (*domain.OwnedRecord, error) {
				r.Tag = randomHex(32)
				r.TagIndex = uint64(i + 1)
				return r, nil
			},
		)
		require.NoError(t, err)
	}

	untagged, err := repo.GetUntaggedRecords(ctx)
	require.NoError(t, err)
	require.Len(t, untagged, 10)

	rec, err := repo.GetRecord(ctx, records[0].Key())
	require.NoError(t, err)
	require.True(t, rec.IsTagged())
	require.Equal(t, uint64(1), rec.TagIndex)

	_, err = repo.GetRecord(ctx, "unknown")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func testAccountMetadata(t *testing.T, repo domain.AccountMetadataRepository) {
	ctx := context.Background()

	address := randomHex(20)
	require.NoError(t, repo.AddMetadata(ctx, domain.AccountCreationMetadata{
		Address: address, BlockHeight: 10,
	}))
	require.NoError(t, repo.AddMetadata(ctx, domain.AccountCreationMetadata{
		Address: address, BlockHeight: 20,
	}))

	err := repo.UpdateMetadata(
		ctx, address,
		func(m *domain.AccountCreationMetadata) (*domain.AccountCreationMetadata, error) {
			m.AssociatedRecordID = 7
			return m, nil
		},
	)
	require.NoError(t, err)

	m, err := repo.GetMetadata(ctx, address)
	require.NoError(t, err)
	require.Equal(t, int64(10), m.BlockHeight)
	require.Equal(t, int64(7), m.AssociatedRecordID)

	all, err := repo.GetAllMetadata(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func testSyncState(t *testing.T, repo domain.SyncStateRepository) {
	ctx := context.Background()

	state, err := repo.GetSyncState(ctx)
	require.NoError(t, err)
	require.Zero(t, state.Cursor)

	require.NoError(t, repo.UpdateSyncState(ctx, domain.SyncState{
		Cursor: 99, Addresses: []string{"a"},
	}))
	state, err = repo.GetSyncState(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(99), state.Cursor)
	require.True(t, state.Covers([]string{"a"}))
	require.False(t, state.Covers([]string{"a", "b"}))
}

func testDAppSessions(t *testing.T, repo domain.DAppSessionRepository) {
	ctx := context.Background()

	sessions := []domain.DAppSession{
		{Origin: "https://b.example", AccountPublicKey: "pub1", AppName: "b"},
		{Origin: "https://a.example", AccountPublicKey: "pub1", AppName: "a"},
		{Origin: "https://a.example", AccountPublicKey: "pub2", AppName: "a"},
	}
	for _, s := range sessions {
		require.NoError(t, repo.AddSession(ctx, s))
	}

	all, err := repo.GetAllSessions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "https://a.example", all[0].Origin)

	require.NoError(t, repo.DeleteSession(ctx, "https://a.example", "pub2"))
	_, err = repo.GetSession(ctx, "https://a.example", "pub2")
	require.ErrorIs(t, err, domain.ErrNotFound)

	s, err := repo.GetSession(ctx, "https://b.example", "pub1")
	require.NoError(t, err)
	require.Equal(t, "b", s.AppName)
}
