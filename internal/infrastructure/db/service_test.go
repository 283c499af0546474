package db_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tombolabs/tombola/internal/core/domain"
	"github.com/tombolabs/tombola/internal/core/ports"
	"github.com/tombolabs/tombola/internal/infrastructure/db"
)

var ctx = context.Background()

func TestService(t *testing.T) {
	dbTypes := []struct {
		name   string
		config db.ServiceConfig
	}{
		{
			name: "badger",
			config: db.ServiceConfig{
				EventStoreType:   "badger",
				DataStoreType:    "badger",
				EventStoreConfig: []interface{}{"", nil},
				DataStoreConfig:  []interface{}{"", nil},
			},
		},
		{
			name: "sqlite",
			config: db.ServiceConfig{
				EventStoreType:   "badger",
				DataStoreType:    "sqlite",
				EventStoreConfig: []interface{}{"", nil},
			},
		},
	}

	for _, f := range dbTypes {
		t.Run(f.name, func(t *testing.T) {
			if f.config.DataStoreType == "sqlite" {
				f.config.DataStoreConfig = []interface{}{t.TempDir()}
			}

			repoManager, err := db.NewService(f.config)
			require.NoError(t, err)
			require.NotNil(t, repoManager)
			t.Cleanup(repoManager.Close)

			testEventRepository(t, repoManager)
			testRoundRepository(t, repoManager)
			testAssetRepository(t, repoManager)
			testParamsRepository(t, repoManager)
		})
	}
}

func testEventRepository(t *testing.T, repoManager ports.RepoManager) {
	t.Run("event_repository", func(t *testing.T) {
		var (
			handlerLock sync.Mutex
			handled     []*domain.Round
		)
		repoManager.Events().RegisterEventsHandler(func(round *domain.Round) {
			handlerLock.Lock()
			defer handlerLock.Unlock()
			handled = append(handled, round)
		})

		latest, err := repoManager.Events().GetLatestRound(ctx)
		require.NoError(t, err)
		require.Nil(t, latest)

		round, err := repoManager.Events().Load(ctx, 100)
		require.NoError(t, err)
		require.NotNil(t, round)
		require.Equal(t, domain.UndefinedStatus, round.Status)

		fixture := drawnRound(t, 100)

		// persist the history in two batches to prove appending works
		events := fixture.Events()
		stored, err := repoManager.Events().Save(ctx, fixture.Id, events[:2]...)
		require.NoError(t, err)
		require.NotNil(t, stored)

		stored, err = repoManager.Events().Save(ctx, fixture.Id, events[2:]...)
		require.NoError(t, err)
		require.NotNil(t, stored)
		require.Equal(t, fixture.Status, stored.Status)

		loaded, err := repoManager.Events().Load(ctx, fixture.Id)
		require.NoError(t, err)
		require.NotNil(t, loaded)
		require.Equal(t, fixture.Id, loaded.Id)
		require.Equal(t, fixture.Status, loaded.Status)
		require.Equal(t, fixture.Winner, loaded.Winner)
		require.Equal(t, fixture.TotalEntries, loaded.TotalEntries)
		require.Equal(t, fixture.Contributions, loaded.Contributions)
		require.Equal(t, fixture.AssetBalances, loaded.AssetBalances)

		latest, err = repoManager.Events().GetLatestRound(ctx)
		require.NoError(t, err)
		require.NotNil(t, latest)
		require.Equal(t, fixture.Id, latest.Id)
		require.Equal(t, fixture.Status, latest.Status)
		require.Equal(t, fixture.Winner, latest.Winner)

		// saved batches are pushed to the registered handler
		require.Eventually(t, func() bool {
			handlerLock.Lock()
			defer handlerLock.Unlock()
			return len(handled) >= 2
		}, 2*time.Second, 20*time.Millisecond)
	})
}

func testRoundRepository(t *testing.T, repoManager ports.RepoManager) {
	t.Run("round_repository", func(t *testing.T) {
		missing, err := repoManager.Rounds().GetRoundWithId(ctx, 42)
		require.Error(t, err)
		require.Nil(t, missing)

		fixture := drawnRound(t, 1)
		require.NoError(t, repoManager.Rounds().AddOrUpdateRound(ctx, *fixture))

		loaded, err := repoManager.Rounds().GetRoundWithId(ctx, fixture.Id)
		require.NoError(t, err)
		require.NotNil(t, loaded)
		require.Equal(t, fixture.Id, loaded.Id)
		require.Equal(t, fixture.Status, loaded.Status)
		require.Equal(t, fixture.Winner, loaded.Winner)
		require.Equal(t, fixture.Contributions, loaded.Contributions)
		require.Equal(t, fixture.Participants, loaded.Participants)
		require.Equal(t, fixture.AssetBalances, loaded.AssetBalances)

		// updates are wholesale replacements
		next := domain.NewRound(2)
		_, err = next.Open()
		require.NoError(t, err)
		_, err = next.RegisterContribution(
			"carol", "tokenA", 300, 300, 100, 4, 600, time.Now(),
		)
		require.NoError(t, err)
		require.NoError(t, repoManager.Rounds().AddOrUpdateRound(ctx, *next))

		current, err := repoManager.Rounds().GetCurrentRound(ctx)
		require.NoError(t, err)
		require.NotNil(t, current)
		require.Equal(t, next.Id, current.Id)
		require.True(t, current.IsOpen())

		// only ended rounds are listed
		ids, err := repoManager.Rounds().GetRoundIds(ctx, 0, time.Now().Unix()+10)
		require.NoError(t, err)
		require.Equal(t, []uint64{fixture.Id}, ids)
	})
}

func testAssetRepository(t *testing.T, repoManager ports.RepoManager) {
	t.Run("asset_repository", func(t *testing.T) {
		asset := domain.SupportedAsset{
			Id:              "tokenA",
			Precision:       6,
			Active:          true,
			MinContribution: 10,
			RelativeWorthBp: 10_000,
		}

		missing, err := repoManager.Assets().GetAsset(ctx, asset.Id)
		require.NoError(t, err)
		require.Nil(t, missing)

		require.NoError(t, repoManager.Assets().AddAsset(ctx, asset))
		require.ErrorIs(
			t, repoManager.Assets().AddAsset(ctx, asset),
			domain.ErrAssetAlreadyWhitelisted,
		)

		loaded, err := repoManager.Assets().GetAsset(ctx, asset.Id)
		require.NoError(t, err)
		require.NotNil(t, loaded)
		require.Equal(t, asset, *loaded)

		asset.Active = false
		asset.RelativeWorthBp = 20_000
		require.NoError(t, repoManager.Assets().UpdateAsset(ctx, asset))

		loaded, err = repoManager.Assets().GetAsset(ctx, asset.Id)
		require.NoError(t, err)
		require.Equal(t, asset, *loaded)

		all, err := repoManager.Assets().GetAllAssets(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)

		require.NoError(t, repoManager.Assets().RemoveAsset(ctx, asset.Id))
		require.ErrorIs(
			t, repoManager.Assets().RemoveAsset(ctx, asset.Id),
			domain.ErrAssetNotWhitelisted,
		)
		require.ErrorIs(
			t, repoManager.Assets().UpdateAsset(ctx, asset),
			domain.ErrAssetNotWhitelisted,
		)
	})
}

func testParamsRepository(t *testing.T, repoManager ports.RepoManager) {
	t.Run("params_repository", func(t *testing.T) {
		missing, err := repoManager.Params().Get(ctx)
		require.NoError(t, err)
		require.Nil(t, missing)

		params := domain.PoolParams{
			ValuePerEntry:   100,
			RoundDuration:   3600,
			FeeBp:           300,
			FeeRecipient:    "treasury",
			Capacity:        128,
			MinParticipants: 2,
			Keeper:          "keeper",
			OutflowAllowed:  true,
		}
		require.NoError(t, repoManager.Params().Upsert(ctx, params))

		loaded, err := repoManager.Params().Get(ctx)
		require.NoError(t, err)
		require.NotNil(t, loaded)
		require.Equal(t, params, *loaded)

		params.FeeBp = 500
		params.Paused = true
		require.NoError(t, repoManager.Params().Upsert(ctx, params))

		loaded, err = repoManager.Params().Get(ctx)
		require.NoError(t, err)
		require.Equal(t, params, *loaded)
	})
}

// drawnRound replays a full lifecycle: two contributors, capacity flip,
// winner drawn.
func drawnRound(t *testing.T, id uint64) *domain.Round {
	now := time.Now()

	round := domain.NewRound(id)
	_, err := round.Open()
	require.NoError(t, err)

	_, err = round.RegisterContribution(
		"alice", "tokenA", 1000, 1000, 100, 2, 600, now,
	)
	require.NoError(t, err)
	_, err = round.RegisterContribution(
		"bob", "tokenB", 500, 500, 100, 2, 600, now,
	)
	require.NoError(t, err)
	require.True(t, round.IsDrawing())

	_, err = round.ConcludeDraw("bob", 12, "deadbeef", 300, now.Add(time.Second))
	require.NoError(t, err)

	return round
}
