package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sladesk-io/sladesk/internal/models"
)

func TestMemorySLARepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemorySLARepository()

	sla := &models.SLADefinition{
		Name:             "Standard",
		OperationalHours: models.HoursBusiness,
		IsActive:         true,
		Targets: []models.SLATarget{
			{Priority: "high", ResolutionTime: 4, ResolutionUnit: models.UnitHours},
			{Priority: "medium", ResolutionTime: 8, ResolutionUnit: models.UnitHours},
		},
	}
	require.NoError(t, repo.CreateSLA(ctx, sla))
	require.NotZero(t, sla.ID)

	t.Run("find target by priority", func(t *testing.T) {
		target, err := repo.FindTarget(ctx, sla.ID, "high")
		require.NoError(t, err)
		assert.Equal(t, 4, target.ResolutionTime)
	})

	t.Run("missing priority returns not found", func(t *testing.T) {
		_, err := repo.FindTarget(ctx, sla.ID, "critical")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("stored definition is isolated from caller mutation", func(t *testing.T) {
		got, err := repo.GetSLA(ctx, sla.ID)
		require.NoError(t, err)
		got.Targets[0].ResolutionTime = 999

		again, err := repo.GetSLA(ctx, sla.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, again.Targets[0].ResolutionTime)
	})

	t.Run("working hours scoped per tenant", func(t *testing.T) {
		rows := []models.WorkingHours{
			{DayOfWeek: 0, StartTime: "09:00", EndTime: "17:00", IsWorkingDay: true},
		}
		require.NoError(t, repo.ReplaceWorkingHours(ctx, "acme", rows))

		got, err := repo.GetWorkingHours(ctx, "acme")
		require.NoError(t, err)
		assert.Len(t, got, 1)

		other, err := repo.GetWorkingHours(ctx, models.DefaultScope)
		require.NoError(t, err)
		assert.Empty(t, other)
	})
}

func TestMemoryItemRepositoryActiveItems(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryItemRepository()
	slaID := uint(1)

	repo.Put(&models.Item{Kind: models.KindTicket, ID: 1, Status: "assigned", SLAID: &slaID})
	repo.Put(&models.Item{Kind: models.KindTicket, ID: 2, Status: "closed", SLAID: &slaID})
	repo.Put(&models.Item{Kind: models.KindTicket, ID: 3, Status: "in_progress"}) // no SLA
	repo.Put(&models.Item{Kind: models.KindTask, ID: 4, Status: "open", SLAID: &slaID})

	tickets, err := repo.ActiveItems(ctx, models.DefaultScope, models.KindTicket)
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, uint(1), tickets[0].ID)

	tasks, err := repo.ActiveItems(ctx, models.DefaultScope, models.KindTask)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestMemoryTrackerRepositoryCAS(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryTrackerRepository()

	due := time.Date(2025, 3, 10, 17, 0, 0, 0, time.UTC)
	tracker := &models.SLATracker{
		ItemKind:         models.KindTicket,
		ItemID:           7,
		TargetID:         1,
		FirstResponseDue: due,
		ResolutionDue:    due,
	}
	require.NoError(t, repo.Create(ctx, tracker))
	assert.Equal(t, 1, tracker.Version)

	t.Run("duplicate create rejected", func(t *testing.T) {
		dup := &models.SLATracker{ItemKind: models.KindTicket, ItemID: 7}
		assert.ErrorIs(t, repo.Create(ctx, dup), ErrAlreadyExists)
	})

	t.Run("stale version loses", func(t *testing.T) {
		a, err := repo.GetByItem(ctx, models.KindTicket, 7)
		require.NoError(t, err)
		b, err := repo.GetByItem(ctx, models.KindTicket, 7)
		require.NoError(t, err)

		a.PauseReason = "winner"
		require.NoError(t, repo.Update(ctx, a))

		b.PauseReason = "loser"
		assert.ErrorIs(t, repo.Update(ctx, b), ErrVersionConflict)

		current, err := repo.GetByItem(ctx, models.KindTicket, 7)
		require.NoError(t, err)
		assert.Equal(t, "winner", current.PauseReason)
		assert.Equal(t, 2, current.Version)
	})
}

func TestMemoryViolationRepositoryDedup(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryViolationRepository()

	key := models.ViolationKey{
		ItemKind:  models.KindTicket,
		ItemID:    42,
		TargetID:  1,
		Dimension: models.DimensionResolution,
	}
	record := func() *models.ViolationRecord {
		return &models.ViolationRecord{
			ItemKind:   key.ItemKind,
			ItemID:     key.ItemID,
			TargetID:   key.TargetID,
			Dimension:  key.Dimension,
			TargetTime: time.Now(),
			BreachTime: time.Now(),
		}
	}

	created, err := repo.Record(ctx, record())
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Record(ctx, record())
	require.NoError(t, err)
	assert.False(t, created, "second record for the same key must not insert")

	t.Run("concurrent records create exactly one row", func(t *testing.T) {
		fresh := NewMemoryViolationRepository()
		var wg sync.WaitGroup
		results := make(chan bool, 16)
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := fresh.Record(ctx, record())
				assert.NoError(t, err)
				results <- ok
			}()
		}
		wg.Wait()
		close(results)

		var wins int
		for ok := range results {
			if ok {
				wins++
			}
		}
		assert.Equal(t, 1, wins)
	})

	t.Run("resolve frees the key", func(t *testing.T) {
		require.NoError(t, repo.Resolve(ctx, key, time.Now()))

		exists, err := repo.Exists(ctx, key)
		require.NoError(t, err)
		assert.False(t, exists)

		created, err := repo.Record(ctx, record())
		require.NoError(t, err)
		assert.True(t, created, "a resolved record must not block a new breach")

		records, err := repo.ListByItem(ctx, key.ItemKind, key.ItemID)
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("resolving an absent key errors", func(t *testing.T) {
		missing := key
		missing.ItemID = 999
		assert.ErrorIs(t, repo.Resolve(ctx, missing, time.Now()), ErrNotFound)
	})
}
