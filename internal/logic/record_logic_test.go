package logic

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blues/ivs/internal/engine"
)

func TestRecordQueriesAfterRefund(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	l := newVoting(t, db)

	require.NoError(t, l.Register(ctx, admin, v1))
	require.NoError(t, l.Register(ctx, admin, v2))
	advanceTo(t, l, engine.PhaseProposalsOpen)
	_, err := l.SubmitProposal(ctx, v1, "Library", uint256.NewInt(100))
	require.NoError(t, err)
	advanceTo(t, l, engine.PhaseCollectingOpen)
	_, err = l.Contribute(ctx, v1, uint256.NewInt(20))
	require.NoError(t, err)
	_, err = l.Contribute(ctx, v2, uint256.NewInt(30))
	require.NoError(t, err)
	_, err = l.Contribute(ctx, v1, uint256.NewInt(5))
	require.NoError(t, err)
	advanceTo(t, l, engine.PhaseClosed)

	contributions := NewContributeRecordLogic(db)
	records, total, err := contributions.GetContributeRecords(v1.Hex(), 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, records, 2)

	stats, err := contributions.GetContributeStats()
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats["total_contributions"])
	assert.Equal(t, int64(2), stats["unique_contributors"])
	assert.Equal(t, "55", stats["total_accepted"])

	refunds := NewRefundRecordLogic(db)
	list, count, err := refunds.GetRefundRecords(0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	require.Len(t, list, 2)
	assert.Equal(t, v1.Hex(), list[0].Address)
	assert.Equal(t, "25", list[0].Amount)

	refundStats, err := refunds.GetRefundStats()
	require.NoError(t, err)
	assert.Equal(t, "55", refundStats["total_amount"])

	rec, err := refunds.GetSettlementRecord()
	require.NoError(t, err)
	assert.Equal(t, "refunded", rec.SettlementType)

	_, err = refunds.GetRefundByAddress(admin.Hex())
	assert.Error(t, err)
}

func TestEventLogicProcessing(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	l := newVoting(t, db)
	require.NoError(t, l.Register(ctx, admin, v1))
	require.NoError(t, l.Register(ctx, admin, v2))

	events := NewEventLogic(db)
	pending, err := events.GetUnprocessedEvents(10, 3)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	require.NoError(t, events.MarkProcessed(pending[0].EventId))
	require.NoError(t, events.MarkFailed(pending[1].EventId))

	ev, err := events.GetEvent(pending[1].EventId)
	require.NoError(t, err)
	assert.Equal(t, 1, ev.Attempts)
	assert.False(t, ev.Processed)

	pending, err = events.GetUnprocessedEvents(10, 1)
	require.NoError(t, err)
	assert.Empty(t, pending)

	list, total, err := events.GetEvents(engine.EventTypeVoterRegistered, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, list, 2)

	stats, err := events.GetEventStatistics()
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats["pending_events"])
}

func TestRecordLookupsNotFound(t *testing.T) {
	db := newTestDB(t)
	newVoting(t, db)

	_, err := NewRefundRecordLogic(db).GetSettlementRecord()
	assert.ErrorIs(t, err, ErrRecordNotFound)

	_, err = NewRefundRecordLogic(db).GetRefundByAddress(v1.Hex())
	assert.ErrorIs(t, err, ErrRecordNotFound)

	_, err = NewEventLogic(db).GetEvent("missing")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}
