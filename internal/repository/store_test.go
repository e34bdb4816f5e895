package repository

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/blues/ivs/internal/config"
	"github.com/blues/ivs/internal/engine"
	"github.com/blues/ivs/internal/model"
	"github.com/blues/ivs/internal/token"
	"github.com/blues/ivs/internal/vault"
)

var (
	admin = common.HexToAddress("0x000000000000000000000000000000000000ad01")
	pool  = common.HexToAddress("0x000000000000000000000000000000000000f001")
	v1    = common.HexToAddress("0x0000000000000000000000000000000000000101")
	v2    = common.HexToAddress("0x0000000000000000000000000000000000000102")
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Init(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   "file:" + uuid.NewString() + "?mode=memory&cache=shared",
	})
	require.NoError(t, err)
	return db
}

type world struct {
	eng    *engine.Engine
	book   *vault.Book
	tokens *token.Registry
}

func newWorld(t *testing.T) *world {
	t.Helper()
	w := &world{book: vault.NewBook(), tokens: token.NewRegistry(pool)}
	eng, err := engine.New(engine.Config{Admin: admin, Pool: pool, Vault: w.book, Tokens: w.tokens, Entropy: engine.FixedEntropy(7)})
	require.NoError(t, err)
	w.eng = eng
	return w
}

func (w *world) advance(t *testing.T, target engine.Phase) {
	t.Helper()
	for w.eng.Phase() < target {
		_, err := w.eng.Advance(admin)
		require.NoError(t, err)
	}
}

func (w *world) state() *State {
	st := &State{Admin: admin, Pool: pool, Engine: w.eng.Export(), Accounts: w.book.Accounts()}
	for _, tok := range w.tokens.Tokens() {
		st.Tokens = append(st.Tokens, TokenState{Address: tok.Address(), Name: tok.Name(), Symbol: tok.Symbol(), Holdings: tok.Holdings()})
	}
	return st
}

func fundedWorld(t *testing.T) *world {
	w := newWorld(t)
	require.NoError(t, w.eng.Register(admin, v1))
	require.NoError(t, w.eng.Register(admin, v2))
	w.advance(t, engine.PhaseProposalsOpen)
	_, err := w.eng.SubmitProposal(v1, "Park", uint256.NewInt(100))
	require.NoError(t, err)
	_, err = w.eng.SubmitProposal(v2, "Pool", uint256.NewInt(80))
	require.NoError(t, err)
	w.advance(t, engine.PhaseVotingOpen)
	require.NoError(t, w.eng.Vote(v1, 0))
	require.NoError(t, w.eng.Vote(v2, 0))
	w.advance(t, engine.PhaseCollectingOpen)
	_, err = w.eng.Contribute(v1, uint256.NewInt(60))
	require.NoError(t, err)
	_, err = w.eng.Contribute(v2, uint256.NewInt(60))
	require.NoError(t, err)
	return w
}

func TestLoadEmpty(t *testing.T) {
	store := NewStore(newTestDB(t))
	st, ok, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, st)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newTestDB(t))
	w := fundedWorld(t)

	events := []model.EventModel{{EventId: uuid.NewString(), EventType: engine.EventTypeContributionReceived, Phase: "collecting_open", Data: `{}`}}
	require.NoError(t, store.Save(ctx, w.state(), events))

	loaded, ok, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, admin, loaded.Admin)
	assert.Equal(t, engine.PhaseCollectingOpen, loaded.Engine.Phase)
	assert.Equal(t, w.eng.Export().Proposals, loaded.Engine.Proposals)
	assert.Equal(t, w.eng.Export().Contributions, loaded.Engine.Contributions)
	require.NotNil(t, loaded.Engine.Tally)
	assert.Equal(t, uint64(0), loaded.Engine.Tally.WinningIndex)

	require.Len(t, loaded.Accounts, 2)
	restored := newWorld(t)
	require.NoError(t, restored.eng.Restore(loaded.Engine))
	restored.book.Load(loaded.Accounts)
	assert.Equal(t, uint64(100), restored.book.BalanceOf(pool).Uint64())
	assert.Equal(t, uint64(20), restored.book.BalanceOf(v2).Uint64())

	var count int64
	require.NoError(t, store.DB().Model(&model.EventModel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSaveSettlementOnce(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newTestDB(t))
	w := fundedWorld(t)
	w.advance(t, engine.PhaseCollectingClosed)
	require.NoError(t, w.eng.SetRewardParams(admin, "Share", "SHR"))
	w.advance(t, engine.PhaseClosed)

	require.NoError(t, store.Save(ctx, w.state(), nil))
	require.NoError(t, store.Save(ctx, w.state(), nil))

	var settlements []model.SettlementRecordModel
	require.NoError(t, store.DB().Find(&settlements).Error)
	require.Len(t, settlements, 1)
	assert.Equal(t, string(model.SettlementTypeFunded), settlements[0].SettlementType)
	assert.Equal(t, "100", settlements[0].AdminRemainder)

	loaded, ok, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, loaded.Engine.Settlement)
	assert.Equal(t, engine.SettlementFunded, loaded.Engine.Settlement.Outcome)
	require.Len(t, loaded.Tokens, 1)
	assert.Equal(t, "SHR", loaded.Tokens[0].Symbol)
	assert.Len(t, loaded.Tokens[0].Holdings, 2)
	assert.Equal(t, &engine.RewardParams{Name: "Share", Symbol: "SHR"}, loaded.Engine.RewardParams)
}

func TestSaveRefundRecords(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newTestDB(t))
	w := newWorld(t)
	require.NoError(t, w.eng.Register(admin, v1))
	w.advance(t, engine.PhaseProposalsOpen)
	_, err := w.eng.SubmitProposal(v1, "Park", uint256.NewInt(100))
	require.NoError(t, err)
	w.advance(t, engine.PhaseCollectingOpen)
	_, err = w.eng.Contribute(v1, uint256.NewInt(30))
	require.NoError(t, err)
	w.advance(t, engine.PhaseClosed)

	require.NoError(t, store.Save(ctx, w.state(), nil))
	var refunds []model.RefundRecordModel
	require.NoError(t, store.DB().Find(&refunds).Error)
	require.Len(t, refunds, 1)
	assert.Equal(t, v1.Hex(), refunds[0].Address)
	assert.Equal(t, "30", refunds[0].Amount)
}
