package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/blues/ivs/internal/engine"
	"github.com/blues/ivs/internal/model"
	"github.com/blues/ivs/internal/token"
	"github.com/blues/ivs/internal/vault"
)

// TokenState 奖励代币及其持有人
type TokenState struct {
	Address  common.Address
	Name     string
	Symbol   string
	Holdings []token.Holding
}

// State 需要持久化的全部状态
type State struct {
	Admin    common.Address
	Pool     common.Address
	Engine   engine.Snapshot
	Accounts []vault.Account
	Tokens   []TokenState
}

// Store 引擎状态存储
type Store struct {
	db *gorm.DB
}

// NewStore 创建存储
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB 返回底层连接
func (s *Store) DB() *gorm.DB {
	return s.db
}

func parseAmount(field, v string) (*uint256.Int, error) {
	if v == "" {
		return new(uint256.Int), nil
	}
	n, err := uint256.FromDecimal(v)
	if err != nil {
		return nil, fmt.Errorf("parse %s %q: %w", field, v, err)
	}
	return n, nil
}

func amountString(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}

// Load 读取持久化状态，没有记录时返回 false
func (s *Store) Load(ctx context.Context) (*State, bool, error) {
	db := s.db.WithContext(ctx)

	var row model.EngineStateModel
	if err := db.First(&row, model.EngineStateId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("load engine state: %w", err)
	}
	phase, err := engine.ParsePhase(row.Phase)
	if err != nil {
		return nil, false, err
	}
	st := &State{
		Admin: common.HexToAddress(row.Admin),
		Pool:  common.HexToAddress(row.Pool),
		Engine: engine.Snapshot{
			Phase:        phase,
			WinningIndex: uint64(row.WinningIndex),
		},
	}
	if row.Tally != "" {
		st.Engine.Tally = new(engine.TallyResult)
		if err := json.Unmarshal([]byte(row.Tally), st.Engine.Tally); err != nil {
			return nil, false, fmt.Errorf("decode tally: %w", err)
		}
	}
	if row.RewardName != "" {
		st.Engine.RewardParams = &engine.RewardParams{Name: row.RewardName, Symbol: row.RewardSymbol}
	}

	var participants []model.ParticipantModel
	if err := db.Order("seq ASC").Find(&participants).Error; err != nil {
		return nil, false, fmt.Errorf("load participants: %w", err)
	}
	for _, p := range participants {
		contributed, err := parseAmount("contributed", p.Contributed)
		if err != nil {
			return nil, false, err
		}
		st.Engine.Participants = append(st.Engine.Participants, engine.ParticipantEntry{
			Address: common.HexToAddress(p.Address),
			Participant: engine.Participant{
				Registered:    p.Registered,
				HasVoted:      p.HasVoted,
				VotedProposal: uint64(p.VotedProposal),
				Contributed:   contributed,
			},
		})
	}

	var proposals []model.ProposalModel
	if err := db.Order("proposal_index ASC").Find(&proposals).Error; err != nil {
		return nil, false, fmt.Errorf("load proposals: %w", err)
	}
	for i, p := range proposals {
		if p.ProposalIndex != int64(i) {
			return nil, false, fmt.Errorf("proposal index gap at %d", i)
		}
		goal, err := parseAmount("funding_goal", p.FundingGoal)
		if err != nil {
			return nil, false, err
		}
		contributed, err := parseAmount("contributed", p.Contributed)
		if err != nil {
			return nil, false, err
		}
		st.Engine.Proposals = append(st.Engine.Proposals, engine.Proposal{
			Description: p.Description,
			FundingGoal: goal,
			VoteCount:   uint64(p.VoteCount),
			Contributed: contributed,
			Proposer:    common.HexToAddress(p.Proposer),
		})
	}

	var records []model.ContributeRecordModel
	if err := db.Order("seq ASC").Find(&records).Error; err != nil {
		return nil, false, fmt.Errorf("load contributions: %w", err)
	}
	for _, r := range records {
		c := engine.Contribution{Seq: uint64(r.Seq), Contributor: common.HexToAddress(r.Address)}
		if c.Sent, err = parseAmount("sent", r.Sent); err != nil {
			return nil, false, err
		}
		if c.Accepted, err = parseAmount("accepted", r.Accepted); err != nil {
			return nil, false, err
		}
		if c.Returned, err = parseAmount("returned", r.Returned); err != nil {
			return nil, false, err
		}
		st.Engine.Contributions = append(st.Engine.Contributions, c)
	}

	if row.Settled {
		var rec model.SettlementRecordModel
		if err := db.Order("id ASC").First(&rec).Error; err != nil {
			return nil, false, fmt.Errorf("load settlement: %w", err)
		}
		st.Engine.Settlement = new(engine.Settlement)
		if err := json.Unmarshal([]byte(rec.Detail), st.Engine.Settlement); err != nil {
			return nil, false, fmt.Errorf("decode settlement: %w", err)
		}
	}

	var balances []model.AccountBalanceModel
	if err := db.Order("address ASC").Find(&balances).Error; err != nil {
		return nil, false, fmt.Errorf("load balances: %w", err)
	}
	for _, b := range balances {
		amount, err := parseAmount("balance", b.Balance)
		if err != nil {
			return nil, false, err
		}
		st.Accounts = append(st.Accounts, vault.Account{Address: common.HexToAddress(b.Address), Balance: amount})
	}

	var tokens []model.RewardTokenModel
	if err := db.Order("id ASC").Find(&tokens).Error; err != nil {
		return nil, false, fmt.Errorf("load reward tokens: %w", err)
	}
	for _, t := range tokens {
		ts := TokenState{Address: common.HexToAddress(t.Address), Name: t.Name, Symbol: t.Symbol}
		var holdings []model.RewardBalanceModel
		if err := db.Where("token_address = ?", t.Address).Order("holder ASC").Find(&holdings).Error; err != nil {
			return nil, false, fmt.Errorf("load reward balances: %w", err)
		}
		for _, h := range holdings {
			amount, err := parseAmount("balance", h.Balance)
			if err != nil {
				return nil, false, err
			}
			ts.Holdings = append(ts.Holdings, token.Holding{Holder: common.HexToAddress(h.Holder), Balance: amount})
		}
		st.Tokens = append(st.Tokens, ts)
	}

	return st, true, nil
}

// Save 在一个事务中写入状态和本次操作产生的事件
func (s *Store) Save(ctx context.Context, st *State, events []model.EventModel) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := saveEngineState(tx, st); err != nil {
			return err
		}
		if err := saveParticipants(tx, st.Engine.Participants); err != nil {
			return err
		}
		if err := saveProposals(tx, st.Engine.Proposals); err != nil {
			return err
		}
		if err := saveContributions(tx, st.Engine); err != nil {
			return err
		}
		if err := saveSettlement(tx, st.Engine); err != nil {
			return err
		}
		if err := saveTokens(tx, st.Tokens); err != nil {
			return err
		}
		if err := saveAccounts(tx, st.Accounts); err != nil {
			return err
		}
		if len(events) > 0 {
			if err := tx.Create(&events).Error; err != nil {
				return fmt.Errorf("save events: %w", err)
			}
		}
		return nil
	})
}

func saveEngineState(tx *gorm.DB, st *State) error {
	row := model.EngineStateModel{
		Id:           model.EngineStateId,
		Phase:        st.Engine.Phase.String(),
		Admin:        st.Admin.Hex(),
		Pool:         st.Pool.Hex(),
		WinningIndex: int64(st.Engine.WinningIndex),
		Settled:      st.Engine.Settlement != nil,
	}
	if st.Engine.Tally != nil {
		b, err := json.Marshal(st.Engine.Tally)
		if err != nil {
			return fmt.Errorf("encode tally: %w", err)
		}
		row.Tally = string(b)
	}
	if rp := st.Engine.RewardParams; rp != nil {
		row.RewardName = rp.Name
		row.RewardSymbol = rp.Symbol
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"updated_at", "phase", "admin", "pool", "winning_index", "tally", "reward_name", "reward_symbol", "settled"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save engine state: %w", err)
	}
	return nil
}

func saveParticipants(tx *gorm.DB, entries []engine.ParticipantEntry) error {
	if len(entries) == 0 {
		return nil
	}
	rows := make([]model.ParticipantModel, len(entries))
	for i, e := range entries {
		rows[i] = model.ParticipantModel{
			Seq:           int64(i),
			Address:       e.Address.Hex(),
			Registered:    e.Registered,
			HasVoted:      e.HasVoted,
			VotedProposal: int64(e.VotedProposal),
			Contributed:   amountString(e.Contributed),
		}
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{"updated_at", "seq", "registered", "has_voted", "voted_proposal", "contributed"}),
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("save participants: %w", err)
	}
	return nil
}

func saveProposals(tx *gorm.DB, proposals []engine.Proposal) error {
	if len(proposals) == 0 {
		return nil
	}
	rows := make([]model.ProposalModel, len(proposals))
	for i, p := range proposals {
		rows[i] = model.ProposalModel{
			ProposalIndex: int64(i),
			Description:   p.Description,
			Proposer:      p.Proposer.Hex(),
			FundingGoal:   amountString(p.FundingGoal),
			VoteCount:     int64(p.VoteCount),
			Contributed:   amountString(p.Contributed),
		}
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "proposal_index"}},
		DoUpdates: clause.AssignmentColumns([]string{"updated_at", "vote_count", "contributed"}),
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("save proposals: %w", err)
	}
	return nil
}

func saveContributions(tx *gorm.DB, snap engine.Snapshot) error {
	if len(snap.Contributions) == 0 {
		return nil
	}
	rows := make([]model.ContributeRecordModel, len(snap.Contributions))
	for i, c := range snap.Contributions {
		rows[i] = model.ContributeRecordModel{
			Seq:           int64(c.Seq),
			ProposalIndex: int64(snap.WinningIndex),
			Address:       c.Contributor.Hex(),
			Sent:          amountString(c.Sent),
			Accepted:      amountString(c.Accepted),
			Returned:      amountString(c.Returned),
		}
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "seq"}},
		DoNothing: true,
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("save contributions: %w", err)
	}
	return nil
}

func saveSettlement(tx *gorm.DB, snap engine.Snapshot) error {
	st := snap.Settlement
	if st == nil {
		return nil
	}
	var count int64
	if err := tx.Model(&model.SettlementRecordModel{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count settlements: %w", err)
	}
	if count > 0 {
		return nil
	}

	detail, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode settlement: %w", err)
	}
	now := time.Now()
	rec := model.SettlementRecordModel{
		SettlementType:   string(st.Outcome),
		HasWinner:        st.HasWinner,
		WinningIndex:     int64(st.WinningIndex),
		TotalContributed: amountString(st.TotalContributed),
		AdminRemainder:   amountString(st.AdminRemainder),
		Detail:           string(detail),
		SettlementTime:   &now,
	}
	if st.Outcome == engine.SettlementFunded {
		rec.RewardToken = st.RewardToken.Hex()
	}
	if err := tx.Create(&rec).Error; err != nil {
		return fmt.Errorf("save settlement: %w", err)
	}

	if len(st.Refunds) == 0 {
		return nil
	}
	refunds := make([]model.RefundRecordModel, len(st.Refunds))
	for i, r := range st.Refunds {
		refunds[i] = model.RefundRecordModel{
			ProposalIndex: int64(st.WinningIndex),
			Address:       r.Address.Hex(),
			Amount:        amountString(r.Amount),
			Status:        string(model.RefundStatusSuccess),
			RefundReason:  "funding goal not reached",
		}
	}
	if err := tx.Create(&refunds).Error; err != nil {
		return fmt.Errorf("save refunds: %w", err)
	}
	return nil
}

func saveTokens(tx *gorm.DB, tokens []TokenState) error {
	for _, t := range tokens {
		supply := new(uint256.Int)
		for _, h := range t.Holdings {
			supply.Add(supply, h.Balance)
		}
		row := model.RewardTokenModel{
			Address:     t.Address.Hex(),
			Name:        t.Name,
			Symbol:      t.Symbol,
			TotalSupply: supply.Dec(),
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "address"}},
			DoUpdates: clause.AssignmentColumns([]string{"updated_at", "total_supply"}),
		}).Create(&row).Error
		if err != nil {
			return fmt.Errorf("save reward token: %w", err)
		}
		if len(t.Holdings) == 0 {
			continue
		}
		rows := make([]model.RewardBalanceModel, len(t.Holdings))
		for i, h := range t.Holdings {
			rows[i] = model.RewardBalanceModel{
				TokenAddress: t.Address.Hex(),
				Holder:       h.Holder.Hex(),
				Balance:      amountString(h.Balance),
			}
		}
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token_address"}, {Name: "holder"}},
			DoUpdates: clause.AssignmentColumns([]string{"updated_at", "balance"}),
		}).Create(&rows).Error
		if err != nil {
			return fmt.Errorf("save reward balances: %w", err)
		}
	}
	return nil
}

func saveAccounts(tx *gorm.DB, accounts []vault.Account) error {
	if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.AccountBalanceModel{}).Error; err != nil {
		return fmt.Errorf("clear balances: %w", err)
	}
	if len(accounts) == 0 {
		return nil
	}
	rows := make([]model.AccountBalanceModel, len(accounts))
	for i, a := range accounts {
		rows[i] = model.AccountBalanceModel{Address: a.Address.Hex(), Balance: amountString(a.Balance)}
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("save balances: %w", err)
	}
	return nil
}
