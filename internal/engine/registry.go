package engine

import "github.com/ethereum/go-ethereum/common"

// Register 管理员在登记阶段登记投票人
func (e *Engine) Register(caller, voter common.Address) error {
	if err := e.requireAdmin(caller); err != nil {
		return err
	}
	if err := e.requirePhase(PhaseRegistering); err != nil {
		return err
	}
	if voter == (common.Address{}) {
		return newError(KindEmptyValue, "voter address is empty")
	}
	if voter == e.pool {
		return newError(KindUnauthorized, "pool account %s cannot be a voter", voter.Hex())
	}
	if p, ok := e.st.participants[voter]; ok && p.Registered {
		return newError(KindAlreadyRegistered, "voter %s is already registered", voter.Hex())
	}
	return e.atomically(func() error {
		e.st.participants[voter] = &Participant{Registered: true, Contributed: zero()}
		e.st.order = append(e.st.order, voter)
		e.emit(VoterRegistered{Voter: voter})
		return nil
	})
}

// IsRegistered 是否为已登记投票人
func (e *Engine) IsRegistered(addr common.Address) bool {
	p, ok := e.st.participants[addr]
	return ok && p.Registered
}

// Participant 返回投票人记录副本
func (e *Engine) Participant(addr common.Address) (Participant, bool) {
	p, ok := e.st.participants[addr]
	if !ok {
		return Participant{}, false
	}
	return p.clone(), true
}

// Voters 按登记顺序返回投票人地址
func (e *Engine) Voters() []common.Address {
	return append([]common.Address(nil), e.st.order...)
}
