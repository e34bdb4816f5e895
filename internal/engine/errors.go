package engine

import (
	"errors"
	"fmt"
)

// ErrorKind 错误类别
type ErrorKind string

const (
	KindUnauthorized       ErrorKind = "Unauthorized"
	KindWrongPhase         ErrorKind = "WrongPhase"
	KindInvalidPhase       ErrorKind = "InvalidPhase"
	KindAlreadyRegistered  ErrorKind = "AlreadyRegistered"
	KindAlreadyVoted       ErrorKind = "AlreadyVoted"
	KindDuplicateProposal  ErrorKind = "DuplicateProposal"
	KindNotFound           ErrorKind = "NotFound"
	KindEmptyValue         ErrorKind = "EmptyValue"
	KindNoWinningProposal  ErrorKind = "NoWinningProposal"
	KindGoalReached        ErrorKind = "GoalReached"
	KindMissingTokenParams ErrorKind = "MissingTokenParams"
	KindTransferFailed     ErrorKind = "TransferFailed"
	KindInconsistent       ErrorKind = "Inconsistent"
)

// Error 引擎错误，携带类别和可读原因
type Error struct {
	Kind   ErrorKind
	Reason string
	Err    error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is 按类别匹配，便于 errors.Is(err, engine.ErrWrongPhase)
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrUnauthorized       = &Error{Kind: KindUnauthorized}
	ErrWrongPhase         = &Error{Kind: KindWrongPhase}
	ErrInvalidPhase       = &Error{Kind: KindInvalidPhase}
	ErrAlreadyRegistered  = &Error{Kind: KindAlreadyRegistered}
	ErrAlreadyVoted       = &Error{Kind: KindAlreadyVoted}
	ErrDuplicateProposal  = &Error{Kind: KindDuplicateProposal}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrEmptyValue         = &Error{Kind: KindEmptyValue}
	ErrNoWinningProposal  = &Error{Kind: KindNoWinningProposal}
	ErrGoalReached        = &Error{Kind: KindGoalReached}
	ErrMissingTokenParams = &Error{Kind: KindMissingTokenParams}
	ErrTransferFailed     = &Error{Kind: KindTransferFailed}
	ErrInconsistent       = &Error{Kind: KindInconsistent}
)

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

func wrongPhase(required, actual Phase) *Error {
	return newError(KindWrongPhase, "requires phase %s, current phase is %s", required, actual)
}

// KindOf 取出错误类别，非引擎错误返回空串
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
