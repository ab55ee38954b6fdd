package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind classifica o erro para o transporte (status HTTP) e para logs
type Kind int

const (
	KindAuthentication Kind = iota + 1
	KindValidation
	KindState
	KindNotFound
	KindExternalService
	KindInvariant
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindValidation:
		return "validation"
	case KindState:
		return "state"
	case KindNotFound:
		return "not_found"
	case KindExternalService:
		return "external_service"
	case KindInvariant:
		return "invariant"
	}
	return "unknown"
}

// Error é o erro de domínio devolvido pelo ledger e pela liquidação.
// Status vem preenchido em erros de estado; Limit ecoa o mínimo/teto da aposta.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Status  MatchStatus
	Limit   *decimal.Decimal
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is casa por Kind e, quando o alvo tem Code, também por Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Code == "" || t.Code == e.Code)
}

var (
	ErrAuthentication  = &Error{Kind: KindAuthentication, Message: "unauthorized"}
	ErrValidation      = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrState           = &Error{Kind: KindState, Message: "invalid state"}
	ErrNotFound        = &Error{Kind: KindNotFound, Message: "not found"}
	ErrExternalService = &Error{Kind: KindExternalService, Message: "external service failed"}
	ErrInvariant       = &Error{Kind: KindInvariant, Message: "invariant violated"}

	ErrBelowMinimum        = &Error{Kind: KindValidation, Code: "below_minimum", Message: "bet below minimum"}
	ErrAboveCeiling        = &Error{Kind: KindValidation, Code: "above_ceiling", Message: "bet above ceiling"}
	ErrInsufficientBalance = &Error{Kind: KindValidation, Code: "insufficient_balance", Message: "insufficient balance"}
	ErrMatchNotOpen        = &Error{Kind: KindState, Code: "match_not_open", Message: "match not open"}
	ErrBettingClosed       = &Error{Kind: KindState, Code: "betting_closed", Message: "betting closed"}
)

func NewValidation(code, msg string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: msg}
}

func NewNotFound(code, msg string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: msg}
}

func NewState(code, msg string, status MatchStatus) *Error {
	return &Error{Kind: KindState, Code: code, Message: msg, Status: status}
}

func NewInvariant(msg string) *Error {
	return &Error{Kind: KindInvariant, Code: "invariant", Message: msg}
}

func NewExternal(msg string, err error) *Error {
	return &Error{Kind: KindExternalService, Code: "external_service", Message: msg, Err: err}
}

// Unauthorized nunca diz qual fator falhou (agente inexistente ou segredo errado)
func Unauthorized() *Error {
	return &Error{Kind: KindAuthentication, Code: "unauthorized", Message: "invalid agent credentials"}
}

// KindOf devolve o Kind do primeiro *Error na cadeia, ou 0
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}
