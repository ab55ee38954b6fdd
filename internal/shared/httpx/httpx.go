// Package httpx concentra a escrita de JSON e o mapeamento de erros de domínio para HTTP.
package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/agent-bet-arena/internal/domain"
)

// ErrorBody é o corpo de toda resposta de erro
type ErrorBody struct {
	Error   string           `json:"error"`
	Code    string           `json:"code,omitempty"`
	Status  string           `json:"matchStatus,omitempty"`
	Limit   *decimal.Decimal `json:"limit,omitempty"`
	Message string           `json:"message"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// StatusOf traduz o Kind do erro de domínio
func StatusOf(err error) int {
	switch domain.KindOf(err) {
	case domain.KindAuthentication:
		return http.StatusUnauthorized
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindState:
		return http.StatusConflict
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindExternalService:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// WriteError responde o erro; 5xx não vaza detalhes internos
func WriteError(w http.ResponseWriter, log *zap.Logger, err error) {
	status := StatusOf(err)
	var de *domain.Error
	if !errors.As(err, &de) || status == http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err))
		WriteJSON(w, status, ErrorBody{Error: "internal", Message: "internal error"})
		return
	}
	if status >= 500 {
		log.Warn("upstream failure", zap.Error(err))
	}
	WriteJSON(w, status, ErrorBody{
		Error:   de.Kind.String(),
		Code:    de.Code,
		Status:  string(de.Status),
		Limit:   de.Limit,
		Message: de.Message,
	})
}
