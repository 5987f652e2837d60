package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/secondstrikerr/secondstriker/payments/mpesa"
	"github.com/secondstrikerr/secondstriker/services"
)

type WalletHandler struct {
	walletService *services.WalletService
}

func NewWalletHandler(walletService *services.WalletService) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

func (h *WalletHandler) Balance(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	balance, err := h.walletService.Balance(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"balance": balance}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *WalletHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	transactions, err := h.walletService.Transactions(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"transactions": transactions}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

type walletAmountInput struct {
	Amount int `json:"amount"`
}

func (h *WalletHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input walletAmountInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	transaction, err := h.walletService.Deposit(r.Context(), userID, input.Amount)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusAccepted, jsonResponse{"transaction": transaction}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *WalletHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input walletAmountInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	transaction, err := h.walletService.Withdraw(r.Context(), userID, input.Amount)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusAccepted, jsonResponse{"transaction": transaction}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DepositCallback принимает STK callback от Daraja. Шлюз повторяет доставку,
// поэтому обработка идемпотентна, а ответ всегда 200.
func (h *WalletHandler) DepositCallback(w http.ResponseWriter, r *http.Request) {
	var envelope mpesa.STKCallbackEnvelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.walletService.ConfirmDeposit(r.Context(), envelope.Body.StkCallback); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"ResultCode": 0, "ResultDesc": "Accepted"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *WalletHandler) WithdrawalCallback(w http.ResponseWriter, r *http.Request) {
	var envelope mpesa.B2CResultEnvelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.walletService.ConfirmWithdrawal(r.Context(), envelope.Result); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"ResultCode": 0, "ResultDesc": "Accepted"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
