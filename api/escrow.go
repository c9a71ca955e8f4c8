package api

import (
	"net/http"

	"github.com/localpi/pilocal/market"
)

func (a *API) listEscrow(w http.ResponseWriter, r *http.Request) {
	txs, err := a.Store.EscrowTransactions(r.Context(), r.PathValue("userID"))
	if err != nil {
		a.respondStoreError(w, err, "Could not list escrow transactions")
		return
	}

	type response struct {
		Transactions []market.EscrowTransaction `json:"transactions"`
	}
	a.respond(w, http.StatusOK, response{Transactions: orEmpty(txs)})
}

func (a *API) createEscrow(w http.ResponseWriter, r *http.Request) {
	type request struct {
		ID           string `json:"id"`
		ListingID    string `json:"listingId" validate:"required"`
		ListingTitle string `json:"listingTitle"`
		BuyerID      string `json:"buyerId" validate:"required"`
		SellerID     string `json:"sellerId" validate:"required"`
		Amount       string `json:"amount" validate:"required,decimal"`
		Status       string `json:"status" validate:"omitempty,escrow_status"`
	}
	var body request
	if !a.decodeBody(w, r, &body) {
		return
	}

	tx := market.EscrowTransaction{
		ID:           body.ID,
		ListingID:    body.ListingID,
		ListingTitle: body.ListingTitle,
		BuyerID:      body.BuyerID,
		SellerID:     body.SellerID,
		Amount:       body.Amount,
		Status:       market.EscrowStatus(body.Status),
		CreatedAt:    a.now().UTC(),
	}
	if tx.ID == "" {
		tx.ID = a.newID()
	}
	if tx.Status == "" {
		tx.Status = market.EscrowPending
	}

	if err := a.Store.AddEscrowTransaction(r.Context(), r.PathValue("userID"), tx); err != nil {
		a.respondStoreError(w, err, "Could not create escrow transaction")
		return
	}
	a.respond(w, http.StatusCreated, tx)
}

func (a *API) updateEscrow(w http.ResponseWriter, r *http.Request) {
	type request struct {
		Status string `json:"status" validate:"required,escrow_status"`
	}
	var body request
	if !a.decodeBody(w, r, &body) {
		return
	}

	userID, txID := r.PathValue("userID"), r.PathValue("transactionID")
	if err := a.Store.UpdateEscrowStatus(r.Context(), userID, txID, market.EscrowStatus(body.Status)); err != nil {
		a.respondStoreError(w, err, "Could not update escrow transaction")
		return
	}

	tx, err := a.Store.EscrowTransaction(r.Context(), userID, txID)
	if err != nil {
		a.respondStoreError(w, err, "Could not read escrow transaction")
		return
	}
	a.respond(w, http.StatusOK, tx)
}
