package api

import (
	"net/http"

	"github.com/localpi/pilocal/payment"
)

func (a *API) quote(w http.ResponseWriter, r *http.Request) {
	q, err := a.Payments.Quote(r.URL.Query().Get("amount"))
	if err != nil {
		a.respondStoreError(w, err, "Invalid amount")
		return
	}
	a.respond(w, http.StatusOK, q)
}

func (a *API) completePayment(w http.ResponseWriter, r *http.Request) {
	type request struct {
		PaymentID    string `json:"paymentId"`
		TxID         string `json:"txid"`
		ListingID    string `json:"listingId" validate:"required"`
		ListingTitle string `json:"listingTitle"`
		BuyerID      string `json:"buyerId" validate:"required"`
		SellerID     string `json:"sellerId" validate:"required,nefield=BuyerID"`
		Amount       string `json:"amount" validate:"required,decimal"`
	}
	var body request
	if !a.decodeBody(w, r, &body) {
		return
	}

	tx, err := a.Payments.Complete(r.Context(), payment.Completion(body))
	if err != nil {
		a.respondStoreError(w, err, "Could not complete payment")
		return
	}
	a.respond(w, http.StatusCreated, tx)
}
