package api

import (
	"net/http"
	"time"

	"github.com/localpi/pilocal/market"
)

// orEmpty keeps empty lists encoded as [] instead of null.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (a *API) listListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category := q.Get("category")
	if category != "" {
		if errs := a.Val.Validate(category, "oneof=all electronics tech home fashion auto hobby"); len(errs) > 0 {
			a.respond(w, http.StatusBadRequest, map[string]any{"errors": errs})
			return
		}
	}

	listings, err := a.Store.SearchListings(r.Context(), q.Get("q"), category)
	if err != nil {
		a.respondStoreError(w, err, "Could not list listings")
		return
	}

	type response struct {
		Listings []market.Listing `json:"listings"`
	}
	a.respond(w, http.StatusOK, response{Listings: orEmpty(listings)})
}

func (a *API) createListing(w http.ResponseWriter, r *http.Request) {
	type request struct {
		ID             string   `json:"id"`
		Title          string   `json:"title" validate:"required"`
		Price          string   `json:"price" validate:"required,decimal"`
		Description    string   `json:"description"`
		Location       string   `json:"location"`
		Category       string   `json:"category" validate:"omitempty,oneof=electronics tech home fashion auto hobby"`
		Images         []string `json:"images"`
		SellerID       string   `json:"sellerId" validate:"required"`
		SellerName     string   `json:"sellerName"`
		SellerVerified bool     `json:"sellerVerified"`
		SellerRating   float64  `json:"sellerRating" validate:"gte=0,lte=5"`
		Escrow         *bool    `json:"escrow"`
		LocalDelivery  bool     `json:"localDelivery"`
	}
	var body request
	if !a.decodeBody(w, r, &body) {
		return
	}

	l := market.Listing{
		ID:          body.ID,
		Title:       body.Title,
		Price:       body.Price,
		Description: body.Description,
		Location:    body.Location,
		Category:    body.Category,
		Images:      orEmpty(body.Images),
		Seller: market.Seller{
			ID:       body.SellerID,
			Name:     body.SellerName,
			Verified: body.SellerVerified,
			Rating:   body.SellerRating,
		},
		Escrow:        body.Escrow == nil || *body.Escrow,
		LocalDelivery: body.LocalDelivery,
		CreatedAt:     a.now().UTC(),
		LikedBy:       []string{},
	}
	if l.ID == "" {
		l.ID = a.newID()
	}

	if err := a.Store.AddListing(r.Context(), l); err != nil {
		a.respondStoreError(w, err, "Could not create listing")
		return
	}
	a.respond(w, http.StatusCreated, l)
}

func (a *API) deleteListing(w http.ResponseWriter, r *http.Request) {
	if err := a.Store.DeleteListing(r.Context(), r.PathValue("listingID")); err != nil {
		a.respondStoreError(w, err, "Could not delete listing")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) toggleLike(w http.ResponseWriter, r *http.Request) {
	type request struct {
		UserID string `json:"userId" validate:"required"`
	}
	var body request
	if !a.decodeBody(w, r, &body) {
		return
	}

	liked, err := a.Store.ToggleLike(r.Context(), r.PathValue("listingID"), body.UserID)
	if err != nil {
		a.respondStoreError(w, err, "Could not toggle like")
		return
	}

	type response struct {
		Liked bool `json:"liked"`
	}
	a.respond(w, http.StatusOK, response{Liked: liked})
}

func (a *API) isLiked(w http.ResponseWriter, r *http.Request) {
	liked, err := a.Store.IsLiked(r.Context(), r.PathValue("listingID"), r.PathValue("userID"))
	if err != nil {
		a.respondStoreError(w, err, "Could not read like")
		return
	}

	type response struct {
		Liked bool `json:"liked"`
	}
	a.respond(w, http.StatusOK, response{Liked: liked})
}

func (a *API) userListings(w http.ResponseWriter, r *http.Request) {
	listings, err := a.Store.UserListings(r.Context(), r.PathValue("userID"))
	if err != nil {
		a.respondStoreError(w, err, "Could not list user listings")
		return
	}

	type response struct {
		Listings []market.Listing `json:"listings"`
	}
	a.respond(w, http.StatusOK, response{Listings: orEmpty(listings)})
}

// favorites returns the listings liked by the user, or only their ids when
// the ids query parameter is set.
func (a *API) favorites(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("userID")
	if r.URL.Query().Get("ids") != "" {
		ids, err := a.Store.Favorites(r.Context(), userID)
		if err != nil {
			a.respondStoreError(w, err, "Could not list favorites")
			return
		}
		type response struct {
			IDs []string `json:"ids"`
		}
		a.respond(w, http.StatusOK, response{IDs: orEmpty(ids)})
		return
	}

	listings, err := a.Store.FavoriteListings(r.Context(), userID)
	if err != nil {
		a.respondStoreError(w, err, "Could not list favorites")
		return
	}
	type response struct {
		Listings []market.Listing `json:"listings"`
	}
	a.respond(w, http.StatusOK, response{Listings: orEmpty(listings)})
}

func (a *API) stats(w http.ResponseWriter, r *http.Request) {
	st, err := a.Store.Stats(r.Context(), r.PathValue("userID"))
	if err != nil {
		a.respondStoreError(w, err, "Could not read stats")
		return
	}
	a.respond(w, http.StatusOK, st)
}

func (a *API) memberSince(w http.ResponseWriter, r *http.Request) {
	since, err := a.Store.MemberSince(r.Context(), r.PathValue("userID"), a.now())
	if err != nil {
		a.respondStoreError(w, err, "Could not read member date")
		return
	}

	type response struct {
		MemberSince time.Time `json:"memberSince"`
	}
	a.respond(w, http.StatusOK, response{MemberSince: since})
}
