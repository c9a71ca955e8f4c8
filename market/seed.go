package market

import (
	"context"
	"fmt"
	"time"
)

type seedListing struct {
	id, title, price, location, image, seller, category string
	verified, localDelivery                                bool
	rating                                                 float64
}

var defaultListings = []seedListing{
	{"1", "iPhone 14 Pro Max 256GB", "425", "Paris 15ème", "/products/iphone-14-pro-max.jpg", "Marie L.", "electronics", true, true, 4.9},
	{"2", "MacBook Pro M2 16 pouces", "1050", "Lyon 6ème", "/products/macbook-pro-m2.jpg", "Thomas B.", "tech", true, true, 5.0},
	{"3", "Nintendo Switch OLED + jeux", "140", "Marseille 8ème", "/products/nintendo-switch-oled.jpg", "Sophie M.", "hobby", true, true, 4.8},
	{"4", "AirPods Pro 2ème génération", "98", "Paris 11ème", "/products/airpods-pro-2.jpg", "Lucas D.", "electronics", true, false, 4.9},
	{"5", "iPad Air 5 64GB Wi-Fi", "240", "Toulouse Centre", "/products/ipad-air-5.jpg", "Emma R.", "tech", true, true, 5.0},
	{"6", "Sony WH-1000XM5 Noir", "160", "Nice Port", "/products/sony-wh1000xm5.jpg", "Pierre K.", "electronics", true, false, 4.7},
	{"7", "Canapé 3 places gris", "180", "Bordeaux Centre", "/products/sofa-gray.jpg", "Julie P.", "home", true, true, 4.9},
	{"8", "Veste en cuir homme L", "75", "Nantes Gare", "/products/leather-jacket.jpg", "Marc T.", "fashion", true, true, 4.8},
	{"9", "Pneus Michelin 205/55R16", "120", "Lille Sud", "/products/michelin-tires.jpg", "Jean V.", "auto", true, false, 5.0},
	{"10", "Guitare électrique Fender", "320", "Montpellier", "/products/fender-guitar.jpg", "Alex M.", "hobby", true, true, 4.9},
}

// SeedDefaults stores the default catalogue if no listing exists yet. It
// reports how many listings were added.
func (s *Store) SeedDefaults(ctx context.Context, now time.Time) (int, error) {
	added := 0
	err := s.Listings().Mutate(ctx, func(recs []Listing) ([]Listing, error) {
		added = 0
		if len(recs) > 0 {
			return nil, errUnchanged
		}
		out := make([]Listing, 0, len(defaultListings))
		// Each default is prepended, so the last one ends up first.
		for i := len(defaultListings) - 1; i >= 0; i-- {
			d := defaultListings[i]
			out = append(out, Listing{
				ID:          d.id,
				Title:       d.title,
				Price:       d.price,
				Description: "Description de " + d.title,
				Location:    d.location,
				Category:    d.category,
				Images:      []string{d.image},
				Seller: Seller{
					ID:       d.seller,
					Name:     d.seller,
					Verified: d.verified,
					Rating:   d.rating,
				},
				Escrow:        true,
				LocalDelivery: d.localDelivery,
				CreatedAt:     now.UTC(),
				LikedBy:       []string{},
			})
		}
		added = len(out)
		return out, nil
	})
	if err != nil {
		return 0, fmt.Errorf("seed listings: %w", err)
	}
	if added > 0 {
		s.logger.Info("Seeded default listings", "count", added)
	}
	return added, nil
}
