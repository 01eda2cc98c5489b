package api

import "github.com/velora-shop/storefront-backend/internal/app/model"

var fallbackProducts = []model.Product{
	{
		ID:            "1",
		Name:          "Minimalist Silk Blazer",
		Description:   "A tailored silhouette crafted from 100% mulberry silk. This blazer features structured shoulders and a hidden button closure.",
		NewPrice:      450,
		ComparePrice:  550,
		Image:         "https://images.pexels.com/photos/7622259/pexels-photo-7622259.jpeg?auto=compress&cs=tinysrgb&w=1260&h=750&dpr=2",
		ImagePublicID: "fallback_1",
		Category:      "Women's Fashion",
		NewArrival:    true,
		Quantity:      15,
		Unit:          "piece",
		Sizes:         []string{"M"},
		Status:        model.ProductStatusActive,
		IsFeatured:    true,
	},
	{
		ID:            "2",
		Name:          "Classic Wool Overcoat",
		Description:   "Timeless outerwear designed for durability and warmth. Made from heavy-weight Italian wool with a deep navy hue.",
		NewPrice:      890,
		ComparePrice:  1100,
		Image:         "https://images.pexels.com/photos/9849633/pexels-photo-9849633.jpeg?auto=compress&cs=tinysrgb&w=1260&h=750&dpr=2",
		ImagePublicID: "fallback_2",
		Category:      "Men's Collection",
		NewArrival:    true,
		Quantity:      10,
		Unit:          "piece",
		Sizes:         []string{"xl"},
		Status:        model.ProductStatusActive,
	},
	{
		ID:            "3",
		Name:          "Leather Tote Bag",
		Description:   "Handcrafted pebble-grain leather bag featuring gold-toned hardware and a spacious interior lined with premium suede.",
		NewPrice:      1200,
		ComparePrice:  1500,
		Image:         "https://images.pexels.com/photos/1152077/pexels-photo-1152077.jpeg?auto=compress&cs=tinysrgb&w=1260&h=750&dpr=2",
		ImagePublicID: "fallback_3",
		Category:      "Accessories",
		Quantity:      5,
		Unit:          "piece",
		Sizes:         []string{"M"},
		Status:        model.ProductStatusActive,
		IsFeatured:    true,
	},
}

// FallbackProducts returns a copy of the placeholder catalog shown when the
// live catalog cannot be loaded.
func FallbackProducts() []model.Product {
	out := make([]model.Product, len(fallbackProducts))
	for i, p := range fallbackProducts {
		p.Sizes = append([]string(nil), p.Sizes...)
		out[i] = p
	}
	return out
}

func findFallback(id string) (*model.Product, bool) {
	for _, p := range FallbackProducts() {
		if p.ID == id {
			return &p, true
		}
	}
	return nil, false
}
