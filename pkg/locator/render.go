package locator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/madewith/chatbot/backend/pkg/common"
)

const (
	missingLocationMessage = "Please enable location services so I can find stores near you."
	marketplaceHeader      = "You can also buy these products online:"
	marketplaceSearchURL   = "https://www.amazon.ca/s?k="
	mapSearchURL           = "https://www.google.com/maps/search/?api=1&query="
)

// MapLink deep-links to coord on Google Maps.
func MapLink(coord common.Coordinate) string {
	return mapSearchURL + formatCoordinate(coord)
}

// MarketplaceLink is the online search for product.
func MarketplaceLink(product string) string {
	return marketplaceSearchURL + strings.ReplaceAll(product, " ", "+")
}

func renderMarketplace(b *strings.Builder, products []string) {
	b.WriteString(marketplaceHeader)
	for _, p := range products {
		fmt.Fprintf(b, "\n- %s: %s", p, MarketplaceLink(p))
	}
}

// RenderMissingLocation is the reply when the caller shared no coordinate.
func RenderMissingLocation(products []string) string {
	var b strings.Builder
	b.WriteString(missingLocationMessage)
	b.WriteString("\n\n")
	renderMarketplace(&b, products)
	return b.String()
}

// RenderResults formats one section per product followed by the
// marketplace links.
func RenderResults(results []ProductResult) string {
	var b strings.Builder
	products := make([]string, 0, len(results))

	for _, res := range results {
		products = append(products, res.Product)

		switch {
		case res.Err != nil:
			b.WriteString(describeError(res.Product, res.Err))
		case len(res.Places) == 0:
			fmt.Fprintf(&b, "No nearby places found for %s.", res.Product)
		default:
			fmt.Fprintf(&b, "Stores near you for %s:", res.Product)
			for i, p := range res.Places {
				fmt.Fprintf(&b, "\n%d. %s\n   Address: %s\n   Distance: %s km\n   Status: %s\n   Map: %s",
					i+1,
					p.Name,
					p.Address,
					strconv.FormatFloat(p.DistanceKm, 'f', 2, 64),
					p.Status,
					MapLink(p.Location),
				)
			}
		}
		b.WriteString("\n\n")
	}

	renderMarketplace(&b, products)
	return b.String()
}
