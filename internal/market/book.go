package market

import (
	"ritenv/internal/core"
	"sort"

	"github.com/shopspring/decimal"
)

// AggregateBook collapses the raw order book into one level per price,
// carrying the outstanding volume (quantity minus quantity filled) resting
// there. Levels are returned in ascending price order per side.
func AggregateBook(raw core.RawBook) core.Book {
	book := make(core.Book, len(raw))
	for side, quotes := range raw {
		volumes := make(map[string]decimal.Decimal)
		prices := make(map[string]decimal.Decimal)

		for _, q := range quotes {
			key := q.Price.String()
			outstanding := q.Quantity.Sub(q.QuantityFilled)
			volumes[key] = volumes[key].Add(outstanding)
			prices[key] = q.Price
		}

		levels := make([]core.BookLevel, 0, len(volumes))
		for key, vol := range volumes {
			levels = append(levels, core.BookLevel{Price: prices[key], Volume: vol})
		}
		sort.Slice(levels, func(i, j int) bool {
			return levels[i].Price.LessThan(levels[j].Price)
		})
		book[side] = levels
	}
	return book
}
