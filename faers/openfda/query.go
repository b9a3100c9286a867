package openfda

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "20060102"

// SearchQuery builds the openFDA search expression for pediatric reports
// (onset age 0 to 17) naming drug, received within [start, end].
func SearchQuery(drug string, start, end time.Time) string {
	return fmt.Sprintf(`patient.drug.medicinalproduct:"%s"+AND+receiptdate:[%s+TO+%s]+AND+patient.patientonsetage:[0+TO+17]`,
		strings.ToLower(strings.TrimSpace(drug)),
		start.Format(dateLayout),
		end.Format(dateLayout))
}

// searchEscaper encodes the characters of a search expression that are not
// URL-safe while keeping '+' as the openFDA term separator.
var searchEscaper = strings.NewReplacer(
	`"`, "%22",
	"[", "%5B",
	"]", "%5D",
	" ", "+",
	"&", "%26",
	"#", "%23",
)

// pageRequest is one limit/skip slice of the overall report limit.
type pageRequest struct {
	index int
	skip  int
	limit int
}

// planPages splits total into pages of at most size, in skip order.
func planPages(total, size int) []pageRequest {
	pages := make([]pageRequest, 0, (total+size-1)/size)
	for skip := 0; skip < total; skip += size {
		pages = append(pages, pageRequest{
			index: len(pages),
			skip:  skip,
			limit: min(size, total-skip),
		})
	}
	return pages
}
