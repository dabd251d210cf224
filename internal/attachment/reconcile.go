package attachment

import "github.com/sirupsen/logrus"

// OrderSource identifies where a final order came from
type OrderSource string

const (
	OrderFromIndex   OrderSource = "index"    // index record matched at least one attachment
	OrderFromListing OrderSource = "listing"  // no index record or it held no paths
	OrderFallback    OrderSource = "fallback" // index paths matched nothing
)

// Reconciliation is the outcome of ordering a validated set against index paths
type Reconciliation struct {
	Order     []Attachment
	Source    OrderSource
	Unmatched []string // index paths with no validated attachment
	Unindexed []string // validated attachments the index does not mention, appended after the indexed ones
}

// Reconcile orders the validated set by the index paths.
//
// Index paths without a matching attachment are skipped and reported in
// Unmatched. Repeated paths only place the attachment once. Attachments the
// index does not mention follow the indexed ones in listing order, so every
// validated attachment appears exactly once. When nothing matches, the
// listing order is used as a whole.
func Reconcile(set *Set, ordered []string, logger logrus.FieldLogger) Reconciliation {
	if len(ordered) == 0 {
		return Reconciliation{Order: set.Ordered(), Source: OrderFromListing}
	}

	result := Reconciliation{Source: OrderFromIndex}
	placed := make(map[string]bool, set.Len())
	for _, path := range ordered {
		att, ok := set.Get(path)
		if !ok {
			logger.WithField("path", path).Warn("Index references an attachment that is not a PDF in the archive")
			result.Unmatched = append(result.Unmatched, path)
			continue
		}
		if placed[path] {
			continue
		}
		placed[path] = true
		result.Order = append(result.Order, att)
	}

	if len(result.Order) == 0 {
		logger.WithField("index_paths", len(ordered)).
			Warn("No index paths matched any attachment, using archive order")
		result.Order = set.Ordered()
		result.Source = OrderFallback
		return result
	}

	for _, att := range set.Ordered() {
		if placed[att.Path] {
			continue
		}
		logger.WithField("path", att.Path).Warn("Attachment is missing from the index, appending it after the indexed ones")
		result.Unindexed = append(result.Unindexed, att.Path)
		result.Order = append(result.Order, att)
	}
	return result
}
