package articles

import "github.com/mmcdole/gofeed"

// idCandidates are the identity fields considered, highest priority
// first. A candidate survives only while it is present and non-empty on
// every item observed.
var idCandidates = []string{"guid", "pubdate", "title", "link"}

// idResolver observes raw items one at a time and chooses a single
// identity field for the whole batch.
type idResolver struct {
	eliminated map[string]bool
}

func newIDResolver() *idResolver {
	return &idResolver{eliminated: make(map[string]bool)}
}

// observe eliminates candidates the item lacks.
func (r *idResolver) observe(item *gofeed.Item) {
	for _, c := range idCandidates {
		if !r.eliminated[c] && itemIDValue(item, c) == "" {
			r.eliminated[c] = true
		}
	}
}

// resolve returns the highest-priority surviving candidate, or
// ErrNoIDType when nothing survived.
func (r *idResolver) resolve() (string, error) {
	for _, c := range idCandidates {
		if !r.eliminated[c] {
			return c, nil
		}
	}
	return "", ErrNoIDType
}

// itemIDValue stringifies an item's candidate field. Dates use their wire
// form so the same article yields the same id across polls.
func itemIDValue(item *gofeed.Item, candidate string) string {
	switch candidate {
	case "guid":
		return item.GUID
	case "pubdate":
		return item.Published
	case "title":
		return item.Title
	case "link":
		return item.Link
	}
	return ""
}
