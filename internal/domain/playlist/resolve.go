package playlist

import (
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

// ErrNoMatch is returned when no playlist name matches a query.
var ErrNoMatch = errors.New("no matching playlist")

// Resolve picks the playlist name best matching query.
// An exact name wins, then a case-insensitive one, then the closest fuzzy match.
func Resolve(names []string, query string) (string, error) {
	for _, name := range names {
		if name == query {
			return name, nil
		}
	}
	for _, name := range names {
		if strings.EqualFold(name, query) {
			return name, nil
		}
	}

	ranks := fuzzy.RankFindFold(query, names)
	if len(ranks) == 0 {
		return "", errors.Wrapf(ErrNoMatch, "query %q", query)
	}
	sort.Stable(ranks)
	return ranks[0].Target, nil
}
