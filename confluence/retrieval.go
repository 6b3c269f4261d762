package confluence

import (
	"context"
	"fmt"
)

// DefaultPageLimit is the page size we request when walking a collection.  The
// server may clamp it; termination never depends on the exact value.
const DefaultPageLimit = 50

// ListAllPagesInSpace walks the paginated content listing for one space and
// returns every current page, in listing order.
//
// The total-size fields in the response are not trusted: the only
// end-of-results signal honoured is a response carrying fewer results than we
// asked for (or none at all).  Results are deduplicated by ID in case the
// collection shifts under us mid-walk.
func (api *API) ListAllPagesInSpace(ctx context.Context, spaceKey string, limit int) ([]Page, error) {
	if spaceKey == "" {
		return nil, fmt.Errorf("confluence: please provide a space key to list pages")
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}

	pages := []Page{}
	seen := map[string]bool{}
	start := 0

	for {
		res, err := api.GetContent(ctx, ContentQuery{
			SpaceKey: spaceKey,
			Type:     "page",
			Status:   "current",
			Start:    start,
			Limit:    limit,
			Expand:   []string{"version"},
		})
		if err != nil {
			return nil, fmt.Errorf("confluence: couldn't list pages in %s: %w", spaceKey, err)
		}

		for _, p := range res.Results {
			if seen[p.ID] {
				// pagination drift: the server handed us a page twice.
				continue
			}
			seen[p.ID] = true
			p.SpaceKey = spaceKey
			pages = append(pages, p)
		}

		// The server may clamp our limit; its echo of the limit it applied is
		// the page size to compare against.
		applied := res.Limit
		if applied <= 0 || applied > limit {
			applied = limit
		}
		if len(res.Results) < applied {
			break
		}

		start += len(res.Results)
	}

	return pages, nil
}

// ListAllSpaces walks the paginated space listing.  Personal spaces are
// excluded unless includePersonal is set; leaving the type filter empty gives
// us everything, so we only set it when we do _not_ want personal spaces.
func (api *API) ListAllSpaces(ctx context.Context, includePersonal bool) ([]Space, error) {
	query := SpacesQuery{
		Limit: DefaultPageLimit,
	}
	if !includePersonal {
		query.Type = "global"
	}

	spaces := []Space{}
	seen := map[string]bool{}

	for {
		res, err := api.GetSpaces(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("confluence: couldn't list spaces: %w", err)
		}

		for _, s := range res.Results {
			if seen[s.Key] {
				continue
			}
			seen[s.Key] = true
			spaces = append(spaces, s)
		}

		applied := res.Limit
		if applied <= 0 || applied > query.Limit {
			applied = query.Limit
		}
		if len(res.Results) < applied {
			break
		}

		query.Start += len(res.Results)
	}

	return spaces, nil
}
