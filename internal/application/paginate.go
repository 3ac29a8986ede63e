package application

import (
	"context"
	"log/slog"
)

// defaultPageSize matches the GitHub REST API maximum per_page value.
const defaultPageSize = 100

// pageFetcher fetches one 1-based page holding at most perPage items.
type pageFetcher[T any] func(ctx context.Context, page, perPage int) ([]T, error)

// collectPages drains a paged listing into one slice in store order. It stops
// at the first page shorter than perPage. A failed page fetch ends collection
// and the items gathered so far are returned as the final result; there is no
// retry. Pages are requested strictly one after another.
func collectPages[T any](ctx context.Context, perPage int, fetch pageFetcher[T]) []T {
	if perPage <= 0 {
		perPage = defaultPageSize
	}

	var all []T
	for page := 1; ; page++ {
		items, err := fetch(ctx, page, perPage)
		if err != nil {
			slog.Warn("listing truncated after page fetch failure",
				"page", page,
				"collected", len(all),
				"error", err,
			)
			return all
		}

		all = append(all, items...)

		if len(items) < perPage {
			return all
		}
	}
}
