package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pagedInts serves 1..n in pages and fails on failPage (0 disables failure).
func pagedInts(n, failPage int, calls *[]int) pageFetcher[int] {
	return func(_ context.Context, page, perPage int) ([]int, error) {
		*calls = append(*calls, page)
		if page == failPage {
			return nil, errRemote
		}
		var out []int
		for i := (page-1)*perPage + 1; i <= n && len(out) < perPage; i++ {
			out = append(out, i)
		}
		return out, nil
	}
}

func TestCollectPages_ReturnsAllInOrder(t *testing.T) {
	var calls []int
	got := collectPages(context.Background(), 3, pagedInts(7, 0, &calls))

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, got)
	assert.Equal(t, []int{1, 2, 3}, calls)
}

func TestCollectPages_ExactMultipleFetchesTrailingEmptyPage(t *testing.T) {
	var calls []int
	got := collectPages(context.Background(), 3, pagedInts(6, 0, &calls))

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, got)
	assert.Equal(t, []int{1, 2, 3}, calls)
}

func TestCollectPages_FailureTruncatesToEarlierPages(t *testing.T) {
	var calls []int
	got := collectPages(context.Background(), 3, pagedInts(10, 3, &calls))

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, got)
	assert.Equal(t, []int{1, 2, 3}, calls, "no retry and no further pages after a failure")
}

func TestCollectPages_FirstPageFailure(t *testing.T) {
	var calls []int
	got := collectPages(context.Background(), 3, pagedInts(10, 1, &calls))

	assert.Empty(t, got)
	assert.Equal(t, []int{1}, calls)
}

func TestCollectPages_EmptyListing(t *testing.T) {
	var calls []int
	got := collectPages(context.Background(), 3, pagedInts(0, 0, &calls))

	assert.Empty(t, got)
	assert.Equal(t, []int{1}, calls)
}

func TestCollectPages_NonPositivePageSizeUsesDefault(t *testing.T) {
	var sizes []int
	fetch := func(_ context.Context, page, perPage int) ([]int, error) {
		sizes = append(sizes, perPage)
		return nil, nil
	}

	collectPages(context.Background(), 0, fetch)

	require.Len(t, sizes, 1)
	assert.Equal(t, defaultPageSize, sizes[0])
}
