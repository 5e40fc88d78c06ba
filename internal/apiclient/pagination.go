package apiclient

import (
	"context"

	"github.com/marcus/giftwell/internal/models"
)

// maxPages bounds ListAll against a server that never clears has_more.
const maxPages = 1000

// ListAll walks a cursor-paginated endpoint and returns every item.
//
//	people, err := apiclient.ListAll(ctx, func(ctx context.Context, cursor string) (*models.Page[models.Person], error) {
//		return c.ListPersons(ctx, models.PersonFilter{PageParams: models.PageParams{Cursor: cursor}})
//	})
func ListAll[T any](ctx context.Context, fetch func(ctx context.Context, cursor string) (*models.Page[T], error)) ([]T, error) {
	var (
		all    []T
		cursor string
	)
	for i := 0; i < maxPages; i++ {
		page, err := fetch(ctx, cursor)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if !page.HasMore || page.NextCursor == "" || page.NextCursor == cursor {
			break
		}
		cursor = page.NextCursor
	}
	return all, nil
}
