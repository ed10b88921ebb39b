package docstore

import "context"

// PageSize is the page length used when draining a full collection
// scan. The store returns pages; callers loop until a short page
// signals completion.
const PageSize = 100

// ListAll drains every document matching the filters, page by page.
func ListAll(ctx context.Context, c Client, collection string, filters []Filter) ([]Document, error) {
	var all []Document
	var offset int64
	for {
		page, err := c.List(ctx, collection, Query{
			Filters: filters,
			Limit:   PageSize,
			Offset:  offset,
		})
		if err != nil {
			return nil, err
		}
		all = append(all, page.Documents...)
		if len(page.Documents) < PageSize {
			return all, nil
		}
		offset += int64(len(page.Documents))
	}
}
