package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"vetadmin/internal/metrics"
	"vetadmin/internal/records"
)

func (c *Client) tableURL(table records.Table) string {
	return fmt.Sprintf("%s/admin/%s", c.baseURL, url.PathEscape(table.String()))
}

// getPage reads one page of table into out, through the cache when configured.
func (c *Client) getPage(ctx context.Context, table records.Table, page, limit int, out any) error {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	key := pageCacheKey(table.String(), page, limit)
	if c.readCache(ctx, key, out) {
		return nil
	}

	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	q.Set("limit", fmt.Sprint(limit))
	endpoint := c.tableURL(table) + "?" + q.Encode()
	if err := c.doJSON(ctx, table.String(), http.MethodGet, endpoint, nil, out); err != nil {
		return fmt.Errorf("fetch %s page %d: %w", table, page, err)
	}
	c.writeCache(ctx, key, out)
	return nil
}

func tableOf[T records.Record]() records.Table {
	var zero T
	return zero.Table()
}

// List fetches one page of T's table.
func List[T records.Record](ctx context.Context, c *Client, page, limit int) (*records.Page[T], error) {
	var out records.Page[T]
	if err := c.getPage(ctx, tableOf[T](), page, limit, &out); err != nil {
		return nil, err
	}
	if out.Data == nil {
		out.Data = []T{}
	}
	return &out, nil
}

// FetchAll fetches T's table up to the configured fetch limit, or every page
// when the client is exhaustive. A capped result is a normal outcome.
func FetchAll[T records.Record](ctx context.Context, c *Client) ([]T, error) {
	return fetchPages[T](ctx, c, c.exhaustive)
}

// FetchEvery walks every page of T's table whatever the client's setting.
// Callers that decide on the full row set, such as slot toggles, use it.
func FetchEvery[T records.Record](ctx context.Context, c *Client) ([]T, error) {
	return fetchPages[T](ctx, c, true)
}

// fetchPages counts pages locally; the page number echoed by the backend is
// not trusted.
func fetchPages[T records.Record](ctx context.Context, c *Client, all bool) ([]T, error) {
	first, err := List[T](ctx, c, 1, c.fetchLimit)
	if err != nil {
		return nil, err
	}
	rows := first.Data
	if !all {
		return rows, nil
	}
	for p := 2; p <= first.Pagination.TotalPages; p++ {
		page, err := List[T](ctx, c, p, c.fetchLimit)
		if err != nil {
			return nil, err
		}
		if len(page.Data) == 0 {
			break
		}
		rows = append(rows, page.Data...)
	}
	return rows, nil
}

// Count returns the table's total row count from a one-row page.
func (c *Client) Count(ctx context.Context, table records.Table) (int, error) {
	var page records.Page[json.RawMessage]
	if err := c.getPage(ctx, table, 1, 1, &page); err != nil {
		return 0, err
	}
	return page.Pagination.Total, nil
}

// Create inserts body into T's table and returns the created row.
func Create[T records.Record](ctx context.Context, c *Client, body any) (T, error) {
	table := tableOf[T]()
	var out T
	if err := c.doJSON(ctx, table.String(), http.MethodPost, c.tableURL(table), body, &out); err != nil {
		return out, fmt.Errorf("create %s: %w", table, err)
	}
	c.invalidate(ctx, table.String())
	metrics.IncMutation(table.String(), "create")
	return out, nil
}

// Update applies a partial update to row id of T's table.
func Update[T records.Record](ctx context.Context, c *Client, id int64, body any) (T, error) {
	table := tableOf[T]()
	var out T
	endpoint := fmt.Sprintf("%s/%d", c.tableURL(table), id)
	if err := c.doJSON(ctx, table.String(), http.MethodPut, endpoint, body, &out); err != nil {
		return out, fmt.Errorf("update %s %d: %w", table, id, err)
	}
	c.invalidate(ctx, table.String())
	metrics.IncMutation(table.String(), "update")
	return out, nil
}

// Delete removes rows by id from table in one request.
func (c *Client) Delete(ctx context.Context, table records.Table, ids []int64) (*records.DeleteResult, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("delete %s: no ids", table)
	}
	body := struct {
		IDs []int64 `json:"ids"`
	}{IDs: ids}
	var out records.DeleteResult
	if err := c.doJSON(ctx, table.String(), http.MethodDelete, c.tableURL(table), body, &out); err != nil {
		return nil, fmt.Errorf("delete %s: %w", table, err)
	}
	c.invalidate(ctx, table.String())
	metrics.IncMutation(table.String(), "delete")
	return &out, nil
}
