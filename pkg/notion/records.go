package notion

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

const (
	opQuery   = "query database"
	opCreate  = "create page"
	opUpdate  = "update page"
	opArchive = "archive page"
)

type queryRequest struct {
	PageSize    int    `json:"page_size"`
	StartCursor string `json:"start_cursor,omitempty"`
}

type parentRef struct {
	DatabaseID string `json:"database_id"`
}

type createRequest struct {
	Parent     parentRef `json:"parent"`
	Properties Record    `json:"properties"`
}

type updateRequest struct {
	Properties Record `json:"properties"`
}

type archiveRequest struct {
	Archived bool `json:"archived"`
}

// FetchAll reads every record of the database, following the query cursor
// until the service reports no more results. A pageSize of zero uses
// DefaultPageSize. Records keep their arrival order across pages. On any
// failure no records are returned.
func (c *Client) FetchAll(ctx context.Context, pageSize int) ([]Record, error) {
	pageSize, err := normalizePageSize(pageSize)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0)
	cursor := ""
	for pages := 0; ; pages++ {
		if c.maxPages > 0 && pages == c.maxPages {
			return nil, &PaginationLimitError{MaxPages: c.maxPages, Fetched: len(records)}
		}

		page, err := c.query(ctx, pageSize, cursor)
		if err != nil {
			return nil, err
		}
		records = append(records, page.Results...)

		if !page.HasMore {
			return records, nil
		}
		if strings.TrimSpace(page.NextCursor) == "" {
			return nil, ErrMissingCursor
		}
		cursor = page.NextCursor
	}
}

// FetchPage reads a single query page starting at cursor, or at the beginning
// when cursor is empty.
func (c *Client) FetchPage(ctx context.Context, pageSize int, cursor string) (Page, error) {
	pageSize, err := normalizePageSize(pageSize)
	if err != nil {
		return Page{}, err
	}
	return c.query(ctx, pageSize, strings.TrimSpace(cursor))
}

func (c *Client) query(ctx context.Context, pageSize int, cursor string) (Page, error) {
	var page Page
	path := "/v1/databases/" + url.PathEscape(c.databaseID) + "/query"
	req := queryRequest{PageSize: pageSize, StartCursor: cursor}
	if err := c.do(ctx, opQuery, http.MethodPost, path, req, &page); err != nil {
		return Page{}, err
	}
	return page, nil
}

// Create adds a page to the database with fields as its properties and
// returns the created page.
func (c *Client) Create(ctx context.Context, fields Record) (Record, error) {
	req := createRequest{
		Parent:     parentRef{DatabaseID: c.databaseID},
		Properties: orEmpty(fields),
	}
	var created Record
	if err := c.do(ctx, opCreate, http.MethodPost, "/v1/pages", req, &created); err != nil {
		return nil, err
	}
	return created, nil
}

// Update merges fields into the properties of page id and returns the updated page.
func (c *Client) Update(ctx context.Context, id string, fields Record) (Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrEmptyPageID
	}
	var updated Record
	if err := c.do(ctx, opUpdate, http.MethodPatch, pagePath(id), updateRequest{Properties: orEmpty(fields)}, &updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// SoftDelete archives page id. The page is flagged, not removed.
func (c *Client) SoftDelete(ctx context.Context, id string) (Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrEmptyPageID
	}
	var archived Record
	if err := c.do(ctx, opArchive, http.MethodPatch, pagePath(id), archiveRequest{Archived: true}, &archived); err != nil {
		return nil, err
	}
	return archived, nil
}

func normalizePageSize(n int) (int, error) {
	switch {
	case n == 0:
		return DefaultPageSize, nil
	case n < 0:
		return 0, ErrInvalidPageSize
	default:
		return n, nil
	}
}

func orEmpty(r Record) Record {
	if r == nil {
		return Record{}
	}
	return r
}
