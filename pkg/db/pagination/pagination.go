// Package pagination implements cursor pagination over (created_at, id)
// keysets. List queries fetch one row past the page size; Trim cuts the
// extra row and turns it into the next page token.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"gorm.io/gorm"
)

const (
	defaultPageSize = 50
	maxPageSize     = 250
)

var ErrInvalidPageToken = errors.New("invalid_page_token")

type Pagination struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size"`
}

// Limit clamps the requested page size to [1, 250], defaulting to 50.
func (p Pagination) Limit() int {
	if p.PageSize <= 0 {
		return defaultPageSize
	}
	if p.PageSize > maxPageSize {
		return maxPageSize
	}
	return p.PageSize
}

type Cursor struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
}

type PageInfo struct {
	NextPageToken string `json:"next_page_token,omitempty"`
	HasMore       bool   `json:"has_more"`
}

func EncodeCursor(cursor Cursor) (string, error) {
	b, err := json.Marshal(cursor)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

func DecodeCursor(token string) (*Cursor, error) {
	b, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, ErrInvalidPageToken
	}
	var cursor Cursor
	if err := json.Unmarshal(b, &cursor); err != nil {
		return nil, ErrInvalidPageToken
	}
	return &cursor, nil
}

// Apply adds the keyset predicate and limit for one page, newest first.
// The limit is one past the page size so the caller can detect more rows.
func Apply(stmt *gorm.DB, page Pagination) (*gorm.DB, error) {
	if token := page.PageToken; token != "" {
		cursor, err := DecodeCursor(token)
		if err != nil {
			return nil, err
		}
		createdAt, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
		if err != nil {
			return nil, ErrInvalidPageToken
		}
		id, err := strconv.ParseInt(cursor.ID, 10, 64)
		if err != nil {
			return nil, ErrInvalidPageToken
		}
		stmt = stmt.Where("created_at < ? OR (created_at = ? AND id < ?)", createdAt, createdAt, id)
	}
	return stmt.Limit(page.Limit() + 1), nil
}

// Trim cuts the probe row fetched past the limit and builds the page info,
// encoding the last kept row as the next cursor.
func Trim[T any](items []T, limit int, cursorOf func(T) Cursor) ([]T, PageInfo) {
	if len(items) <= limit {
		return items, PageInfo{HasMore: false}
	}

	items = items[:limit]
	token, err := EncodeCursor(cursorOf(items[len(items)-1]))
	if err != nil {
		return items, PageInfo{HasMore: true}
	}
	return items, PageInfo{HasMore: true, NextPageToken: token}
}
