package store

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/lanchecard/canteen-api/internal/apperror"
	"github.com/lanchecard/canteen-api/internal/models"
)

// OrderPage is one keyset page of orders, newest first.
type OrderPage struct {
	Orders     []models.Order
	NextCursor string
	HasMore    bool
}

type OrderCursor struct {
	CreatedAt time.Time `json:"created_at"`
	ID        int64     `json:"id"`
}

func EncodeCursor(cursor OrderCursor) string {
	data, err := json.Marshal(cursor)
	if err != nil {
		return ""
	}
	return base64.URLEncoding.EncodeToString(data)
}

func DecodeCursor(encoded string) (OrderCursor, error) {
	var cursor OrderCursor

	data, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return cursor, apperror.Validation("invalid cursor")
	}

	if err := json.Unmarshal(data, &cursor); err != nil || cursor.ID <= 0 {
		return cursor, apperror.Validation("invalid cursor")
	}

	return cursor, nil
}
