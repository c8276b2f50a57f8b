package query

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"roster/internal/apperr"
	"roster/internal/loader"
	"roster/internal/model"
)

const cursorPrefix = "employee:"

// CursorCodec turns records into opaque cursors and back into positions.
// A cursor carries only the record id; the ordering key is looked up when the
// cursor is used, so it stays valid if the sort field changes between pages.
type CursorCodec struct{}

// Encode returns the cursor of rec.
func (CursorCodec) Encode(rec *model.Employee) string {
	return base64.StdEncoding.EncodeToString([]byte(cursorPrefix + rec.ID))
}

// Decode extracts the record id from a cursor.
func (CursorCodec) Decode(cursor string) (string, error) {
	b, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return "", apperr.Validation("invalid cursor", err.Error())
	}
	id, ok := strings.CutPrefix(string(b), cursorPrefix)
	if !ok || id == "" {
		return "", apperr.Validation("invalid cursor")
	}
	return id, nil
}

// Resolve maps cursor to its position under spec. A cursor whose record has
// since been deleted resolves to nil, which callers treat as "no bound".
func (c CursorCodec) Resolve(ctx context.Context, records *loader.Loader[model.Employee], cursor string, spec Spec) (*Position, error) {
	id, err := c.Decode(cursor)
	if err != nil {
		return nil, err
	}
	rec, err := records.Load(ctx, id)
	if err != nil {
		return nil, apperr.Store("resolve cursor", err)
	}
	if rec == nil {
		return nil, nil
	}
	v, ok := rec.Field(spec.Sort.Field)
	if !ok {
		return nil, apperr.Store("resolve cursor", fmt.Errorf("unknown sort field %q", spec.Sort.Field))
	}
	return &Position{ID: rec.ID, Value: v}, nil
}
