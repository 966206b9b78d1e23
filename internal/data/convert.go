package data

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/peopledesk/peopledesk/internal/store"
)

// Patch is a partial update: column name to new value.
type Patch map[string]any

// ErrInvalidRecord is returned when a record or patch supplied by a caller
// does not fit the collection's record type.
var ErrInvalidRecord = errors.New("invalid record")

// toRow converts a record into a column map using its JSON field names.
// Zero-valued fields tagged omitempty or omitzero are left out.
func toRow[R any](rec R) (store.Row, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	row := store.Row{}
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, fmt.Errorf("record is not an object: %w", err)
	}
	return row, nil
}

// fromRow decodes a stored row into a record. A row that does not fit the
// record type is reported as store.ErrMalformedRow.
func fromRow[R any](row store.Row) (R, error) {
	rec, err := decodeRow[R](row)
	if err != nil {
		return rec, fmt.Errorf("%w: %w", store.ErrMalformedRow, err)
	}
	return rec, nil
}

// fromInput decodes a row built from caller input. A row that does not fit
// the record type is reported as ErrInvalidRecord.
func fromInput[R any](row store.Row) (R, error) {
	rec, err := decodeRow[R](row)
	if err != nil {
		return rec, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return rec, nil
}

func decodeRow[R any](row store.Row) (R, error) {
	var rec R
	raw, err := json.Marshal(row)
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, err
	}
	return rec, nil
}

func fromRows[R any](rows []store.Row) ([]R, error) {
	out := make([]R, 0, len(rows))
	for _, row := range rows {
		rec, err := fromRow[R](row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// normalizePatch copies p, rendering time values as stored timestamps so all
// backends persist them in the same text form.
func normalizePatch(p Patch) store.Row {
	row := make(store.Row, len(p))
	maps.Copy(row, p)
	for k, v := range row {
		switch t := v.(type) {
		case time.Time:
			row[k] = Timestamp(t)
		case *time.Time:
			if t == nil {
				row[k] = nil
			} else {
				row[k] = Timestamp(*t)
			}
		}
	}
	return row
}
