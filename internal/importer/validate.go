package importer

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"smart-pantry-api/internal/model"
)

// Rejection reasons reported back to the client.
const (
	reasonMissingFields  = "Missing required fields (name, quantity, or categoryName)"
	reasonInvalidQty     = "Invalid quantity (must be a non-negative integer)"
	reasonInvalidExpDate = "Invalid expiration date (expected YYYY-MM-DD or RFC 3339)"
)

// candidate is a record that passed structural validation.
type candidate struct {
	index          int
	record         model.RawImportRecord
	name           string
	quantity       int
	categoryName   string
	expirationDate *time.Time
}

// validate partitions records into candidates and rejections, both in input order.
func validate(records []model.RawImportRecord) ([]candidate, []model.ImportError) {
	candidates := make([]candidate, 0, len(records))
	var rejected []model.ImportError

	for i, rec := range records {
		reject := func(kind model.ImportErrorKind, reason string) {
			rejected = append(rejected, model.ImportError{Index: i, Item: rec, Kind: kind, Reason: reason})
		}

		name, nameOK := rec["name"].(string)
		categoryName, catOK := rec["categoryName"].(string)
		if !nameOK || name == "" || !catOK || categoryName == "" || !truthy(rec["quantity"]) {
			reject(model.MissingField, reasonMissingFields)
			continue
		}

		quantity, ok := coerceQuantity(rec["quantity"])
		if !ok {
			reject(model.InvalidQuantity, reasonInvalidQty)
			continue
		}

		expiration, ok := coerceDate(rec["expirationDate"])
		if !ok {
			reject(model.InvalidExpirationDate, reasonInvalidExpDate)
			continue
		}

		candidates = append(candidates, candidate{
			index:          i,
			record:         rec,
			name:           name,
			quantity:       quantity,
			categoryName:   categoryName,
			expirationDate: expiration,
		})
	}

	return candidates, rejected
}

// truthy reports whether v counts as present: not nil, "", false or numeric zero.
func truthy(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case json.Number:
		f, err := x.Float64()
		return err != nil || f != 0
	case float64:
		return x != 0 && !math.IsNaN(x)
	case float32:
		return x != 0
	case int:
		return x != 0
	case int64:
		return x != 0
	case int32:
		return x != 0
	}
	return true
}

// coerceQuantity converts a textual or numeric quantity into a non-negative int.
func coerceQuantity(v interface{}) (int, bool) {
	var n int64
	switch x := v.(type) {
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return 0, false
		}
		n = parsed
	case json.Number:
		if parsed, err := x.Int64(); err == nil {
			n = parsed
		} else {
			f, err := x.Float64()
			if err != nil {
				return 0, false
			}
			return integral(f)
		}
	case float64:
		return integral(x)
	case float32:
		return integral(float64(x))
	case int:
		n = int64(x)
	case int64:
		n = x
	case int32:
		n = int64(x)
	default:
		return 0, false
	}

	if n < 0 || n > math.MaxInt32 {
		return 0, false
	}
	return int(n), true
}

func integral(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f < 0 || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// coerceDate treats nil and "" as no date; anything else must parse.
func coerceDate(v interface{}) (*time.Time, bool) {
	switch x := v.(type) {
	case nil:
		return nil, true
	case string:
		t, err := model.ParseDate(x)
		if err != nil {
			return nil, false
		}
		return t, true
	}
	return nil, false
}
