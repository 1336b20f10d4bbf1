package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"smart-pantry-api/pkg/apierror"
)

// decodeJSON decodes the request body into v. Oversized bodies map to 413,
// anything else unreadable to 400.
func decodeJSON(r *http.Request, v interface{}, useNumber bool) error {
	dec := json.NewDecoder(r.Body)
	if useNumber {
		dec.UseNumber()
	}
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apierror.PayloadTooLarge("")
		}
		return apierror.BadRequest("Invalid JSON body")
	}
	return nil
}
