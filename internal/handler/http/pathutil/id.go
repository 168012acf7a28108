// Package pathutil parses identifiers out of URL paths for handlers that use
// suffix-style routes like /alerts/{id}/send.
package pathutil

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidID is returned when the ID segment of a URL path is invalid.
var ErrInvalidID = errors.New("invalid id")

// ExtractID parses the positive integer ID between prefix and suffix in a
// URL path. Suffix may be empty for plain /resource/{id} routes.
//
//	id, err := ExtractID("/alerts/42/send", "/alerts/", "/send")
func ExtractID(path, prefix, suffix string) (int64, error) {
	idStr := strings.TrimPrefix(path, prefix)
	idStr = strings.TrimSuffix(idStr, suffix)
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}
