// Package shared holds request helpers used by several API features.
package shared

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/codeswitch/internal/app/system/apperr"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ObjectIDParam parses the named chi URL parameter. A malformed id is a
// BadRequest.
func ObjectIDParam(r *http.Request, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		return primitive.NilObjectID, apperr.BadRequest("invalid " + name)
	}
	return id, nil
}

// ParseObjectID parses a hex id supplied in a body field.
func ParseObjectID(field, hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(hex))
	if err != nil {
		return primitive.NilObjectID, apperr.BadRequest("invalid " + field)
	}
	return id, nil
}

// BoolQuery reads a boolean query flag. Missing or unparsable means false.
func BoolQuery(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}

// StringQuery reads and trims a query parameter.
func StringQuery(r *http.Request, name string) string {
	return strings.TrimSpace(r.URL.Query().Get(name))
}
