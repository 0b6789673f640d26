package handler

import (
	"net/http"
	"strconv"

	"library_lending/internal/common"

	"github.com/go-chi/chi/v5"
)

// pathID reads a positive integer URL parameter. Anything else cannot name a
// stored record, so it is reported as not found.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, common.ErrNotFound
	}
	return id, nil
}
