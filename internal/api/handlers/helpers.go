package handlers

import "net/http"

// pathParam extracts a path parameter registered on the route pattern.
func pathParam(r *http.Request, name string) string {
	return r.PathValue(name)
}
