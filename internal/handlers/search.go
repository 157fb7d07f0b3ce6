package handlers

import (
	"net/http"
	"strings"
)

const searchLimit = 20

// Search runs the query against tokens, collections and users and returns the
// three result sets together.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("q"))
	if term == "" {
		respondError(w, http.StatusBadRequest, "query is required")
		return
	}
	nfts, err := h.nfts.Search(r.Context(), term, searchLimit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "search failed")
		return
	}
	collections, err := h.collections.Search(r.Context(), term, searchLimit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "search failed")
		return
	}
	users, err := h.users.Search(r.Context(), term, searchLimit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "search failed")
		return
	}
	results := make([]map[string]any, 0, len(users))
	for _, user := range users {
		results = append(results, map[string]any{
			"id":       user.ID,
			"username": user.Username,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"nfts":        nfts,
		"collections": collections,
		"users":       results,
	})
}
