package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"propmarket-go/models"
)

// parseFilter reads search parameters from the query string. Malformed
// numbers are reported rather than ignored.
func parseFilter(r *http.Request) (models.PropertyFilter, string) {
	q := r.URL.Query()
	filter := models.PropertyFilter{
		Search:       q.Get("search"),
		City:         q.Get("city"),
		ListingType:  q.Get("listingType"),
		PropertyType: q.Get("propertyType"),
		Sort:         q.Get("sort"),
		Page:         queryInt(r, "page"),
		Limit:        queryInt(r, "limit"),
	}

	for key, dst := range map[string]**float64{"minPrice": &filter.MinPrice, "maxPrice": &filter.MaxPrice} {
		if raw := q.Get(key); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return filter, key + " must be a number"
			}
			*dst = &v
		}
	}
	for key, dst := range map[string]**int{"bedrooms": &filter.Bedrooms, "bathrooms": &filter.Bathrooms} {
		if raw := q.Get(key); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil {
				return filter, key + " must be a whole number"
			}
			*dst = &v
		}
	}
	return filter, ""
}

func (h *Handlers) SearchProperties(w http.ResponseWriter, r *http.Request) {
	filter, problem := parseFilter(r)
	if problem != "" {
		h.badRequest(w, problem)
		return
	}
	page, err := h.properties.Search(r.Context(), filter)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *Handlers) FeaturedProperties(w http.ResponseWriter, r *http.Request) {
	properties, err := h.properties.Featured(r.Context(), queryInt(r, "limit"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, properties)
}

func (h *Handlers) GetProperty(w http.ResponseWriter, r *http.Request) {
	property, err := h.properties.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, property)
}

func (h *Handlers) CreateProperty(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var in models.PropertyInput
	if err := decodeJSON(r, &in); err != nil {
		h.badRequest(w, "Invalid request body")
		return
	}

	property, err := h.properties.Create(r.Context(), userID, in)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, property)
}

func (h *Handlers) UpdateProperty(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var in models.PropertyInput
	if err := decodeJSON(r, &in); err != nil {
		h.badRequest(w, "Invalid request body")
		return
	}

	property, err := h.properties.Update(r.Context(), mux.Vars(r)["id"], userID, in)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, property)
}

func (h *Handlers) UpdatePropertyStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	var req models.PropertyStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		h.badRequest(w, "Invalid request body")
		return
	}

	property, err := h.properties.MarkClosed(r.Context(), mux.Vars(r)["id"], userID, req.Status)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, property)
}

func (h *Handlers) DeleteProperty(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	if err := h.properties.Delete(r.Context(), id, userID); err != nil {
		h.handleError(w, r, err)
		return
	}
	h.logAudit(r, userID, "DELETE", "PROPERTY", id, "Listing deleted")
	respondMessage(w, http.StatusOK, "Property deleted")
}

func (h *Handlers) MyListings(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}
	properties, err := h.properties.MyListings(r.Context(), userID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, properties)
}
