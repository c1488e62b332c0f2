package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"greendrake/blast/internal/models"
	"greendrake/blast/internal/services"
)

// ListingHandler handles listing and zip code lookups.
type ListingHandler struct {
	catalog services.ICatalogService
}

func NewListingHandler(catalog services.ICatalogService) *ListingHandler {
	return &ListingHandler{catalog: catalog}
}

// Listings handles GET /api/listings
func (h *ListingHandler) Listings(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Listings())
}

// SearchListings handles GET /api/listings/search?q&agentId&zipCode
func (h *ListingHandler) SearchListings(c *gin.Context) {
	listings := h.catalog.SearchListings(models.ListingFilter{
		Query:   c.Query("q"),
		AgentID: c.Query("agentId"),
		ZipCode: c.Query("zipCode"),
	})
	c.JSON(http.StatusOK, models.ListingSearchResponse{Success: true, Listings: listings, Total: len(listings)})
}

// GetListing handles GET /api/listings/:id
func (h *ListingHandler) GetListing(c *gin.Context) {
	listing, err := h.catalog.Listing(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

// ValidateZipcode handles GET /api/zipcodes/:code/validate. An unknown zip
// code is still a 200 with valid=false.
func (h *ListingHandler) ValidateZipcode(c *gin.Context) {
	zip, ok := h.catalog.ValidateZipcode(c.Param("code"))
	if !ok {
		c.JSON(http.StatusOK, models.ZipcodeValidationResponse{Success: true, Valid: false, Message: services.MsgZipcodeNotFound})
		return
	}
	c.JSON(http.StatusOK, models.ZipcodeValidationResponse{Success: true, Valid: true, Zipcode: &zip})
}
