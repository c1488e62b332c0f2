package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"greendrake/blast/internal/models"
	"greendrake/blast/internal/services"
)

// CampaignHandler handles packages, durations, campaigns and checkout.
type CampaignHandler struct {
	catalog   services.ICatalogService
	campaigns services.ICampaignService
	checkout  services.ICheckoutService
}

func NewCampaignHandler(catalog services.ICatalogService, campaigns services.ICampaignService, checkout services.ICheckoutService) *CampaignHandler {
	return &CampaignHandler{catalog: catalog, campaigns: campaigns, checkout: checkout}
}

// Packages handles GET /api/packages
func (h *CampaignHandler) Packages(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Packages())
}

// Durations handles GET /api/campaign_durations
func (h *CampaignHandler) Durations(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Durations())
}

// CreateCampaign handles POST /api/campaigns/create
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var req models.CreateCampaignRequest
	if fields, ok := bindJSON(c, &req); !ok {
		respondInvalid(c, msgInvalidRequest, fields)
		return
	}

	campaign, views, err := h.campaigns.CreateCampaign(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.CreateCampaignResponse{Success: true, Campaign: campaign, EstimatedViews: views})
}

// ProcessCheckout handles POST /api/checkout/process
func (h *CampaignHandler) ProcessCheckout(c *gin.Context) {
	var req models.CheckoutRequest
	if fields, ok := bindJSON(c, &req); !ok {
		// Unaccepted terms are reported first, the field list still comes along.
		msg := msgInvalidRequest
		if !req.TermsAccepted {
			msg = services.MsgTermsNotAccepted
		}
		respondInvalid(c, msg, fields)
		return
	}

	order, status, err := h.checkout.ProcessCheckout(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.CheckoutResponse{
		Success:           true,
		OrderID:           order.ID,
		Message:           services.MsgPaymentProcessed,
		CampaignStatus:    status,
		ConfirmationEmail: order.ConfirmationEmail,
	})
}
