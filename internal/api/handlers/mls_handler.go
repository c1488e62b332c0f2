package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"greendrake/blast/internal/models"
	"greendrake/blast/internal/services"
)

// MLSHandler handles provider lookups and agent verification.
type MLSHandler struct {
	catalog      services.ICatalogService
	verification services.IVerificationService
	exposeCodes  bool
}

func NewMLSHandler(catalog services.ICatalogService, verification services.IVerificationService, exposeCodes bool) *MLSHandler {
	return &MLSHandler{catalog: catalog, verification: verification, exposeCodes: exposeCodes}
}

// Providers handles GET /api/mls_providers
func (h *MLSHandler) Providers(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Providers())
}

// Agents handles GET /api/agents?mlsId&q
func (h *MLSHandler) Agents(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Agents(c.Query("mlsId"), c.Query("q")))
}

// VerifyAgent handles POST /api/mls/verify-agent
func (h *MLSHandler) VerifyAgent(c *gin.Context) {
	var req models.VerifyAgentRequest
	if fields, ok := bindJSON(c, &req); !ok {
		respondInvalid(c, msgInvalidRequest, fields)
		return
	}

	agent, err := h.verification.VerifyAgent(c.Request.Context(), req.MLSID, req.AgentID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.VerifyAgentResponse{Success: true, Agent: &agent})
}

// SendVerificationCode handles POST /api/mls/send-verification-code
func (h *MLSHandler) SendVerificationCode(c *gin.Context) {
	var req models.SendVerificationCodeRequest
	if fields, ok := bindJSON(c, &req); !ok {
		respondInvalid(c, msgInvalidRequest, fields)
		return
	}

	code, err := h.verification.SendCode(c.Request.Context(), req.AgentID, req.Method)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := models.SendVerificationCodeResponse{
		Success: true,
		Message: "Verification code sent via " + string(req.Method),
	}
	if h.exposeCodes {
		resp.Code = code
	}
	c.JSON(http.StatusOK, resp)
}

// VerifyCode handles POST /api/mls/verify-code
func (h *MLSHandler) VerifyCode(c *gin.Context) {
	var req models.VerifyCodeRequest
	if fields, ok := bindJSON(c, &req); !ok {
		respondInvalid(c, msgInvalidRequest, fields)
		return
	}

	if err := h.verification.VerifyCode(c.Request.Context(), req.AgentID, req.Code); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.VerifyCodeResponse{Success: true, Message: services.MsgCodeVerified})
}
