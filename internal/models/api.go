package models

// Request and response payloads of the /api surface. Field names follow the
// camelCase wire format the web client already speaks.

type VerifyAgentRequest struct {
	MLSID   string `json:"mlsId" binding:"required"`
	AgentID string `json:"agentId" binding:"required"`
}

type VerifyAgentResponse struct {
	Success bool          `json:"success"`
	Agent   *AgentSummary `json:"agent,omitempty"`
	Message string        `json:"message,omitempty"`
}

type SendVerificationCodeRequest struct {
	AgentID string             `json:"agentId" binding:"required"`
	Method  VerificationMethod `json:"method" binding:"required,oneof=email phone"`
}

type SendVerificationCodeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	// Code is only populated when the server runs with code exposure enabled.
	Code string `json:"code,omitempty"`
}

type VerifyCodeRequest struct {
	AgentID string `json:"agentId" binding:"required"`
	Code    string `json:"code" binding:"required"`
}

type VerifyCodeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ListingSearchResponse struct {
	Success  bool      `json:"success"`
	Listings []Listing `json:"listings"`
	Total    int       `json:"total"`
}

type ZipcodeValidationResponse struct {
	Success bool     `json:"success"`
	Valid   bool     `json:"valid"`
	Zipcode *Zipcode `json:"zipcode,omitempty"`
	Message string   `json:"message,omitempty"`
}

type CreateCampaignRequest struct {
	PackageType PackageType `json:"packageType" binding:"required,oneof=zipcode listing"`
	TargetType  PackageType `json:"targetType" binding:"required,oneof=zipcode listing"`
	TargetValue string      `json:"targetValue" binding:"required"`
	Duration    string      `json:"duration" binding:"required"`
	PaymentMode PaymentMode `json:"paymentMode" binding:"required,oneof=onetime recurring"`
	UserID      string      `json:"userId,omitempty"`
}

type CreateCampaignResponse struct {
	Success        bool     `json:"success"`
	Campaign       Campaign `json:"campaign"`
	EstimatedViews int      `json:"estimatedViews"`
}

type PersonalInfo struct {
	FirstName string `json:"firstName" binding:"required" validate:"required"`
	LastName  string `json:"lastName" binding:"required" validate:"required"`
	Email     string `json:"email" binding:"required,email" validate:"required,email"`
}

type PaymentInfo struct {
	PaymentMethod     string `json:"paymentMethod" binding:"required" validate:"required"`
	AccountHolderName string `json:"accountHolderName" binding:"required" validate:"required"`
}

type BillingAddress struct {
	CountryRegion string `json:"countryRegion" binding:"required" validate:"required"`
	Address       string `json:"address" binding:"required" validate:"required"`
}

type CheckoutRequest struct {
	CampaignID     string         `json:"campaignId" binding:"required"`
	PersonalInfo   PersonalInfo   `json:"personalInfo"`
	PaymentInfo    PaymentInfo    `json:"paymentInfo"`
	BillingAddress BillingAddress `json:"billingAddress"`
	TermsAccepted  bool           `json:"termsAccepted"`
}

type CheckoutResponse struct {
	Success           bool           `json:"success"`
	OrderID           string         `json:"orderId"`
	Message           string         `json:"message"`
	CampaignStatus    CampaignStatus `json:"campaignStatus"`
	ConfirmationEmail string         `json:"confirmationEmail"`
}

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}
