package wizard

import "greendrake/blast/internal/models"

// Step names in wizard order.
const (
	StepMLSVerification     = "mls-verification"
	StepAdsPreview          = "ads-preview"
	StepPackageConfirmation = "package-confirmation"
	StepCheckout            = "checkout"
)

// Steps is the ordered step list of the Blast wizard.
var Steps = []string{StepMLSVerification, StepAdsPreview, StepPackageConfirmation, StepCheckout}

// FormData accumulates what each step submits.
type FormData struct {
	// mls-verification
	MLSID              string                    `json:"mlsId,omitempty"`
	AgentID            string                    `json:"agentId,omitempty"`
	AgentRecordID      string                    `json:"agentRecordId,omitempty"`
	AgentName          string                    `json:"agentName,omitempty"`
	AgentEmail         string                    `json:"agentEmail,omitempty"`
	VerificationMethod models.VerificationMethod `json:"verificationMethod,omitempty"`
	AgentVerified      bool                      `json:"agentVerified,omitempty"`

	// ads-preview
	AdPlatform       string `json:"adPlatform,omitempty"`
	AdVariant        int    `json:"adVariant,omitempty"`
	PreviewListingID string `json:"previewListingId,omitempty"`

	// package-confirmation
	PackageType    models.PackageType `json:"packageType,omitempty"`
	ZipCode        string             `json:"zipCode,omitempty"`
	ListingID      string             `json:"listingId,omitempty"`
	DurationID     string             `json:"durationId,omitempty"`
	PaymentMode    models.PaymentMode `json:"paymentMode,omitempty"`
	CampaignID     string             `json:"campaignId,omitempty"`
	TotalCost      float64            `json:"totalCost,omitempty"`
	Taxes          float64            `json:"taxes,omitempty"`
	FinalAmount    float64            `json:"finalAmount,omitempty"`
	EstimatedViews int                `json:"estimatedViews,omitempty"`

	// checkout
	OrderID           string                `json:"orderId,omitempty"`
	ConfirmationEmail string                `json:"confirmationEmail,omitempty"`
	CampaignStatus    models.CampaignStatus `json:"campaignStatus,omitempty"`
}

// ResumeStep is the first step whose output is missing from d.
func ResumeStep(d FormData) int {
	switch {
	case !d.AgentVerified:
		return 0
	case d.AdVariant == 0:
		return 1
	case d.CampaignID == "":
		return 2
	default:
		return 3
	}
}

// Done reports whether checkout has completed.
func (d FormData) Done() bool { return d.OrderID != "" }

// NewBlastCoordinator loads the Blast wizard from store and positions it at
// the first step that still needs input. Earlier steps are marked completed.
func NewBlastCoordinator(store Store) *Coordinator[FormData] {
	c := NewCoordinator(Steps, FormData{}, store)
	for i := ResumeStep(c.Data()); c.CurrentStep() < i; {
		c.Next()
	}
	return c
}
