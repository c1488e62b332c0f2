package models

import "time"

// PackageType is the kind of target a package advertises against.
type PackageType string

const (
	PackageTypeZipcode PackageType = "zipcode"
	PackageTypeListing PackageType = "listing"
)

// Valid reports whether t is a known package type.
func (t PackageType) Valid() bool {
	return t == PackageTypeZipcode || t == PackageTypeListing
}

// PaymentMode selects between a single charge and a recurring one.
type PaymentMode string

const (
	PaymentModeOneTime   PaymentMode = "onetime"
	PaymentModeRecurring PaymentMode = "recurring"
)

// Valid reports whether m is a known payment mode.
func (m PaymentMode) Valid() bool {
	return m == PaymentModeOneTime || m == PaymentModeRecurring
}

// Label is the human readable name used by the wizard.
func (m PaymentMode) Label() string {
	if m == PaymentModeRecurring {
		return "Recurring Charge"
	}
	return "One-time Charge"
}

// CampaignStatus is the lifecycle state of a campaign.
type CampaignStatus string

const (
	CampaignStatusPending CampaignStatus = "pending"
	CampaignStatusActive  CampaignStatus = "active"
)

// Package is a purchasable advertising product.
type Package struct {
	ID          string      `bson:"id" json:"id"`
	Name        string      `bson:"name" json:"name"`
	Type        PackageType `bson:"type" json:"type"`
	Price       float64     `bson:"price" json:"price"`
	Period      string      `bson:"period" json:"period"`
	Description string      `bson:"description" json:"description"`
	Features    []string    `bson:"features" json:"features"`
}

// CampaignDuration is a selectable campaign length.
type CampaignDuration struct {
	ID             string `bson:"id" json:"id"`
	Label          string `bson:"label" json:"label"`
	Weeks          int    `bson:"weeks" json:"weeks"`
	EstimatedViews int    `bson:"estimatedViews" json:"estimatedViews"`
	Progress       int    `bson:"progress" json:"progress"`
}

// Campaign is a configured, not yet paid (pending) or paid (active) advertisement.
type Campaign struct {
	ID          string         `json:"id"`
	UserID      string         `json:"userId"`
	PackageID   string         `json:"packageId"`
	TargetType  PackageType    `json:"targetType"`
	TargetValue string         `json:"targetValue"`
	Duration    string         `json:"duration"`
	PaymentMode PaymentMode    `json:"paymentMode"`
	Status      CampaignStatus `json:"status"`
	CreatedAt   time.Time      `json:"createdAt"`
	TotalCost   float64        `json:"totalCost"`
	Taxes       float64        `json:"taxes"`
	FinalAmount float64        `json:"finalAmount"`
}

// Order is the receipt of a processed checkout.
type Order struct {
	ID                string    `json:"id"`
	CampaignID        string    `json:"campaignId"`
	ConfirmationEmail string    `json:"confirmationEmail"`
	Amount            float64   `json:"amount"`
	CreatedAt         time.Time `json:"createdAt"`
}
