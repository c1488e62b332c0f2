package models

// VerificationMethod is the channel a verification code is delivered through.
type VerificationMethod string

const (
	VerificationMethodEmail VerificationMethod = "email"
	VerificationMethodPhone VerificationMethod = "phone"
)

// Valid reports whether m is one of the known delivery channels.
func (m VerificationMethod) Valid() bool {
	return m == VerificationMethodEmail || m == VerificationMethodPhone
}

// MLSProvider is a Multiple Listing Service an agent can belong to.
type MLSProvider struct {
	ID     string `bson:"id" json:"id"`
	Name   string `bson:"name" json:"name"`
	Code   string `bson:"code" json:"code"`
	Region string `bson:"region" json:"region"`
	Active bool   `bson:"active" json:"active"`
}

// Agent is a real-estate agent registered with an MLS provider.
// The pair (MLSID, AgentID) is unique across the fixture set.
type Agent struct {
	ID                 string             `bson:"id" json:"id"`
	MLSID              string             `bson:"mlsId" json:"mlsId"`
	AgentID            string             `bson:"agentId" json:"agentId"`
	Name               string             `bson:"name" json:"name"`
	Email              string             `bson:"email" json:"email"`
	Phone              string             `bson:"phone" json:"phone"`
	Verified           bool               `bson:"verified" json:"verified"`
	VerificationMethod VerificationMethod `bson:"verificationMethod" json:"verificationMethod"`
}

// AgentSummary is the subset of an agent returned by verify-agent.
type AgentSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
}

// Summary returns the public view of the agent.
func (a Agent) Summary() AgentSummary {
	return AgentSummary{ID: a.ID, Name: a.Name, Email: a.Email, Verified: a.Verified}
}
