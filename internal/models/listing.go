package models

// Listing is a property listing. Price, beds, baths and sqft are display strings.
type Listing struct {
	ID          string `bson:"id" json:"id"`
	Price       string `bson:"price" json:"price"`
	Address     string `bson:"address" json:"address"`
	Beds        string `bson:"beds" json:"beds"`
	Baths       string `bson:"baths" json:"baths"`
	Sqft        string `bson:"sqft" json:"sqft"`
	Image       string `bson:"image" json:"image"`
	Provider    string `bson:"provider" json:"provider"`
	AgentID     string `bson:"agentId" json:"agentId"`
	MLSID       string `bson:"mlsId" json:"mlsId"`
	ZipCode     string `bson:"zipCode" json:"zipCode"`
	Status      string `bson:"status" json:"status"`
	ListingDate string `bson:"listingDate" json:"listingDate"`
	Description string `bson:"description" json:"description"`
}

// ListingFilter narrows a listing search. Empty fields are ignored.
type ListingFilter struct {
	Query   string
	AgentID string
	ZipCode string
}

// Zipcode is a five digit US postal code with demographic data.
type Zipcode struct {
	Code         string  `bson:"code" json:"code"`
	City         string  `bson:"city" json:"city"`
	State        string  `bson:"state" json:"state"`
	County       string  `bson:"county" json:"county"`
	Population   int     `bson:"population" json:"population"`
	MedianIncome float64 `bson:"medianIncome" json:"medianIncome"`
}
