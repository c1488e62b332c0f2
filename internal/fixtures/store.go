package fixtures

import (
	"fmt"
	"strings"

	"greendrake/blast/internal/models"
)

// Store is a read-only, indexed view over a Dataset. It is safe for
// concurrent use because nothing mutates it after New returns; every
// accessor hands out copies.
type Store struct {
	data *Dataset

	agentsByPair map[string]int
	agentsByID   map[string]int
	listingsByID map[string]int
	zipcodes     map[string]int
	packages     map[models.PackageType]int
	durations    map[string]int
}

func pairKey(mlsID, agentID string) string {
	return mlsID + "\x00" + agentID
}

// New indexes ds. It rejects datasets with duplicate keys.
func New(ds *Dataset) (*Store, error) {
	s := &Store{
		data:         ds,
		agentsByPair: make(map[string]int, len(ds.Agents)),
		agentsByID:   make(map[string]int, len(ds.Agents)),
		listingsByID: make(map[string]int, len(ds.Listings)),
		zipcodes:     make(map[string]int, len(ds.Zipcodes)),
		packages:     make(map[models.PackageType]int, len(ds.Packages)),
		durations:    make(map[string]int, len(ds.CampaignDurations)),
	}

	for i, a := range ds.Agents {
		key := pairKey(a.MLSID, a.AgentID)
		if _, dup := s.agentsByPair[key]; dup {
			return nil, fmt.Errorf("%w: duplicate agent %s/%s", ErrInvalidDataset, a.MLSID, a.AgentID)
		}
		s.agentsByPair[key] = i
		if _, dup := s.agentsByID[a.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate agent id %s", ErrInvalidDataset, a.ID)
		}
		s.agentsByID[a.ID] = i
	}
	for i, l := range ds.Listings {
		if _, dup := s.listingsByID[l.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate listing id %s", ErrInvalidDataset, l.ID)
		}
		s.listingsByID[l.ID] = i
	}
	for i, z := range ds.Zipcodes {
		if _, dup := s.zipcodes[z.Code]; dup {
			return nil, fmt.Errorf("%w: duplicate zipcode %s", ErrInvalidDataset, z.Code)
		}
		s.zipcodes[z.Code] = i
	}
	// Packages are looked up by type, so the first package of each type wins.
	for i, p := range ds.Packages {
		if _, seen := s.packages[p.Type]; !seen {
			s.packages[p.Type] = i
		}
	}
	for i, d := range ds.CampaignDurations {
		if _, dup := s.durations[d.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate duration id %s", ErrInvalidDataset, d.ID)
		}
		s.durations[d.ID] = i
	}
	return s, nil
}

// MustEmbedded builds a Store from the embedded dataset and panics on failure.
// Intended for tests and defaults.
func MustEmbedded() *Store {
	ds, err := Embedded()
	if err != nil {
		panic(err)
	}
	s, err := New(ds)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Store) Providers() []models.MLSProvider {
	return append([]models.MLSProvider{}, s.data.MLSProviders...)
}

func (s *Store) Agents() []models.Agent {
	return append([]models.Agent{}, s.data.Agents...)
}

// FindAgent matches on both MLS id and agent id exactly.
func (s *Store) FindAgent(mlsID, agentID string) (models.Agent, bool) {
	i, ok := s.agentsByPair[pairKey(mlsID, agentID)]
	if !ok {
		return models.Agent{}, false
	}
	return s.data.Agents[i], true
}

// AgentByID looks an agent up by its record id or, failing that, by its MLS agent id.
func (s *Store) AgentByID(id string) (models.Agent, bool) {
	if i, ok := s.agentsByID[id]; ok {
		return s.data.Agents[i], true
	}
	for _, a := range s.data.Agents {
		if a.AgentID == id {
			return a, true
		}
	}
	return models.Agent{}, false
}

// SearchAgents filters by provider and a case-insensitive match on name or agent id.
func (s *Store) SearchAgents(mlsID, query string) []models.Agent {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []models.Agent{}
	for _, a := range s.data.Agents {
		if mlsID != "" && a.MLSID != mlsID {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(a.Name), q) && !strings.Contains(strings.ToLower(a.AgentID), q) {
			continue
		}
		out = append(out, a)
	}
	return out
}

func (s *Store) Listings() []models.Listing {
	return append([]models.Listing{}, s.data.Listings...)
}

func (s *Store) ListingByID(id string) (models.Listing, bool) {
	i, ok := s.listingsByID[id]
	if !ok {
		return models.Listing{}, false
	}
	return s.data.Listings[i], true
}

// SearchListings applies every non-empty filter (AND). The free-text query
// matches address, provider or price, ignoring case.
func (s *Store) SearchListings(f models.ListingFilter) []models.Listing {
	q := strings.ToLower(f.Query)
	out := []models.Listing{}
	for _, l := range s.data.Listings {
		if f.AgentID != "" && l.AgentID != f.AgentID {
			continue
		}
		if f.ZipCode != "" && l.ZipCode != f.ZipCode {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(l.Address), q) &&
			!strings.Contains(strings.ToLower(l.Provider), q) &&
			!strings.Contains(strings.ToLower(l.Price), q) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func (s *Store) Zipcode(code string) (models.Zipcode, bool) {
	i, ok := s.zipcodes[code]
	if !ok {
		return models.Zipcode{}, false
	}
	return s.data.Zipcodes[i], true
}

func (s *Store) Packages() []models.Package {
	out := make([]models.Package, len(s.data.Packages))
	for i, p := range s.data.Packages {
		out[i] = copyPackage(p)
	}
	return out
}

func (s *Store) PackageByType(t models.PackageType) (models.Package, bool) {
	i, ok := s.packages[t]
	if !ok {
		return models.Package{}, false
	}
	return copyPackage(s.data.Packages[i]), true
}

func (s *Store) Durations() []models.CampaignDuration {
	return append([]models.CampaignDuration{}, s.data.CampaignDurations...)
}

func (s *Store) DurationByID(id string) (models.CampaignDuration, bool) {
	i, ok := s.durations[id]
	if !ok {
		return models.CampaignDuration{}, false
	}
	return s.data.CampaignDurations[i], true
}

func copyPackage(p models.Package) models.Package {
	p.Features = append([]string(nil), p.Features...)
	return p
}
