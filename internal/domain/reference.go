package domain

// Boundary is an administrative-boundary reference record (country, county,
// ward). Resolved from free text by the location sub-flow.
type Boundary struct {
	ID       string
	Name     string
	Level    string
	ParentID string
	Country  string
}

// School is a reference record used by the nearest-name lookup: free-text
// school entries are matched against this corpus and confirmed via a menu.
type School struct {
	ID       string
	Name     string
	RegionID string
	Lat      float64
	Lon      float64
}
