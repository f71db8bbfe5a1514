package domain

import "time"

// CustomerMiscData holds partially-structured scratch state for a customer:
// raw free-text answers are retained alongside an unmatched character count so
// data quality can be audited even when fuzzy matching only partially
// succeeded.
type CustomerMiscData struct {
	CustomerID         string
	RawCropText        string
	CropUnmatched      int
	RawLivestockText   string
	LivestockUnmatched int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// PlantingRecord tracks when a customer last reported planting a crop. Crops
// with no recent record are the ones the planting-date dialog state asks
// about.
type PlantingRecord struct {
	CustomerID string
	Crop       string
	PlantedAt  *time.Time
	UpdatedAt  time.Time
}

// Recent reports whether the planting record is fresh enough to skip asking
// again.
func (r *PlantingRecord) Recent(window time.Duration, now time.Time) bool {
	return r.PlantedAt != nil && now.Sub(*r.PlantedAt) <= window
}
