package types

import "time"

// Crop statuses in common use. Status is free text and any value is stored
// as given; only CropStatusActive has meaning to the aggregate queries.
const (
	CropStatusActive    = "ACTIVE"
	CropStatusHarvested = "HARVESTED"
	CropStatusFailed    = "FAILED"
)

// Seasons.
const (
	SeasonKharif = "KHARIF"
	SeasonRabi   = "RABI"
	SeasonZaid   = "ZAID"
)

// Crop is one planting on a user's land.
type Crop struct {
	ID                  string     `json:"id"`
	UserID              string     `json:"user_id"`
	CropName            string     `json:"crop_name"`
	Area                float64    `json:"area"`
	Season              string     `json:"season"`
	PlantedDate         *time.Time `json:"planted_date,omitempty"`
	ExpectedHarvestDate *time.Time `json:"expected_harvest_date,omitempty"`
	Status              string     `json:"status"`
}

// IsActive reports whether the crop counts toward active totals.
func (c *Crop) IsActive() bool {
	return c.Status == CropStatusActive
}
