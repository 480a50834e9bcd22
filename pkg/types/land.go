package types

// Ownership types commonly recorded for a holding. Free text is accepted.
const (
	OwnershipOwned  = "OWNED"
	OwnershipLeased = "LEASED"
	OwnershipShared = "SHARED"
)

// Irrigation types.
const (
	IrrigationCanal     = "CANAL"
	IrrigationWell      = "WELL"
	IrrigationTubeWell  = "TUBE_WELL"
	IrrigationRainFed   = "RAIN_FED"
	IrrigationSprinkler = "SPRINKLER"
	IrrigationDrip      = "DRIP"
	IrrigationOther     = "OTHER"
)

// LandHolding is one parcel farmed by a user. UserID relates it to a
// profile by value only; the store does not enforce the relation.
type LandHolding struct {
	ID             string   `json:"id"`
	UserID         string   `json:"user_id"`
	Area           float64  `json:"area"` // acres
	OwnershipType  string   `json:"ownership_type"`
	SoilType       string   `json:"soil_type"`
	IrrigationType *string  `json:"irrigation_type,omitempty"`
	CurrentCrop    *string  `json:"current_crop,omitempty"`
	Location       string   `json:"location"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
}
