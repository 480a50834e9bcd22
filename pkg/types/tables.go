package types

// Local table names.
const (
	TableUsers           = "users"
	TableLandHoldings    = "land_holdings"
	TableCrops           = "crops"
	TableUserPreferences = "user_preferences"
)

// StandardTableNames lists all local table names for enumeration.
var StandardTableNames = []string{
	TableUsers,
	TableLandHoldings,
	TableCrops,
	TableUserPreferences,
}
