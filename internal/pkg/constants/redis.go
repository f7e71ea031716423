package constants

// Redis key formats
const (
	KeyDriverLocation = "driver:location:%s" // Format: driver:location:{driver_id}
	KeyDriverGeo      = "driver:geo"         // GEO set of all driver positions
)

// Redis hash fields
const (
	FieldLatitude  = "lat"
	FieldLongitude = "lng"
	FieldTimestamp = "ts"
	FieldAvailable = "available"
)
