package domain

type LocationKind string

const (
	LocationOrigin      LocationKind = "ORIGIN"
	LocationDestination LocationKind = "DESTINATION"
	LocationDepot       LocationKind = "DEPOT"
)

// Location is one endpoint of a leg. DepotID is set only for depot endpoints.
type Location struct {
	Kind        LocationKind
	Coordinates Coordinates
	DepotID     *int64
}

func OriginAt(c Coordinates) Location {
	return Location{Kind: LocationOrigin, Coordinates: c}
}

func DestinationAt(c Coordinates) Location {
	return Location{Kind: LocationDestination, Coordinates: c}
}
