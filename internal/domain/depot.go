package domain

// Depot is an intermediate transfer point usable as a routing waypoint.
type Depot struct {
	ID          int64
	Code        string
	Name        string
	Address     string
	Coordinates Coordinates
	Active      bool
}

func (d Depot) Location() Location {
	id := d.ID
	return Location{Kind: LocationDepot, Coordinates: d.Coordinates, DepotID: &id}
}
