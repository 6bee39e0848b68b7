package tollzone

// BoundaryPolicy defines how points lying exactly on a zone ring are classified
type BoundaryPolicy uint16

const (
	// BOUNDARY_EXCLUDED treats boundary points as outside of the zone (strict "contains" predicate)
	BOUNDARY_EXCLUDED = BoundaryPolicy(iota)
	// BOUNDARY_INCLUDED treats boundary points as inside of the zone ("covers" predicate)
	BOUNDARY_INCLUDED
)

func (iotaIdx BoundaryPolicy) String() string {
	return [...]string{"excluded", "included"}[iotaIdx]
}

// ParseBoundaryPolicy returns policy by its textual name
func ParseBoundaryPolicy(s string) (BoundaryPolicy, error) {
	switch s {
	case "excluded", "":
		return BOUNDARY_EXCLUDED, nil
	case "included":
		return BOUNDARY_INCLUDED, nil
	default:
		return BOUNDARY_EXCLUDED, configError("unknown boundary policy '%s'", s)
	}
}
