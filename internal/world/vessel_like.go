package world

// VesselLike is the subset of vessel.Vessel's surface the chunk tick
// needs to reach during the pairwise-gravity pass: region classification
// and strongest-gravity-source tracking (spec.md §4.1 step 2). Defining
// it here (rather than importing the vessel package) keeps world free of
// a world<->vessel import cycle; internal/vessel.Vessel implements it.
type VesselLike interface {
	Entity
	SetRegion(Region)
	NoteGravitySource(sourceID uint64, forceKN float64)
}
