package domain

// RestrictionKind identifies why a track cannot be played.
type RestrictionKind string

const (
	RestrictionAgeRestricted RestrictionKind = "age_restricted"
	RestrictionRegionBlocked RestrictionKind = "region_blocked"
	RestrictionPrivate       RestrictionKind = "private"
	RestrictionDeleted       RestrictionKind = "deleted"
	RestrictionLiveStream    RestrictionKind = "live_stream"
	RestrictionEmbedDisabled RestrictionKind = "embed_disabled"
	RestrictionNotFound      RestrictionKind = "not_found"
	RestrictionUnknown       RestrictionKind = "unknown"
)

// Message returns the user-facing explanation for a restriction.
func (k RestrictionKind) Message() string {
	switch k {
	case RestrictionAgeRestricted:
		return "This track is age-restricted and cannot be played."
	case RestrictionRegionBlocked:
		return "This track is not available in the bot's region."
	case RestrictionPrivate:
		return "This track is private."
	case RestrictionDeleted:
		return "This track has been removed."
	case RestrictionLiveStream:
		return "Live streams cannot be queued."
	case RestrictionEmbedDisabled:
		return "Playback of this track is disabled outside its platform."
	case RestrictionNotFound:
		return "This track does not exist."
	default:
		return "This track cannot be played."
	}
}

// RestrictionReport is the transient result of an availability probe.
// It is never persisted; availability can change between checks.
type RestrictionReport struct {
	Available bool
	Kind      RestrictionKind
	Detail    string // Raw probe output for logging
}

// Playable reports an unrestricted track.
func Playable() RestrictionReport {
	return RestrictionReport{Available: true}
}

// Restricted reports a blocked track with the given kind.
func Restricted(kind RestrictionKind, detail string) RestrictionReport {
	return RestrictionReport{Available: false, Kind: kind, Detail: detail}
}

// RestrictionError carries a restriction report across layer boundaries.
type RestrictionError struct {
	Report RestrictionReport
}

func (e *RestrictionError) Error() string {
	return e.Report.Kind.Message()
}
