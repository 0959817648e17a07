package recording

// Filter names a status predicate used by the listing API.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterRecording Filter = "recording"
	FilterLiving    Filter = "living"
	FilterError     Filter = "error"
	FilterOffline   Filter = "offline"
	FilterStopped   Filter = "stopped"
)

// The predicates are expressed directly over the signals rather than through
// ResolveCardState, but each one is equivalent to its card state. That
// equivalence is asserted in the tests.
var statusFilters = map[Filter]func(*Recording) bool{
	FilterAll:       func(*Recording) bool { return true },
	FilterRecording: func(r *Recording) bool { return r.IsRecording },
	FilterError:     func(r *Recording) bool { return !r.IsRecording && r.IsError() },
	FilterLiving: func(r *Recording) bool {
		return !r.IsRecording && !r.IsError() && r.IsLive && r.MonitorEnabled
	},
	FilterOffline: func(r *Recording) bool {
		return !r.IsRecording && !r.IsError() && !r.IsLive && r.MonitorEnabled &&
			r.StatusInfo != StatusNotInScheduledCheck
	},
	FilterStopped: func(r *Recording) bool {
		return !r.IsRecording && !r.IsError() && !(r.IsLive && r.MonitorEnabled) &&
			(!r.MonitorEnabled || r.StatusInfo == StatusNotInScheduledCheck)
	},
}

// MatchesStatus reports whether the recording passes the named status filter.
// Unknown filter names match nothing.
func MatchesStatus(r *Recording, f Filter) bool {
	pred, ok := statusFilters[f]
	if !ok {
		return false
	}

	return pred(r)
}

// MatchesPlatform reports whether the recording passes the platform filter.
func MatchesPlatform(r *Recording, platform string) bool {
	return platform == "all" || platform == r.PlatformKey
}

// ShouldShow combines the status and platform filters.
func ShouldShow(r *Recording, status Filter, platform string) bool {
	return MatchesStatus(r, status) && MatchesPlatform(r, platform)
}
