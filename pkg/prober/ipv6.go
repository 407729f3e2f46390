package prober

// IPv6Supported reports whether this build can run an IPv6 heartbeat path.
// The source references interval_v6 in its config surface but spec.md §9's
// open questions note the IPv6 prober path is never implemented in the
// observed sources. This stays a stub contract: always false, so a caller
// that branches on it takes the v4 path without pretending v6 heartbeats are
// sent. Nothing in cmd/linkmgrd calls it today.
func IPv6Supported() bool { return false }
