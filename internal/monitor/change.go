package monitor

// availabilityChanged compares the last recorded state with the observed one.
// An item that has never been observed counts as changed, so the first cycle
// always records a baseline and notifies.
func availabilityChanged(last *bool, observed bool) bool {
	if last == nil {
		return true
	}
	return *last != observed
}
