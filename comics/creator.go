package comics

// Creator is a platform account credited on one or more series.
//
// A creator may have turned their public profile page off; that is a
// valid state, not an error, and is reported through HasProfile.
type Creator struct {
	ID   string
	Name string
	// HasProfile reports whether the creator's public profile page is
	// reachable. When false, Name may be empty.
	HasProfile bool
}

// Viewer is the user a session token belongs to.
type Viewer struct {
	ID       string
	Nickname string
	// Creator reports whether the account has a creator profile.
	Creator bool
}
