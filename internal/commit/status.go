package commit

// Status describes how a commit relates to reverts in the same list.
// Numbers are 1-based positions in that list.
type Status interface {
	isStatus()
}

// Normal is a commit neither reverting nor reverted.
type Normal struct{}

// Reverts is a commit that reverts commit N.
type Reverts struct{ N int }

// RevertedBy is a commit reverted by commit N.
type RevertedBy struct{ N int }

// Both is a commit that reverts one commit and is itself reverted.
type Both struct {
	Reverts    int
	RevertedBy int
}

func (Normal) isStatus()     {}
func (Reverts) isStatus()    {}
func (RevertedBy) isStatus() {}
func (Both) isStatus()       {}

// Correlate returns the status of each commit. Revert targets that are not
// in the list are ignored. A commit reverted more than once is marked as
// reverted by the first of them.
func Correlate(commits []Commit) []Status {
	numbers := make(map[string]int, len(commits))
	for i, c := range commits {
		if _, ok := numbers[c.SHA]; !ok {
			numbers[c.SHA] = i + 1
		}
	}

	// reverted sha -> number of the first commit reverting it
	revertedBy := make(map[string]int)
	for i, c := range commits {
		target, ok := c.RevertedSHA()
		if !ok {
			continue
		}
		if _, known := numbers[target]; !known {
			continue
		}
		if _, seen := revertedBy[target]; !seen {
			revertedBy[target] = i + 1
		}
	}

	statuses := make([]Status, len(commits))
	for i, c := range commits {
		reverts := 0
		if target, ok := c.RevertedSHA(); ok {
			reverts = numbers[target]
		}
		by := revertedBy[c.SHA]

		switch {
		case reverts != 0 && by != 0:
			statuses[i] = Both{Reverts: reverts, RevertedBy: by}
		case by != 0:
			statuses[i] = RevertedBy{N: by}
		case reverts != 0:
			statuses[i] = Reverts{N: reverts}
		default:
			statuses[i] = Normal{}
		}
	}
	return statuses
}
