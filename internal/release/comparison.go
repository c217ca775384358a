package release

import (
	"context"
	"errors"
	"fmt"

	"github.com/drewdunne/updatesbot/internal/provider"
)

// ErrIncompleteComparison is returned when pagination yields a different
// number of commits than the host reported.
var ErrIncompleteComparison = errors.New("comparison is incomplete")

// FetchComparison fetches every commit between old and new and checks that
// none went missing. The file list is best-effort.
func FetchComparison(ctx context.Context, host provider.Host, repo provider.Repo, old, new Tag) (*provider.Comparison, error) {
	cmp, err := host.Compare(ctx, repo, old.Name, new.Name)
	if err != nil {
		return nil, fmt.Errorf("fetching comparison of %s: %w", repo, err)
	}
	if cmp.TotalCommits != len(cmp.Commits) {
		return nil, fmt.Errorf("%w: %s...%s has %d commits, got %d",
			ErrIncompleteComparison, old.Name, new.Name, cmp.TotalCommits, len(cmp.Commits))
	}
	return cmp, nil
}
