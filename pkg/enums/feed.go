package enums

import "fmt"

// FeedMode splits the news feed into the viewer's own activity and the
// board-wide overview.
type FeedMode string

const (
	FeedModePersonal FeedMode = "personal"
	FeedModeOverview FeedMode = "overview"
)

var validFeedModes = []FeedMode{FeedModePersonal, FeedModeOverview}

func (m FeedMode) IsValid() bool {
	for _, candidate := range validFeedModes {
		if candidate == m {
			return true
		}
	}
	return false
}

func ParseFeedMode(value string) (FeedMode, error) {
	for _, candidate := range validFeedModes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid feed mode %q", value)
}

// FeedCategory buckets feed rows inside a mode.
type FeedCategory string

const (
	FeedCategoryWorkedOn          FeedCategory = "worked_on"
	FeedCategoryTaggedIn          FeedCategory = "tagged_in"
	FeedCategoryCommentedOn       FeedCategory = "commented_on"
	FeedCategoryCreated           FeedCategory = "created"
	FeedCategoryGeneratedBranches FeedCategory = "generated_branches"
	FeedCategoryDoneThisWeek      FeedCategory = "done_this_week"
	FeedCategoryActivityOn        FeedCategory = "activity_on"
	FeedCategoryUpcomingDeadlines FeedCategory = "upcoming_deadlines"
	FeedCategoryBlocked           FeedCategory = "blocked"
)

// personalFeedCategories and overviewFeedCategories are the fixed key sets the
// aggregator must always emit, empty or not.
var personalFeedCategories = []FeedCategory{
	FeedCategoryWorkedOn,
	FeedCategoryTaggedIn,
	FeedCategoryCommentedOn,
	FeedCategoryCreated,
	FeedCategoryGeneratedBranches,
	FeedCategoryDoneThisWeek,
}

var overviewFeedCategories = []FeedCategory{
	FeedCategoryActivityOn,
	FeedCategoryUpcomingDeadlines,
	FeedCategoryBlocked,
	FeedCategoryGeneratedBranches,
	FeedCategoryDoneThisWeek,
}

// FeedCategoriesFor returns the expected category keys for a mode.
func FeedCategoriesFor(mode FeedMode) []FeedCategory {
	switch mode {
	case FeedModePersonal:
		return append([]FeedCategory(nil), personalFeedCategories...)
	case FeedModeOverview:
		return append([]FeedCategory(nil), overviewFeedCategories...)
	}
	return nil
}
