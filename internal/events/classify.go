package events

// Classify maps an event variant to the coarse EventType used for
// subscription indexing. It is total: variants without a dedicated class
// fall back to EventTypePush.
//
// AiAnalysisRequested and AiAnalysisCompleted have no AI class and classify
// as EventTypePush. This mirrors the behavior plugins already depend on;
// giving them a dedicated class would silently detach existing catch-all
// Push subscribers from AI activity.
func Classify(event Event) EventType {
	switch event.(type) {
	case Push:
		return EventTypePush
	case PullRequestOpened, PullRequestMerged, PullRequestClosed:
		return EventTypePullRequest
	case TagCreated:
		return EventTypeTag
	case RepositoryCreated, RepositoryDeleted:
		return EventTypeRepository
	case ReviewRequested, ReviewSubmitted:
		return EventTypeReview
	case CiRunStarted, CiRunCompleted:
		return EventTypeCiRun
	default:
		return EventTypePush
	}
}

// ExtractRepository returns the repository name an event refers to.
// RepositoryCreated carries a full Repository value, so its name comes from
// the embedded record rather than a flat field.
func ExtractRepository(event Event) (string, bool) {
	switch e := event.(type) {
	case Push:
		return e.Repository, true
	case PullRequestOpened:
		return e.Repository, true
	case PullRequestMerged:
		return e.Repository, true
	case PullRequestClosed:
		return e.Repository, true
	case TagCreated:
		return e.Repository, true
	case RepositoryCreated:
		return e.Repository.Name, true
	case RepositoryDeleted:
		return e.Repository, true
	case CiRunStarted:
		return e.Repository, true
	case CiRunCompleted:
		return e.Repository, true
	case ReviewRequested:
		return e.Repository, true
	case ReviewSubmitted:
		return e.Repository, true
	case AiAnalysisRequested:
		return e.Repository, true
	case AiAnalysisCompleted:
		return e.Repository, true
	default:
		return "", false
	}
}

// ExtractBranch returns the branch an event refers to, for the variants
// that carry one. Pull request opens expose their source branch.
func ExtractBranch(event Event) (string, bool) {
	switch e := event.(type) {
	case Push:
		return e.Branch, true
	case CiRunStarted:
		return e.Branch, true
	case PullRequestOpened:
		return e.FromBranch, true
	default:
		return "", false
	}
}
