// Package events implements the in-process event bus at the heart of the
// Nimbus plugin architecture. Core platform operations publish events,
// plugins subscribe and react.
package events

import (
	"github.com/google/uuid"

	"github.com/nimbusgit/nimbus/internal/types"
)

// EventType is the coarse classification used for subscription indexing.
// Multiple event variants can map to one EventType.
type EventType string

const (
	EventTypePush        EventType = "push"
	EventTypePullRequest EventType = "pull_request"
	EventTypeTag         EventType = "tag"
	EventTypeRepository  EventType = "repository"
	EventTypeReview      EventType = "review"
	EventTypeCiRun       EventType = "ci_run"
)

// AllEventTypes returns every EventType, in a stable order.
func AllEventTypes() []EventType {
	return []EventType{
		EventTypePush,
		EventTypePullRequest,
		EventTypeTag,
		EventTypeRepository,
		EventTypeReview,
		EventTypeCiRun,
	}
}

// Event is the closed set of occurrences that flow through the bus.
// Every variant lives in this package; the marker method keeps the set
// closed to outside implementations.
type Event interface {
	isEvent()
}

// Core git events.

type Push struct {
	Repository string         `json:"repository"`
	Branch     string         `json:"branch"`
	Commits    []types.Commit `json:"commits"`
	Pusher     string         `json:"pusher"`
}

type PullRequestOpened struct {
	ID         uuid.UUID `json:"id"`
	Repository string    `json:"repository"`
	FromBranch string    `json:"from_branch"`
	ToBranch   string    `json:"to_branch"`
	Title      string    `json:"title"`
	Author     string    `json:"author"`
}

type PullRequestMerged struct {
	ID          uuid.UUID `json:"id"`
	Repository  string    `json:"repository"`
	MergeCommit string    `json:"merge_commit"`
}

type PullRequestClosed struct {
	ID         uuid.UUID `json:"id"`
	Repository string    `json:"repository"`
}

type TagCreated struct {
	Repository string `json:"repository"`
	Tag        string `json:"tag"`
	Target     string `json:"target"`
	Tagger     string `json:"tagger"`
}

// Repository lifecycle events.

type RepositoryCreated struct {
	Repository types.Repository `json:"repository"`
}

type RepositoryDeleted struct {
	Repository string `json:"repository"`
}

// CI/CD events (from plugins).

type CiRunStarted struct {
	ID         uuid.UUID `json:"id"`
	Repository string    `json:"repository"`
	Branch     string    `json:"branch"`
	Plugin     string    `json:"plugin"`
}

type CiRunCompleted struct {
	ID         uuid.UUID `json:"id"`
	Repository string    `json:"repository"`
	Status     CiStatus  `json:"status"`
	Plugin     string    `json:"plugin"`
}

// Review events (from plugins).

type ReviewRequested struct {
	PullRequestID uuid.UUID `json:"pull_request_id"`
	Repository    string    `json:"repository"`
	Reviewer      string    `json:"reviewer"`
	Plugin        string    `json:"plugin"`
}

type ReviewSubmitted struct {
	PullRequestID uuid.UUID    `json:"pull_request_id"`
	Repository    string       `json:"repository"`
	Reviewer      string       `json:"reviewer"`
	Status        ReviewStatus `json:"status"`
	Plugin        string       `json:"plugin"`
}

// AI events (from plugins).

type AiAnalysisRequested struct {
	ID         uuid.UUID       `json:"id"`
	Repository string          `json:"repository"`
	Context    AnalysisContext `json:"context"`
	Plugin     string          `json:"plugin"`
}

type AiAnalysisCompleted struct {
	ID          uuid.UUID      `json:"id"`
	Repository  string         `json:"repository"`
	Suggestions []AiSuggestion `json:"suggestions"`
	Plugin      string         `json:"plugin"`
}

func (Push) isEvent()                {}
func (PullRequestOpened) isEvent()   {}
func (PullRequestMerged) isEvent()   {}
func (PullRequestClosed) isEvent()   {}
func (TagCreated) isEvent()          {}
func (RepositoryCreated) isEvent()   {}
func (RepositoryDeleted) isEvent()   {}
func (CiRunStarted) isEvent()        {}
func (CiRunCompleted) isEvent()      {}
func (ReviewRequested) isEvent()     {}
func (ReviewSubmitted) isEvent()     {}
func (AiAnalysisRequested) isEvent() {}
func (AiAnalysisCompleted) isEvent() {}

// CiStatus is the outcome of a CI run.
type CiStatus string

const (
	CiStatusSuccess   CiStatus = "success"
	CiStatusFailure   CiStatus = "failure"
	CiStatusCancelled CiStatus = "cancelled"
	CiStatusTimeout   CiStatus = "timeout"
)

// ReviewStatus is the outcome of a submitted review.
type ReviewStatus string

const (
	ReviewStatusApproved         ReviewStatus = "approved"
	ReviewStatusRequestedChanges ReviewStatus = "requested_changes"
	ReviewStatusCommented        ReviewStatus = "commented"
)

// AnalysisContext scopes an AI analysis request.
type AnalysisContext struct {
	// Exactly one of the fields below is meaningful, discriminated by Kind.
	Kind          AnalysisKind `json:"kind"`
	PullRequestID uuid.UUID    `json:"pull_request_id,omitempty"`
	FilePath      string       `json:"file_path,omitempty"`
	FileCommit    string       `json:"file_commit,omitempty"`
}

// AnalysisKind discriminates AnalysisContext.
type AnalysisKind string

const (
	AnalysisKindPullRequest AnalysisKind = "pull_request"
	AnalysisKindFile        AnalysisKind = "file"
	AnalysisKindRepository  AnalysisKind = "repository"
)

// AiSuggestion is a single finding produced by an AI analysis.
type AiSuggestion struct {
	File       string             `json:"file"`
	Line       int                `json:"line,omitempty"`
	Suggestion string             `json:"suggestion"`
	Severity   SuggestionSeverity `json:"severity"`
}

// SuggestionSeverity ranks an AI suggestion.
type SuggestionSeverity string

const (
	SeverityInfo    SuggestionSeverity = "info"
	SeverityWarning SuggestionSeverity = "warning"
	SeverityError   SuggestionSeverity = "error"
)
