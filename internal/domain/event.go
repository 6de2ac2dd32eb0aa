package domain

const (
	EventNameAuthChanged   = "auth.changed"
	EventNameQuizCompleted = "quiz.completed"
	EventNameWordSaved     = "word.saved"
	EventNameWordRemoved   = "word.removed"
)

// EventAuthChanged fires on login and logout. UI clients route to the home or
// login screen based on Authenticated; the backend only emits the event.
type EventAuthChanged struct {
	Authenticated bool
	User          *UserProfile
}

func (EventAuthChanged) Name() string { return EventNameAuthChanged }

type EventQuizCompleted struct {
	Result QuizResult
}

func (EventQuizCompleted) Name() string { return EventNameQuizCompleted }

type EventWordSaved struct {
	Word SavedWord
}

func (EventWordSaved) Name() string { return EventNameWordSaved }

type EventWordRemoved struct {
	WordID string
}

func (EventWordRemoved) Name() string { return EventNameWordRemoved }
