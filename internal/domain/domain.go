package domain

import "time"

// WordEntry is a single vocabulary item. Entries are loaded from the embedded
// category files at startup and never mutated afterwards.
type WordEntry struct {
	ID      string `json:"id"`
	Word    string `json:"word"`
	Meaning string `json:"meaning"`
	Example string `json:"example"`
}

// Category groups word entries by exam type.
type Category struct {
	ID    string
	Name  string
	Words []WordEntry
}

// MultipleChoiceQuestion asks for the meaning of a prompt word. Options contain
// the correct answer exactly once; the option count depends on difficulty and
// may shrink when the corpus has too few distinct meanings.
type MultipleChoiceQuestion struct {
	ID            string   `json:"id"`
	Prompt        string   `json:"prompt"`
	CorrectAnswer string   `json:"correct_answer"`
	Options       []string `json:"options"`
}

// FillInBlankQuestion asks to type the word masked out of its example sentence.
type FillInBlankQuestion struct {
	ID             string `json:"id"`
	CorrectAnswer  string `json:"correct_answer"`
	BlankedExample string `json:"blanked_example"`
}

// MatchingPair is one English/Turkish pair of the matching mode. The full pair
// list forms the question set; there are no per-pair options.
type MatchingPair struct {
	English string `json:"english"`
	Turkish string `json:"turkish"`
}

// SavedWord is a word the user bookmarked from a learning screen. Saving the
// same word twice produces two entries; the list is not a set.
type SavedWord struct {
	ID       string `json:"id"`
	Word     string `json:"word"`
	Meaning  string `json:"meaning"`
	Example  string `json:"example"`
	Category string `json:"category"`
}

// UserProfile is the synthetic profile created at login. There is no server
// side credential verification behind it.
type UserProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// PracticeResult is the typed response of the external practice service.
// Any of the fields may be empty when the service omits them.
type PracticeResult struct {
	Conversation  string `json:"conversation"`
	Pronunciation string `json:"pronunciation"`
	Usage         string `json:"usage"`
}

// QuizResult is the outcome of a completed quiz session.
type QuizResult struct {
	SessionID   string
	Mode        string
	Difficulty  string
	Score       int
	Total       int
	Percentage  int
	CompletedAt time.Time
}
