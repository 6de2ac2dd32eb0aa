package quiz

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/projectlearn/vocaquiz/internal/domain"
	"github.com/projectlearn/vocaquiz/internal/errors"
)

// How long a mismatched pair stays flagged before the selection resets.
const defaultFlashDelay = 500 * time.Millisecond

// Feedback tiers by percentage: >=80, 60-79, <60.
const (
	FeedbackExcellent   = "excellent"
	FeedbackGood        = "good"
	FeedbackNeedsReview = "needs review"
)

// Session is one running quiz. It moves from in-progress to completed and
// never back; Restart replaces its content with a fresh sample.
//
// The score is monotonically non-decreasing and never exceeds Total.
type Session struct {
	id         string
	mode       Mode
	difficulty Difficulty

	mu        sync.Mutex
	questions *QuestionSet
	index     int
	score     int
	completed bool

	// Matching-mode interaction state.
	selectedEnglish string
	matched         map[string]bool
	wrongFlash      string
	turkish         []string

	// generation invalidates flash timers scheduled before a restart.
	generation int
	flashDelay time.Duration
}

func newSession(id string, qs *QuestionSet, turkish []string, flashDelay time.Duration) *Session {
	if flashDelay <= 0 {
		flashDelay = defaultFlashDelay
	}
	return &Session{
		id:         id,
		mode:       qs.Mode,
		difficulty: qs.Difficulty,
		questions:  qs,
		matched:    make(map[string]bool),
		turkish:    turkish,
		flashDelay: flashDelay,
	}
}

// reset swaps in a new question set and clears all interaction state. Pending
// flash timers belong to the previous generation and become no-ops.
func (s *Session) reset(qs *QuestionSet, turkish []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.questions = qs
	s.index = 0
	s.score = 0
	s.completed = false
	s.selectedEnglish = ""
	s.matched = make(map[string]bool)
	s.wrongFlash = ""
	s.turkish = turkish
	s.generation++
}

// SubmitOutcome reports the effect of one answer submission.
type SubmitOutcome struct {
	Correct   bool
	Completed bool
	Score     int
	Index     int
}

// Submit checks the answer for the current question and advances the session.
// Multiple-choice answers must equal the correct option exactly; fill-in-blank
// answers are compared case-insensitively after trimming whitespace.
func (s *Session) Submit(answer string) (SubmitOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == ModeMatching {
		return SubmitOutcome{}, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("matching quizzes take pair selections, not answers"))
	}
	if s.completed {
		return SubmitOutcome{}, errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("quiz is already completed"))
	}

	var correct bool
	switch s.mode {
	case ModeMultipleChoice:
		correct = answer == s.questions.MultipleChoice[s.index].CorrectAnswer
	case ModeFillInBlank:
		want := s.questions.FillInBlank[s.index].CorrectAnswer
		correct = strings.EqualFold(strings.TrimSpace(answer), want)
	}

	if correct {
		s.score++
	}

	s.index++
	if s.index == s.questions.Total() {
		s.completed = true
	}

	return SubmitOutcome{
		Correct:   correct,
		Completed: s.completed,
		Score:     s.score,
		Index:     s.index,
	}, nil
}

// PickEnglish selects an English word in matching mode. Picking the selected
// word again deselects it.
func (s *Session) PickEnglish(english string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != ModeMatching {
		return errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("pair selection is only valid in matching quizzes"))
	}
	if s.completed {
		return errors.New(errors.CodeFailedPrecondition, errors.WithMessagef("quiz is already completed"))
	}

	pair, ok := s.pairByEnglish(english)
	if !ok {
		return errors.New(errors.CodeInvalidArgument, errors.WithMessagef("unknown word %q", english))
	}
	if s.matched[pair.English] {
		return errors.New(errors.CodeFailedPrecondition, errors.WithMessagef("%q is already matched", english))
	}

	if s.selectedEnglish == english {
		s.selectedEnglish = ""
	} else {
		s.selectedEnglish = english
	}
	return nil
}

// MatchOutcome reports the effect of one Turkish pick.
type MatchOutcome struct {
	Matched   bool
	Completed bool
	Score     int
}

// PickTurkish checks the picked meaning against the selected English word.
// On a match both sides are marked and the score increments; on a mismatch
// the meaning is briefly flagged wrong and the selection resets after the
// flash delay without touching the score.
func (s *Session) PickTurkish(turkish string) (MatchOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != ModeMatching {
		return MatchOutcome{}, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("pair selection is only valid in matching quizzes"))
	}
	if s.completed {
		return MatchOutcome{}, errors.New(errors.CodeFailedPrecondition, errors.WithMessagef("quiz is already completed"))
	}
	if s.selectedEnglish == "" {
		return MatchOutcome{}, errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("select an English word first"))
	}

	pair, _ := s.pairByEnglish(s.selectedEnglish)
	if pair.Turkish == turkish {
		s.matched[pair.English] = true
		s.score++
		s.selectedEnglish = ""
		if len(s.matched) == len(s.questions.Pairs) {
			s.completed = true
		}
		return MatchOutcome{Matched: true, Completed: s.completed, Score: s.score}, nil
	}

	s.wrongFlash = turkish
	gen := s.generation
	time.AfterFunc(s.flashDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		// The session may have been restarted while the timer was pending.
		if s.generation != gen {
			return
		}
		s.wrongFlash = ""
		s.selectedEnglish = ""
	})

	return MatchOutcome{Matched: false, Completed: false, Score: s.score}, nil
}

func (s *Session) pairByEnglish(english string) (domain.MatchingPair, bool) {
	for _, p := range s.questions.Pairs {
		if p.English == english {
			return p, true
		}
	}
	return domain.MatchingPair{}, false
}

// Result is the final outcome shown on the completion screen.
type Result struct {
	Score      int    `json:"score"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
	Feedback   string `json:"feedback"`
}

func (s *Session) Result() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resultLocked()
}

func (s *Session) resultLocked() Result {
	total := s.questions.Total()
	p := percentage(s.score, total)
	return Result{
		Score:      s.score,
		Total:      total,
		Percentage: p,
		Feedback:   feedbackFor(p),
	}
}

func percentage(score, total int) int {
	if total == 0 {
		return 0
	}
	return int(decimal.NewFromInt(int64(score)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(0).
		IntPart())
}

func feedbackFor(p int) string {
	switch {
	case p >= 80:
		return FeedbackExcellent
	case p >= 60:
		return FeedbackGood
	default:
		return FeedbackNeedsReview
	}
}

// View is the session state exposed to clients. Correct answers are included
// because validation also runs client-side while a question is on screen, as
// in the original interaction model.
type View struct {
	ID         string     `json:"id"`
	Mode       Mode       `json:"mode"`
	Difficulty Difficulty `json:"difficulty"`
	Total      int        `json:"total"`
	Index      int        `json:"index"`
	Score      int        `json:"score"`
	Completed  bool       `json:"completed"`

	MultipleChoice []domain.MultipleChoiceQuestion `json:"multiple_choice,omitempty"`
	FillInBlank    []domain.FillInBlankQuestion    `json:"fill_in_blank,omitempty"`

	English         []string `json:"english,omitempty"`
	Turkish         []string `json:"turkish,omitempty"`
	Matched         []string `json:"matched,omitempty"`
	SelectedEnglish string   `json:"selected_english,omitempty"`
	WrongFlash      string   `json:"wrong_flash,omitempty"`
}

func (s *Session) Snapshot() *View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := &View{
		ID:         s.id,
		Mode:       s.mode,
		Difficulty: s.difficulty,
		Total:      s.questions.Total(),
		Index:      s.index,
		Score:      s.score,
		Completed:  s.completed,
	}

	switch s.mode {
	case ModeMultipleChoice:
		v.MultipleChoice = s.questions.MultipleChoice
	case ModeFillInBlank:
		v.FillInBlank = s.questions.FillInBlank
	case ModeMatching:
		for _, p := range s.questions.Pairs {
			v.English = append(v.English, p.English)
		}
		v.Turkish = s.turkish
		for e := range s.matched {
			v.Matched = append(v.Matched, e)
		}
		sort.Strings(v.Matched)
		v.SelectedEnglish = s.selectedEnglish
		v.WrongFlash = s.wrongFlash
	}

	return v
}
