package quiz

import (
	"context"
	stderrors "errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/projectlearn/vocaquiz/internal/domain"
	"github.com/projectlearn/vocaquiz/internal/errors"
	"github.com/projectlearn/vocaquiz/internal/event"
	"github.com/projectlearn/vocaquiz/internal/vocab"
)

type Config struct {
	EventBus *event.Bus
	Vocab    *vocab.Store

	// Rand overrides the generator's random source, for tests.
	Rand *rand.Rand
	// FlashDelay overrides how long a wrong match stays flagged.
	FlashDelay time.Duration
}

// Service owns the live quiz sessions. All mutation goes through it so that
// concurrent requests for the same session are serialized.
type Service struct {
	eb         *event.Bus
	vocab      *vocab.Store
	flashDelay time.Duration

	mu       sync.Mutex
	gen      *Generator
	sessions map[string]*Session
}

func NewService(c Config) *Service {
	return &Service{
		eb:         c.EventBus,
		vocab:      c.Vocab,
		flashDelay: c.FlashDelay,
		gen:        NewGenerator(c.Rand),
		sessions:   make(map[string]*Session),
	}
}

type StartQuizRequest struct {
	Mode       string
	Difficulty string
}

// StartQuiz generates a fresh question set and registers a new session for it.
func (s *Service) StartQuiz(ctx context.Context, req StartQuizRequest) (*View, error) {
	mode, err := ParseMode(req.Mode)
	if err != nil {
		return nil, err
	}
	difficulty, err := ParseDifficulty(req.Difficulty)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate session ID: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	qs, turkish, err := s.generate(mode, difficulty)
	if err != nil {
		return nil, err
	}

	sess := newSession(id.String(), qs, turkish, s.flashDelay)
	s.sessions[sess.id] = sess
	return sess.Snapshot(), nil
}

// generate builds a question set plus, for matching mode, the independently
// shuffled Turkish column. Callers hold s.mu (the generator's random source
// is not safe for concurrent use).
func (s *Service) generate(mode Mode, difficulty Difficulty) (*QuestionSet, []string, error) {
	qs, err := s.gen.Generate(s.vocab.All(), mode, difficulty)
	if stderrors.Is(err, ErrEmptyCorpus) {
		return nil, nil, errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("not enough vocabulary to build a %s quiz", mode),
			errors.WithCause(err))
	}
	if err != nil {
		return nil, nil, err
	}

	var turkish []string
	if mode == ModeMatching {
		turkish = make([]string, 0, len(qs.Pairs))
		for _, p := range qs.Pairs {
			turkish = append(turkish, p.Turkish)
		}
		s.gen.rnd.Shuffle(len(turkish), func(i, j int) {
			turkish[i], turkish[j] = turkish[j], turkish[i]
		})
	}

	return qs, turkish, nil
}

type GetSessionRequest struct {
	SessionID string
}

func (s *Service) GetSession(ctx context.Context, req GetSessionRequest) (*View, error) {
	sess, err := s.session(req.SessionID)
	if err != nil {
		return nil, err
	}
	return sess.Snapshot(), nil
}

type SubmitAnswerRequest struct {
	SessionID string
	Answer    string
}

type SubmitAnswerResponse struct {
	Correct bool  `json:"correct"`
	Session *View `json:"session"`
}

// SubmitAnswer validates one multiple-choice or fill-in-blank answer and
// advances the session. Completion publishes quiz.completed.
func (s *Service) SubmitAnswer(ctx context.Context, req SubmitAnswerRequest) (*SubmitAnswerResponse, error) {
	sess, err := s.session(req.SessionID)
	if err != nil {
		return nil, err
	}

	out, err := sess.Submit(req.Answer)
	if err != nil {
		return nil, err
	}

	if out.Completed {
		s.publishCompleted(ctx, sess)
	}

	return &SubmitAnswerResponse{Correct: out.Correct, Session: sess.Snapshot()}, nil
}

type MatchPairRequest struct {
	SessionID string
	English   string
	Turkish   string
}

type MatchPairResponse struct {
	Matched bool  `json:"matched"`
	Session *View `json:"session"`
}

// MatchPair handles one matching-mode pick. A request with English selects
// that word; a request with Turkish checks it against the current selection.
func (s *Service) MatchPair(ctx context.Context, req MatchPairRequest) (*MatchPairResponse, error) {
	sess, err := s.session(req.SessionID)
	if err != nil {
		return nil, err
	}

	resp := &MatchPairResponse{}
	switch {
	case req.English != "":
		if err := sess.PickEnglish(req.English); err != nil {
			return nil, err
		}
	case req.Turkish != "":
		out, err := sess.PickTurkish(req.Turkish)
		if err != nil {
			return nil, err
		}
		resp.Matched = out.Matched
		if out.Completed {
			s.publishCompleted(ctx, sess)
		}
	default:
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("either english or turkish must be set"))
	}

	resp.Session = sess.Snapshot()
	return resp, nil
}

type RestartQuizRequest struct {
	SessionID string
}

// RestartQuiz discards the session's content and re-samples a new question
// set with the same mode and difficulty.
func (s *Service) RestartQuiz(ctx context.Context, req RestartQuizRequest) (*View, error) {
	sess, err := s.session(req.SessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	qs, turkish, err := s.generate(sess.mode, sess.difficulty)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	sess.reset(qs, turkish)
	return sess.Snapshot(), nil
}

type FinishQuizRequest struct {
	SessionID string
}

// FinishQuiz returns the final result and discards the session. It is only
// valid once the session is completed.
func (s *Service) FinishQuiz(ctx context.Context, req FinishQuizRequest) (*Result, error) {
	sess, err := s.session(req.SessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	if !sess.completed {
		sess.mu.Unlock()
		return nil, errors.New(errors.CodeFailedPrecondition,
			errors.WithMessagef("quiz is not completed yet"))
	}
	res := sess.resultLocked()
	sess.mu.Unlock()

	s.mu.Lock()
	delete(s.sessions, req.SessionID)
	s.mu.Unlock()

	return &res, nil
}

func (s *Service) session(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, errors.New(errors.CodeNotFound, errors.WithMessagef("quiz session not found: %s", id))
	}
	return sess, nil
}

func (s *Service) publishCompleted(ctx context.Context, sess *Session) {
	res := sess.Result()
	s.eb.Publish(ctx, domain.EventQuizCompleted{
		Result: domain.QuizResult{
			SessionID:   sess.id,
			Mode:        string(sess.mode),
			Difficulty:  string(sess.difficulty),
			Score:       res.Score,
			Total:       res.Total,
			Percentage:  res.Percentage,
			CompletedAt: time.Now().UTC(),
		},
	})
}
