package quiz

import (
	stderrors "errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/projectlearn/vocaquiz/internal/domain"
)

// ErrEmptyCorpus is returned when no questions can be generated, either
// because the corpus is empty or because no word has a usable example.
var ErrEmptyCorpus = stderrors.New("quiz: no questions can be generated from the corpus")

// blankGlyph masks the answer in fill-in-blank sentences, one glyph per rune
// of the hidden word.
const blankGlyph = "•"

// Generator samples words from the corpus into question sets. It has no state
// besides its random source; generating twice with the same inputs produces
// different sets unless the source is reset.
type Generator struct {
	rnd *rand.Rand
}

// NewGenerator creates a generator. A nil rnd falls back to a randomly seeded
// source; tests pass a fixed seed.
func NewGenerator(rnd *rand.Rand) *Generator {
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Generator{rnd: rnd}
}

// QuestionSet is one generated quiz. Exactly one of the three question slices
// is populated, depending on Mode.
type QuestionSet struct {
	Mode       Mode
	Difficulty Difficulty

	MultipleChoice []domain.MultipleChoiceQuestion
	FillInBlank    []domain.FillInBlankQuestion
	Pairs          []domain.MatchingPair
}

// Total is the number of questions, or pairs in matching mode.
func (qs *QuestionSet) Total() int {
	switch qs.Mode {
	case ModeMatching:
		return len(qs.Pairs)
	case ModeFillInBlank:
		return len(qs.FillInBlank)
	default:
		return len(qs.MultipleChoice)
	}
}

// Generate samples up to questionCount(difficulty) words without replacement
// and derives one question per word. No two questions in a set share a source
// word ID.
func (g *Generator) Generate(corpus []domain.WordEntry, mode Mode, difficulty Difficulty) (*QuestionSet, error) {
	if len(corpus) == 0 {
		return nil, ErrEmptyCorpus
	}

	questionCount, optionCount := difficultyParams(difficulty)

	words := make([]domain.WordEntry, len(corpus))
	copy(words, corpus)
	g.rnd.Shuffle(len(words), func(i, j int) {
		words[i], words[j] = words[j], words[i]
	})

	qs := &QuestionSet{Mode: mode, Difficulty: difficulty}

	switch mode {
	case ModeMatching:
		sample := words
		if len(sample) > questionCount {
			sample = sample[:questionCount]
		}
		for _, w := range sample {
			qs.Pairs = append(qs.Pairs, domain.MatchingPair{English: w.Word, Turkish: w.Meaning})
		}

	case ModeFillInBlank:
		// Words whose example has no whole-word occurrence of the answer
		// cannot be blanked; skip them and keep sampling from the shuffled
		// corpus until the set is full or the corpus runs out.
		for _, w := range words {
			if len(qs.FillInBlank) == questionCount {
				break
			}
			blanked, ok := maskExample(w.Example, w.Word)
			if !ok {
				continue
			}
			qs.FillInBlank = append(qs.FillInBlank, domain.FillInBlankQuestion{
				ID:             w.ID,
				CorrectAnswer:  w.Word,
				BlankedExample: blanked,
			})
		}
		if len(qs.FillInBlank) == 0 {
			return nil, fmt.Errorf("fill-in-blank: %w", ErrEmptyCorpus)
		}

	case ModeMultipleChoice:
		sample := words
		if len(sample) > questionCount {
			sample = sample[:questionCount]
		}
		for _, w := range sample {
			qs.MultipleChoice = append(qs.MultipleChoice, domain.MultipleChoiceQuestion{
				ID:            w.ID,
				Prompt:        w.Word,
				CorrectAnswer: w.Meaning,
				Options:       g.options(corpus, w, optionCount),
			})
		}

	default:
		return nil, fmt.Errorf("quiz: unknown mode %q", mode)
	}

	return qs, nil
}

// options builds the shuffled option list for one multiple-choice question:
// the correct meaning plus up to optionCount-1 distinct distractor meanings
// drawn from other words. A small corpus yields a shorter list.
func (g *Generator) options(corpus []domain.WordEntry, w domain.WordEntry, optionCount int) []string {
	pool := make([]domain.WordEntry, len(corpus))
	copy(pool, corpus)
	g.rnd.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	seen := map[string]bool{w.Meaning: true}
	opts := make([]string, 0, optionCount)
	for _, o := range pool {
		if len(opts) == optionCount-1 {
			break
		}
		if o.ID == w.ID || seen[o.Meaning] {
			continue
		}
		seen[o.Meaning] = true
		opts = append(opts, o.Meaning)
	}

	opts = append(opts, w.Meaning)
	g.rnd.Shuffle(len(opts), func(i, j int) {
		opts[i], opts[j] = opts[j], opts[i]
	})
	return opts
}

// maskExample replaces the first case-insensitive whole-word occurrence of
// word in example with blank glyphs of the same rune length. Reports false
// when the sentence cannot be blanked.
func maskExample(example, word string) (string, bool) {
	if example == "" || word == "" {
		return "", false
	}

	re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(word) + `\b`)
	if err != nil {
		return "", false
	}

	loc := re.FindStringIndex(example)
	if loc == nil {
		return "", false
	}

	mask := strings.Repeat(blankGlyph, utf8.RuneCountInString(word))
	return example[:loc[0]] + mask + example[loc[1]:], true
}
