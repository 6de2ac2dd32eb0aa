package vocab

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/projectlearn/vocaquiz/internal/domain"
)

//go:embed data/*.json
var dataFS embed.FS

// The four fixed exam categories, in display order.
var categoryFiles = []struct {
	id   string
	name string
	file string
}{
	{id: "1", name: "IELTS", file: "data/ielts.json"},
	{id: "2", name: "TOEFL", file: "data/toefl.json"},
	{id: "3", name: "YDS", file: "data/yds.json"},
	{id: "4", name: "Genel", file: "data/general.json"},
}

// Store holds the static vocabulary collections. It is read-only after Load.
type Store struct {
	categories []domain.Category
	all        []domain.WordEntry
}

// Load parses the embedded category files. Word IDs must be unique within a
// category and across the corpus, since quiz generation samples the union.
func Load() (*Store, error) {
	s := &Store{}
	seen := make(map[string]string)

	for _, cf := range categoryFiles {
		b, err := dataFS.ReadFile(cf.file)
		if err != nil {
			return nil, fmt.Errorf("vocab: read %s: %w", cf.file, err)
		}

		var doc struct {
			Words []domain.WordEntry `json:"words"`
		}
		if err := json.Unmarshal(b, &doc); err != nil {
			return nil, fmt.Errorf("vocab: parse %s: %w", cf.file, err)
		}

		if len(doc.Words) == 0 {
			return nil, fmt.Errorf("vocab: category %s has no words", cf.name)
		}

		for _, w := range doc.Words {
			if w.ID == "" || w.Word == "" || w.Meaning == "" {
				return nil, fmt.Errorf("vocab: category %s has an incomplete entry: %+v", cf.name, w)
			}
			if prev, ok := seen[w.ID]; ok {
				return nil, fmt.Errorf("vocab: duplicate word id %q in %s and %s", w.ID, prev, cf.name)
			}
			seen[w.ID] = cf.name
		}

		s.categories = append(s.categories, domain.Category{
			ID:    cf.id,
			Name:  cf.name,
			Words: doc.Words,
		})
		s.all = append(s.all, doc.Words...)
	}

	return s, nil
}

// Categories returns the categories in display order.
func (s *Store) Categories() []domain.Category {
	return s.categories
}

// Category returns the category with the given ID.
func (s *Store) Category(id string) (domain.Category, bool) {
	for _, c := range s.categories {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Category{}, false
}

// All returns a copy of the corpus, the union of all category word lists.
// Callers may reorder the returned slice freely.
func (s *Store) All() []domain.WordEntry {
	out := make([]domain.WordEntry, len(s.all))
	copy(out, s.all)
	return out
}

// Len reports the corpus size.
func (s *Store) Len() int {
	return len(s.all)
}
