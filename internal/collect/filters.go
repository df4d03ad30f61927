package collect

import (
	"errors"
	"fmt"
	"strings"

	"github.com/TobiSchelling/NewsExtractor/internal/config"
)

// ErrInvalidFilter is returned for search filters the API would reject.
var ErrInvalidFilter = errors.New("invalid search filter")

// Filters is the query sent to the article search API for one keyword.
type Filters struct {
	Keyword     string
	Domains     []string
	DomainExact bool
	Country     string
	Themes      []string
	Near        string
	Repeat      string
	NumRecords  int
}

// NewFilters combines a keyword with the configured search parameters.
func NewFilters(keyword string, sp config.SearchParameters) Filters {
	return Filters{
		Keyword:     keyword,
		Domains:     sp.Domain,
		DomainExact: sp.DomainExact,
		Country:     sp.Country,
		Themes:      sp.Theme,
		Near:        sp.Near,
		Repeat:      sp.Repeat,
		NumRecords:  sp.NumRecords,
	}
}

// Validate rejects filters that cannot produce a valid query.
func (f Filters) Validate() error {
	if strings.TrimSpace(f.Keyword) == "" {
		return fmt.Errorf("%w: empty keyword", ErrInvalidFilter)
	}
	if f.NumRecords < 1 || f.NumRecords > config.MaxRecords {
		return fmt.Errorf("%w: num_records must be between 1 and %d", ErrInvalidFilter, config.MaxRecords)
	}
	if f.Near != "" && !strings.HasPrefix(f.Near, "near") {
		return fmt.Errorf("%w: near must be a near<N>:\"...\" expression", ErrInvalidFilter)
	}
	if f.Repeat != "" && !strings.HasPrefix(f.Repeat, "repeat") && !strings.HasPrefix(f.Repeat, "(repeat") {
		return fmt.Errorf("%w: repeat must be a repeat<N>:\"...\" expression", ErrInvalidFilter)
	}
	return nil
}

// Query renders the filters in the API's query language.
func (f Filters) Query() string {
	var parts []string
	parts = append(parts, `"`+f.Keyword+`"`)

	if len(f.Domains) > 0 {
		name := "domain"
		if f.DomainExact {
			name = "domainis"
		}
		parts = append(parts, clause(name, f.Domains))
	}
	if f.Country != "" {
		parts = append(parts, clause("sourcecountry", []string{strings.ToUpper(f.Country)}))
	}
	if len(f.Themes) > 0 {
		parts = append(parts, clause("theme", f.Themes))
	}
	if f.Near != "" {
		parts = append(parts, f.Near)
	}
	if f.Repeat != "" {
		parts = append(parts, f.Repeat)
	}
	return strings.Join(parts, " ")
}

func clause(name string, values []string) string {
	if len(values) == 1 {
		return name + ":" + values[0]
	}
	terms := make([]string, len(values))
	for i, v := range values {
		terms[i] = name + ":" + v
	}
	return "(" + strings.Join(terms, " OR ") + ")"
}

// Near builds a proximity filter: the words must appear within n words of each other.
func Near(n int, words ...string) string {
	return fmt.Sprintf(`near%d:"%s"`, n, strings.Join(words, " "))
}

// Repeat builds a filter requiring word to appear at least n times.
func Repeat(n int, word string) (string, error) {
	if strings.Contains(word, " ") {
		return "", fmt.Errorf("%w: only single words can be repeated", ErrInvalidFilter)
	}
	return fmt.Sprintf(`repeat%d:"%s"`, n, word), nil
}

// RepeatTerm is one (count, word) pair for MultiRepeat.
type RepeatTerm struct {
	N    int
	Word string
}

// MultiRepeat joins several repeat filters with AND or OR.
func MultiRepeat(terms []RepeatTerm, method string) (string, error) {
	method = strings.ToUpper(method)
	if method != "AND" && method != "OR" {
		return "", fmt.Errorf("%w: method must be AND or OR", ErrInvalidFilter)
	}
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		r, err := Repeat(t.N, t.Word)
		if err != nil {
			return "", err
		}
		parts = append(parts, r)
	}
	joined := strings.Join(parts, " "+method+" ")
	if method == "OR" {
		return "(" + joined + ")", nil
	}
	return joined, nil
}
