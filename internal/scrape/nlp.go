package scrape

import (
	"sort"
	"strings"
	"unicode"
)

var stopwords = toSet(`a about above after again against all also am an and any are as at be because been
before being below between both but by can could did do does doing down during each few for from
further had has have having he her here hers herself him himself his how i if in into is it its itself
just me more most my myself no nor not now of off on once only or other our ours ourselves out over own
said same says she should so some such than that the their theirs them themselves then there these they
this those through to too under until up us very was we were what when where which while who whom why
will with would you your yours yourself yourselves new one two year years mr mrs ms`)

func toSet(words string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(words) {
		set[w] = struct{}{}
	}
	return set
}

// tokenize lower-cases s and returns its words of 3+ characters that are not stopwords.
func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
	})
	words := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, "-")
		if len([]rune(f)) < 3 {
			continue
		}
		if _, stop := stopwords[f]; stop {
			continue
		}
		words = append(words, f)
	}
	return words
}

// topKeywords returns the n most frequent words; ties keep first-seen order.
func topKeywords(text string, n int) []string {
	words := tokenize(text)
	counts := make(map[string]int)
	var order []string
	for _, w := range words {
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > n {
		order = order[:n]
	}
	return order
}

// splitSentences breaks text on ., ! or ? followed by whitespace.
func splitSentences(text string) []string {
	var sentences []string
	var cur strings.Builder
	runes := []rune(text)
	for i, r := range runes {
		cur.WriteRune(r)
		end := r == '.' || r == '!' || r == '?'
		if end && (i+1 == len(runes) || unicode.IsSpace(runes[i+1])) || r == '\n' {
			if s := strings.TrimSpace(cur.String()); s != "" {
				sentences = append(sentences, s)
			}
			cur.Reset()
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// summarize picks up to n sentences scored by keyword frequency and title overlap,
// returned in their original order.
func summarize(title, text string, n int) string {
	sentences := splitSentences(text)
	if len(sentences) <= n {
		return strings.Join(sentences, " ")
	}

	freq := make(map[string]int)
	for _, w := range tokenize(text) {
		freq[w]++
	}
	titleWords := make(map[string]struct{})
	for _, w := range tokenize(title) {
		titleWords[w] = struct{}{}
	}

	type scored struct {
		idx   int
		score float64
	}
	ranked := make([]scored, len(sentences))
	for i, s := range sentences {
		words := tokenize(s)
		var score float64
		for _, w := range words {
			score += float64(freq[w])
			if _, ok := titleWords[w]; ok {
				score += 2
			}
		}
		if len(words) > 0 {
			score /= float64(len(words))
		}
		// Earlier sentences carry the lede.
		score *= 1 + 0.5/float64(i+1)
		ranked[i] = scored{idx: i, score: score}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	picked := ranked[:n]
	sort.Slice(picked, func(i, j int) bool { return picked[i].idx < picked[j].idx })
	out := make([]string, len(picked))
	for i, p := range picked {
		out[i] = sentences[p.idx]
	}
	return strings.Join(out, " ")
}
