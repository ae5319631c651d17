package skills

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	// MaxSuggestions caps how many skills a single prompt surfaces.
	MaxSuggestions = 3
	// MinScore is the floor below which a skill is not suggested.
	MinScore = 2

	keywordScore     = 2
	intentScore      = 3
	filePatternScore = 2
)

type Match struct {
	Skill       string
	Score       int
	Confidence  int
	Priority    string
	Description string
	Reasons     []string
}

type ChainMatch struct {
	Name        string
	Description string
	Order       []string
	FirstSkill  string
}

var priorityRank = map[string]int{"high": 0, "medium": 1, "low": 2}

// Suggest runs the whole pipeline: guard trivial prompts, detect a
// workflow chain, score skills, and format the message. Returns ""
// when there is nothing worth surfacing.
func Suggest(prompt string, activeFiles []string, reg *Registry) string {
	trimmed := strings.TrimSpace(prompt)
	if utf8.RuneCountInString(trimmed) < 5 || strings.HasPrefix(trimmed, "/") {
		return ""
	}
	if len(reg.Skills) == 0 {
		return ""
	}

	chain := DetectChain(prompt, reg)
	matches := FindMatches(prompt, activeFiles, reg)
	if chain != nil && chain.FirstSkill != "" {
		matches = ensureChainLead(matches, chain, reg)
	}
	if len(matches) == 0 && chain == nil {
		return ""
	}
	return formatSuggestions(matches, chain, reg)
}

// DetectChain returns the first chain whose trigger phrase appears in
// the prompt, or nil.
func DetectChain(prompt string, reg *Registry) *ChainMatch {
	lower := strings.ToLower(prompt)
	for _, chain := range reg.Chains {
		for _, phrase := range chain.TriggerPhrases {
			if phrase == "" || !strings.Contains(lower, strings.ToLower(phrase)) {
				continue
			}
			m := &ChainMatch{
				Name:        chain.Name,
				Description: chain.Description,
				Order:       chain.Order,
			}
			if len(chain.Order) > 0 {
				m.FirstSkill = chain.Order[0]
			}
			return m
		}
	}
	return nil
}

// FindMatches scores every registered skill against the prompt and
// active files, keeping those at or above MinScore. Results are sorted
// by score, then priority, capped at MaxSuggestions. Ties beyond that
// fall back to registry order.
func FindMatches(prompt string, activeFiles []string, reg *Registry) []Match {
	var matches []Match
	for _, skill := range reg.Skills {
		var score int
		var reasons []string

		if n := countKeywordMatches(prompt, skill.Keywords); n > 0 {
			capped := n
			if capped > 3 {
				capped = 3
			}
			score += keywordScore * capped
			reasons = append(reasons, fmt.Sprintf("%d keyword(s)", n))
		}

		if matchesAnyPattern(strings.ToLower(prompt), skill.IntentPatterns) {
			score += intentScore
			reasons = append(reasons, "intent match")
		}

		if len(skill.FilePatterns) > 0 && len(activeFiles) > 0 &&
			anyFileMatches(activeFiles, skill.FilePatterns) {
			score += filePatternScore
			reasons = append(reasons, "file match")
		}

		if score < MinScore {
			continue
		}

		confidence := 1
		switch {
		case score >= 7:
			confidence = 3
		case score >= 4:
			confidence = 2
		}

		matches = append(matches, Match{
			Skill:       skill.Name,
			Score:       score,
			Confidence:  confidence,
			Priority:    skill.Priority,
			Description: skill.Description,
			Reasons:     reasons,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return rankOf(matches[i].Priority) < rankOf(matches[j].Priority)
	})

	if len(matches) > MaxSuggestions {
		matches = matches[:MaxSuggestions]
	}
	return matches
}

func rankOf(priority string) int {
	if rank, ok := priorityRank[priority]; ok {
		return rank
	}
	return 1
}

// countKeywordMatches counts how many distinct keywords appear in the
// prompt as whole words, so "class" does not light up "classification".
func countKeywordMatches(prompt string, keywords []string) int {
	lower := strings.ToLower(prompt)
	var n int
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		re, err := regexp.Compile(`\b` + regexp.QuoteMeta(strings.ToLower(kw)) + `\b`)
		if err != nil {
			continue
		}
		if re.MatchString(lower) {
			n++
		}
	}
	return n
}

// matchesAnyPattern treats patterns as user-supplied regexes; ones
// that fail to compile are skipped rather than failing the whole run.
func matchesAnyPattern(text string, patterns []string) bool {
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			continue
		}
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

func anyFileMatches(files, patterns []string) bool {
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			continue
		}
		for _, f := range files {
			if re.MatchString(f) {
				return true
			}
		}
	}
	return false
}

func ensureChainLead(matches []Match, chain *ChainMatch, reg *Registry) []Match {
	for _, m := range matches {
		if m.Skill == chain.FirstSkill {
			return matches
		}
	}

	lead := Match{
		Skill:      chain.FirstSkill,
		Score:      10,
		Confidence: 3,
		Priority:   "high",
		Reasons:    []string{"chain first step"},
	}
	if s := reg.Skill(chain.FirstSkill); s != nil {
		lead.Description = s.Description
	}

	matches = append([]Match{lead}, matches...)
	if len(matches) > MaxSuggestions {
		matches = matches[:MaxSuggestions]
	}
	return matches
}

func formatSuggestions(matches []Match, chain *ChainMatch, reg *Registry) string {
	rule := strings.Repeat("═", 54)

	var b strings.Builder
	b.WriteString(rule + "\n")
	b.WriteString("SKILL SUGGESTIONS (based on your request)\n")
	b.WriteString(rule + "\n")

	if chain != nil {
		b.WriteString("\n")
		fmt.Fprintf(&b, "DETECTED WORKFLOW: %s\n", chain.Name)
		fmt.Fprintf(&b, "   %s\n", chain.Description)
		order := chain.Order
		suffix := ""
		if len(order) > 5 {
			order = order[:5]
			suffix = " → ..."
		}
		fmt.Fprintf(&b, "   Order: %s%s\n", strings.Join(order, " → "), suffix)
		fmt.Fprintf(&b, "   START WITH: /%s\n", chain.FirstSkill)
		b.WriteString("\n")
	}

	for _, m := range matches {
		level := reg.confidence(m.Confidence)
		fmt.Fprintf(&b, "%s /%s - %s\n", level.Icon, m.Skill, level.Label)
		if m.Description != "" {
			fmt.Fprintf(&b, "   └─ %s\n", m.Description)
		}
	}

	b.WriteString(strings.Repeat("─", 54) + "\n")
	b.WriteString("Invoke with /skill-name to run it directly\n")
	b.WriteString(rule)
	return b.String()
}
