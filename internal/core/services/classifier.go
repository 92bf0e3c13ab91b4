package services

import (
	"math"
	"strings"
	"unicode"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driving"
)

// Ensure Classifier implements the interface.
var _ driving.Classifier = (*Classifier)(nil)

// codeIndicators are language, tool and API terms. Matched as whole words,
// or as the prefix of a dotted or hyphenated word ("rust-lang", "node.js").
// Words that are common in plain English ("go", "test", "fix") are left
// out so they cannot flip a general query.
var codeIndicators = []string{
	"rust", "python", "javascript", "typescript", "java", "golang", "php",
	"ruby", "swift", "kotlin", "scala", "matlab", "sql", "haskell", "elixir",
	"code", "github", "git", "repository", "repo", "library", "api",
	"function", "class", "method", "variable", "syntax", "compiler", "interpreter",
	"package", "module", "dependency", "npm", "pip", "cargo", "maven", "gem", "nuget",
	"debug", "bug", "stacktrace", "implementation", "algorithm",
	"framework", "sdk", "ide", "vscode", "vim", "emacs", "docker", "kubernetes",
	"async", "await", "goroutine", "tokio", "regex", "json", "yaml", "http",
	"node", "django", "numpy",
}

// syntaxFragments are matched as substrings of the raw query.
var syntaxFragments = []string{
	"c++", "c#", "f#", "::", "=>", "->", "();", "#include", "func ", "fn ",
	"def ", "import ", "std::", "println!", "console.log",
}

// techIndicators hint at a technical topic without naming code.
// Two hints are needed to classify as technical.
var techIndicators = []string{
	"data structure", "data-structure", "database", "server", "client",
	"network", "security", "performance", "optimization", "cli", "command",
	"terminal", "shell", "script", "nosql", "cache", "microservice", "architecture",
	"best practices", "tutorial", "documentation", "configuration",
}

// domainKeywords drive ClassifyDomain. General keywords only score on an
// exact word match.
var domainKeywords = map[string][]string{
	domain.DomainMedical: {
		"disease", "treatment", "symptom", "doctor", "patient", "medicine", "hospital",
		"diagnosis", "therapy", "pharmacy", "health", "medical", "surgery",
		"virus", "bacteria", "pneumonia", "cancer", "heart", "brain",
	},
	domain.DomainLegal: {
		"law", "court", "judge", "attorney", "contract", "agreement", "litigation",
		"plaintiff", "defendant", "statute", "regulation", "legislation", "crime",
		"criminal", "civil", "evidence", "trial", "appeal", "jurisdiction", "liability",
	},
	domain.DomainTechnical: {
		"algorithm", "programming", "software", "hardware", "computer", "code", "data",
		"database", "network", "system", "server", "client", "api", "framework",
		"library", "debug", "compile", "runtime", "variable", "function",
	},
	domain.DomainEducation: {
		"school", "student", "teacher", "classroom", "education", "learning", "teaching",
		"curriculum", "lesson", "exam", "grade", "degree", "university", "college",
		"professor", "academic", "research", "study", "knowledge", "subject",
	},
	domain.DomainFinance: {
		"money", "bank", "investment", "stock", "bond", "loan", "credit", "interest",
		"finance", "financial", "economy", "economic", "market", "trading", "portfolio",
		"asset", "liability", "equity", "cash", "currency",
	},
	domain.DomainGeneral: {
		"hello", "hi", "goodbye", "bye", "thank", "please", "help", "question", "answer",
		"information", "know", "understand", "explain", "describe", "what", "how", "why",
		"when", "where", "who", "time", "date", "today", "yesterday", "tomorrow",
		"week", "month", "year", "weather", "temperature",
	},
}

// domainOrder fixes iteration order so ties are decided deterministically.
var domainOrder = []string{
	domain.DomainMedical, domain.DomainLegal, domain.DomainTechnical,
	domain.DomainEducation, domain.DomainFinance, domain.DomainGeneral,
}

// Classifier is the keyword-based query classifier. It is stateless and
// safe for concurrent use.
type Classifier struct{}

// NewClassifier creates a new classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify maps a query to CodeTechnical when it names any code indicator
// or at least two technical hints, and to General otherwise.
func (c *Classifier) Classify(query string) domain.ClassificationResult {
	lower := strings.ToLower(strings.TrimSpace(query))
	if lower == "" {
		return domain.ClassificationResult{Category: domain.CategoryGeneral, Confidence: 0.1}
	}
	words := cleanWords(lower)

	var matched []string
	for _, ind := range codeIndicators {
		if hasIndicatorWord(words, ind) {
			matched = append(matched, ind)
		}
	}
	for _, frag := range syntaxFragments {
		if strings.Contains(lower, frag) {
			matched = append(matched, strings.TrimSpace(frag))
		}
	}

	var hints []string
	for _, ind := range techIndicators {
		if strings.Contains(ind, " ") || strings.Contains(ind, "-") {
			if strings.Contains(lower, ind) {
				hints = append(hints, ind)
			}
			continue
		}
		if _, ok := words[ind]; ok {
			hints = append(hints, ind)
		}
	}

	switch {
	case len(matched) > 0:
		return domain.ClassificationResult{
			Category:   domain.CategoryCodeTechnical,
			Confidence: confidence(len(matched) + len(hints)/2),
			Indicators: append(matched, hints...),
		}
	case len(hints) > 1:
		return domain.ClassificationResult{
			Category:   domain.CategoryCodeTechnical,
			Confidence: confidence(len(hints) - 1),
			Indicators: hints,
		}
	default:
		return domain.ClassificationResult{Category: domain.CategoryGeneral, Confidence: 0.5}
	}
}

// ClassifyDomain returns the domain label whose keywords best match text.
// Ties and texts matching nothing resolve to general.
func (c *Classifier) ClassifyDomain(text string) string {
	words := strings.Fields(strings.ToLower(text))

	scores := make(map[string]int, len(domainOrder))
	for _, raw := range words {
		w := strings.TrimFunc(raw, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
		if w == "" {
			continue
		}
		for _, label := range domainOrder {
			for _, kw := range domainKeywords[label] {
				switch {
				case w == kw && label == domain.DomainGeneral:
					scores[label]++
				case w == kw:
					scores[label] += 2
				case label != domain.DomainGeneral && len(kw) >= 4 && strings.Contains(w, kw):
					scores[label]++
				}
			}
		}
	}

	best, bestScore, tied := domain.DomainGeneral, 0, false
	for _, label := range domainOrder {
		switch s := scores[label]; {
		case s > bestScore:
			best, bestScore, tied = label, s, false
		case s == bestScore && s > 0:
			tied = true
		}
	}
	if bestScore == 0 || tied {
		return domain.DomainGeneral
	}
	return best
}

// cleanWords splits on whitespace and trims punctuation from each word,
// keeping inner dots and hyphens.
func cleanWords(lower string) map[string]struct{} {
	fields := strings.Fields(lower)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		w := strings.TrimFunc(f, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return set
}

func hasIndicatorWord(words map[string]struct{}, ind string) bool {
	if _, ok := words[ind]; ok {
		return true
	}
	for w := range words {
		if strings.HasPrefix(w, ind+".") || strings.HasPrefix(w, ind+"-") {
			return true
		}
	}
	return false
}

func confidence(matches int) float64 {
	return math.Min(0.5+0.15*float64(matches), 0.99)
}
