package validation

import (
	"strings"
	"unicode"

	"github.com/patrykpoborca/wondernest-go-api/internal/models"
)

// Sentence and word complexity thresholds by age range, in months.
type ageThreshold struct {
	maxMonths       int
	wordsPerSentence float64
	charsPerWord     float64
}

var ageThresholds = []ageThreshold{
	{maxMonths: 48, wordsPerSentence: 8, charsPerWord: 5},
	{maxMonths: 72, wordsPerSentence: 12, charsPerWord: 6},
	{maxMonths: 96, wordsPerSentence: 15, charsPerWord: 7},
}

func thresholdsFor(ageMinMonths int) (float64, float64) {
	for _, t := range ageThresholds {
		if ageMinMonths >= 24 && ageMinMonths <= t.maxMonths {
			return t.wordsPerSentence, t.charsPerWord
		}
	}
	return 20, 8
}

// AssessAgeAppropriateness scores how well the text's sentence and word
// complexity fit the target age range, on a 0-100 scale. Empty text scores 0.
func (v *Validator) AssessAgeAppropriateness(text string, ageMinMonths, _ int) float64 {
	sentences := splitSentences(text)
	words := strings.Fields(text)
	if len(sentences) == 0 || len(words) == 0 {
		return 0
	}

	avgWordsPerSentence := float64(len(words)) / float64(len(sentences))
	totalChars := 0
	for _, w := range words {
		totalChars += len(w)
	}
	avgCharsPerWord := float64(totalChars) / float64(len(words))

	maxWords, maxChars := thresholdsFor(ageMinMonths)

	sentenceScore := ratioScore(maxWords, avgWordsPerSentence)
	wordScore := ratioScore(maxChars, avgCharsPerWord)

	return clamp((sentenceScore+wordScore)/2*100, 0, 100)
}

func ratioScore(threshold, actual float64) float64 {
	if actual <= 0 {
		return 1
	}
	if r := threshold / actual; r < 1 {
		return r
	}
	return 1
}

// Evaluate runs the full automated validation pass over a submission and
// produces a scorecard-shaped report. All rules run to completion so the
// report lists every violation found, not just the first.
func (v *Validator) Evaluate(input Input) Report {
	var violations []RuleError
	violations = append(violations, v.ValidateTitle(input.Title)...)
	violations = append(violations, v.ValidateDescription(input.Description)...)
	violations = append(violations, v.ValidateContent(input.ContentType, input.ContentData)...)
	for _, word := range input.VocabularyWords {
		violations = append(violations, v.ValidateVocabularyWord(word)...)
	}

	text := collectText(input)
	flagged := v.Scan(text)

	languageScore := clamp(100-15*float64(len(flagged)), 0, 100)
	safetyScore := clamp(100-20*float64(len(flagged))-10*float64(len(violations)), 0, 100)
	ageScore := v.AssessAgeAppropriateness(text, input.AgeRangeMinMonths, input.AgeRangeMaxMonths)
	readabilityScore := readability(text, input.AgeRangeMinMonths)
	grammarScore := grammar(text)
	educationalScore := educationalValue(input)

	overall := (languageScore + safetyScore + ageScore + readabilityScore + grammarScore + educationalScore) / 6

	return Report{
		LanguageAppropriatenessScore: languageScore,
		ContentSafetyScore:           safetyScore,
		AgeAppropriatenessScore:      ageScore,
		ReadabilityScore:             readabilityScore,
		GrammarScore:                 grammarScore,
		EducationalValueScore:        educationalScore,
		OverallScore:                 overall,
		FlaggedWords:                 flagged,
		Violations:                   violations,
		Suggestions:                  suggestions(flagged, violations, input),
		PassedAutomatedChecks:        len(violations) == 0,
		RequiresHumanReview:          true,
	}
}

// collectText gathers every reader-visible string from the submission so the
// language, age and readability checks see the same corpus the child would.
func collectText(input Input) string {
	var parts []string
	if input.Title != "" {
		parts = append(parts, input.Title)
	}
	if input.Description != "" {
		parts = append(parts, input.Description)
	}

	if pages, ok := input.ContentData["pages"].([]interface{}); ok {
		for _, rawPage := range pages {
			page, ok := rawPage.(map[string]interface{})
			if !ok {
				continue
			}
			if content, ok := page["content"].(string); ok {
				parts = append(parts, content)
			}
			if choices, ok := page["choices"].([]interface{}); ok {
				for _, rawChoice := range choices {
					if text := itemText(rawChoice, "text"); text != "" {
						parts = append(parts, text)
					}
				}
			}
		}
	}

	if instructions, ok := input.ContentData["instructions"].(string); ok {
		parts = append(parts, instructions)
	}
	if activities, ok := input.ContentData["activities"].([]interface{}); ok {
		for _, rawActivity := range activities {
			activity, ok := rawActivity.(map[string]interface{})
			if !ok {
				continue
			}
			if instruction, ok := activity["instruction"].(string); ok {
				parts = append(parts, instruction)
			}
			for _, key := range []string{"items", "left_items", "right_items"} {
				items, ok := activity[key].([]interface{})
				if !ok {
					continue
				}
				for _, item := range items {
					if text := itemText(item, "text"); text != "" {
						parts = append(parts, text)
					}
				}
			}
		}
	}

	return strings.Join(parts, " ")
}

func readability(text string, ageMinMonths int) float64 {
	sentences := splitSentences(text)
	words := strings.Fields(text)
	if len(sentences) == 0 || len(words) == 0 {
		return 0
	}
	avgWordsPerSentence := float64(len(words)) / float64(len(sentences))
	maxWords, _ := thresholdsFor(ageMinMonths)
	return clamp(ratioScore(maxWords, avgWordsPerSentence)*100, 0, 100)
}

// grammar is a shallow heuristic: the share of sentences that start with a
// capital letter plus the share that carry terminal punctuation. It exists to
// surface obviously unedited text, not to parse.
func grammar(text string) float64 {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return 0
	}

	capitalized := 0
	for _, s := range sentences {
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			continue
		}
		first := []rune(trimmed)[0]
		if unicode.IsUpper(first) || unicode.IsDigit(first) {
			capitalized++
		}
	}

	terminators := 0
	for _, r := range text {
		if r == '.' || r == '!' || r == '?' {
			terminators++
		}
	}
	terminated := terminators
	if terminated > len(sentences) {
		terminated = len(sentences)
	}

	capitalRatio := float64(capitalized) / float64(len(sentences))
	terminalRatio := float64(terminated) / float64(len(sentences))
	return clamp(50*capitalRatio+50*terminalRatio, 0, 100)
}

func educationalValue(input Input) float64 {
	score := 20.0
	score += 15 * float64(min(len(input.EducationalGoals), 3))
	score += 5 * float64(min(len(input.VocabularyWords), 4))
	score += 5 * float64(min(len(input.LearningObjectives), 3))
	return clamp(score, 0, 100)
}

func suggestions(flagged []string, violations []RuleError, input Input) []string {
	var out []string
	if len(flagged) > 0 {
		out = append(out, "Remove or replace flagged words: "+strings.Join(flagged, ", "))
	}
	if len(violations) > 0 {
		out = append(out, "Fix the reported content structure issues before resubmitting")
	}
	if len(input.EducationalGoals) == 0 {
		out = append(out, "Add educational goals to clarify the learning intent")
	}
	if len(input.VocabularyWords) == 0 && (input.ContentType == models.ContentTypeStory || input.ContentType == models.ContentTypeInteractiveStory) {
		out = append(out, "Consider highlighting vocabulary words for the target age range")
	}
	return out
}

func splitSentences(text string) []string {
	raw := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	sentences := make([]string, 0, len(raw))
	for _, s := range raw {
		if strings.TrimSpace(s) != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
