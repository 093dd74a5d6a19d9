// Package validation implements the deterministic rule engine that checks a
// content payload's structural correctness and surface-level safety for a
// given content type and age range. It performs no I/O; the word block-list is
// supplied once at construction and never mutated.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/patrykpoborca/wondernest-go-api/internal/models"
)

// Content length limits enforced by the validator.
const (
	TitleMinLength    = 5
	TitleMaxLength    = 200
	DescriptionMax    = 1000
	StoryMinWords     = 50
	StoryMaxWords     = 5000
	PageMaxWords      = 500
	MaxPages          = 50
	MaxChoicesPerPage = 5
	MaxActivities     = 20
	MaxVocabularyLen  = 50
)

var titlePattern = regexp.MustCompile(`^[a-zA-Z0-9\s\-'.,!?]+$`)

var activityTypes = map[string]struct{}{
	"matching":        {},
	"counting":        {},
	"sorting":         {},
	"fill_in_blank":   {},
	"multiple_choice": {},
}

var gameTypes = map[string]struct{}{
	"memory":    {},
	"puzzle":    {},
	"quiz":      {},
	"word_game": {},
	"math_game": {},
}

// Config carries the immutable validator configuration.
type Config struct {
	// Blocklist overrides the built-in word block-list when non-empty.
	Blocklist []string
	// ExtraWords are appended to the block-list regardless of origin.
	ExtraWords []string
}

// Validator is the stateless content rule engine.
type Validator struct {
	blocklist []string
}

// New constructs a Validator from the supplied configuration.
func New(cfg Config) *Validator {
	words := cfg.Blocklist
	if len(words) == 0 {
		words = DefaultBlocklist()
	}
	words = append(words, cfg.ExtraWords...)
	return &Validator{blocklist: normalizeBlocklist(words)}
}

// Input bundles everything the validator needs for a full evaluation pass.
type Input struct {
	ContentType        models.ContentType
	Title              string
	Description        string
	ContentData        map[string]interface{}
	AgeRangeMinMonths  int
	AgeRangeMaxMonths  int
	EducationalGoals   []string
	VocabularyWords    []string
	LearningObjectives []string
}

// Scan returns the block-list entries found in the text, case-insensitively.
func (v *Validator) Scan(text string) []string {
	lowered := strings.ToLower(text)
	var matches []string
	for _, word := range v.blocklist {
		if strings.Contains(lowered, word) {
			matches = append(matches, word)
		}
	}
	return matches
}

// ValidateTitle checks title length, character set and language safety.
func (v *Validator) ValidateTitle(title string) []RuleError {
	title = strings.TrimSpace(title)
	var errs []RuleError

	if len(title) < TitleMinLength {
		errs = append(errs, RuleError{Field: "title", Message: fmt.Sprintf("too short (minimum %d characters)", TitleMinLength)})
	}
	if len(title) > TitleMaxLength {
		errs = append(errs, RuleError{Field: "title", Message: fmt.Sprintf("too long (maximum %d characters)", TitleMaxLength)})
	}
	if title != "" && !titlePattern.MatchString(title) {
		errs = append(errs, RuleError{Field: "title", Message: "contains invalid characters"})
	}
	if flagged := v.Scan(title); len(flagged) > 0 {
		errs = append(errs, RuleError{Field: "title", Message: "contains inappropriate language"})
	}
	return errs
}

// ValidateDescription checks description length and language safety.
func (v *Validator) ValidateDescription(description string) []RuleError {
	var errs []RuleError
	if len(description) > DescriptionMax {
		errs = append(errs, RuleError{Field: "description", Message: fmt.Sprintf("too long (maximum %d characters)", DescriptionMax)})
	}
	if flagged := v.Scan(description); len(flagged) > 0 {
		errs = append(errs, RuleError{Field: "description", Message: "contains inappropriate language"})
	}
	return errs
}

// ValidateVocabularyWord checks a single vocabulary entry.
func (v *Validator) ValidateVocabularyWord(word string) []RuleError {
	var errs []RuleError
	if strings.TrimSpace(word) == "" {
		errs = append(errs, RuleError{Field: "vocabulary_words", Message: "vocabulary word cannot be empty"})
		return errs
	}
	if len(word) > MaxVocabularyLen {
		errs = append(errs, RuleError{Field: "vocabulary_words", Message: fmt.Sprintf("vocabulary word %q too long", truncate(word, 20))})
	}
	for _, r := range word {
		if !unicode.IsLetter(r) && !unicode.IsSpace(r) && r != '-' && r != '\'' {
			errs = append(errs, RuleError{Field: "vocabulary_words", Message: fmt.Sprintf("vocabulary word %q contains invalid characters", truncate(word, 20))})
			break
		}
	}
	if flagged := v.Scan(word); len(flagged) > 0 {
		errs = append(errs, RuleError{Field: "vocabulary_words", Message: fmt.Sprintf("vocabulary word %q contains inappropriate language", truncate(word, 20))})
	}
	return errs
}

// ValidateContent dispatches structural validation by content type and
// aggregates every violation instead of stopping at the first.
func (v *Validator) ValidateContent(contentType models.ContentType, data map[string]interface{}) []RuleError {
	switch contentType {
	case models.ContentTypeStory:
		errs, _ := v.validateStory(data)
		return errs
	case models.ContentTypeInteractiveStory:
		return v.validateInteractiveStory(data)
	case models.ContentTypeEducationalActivity:
		return v.validateEducationalActivity(data)
	case models.ContentTypeLearningGame:
		return v.validateLearningGame(data)
	default:
		return []RuleError{{Field: "content_type", Message: fmt.Sprintf("invalid content type %q", string(contentType))}}
	}
}

func (v *Validator) validateStory(data map[string]interface{}) ([]RuleError, []map[string]interface{}) {
	var errs []RuleError

	rawPages, ok := data["pages"].([]interface{})
	if !ok {
		return append(errs, RuleError{Field: "pages", Message: "story content must have a 'pages' array"}), nil
	}
	if len(rawPages) == 0 {
		return append(errs, RuleError{Field: "pages", Message: "story must have at least one page"}), nil
	}
	if len(rawPages) > MaxPages {
		errs = append(errs, RuleError{Field: "pages", Message: fmt.Sprintf("story cannot have more than %d pages", MaxPages)})
	}

	pages := make([]map[string]interface{}, 0, len(rawPages))
	totalWords := 0
	for idx, rawPage := range rawPages {
		page, ok := rawPage.(map[string]interface{})
		if !ok {
			errs = append(errs, RuleError{Field: "pages", Message: fmt.Sprintf("page %d is not an object", idx+1)})
			continue
		}
		pages = append(pages, page)

		number, ok := asInt(page["page_number"])
		if !ok {
			errs = append(errs, RuleError{Field: "pages", Message: fmt.Sprintf("page %d missing page_number", idx+1)})
		} else if number != idx+1 {
			errs = append(errs, RuleError{Field: "pages", Message: "page numbers must be sequential starting from 1"})
		}

		content, ok := page["content"].(string)
		if !ok {
			errs = append(errs, RuleError{Field: "pages", Message: fmt.Sprintf("page %d missing content", idx+1)})
			continue
		}
		if strings.TrimSpace(content) == "" {
			errs = append(errs, RuleError{Field: "pages", Message: fmt.Sprintf("page %d has empty content", idx+1)})
			continue
		}

		words := len(strings.Fields(content))
		if words > PageMaxWords {
			errs = append(errs, RuleError{Field: "pages", Message: fmt.Sprintf("page %d exceeds maximum word count (%d words)", idx+1, PageMaxWords)})
		}
		totalWords += words

		if flagged := v.Scan(content); len(flagged) > 0 {
			errs = append(errs, RuleError{Field: "pages", Message: fmt.Sprintf("page %d contains inappropriate language", idx+1)})
		}

		if vocab, ok := page["vocabulary_words"].([]interface{}); ok {
			for _, entry := range vocab {
				if word, ok := entry.(string); ok {
					errs = append(errs, v.ValidateVocabularyWord(word)...)
				}
			}
		}
	}

	if totalWords < StoryMinWords {
		errs = append(errs, RuleError{Field: "pages", Message: fmt.Sprintf("story too short (minimum %d words)", StoryMinWords)})
	}
	if totalWords > StoryMaxWords {
		errs = append(errs, RuleError{Field: "pages", Message: fmt.Sprintf("story too long (maximum %d words)", StoryMaxWords)})
	}

	return errs, pages
}

func (v *Validator) validateInteractiveStory(data map[string]interface{}) []RuleError {
	errs, pages := v.validateStory(data)

	for idx, page := range pages {
		choices, ok := page["choices"].([]interface{})
		if !ok {
			continue
		}
		if len(choices) > MaxChoicesPerPage {
			errs = append(errs, RuleError{Field: "choices", Message: fmt.Sprintf("page %d has too many choices (maximum %d)", idx+1, MaxChoicesPerPage)})
		}
		for _, rawChoice := range choices {
			choice, ok := rawChoice.(map[string]interface{})
			if !ok {
				errs = append(errs, RuleError{Field: "choices", Message: fmt.Sprintf("page %d has a malformed choice", idx+1)})
				continue
			}
			text, ok := choice["text"].(string)
			if !ok || strings.TrimSpace(text) == "" {
				errs = append(errs, RuleError{Field: "choices", Message: fmt.Sprintf("page %d has a choice missing text", idx+1)})
			} else if flagged := v.Scan(text); len(flagged) > 0 {
				errs = append(errs, RuleError{Field: "choices", Message: fmt.Sprintf("page %d has a choice with inappropriate language", idx+1)})
			}
			if next, ok := asInt(choice["next_page"]); ok {
				if next < 1 || next > len(pages) {
					errs = append(errs, RuleError{Field: "choices", Message: fmt.Sprintf("page %d has a choice referencing invalid page %d", idx+1, next)})
				}
			}
		}
	}

	return errs
}

func (v *Validator) validateEducationalActivity(data map[string]interface{}) []RuleError {
	var errs []RuleError

	activityType, _ := data["type"].(string)
	if activityType == "" {
		errs = append(errs, RuleError{Field: "type", Message: "educational activity must have a 'type' field"})
	} else if _, ok := activityTypes[activityType]; !ok {
		errs = append(errs, RuleError{Field: "type", Message: fmt.Sprintf("invalid educational activity type %q", activityType)})
	}

	instructions, _ := data["instructions"].(string)
	if strings.TrimSpace(instructions) == "" {
		errs = append(errs, RuleError{Field: "instructions", Message: "educational activity must have instructions"})
	} else if flagged := v.Scan(instructions); len(flagged) > 0 {
		errs = append(errs, RuleError{Field: "instructions", Message: "instructions contain inappropriate language"})
	}

	activities, ok := data["activities"].([]interface{})
	if !ok {
		return append(errs, RuleError{Field: "activities", Message: "educational activity must have an 'activities' array"})
	}
	if len(activities) == 0 {
		return append(errs, RuleError{Field: "activities", Message: "educational activity must have at least one activity"})
	}
	if len(activities) > MaxActivities {
		errs = append(errs, RuleError{Field: "activities", Message: fmt.Sprintf("too many activities (maximum %d)", MaxActivities)})
	}

	switch activityType {
	case "matching":
		errs = append(errs, v.validateMatchingActivities(activities)...)
	case "counting":
		errs = append(errs, v.validateCountingActivities(activities)...)
	case "sorting":
		errs = append(errs, v.validateSortingActivities(activities)...)
	}

	return errs
}

func (v *Validator) validateMatchingActivities(activities []interface{}) []RuleError {
	var errs []RuleError
	for idx, raw := range activities {
		activity, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		left, leftOK := activity["left_items"].([]interface{})
		if !leftOK {
			errs = append(errs, RuleError{Field: "activities", Message: fmt.Sprintf("matching activity %d missing left_items", idx+1)})
		}
		right, rightOK := activity["right_items"].([]interface{})
		if !rightOK {
			errs = append(errs, RuleError{Field: "activities", Message: fmt.Sprintf("matching activity %d missing right_items", idx+1)})
		}
		if !leftOK || !rightOK {
			continue
		}
		if len(left) != len(right) {
			errs = append(errs, RuleError{Field: "activities", Message: fmt.Sprintf("matching activity %d has mismatched item counts", idx+1)})
		}
		if len(left) > 10 {
			errs = append(errs, RuleError{Field: "activities", Message: fmt.Sprintf("matching activity %d has too many items (max 10)", idx+1)})
		}
		for _, item := range append(append([]interface{}{}, left...), right...) {
			if text := itemText(item, "text"); text != "" {
				if flagged := v.Scan(text); len(flagged) > 0 {
					errs = append(errs, RuleError{Field: "activities", Message: fmt.Sprintf("matching activity %d has an item with inappropriate language", idx+1)})
				}
			}
		}
	}
	return errs
}

func (v *Validator) validateCountingActivities(activities []interface{}) []RuleError {
	var errs []RuleError
	for idx, raw := range activities {
		activity, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		count, ok := asInt(activity["target_count"])
		if !ok {
			errs = append(errs, RuleError{Field: "activities", Message: fmt.Sprintf("counting activity %d missing target_count", idx+1)})
		} else if count < 1 || count > 100 {
			errs = append(errs, RuleError{Field: "activities", Message: fmt.Sprintf("counting activity %d has invalid count (1-100)", idx+1)})
		}
		if instruction, ok := activity["instruction"].(string); ok {
			if flagged := v.Scan(instruction); len(flagged) > 0 {
				errs = append(errs, RuleError{Field: "activities", Message: fmt.Sprintf("counting activity %d has an instruction with inappropriate language", idx+1)})
			}
		}
	}
	return errs
}

func (v *Validator) validateSortingActivities(activities []interface{}) []RuleError {
	var errs []RuleError
	for idx, raw := range activities {
		activity, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		items, ok := activity["items"].([]interface{})
		if !ok {
			errs = append(errs, RuleError{Field: "activities", Message: fmt.Sprintf("sorting activity %d missing items", idx+1)})
		} else if len(items) < 3 || len(items) > 15 {
			errs = append(errs, RuleError{Field: "activities", Message: fmt.Sprintf("sorting activity %d must have 3-15 items", idx+1)})
		}
		categories, ok := activity["categories"].([]interface{})
		if !ok {
			errs = append(errs, RuleError{Field: "activities", Message: fmt.Sprintf("sorting activity %d missing categories", idx+1)})
		} else if len(categories) < 2 || len(categories) > 5 {
			errs = append(errs, RuleError{Field: "activities", Message: fmt.Sprintf("sorting activity %d must have 2-5 categories", idx+1)})
		}
		for _, item := range items {
			if text := itemText(item, "text"); text != "" {
				if flagged := v.Scan(text); len(flagged) > 0 {
					errs = append(errs, RuleError{Field: "activities", Message: fmt.Sprintf("sorting activity %d has an item with inappropriate language", idx+1)})
				}
			}
		}
		for _, category := range categories {
			if name := itemText(category, "name"); name != "" {
				if flagged := v.Scan(name); len(flagged) > 0 {
					errs = append(errs, RuleError{Field: "activities", Message: fmt.Sprintf("sorting activity %d has a category with inappropriate language", idx+1)})
				}
			}
		}
	}
	return errs
}

func (v *Validator) validateLearningGame(data map[string]interface{}) []RuleError {
	var errs []RuleError

	gameType, _ := data["game_type"].(string)
	if gameType == "" {
		errs = append(errs, RuleError{Field: "game_type", Message: "learning game must have a 'game_type' field"})
	} else if _, ok := gameTypes[gameType]; !ok {
		errs = append(errs, RuleError{Field: "game_type", Message: fmt.Sprintf("invalid learning game type %q", gameType)})
	}

	if instructions, ok := data["instructions"].(string); ok {
		if flagged := v.Scan(instructions); len(flagged) > 0 {
			errs = append(errs, RuleError{Field: "instructions", Message: "instructions contain inappropriate language"})
		}
	}

	return errs
}

func asInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case float64:
		return int(v), true
	case float32:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	case uint64:
		return int(v), true
	default:
		return 0, false
	}
}

func itemText(item interface{}, key string) string {
	object, ok := item.(map[string]interface{})
	if !ok {
		return ""
	}
	text, _ := object[key].(string)
	return text
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
