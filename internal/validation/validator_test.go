package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/patrykpoborca/wondernest-go-api/internal/models"
)

func storyPayload(pageContents ...string) map[string]interface{} {
	pages := make([]interface{}, 0, len(pageContents))
	for i, content := range pageContents {
		pages = append(pages, map[string]interface{}{
			"page_number": float64(i + 1),
			"content":     content,
		})
	}
	return map[string]interface{}{"pages": pages}
}

func longEnoughPage() string {
	return strings.TrimSpace(strings.Repeat("The friendly rabbit hopped through the sunny garden today. ", 8))
}

func TestValidateTitle(t *testing.T) {
	v := New(Config{})

	require.Empty(t, v.ValidateTitle("The Friendly Rabbit"))

	errs := v.ValidateTitle("Hi")
	require.Len(t, errs, 1)
	require.Equal(t, "title", errs[0].Field)
	require.Contains(t, errs[0].Message, "too short")

	errs = v.ValidateTitle(strings.Repeat("a", 201))
	require.Len(t, errs, 1)
	require.Contains(t, errs[0].Message, "too long")

	errs = v.ValidateTitle("Title with émoji ☂")
	require.Len(t, errs, 1)
	require.Contains(t, errs[0].Message, "invalid characters")

	errs = v.ValidateTitle("The Scary Monster")
	require.Len(t, errs, 1)
	require.Contains(t, errs[0].Message, "inappropriate language")
}

func TestValidateTitleAggregatesAllViolations(t *testing.T) {
	v := New(Config{})

	// Short, invalid characters, and a flagged word at once.
	errs := v.ValidateTitle("d@mb")
	fields := make([]string, 0, len(errs))
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	require.GreaterOrEqual(t, len(errs), 2)
	require.Contains(t, fields, "title")
}

func TestValidateDescription(t *testing.T) {
	v := New(Config{})

	require.Empty(t, v.ValidateDescription("A gentle story about sharing."))

	errs := v.ValidateDescription(strings.Repeat("a", 1001))
	require.Len(t, errs, 1)
	require.Equal(t, "description", errs[0].Field)

	errs = v.ValidateDescription("A story about a ghost.")
	require.Len(t, errs, 1)
	require.Contains(t, errs[0].Message, "inappropriate language")
}

func TestScanIsCaseInsensitive(t *testing.T) {
	v := New(Config{})

	flagged := v.Scan("The SCARY Ghost appeared")
	require.ElementsMatch(t, []string{"scary", "ghost"}, flagged)
	require.Empty(t, v.Scan("A calm afternoon walk"))
}

func TestCustomBlocklist(t *testing.T) {
	v := New(Config{Blocklist: []string{"Banana", "banana", "  APPLE  "}})

	require.Equal(t, []string{"banana"}, v.Scan("I ate a banana"))
	require.Equal(t, []string{"apple"}, v.Scan("one apple"))
	// Built-in list is replaced, not merged.
	require.Empty(t, v.Scan("a scary ghost"))
}

func TestValidateStoryContent(t *testing.T) {
	v := New(Config{})

	require.Empty(t, v.ValidateContent(models.ContentTypeStory, storyPayload(longEnoughPage())))

	errs := v.ValidateContent(models.ContentTypeStory, map[string]interface{}{})
	require.Len(t, errs, 1)
	require.Equal(t, "pages", errs[0].Field)
	require.Contains(t, errs[0].Message, "'pages' array")

	errs = v.ValidateContent(models.ContentTypeStory, storyPayload())
	require.Contains(t, errs[0].Message, "at least one page")

	// Out-of-order page numbers.
	data := map[string]interface{}{
		"pages": []interface{}{
			map[string]interface{}{"page_number": float64(2), "content": longEnoughPage()},
			map[string]interface{}{"page_number": float64(1), "content": longEnoughPage()},
		},
	}
	errs = v.ValidateContent(models.ContentTypeStory, data)
	require.NotEmpty(t, errs)
	require.Contains(t, errs[0].Message, "sequential")
}

func TestValidateStoryWordLimits(t *testing.T) {
	v := New(Config{})

	errs := v.ValidateContent(models.ContentTypeStory, storyPayload("Too short."))
	require.Len(t, errs, 1)
	require.Contains(t, errs[0].Message, "too short")

	oversized := strings.Repeat("word ", 501)
	errs = v.ValidateContent(models.ContentTypeStory, storyPayload(oversized))
	require.NotEmpty(t, errs)
	require.Contains(t, errs[0].Message, "maximum word count")
}

func TestValidateInteractiveStory(t *testing.T) {
	v := New(Config{})

	choices := []interface{}{
		map[string]interface{}{"text": "Go left", "next_page": float64(2)},
		map[string]interface{}{"text": "Go right", "next_page": float64(2)},
	}
	data := map[string]interface{}{
		"pages": []interface{}{
			map[string]interface{}{"page_number": float64(1), "content": longEnoughPage(), "choices": choices},
			map[string]interface{}{"page_number": float64(2), "content": longEnoughPage()},
		},
	}
	require.Empty(t, v.ValidateContent(models.ContentTypeInteractiveStory, data))

	// A choice that points past the last page.
	data = map[string]interface{}{
		"pages": []interface{}{
			map[string]interface{}{
				"page_number": float64(1),
				"content":     longEnoughPage(),
				"choices": []interface{}{
					map[string]interface{}{"text": "Jump ahead", "next_page": float64(9)},
				},
			},
		},
	}
	errs := v.ValidateContent(models.ContentTypeInteractiveStory, data)
	require.Len(t, errs, 1)
	require.Equal(t, "choices", errs[0].Field)
	require.Contains(t, errs[0].Message, "invalid page")
}

func TestValidateInteractiveStoryChoiceLimit(t *testing.T) {
	v := New(Config{})

	choices := make([]interface{}, 0, 6)
	for i := 0; i < 6; i++ {
		choices = append(choices, map[string]interface{}{"text": "A choice", "next_page": float64(1)})
	}
	data := map[string]interface{}{
		"pages": []interface{}{
			map[string]interface{}{"page_number": float64(1), "content": longEnoughPage(), "choices": choices},
		},
	}
	errs := v.ValidateContent(models.ContentTypeInteractiveStory, data)
	require.Len(t, errs, 1)
	require.Contains(t, errs[0].Message, "too many choices")
}

func TestValidateEducationalActivity(t *testing.T) {
	v := New(Config{})

	valid := map[string]interface{}{
		"type":         "counting",
		"instructions": "Count the apples on each tree.",
		"activities": []interface{}{
			map[string]interface{}{"target_count": float64(5), "instruction": "Count to five"},
		},
	}
	require.Empty(t, v.ValidateContent(models.ContentTypeEducationalActivity, valid))

	errs := v.ValidateContent(models.ContentTypeEducationalActivity, map[string]interface{}{
		"instructions": "Count things.",
		"activities":   []interface{}{map[string]interface{}{"target_count": float64(5)}},
	})
	require.Len(t, errs, 1)
	require.Equal(t, "type", errs[0].Field)

	errs = v.ValidateContent(models.ContentTypeEducationalActivity, map[string]interface{}{
		"type":         "juggling",
		"instructions": "Juggle.",
		"activities":   []interface{}{map[string]interface{}{}},
	})
	require.NotEmpty(t, errs)
	require.Contains(t, errs[0].Message, "invalid educational activity type")
}

func TestValidateCountingBounds(t *testing.T) {
	v := New(Config{})

	data := map[string]interface{}{
		"type":         "counting",
		"instructions": "Count the stars.",
		"activities": []interface{}{
			map[string]interface{}{"target_count": float64(0)},
			map[string]interface{}{"target_count": float64(101)},
			map[string]interface{}{},
		},
	}
	errs := v.ValidateContent(models.ContentTypeEducationalActivity, data)
	require.Len(t, errs, 3)
	require.Contains(t, errs[0].Message, "invalid count")
	require.Contains(t, errs[2].Message, "missing target_count")
}

func TestValidateMatchingActivity(t *testing.T) {
	v := New(Config{})

	data := map[string]interface{}{
		"type":         "matching",
		"instructions": "Match each animal to its home.",
		"activities": []interface{}{
			map[string]interface{}{
				"left_items":  []interface{}{map[string]interface{}{"text": "bird"}, map[string]interface{}{"text": "fish"}},
				"right_items": []interface{}{map[string]interface{}{"text": "nest"}},
			},
		},
	}
	errs := v.ValidateContent(models.ContentTypeEducationalActivity, data)
	require.Len(t, errs, 1)
	require.Contains(t, errs[0].Message, "mismatched item counts")
}

func TestValidateSortingActivity(t *testing.T) {
	v := New(Config{})

	data := map[string]interface{}{
		"type":         "sorting",
		"instructions": "Sort the shapes.",
		"activities": []interface{}{
			map[string]interface{}{
				"items":      []interface{}{map[string]interface{}{"text": "circle"}, map[string]interface{}{"text": "square"}},
				"categories": []interface{}{map[string]interface{}{"name": "round"}},
			},
		},
	}
	errs := v.ValidateContent(models.ContentTypeEducationalActivity, data)
	require.Len(t, errs, 2)
	require.Contains(t, errs[0].Message, "3-15 items")
	require.Contains(t, errs[1].Message, "2-5 categories")
}

func TestValidateLearningGame(t *testing.T) {
	v := New(Config{})

	require.Empty(t, v.ValidateContent(models.ContentTypeLearningGame, map[string]interface{}{
		"game_type":    "quiz",
		"instructions": "Answer the questions about colors.",
	}))

	errs := v.ValidateContent(models.ContentTypeLearningGame, map[string]interface{}{})
	require.Len(t, errs, 1)
	require.Equal(t, "game_type", errs[0].Field)

	errs = v.ValidateContent(models.ContentTypeLearningGame, map[string]interface{}{"game_type": "gambling"})
	require.Len(t, errs, 1)
	require.Contains(t, errs[0].Message, "invalid learning game type")
}

func TestValidateUnknownContentType(t *testing.T) {
	v := New(Config{})

	errs := v.ValidateContent(models.ContentType("podcast"), map[string]interface{}{})
	require.Len(t, errs, 1)
	require.Equal(t, "content_type", errs[0].Field)
}

func TestAssessAgeAppropriateness(t *testing.T) {
	v := New(Config{})

	require.Zero(t, v.AssessAgeAppropriateness("", 48, 72))

	simple := "The cat sat. The dog ran. The sun is out."
	complex := "Notwithstanding considerable meteorological uncertainty, the expedition proceeded across the mountainous terrain undeterred by circumstance."

	simpleToddler := v.AssessAgeAppropriateness(simple, 30, 48)
	complexToddler := v.AssessAgeAppropriateness(complex, 30, 48)
	require.Greater(t, simpleToddler, complexToddler)

	// The same complex text fits an older range better.
	complexOlder := v.AssessAgeAppropriateness(complex, 120, 144)
	require.GreaterOrEqual(t, complexOlder, complexToddler)

	// Text at or under threshold scores the full 100.
	require.InDelta(t, 100, v.AssessAgeAppropriateness("The cat sat.", 48, 72), 0.001)
}

func TestGrammarHeuristic(t *testing.T) {
	require.Zero(t, grammar(""))

	punctuated := grammar("The cat sat. The dog ran.")
	require.InDelta(t, 100, punctuated, 0.001)

	// Dropping the trailing period costs half the terminal-punctuation share.
	unterminated := grammar("The cat sat. The dog ran")
	require.InDelta(t, 75, unterminated, 0.001)

	lowercase := grammar("the cat sat. the dog ran.")
	require.InDelta(t, 50, lowercase, 0.001)
}

func TestEvaluateCleanStory(t *testing.T) {
	v := New(Config{})

	report := v.Evaluate(Input{
		ContentType:        models.ContentTypeStory,
		Title:              "The Friendly Rabbit",
		Description:        "A gentle story about friendship and sharing.",
		ContentData:        storyPayload(longEnoughPage()),
		AgeRangeMinMonths:  48,
		AgeRangeMaxMonths:  72,
		EducationalGoals:   []string{"empathy", "sharing"},
		VocabularyWords:    []string{"rabbit", "garden"},
		LearningObjectives: []string{"identify feelings"},
	})

	require.True(t, report.PassedAutomatedChecks)
	require.True(t, report.RequiresHumanReview)
	require.Empty(t, report.Violations)
	require.Empty(t, report.FlaggedWords)
	require.NoError(t, report.Err())
	require.InDelta(t, 100, report.LanguageAppropriatenessScore, 0.001)
	require.Greater(t, report.OverallScore, 50.0)
}

func TestEvaluateFlaggedStory(t *testing.T) {
	v := New(Config{})

	page := longEnoughPage() + " Then a scary monster appeared in the dark."
	report := v.Evaluate(Input{
		ContentType:       models.ContentTypeStory,
		Title:             "The Scary Night",
		Description:       "A nightmare in the forest.",
		ContentData:       storyPayload(page),
		AgeRangeMinMonths: 48,
		AgeRangeMaxMonths: 72,
	})

	require.False(t, report.PassedAutomatedChecks)
	require.ElementsMatch(t, []string{"scary", "monster", "nightmare"}, report.FlaggedWords)
	require.Less(t, report.ContentSafetyScore, 100.0)
	require.Less(t, report.LanguageAppropriatenessScore, 100.0)
	require.Error(t, report.Err())

	var aggregate *Error
	require.ErrorAs(t, report.Err(), &aggregate)
	require.NotEmpty(t, aggregate.Messages())
}

func TestEvaluateCollectsAllViolations(t *testing.T) {
	v := New(Config{})

	report := v.Evaluate(Input{
		ContentType:     models.ContentTypeStory,
		Title:           "Hi",
		Description:     strings.Repeat("a", 1001),
		ContentData:     map[string]interface{}{},
		VocabularyWords: []string{""},
	})

	fields := make(map[string]bool)
	for _, violation := range report.Violations {
		fields[violation.Field] = true
	}
	require.True(t, fields["title"])
	require.True(t, fields["description"])
	require.True(t, fields["pages"])
	require.True(t, fields["vocabulary_words"])

	// Each structural violation costs ten safety points.
	require.Empty(t, report.FlaggedWords)
	require.InDelta(t, clamp(100-10*float64(len(report.Violations)), 0, 100), report.ContentSafetyScore, 0.001)
}

func TestEvaluateSuggestions(t *testing.T) {
	v := New(Config{})

	report := v.Evaluate(Input{
		ContentType:       models.ContentTypeStory,
		Title:             "A Quiet Afternoon",
		Description:       "",
		ContentData:       storyPayload(longEnoughPage()),
		AgeRangeMinMonths: 48,
		AgeRangeMaxMonths: 72,
	})

	joined := strings.Join(report.Suggestions, " ")
	require.Contains(t, joined, "educational goals")
	require.Contains(t, joined, "vocabulary words")
}
