package validation

import "strings"

// defaultBlocklist is the built-in word block-list for children's content.
// Deployments extend it through Config; the validator never mutates it.
var defaultBlocklist = []string{
	"hate", "stupid", "dumb", "kill", "die", "death", "blood", "violence",
	"scary", "nightmare", "monster", "ghost", "demon", "devil",
}

// DefaultBlocklist returns a copy of the built-in block-list.
func DefaultBlocklist() []string {
	list := make([]string, len(defaultBlocklist))
	copy(list, defaultBlocklist)
	return list
}

func normalizeBlocklist(words []string) []string {
	normalized := make([]string, 0, len(words))
	seen := make(map[string]struct{}, len(words))
	for _, word := range words {
		cleaned := strings.ToLower(strings.TrimSpace(word))
		if cleaned == "" {
			continue
		}
		if _, ok := seen[cleaned]; ok {
			continue
		}
		seen[cleaned] = struct{}{}
		normalized = append(normalized, cleaned)
	}
	return normalized
}
