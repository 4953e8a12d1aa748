package quiz

import "strings"

// normalizeLabel trims, uppercases and strips a trailing period, so
// "b." and " B " both select label B.
func normalizeLabel(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	return strings.TrimSpace(strings.TrimSuffix(s, "."))
}

// matchChoice decides a multiple-choice answer. If raw names a label of
// the presentation, the text under that label is compared with the
// correct text. Otherwise raw itself is compared as option text.
func matchChoice(options OptionMap, correctText, raw string) bool {
	if chosen, ok := options.Lookup(normalizeLabel(raw)); ok {
		return strings.EqualFold(chosen, correctText)
	}
	return strings.EqualFold(strings.TrimSpace(raw), strings.TrimSpace(correctText))
}
