package quiz

import (
	"math/rand/v2"
	"strings"
)

const maxLabels = 26

// Choice is one labeled multiple-choice option.
type Choice struct {
	Label string
	Text  string
}

// OptionMap is the label to text assignment of one presentation, in
// label order.
type OptionMap []Choice

// Lookup returns the text shown under label.
func (m OptionMap) Lookup(label string) (string, bool) {
	for _, o := range m {
		if o.Label == label {
			return o.Text, true
		}
	}
	return "", false
}

// Labels returns the labels in order.
func (m OptionMap) Labels() []string {
	labels := make([]string, len(m))
	for i, o := range m {
		labels[i] = o.Label
	}
	return labels
}

// ShuffleOptions assigns labels A, B, C... to a fresh random ordering of
// options. Options are trimmed, empty ones dropped and duplicates removed
// keeping the first occurrence.
//
// The correct label is resolved by case-insensitive text match of correct
// against the options. If nothing matches and correct is a single letter,
// it names the option at that position of the original list. Otherwise
// the returned label is empty and answers can only be matched by text.
func ShuffleOptions(options []string, correct string, rng *rand.Rand) (OptionMap, string) {
	cleaned := dedupe(options)
	rng.Shuffle(len(cleaned), func(i, j int) {
		cleaned[i], cleaned[j] = cleaned[j], cleaned[i]
	})

	m := make(OptionMap, len(cleaned))
	for i, text := range cleaned {
		m[i] = Choice{Label: string(rune('A' + i)), Text: text}
	}

	target := strings.TrimSpace(correct)
	if label := m.labelOf(target); label != "" {
		return m, label
	}
	if idx, ok := letterIndex(target); ok && idx < len(options) {
		return m, m.labelOf(strings.TrimSpace(options[idx]))
	}
	return m, ""
}

func (m OptionMap) labelOf(text string) string {
	if text == "" {
		return ""
	}
	for _, o := range m {
		if strings.EqualFold(o.Text, text) {
			return o.Label
		}
	}
	return ""
}

func dedupe(options []string) []string {
	out := make([]string, 0, len(options))
	seen := make(map[string]bool, len(options))
	for _, o := range options {
		o = strings.TrimSpace(o)
		key := strings.ToLower(o)
		if o == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, o)
		if len(out) == maxLabels {
			break
		}
	}
	return out
}

// letterIndex maps "A".."Z" (any case) to 0..25.
func letterIndex(s string) (int, bool) {
	if len(s) != 1 {
		return 0, false
	}
	c := s[0] | 0x20
	if c < 'a' || c > 'z' {
		return 0, false
	}
	return int(c - 'a'), true
}
