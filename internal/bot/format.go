package bot

import (
	"fmt"
	"html"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/abhisek/calcbot/internal/quiz"
	"github.com/abhisek/calcbot/internal/store"
)

// maxMessageRunes is Telegram's message length limit.
const maxMessageRunes = 4096

const answerPrefix = "ans:"

func escape(s string) string {
	return html.EscapeString(s)
}

func code(s string) string {
	return "<code>" + escape(s) + "</code>"
}

// tagReserve is room kept in each chunk of HTML text for the tags closed
// and reopened around a cut.
const tagReserve = 64

// ChunkText splits HTML text into pieces of at most max runes, breaking on
// line boundaries where possible. A single line longer than max is split
// mid-line, never inside a tag or an entity. Tags open at a cut are closed
// at the end of the chunk and reopened at the start of the next one.
func ChunkText(text string, max int) []string {
	if utf8.RuneCountInString(text) <= max {
		return []string{text}
	}
	limit := max
	if strings.Contains(text, "<") {
		limit -= min(tagReserve, max/4)
	}

	var (
		chunks []string
		cur    strings.Builder
		n      int
	)
	flush := func() {
		if n > 0 {
			chunks = append(chunks, strings.TrimRight(cur.String(), "\n"))
		}
		cur.Reset()
		n = 0
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		size := utf8.RuneCountInString(line)
		if n+size > limit {
			flush()
		}
		for size > limit {
			runes := []rune(line)
			cut := safeCut(runes, limit)
			chunks = append(chunks, string(runes[:cut]))
			line = string(runes[cut:])
			size -= cut
		}
		cur.WriteString(line)
		n += size
	}
	flush()
	return balanceTags(chunks)
}

// safeCut returns the largest position no greater than limit that is not
// inside a tag or an entity, or limit when there is none.
func safeCut(runes []rune, limit int) int {
	var (
		best            int
		inTag, inEntity bool
	)
	for i := 0; i <= limit && i < len(runes); i++ {
		if !inTag && !inEntity {
			best = i
		}
		switch r := runes[i]; {
		case inTag:
			inTag = r != '>'
		case inEntity:
			inEntity = r != ';' && !unicode.IsSpace(r)
		case r == '<':
			inTag = true
		case r == '&':
			inEntity = true
		}
	}
	if best == 0 {
		return limit
	}
	return best
}

// balanceTags closes the tags left open at the end of each chunk and
// reopens them at the start of the next.
func balanceTags(chunks []string) []string {
	var open []string
	for i, c := range chunks {
		prefix := strings.Join(open, "")
		open = trackTags(c, open)
		var suffix strings.Builder
		for j := len(open) - 1; j >= 0; j-- {
			suffix.WriteString("</" + tagName(open[j]) + ">")
		}
		chunks[i] = prefix + c + suffix.String()
	}
	return chunks
}

// trackTags applies the tags in s to the stack of open tags.
func trackTags(s string, open []string) []string {
	open = slices.Clone(open)
	for {
		i := strings.IndexByte(s, '<')
		if i < 0 {
			return open
		}
		j := strings.IndexByte(s[i:], '>')
		if j < 0 {
			return open
		}
		tag := s[i : i+j+1]
		s = s[i+j+1:]

		name, closing := strings.CutPrefix(tag, "</")
		if !closing {
			open = append(open, tag)
			continue
		}
		name = strings.TrimSuffix(name, ">")
		for k := len(open) - 1; k >= 0; k-- {
			if tagName(open[k]) == name {
				open = open[:k]
				break
			}
		}
	}
}

func tagName(openTag string) string {
	name := strings.TrimSuffix(strings.TrimPrefix(openTag, "<"), ">")
	if i := strings.IndexAny(name, " \t"); i >= 0 {
		name = name[:i]
	}
	return name
}

// parseCommand splits "/name@bot rest" or "!name rest" into the lowercase
// name and the remaining text.
func parseCommand(text string) (name, rest string, ok bool) {
	text = strings.TrimSpace(text)
	if len(text) < 2 || (text[0] != '/' && text[0] != '!') {
		return "", "", false
	}
	head, rest, _ := strings.Cut(text[1:], " ")
	if i := strings.IndexAny(head, "\n\t"); i >= 0 {
		rest = head[i+1:] + " " + rest
		head = head[:i]
	}
	head, _, _ = strings.Cut(head, "@")
	if head == "" {
		return "", "", false
	}
	return strings.ToLower(head), strings.TrimSpace(rest), true
}

func splitArgs(rest string) []string {
	return strings.Fields(rest)
}

// parseAnswerData splits "ans:<question id>:<label>" callback data.
func parseAnswerData(data string) (questionID, label string, ok bool) {
	rest, ok := strings.CutPrefix(data, answerPrefix)
	if !ok {
		return "", "", false
	}
	i := strings.LastIndexByte(rest, ':')
	if i <= 0 || i == len(rest)-1 {
		return "", "", false
	}
	return rest[:i], rest[i+1:], true
}

// answerKeyboard builds one button per option. Each button carries the
// question id so a tap on an old keyboard cannot answer a later question.
func answerKeyboard(questionID string, options quiz.OptionMap) tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(options))
	for _, o := range options {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(o.Label, answerPrefix+questionID+":"+o.Label))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func formatQuestion(p *quiz.Presentation) string {
	q := p.Question
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>Question %d of %d</b> (ID: %s)\n\n", p.Number, p.Total, code(q.ID))
	sb.WriteString(escape(q.Text))
	sb.WriteString("\n")

	if len(p.Options) > 0 {
		sb.WriteString("\n")
		for _, o := range p.Options {
			fmt.Fprintf(&sb, "<b>%s.</b> %s\n", o.Label, escape(o.Text))
		}
	}

	fmt.Fprintf(&sb, "\n<i>Unit %d | Skill %s | %s | %s | Calculator: %s</i>\n",
		q.Unit, escape(q.SkillID), q.Difficulty, q.Kind, yesNo(q.Calculator))
	if q.Kind == store.KindMCQ {
		sb.WriteString("Tap a letter or reply with /answer &lt;letter or text&gt;.")
	} else {
		sb.WriteString("Reply with /answer &lt;your answer&gt;.")
	}
	return sb.String()
}

func formatVerdict(v *quiz.Verdict) string {
	var sb strings.Builder
	if v.Correct {
		sb.WriteString("✅ <b>Correct!</b>")
	} else {
		sb.WriteString("❌ <b>Incorrect.</b>")
	}
	fmt.Fprintf(&sb, " (%s)\n", code(v.QuestionID))

	if v.Feedback != "" {
		fmt.Fprintf(&sb, "\n<b>Feedback:</b> %s\n", escape(v.Feedback))
	}
	if v.Note != "" {
		fmt.Fprintf(&sb, "\n<i>%s.</i>\n", escape(v.Note))
	}
	if !v.Correct || v.Kind == store.KindFRQ {
		fmt.Fprintf(&sb, "\nThe correct answer was: <tg-spoiler>%s</tg-spoiler>\n", escape(v.CorrectDisplay))
		if v.Explanation != "" {
			fmt.Fprintf(&sb, "\n<b>Explanation:</b> %s\n", escape(v.Explanation))
		}
	}
	fmt.Fprintf(&sb, "\nScore: %d/%d", v.Progress.Correct, v.Progress.Asked)
	return sb.String()
}

func formatSummary(prefix string, sum quiz.Summary) string {
	return fmt.Sprintf("%s You answered %d out of %d questions correctly.", prefix, sum.Correct, sum.Asked)
}

func formatUnits(units []int) string {
	switch len(units) {
	case 0:
		return "any unit"
	case 1:
		return fmt.Sprintf("Unit %d", units[0])
	default:
		return fmt.Sprintf("Units %d-%d", units[0], units[len(units)-1])
	}
}
