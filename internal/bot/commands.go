package bot

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// request is one parsed command invocation.
type request struct {
	chatID   int64
	userID   int64
	username string
	rest     string // everything after the command name
	args     []string
	admin    bool
}

type command struct {
	name   string
	usage  string
	help   string
	admin  bool
	hidden bool
	run    func(ctx context.Context, req *request)
}

func (b *Bot) registry() map[string]*command {
	cmds := []*command{
		{name: "quiz", usage: "/quiz <unit|a-b|all> [n]", help: "Start a quiz from a unit, a unit range or the whole bank", run: b.startUnitQuiz},
		{name: "skillquiz", usage: "/skillquiz <skill> [n]", help: "Start a quiz on one skill, by id (1.3) or number", run: b.startSkillQuiz},
		{name: "answer", usage: "/answer <answer>", help: "Answer the current question", run: b.answer},
		{name: "stopquiz", usage: "/stopquiz", help: "Stop the quiz in this chat", run: b.stopQuiz},
		{name: "quizstatus", usage: "/quizstatus", help: "Show the progress of the current quiz", run: b.quizStatus},
		{name: "listskills", usage: "/listskills [unit]", help: "List units and skills", run: b.listSkills},
		{name: "getquestion", usage: "/getquestion <id>", help: "Show a question by id", run: b.getQuestion},
		{name: "report", usage: "/report <id> <reason>", help: "Report a question for review", run: b.reportQuestion},
		{name: "stats", usage: "/stats [user-id]", help: "Show answer statistics", run: b.stats},
		{name: "leaderboard", usage: "/leaderboard", help: "Show the top players", run: b.leaderboard},
		{name: "help", usage: "/help", help: "Show this message", run: b.help},

		{name: "populatedb", usage: "/populatedb <unit> <n>", help: "Generate n questions for a unit", admin: true, run: b.populate},
		{name: "viewreports", usage: "/viewreports", help: "List open question reports", admin: true, run: b.viewReports},
		{name: "clearreport", usage: "/clearreport <id>", help: "Clear the reports of a question", admin: true, run: b.clearReport},
		{name: "disablequestion", usage: "/disablequestion <id> [true|false]", help: "Disable or re-enable a question", admin: true, run: b.disableQuestion},
		{name: "questionoverview", usage: "/questionoverview [limit] [unit] [skill]", help: "List recently generated questions", admin: true, run: b.questionOverview},
		{name: "deleteall", usage: "/deleteall confirm", help: "Delete every question", admin: true, hidden: true, run: b.deleteAll},
	}

	m := make(map[string]*command, len(cmds)+3)
	for _, c := range cmds {
		m[c.name] = c
	}
	m["start"] = m["help"]
	m["reportquestion"] = m["report"]
	m["skills"] = m["listskills"]
	return m
}

func (b *Bot) usage(req *request, name string) {
	b.reply(req.chatID, "Usage: "+code(b.commands[name].usage))
}

func (b *Bot) help(_ context.Context, req *request) {
	var user, admin []*command
	seen := make(map[string]bool)
	for _, c := range b.commands {
		if seen[c.name] || c.hidden {
			continue
		}
		seen[c.name] = true
		if c.admin {
			admin = append(admin, c)
		} else {
			user = append(user, c)
		}
	}
	byName := func(cs []*command) {
		sort.Slice(cs, func(i, j int) bool { return cs[i].name < cs[j].name })
	}
	byName(user)
	byName(admin)

	var sb strings.Builder
	sb.WriteString("<b>CalcBot commands</b>\n")
	for _, c := range user {
		fmt.Fprintf(&sb, "%s: %s\n", code(c.usage), escape(c.help))
	}
	if req.admin {
		sb.WriteString("\n<b>Admin commands</b>\n")
		for _, c := range admin {
			fmt.Fprintf(&sb, "%s: %s\n", code(c.usage), escape(c.help))
		}
	}
	sb.WriteString("\nCommands also work with a ! prefix, e.g. !quiz 1 5.")
	b.reply(req.chatID, sb.String())
}
