// Package bot is the Telegram command surface: it parses chat commands,
// gates admin commands and drives the quiz engine, question store,
// generator and grader.
package bot

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/abhisek/calcbot/internal/config"
	"github.com/abhisek/calcbot/internal/logger"
	"github.com/abhisek/calcbot/internal/metrics"
	"github.com/abhisek/calcbot/internal/questiongen"
	"github.com/abhisek/calcbot/internal/quiz"
	"github.com/abhisek/calcbot/internal/store"
)

// chatIdle is how long a chat's worker waits for updates before exiting.
const chatIdle = 10 * time.Minute

// Sender delivers requests to the Telegram API. *tgbotapi.BotAPI
// satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Updater is the long-polling side of *tgbotapi.BotAPI.
type Updater interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Deps are the collaborators of a Bot. Generator and Metrics may be nil.
type Deps struct {
	Questions store.QuestionRepo
	Users     store.UserRepo
	Reports   store.ReportRepo
	Engine    *quiz.Engine
	Generator questiongen.Generator
	Metrics   *metrics.Metrics
	Log       *logger.Logger

	// Config supplies quiz limits and the admin allowlist.
	Config config.Config
}

// Bot handles Telegram updates. Updates of one chat are handled in
// order; different chats are handled concurrently.
type Bot struct {
	api  Sender
	deps Deps
	log  *logger.Logger

	commands map[string]*command

	rngMu sync.Mutex
	rng   *rand.Rand

	populating atomic.Bool
	background sync.WaitGroup

	queueMu sync.Mutex
	queues  map[int64]chan tgbotapi.Update
	workers sync.WaitGroup
}

// New creates a Bot that replies through api.
func New(api Sender, deps Deps) *Bot {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	b := &Bot{
		api:    api,
		deps:   deps,
		log:    deps.Log,
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		queues: make(map[int64]chan tgbotapi.Update),
	}
	b.commands = b.registry()
	return b
}

// Run long-polls for updates until ctx is done, then waits for in-flight
// handlers and background jobs.
func (b *Bot) Run(ctx context.Context, updater Updater) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := updater.GetUpdatesChan(u)

	b.log.Info("bot started, waiting for updates")
	defer func() {
		b.workers.Wait()
		b.background.Wait()
		b.log.Info("bot stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			updater.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("update channel closed")
			}
			b.dispatch(ctx, update)
		}
	}
}

// dispatch queues update on the worker of its chat.
func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	chat := update.FromChat()
	if chat == nil {
		return
	}

	b.queueMu.Lock()
	defer b.queueMu.Unlock()
	q, ok := b.queues[chat.ID]
	if !ok {
		q = make(chan tgbotapi.Update, 32)
		b.queues[chat.ID] = q
		b.workers.Add(1)
		go b.work(ctx, chat.ID, q)
	}
	select {
	case q <- update:
	default:
		b.log.Warn("chat queue full, dropping update", "chat", chat.ID, "update", update.UpdateID)
	}
}

func (b *Bot) work(ctx context.Context, chatID int64, q chan tgbotapi.Update) {
	defer b.workers.Done()
	idle := time.NewTimer(chatIdle)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case update := <-q:
			b.HandleUpdate(ctx, update)
			idle.Reset(chatIdle)
		case <-idle.C:
			b.queueMu.Lock()
			if len(q) > 0 {
				b.queueMu.Unlock()
				idle.Reset(chatIdle)
				continue
			}
			delete(b.queues, chatID)
			b.queueMu.Unlock()
			return
		}
	}
}

// HandleUpdate processes one update synchronously.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("panic handling update", "update", update.UpdateID, "panic", r)
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}
	name, rest, ok := parseCommand(msg.Text)
	if !ok {
		return
	}

	if err := b.deps.Users.EnsureUser(ctx, msg.From.ID, displayName(msg.From)); err != nil {
		b.log.Warn("failed to register user", "user", msg.From.ID, "error", err)
	}

	cmd, ok := b.commands[name]
	if !ok {
		b.reply(msg.Chat.ID, "Unknown command. Use /help to see what I can do.")
		return
	}

	req := &request{
		chatID:   msg.Chat.ID,
		userID:   msg.From.ID,
		username: displayName(msg.From),
		rest:     rest,
		args:     splitArgs(rest),
		admin:    b.isAdmin(msg.From.ID),
	}
	if cmd.admin && !req.admin {
		b.log.Warn("unauthorized admin command", "user", req.userID, "command", name)
		b.reply(req.chatID, "You do not have administrative permissions to use this command.")
		return
	}

	b.log.Debug("command", "chat", req.chatID, "user", req.userID, "command", name)
	cmd.run(ctx, req)
}

// handleCallback treats an inline keyboard tap as an answer.
func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		b.log.Warn("failed to acknowledge callback", "error", err)
	}
	if cb.Message == nil || cb.From == nil {
		return
	}
	questionID, label, ok := parseAnswerData(cb.Data)
	if !ok {
		return
	}
	if err := b.deps.Users.EnsureUser(ctx, cb.From.ID, displayName(cb.From)); err != nil {
		b.log.Warn("failed to register user", "user", cb.From.ID, "error", err)
	}
	b.submit(ctx, &request{
		chatID:   cb.Message.Chat.ID,
		userID:   cb.From.ID,
		username: displayName(cb.From),
		rest:     label,
		args:     []string{label},
		admin:    b.isAdmin(cb.From.ID),
	}, questionID)
}

// Notify sends text to chatID. Delivery failures are logged and dropped.
func (b *Bot) Notify(_ context.Context, chatID int64, text string) {
	b.reply(chatID, escape(text))
}

// QuizExpired tells the channel its quiz timed out.
func (b *Bot) QuizExpired(ctx context.Context, e quiz.Expired) {
	b.observeEnd(metrics.EndTimeout)
	b.Notify(ctx, e.Channel, quiz.TimeoutMessage(e.Summary))
}

func (b *Bot) isAdmin(userID int64) bool {
	return b.deps.Config.IsAdmin(userID)
}

// reply sends HTML text, split into as many messages as needed.
func (b *Bot) reply(chatID int64, html string) {
	b.send(chatID, html, nil)
}

func (b *Bot) send(chatID int64, html string, markup any) {
	chunks := ChunkText(html, maxMessageRunes)
	for i, chunk := range chunks {
		msg := tgbotapi.NewMessage(chatID, chunk)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true
		if i == len(chunks)-1 && markup != nil {
			msg.ReplyMarkup = markup
		}
		if _, err := b.api.Send(msg); err != nil {
			b.log.Warn("failed to send message", "chat", chatID, "error", err)
			return
		}
	}
}

func (b *Bot) typing(chatID int64) {
	if _, err := b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		b.log.Debug("chat action failed", "chat", chatID, "error", err)
	}
}

func (b *Bot) shuffle(qs []*store.Question) {
	b.rngMu.Lock()
	defer b.rngMu.Unlock()
	b.rng.Shuffle(len(qs), func(i, j int) { qs[i], qs[j] = qs[j], qs[i] })
}

func (b *Bot) observeEnd(reason string) {
	if b.deps.Metrics != nil {
		b.deps.Metrics.QuizEnded(reason)
	}
}

func displayName(u *tgbotapi.User) string {
	if u.UserName != "" {
		return u.UserName
	}
	if u.LastName != "" {
		return u.FirstName + " " + u.LastName
	}
	return u.FirstName
}
