// Package bot runs the Telegram intake loop: parse each message, resolve the
// customer, append to the ledger, and drive the new-customer registration
// flow when resolution fails.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/BorisSolomonia/9-telebots/internal/config"
	"github.com/BorisSolomonia/9-telebots/internal/customer"
	"github.com/BorisSolomonia/9-telebots/internal/database"
	"github.com/BorisSolomonia/9-telebots/internal/ledger"
	"github.com/BorisSolomonia/9-telebots/internal/metrics"
	"github.com/BorisSolomonia/9-telebots/internal/models"
	"github.com/BorisSolomonia/9-telebots/internal/parse"
	"github.com/BorisSolomonia/9-telebots/internal/resolve"
)

const (
	replyWait         = "გთხოვთ დაელოდოთ რამდენიმე წამს შემდეგი შეკვეთის გაგზავნამდე."
	replyExists       = "კლიენტი უკვე არსებობს."
	replyWriteFailed  = "❌ ვერ მოხერხდა ჩაწერა. გთხოვთ სცადოთ მოგვიანებით."
	replyAskName      = "გთხოვთ დაწეროთ ახალი კლიენტის სახელი"
	replyIgnored      = "იგნორირებულია."
	replyNameMismatch = "სახელი არ ემთხვევა."
	replyFormatHelp   = "ვერ მოხერხდა შეტყობინების ამოცნობა. გთხოვთ, გამოიყენოთ ფორმატი:\n" +
		"'კლიენტი რაოდენობა პროდუქტი'\n" +
		"მაგალითად: 'შპს მაგსი 20 საქონლის ბარკალი'"
)

type Bot struct {
	api      *tgbotapi.BotAPI
	cfg      *config.Config
	store    *customer.Store
	parser   *parse.Parser
	resolver *resolve.Resolver
	ledger   ledger.Ledger
	repo     *database.Repository
	cache    *resolve.Cache
	pending  *PendingStore

	mu       sync.Mutex
	limiters map[int64]*rate.Limiter

	log *slog.Logger
}

func New(
	token string,
	cfg *config.Config,
	store *customer.Store,
	parser *parse.Parser,
	resolver *resolve.Resolver,
	ldg ledger.Ledger,
	repo *database.Repository,
	cache *resolve.Cache,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}

	return &Bot{
		api:      api,
		cfg:      cfg,
		store:    store,
		parser:   parser,
		resolver: resolver,
		ledger:   ldg,
		repo:     repo,
		cache:    cache,
		pending:  NewPendingStore(cfg.PendingTimeout),
		limiters: make(map[int64]*rate.Limiter),
		log:      slog.With("component", "bot"),
	}, nil
}

// Run polls for updates until the context is cancelled. No per-message
// failure terminates the loop.
func (b *Bot) Run(ctx context.Context) error {
	b.log.Info("bot started", "username", b.api.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	ticker := time.NewTicker(b.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.log.Info("bot stopped")
			return ctx.Err()
		case <-ticker.C:
			b.pending.Sweep()
			if b.cache != nil {
				b.cache.Sweep()
			}
		case update := <-updates:
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("panic in update handler", "panic", r)
		}
	}()

	if update.CallbackQuery != nil {
		b.handleCallback(update.CallbackQuery)
		return
	}

	msg := update.Message
	source := "Direct"
	if msg == nil {
		msg = update.EditedMessage
		source = "Edited"
	}
	if msg == nil || msg.Text == "" || msg.From == nil {
		return
	}

	b.handleText(ctx, msg, source)
}

func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message, source string) {
	text := strings.TrimSpace(msg.Text)
	userID := msg.From.ID
	sender := senderName(msg.From)

	if !b.allow(userID) {
		b.reply(msg, replyWait)
		return
	}

	b.log.Info("processing message", "sender", sender, "source", source, "text", text)

	if record, ok := strings.CutPrefix(text, "new "); ok && b.cfg.IsAdmin(userID) {
		b.addCustomer(msg, strings.TrimSpace(record))
		return
	}

	if p, ok := b.pending.Get(userID); ok && p.AwaitingName {
		b.registerCustomer(ctx, msg, p, text)
		return
	}

	order, ok := b.parser.Parse(ctx, text)
	if !ok {
		b.reply(msg, replyFormatHelp)
		return
	}

	record, ok := b.resolver.Resolve(ctx, order.Customer)
	if !ok {
		id := b.pending.Put(&Pending{
			UserID:  userID,
			ChatID:  msg.Chat.ID,
			Name:    order.Customer,
			Amount:  order.Amount,
			Product: order.Product,
			Sender:  sender,
			Source:  source,
		})
		b.promptRegistration(msg, order.Customer, id)
		return
	}

	if err := b.record(ctx, record, order.Amount, order.Product, sender, source); err != nil {
		b.log.Error("ledger append failed", "customer", record, "err", err)
		b.reply(msg, replyWriteFailed)
		return
	}
	b.reply(msg, confirmation(record, order.Amount, order.Product))
}

// addCustomer handles the "new <record>" admin command.
func (b *Bot) addCustomer(msg *tgbotapi.Message, record string) {
	if record == "" {
		b.reply(msg, replyFormatHelp)
		return
	}
	if err := b.store.Add(record); err != nil {
		if err == customer.ErrDuplicate {
			b.reply(msg, replyExists)
			return
		}
		b.log.Error("customer add failed", "record", record, "err", err)
		b.reply(msg, replyWriteFailed)
		return
	}
	b.reply(msg, fmt.Sprintf("✅ კლიენტი დამატებულია: %s", record))
}

// registerCustomer finishes the confirmation flow: the submitted record's
// display name must match the pending candidate, then the original order is
// replayed against the ledger.
func (b *Bot) registerCustomer(ctx context.Context, msg *tgbotapi.Message, p *Pending, record string) {
	b.pending.Remove(p.UserID)

	if customer.Fold(customer.DeriveKey(record)) != customer.Fold(p.Name) {
		b.reply(msg, replyNameMismatch)
		return
	}

	if err := b.store.Add(record); err != nil {
		if err == customer.ErrDuplicate {
			b.reply(msg, replyExists)
			return
		}
		b.log.Error("customer add failed", "record", record, "err", err)
		b.reply(msg, replyWriteFailed)
		return
	}

	if err := b.record(ctx, record, p.Amount, p.Product, p.Sender, p.Source); err != nil {
		b.log.Error("ledger replay failed", "customer", record, "err", err)
		b.reply(msg, replyWriteFailed)
		return
	}
	b.reply(msg, fmt.Sprintf("ახალი კლიენტი დამატებულია და ჩაწერილია: %s", confirmation(record, p.Amount, p.Product)))
}

func (b *Bot) promptRegistration(msg *tgbotapi.Message, name, id string) {
	prompt := tgbotapi.NewMessage(msg.Chat.ID, fmt.Sprintf("კლიენტი '%s' ვერ მოიძებნა. გსურთ ახალი კლიენტის დამატება?", name))
	prompt.ReplyToMessageID = msg.MessageID
	prompt.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("დიახ", "add_yes_"+id),
			tgbotapi.NewInlineKeyboardButtonData("არა", "add_no_"+id),
		),
	)
	if _, err := b.api.Send(prompt); err != nil {
		b.log.Error("prompt send failed", "err", err)
	}
}

func (b *Bot) handleCallback(query *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		b.log.Error("callback ack failed", "err", err)
	}
	if query.Message == nil {
		return
	}

	switch {
	case strings.HasPrefix(query.Data, "add_yes_"):
		id := strings.TrimPrefix(query.Data, "add_yes_")
		p, ok := b.pending.GetByID(id)
		if !ok {
			b.edit(query, replyIgnored)
			return
		}
		p.AwaitingName = true
		b.edit(query, replyAskName)
	case strings.HasPrefix(query.Data, "add_no_"):
		id := strings.TrimPrefix(query.Data, "add_no_")
		if p, ok := b.pending.GetByID(id); ok {
			b.pending.Remove(p.UserID)
		}
		b.edit(query, replyIgnored)
	}
}

// record appends to the ledger and mirrors the row to the stats database.
// The mirror is best-effort: a mirror failure is logged, never user-visible.
func (b *Bot) record(ctx context.Context, record string, amount float64, product, sender, source string) error {
	now := time.Now()
	err := b.ledger.Append(ctx, ledger.Row{
		Timestamp: now,
		Customer:  record,
		Amount:    amount,
		Product:   product,
		Sender:    sender,
		Source:    source,
	})
	if err != nil {
		metrics.LedgerAppends.WithLabelValues("error").Inc()
		return err
	}
	metrics.LedgerAppends.WithLabelValues("ok").Inc()

	if b.repo != nil {
		_, err := b.repo.InsertEntry(models.Entry{
			RecordedAt: now.Format("2006-01-02 15:04:05"),
			Customer:   record,
			Amount:     amount,
			Product:    product,
			Sender:     sender,
			Source:     source,
		})
		if err != nil {
			b.log.Error("mirror insert failed", "customer", record, "err", err)
		}
	}
	return nil
}

// allow enforces the per-sender cooldown.
func (b *Bot) allow(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	limiter, ok := b.limiters[userID]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(b.cfg.SenderCooldown), 1)
		b.limiters[userID] = limiter
	}
	return limiter.Allow()
}

func (b *Bot) reply(msg *tgbotapi.Message, text string) {
	out := tgbotapi.NewMessage(msg.Chat.ID, text)
	out.ReplyToMessageID = msg.MessageID
	if _, err := b.api.Send(out); err != nil {
		b.log.Error("reply send failed", "err", err)
	}
}

func (b *Bot) edit(query *tgbotapi.CallbackQuery, text string) {
	edit := tgbotapi.NewEditMessageText(query.Message.Chat.ID, query.Message.MessageID, text)
	if _, err := b.api.Send(edit); err != nil {
		b.log.Error("message edit failed", "err", err)
	}
}

func confirmation(record string, amount float64, product string) string {
	if product == "" {
		return fmt.Sprintf("ჩაწერილია: %s %v", record, amount)
	}
	return fmt.Sprintf("ჩაწერილი შეკვეთა: %s %v %s", record, amount, product)
}

func senderName(user *tgbotapi.User) string {
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		name = user.UserName
	}
	return name
}
