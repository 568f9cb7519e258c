// Package bot lets clinic managers view and toggle blocked slots from Telegram.
package bot

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"vetadmin/internal/console"
	"vetadmin/internal/events"
	"vetadmin/internal/records"
	"vetadmin/internal/slots"
)

const noticeQueue = 64

// Bot is the manager-only slot calendar.
type Bot struct {
	svc      *console.Service
	tg       telegramClient
	managers map[int64]struct{}
	notices  chan string
	logger   *zerolog.Logger
}

func New(token string, debug bool, svc *console.Service, managers []int64, logger *zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	api.Debug = debug
	return newBot(&realTelegramClient{api: api}, svc, managers, logger)
}

func newBot(tg telegramClient, svc *console.Service, managers []int64, logger *zerolog.Logger) (*Bot, error) {
	if tg == nil {
		return nil, errors.New("telegram client is nil")
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	mgrs := make(map[int64]struct{}, len(managers))
	for _, id := range managers {
		mgrs[id] = struct{}{}
	}
	return &Bot{
		svc:      svc,
		tg:       tg,
		managers: mgrs,
		notices:  make(chan string, noticeQueue),
		logger:   logger,
	}, nil
}

func (b *Bot) isManager(userID int64) bool {
	_, ok := b.managers[userID]
	return ok
}

// Subscribe tells every manager about slot toggles. Notices are queued and
// sent by Start, so a slow Telegram never holds up the toggle.
func (b *Bot) Subscribe(bus *events.Bus) {
	bus.Subscribe(events.SlotToggled, func(e events.Event) error {
		res, ok := e.Payload.(*slots.ToggleResult)
		if !ok {
			return nil
		}
		select {
		case b.notices <- toggleNotice(res):
		default:
			b.logger.Warn().Str("date", res.Date).Msg("notice queue full, dropping toggle notice")
		}
		return nil
	})
}

func (b *Bot) sendNotices(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case text := <-b.notices:
			b.broadcast(text)
		}
	}
}

func toggleNotice(res *slots.ToggleResult) string {
	what := res.Date + " (whole day)"
	if res.Time != nil {
		what = res.Date + " " + *res.Time
	}
	if res.Action == slots.ActionBlocked {
		return "🔒 Blocked " + what
	}
	return "🔓 Unblocked " + what
}

func (b *Bot) broadcast(text string) {
	for id := range b.managers {
		if _, err := b.tg.Send(tgbotapi.NewMessage(id, text)); err != nil {
			b.logger.Warn().Err(err).Int64("chat_id", id).Msg("send to manager")
		}
	}
}

// Start polls updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.tg.GetUpdatesChan(u)
	b.logger.Info().Str("username", b.tg.SelfUser().UserName).Msg("slot bot authorized")
	go b.sendNotices(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			l := b.logger.With().Str("request_id", uuid.New().String()).Logger()
			b.handleUpdate(l.WithContext(ctx), &update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update *tgbotapi.Update) {
	l := zerolog.Ctx(ctx)
	if update.CallbackQuery != nil && update.CallbackQuery.From != nil {
		l.Debug().
			Int64("user_id", update.CallbackQuery.From.ID).
			Str("data", update.CallbackQuery.Data).
			Msg("handling callback query")
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}
	if update.Message != nil && update.Message.From != nil {
		l.Debug().
			Int64("user_id", update.Message.From.ID).
			Str("text", update.Message.Text).
			Msg("handling message")
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !b.isManager(msg.From.ID) {
		b.reply(msg.Chat.ID, "Access denied.")
		return
	}
	text := strings.TrimSpace(msg.Text)
	cmd, arg, _ := strings.Cut(text, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/start", "/help":
		b.reply(msg.Chat.ID, "/slots [YYYY-MM] shows the blocked-slot calendar.\n/day YYYY-MM-DD opens a day.\n/today opens today.")
	case "/slots":
		b.sendMonth(ctx, msg.Chat.ID, arg)
	case "/day":
		b.sendDay(ctx, msg.Chat.ID, 0, arg)
	case "/today":
		b.sendDay(ctx, msg.Chat.ID, 0, b.svc.Today())
	}
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.Message == nil {
		return
	}
	if !b.isManager(cq.From.ID) {
		b.answerCallback(cq.ID, "Access denied.")
		return
	}
	chatID := cq.Message.Chat.ID
	msgID := cq.Message.MessageID
	data := cq.Data

	switch {
	case data == cbNoop:
		b.answerCallback(cq.ID, "")
	case strings.HasPrefix(data, cbMonth):
		b.answerCallback(cq.ID, "")
		b.editMonth(ctx, chatID, msgID, strings.TrimPrefix(data, cbMonth))
	case strings.HasPrefix(data, cbDay):
		b.answerCallback(cq.ID, "")
		b.sendDay(ctx, chatID, msgID, strings.TrimPrefix(data, cbDay))
	case strings.HasPrefix(data, cbToggle):
		b.handleToggle(ctx, cq, chatID, msgID)
	default:
		b.answerCallback(cq.ID, "")
	}
}

func (b *Bot) handleToggle(ctx context.Context, cq *tgbotapi.CallbackQuery, chatID int64, msgID int) {
	date, tm, err := parseToggleData(cq.Data)
	if err != nil {
		b.answerCallback(cq.ID, "Unknown button.")
		return
	}

	res, err := b.svc.ToggleSlot(ctx, records.SlotToggleForm{Date: date, Time: tm})
	switch {
	case errors.Is(err, slots.ErrToggleInProgress):
		b.answerCallback(cq.ID, "Already updating, try again.")
		return
	case errors.Is(err, slots.ErrDaySuperseded):
		b.answerCallback(cq.ID, "The whole day is blocked.")
		return
	case err != nil:
		zerolog.Ctx(ctx).Error().Err(err).Str("date", date).Msg("toggle slot")
		b.answerCallback(cq.ID, "Update failed.")
		return
	}

	if res.Action == slots.ActionBlocked {
		b.answerCallback(cq.ID, "Blocked")
	} else {
		b.answerCallback(cq.ID, "Unblocked")
	}
	b.sendDay(ctx, chatID, msgID, date)
}

func (b *Bot) sendMonth(ctx context.Context, chatID int64, month string) {
	screen, err := b.svc.Slots(ctx, month, "")
	if err != nil {
		b.reportError(ctx, chatID, err)
		return
	}
	msg := tgbotapi.NewMessage(chatID, "Blocked slots. Pick a day:")
	msg.ReplyMarkup = monthKeyboard(screen.Month)
	b.send(msg)
}

func (b *Bot) editMonth(ctx context.Context, chatID int64, msgID int, month string) {
	screen, err := b.svc.Slots(ctx, month, "")
	if err != nil {
		b.reportError(ctx, chatID, err)
		return
	}
	b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID, "Blocked slots. Pick a day:", monthKeyboard(screen.Month)))
}

// sendDay re-reads the blocked slots and renders the day, editing msgID when
// it is set.
func (b *Bot) sendDay(ctx context.Context, chatID int64, msgID int, date string) {
	screen, err := b.svc.Slots(ctx, "", date)
	if err != nil {
		b.reportError(ctx, chatID, err)
		return
	}
	if screen.Day == nil {
		b.reply(chatID, "Pick a day: /day YYYY-MM-DD")
		return
	}
	text := dayText(*screen.Day, screen.Policy)
	markup := dayKeyboard(*screen.Day)
	if msgID != 0 {
		b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID, text, markup))
		return
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	b.send(msg)
}

func (b *Bot) reportError(ctx context.Context, chatID int64, err error) {
	if errors.Is(err, records.ErrInvalidForm) {
		b.reply(chatID, err.Error())
		return
	}
	zerolog.Ctx(ctx).Error().Err(err).Int64("chat_id", chatID).Msg("load slots")
	b.reply(chatID, "Could not load slots, try again later.")
}

func (b *Bot) reply(chatID int64, text string) {
	b.send(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.tg.Send(c); err != nil {
		b.logger.Warn().Err(err).Msg("telegram send")
	}
}

func (b *Bot) answerCallback(id, text string) {
	if _, err := b.tg.Request(tgbotapi.NewCallback(id, text)); err != nil {
		b.logger.Debug().Err(err).Msg("answer callback")
	}
}
