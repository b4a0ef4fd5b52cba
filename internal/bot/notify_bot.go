package bot

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/logger"
)

// TgIDResolver находит telegram id по внутреннему id пользователя
type TgIDResolver interface {
	TgIDByUserID(ctx context.Context, userID int64) (int64, error)
}

// NotifyBot отправляет игрокам уведомления о турнирах и матчах
// и отвечает на /start кнопкой открытия приложения
type NotifyBot struct {
	bot       *tgbotapi.BotAPI
	users     TgIDResolver
	webAppURL string
	stopCh    chan struct{}
	wg        sync.WaitGroup
	log       *slog.Logger
}

func NewNotifyBot(token string, users TgIDResolver, webAppURL string) (*NotifyBot, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log := logger.With("component", "notify_bot")
	log.Info("notify bot authorized", "username", bot.Self.UserName)

	return &NotifyBot{
		bot:       bot,
		users:     users,
		webAppURL: strings.TrimRight(webAppURL, "/"),
		stopCh:    make(chan struct{}),
		log:       log,
	}, nil
}

// Start запускает прослушивание команд
func (b *NotifyBot) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.bot.GetUpdatesChan(u)
	b.log.Info("starting bot update loop")

	for {
		select {
		case <-b.stopCh:
			b.log.Info("stopping bot update loop")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			b.wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer b.wg.Done()
				b.handleCommand(msg)
			}(update.Message)
		}
	}
}

// Stop останавливает цикл и ждет обработчики
func (b *NotifyBot) Stop() {
	close(b.stopCh)
	b.bot.StopReceivingUpdates()
	b.wg.Wait()
}

func (b *NotifyBot) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		reply := tgbotapi.NewMessage(msg.Chat.ID, "Турниры и игры 1 на 1 на ставку. Открой приложение, чтобы сыграть.")
		if b.webAppURL != "" {
			reply.ReplyMarkup = openButton(b.webAppURL)
		}
		if _, err := b.bot.Send(reply); err != nil {
			b.log.Error("не удалось ответить на /start", "chat_id", msg.Chat.ID, "error", err)
		}
	}
}

func openButton(url string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("Открыть", url)),
	)
}

// Push - доставка уведомления в телеграм (service.Pusher)
func (b *NotifyBot) Push(ctx context.Context, userID int64, title, message, link string) error {
	if userID <= 0 {
		return nil
	}
	tgID, err := b.users.TgIDByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("resolve tg id: %w", err)
	}

	msg := tgbotapi.NewMessage(tgID, FormatNotification(title, message))
	msg.ParseMode = "HTML"
	if link != "" && b.webAppURL != "" {
		msg.ReplyMarkup = openButton(b.webAppURL + link)
	}
	if _, err := b.bot.Send(msg); err != nil {
		return err
	}
	return nil
}

// FormatNotification собирает HTML-текст уведомления
func FormatNotification(title, message string) string {
	return fmt.Sprintf("<b>%s</b>\n\n%s", html.EscapeString(title), html.EscapeString(message))
}
