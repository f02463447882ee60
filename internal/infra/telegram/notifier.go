package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier posts sales alerts (new leads, paid invoices) to one chat.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewNotifier(token string, chatID int64) (*Notifier, error) {
	if chatID == 0 {
		return nil, fmt.Errorf("telegram sales chat id is required")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &Notifier{bot: bot, chatID: chatID}, nil
}

func (n *Notifier) Notify(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

type LeadAlert struct {
	ID     uint
	Source string
	Name   string
	Email  string
	Phone  string
	Budget string
}

type SaleAlert struct {
	ProductName string
	AmountIDR   string
	Email       string
	ExternalID  string
}

func FormatLead(l LeadAlert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New %s lead #%d\n%s <%s>", l.Source, l.ID, l.Name, l.Email)
	if l.Phone != "" {
		fmt.Fprintf(&b, "\nPhone: %s", l.Phone)
	}
	if l.Budget != "" {
		fmt.Fprintf(&b, "\nBudget: %s", l.Budget)
	}
	return b.String()
}

func FormatSale(s SaleAlert) string {
	return fmt.Sprintf("Payment received: %s\n%s from %s\nRef %s", s.ProductName, s.AmountIDR, s.Email, s.ExternalID)
}
