package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/production-planner/internal/domain/catalog"
	"github.com/Spok95/production-planner/internal/infra/metrics"
	"github.com/Spok95/production-planner/internal/reports"
)

const helpText = `Команды:
/products — список продукции и время изготовления
/time <id> — время изготовления продукта
/raw — расчёт сырья по шагам
/raw тип; материал; количество; param1; param2 — расчёт одной строкой
/report — выгрузка продукции в Excel
/help — помощь`

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start":
		_ = b.states.Reset(ctx, chatID)
		m := tgbotapi.NewMessage(chatID, "Планирование производства. Выберите действие на панели или наберите /help.")
		m.ReplyMarkup = mainReplyKeyboard()
		b.send(m)

	case "help":
		b.reply(chatID, helpText)

	case "products":
		b.showProducts(ctx, chatID)

	case "time":
		b.showProductionTime(ctx, chatID, msg.CommandArguments())

	case "raw":
		args := strings.TrimSpace(msg.CommandArguments())
		if args == "" {
			b.startRawWizard(ctx, chatID)
			return
		}
		req, err := parseRawArgs(args)
		if err != nil {
			b.reply(chatID, "Формат: /raw тип; материал; количество; param1; param2")
			return
		}
		b.calculateRaw(ctx, chatID, req)

	case "report":
		b.sendReport(ctx, chatID)

	default:
		b.reply(chatID, "Не знаю такую команду. Наберите /help")
	}
}

func (b *Bot) showProducts(ctx context.Context, chatID int64) {
	products, err := b.store.ListProducts(ctx)
	if err != nil {
		b.internalError(chatID, "list products", err)
		return
	}
	if len(products) == 0 {
		b.reply(chatID, "Продукции пока нет.")
		return
	}
	sums, err := b.planner.Summaries(ctx, products)
	if err != nil {
		b.internalError(chatID, "summaries", err)
		return
	}

	var sb strings.Builder
	sb.WriteString("Продукция:\n")
	for _, s := range sums {
		fmt.Fprintf(&sb, "#%d %s (арт. %d) — %s ч\n", s.ID, s.Name, s.Article, formatNumber(s.TotalProductionTime))
	}
	b.reply(chatID, sb.String())
}

func (b *Bot) showProductionTime(ctx context.Context, chatID int64, arg string) {
	id, err := parseQuantity(arg)
	if err != nil || id <= 0 {
		b.reply(chatID, "Формат: /time <id продукта>")
		return
	}
	total, err := b.planner.ProductionTime(ctx, id)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		b.metrics.Calc(metrics.CalcProductionTime, metrics.OutcomeNotFound)
		b.reply(chatID, fmt.Sprintf("Продукт #%d не найден.", id))
		return
	case err != nil:
		b.metrics.Calc(metrics.CalcProductionTime, metrics.OutcomeError)
		b.internalError(chatID, "production time", err)
		return
	}
	b.metrics.Calc(metrics.CalcProductionTime, metrics.OutcomeOK)
	b.reply(chatID, fmt.Sprintf("Время изготовления продукта #%d: %s ч", id, formatNumber(total)))
}

func (b *Bot) sendReport(ctx context.Context, chatID int64) {
	products, err := b.store.ListProducts(ctx)
	if err != nil {
		b.internalError(chatID, "list products", err)
		return
	}
	sums, err := b.planner.Summaries(ctx, products)
	if err != nil {
		b.internalError(chatID, "summaries", err)
		return
	}
	data, err := reports.ProductsXLSX(sums)
	if err != nil {
		b.internalError(chatID, "report", err)
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  reports.ProductsFileName(time.Now()),
		Bytes: data,
	})
	doc.Caption = "Продукция и время изготовления"
	b.send(doc)
}
