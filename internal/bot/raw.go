package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/production-planner/internal/dialog"
	"github.com/Spok95/production-planner/internal/domain/planning"
	"github.com/Spok95/production-planner/internal/infra/metrics"
)

/*** Мастер расчёта сырья: тип -> материал -> количество -> param1 -> param2 ***/

func (b *Bot) startRawWizard(ctx context.Context, chatID int64) {
	types, err := b.store.ListProductTypes(ctx)
	if err != nil {
		b.internalError(chatID, "list product types", err)
		return
	}
	if len(types) == 0 {
		b.reply(chatID, "Справочник типов продукции пуст.")
		return
	}
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, t.Name)
	}
	if err := b.states.Set(ctx, chatID, dialog.StateRawPickType, dialog.Payload{}); err != nil {
		b.internalError(chatID, "set state", err)
		return
	}
	m := tgbotapi.NewMessage(chatID, "Выберите тип продукции:")
	m.ReplyMarkup = pickKeyboard(cbRawType, names)
	b.send(m)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil || cb.Message.Chat == nil {
		_ = b.answerCallback(cb, "", false)
		return
	}
	data := cb.Data
	chatID := cb.Message.Chat.ID
	msgID := cb.Message.MessageID

	switch {
	case data == cbCancel:
		_ = b.states.Reset(ctx, chatID)
		b.editTextAndClear(chatID, msgID, "Операция отменена.")
		_ = b.answerCallback(cb, "Отменено", false)

	case strings.HasPrefix(data, cbRawType):
		b.onRawType(ctx, cb, chatID, msgID, strings.TrimPrefix(data, cbRawType))

	case strings.HasPrefix(data, cbRawMaterial):
		b.onRawMaterial(ctx, cb, chatID, msgID, strings.TrimPrefix(data, cbRawMaterial))

	default:
		_ = b.answerCallback(cb, "Неизвестное действие", false)
	}
}

func (b *Bot) onRawType(ctx context.Context, cb *tgbotapi.CallbackQuery, chatID int64, msgID int, idxStr string) {
	st, err := b.states.Get(ctx, chatID)
	if err != nil {
		b.internalError(chatID, "get state", err)
		return
	}
	if st.State != dialog.StateRawPickType {
		_ = b.answerCallback(cb, "Начните заново: /raw", false)
		return
	}
	types, err := b.store.ListProductTypes(ctx)
	if err != nil {
		b.internalError(chatID, "list product types", err)
		return
	}
	idx, err := strconv.Atoi(idxStr)
	if err != nil || idx < 0 || idx >= len(types) {
		_ = b.answerCallback(cb, "Список изменился, начните заново: /raw", true)
		return
	}

	materials, err := b.store.ListMaterials(ctx)
	if err != nil {
		b.internalError(chatID, "list materials", err)
		return
	}
	if len(materials) == 0 {
		_ = b.states.Reset(ctx, chatID)
		b.editTextAndClear(chatID, msgID, "Справочник материалов пуст.")
		_ = b.answerCallback(cb, "", false)
		return
	}
	names := make([]string, 0, len(materials))
	for _, m := range materials {
		names = append(names, m.Name)
	}

	payload := st.Payload.With(dialog.KeyProductType, types[idx].Name)
	if err := b.states.Set(ctx, chatID, dialog.StateRawPickMaterial, payload); err != nil {
		b.internalError(chatID, "set state", err)
		return
	}
	text := fmt.Sprintf("Тип продукции: %s\nВыберите материал:", types[idx].Name)
	b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID, text, pickKeyboard(cbRawMaterial, names)))
	_ = b.answerCallback(cb, "", false)
}

func (b *Bot) onRawMaterial(ctx context.Context, cb *tgbotapi.CallbackQuery, chatID int64, msgID int, idxStr string) {
	st, err := b.states.Get(ctx, chatID)
	if err != nil {
		b.internalError(chatID, "get state", err)
		return
	}
	if st.State != dialog.StateRawPickMaterial {
		_ = b.answerCallback(cb, "Начните заново: /raw", false)
		return
	}
	materials, err := b.store.ListMaterials(ctx)
	if err != nil {
		b.internalError(chatID, "list materials", err)
		return
	}
	idx, err := strconv.Atoi(idxStr)
	if err != nil || idx < 0 || idx >= len(materials) {
		_ = b.answerCallback(cb, "Список изменился, начните заново: /raw", true)
		return
	}

	payload := st.Payload.With(dialog.KeyMaterial, materials[idx].Name)
	if err := b.states.Set(ctx, chatID, dialog.StateRawQty, payload); err != nil {
		b.internalError(chatID, "set state", err)
		return
	}
	pt, _ := dialog.GetString(payload, dialog.KeyProductType)
	text := fmt.Sprintf("Тип продукции: %s\nМатериал: %s\nВведите количество продукции (целое число):", pt, materials[idx].Name)
	b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID, text, navKeyboard(true)))
	_ = b.answerCallback(cb, "", false)
}

// handleStateMessage текстовые вводы мастера и кнопки нижней панели.
func (b *Bot) handleStateMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	switch text {
	case btnProducts:
		b.showProducts(ctx, chatID)
		return
	case btnRaw:
		b.startRawWizard(ctx, chatID)
		return
	case btnReport:
		b.sendReport(ctx, chatID)
		return
	}

	st, err := b.states.Get(ctx, chatID)
	if err != nil {
		b.internalError(chatID, "get state", err)
		return
	}

	switch st.State {
	case dialog.StateRawQty:
		qty, err := parseQuantity(text)
		if err != nil {
			b.reply(chatID, "Количество должно быть целым числом. Попробуйте ещё раз.")
			return
		}
		b.advance(ctx, chatID, dialog.StateRawParam1, st.Payload.With(dialog.KeyQuantity, qty),
			"Введите param1 (число больше 0, можно с запятой):")

	case dialog.StateRawParam1:
		p1, err := parseNumber(text)
		if err != nil {
			b.reply(chatID, "Нужно число, например 1,5. Попробуйте ещё раз.")
			return
		}
		b.advance(ctx, chatID, dialog.StateRawParam2, st.Payload.With(dialog.KeyParam1, p1),
			"Введите param2 (число больше 0, можно с запятой):")

	case dialog.StateRawParam2:
		p2, err := parseNumber(text)
		if err != nil {
			b.reply(chatID, "Нужно число, например 2. Попробуйте ещё раз.")
			return
		}
		pt, _ := dialog.GetString(st.Payload, dialog.KeyProductType)
		mat, _ := dialog.GetString(st.Payload, dialog.KeyMaterial)
		qty, _ := dialog.GetFloat(st.Payload, dialog.KeyQuantity)
		p1, _ := dialog.GetFloat(st.Payload, dialog.KeyParam1)
		_ = b.states.Reset(ctx, chatID)
		b.calculateRaw(ctx, chatID, planning.RawMaterialRequest{
			ProductTypeName: pt,
			MaterialName:    mat,
			Quantity:        int64(qty),
			Param1:          p1,
			Param2:          p2,
		})

	case dialog.StateRawPickType, dialog.StateRawPickMaterial:
		b.reply(chatID, "Выберите вариант кнопкой выше или отмените.")

	default:
		b.reply(chatID, "Не понимаю сообщение. Наберите /help")
	}
}

func (b *Bot) advance(ctx context.Context, chatID int64, next dialog.State, payload dialog.Payload, prompt string) {
	if err := b.states.Set(ctx, chatID, next, payload); err != nil {
		b.internalError(chatID, "set state", err)
		return
	}
	m := tgbotapi.NewMessage(chatID, prompt)
	m.ReplyMarkup = navKeyboard(true)
	b.send(m)
}

func (b *Bot) calculateRaw(ctx context.Context, chatID int64, req planning.RawMaterialRequest) {
	v, err := b.planner.RawMaterial(ctx, req)
	if err != nil {
		b.metrics.Calc(metrics.CalcRawMaterial, metrics.OutcomeError)
		b.internalError(chatID, "raw material", err)
		return
	}
	if v == planning.InvalidCalculation {
		b.metrics.Calc(metrics.CalcRawMaterial, metrics.OutcomeInvalid)
		b.reply(chatID, "Расчёт невозможен (-1): проверьте тип продукции, материал, количество >= 0 и параметры > 0.")
		return
	}
	b.metrics.Calc(metrics.CalcRawMaterial, metrics.OutcomeOK)
	b.reply(chatID, fmt.Sprintf(
		"Тип продукции: %s\nМатериал: %s\nКоличество: %d\nparam1: %s, param2: %s\nПотребность в сырье: %s",
		req.ProductTypeName, req.MaterialName, req.Quantity,
		formatNumber(req.Param1), formatNumber(req.Param2), formatNumber(v),
	))
}
