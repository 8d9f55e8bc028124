package bot

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	cbCancel      = "nav:cancel"
	cbRawType     = "raw:type:"
	cbRawMaterial = "raw:mat:"
)

// Кнопки нижней панели
const (
	btnProducts = "Продукция"
	btnRaw      = "Расчёт сырья"
	btnReport   = "Выгрузка в Excel"
)

func navKeyboard(cancel bool) tgbotapi.InlineKeyboardMarkup {
	row := []tgbotapi.InlineKeyboardButton{}
	if cancel {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("✖️ Отменить", cbCancel))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

// pickKeyboard по кнопке на элемент; в callback уходит индекс, а не имя,
// чтобы уложиться в лимит 64 байта.
func pickKeyboard(prefix string, names []string) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(names)+1)
	for i, n := range names {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(n, fmt.Sprintf("%s%d", prefix, i)),
		))
	}
	rows = append(rows, navKeyboard(true).InlineKeyboard[0])
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func mainReplyKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.ReplyKeyboardMarkup{
		ResizeKeyboard: true,
		Keyboard: [][]tgbotapi.KeyboardButton{
			{tgbotapi.NewKeyboardButton(btnProducts), tgbotapi.NewKeyboardButton(btnRaw)},
			{tgbotapi.NewKeyboardButton(btnReport)},
		},
	}
}
