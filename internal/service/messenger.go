package service

import (
	"context"

	"ai-studybot-be/pkg/telegram"
)

// Messenger is the slice of the Telegram client the services depend on.
// *telegram.Client satisfies it; tests substitute a recorder.
type Messenger interface {
	SendMessage(ctx context.Context, params telegram.SendMessageParams) (*telegram.Message, error)
	EditMessageText(ctx context.Context, params telegram.EditMessageTextParams) (*telegram.Message, error)
	EditMessageReplyMarkup(ctx context.Context, chatID, messageID int64, markup *telegram.InlineKeyboardMarkup) error
	DeleteMessage(ctx context.Context, chatID, messageID int64) error
	AnswerCallbackQuery(ctx context.Context, callbackQueryID string) error
	GetFile(ctx context.Context, fileID string) (*telegram.File, error)
	DownloadFile(ctx context.Context, filePath, destPath string) error
}

// Generator produces a completion for a grounded prompt. *gemini.Client
// satisfies it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
