package service

import (
	"context"
	"os"
	"sync"

	"ai-studybot-be/pkg/telegram"
)

// fakeBot records every outbound interaction and can script failures.
type fakeBot struct {
	mu sync.Mutex

	sent        []telegram.SendMessageParams
	edits       []telegram.EditMessageTextParams
	deleted     []int64
	markupEdits []int64
	answered    []string

	nextMessageID int64

	// rejectMarkdownSends makes Markdown sends fail like a parse error.
	rejectMarkdownSends bool
	// editTextErr is returned by every EditMessageText call.
	editTextErr error
	// downloadContent is written to destPath by DownloadFile.
	downloadContent string
}

func errCantParse() *telegram.APIError {
	return &telegram.APIError{Code: 400, Description: "Bad Request: can't parse entities: unmatched '*'"}
}

func errNotFound() *telegram.APIError {
	return &telegram.APIError{Code: 400, Description: "Bad Request: message to edit not found"}
}

func (b *fakeBot) SendMessage(_ context.Context, params telegram.SendMessageParams) (*telegram.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.rejectMarkdownSends && params.ParseMode != "" {
		return nil, errCantParse()
	}
	b.sent = append(b.sent, params)
	b.nextMessageID++
	return &telegram.Message{MessageID: b.nextMessageID, Chat: telegram.Chat{ID: params.ChatID}}, nil
}

func (b *fakeBot) EditMessageText(_ context.Context, params telegram.EditMessageTextParams) (*telegram.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.editTextErr != nil {
		return nil, b.editTextErr
	}
	b.edits = append(b.edits, params)
	return &telegram.Message{MessageID: params.MessageID, Chat: telegram.Chat{ID: params.ChatID}}, nil
}

func (b *fakeBot) EditMessageReplyMarkup(_ context.Context, _, messageID int64, _ *telegram.InlineKeyboardMarkup) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.markupEdits = append(b.markupEdits, messageID)
	return nil
}

func (b *fakeBot) DeleteMessage(_ context.Context, _, messageID int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleted = append(b.deleted, messageID)
	return nil
}

func (b *fakeBot) AnswerCallbackQuery(_ context.Context, callbackQueryID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.answered = append(b.answered, callbackQueryID)
	return nil
}

func (b *fakeBot) GetFile(_ context.Context, fileID string) (*telegram.File, error) {
	return &telegram.File{FileID: fileID, FilePath: "documents/" + fileID}, nil
}

func (b *fakeBot) DownloadFile(_ context.Context, _ string, destPath string) error {
	content := b.downloadContent
	if content == "" {
		content = "downloaded document body"
	}
	return os.WriteFile(destPath, []byte(content), 0o644)
}

func (b *fakeBot) lastSent() telegram.SendMessageParams {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sent[len(b.sent)-1]
}

func (b *fakeBot) lastEdit() telegram.EditMessageTextParams {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.edits[len(b.edits)-1]
}

// fakeGenerator scripts one model response and records prompts.
type fakeGenerator struct {
	response string
	err      error
	prompts  []string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

// fakeAnswers records pipeline invocations for controller tests.
type fakeAnswers struct {
	calls []answerCall
}

type answerCall struct {
	UserID      int64
	Question    string
	DetailLevel string
}

func (a *fakeAnswers) Answer(_ context.Context, userID int64, _ *telegram.Message, question, detailLevel string) {
	a.calls = append(a.calls, answerCall{
		UserID:      userID,
		Question:    question,
		DetailLevel: detailLevel,
	})
}
