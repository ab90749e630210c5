package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"ai-studybot-be/internal/constant"
	"ai-studybot-be/internal/model"
	"ai-studybot-be/internal/pkg/logger"
	"ai-studybot-be/internal/repository/contract"
	"ai-studybot-be/pkg/extract"
	"ai-studybot-be/pkg/library"
	"ai-studybot-be/pkg/telegram"
)

// IConversationService is the per-user state machine. Each inbound update is
// interpreted against the state derived from the stored UserState record:
// Idle → DocumentReady → AwaitingDetailChoice → DocumentReady.
type IConversationService interface {
	HandleUpdate(ctx context.Context, update *telegram.Update) error
}

type conversationService struct {
	bot       Messenger
	stateRepo contract.IStateRepository
	answers   IAnswerService
	extractor *extract.Registry
	booksDir  string
	uploadDir string
	logger    logger.ILogger
}

func NewConversationService(
	bot Messenger,
	stateRepo contract.IStateRepository,
	answers IAnswerService,
	extractor *extract.Registry,
	booksDir string,
	uploadDir string,
	log logger.ILogger,
) IConversationService {
	return &conversationService{
		bot:       bot,
		stateRepo: stateRepo,
		answers:   answers,
		extractor: extractor,
		booksDir:  booksDir,
		uploadDir: uploadDir,
		logger:    log,
	}
}

func (s *conversationService) HandleUpdate(ctx context.Context, update *telegram.Update) error {
	switch {
	case update == nil:
		return nil
	case update.CallbackQuery != nil:
		return s.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		return s.handleMessage(ctx, update.Message)
	default:
		return nil
	}
}

func (s *conversationService) handleMessage(ctx context.Context, msg *telegram.Message) error {
	if msg.From == nil {
		return nil
	}
	if msg.Document != nil {
		return s.handleDocumentUpload(ctx, msg)
	}
	switch command(msg.Text) {
	case "/start":
		return s.sendWelcome(ctx, msg.Chat.ID)
	case "/books":
		return s.showCategories(ctx, msg.Chat.ID, nil)
	case "":
		if strings.TrimSpace(msg.Text) != "" {
			return s.handleQuestion(ctx, msg)
		}
		return nil
	default:
		// Unknown command, ignore.
		return nil
	}
}

// command extracts the leading bot command from a message, dropping the
// "@BotName" suffix clients append in group chats. Empty when the text is
// not a command.
func command(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	cmd := strings.Fields(text)[0]
	if at := strings.IndexByte(cmd, '@'); at != -1 {
		cmd = cmd[:at]
	}
	return cmd
}

func (s *conversationService) handleCallback(ctx context.Context, query *telegram.CallbackQuery) error {
	// Acknowledge first so the client stops its spinner, whatever happens next.
	if err := s.bot.AnswerCallbackQuery(ctx, query.ID); err != nil {
		s.logger.Warn("conversation", "Failed to answer callback query", map[string]interface{}{
			"user_id": query.From.ID,
			"error":   err.Error(),
		})
	}
	if query.Message == nil {
		return nil
	}

	data := query.Data
	switch {
	case data == constant.CallbackNoop:
		return nil
	case data == constant.CallbackBackToCategories:
		return s.showCategories(ctx, query.Message.Chat.ID, query.Message)
	case strings.HasPrefix(data, constant.CallbackCategoryPrefix):
		category := strings.TrimPrefix(data, constant.CallbackCategoryPrefix)
		return s.showBookList(ctx, query.Message, category, 0)
	case strings.HasPrefix(data, constant.CallbackPagePrefix):
		return s.handlePagination(ctx, query)
	case strings.HasPrefix(data, constant.CallbackSelectPrefix):
		return s.handleBookSelection(ctx, query)
	case strings.HasPrefix(data, constant.CallbackDetailPrefix):
		return s.handleDetailChoice(ctx, query)
	case strings.HasPrefix(data, constant.CallbackSuggestionPrefix):
		return s.handleSuggestionClick(ctx, query)
	default:
		s.logger.Warn("conversation", "Unknown callback payload", map[string]interface{}{
			"user_id": query.From.ID,
			"data":    data,
		})
		return nil
	}
}

func (s *conversationService) sendWelcome(ctx context.Context, chatID int64) error {
	_, err := s.bot.SendMessage(ctx, telegram.SendMessageParams{
		ChatID:    chatID,
		Text:      constant.WelcomeMessage,
		ParseMode: telegram.ParseModeMarkdown,
	})
	return err
}

// handleDocumentUpload records the uploaded file as the active document and
// resets any pending question. Overwrites a previously active document.
func (s *conversationService) handleDocumentUpload(ctx context.Context, msg *telegram.Message) error {
	userID := msg.From.ID
	document := msg.Document

	processing, err := s.bot.SendMessage(ctx, telegram.SendMessageParams{
		ChatID: msg.Chat.ID,
		Text:   constant.MsgProcessingFile,
	})
	if err != nil {
		return err
	}

	// The file name comes from the sender; keep only its final element so
	// the destination cannot escape the upload directory.
	destPath := filepath.Join(s.uploadDir, fmt.Sprintf("%s_%s", document.FileID, filepath.Base(document.FileName)))
	if err := s.downloadDocument(ctx, document.FileID, destPath); err != nil {
		s.logger.Error("conversation", "Failed to download uploaded document", map[string]interface{}{
			"user_id": userID,
			"file":    document.FileName,
			"error":   err.Error(),
		})
		s.editText(ctx, processing, constant.MsgFileError, nil)
		return nil
	}

	state := s.stateRepo.Load(ctx, userID)
	state.CurrentDocumentPath = destPath
	state.LastQuestion = ""
	state.PendingSuggestions = nil
	s.stateRepo.Save(ctx, userID, state)

	s.logger.Info("conversation", "Document uploaded", map[string]interface{}{
		"user_id": userID,
		"file":    document.FileName,
		"path":    destPath,
	})
	s.editText(ctx, processing, fmt.Sprintf("✅ File '%s' loaded. Ask away!", document.FileName), nil)
	return nil
}

func (s *conversationService) downloadDocument(ctx context.Context, fileID, destPath string) error {
	file, err := s.bot.GetFile(ctx, fileID)
	if err != nil {
		return err
	}
	return s.bot.DownloadFile(ctx, file.FilePath, destPath)
}

// showCategories rebuilds the catalog and renders the category keyboard,
// editing in place when invoked from a callback.
func (s *conversationService) showCategories(ctx context.Context, chatID int64, editMsg *telegram.Message) error {
	catalog, err := library.Scan(s.booksDir, s.extractor.Supports)
	if err != nil {
		s.logger.Error("conversation", "Library scan failed", map[string]interface{}{
			"dir":   s.booksDir,
			"error": err.Error(),
		})
		_, sendErr := s.bot.SendMessage(ctx, telegram.SendMessageParams{ChatID: chatID, Text: constant.MsgEmptyLibrary})
		return sendErr
	}
	if catalog.IsEmpty() {
		_, err := s.bot.SendMessage(ctx, telegram.SendMessageParams{ChatID: chatID, Text: constant.MsgEmptyLibrary})
		return err
	}

	var rows [][]telegram.InlineKeyboardButton
	for _, category := range catalog.Categories() {
		rows = append(rows, telegram.Row(telegram.Button("📁 "+category, constant.CallbackCategoryPrefix+category)))
	}
	text := "📚 *Available categories:*\n\nSelect a category."
	markup := telegram.NewKeyboard(rows...)

	if editMsg != nil {
		s.editText(ctx, editMsg, text, markup)
		return nil
	}
	_, err = s.bot.SendMessage(ctx, telegram.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   telegram.ParseModeMarkdown,
		ReplyMarkup: markup,
	})
	return err
}

// showBookList renders one page of a category. Pagination never mutates
// UserState; it is a pure view over the freshly scanned catalog.
func (s *conversationService) showBookList(ctx context.Context, editMsg *telegram.Message, category string, page int) error {
	catalog, err := library.Scan(s.booksDir, s.extractor.Supports)
	if err != nil || catalog.Size(category) == 0 {
		s.editText(ctx, editMsg, constant.MsgEmptyCategory, nil)
		return nil
	}

	view := catalog.Page(category, page, constant.BooksPerPage)

	var rows [][]telegram.InlineKeyboardButton
	for _, item := range view.Items {
		rows = append(rows, telegram.Row(telegram.Button(
			"📖 "+item.Filename,
			fmt.Sprintf("%s%s_%d", constant.CallbackSelectPrefix, category, item.Index),
		)))
	}

	var pagination []telegram.InlineKeyboardButton
	if view.HasPrev {
		pagination = append(pagination, telegram.Button("⬅️ Previous",
			fmt.Sprintf("%s%s_%d", constant.CallbackPagePrefix, category, page-1)))
	}
	pagination = append(pagination, telegram.Button(
		fmt.Sprintf("Page %d/%d", page+1, view.TotalPages), constant.CallbackNoop))
	if view.HasNext {
		pagination = append(pagination, telegram.Button("Next ➡️",
			fmt.Sprintf("%s%s_%d", constant.CallbackPagePrefix, category, page+1)))
	}
	rows = append(rows, pagination)
	rows = append(rows, telegram.Row(telegram.Button("⬅️ Back to categories", constant.CallbackBackToCategories)))

	text := fmt.Sprintf("📖 *Books in '%s':*\n\nSelect a book to load it.", category)
	s.editText(ctx, editMsg, text, telegram.NewKeyboard(rows...))
	return nil
}

func (s *conversationService) handlePagination(ctx context.Context, query *telegram.CallbackQuery) error {
	category, page, err := parseIndexedPayload(query.Data, constant.CallbackPagePrefix)
	if err != nil {
		s.editText(ctx, query.Message, constant.MsgPaginationError, nil)
		return nil
	}
	return s.showBookList(ctx, query.Message, category, page)
}

func (s *conversationService) handleBookSelection(ctx context.Context, query *telegram.CallbackQuery) error {
	userID := query.From.ID
	category, index, err := parseIndexedPayload(query.Data, constant.CallbackSelectPrefix)
	if err != nil {
		s.editText(ctx, query.Message, constant.MsgInvalidSelection, nil)
		return nil
	}

	catalog, err := library.Scan(s.booksDir, s.extractor.Supports)
	if err != nil {
		s.editText(ctx, query.Message, constant.MsgInvalidSelection, nil)
		return nil
	}
	item, ok := catalog.Book(category, index)
	if !ok {
		s.editText(ctx, query.Message, constant.MsgInvalidSelection, nil)
		return nil
	}

	state := s.stateRepo.Load(ctx, userID)
	state.CurrentDocumentPath = item.Path
	state.LastQuestion = ""
	state.PendingSuggestions = nil
	s.stateRepo.Save(ctx, userID, state)

	s.logger.Info("conversation", "Book selected", map[string]interface{}{
		"user_id": userID,
		"book":    item.Filename,
	})
	s.editText(ctx, query.Message, fmt.Sprintf("✅ Book '%s' selected. Ask away!", item.Filename), nil)
	return nil
}

// handleQuestion records the question and offers the two detail levels.
// Without an active (still existing) document the question is rejected.
func (s *conversationService) handleQuestion(ctx context.Context, msg *telegram.Message) error {
	userID := msg.From.ID
	state := s.stateRepo.Load(ctx, userID)

	if state.CurrentDocumentPath == "" || !fileExists(state.CurrentDocumentPath) {
		_, err := s.bot.SendMessage(ctx, telegram.SendMessageParams{
			ChatID: msg.Chat.ID,
			Text:   constant.MsgNoDocument,
		})
		return err
	}

	state.LastQuestion = msg.Text
	s.stateRepo.Save(ctx, userID, state)

	s.logger.Info("conversation", "Question recorded", map[string]interface{}{
		"user_id": userID,
		"state":   model.StateOf(state).String(),
	})
	_, err := s.bot.SendMessage(ctx, telegram.SendMessageParams{
		ChatID:      msg.Chat.ID,
		Text:        constant.MsgDetailPrompt,
		ReplyMarkup: detailKeyboard(),
	})
	return err
}

// handleDetailChoice hands the recorded question to the answer pipeline.
// When state was lost between invocations it degrades to a visible message.
func (s *conversationService) handleDetailChoice(ctx context.Context, query *telegram.CallbackQuery) error {
	userID := query.From.ID
	detailLevel := strings.TrimPrefix(query.Data, constant.CallbackDetailPrefix)
	if detailLevel != constant.DetailLevelSimple && detailLevel != constant.DetailLevelDetailed {
		detailLevel = constant.DetailLevelSimple
	}

	state := s.stateRepo.Load(ctx, userID)
	question := state.LastQuestion
	if question == "" {
		s.editText(ctx, query.Message, constant.MsgQuestionLost, nil)
		return nil
	}

	// Turn the choice message into the progress indicator. If it vanished
	// in a race, send a fresh one instead of failing the interaction.
	statusMsg, err := s.bot.EditMessageText(ctx, telegram.EditMessageTextParams{
		ChatID:    query.Message.Chat.ID,
		MessageID: query.Message.MessageID,
		Text:      constant.MsgAnalyzing,
	})
	if err != nil {
		if !telegram.IsMessageNotFound(err) {
			return err
		}
		s.logger.Warn("conversation", "Choice message vanished, sending a new status message", map[string]interface{}{
			"user_id": userID,
		})
		statusMsg, err = s.bot.SendMessage(ctx, telegram.SendMessageParams{
			ChatID: query.Message.Chat.ID,
			Text:   constant.MsgAnalyzing,
		})
		if err != nil {
			return err
		}
	}

	s.logger.Info("conversation", "Detail level chosen", map[string]interface{}{
		"user_id": userID,
		"level":   detailLevel,
	})
	s.answers.Answer(ctx, userID, statusMsg, question, detailLevel)
	return nil
}

// handleSuggestionClick treats a clicked suggestion exactly as a freshly
// typed question. Expired or unknown ids degrade to a visible message and
// leave the state untouched.
func (s *conversationService) handleSuggestionClick(ctx context.Context, query *telegram.CallbackQuery) error {
	userID := query.From.ID
	state := s.stateRepo.Load(ctx, userID)

	question, ok := state.PendingSuggestions[query.Data]
	if !ok {
		s.editText(ctx, query.Message, constant.MsgSuggestionExpired, nil)
		return nil
	}

	// Strip the keyboard so the same round can't be clicked twice.
	if err := s.bot.EditMessageReplyMarkup(ctx, query.Message.Chat.ID, query.Message.MessageID, nil); err != nil {
		s.logger.Warn("conversation", "Failed to remove suggestion keyboard", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}

	state.LastQuestion = question
	s.stateRepo.Save(ctx, userID, state)

	s.logger.Info("conversation", "Suggestion accepted", map[string]interface{}{
		"user_id": userID,
	})
	_, err := s.bot.SendMessage(ctx, telegram.SendMessageParams{
		ChatID:      query.Message.Chat.ID,
		Text:        fmt.Sprintf("New question:\n*\"%s\"*\n\n%s", question, constant.MsgDetailPrompt),
		ParseMode:   telegram.ParseModeMarkdown,
		ReplyMarkup: detailKeyboard(),
	})
	if telegram.IsCantParseEntities(err) {
		_, err = s.bot.SendMessage(ctx, telegram.SendMessageParams{
			ChatID:      query.Message.Chat.ID,
			Text:        fmt.Sprintf("New question:\n\"%s\"\n\n%s", question, constant.MsgDetailPrompt),
			ReplyMarkup: detailKeyboard(),
		})
	}
	return err
}

// editText edits in place, tolerating vanished messages by sending fresh.
func (s *conversationService) editText(ctx context.Context, msg *telegram.Message, text string, markup *telegram.InlineKeyboardMarkup) {
	_, err := s.bot.EditMessageText(ctx, telegram.EditMessageTextParams{
		ChatID:      msg.Chat.ID,
		MessageID:   msg.MessageID,
		Text:        text,
		ParseMode:   telegram.ParseModeMarkdown,
		ReplyMarkup: markup,
	})
	if err == nil {
		return
	}
	if telegram.IsCantParseEntities(err) {
		// Filenames can contain characters Markdown chokes on; retry plain.
		if _, err := s.bot.EditMessageText(ctx, telegram.EditMessageTextParams{
			ChatID:      msg.Chat.ID,
			MessageID:   msg.MessageID,
			Text:        text,
			ReplyMarkup: markup,
		}); err == nil {
			return
		}
	}
	if telegram.IsMessageNotFound(err) {
		if _, err := s.bot.SendMessage(ctx, telegram.SendMessageParams{
			ChatID:      msg.Chat.ID,
			Text:        text,
			ParseMode:   telegram.ParseModeMarkdown,
			ReplyMarkup: markup,
		}); err == nil {
			return
		}
	}
	s.logger.Warn("conversation", "Failed to edit message", map[string]interface{}{
		"chat_id": msg.Chat.ID,
		"error":   err.Error(),
	})
}

func detailKeyboard() *telegram.InlineKeyboardMarkup {
	return telegram.NewKeyboard(telegram.Row(
		telegram.Button("🎯 Simple", constant.CallbackDetailPrefix+constant.DetailLevelSimple),
		telegram.Button("📚 Detailed", constant.CallbackDetailPrefix+constant.DetailLevelDetailed),
	))
}

// parseIndexedPayload splits "<prefix><category>_<n>". The category may
// itself contain underscores, so the index is taken from the last segment.
func parseIndexedPayload(data, prefix string) (string, int, error) {
	rest := strings.TrimPrefix(data, prefix)
	cut := strings.LastIndex(rest, "_")
	if cut <= 0 || cut == len(rest)-1 {
		return "", 0, fmt.Errorf("malformed payload %q", data)
	}
	index, err := strconv.Atoi(rest[cut+1:])
	if err != nil {
		return "", 0, fmt.Errorf("malformed payload %q: %w", data, err)
	}
	return rest[:cut], index, nil
}
