package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"ai-studybot-be/internal/constant"
	"ai-studybot-be/internal/pkg/logger"
	"ai-studybot-be/internal/repository/contract"
	"ai-studybot-be/pkg/extract"
	"ai-studybot-be/pkg/telegram"
	"ai-studybot-be/pkg/utils"
)

// IAnswerService runs the document-grounded answer pipeline: validate the
// document, extract its text, prompt the model, parse the reply and deliver
// it within the platform's message limits.
type IAnswerService interface {
	Answer(ctx context.Context, userID int64, statusMsg *telegram.Message, question, detailLevel string)
}

type answerService struct {
	stateRepo contract.IStateRepository
	extractor *extract.Registry
	generator Generator
	bot       Messenger
	textCache *gocache.Cache
	logger    logger.ILogger
}

func NewAnswerService(
	stateRepo contract.IStateRepository,
	extractor *extract.Registry,
	generator Generator,
	bot Messenger,
	log logger.ILogger,
) IAnswerService {
	return &answerService{
		stateRepo: stateRepo,
		extractor: extractor,
		generator: generator,
		bot:       bot,
		// Extraction is the most expensive local step; cache per path so
		// repeat questions about the same document skip the re-parse.
		textCache: gocache.New(15*time.Minute, 5*time.Minute),
		logger:    log,
	}
}

// Answer replaces statusMsg ("analyzing…") with the final answer messages.
// Every failure path degrades to a short user-visible message; nothing
// propagates.
func (s *answerService) Answer(ctx context.Context, userID int64, statusMsg *telegram.Message, question, detailLevel string) {
	state := s.stateRepo.Load(ctx, userID)

	documentPath := state.CurrentDocumentPath
	if documentPath == "" || !fileExists(documentPath) {
		s.editStatus(ctx, statusMsg, constant.MsgDocumentMissing)
		return
	}

	documentText := s.documentText(documentPath)
	if documentText == "" {
		s.editStatus(ctx, statusMsg, constant.MsgDocumentUnread)
		return
	}

	prompt := buildGroundedPrompt(question, detailLevel, documentText)

	rawResponse, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.logger.Error("answer", "Generation failed", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		s.editStatus(ctx, statusMsg, constant.MsgAiError)
		return
	}

	answer, suggestions := ParseModelResponse(rawResponse)
	if answer == "" {
		// A suggestions-only reply has nothing deliverable: the platform
		// rejects empty message text.
		s.logger.Error("answer", "Model returned an empty answer", map[string]interface{}{
			"user_id": userID,
		})
		s.editStatus(ctx, statusMsg, constant.MsgAiError)
		return
	}

	// Replace the suggestion map wholesale; the question that produced the
	// old one is consumed now.
	state.PendingSuggestions = make(map[string]string, len(suggestions))
	state.LastQuestion = ""
	var keyboard *telegram.InlineKeyboardMarkup
	if len(suggestions) > 0 {
		var rows [][]telegram.InlineKeyboardButton
		for _, suggestion := range suggestions {
			id := constant.CallbackSuggestionPrefix + uuid.NewString()[:8]
			state.PendingSuggestions[id] = suggestion
			rows = append(rows, telegram.Row(telegram.Button("› "+truncate(suggestion, 60), id)))
		}
		keyboard = telegram.NewKeyboard(rows...)
	}
	s.stateRepo.Save(ctx, userID, state)

	// Remove the "analyzing…" indicator before delivering results. A race
	// where it is already gone is not an error.
	if err := s.bot.DeleteMessage(ctx, statusMsg.Chat.ID, statusMsg.MessageID); err != nil {
		if telegram.IsMessageNotFound(err) {
			s.logger.Warn("answer", "Status message was already deleted", map[string]interface{}{
				"user_id": userID,
			})
		} else {
			s.logger.Warn("answer", "Failed to delete status message", map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			})
		}
	}

	chunks := utils.ChunkText(answer, telegram.MessageLimit)
	for i, chunk := range chunks {
		var markup *telegram.InlineKeyboardMarkup
		if i == len(chunks)-1 {
			markup = keyboard
		}
		if err := s.sendFinal(ctx, statusMsg.Chat.ID, chunk, markup); err != nil {
			s.logger.Error("answer", "Failed to deliver answer chunk", map[string]interface{}{
				"user_id": userID,
				"chunk":   i,
				"error":   err.Error(),
			})
			return
		}
	}
}

// documentText extracts (or re-uses cached) document text; empty on failure.
func (s *answerService) documentText(path string) string {
	if cached, found := s.textCache.Get(path); found {
		return cached.(string)
	}
	text, err := s.extractor.Extract(path)
	if err != nil || text == "" {
		// Already logged by the registry with the path.
		return ""
	}
	s.textCache.Set(path, text, gocache.DefaultExpiration)
	return text
}

// sendFinal sends with Markdown first; when Telegram rejects the entities,
// the same text is retried as plain text rather than failing the delivery.
func (s *answerService) sendFinal(ctx context.Context, chatID int64, text string, markup *telegram.InlineKeyboardMarkup) error {
	_, err := s.bot.SendMessage(ctx, telegram.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   telegram.ParseModeMarkdown,
		ReplyMarkup: markup,
	})
	if telegram.IsCantParseEntities(err) {
		s.logger.Warn("answer", "Markdown parse failed, resending as plain text", map[string]interface{}{
			"chat_id": chatID,
		})
		_, err = s.bot.SendMessage(ctx, telegram.SendMessageParams{
			ChatID:      chatID,
			Text:        text,
			ReplyMarkup: markup,
		})
	}
	return err
}

func (s *answerService) editStatus(ctx context.Context, statusMsg *telegram.Message, text string) {
	_, err := s.bot.EditMessageText(ctx, telegram.EditMessageTextParams{
		ChatID:    statusMsg.Chat.ID,
		MessageID: statusMsg.MessageID,
		Text:      text,
	})
	if err != nil {
		s.logger.Warn("answer", "Failed to edit status message", map[string]interface{}{
			"chat_id": statusMsg.Chat.ID,
			"error":   err.Error(),
		})
	}
}

// buildGroundedPrompt embeds the strict-grounding instruction, the chosen
// detail level, the mandated response structure and the full document text.
func buildGroundedPrompt(question, detailLevel, documentText string) string {
	instruction := constant.DetailInstructionSimple
	if detailLevel == constant.DetailLevelDetailed {
		instruction = constant.DetailInstructionDetailed
	}

	var sb strings.Builder
	sb.WriteString(constant.GroundedPromptHeader)
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "**Detail rule:** The user asked for a '%s' answer. You must %s\n", detailLevel, instruction)
	sb.WriteString(constant.GroundedPromptRules)
	sb.WriteString("\n")
	sb.WriteString(constant.DocumentBeginMarker)
	sb.WriteString("\n")
	sb.WriteString(documentText)
	sb.WriteString("\n")
	sb.WriteString(constant.DocumentEndMarker)
	sb.WriteString("\n")
	fmt.Fprintf(&sb, "**User question:** %s\n", question)
	sb.WriteString("**Your structured answer:**\n")
	return sb.String()
}

// ParseModelResponse splits the raw model output on the suggestion
// separator. Without the separator the whole text is the answer and there
// are no suggestions.
func ParseModelResponse(fullText string) (string, []string) {
	before, after, found := strings.Cut(fullText, constant.SuggestionSeparator)
	answer := strings.TrimSpace(before)
	if !found {
		return answer, nil
	}

	var suggestions []string
	for _, line := range strings.Split(strings.TrimSpace(after), "\n") {
		line = strings.TrimSpace(line)
		if line != "" && len(line) > 1 {
			suggestions = append(suggestions, line)
		}
	}
	return answer, suggestions
}

func truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
