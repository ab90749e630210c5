package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-studybot-be/internal/constant"
	"ai-studybot-be/internal/model"
	"ai-studybot-be/internal/pkg/logger"
	"ai-studybot-be/internal/repository/contract"
	"ai-studybot-be/internal/repository/implementation"
	"ai-studybot-be/pkg/extract"
	"ai-studybot-be/pkg/telegram"
)

const testUserID int64 = 555

func newAnswerFixture(t *testing.T, generator Generator) (*fakeBot, contract.IStateRepository, IAnswerService) {
	t.Helper()
	bot := &fakeBot{}
	stateRepo := implementation.NewFileStateRepository(t.TempDir(), logger.NewNoopLogger())
	answers := NewAnswerService(stateRepo, extract.NewRegistry(logger.NewNoopLogger()), generator, bot, logger.NewNoopLogger())
	return bot, stateRepo, answers
}

func writeDocument(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func statusMessage() *telegram.Message {
	return &telegram.Message{MessageID: 99, Chat: telegram.Chat{ID: testUserID}}
}

func TestAnswerDeliversAnswerWithSuggestions(t *testing.T) {
	generator := &fakeGenerator{
		response: "The dermis sits below the epidermis.\n" + constant.SuggestionSeparator + "\nWhat are its sublayers?\nWhat do fibroblasts do?\n",
	}
	bot, stateRepo, answers := newAnswerFixture(t, generator)
	ctx := context.Background()

	docPath := writeDocument(t, "skin anatomy content")
	stateRepo.Save(ctx, testUserID, &model.UserState{
		CurrentDocumentPath: docPath,
		LastQuestion:        "What is the dermis?",
	})

	answers.Answer(ctx, testUserID, statusMessage(), "What is the dermis?", constant.DetailLevelSimple)

	// Status indicator removed before delivery.
	assert.Equal(t, []int64{99}, bot.deleted)

	require.Len(t, bot.sent, 1)
	sent := bot.lastSent()
	assert.Equal(t, "The dermis sits below the epidermis.", sent.Text)
	require.NotNil(t, sent.ReplyMarkup)
	assert.Len(t, sent.ReplyMarkup.InlineKeyboard, 2)

	state := stateRepo.Load(ctx, testUserID)
	assert.Len(t, state.PendingSuggestions, 2)
	assert.Empty(t, state.LastQuestion)
	assert.Equal(t, model.StateDocumentReady, model.StateOf(state))
	for id, question := range state.PendingSuggestions {
		assert.True(t, strings.HasPrefix(id, constant.CallbackSuggestionPrefix), id)
		assert.Contains(t, []string{"What are its sublayers?", "What do fibroblasts do?"}, question)
	}
}

func TestAnswerPromptCarriesDocumentAndDetailLevel(t *testing.T) {
	generator := &fakeGenerator{response: "answer"}
	_, stateRepo, answers := newAnswerFixture(t, generator)
	ctx := context.Background()

	docPath := writeDocument(t, "unique document body text")
	stateRepo.Save(ctx, testUserID, &model.UserState{CurrentDocumentPath: docPath})

	answers.Answer(ctx, testUserID, statusMessage(), "why?", constant.DetailLevelDetailed)

	require.Len(t, generator.prompts, 1)
	prompt := generator.prompts[0]
	assert.Contains(t, prompt, "unique document body text")
	assert.Contains(t, prompt, constant.DetailInstructionDetailed)
	assert.Contains(t, prompt, constant.SuggestionSeparator)
	assert.Contains(t, prompt, "why?")
}

func TestAnswerSplitsLongAnswers(t *testing.T) {
	longAnswer := strings.Repeat("a", telegram.MessageLimit*2+10)
	generator := &fakeGenerator{
		response: longAnswer + "\n" + constant.SuggestionSeparator + "\nFollow-up?",
	}
	bot, stateRepo, answers := newAnswerFixture(t, generator)
	ctx := context.Background()

	docPath := writeDocument(t, "content")
	stateRepo.Save(ctx, testUserID, &model.UserState{CurrentDocumentPath: docPath})

	answers.Answer(ctx, testUserID, statusMessage(), "q", constant.DetailLevelSimple)

	require.Len(t, bot.sent, 3)
	assert.Len(t, bot.sent[0].Text, telegram.MessageLimit)
	assert.Len(t, bot.sent[1].Text, telegram.MessageLimit)
	assert.Len(t, bot.sent[2].Text, 10)

	// Suggestion controls attach only to the final chunk.
	assert.Nil(t, bot.sent[0].ReplyMarkup)
	assert.Nil(t, bot.sent[1].ReplyMarkup)
	assert.NotNil(t, bot.sent[2].ReplyMarkup)
}

func TestAnswerWithoutSeparatorHasNoSuggestions(t *testing.T) {
	generator := &fakeGenerator{response: "Just an answer, nothing else."}
	bot, stateRepo, answers := newAnswerFixture(t, generator)
	ctx := context.Background()

	docPath := writeDocument(t, "content")
	stateRepo.Save(ctx, testUserID, &model.UserState{CurrentDocumentPath: docPath})

	answers.Answer(ctx, testUserID, statusMessage(), "q", constant.DetailLevelSimple)

	require.Len(t, bot.sent, 1)
	assert.Equal(t, "Just an answer, nothing else.", bot.lastSent().Text)
	assert.Nil(t, bot.lastSent().ReplyMarkup)
	assert.Empty(t, stateRepo.Load(ctx, testUserID).PendingSuggestions)
}

func TestAnswerMissingDocumentAborts(t *testing.T) {
	generator := &fakeGenerator{response: "unused"}
	bot, stateRepo, answers := newAnswerFixture(t, generator)
	ctx := context.Background()

	stateRepo.Save(ctx, testUserID, &model.UserState{CurrentDocumentPath: "/nonexistent/doc.pdf"})

	answers.Answer(ctx, testUserID, statusMessage(), "q", constant.DetailLevelSimple)

	assert.Empty(t, generator.prompts)
	require.Len(t, bot.edits, 1)
	assert.Equal(t, constant.MsgDocumentMissing, bot.lastEdit().Text)
}

func TestAnswerUnreadableDocumentAborts(t *testing.T) {
	generator := &fakeGenerator{response: "unused"}
	bot, stateRepo, answers := newAnswerFixture(t, generator)
	ctx := context.Background()

	// A .pdf that is not a PDF: extraction fails, pipeline must stop.
	path := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0o644))
	stateRepo.Save(ctx, testUserID, &model.UserState{CurrentDocumentPath: path})

	answers.Answer(ctx, testUserID, statusMessage(), "q", constant.DetailLevelSimple)

	assert.Empty(t, generator.prompts)
	require.Len(t, bot.edits, 1)
	assert.Equal(t, constant.MsgDocumentUnread, bot.lastEdit().Text)
}

func TestAnswerSuggestionsOnlyResponseReportsAiError(t *testing.T) {
	// No answer text before the separator: there is nothing deliverable,
	// so the pipeline must stop before touching state or the status message.
	generator := &fakeGenerator{response: constant.SuggestionSeparator + "\nQ1?\nQ2?"}
	bot, stateRepo, answers := newAnswerFixture(t, generator)
	ctx := context.Background()

	docPath := writeDocument(t, "content")
	stateRepo.Save(ctx, testUserID, &model.UserState{
		CurrentDocumentPath: docPath,
		LastQuestion:        "q",
	})

	answers.Answer(ctx, testUserID, statusMessage(), "q", constant.DetailLevelSimple)

	assert.Empty(t, bot.sent)
	assert.Empty(t, bot.deleted)
	require.Len(t, bot.edits, 1)
	assert.Equal(t, constant.MsgAiError, bot.lastEdit().Text)

	state := stateRepo.Load(ctx, testUserID)
	assert.Equal(t, "q", state.LastQuestion)
	assert.Empty(t, state.PendingSuggestions)
}

func TestAnswerGenerationFailureReportsAiError(t *testing.T) {
	generator := &fakeGenerator{err: errors.New("boom")}
	bot, stateRepo, answers := newAnswerFixture(t, generator)
	ctx := context.Background()

	docPath := writeDocument(t, "content")
	stateRepo.Save(ctx, testUserID, &model.UserState{CurrentDocumentPath: docPath})

	answers.Answer(ctx, testUserID, statusMessage(), "q", constant.DetailLevelSimple)

	assert.Empty(t, bot.sent)
	require.Len(t, bot.edits, 1)
	assert.Equal(t, constant.MsgAiError, bot.lastEdit().Text)
}

func TestAnswerRetriesPlainTextWhenMarkdownRejected(t *testing.T) {
	generator := &fakeGenerator{response: "Broken *markdown answer"}
	bot, stateRepo, answers := newAnswerFixture(t, generator)
	bot.rejectMarkdownSends = true
	ctx := context.Background()

	docPath := writeDocument(t, "content")
	stateRepo.Save(ctx, testUserID, &model.UserState{CurrentDocumentPath: docPath})

	answers.Answer(ctx, testUserID, statusMessage(), "q", constant.DetailLevelSimple)

	require.Len(t, bot.sent, 1)
	assert.Equal(t, "Broken *markdown answer", bot.lastSent().Text)
	assert.Empty(t, bot.lastSent().ParseMode)
}

func TestParseModelResponse(t *testing.T) {
	tests := []struct {
		name            string
		input           string
		wantAnswer      string
		wantSuggestions []string
	}{
		{
			name:            "answer with two suggestions",
			input:           "Answer text\n" + constant.SuggestionSeparator + "\nQ1?\nQ2?\n",
			wantAnswer:      "Answer text",
			wantSuggestions: []string{"Q1?", "Q2?"},
		},
		{
			name:            "no separator means no suggestions",
			input:           "Only an answer here",
			wantAnswer:      "Only an answer here",
			wantSuggestions: nil,
		},
		{
			name:            "blank and single-char suggestion lines are dropped",
			input:           "A\n" + constant.SuggestionSeparator + "\nQ1?\n\n?\n  \nQ2?",
			wantAnswer:      "A",
			wantSuggestions: []string{"Q1?", "Q2?"},
		},
		{
			name:            "separator with nothing after it",
			input:           "Answer\n" + constant.SuggestionSeparator + "\n",
			wantAnswer:      "Answer",
			wantSuggestions: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answer, suggestions := ParseModelResponse(tt.input)

			assert.Equal(t, tt.wantAnswer, answer)
			assert.Equal(t, tt.wantSuggestions, suggestions)
		})
	}
}
