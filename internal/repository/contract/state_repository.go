package contract

import (
	"context"

	"ai-studybot-be/internal/model"
)

// IStateRepository persists one UserState record per Telegram user id.
//
// Load never fails: a missing or corrupt record is returned as a fresh empty
// state (corruption is logged by the implementation). Save is best-effort;
// a persistence failure is logged but never surfaced, so that an answer
// already delivered to the user is not undone by a storage error.
type IStateRepository interface {
	Load(ctx context.Context, userID int64) *model.UserState
	Save(ctx context.Context, userID int64, state *model.UserState)
}
