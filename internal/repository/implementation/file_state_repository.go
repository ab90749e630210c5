package implementation

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"ai-studybot-be/internal/model"
	"ai-studybot-be/internal/pkg/logger"
	"ai-studybot-be/internal/repository/contract"
)

// FileStateRepository stores one JSON file per user under a node-local
// directory (typically /tmp, the only writable path on most serverless
// hosts). No cross-instance consistency is provided.
type FileStateRepository struct {
	dir    string
	logger logger.ILogger
}

func NewFileStateRepository(dir string, log logger.ILogger) contract.IStateRepository {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Error("state", "Failed to create state directory", map[string]interface{}{
			"dir":   dir,
			"error": err.Error(),
		})
	}
	return &FileStateRepository{dir: dir, logger: log}
}

func (r *FileStateRepository) statePath(userID int64) string {
	return filepath.Join(r.dir, fmt.Sprintf("state_%d.json", userID))
}

func (r *FileStateRepository) Load(_ context.Context, userID int64) *model.UserState {
	data, err := os.ReadFile(r.statePath(userID))
	if err != nil {
		if !os.IsNotExist(err) {
			r.logger.Warn("state", "Failed to read state file, starting fresh", map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			})
		}
		return &model.UserState{}
	}

	var state model.UserState
	if err := json.Unmarshal(data, &state); err != nil {
		// Empty or malformed file: treat as a fresh user.
		r.logger.Warn("state", "State file was corrupt, resetting state", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return &model.UserState{}
	}
	return &state
}

func (r *FileStateRepository) Save(_ context.Context, userID int64, state *model.UserState) {
	data, err := json.MarshalIndent(state, "", "    ")
	if err != nil {
		r.logger.Error("state", "Failed to encode state", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
		return
	}
	if err := os.WriteFile(r.statePath(userID), data, 0o644); err != nil {
		r.logger.Error("state", "Failed to persist state", map[string]interface{}{
			"user_id": userID,
			"path":    r.statePath(userID),
			"error":   err.Error(),
		})
	}
}
