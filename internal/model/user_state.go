package model

// UserState is everything the bot remembers about one user between updates.
// A zero value means a fresh user.
type UserState struct {
	// CurrentDocumentPath points at the active document on local disk.
	// Storage is ephemeral, so consumers must re-check existence before use.
	CurrentDocumentPath string `json:"current_document_path,omitempty"`

	// LastQuestion is the question awaiting a detail-level choice.
	LastQuestion string `json:"last_question,omitempty"`

	// PendingSuggestions maps opaque suggestion ids to follow-up question
	// text. Replaced wholesale each time new suggestions are generated.
	PendingSuggestions map[string]string `json:"pending_suggestions,omitempty"`
}

// State is the explicit conversation state derived from UserState contents.
type State int

const (
	StateIdle State = iota
	StateDocumentReady
	StateAwaitingDetailChoice
)

func (s State) String() string {
	switch s {
	case StateDocumentReady:
		return "DOCUMENT_READY"
	case StateAwaitingDetailChoice:
		return "AWAITING_DETAIL_CHOICE"
	default:
		return "IDLE"
	}
}

// StateOf derives the conversation state. The state machine is not stored;
// it is a pure function of the record.
func StateOf(us *UserState) State {
	switch {
	case us == nil || us.CurrentDocumentPath == "":
		return StateIdle
	case us.LastQuestion != "":
		return StateAwaitingDetailChoice
	default:
		return StateDocumentReady
	}
}
