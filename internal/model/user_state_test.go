package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateOf(t *testing.T) {
	tests := []struct {
		name  string
		state *UserState
		want  State
	}{
		{"nil record", nil, StateIdle},
		{"fresh user", &UserState{}, StateIdle},
		{"question without document", &UserState{LastQuestion: "q"}, StateIdle},
		{"document loaded", &UserState{CurrentDocumentPath: "/doc.txt"}, StateDocumentReady},
		{"question pending", &UserState{CurrentDocumentPath: "/doc.txt", LastQuestion: "q"}, StateAwaitingDetailChoice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StateOf(tt.state))
		})
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "IDLE", StateIdle.String())
	assert.Equal(t, "DOCUMENT_READY", StateDocumentReady.String())
	assert.Equal(t, "AWAITING_DETAIL_CHOICE", StateAwaitingDetailChoice.String())
}
