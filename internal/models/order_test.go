package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidStatus(t *testing.T) {
	for _, s := range []string{StatusOpen, StatusInProgress, StatusAwaitingApproval, StatusAwaitingMaterial, StatusCompleted, StatusCancelled} {
		assert.True(t, ValidStatus(s), s)
	}
	assert.False(t, ValidStatus("Pausada"))
	assert.False(t, ValidStatus("aberta")) // values are case sensitive
}

func TestTerminalStatus(t *testing.T) {
	assert.True(t, TerminalStatus(StatusCompleted))
	assert.True(t, TerminalStatus(StatusCancelled))
	assert.False(t, TerminalStatus(StatusOpen))
	assert.False(t, TerminalStatus(StatusAwaitingApproval))
}

func TestValidAttachmentCategory(t *testing.T) {
	assert.True(t, ValidAttachmentCategory(CategoryQuote))
	assert.True(t, ValidAttachmentCategory(CategoryPhotoFinal))
	assert.False(t, ValidAttachmentCategory("nota_fiscal"))
}
