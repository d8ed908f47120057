package contextmgr

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextManager_RetentionBound(t *testing.T) {
	cm := NewContextManager()

	for i := 0; i < 50; i++ {
		cm.AddMessage(RoleUser, fmt.Sprintf("message %d", i))
		assert.LessOrEqual(t, cm.Len(), DefaultMaxEntries)
	}

	require.Equal(t, DefaultMaxEntries, cm.Len())

	// Oldest entries must have been dropped first.
	messages := cm.Messages()
	assert.Equal(t, "message 30", messages[0].Content)
	assert.Equal(t, "message 49", messages[len(messages)-1].Content)
}

func TestContextManager_RecentWindow(t *testing.T) {
	cm := NewContextManager()

	for i := 0; i < 10; i++ {
		cm.AddMessage(RoleAssistant, fmt.Sprintf("entry %d", i))
	}

	recent := cm.Recent()
	require.Len(t, recent, DefaultWindow)
	assert.Equal(t, "entry 4", recent[0].Content)
	assert.Equal(t, "entry 9", recent[len(recent)-1].Content)
}

func TestContextManager_RecentShortHistory(t *testing.T) {
	cm := NewContextManager()
	cm.AddMessage(RoleUser, "only one")

	recent := cm.Recent()
	require.Len(t, recent, 1)
	assert.Equal(t, "only one", recent[0].Content)
}

func TestContextManager_Clear(t *testing.T) {
	cm := NewContextManager()
	cm.AddMessage(RoleUser, "something")
	cm.Clear()
	assert.Equal(t, 0, cm.Len())
	assert.Empty(t, cm.Recent())
}

func TestContextManager_CountTokens(t *testing.T) {
	cm := NewContextManager()
	assert.Equal(t, 0, cm.CountTokens())

	cm.AddMessage(RoleUser, "integrate the billing API into the cluster")
	assert.Greater(t, cm.CountTokens(), 0)
}

func TestTokenCounter_Fallback(t *testing.T) {
	tc := &TokenCounter{} // nil codec forces character-based estimation
	assert.Equal(t, 3, tc.CountTokens("abcdefghijklm"))
}
