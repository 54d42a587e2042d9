package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCooldownSuppression(t *testing.T) {
	tracker := NewCooldownTracker(5 * time.Second)
	now := time.Now()
	tracker.now = func() time.Time { return now }

	tokens := []string{"tok-yes", "tok-no"}
	assert.False(t, tracker.IsSuppressed(tokens))

	tracker.Record(tokens)

	// Same token set, different order, one second later: suppressed.
	now = now.Add(1 * time.Second)
	assert.True(t, tracker.IsSuppressed([]string{"tok-no", "tok-yes"}))

	// After the window passes: free again.
	now = now.Add(5 * time.Second)
	assert.False(t, tracker.IsSuppressed(tokens))
}

func TestCooldownKeyCanonical(t *testing.T) {
	assert.Equal(t, Key([]string{"b", "a", "c"}), Key([]string{"c", "a", "b"}))
	assert.NotEqual(t, Key([]string{"a", "b"}), Key([]string{"a", "c"}))
}

func TestCooldownPrune(t *testing.T) {
	tracker := NewCooldownTracker(time.Second)
	now := time.Now()
	tracker.now = func() time.Time { return now }

	tracker.Record([]string{"old"})
	now = now.Add(3 * time.Second) // past 2x cooldown
	tracker.Record([]string{"new"})

	tracker.Prune()
	assert.Equal(t, 1, tracker.Len())
	assert.True(t, tracker.IsSuppressed([]string{"new"}))
	assert.False(t, tracker.IsSuppressed([]string{"old"}))
}
