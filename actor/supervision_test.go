package actor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRestartStatisticsWithinBudget(t *testing.T) {
	var r restartStatistics
	for i := 0; i < 3; i++ {
		ok := r.recordAndCheck(3, time.Second)
		assert.True(t, ok, "attempt %d should stay within budget", i+1)
	}
}

func TestRestartStatisticsExceedsBudget(t *testing.T) {
	var r restartStatistics
	for i := 0; i < 3; i++ {
		assert.True(t, r.recordAndCheck(3, time.Second))
	}
	assert.False(t, r.recordAndCheck(3, time.Second), "4th restart within the window exceeds maxRetries=3")
}

func TestRestartStatisticsWindowResets(t *testing.T) {
	var r restartStatistics
	for i := 0; i < 3; i++ {
		assert.True(t, r.recordAndCheck(3, 10*time.Millisecond))
	}
	assert.False(t, r.recordAndCheck(3, 10*time.Millisecond))

	time.Sleep(20 * time.Millisecond)
	assert.True(t, r.recordAndCheck(3, 10*time.Millisecond), "a new window should reset the count")
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "Resume", DecisionResume.String())
	assert.Equal(t, "Restart", DecisionRestart.String())
	assert.Equal(t, "Stop", DecisionStop.String())
	assert.Equal(t, "Escalate", DecisionEscalate.String())
}
