package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareDeltaClassifiesThresholds(t *testing.T) {
	c := NewStateComparator(0.1)

	assert.Equal(t, InSync, c.CompareDelta(1, 1, 0.01, 0, 0))
	assert.Equal(t, Warning, c.CompareDelta(1, 2, 0.08, 0, 0))
	assert.Equal(t, NeedsRollback, c.CompareDelta(1, 3, 0.2, 0, 0))
}

func TestWarningThresholdIsSeventyPercentOfRollback(t *testing.T) {
	c := NewStateComparator(1.0)
	assert.Equal(t, NeedsRollback, c.CompareDelta(1, 1, 1.01, 0, 0))
	assert.Equal(t, Warning, c.CompareDelta(1, 2, 0.71, 0, 0))
	assert.Equal(t, InSync, c.CompareDelta(1, 3, 0.69, 0, 0))
}

func TestAverageDeltaComputesMeanOfRecent(t *testing.T) {
	c := NewStateComparator(1.0)
	c.CompareDelta(1, 1, 0.1, 0, 0)
	c.CompareDelta(1, 2, 0.3, 0, 0)

	avg, ok := c.AverageDelta(1, 10)
	assert.True(t, ok)
	assert.InDelta(t, 0.2, avg, 1e-4)
}

func TestAverageDeltaIgnoresOtherRobots(t *testing.T) {
	c := NewStateComparator(1.0)
	c.CompareDelta(2, 1, 0.9, 0, 0)

	_, ok := c.AverageDelta(1, 10)
	assert.False(t, ok)
}

func TestRollbackFrequencyCountsExceedances(t *testing.T) {
	c := NewStateComparator(0.1)
	c.CompareDelta(1, 1, 0.2, 0, 0)
	c.CompareDelta(1, 2, 0.01, 0, 0)
	c.CompareDelta(1, 3, 0.2, 0, 0)
	c.CompareDelta(1, 4, 0.01, 0, 0)

	freq := c.RollbackFrequency(1, 10)
	assert.InDelta(t, 0.5, freq, 1e-4)
}

func TestClearHistoryResetsAverages(t *testing.T) {
	c := NewStateComparator(1.0)
	c.CompareDelta(1, 1, 0.5, 0, 0)

	c.ClearHistory()

	_, ok := c.AverageDelta(1, 10)
	assert.False(t, ok)
}
