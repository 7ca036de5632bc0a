package build

import (
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildMetrics_RecordFile(t *testing.T) {
	bm := NewBuildMetrics()
	assert.Equal(t, 0.0, bm.GetSuccessRate())

	bm.RecordFile(FileResult{Rewritten: true, Duration: 10 * time.Millisecond})
	bm.RecordFile(FileResult{Duration: 20 * time.Millisecond})
	bm.RecordFile(FileResult{Rewritten: true, Error: stderrors.New("boom"), Duration: 30 * time.Millisecond})
	bm.RecordFile(FileResult{Rewritten: true, Duration: 20 * time.Millisecond})

	snap := bm.GetSnapshot()
	assert.Equal(t, int64(4), snap.TotalFiles)
	assert.Equal(t, int64(2), snap.RewrittenFiles)
	assert.Equal(t, int64(1), snap.UnchangedFiles)
	assert.Equal(t, int64(1), snap.FailedFiles)
	assert.Equal(t, 80*time.Millisecond, snap.TotalDuration)
	assert.Equal(t, 20*time.Millisecond, snap.AverageDuration)
	assert.InDelta(t, 75.0, bm.GetSuccessRate(), 0.001)
}

func TestBuildMetrics_Concurrent(t *testing.T) {
	bm := NewBuildMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				bm.RecordFile(FileResult{Rewritten: j%2 == 0})
			}
		}()
	}
	wg.Wait()

	snap := bm.GetSnapshot()
	assert.Equal(t, int64(800), snap.TotalFiles)
	assert.Equal(t, int64(400), snap.RewrittenFiles)
	assert.Equal(t, int64(400), snap.UnchangedFiles)
	assert.Equal(t, 100.0, bm.GetSuccessRate())
}
