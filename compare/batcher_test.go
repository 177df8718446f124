package compare

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/tendercheck/config"
	"github.com/c360studio/tendercheck/llm"
	"github.com/c360studio/tendercheck/tender"
)

// stubJudge answers every batch with a fixed status, echoing back the
// requirement IDs found in the prompt. omit drops specific IDs from the
// answer; fail makes every call error.
type stubJudge struct {
	status string
	score  int
	omit   map[string]bool
	fail   bool

	mu           sync.Mutex
	calls        int
	inFlight     int
	maxSeen      int
	temperatures []float64
}

func (s *stubJudge) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	s.mu.Lock()
	s.calls++
	s.inFlight++
	if s.inFlight > s.maxSeen {
		s.maxSeen = s.inFlight
	}
	if req.Temperature != nil {
		s.temperatures = append(s.temperatures, *req.Temperature)
	}
	s.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()

	if s.fail {
		return nil, fmt.Errorf("judge unavailable")
	}

	var entries []map[string]any
	for _, line := range strings.Split(req.Messages[len(req.Messages)-1].Content, "\n") {
		if !strings.HasPrefix(line, "- id: ") {
			continue
		}
		id := strings.TrimPrefix(line, "- id: ")
		if s.omit[id] {
			continue
		}
		entries = append(entries, map[string]any{
			"requirement_id": id,
			"status":         s.status,
			"score":          s.score,
			"reasoning":      "stub verdict",
			"source_quote":   "",
		})
	}

	content, _ := json.Marshal(map[string]any{"verdicts": entries})
	return &llm.Response{Content: string(content), Model: "stub"}, nil
}

func batchConfig(policy config.FailurePolicy) config.BatchConfig {
	return config.BatchConfig{
		Size:           2,
		Concurrency:    2,
		Timeout:        time.Second,
		ProposalBudget: 6000,
		SingleBudget:   12000,
		OnJudgeFailure: policy,
	}
}

func requirements(n int) []tender.Requirement {
	reqs := make([]tender.Requirement, n)
	for i := range reqs {
		reqs[i] = tender.Requirement{
			ID:   fmt.Sprintf("r%d", i+1),
			Text: fmt.Sprintf("requirement %d", i+1),
		}
	}
	return reqs
}

func TestBatcher_OneVerdictPerRequirement(t *testing.T) {
	judge := &stubJudge{status: "COMPLIANT", score: 90}
	batcher := NewBatcher(judge, batchConfig(config.FailOpen))

	reqs := requirements(5)
	verdicts, err := batcher.Compare(context.Background(), reqs, "proposal text")
	require.NoError(t, err)
	require.Len(t, verdicts, 5)

	for _, req := range reqs {
		v, ok := verdicts[req.ID]
		require.True(t, ok, "missing verdict for %s", req.ID)
		assert.Equal(t, tender.VerdictCompliant, v.Status)
		assert.False(t, v.Degraded)
	}

	// 5 requirements at batch size 2 means 3 judge calls.
	assert.Equal(t, 3, judge.calls)
}

func TestBatcher_FillsDroppedIDsWithDegradedVerdicts(t *testing.T) {
	judge := &stubJudge{status: "COMPLIANT", score: 90, omit: map[string]bool{"r2": true}}
	batcher := NewBatcher(judge, batchConfig(config.FailOpen))

	verdicts, err := batcher.Compare(context.Background(), requirements(3), "proposal text")
	require.NoError(t, err)
	require.Len(t, verdicts, 3)

	dropped := verdicts["r2"]
	assert.True(t, dropped.Degraded)
	assert.Equal(t, tender.VerdictCompliant, dropped.Status)
	assert.Equal(t, degradedScore, dropped.Score)
	assert.Equal(t, degradedReasoning, dropped.Reasoning)

	assert.False(t, verdicts["r1"].Degraded)
	assert.False(t, verdicts["r3"].Degraded)
}

func TestBatcher_JudgeFailureDegradesWholeBatch(t *testing.T) {
	judge := &stubJudge{fail: true}
	batcher := NewBatcher(judge, batchConfig(config.FailOpen))

	verdicts, err := batcher.Compare(context.Background(), requirements(4), "proposal text")
	require.NoError(t, err)
	require.Len(t, verdicts, 4)

	for id, v := range verdicts {
		assert.True(t, v.Degraded, "verdict for %s should be degraded", id)
		assert.Equal(t, tender.VerdictCompliant, v.Status)
	}
}

func TestBatcher_FailClosedPolicy(t *testing.T) {
	judge := &stubJudge{fail: true}
	batcher := NewBatcher(judge, batchConfig(config.FailClosed))

	verdicts, err := batcher.Compare(context.Background(), requirements(2), "proposal text")
	require.NoError(t, err)

	for _, v := range verdicts {
		assert.True(t, v.Degraded)
		assert.Equal(t, tender.VerdictNonCompliant, v.Status)
	}
}

func TestBatcher_ConcurrencyBounded(t *testing.T) {
	judge := &stubJudge{status: "COMPLIANT", score: 90}
	cfg := batchConfig(config.FailOpen)
	cfg.Size = 1
	cfg.Concurrency = 2
	batcher := NewBatcher(judge, cfg)

	verdicts, err := batcher.Compare(context.Background(), requirements(8), "proposal text")
	require.NoError(t, err)
	assert.Len(t, verdicts, 8)
	assert.LessOrEqual(t, judge.maxSeen, 2)
	assert.Equal(t, 8, judge.calls)
}

func TestBatcher_SendsConfiguredTemperature(t *testing.T) {
	judge := &stubJudge{status: "COMPLIANT", score: 90}
	batcher := NewBatcher(judge, batchConfig(config.FailOpen), WithTemperature(0.2))

	_, err := batcher.Compare(context.Background(), requirements(3), "proposal text")
	require.NoError(t, err)

	require.NotEmpty(t, judge.temperatures)
	for _, temp := range judge.temperatures {
		assert.InDelta(t, 0.2, temp, 1e-9)
	}
}

func TestBatcher_DefaultTemperatureIsZero(t *testing.T) {
	judge := &stubJudge{status: "COMPLIANT", score: 90}
	batcher := NewBatcher(judge, batchConfig(config.FailOpen))

	_, err := batcher.Compare(context.Background(), requirements(1), "proposal text")
	require.NoError(t, err)

	require.Len(t, judge.temperatures, 1)
	assert.Zero(t, judge.temperatures[0])
}

func TestBatcher_EmptyInput(t *testing.T) {
	batcher := NewBatcher(&stubJudge{}, batchConfig(config.FailOpen))

	verdicts, err := batcher.Compare(context.Background(), nil, "proposal text")
	require.NoError(t, err)
	assert.Empty(t, verdicts)
}

func TestPartition(t *testing.T) {
	reqs := requirements(5)

	batches := partition(reqs, 2)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 2)
	assert.Len(t, batches[1], 2)
	assert.Len(t, batches[2], 1)

	assert.Len(t, partition(reqs, 10), 1)
	assert.Len(t, partition(nil, 2), 0)
}
