package job

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJob() *Job {
	return New(Definition{
		ID:      "job-1",
		Name:    "say hello",
		Action:  NewAction("echo", "hello"),
		AgentID: "agent-1",
	})
}

func TestJobLifecycle(t *testing.T) {
	j := newTestJob()
	assert.Equal(t, StatusPending, j.Status())
	assert.Nil(t, j.StartedAt())

	require.NoError(t, j.Start(time.Now()))
	assert.Equal(t, StatusRunning, j.Status())
	assert.NotNil(t, j.StartedAt())
	assert.Nil(t, j.CompletedAt())

	require.NoError(t, j.Complete("hello\n", true, time.Now()))
	assert.Equal(t, StatusCompleted, j.Status())
	require.NotNil(t, j.Result())
	assert.Equal(t, "hello\n", *j.Result())
	require.NotNil(t, j.Success())
	assert.True(t, *j.Success())
	assert.NotNil(t, j.CompletedAt())

	j.MarkSubmitted()
	assert.Equal(t, StatusReported, j.Status())
	assert.True(t, j.Submitted())
}

func TestJobWriteOnce(t *testing.T) {
	j := newTestJob()

	require.NoError(t, j.Start(time.Now()))
	assert.Error(t, j.Start(time.Now()), "second Start must fail")

	first := j.StartedAt()
	require.NoError(t, j.Complete("out", true, time.Now()))
	assert.Error(t, j.Complete("other", false, time.Now()), "second Complete must fail")

	// Fields written once keep their first value.
	assert.Equal(t, first, j.StartedAt())
	assert.Equal(t, "out", *j.Result())
	assert.True(t, *j.Success())
}

func TestJobSubmittedMonotonic(t *testing.T) {
	j := newTestJob()
	assert.False(t, j.Submitted())

	j.MarkSubmitted()
	j.MarkSubmitted()
	assert.True(t, j.Submitted())
}

func TestJobCompletionFieldsWrittenTogether(t *testing.T) {
	j := newTestJob()
	require.NoError(t, j.Start(time.Now()))

	// completed_at is non-nil iff result and success are non-nil.
	assert.Nil(t, j.CompletedAt())
	assert.Nil(t, j.Result())
	assert.Nil(t, j.Success())

	require.NoError(t, j.Complete("done", false, time.Now()))
	assert.NotNil(t, j.CompletedAt())
	assert.NotNil(t, j.Result())
	assert.NotNil(t, j.Success())
}

func TestJobDefaults(t *testing.T) {
	j := New(Definition{Action: NewAction("true")})

	assert.NotEmpty(t, j.ID(), "missing ID should be generated")
	assert.False(t, j.CreatedAt().IsZero(), "missing CreatedAt should default to now")
}

func TestJobJSONRoundTrip(t *testing.T) {
	j := New(Definition{
		ID:      "job-42",
		Name:    "uptime check",
		Action:  NewAction("uptime", "-p"),
		AgentID: "agent-7",
		Timeout: 90 * time.Second,
	})
	require.NoError(t, j.Start(time.Now()))
	require.NoError(t, j.Complete("up 3 days\n", true, time.Now()))

	data, err := json.Marshal(j)
	require.NoError(t, err)

	var decoded Job
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "job-42", decoded.ID())
	assert.Equal(t, "uptime", decoded.Action().Program)
	assert.Equal(t, []string{"-p"}, decoded.Action().Arguments)
	assert.Equal(t, 90*time.Second, decoded.Timeout())
	assert.Equal(t, StatusCompleted, decoded.Status())
	require.NotNil(t, decoded.Result())
	assert.Equal(t, "up 3 days\n", *decoded.Result())
	require.NotNil(t, decoded.Success())
	assert.True(t, *decoded.Success())
}

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		status  Status
		wantErr bool
	}{
		{name: "pending", input: "pending", status: StatusPending},
		{name: "running", input: "running", status: StatusRunning},
		{name: "completed", input: "completed", status: StatusCompleted},
		{name: "reported", input: "reported", status: StatusReported},
		{name: "invalid", input: "exploded", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, err := ParseStatus(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.input, status.String())
		})
	}
}
