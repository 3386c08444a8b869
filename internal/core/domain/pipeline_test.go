package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewPipelineError(StageRetrieving, cause)

	assert.Equal(t, "pipeline stage RETRIEVING: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)

	var pipelineErr *PipelineError
	require.ErrorAs(t, error(err), &pipelineErr)
	assert.Equal(t, StageRetrieving, pipelineErr.Stage)
}
