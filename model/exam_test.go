package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestAnswerMap(t *testing.T) {
	attempt := ExamAttempt{ID: 3, Answers: EncodeAnswers(map[string]string{"1": "true"})}
	answers, err := attempt.AnswerMap()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"1": "true"}, answers)

	empty := ExamAttempt{}
	answers, err = empty.AnswerMap()
	require.NoError(t, err)
	assert.Empty(t, answers)

	corrupt := ExamAttempt{ID: 4, Answers: datatypes.JSON(`{"1":`)}
	_, err = corrupt.AnswerMap()
	assert.ErrorContains(t, err, "attempt 4")
}
