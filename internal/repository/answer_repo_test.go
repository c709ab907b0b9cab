package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestAnswerRepositoryListBySubmissionOrdersByPosition(t *testing.T) {
	db := setupTestDB(t)
	seeded := seedSubmission(t, db)
	repo := NewAnswerRepository(db)

	answers, err := repo.ListBySubmission(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.Len(t, answers, 2)
	require.Equal(t, 1, answers[0].Question.Position)
	require.Equal(t, 2, answers[1].Question.Position)
	require.Equal(t, 10, answers[0].Question.MaxMarks)
}

func TestAnswerRepositoryUpdateAIScoreOverwrites(t *testing.T) {
	db := setupTestDB(t)
	seeded := seedSubmission(t, db)
	repo := NewAnswerRepository(db)

	answerID := seeded.Answers[0].ID
	require.NoError(t, repo.UpdateAIScore(context.Background(), answerID, 0.42))
	require.NoError(t, repo.UpdateAIScore(context.Background(), answerID, 0.87))

	answers, err := repo.ListBySubmission(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.NotNil(t, answers[0].AIScore)
	require.InDelta(t, 0.87, *answers[0].AIScore, 1e-9)
	require.Nil(t, answers[1].AIScore, "untouched answers keep a null score")
}

func TestAnswerRepositoryUpdateAIScoreUnknownAnswer(t *testing.T) {
	db := setupTestDB(t)
	seedSubmission(t, db)
	repo := NewAnswerRepository(db)

	err := repo.UpdateAIScore(context.Background(), 99999, 0.5)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
