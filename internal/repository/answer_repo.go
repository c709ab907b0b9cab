package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/sage-edu/sage-go-api/internal/models"
)

// AnswerRepository defines data operations for answers. UpdateAIScore is the
// only write path for ai_score and is keyed by primary id, so two concurrent
// grading runs degrade to last-writer-wins on the same row.
type AnswerRepository interface {
	ListBySubmission(ctx context.Context, submissionID uint) ([]models.Answer, error)
	UpdateAIScore(ctx context.Context, answerID uint, score float64) error
}

type answerRepository struct {
	db *gorm.DB
}

// NewAnswerRepository instantiates the repository.
func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

// ListBySubmission returns the submission's answers joined to their questions,
// ordered by question position.
func (r *answerRepository) ListBySubmission(ctx context.Context, submissionID uint) ([]models.Answer, error) {
	var answers []models.Answer
	err := r.db.WithContext(ctx).
		Joins("Question").
		Where("answers.submission_id = ?", submissionID).
		Order("\"Question\".\"position\" ASC").
		Find(&answers).Error
	if err != nil {
		return nil, err
	}

	return answers, nil
}

func (r *answerRepository) UpdateAIScore(ctx context.Context, answerID uint, score float64) error {
	result := r.db.WithContext(ctx).
		Model(&models.Answer{}).
		Where("id = ?", answerID).
		Update("ai_score", score)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
