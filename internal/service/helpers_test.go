package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/sage-edu/sage-go-api/internal/models"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

// fakeSubmissionRepo holds a single submission in memory and applies
// SaveGrades against it the way the transactional repository would.
type fakeSubmissionRepo struct {
	mu         sync.Mutex
	submission models.Submission
	missing    bool
	getErr     error
	saveErr    error
	saveCalls  int
	savedMarks map[uint]int
}

func (f *fakeSubmissionRepo) Create(_ context.Context, submission *models.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if submission.ID == 0 {
		submission.ID = 1
	}
	for i := range submission.Answers {
		if submission.Answers[i].ID == 0 {
			submission.Answers[i].ID = uint(i + 1)
		}
		submission.Answers[i].SubmissionID = submission.ID
	}
	f.submission = *submission
	return nil
}

func (f *fakeSubmissionRepo) GetByID(_ context.Context, id uint) (models.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return models.Submission{}, f.getErr
	}
	if f.missing || f.submission.ID != id {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return f.submission, nil
}

func (f *fakeSubmissionRepo) GetByAssessmentAndStudent(_ context.Context, assessmentID, studentID uint) (models.Submission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.missing && f.submission.AssessmentID == assessmentID && f.submission.StudentID == studentID {
		return f.submission, nil
	}
	return models.Submission{}, gorm.ErrRecordNotFound
}

func (f *fakeSubmissionRepo) SaveGrades(_ context.Context, submissionID uint, marks map[uint]int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveCalls++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.savedMarks = marks
	for i := range f.submission.Answers {
		if mark, ok := marks[f.submission.Answers[i].ID]; ok {
			value := mark
			f.submission.Answers[i].MarksAwarded = &value
		}
	}
	f.submission.Status = models.SubmissionStatusGraded
	return nil
}

// fakeAnswerRepo records ai_score writes; updateErr injects a per-answer
// persistence failure.
type fakeAnswerRepo struct {
	mu        sync.Mutex
	answers   []models.Answer
	listErr   error
	updateErr map[uint]error
	updates   map[uint][]float64
}

func (f *fakeAnswerRepo) ListBySubmission(_ context.Context, _ uint) ([]models.Answer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Answer, len(f.answers))
	copy(out, f.answers)
	return out, nil
}

func (f *fakeAnswerRepo) UpdateAIScore(_ context.Context, answerID uint, score float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.updateErr[answerID]; err != nil {
		return err
	}
	if f.updates == nil {
		f.updates = make(map[uint][]float64)
	}
	f.updates[answerID] = append(f.updates[answerID], score)
	for i := range f.answers {
		if f.answers[i].ID == answerID {
			value := score
			f.answers[i].AIScore = &value
		}
	}
	return nil
}

func (f *fakeAnswerRepo) lastScore(answerID uint) *float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	history := f.updates[answerID]
	if len(history) == 0 {
		return nil
	}
	value := history[len(history)-1]
	return &value
}

type fakeRunRepo struct {
	mu   sync.Mutex
	runs []models.GradingRun
}

func (f *fakeRunRepo) Create(_ context.Context, run *models.GradingRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	run.ID = uint(len(f.runs) + 1)
	run.CreatedAt = time.Now()
	f.runs = append(f.runs, *run)
	return nil
}

func (f *fakeRunRepo) ListBySubmission(_ context.Context, submissionID uint) ([]models.GradingRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.GradingRun
	for _, run := range f.runs {
		if run.SubmissionID == submissionID {
			out = append(out, run)
		}
	}
	return out, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []GradingCompletedEvent
}

func (f *fakePublisher) PublishGradingCompleted(_ context.Context, event GradingCompletedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

// stubScorer answers with a fixed score per candidate text; errs injects a
// per-candidate failure. It counts calls so tests can assert short-circuits.
type stubScorer struct {
	mu     sync.Mutex
	score  float64
	scores map[string]float64
	errs   map[string]error
	calls  int
}

func (s *stubScorer) Score(_ context.Context, candidate, _ string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if err := s.errs[candidate]; err != nil {
		return 0, err
	}
	if score, ok := s.scores[candidate]; ok {
		return score, nil
	}
	return s.score, nil
}

func (s *stubScorer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// gradedSubmission builds a two-question submission fixture shared across the
// grading tests.
func gradedSubmission() (models.Submission, []models.Answer) {
	questions := []models.Question{
		{ID: 11, AssessmentID: 5, Position: 1, Prompt: "Explain photosynthesis", MaxMarks: 10, ReferenceAnswer: "Plants convert light to energy"},
		{ID: 12, AssessmentID: 5, Position: 2, Prompt: "Describe osmosis", MaxMarks: 10, ReferenceAnswer: "Diffusion of water across a membrane"},
	}

	answers := []models.Answer{
		{ID: 1, SubmissionID: 100, QuestionID: 11, Content: "Light becomes sugar", Question: questions[0]},
		{ID: 2, SubmissionID: 100, QuestionID: 12, Content: "Water moves through membranes", Question: questions[1]},
	}

	submission := models.Submission{
		ID:           100,
		AssessmentID: 5,
		StudentID:    9,
		Status:       models.SubmissionStatusPending,
		SubmittedAt:  time.Now(),
		Assessment: models.Assessment{
			ID:         5,
			LecturerID: 7,
			Status:     models.AssessmentStatusActive,
			Questions:  questions,
		},
		Answers: answers,
	}

	return submission, answers
}

// fakeAssessmentRepo keeps assessments and questions in memory.
type fakeAssessmentRepo struct {
	mu          sync.Mutex
	assessments map[uint]models.Assessment
	createErr   error
}

func newFakeAssessmentRepo(assessments ...models.Assessment) *fakeAssessmentRepo {
	repo := &fakeAssessmentRepo{assessments: make(map[uint]models.Assessment)}
	for _, assessment := range assessments {
		repo.assessments[assessment.ID] = assessment
	}
	return repo
}

func (f *fakeAssessmentRepo) Create(_ context.Context, assessment *models.Assessment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if assessment.ID == 0 {
		assessment.ID = uint(len(f.assessments) + 1)
	}
	f.assessments[assessment.ID] = *assessment
	return nil
}

func (f *fakeAssessmentRepo) GetByID(_ context.Context, id uint) (models.Assessment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	assessment, ok := f.assessments[id]
	if !ok {
		return models.Assessment{}, gorm.ErrRecordNotFound
	}
	return assessment, nil
}

func (f *fakeAssessmentRepo) UpdateStatus(_ context.Context, id uint, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	assessment, ok := f.assessments[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	assessment.Status = status
	f.assessments[id] = assessment
	return nil
}

func (f *fakeAssessmentRepo) CreateQuestion(_ context.Context, question *models.Question) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	assessment, ok := f.assessments[question.AssessmentID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if question.ID == 0 {
		question.ID = uint(100 + len(assessment.Questions))
	}
	assessment.Questions = append(assessment.Questions, *question)
	f.assessments[question.AssessmentID] = assessment
	return nil
}

func (f *fakeAssessmentRepo) NextQuestionPosition(_ context.Context, assessmentID uint) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	assessment, ok := f.assessments[assessmentID]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	return len(assessment.Questions) + 1, nil
}
