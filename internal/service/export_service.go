package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/edulane/lms-api/internal/models"
	appErrors "github.com/edulane/lms-api/pkg/errors"
	"github.com/edulane/lms-api/pkg/export"
	"github.com/edulane/lms-api/pkg/storage"
)

type exportCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ListModulesByCourse(ctx context.Context, courseID string) ([]models.CourseModule, error)
}

type exportAssessmentLister interface {
	ListByModule(ctx context.Context, moduleID string) ([]models.Assessment, error)
}

type exportSubmissionLister interface {
	ListByAssessment(ctx context.Context, assessmentID string) ([]models.Submission, error)
}

type exportRosterLister interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.EnrollmentDetail, error)
}

// ExportResult points at a rendered gradebook file.
type ExportResult struct {
	FileName    string    `json:"file_name"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
	Format      string    `json:"format"`
}

// ExportService renders a course gradebook to CSV or PDF, stores the file
// and hands back a signed download token.
type ExportService struct {
	courses     exportCourseReader
	assessments exportAssessmentLister
	submissions exportSubmissionLister
	roster      exportRosterLister
	storage     *storage.LocalStorage
	signer      *storage.SignedURLSigner
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	logger      *zap.Logger
	now         func() time.Time
}

// NewExportService constructs ExportService.
func NewExportService(courses exportCourseReader, assessments exportAssessmentLister, submissions exportSubmissionLister, roster exportRosterLister, store *storage.LocalStorage, signer *storage.SignedURLSigner, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		courses:     courses,
		assessments: assessments,
		submissions: submissions,
		roster:      roster,
		storage:     store,
		signer:      signer,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Gradebook renders one course's grades as csv or pdf. Rows are students,
// columns are assessments; ungraded cells are blank.
func (s *ExportService) Gradebook(ctx context.Context, courseID, format string, requester models.UserInfo) (*ExportResult, error) {
	if format != "csv" && format != "pdf" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if requester.Role != models.RoleAdmin && course.FacilitatorID != requester.ID {
		return nil, appErrors.ErrForbidden
	}

	dataset, err := s.buildDataset(ctx, course)
	if err != nil {
		return nil, err
	}

	var (
		payload  []byte
		fileName string
	)
	stamp := s.now().Format("20060102-150405")
	switch format {
	case "csv":
		payload, err = s.csv.Render(*dataset)
		fileName = fmt.Sprintf("exports/gradebook-%s-%s.csv", courseID, stamp)
	case "pdf":
		payload, err = s.pdf.Render(*dataset, fmt.Sprintf("Gradebook - %s", course.Title))
		fileName = fmt.Sprintf("exports/gradebook-%s-%s.pdf", courseID, stamp)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render gradebook")
	}

	if _, err := s.storage.Save(fileName, payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store gradebook")
	}

	token, expiresAt, err := s.signer.Generate(requester.ID, fileName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download")
	}

	s.logger.Info("gradebook exported",
		zap.String("course_id", courseID),
		zap.String("format", format),
		zap.Int("rows", len(dataset.Rows)))
	return &ExportResult{
		FileName:    fileName,
		DownloadURL: token,
		ExpiresAt:   expiresAt,
		Format:      format,
	}, nil
}

// Download resolves a signed token back to a stored file. Tokens are
// bound to the user that requested the export.
func (s *ExportService) Download(token string, requester models.UserInfo) (string, error) {
	ownerID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}
	if ownerID != requester.ID && requester.Role != models.RoleAdmin {
		return "", appErrors.ErrForbidden
	}
	return s.storage.Path(relPath), nil
}

func (s *ExportService) buildDataset(ctx context.Context, course *models.Course) (*export.Dataset, error) {
	modules, err := s.courses.ListModulesByCourse(ctx, course.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list modules")
	}

	var assessments []models.Assessment
	for _, module := range modules {
		batch, err := s.assessments.ListByModule(ctx, module.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assessments")
		}
		assessments = append(assessments, batch...)
	}

	// grade per (student, assessment)
	grades := make(map[string]map[string]string)
	for _, assessment := range assessments {
		submissions, err := s.submissions.ListByAssessment(ctx, assessment.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
		}
		for _, submission := range submissions {
			if submission.Grade == nil {
				continue
			}
			if grades[submission.StudentID] == nil {
				grades[submission.StudentID] = make(map[string]string)
			}
			grades[submission.StudentID][assessment.ID] = strconv.FormatFloat(*submission.Grade, 'f', 1, 64)
		}
	}

	roster, err := s.roster.ListByCourse(ctx, course.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list roster")
	}

	// Column labels must be unique per assessment or same-titled columns
	// would collapse into one; duplicates get a numeric suffix.
	headers := []string{"Student", "Email", "Progress"}
	columns := make(map[string]string, len(assessments))
	seen := make(map[string]int, len(assessments))
	for _, assessment := range assessments {
		label := assessment.Title
		seen[label]++
		if n := seen[label]; n > 1 {
			label = fmt.Sprintf("%s (%d)", label, n)
		}
		columns[assessment.ID] = label
		headers = append(headers, label)
	}

	rows := make([]map[string]string, 0, len(roster))
	for _, enrollment := range roster {
		row := map[string]string{
			"Student":  enrollment.StudentName,
			"Email":    enrollment.StudentEmail,
			"Progress": strconv.Itoa(enrollment.Progress) + "%",
		}
		for _, assessment := range assessments {
			row[columns[assessment.ID]] = grades[enrollment.StudentID][assessment.ID]
		}
		rows = append(rows, row)
	}

	return &export.Dataset{Headers: headers, Rows: rows}, nil
}
