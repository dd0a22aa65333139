package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edcenter/tutorcenter-api/internal/models"
	"github.com/edcenter/tutorcenter-api/pkg/export"
	appErrors "github.com/edcenter/tutorcenter-api/pkg/errors"
	"github.com/edcenter/tutorcenter-api/pkg/jobs"
	"github.com/edcenter/tutorcenter-api/pkg/storage"
)

type debtSummaryProvider interface {
	MonthlySummary(ctx context.Context) (*models.MonthlyDebtSummary, error)
}

// ReportService renders the monthly debt summary to downloadable files.
// Generation runs asynchronously on a worker queue; report metadata lives in
// memory and does not survive a restart, completed files on disk do.
type ReportService struct {
	debts   debtSummaryProvider
	queue   *jobs.Queue
	storage *storage.LocalStorage
	signer  *storage.Signer
	logger  *zap.Logger

	mu      sync.RWMutex
	reports map[string]*models.Report
}

// NewReportService constructs the report service and its worker queue. Call
// Start before accepting requests and Stop on shutdown.
func NewReportService(debts debtSummaryProvider, store *storage.LocalStorage, signer *storage.Signer, workers int, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ReportService{
		debts:   debts,
		storage: store,
		signer:  signer,
		logger:  logger,
		reports: make(map[string]*models.Report),
	}
	s.queue = jobs.NewQueue("debt-reports", s.process, jobs.QueueConfig{
		Workers: workers,
		Logger:  logger,
	})
	return s
}

// Start launches the report workers.
func (s *ReportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the report workers.
func (s *ReportService) Stop() {
	s.queue.Stop()
}

// Create queues a debt summary export and returns the pending report.
func (s *ReportService) Create(ctx context.Context, format models.ReportFormat) (*models.Report, error) {
	if format != models.ReportFormatCSV && format != models.ReportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	report := &models.Report{
		ID:        uuid.NewString(),
		Format:    format,
		Status:    models.ReportStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.reports[report.ID] = report
	s.mu.Unlock()

	err := s.queue.Enqueue(jobs.Job{
		ID:      report.ID,
		Type:    "debt-summary-export",
		Payload: format,
	})
	if err != nil {
		s.mu.Lock()
		delete(s.reports, report.ID)
		s.mu.Unlock()
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue report")
	}

	s.logger.Info("report queued", zap.String("report_id", report.ID), zap.String("format", string(format)))
	return s.snapshot(report.ID), nil
}

// Get returns the report's current state.
func (s *ReportService) Get(ctx context.Context, id string) (*models.Report, error) {
	report := s.snapshot(id)
	if report == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
	}
	return report, nil
}

// OpenDownload verifies a signed download token and opens the report file.
func (s *ReportService) OpenDownload(token string) (*os.File, string, error) {
	reportID, relPath, err := s.signer.Verify(token)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download link")
	}
	f, err := s.storage.Open(relPath)
	if err != nil {
		s.logger.Warn("report file missing", zap.String("report_id", reportID), zap.Error(err))
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "report file not found")
	}
	return f, relPath, nil
}

func (s *ReportService) process(ctx context.Context, job jobs.Job) error {
	format, _ := job.Payload.(models.ReportFormat)

	summary, err := s.debts.MonthlySummary(ctx)
	if err != nil {
		s.fail(job.ID, err)
		return err
	}

	table := summaryTable(summary)

	var data []byte
	switch format {
	case models.ReportFormatPDF:
		data, err = export.RenderPDF(table)
	default:
		data, err = export.RenderCSV(table)
	}
	if err != nil {
		s.fail(job.ID, err)
		return err
	}

	relPath := fmt.Sprintf("%s.%s", job.ID, format)
	if err := s.storage.Save(relPath, data); err != nil {
		s.fail(job.ID, err)
		return err
	}

	token, expiresAt, err := s.signer.Sign(job.ID, relPath)
	if err != nil {
		s.fail(job.ID, err)
		return err
	}

	s.mu.Lock()
	if report, ok := s.reports[job.ID]; ok {
		report.Status = models.ReportStatusCompleted
		report.FilePath = relPath
		report.DownloadURL = "/reports/download/" + token
		report.ExpiresAt = &expiresAt
		report.Error = ""
	}
	s.mu.Unlock()

	s.logger.Info("report ready", zap.String("report_id", job.ID), zap.Int("bytes", len(data)))
	return nil
}

func (s *ReportService) fail(id string, err error) {
	s.mu.Lock()
	if report, ok := s.reports[id]; ok {
		report.Status = models.ReportStatusFailed
		report.Error = err.Error()
	}
	s.mu.Unlock()
	s.logger.Error("report generation failed", zap.String("report_id", id), zap.Error(err))
}

func (s *ReportService) snapshot(id string) *models.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	report, ok := s.reports[id]
	if !ok {
		return nil
	}
	copied := *report
	return &copied
}

func summaryTable(summary *models.MonthlyDebtSummary) export.Table {
	table := export.Table{
		Title:   "Monthly Debt Summary",
		Headers: []string{"Student ID", "Student", "Monthly Owed", "Total Paid", "Debt", "Balance"},
	}
	for _, row := range summary.Students {
		table.Rows = append(table.Rows, []string{
			strconv.FormatInt(row.StudentID, 10),
			row.StudentName,
			formatMoney(row.MonthlyOwed),
			formatMoney(row.TotalPaid),
			formatMoney(row.Debt),
			formatMoney(row.Balance),
		})
	}
	return table
}

func formatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
