package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edcenter/tutorcenter-api/internal/models"
	appErrors "github.com/edcenter/tutorcenter-api/pkg/errors"
	"github.com/edcenter/tutorcenter-api/pkg/storage"
)

type stubSummaryProvider struct {
	summary *models.MonthlyDebtSummary
}

func (s *stubSummaryProvider) MonthlySummary(ctx context.Context) (*models.MonthlyDebtSummary, error) {
	return s.summary, nil
}

func newReportFixture(t *testing.T) *ReportService {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSigner("report_test_secret", time.Hour)
	debts := &stubSummaryProvider{summary: &models.MonthlyDebtSummary{
		Students: []models.StudentDebtRow{
			{StudentID: 1, StudentName: "Aziz Karimov", MonthlyOwed: 300, TotalPaid: 100, Debt: 200, Balance: -200},
		},
		TotalDebtAllStudents: 200,
		StudentsWithDebt:     1,
	}}
	return NewReportService(debts, store, signer, 1, zap.NewNop())
}

func waitForStatus(t *testing.T, svc *ReportService, id string, status models.ReportStatus) *models.Report {
	t.Helper()
	var report *models.Report
	require.Eventually(t, func() bool {
		r, err := svc.Get(context.Background(), id)
		if err != nil {
			return false
		}
		report = r
		return r.Status == status
	}, 3*time.Second, 10*time.Millisecond)
	return report
}

func TestReportCSVLifecycle(t *testing.T) {
	svc := newReportFixture(t)
	svc.Start(context.Background())
	defer svc.Stop()

	report, err := svc.Create(context.Background(), models.ReportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusPending, report.Status)

	done := waitForStatus(t, svc, report.ID, models.ReportStatusCompleted)
	assert.NotEmpty(t, done.DownloadURL)
	require.NotNil(t, done.ExpiresAt)

	token := strings.TrimPrefix(done.DownloadURL, "/reports/download/")
	f, _, err := svc.OpenDownload(token)
	require.NoError(t, err)
	defer f.Close()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Aziz Karimov")
	assert.Contains(t, string(data), "200.00")
}

func TestReportPDFLifecycle(t *testing.T) {
	svc := newReportFixture(t)
	svc.Start(context.Background())
	defer svc.Stop()

	report, err := svc.Create(context.Background(), models.ReportFormatPDF)
	require.NoError(t, err)

	done := waitForStatus(t, svc, report.ID, models.ReportStatusCompleted)

	token := strings.TrimPrefix(done.DownloadURL, "/reports/download/")
	f, _, err := svc.OpenDownload(token)
	require.NoError(t, err)
	defer f.Close()

	head := make([]byte, 4)
	_, err = io.ReadFull(f, head)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(head))
}

func TestReportRejectsUnknownFormat(t *testing.T) {
	svc := newReportFixture(t)

	_, err := svc.Create(context.Background(), models.ReportFormat("xlsx"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReportCreateBeforeStart(t *testing.T) {
	svc := newReportFixture(t)

	_, err := svc.Create(context.Background(), models.ReportFormatCSV)
	require.Error(t, err)
}

func TestReportDownloadWithBadToken(t *testing.T) {
	svc := newReportFixture(t)

	_, _, err := svc.OpenDownload("tampered.token.value.sig")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestReportGetUnknownID(t *testing.T) {
	svc := newReportFixture(t)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
