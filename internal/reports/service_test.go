package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labvault.app/internal/stream"
)

type fakeMedia struct {
	uploads int
	deleted []string
	fail    bool
}

func (m *fakeMedia) Upload(ctx context.Context, data []byte, originalName, fileType string) (MediaObject, error) {
	if m.fail {
		return MediaObject{}, errors.New("media host down")
	}
	m.uploads++
	return MediaObject{URL: "https://media.test/" + originalName, PublicID: "media-" + originalName}, nil
}

func (m *fakeMedia) Delete(ctx context.Context, publicID, fileType string) error {
	m.deleted = append(m.deleted, publicID)
	return nil
}

type fakeExtractor struct {
	extraction Extraction
	err        error
}

func (e *fakeExtractor) Extract(ctx context.Context, data []byte, fileType string) (Extraction, error) {
	return e.extraction, e.err
}

type fakeGenerator struct {
	insights *Insights
	calls    int
}

func (g *fakeGenerator) Generate(ctx context.Context, report *Report) (*Insights, error) {
	g.calls++
	if g.insights == nil {
		return nil, errors.New("generator unavailable")
	}
	return g.insights, nil
}

func newTestService(t *testing.T, extractor *fakeExtractor, generator *fakeGenerator) (*Service, *fakeMedia, *stream.Stream) {
	t.Helper()
	media := &fakeMedia{}
	events := stream.New()
	svc := NewService(NewInMemory(), media, extractor, generator, events, WithSyncProcessing())
	return svc, media, events
}

func TestUploadExtractsParameters(t *testing.T) {
	reportDate := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	extractor := &fakeExtractor{extraction: Extraction{
		LabName:    "City Lab",
		ReportDate: reportDate,
		Parameters: []Parameter{
			{ID: "p1", Name: "Hemoglobin", Value: "13.2", Unit: "g/dL", Status: ParameterNormal, RiskLevel: RiskLow},
		},
	}}
	svc, media, events := newTestService(t, extractor, &fakeGenerator{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := events.Subscribe(ctx)

	report, err := svc.Upload(context.Background(), "user-1", "cbc.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, 1, media.uploads)
	assert.Equal(t, "pdf", report.FileType)

	stored, err := svc.Get(context.Background(), report.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, stored.ProcessingStatus)
	assert.Equal(t, "City Lab", stored.LabName)
	assert.Equal(t, reportDate, stored.ReportDate)
	require.Len(t, stored.Parameters, 1)
	assert.Equal(t, "Hemoglobin", stored.Parameters[0].Name)

	first := <-ch
	assert.Equal(t, string(StatusProcessing), first.Status)
	second := <-ch
	assert.Equal(t, string(StatusCompleted), second.Status)
	assert.Equal(t, report.ID, second.ReportID)
}

func TestUploadRejectsUnsupportedFile(t *testing.T) {
	svc, media, _ := newTestService(t, &fakeExtractor{}, &fakeGenerator{})

	_, err := svc.Upload(context.Background(), "user-1", "results.docx", []byte("binary"))
	assert.ErrorIs(t, err, ErrUnsupportedFile)
	assert.Zero(t, media.uploads)
}

func TestUploadValidatesInput(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeExtractor{}, &fakeGenerator{})

	_, err := svc.Upload(context.Background(), " ", "cbc.pdf", []byte("x"))
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Upload(context.Background(), "user-1", "cbc.pdf", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUploadExtractionFailureMarksFailed(t *testing.T) {
	extractor := &fakeExtractor{err: errors.New("unreadable scan")}
	svc, _, _ := newTestService(t, extractor, &fakeGenerator{})

	report, err := svc.Upload(context.Background(), "user-1", "scan.jpg", []byte("jpeg"))
	require.NoError(t, err)

	stored, err := svc.Get(context.Background(), report.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, stored.ProcessingStatus)
	assert.Empty(t, stored.Parameters)
}

func TestTrends(t *testing.T) {
	extractor := &fakeExtractor{}
	svc, _, _ := newTestService(t, extractor, &fakeGenerator{})

	extractor.extraction = Extraction{
		ReportDate: time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		Parameters: []Parameter{
			{Name: "Hemoglobin", Value: "12.1", Status: ParameterBorderline, RiskLevel: RiskBorderline},
			{Name: "Blood Group", Value: "O+", Status: ParameterNormal, RiskLevel: RiskLow},
		},
	}
	first, err := svc.Upload(context.Background(), "user-1", "jan.pdf", []byte("x"))
	require.NoError(t, err)

	extractor.extraction = Extraction{
		ReportDate: time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC),
		Parameters: []Parameter{
			{Name: "Hemoglobin", Value: "13.4", Status: ParameterNormal, RiskLevel: RiskLow},
		},
	}
	second, err := svc.Upload(context.Background(), "user-1", "feb.pdf", []byte("x"))
	require.NoError(t, err)

	points, err := svc.Trends(context.Background(), "user-1", "")
	require.NoError(t, err)
	require.Len(t, points, 2)

	// Sorted by report date, non-numeric parameters skipped.
	assert.Equal(t, first.ID, points[0].ReportID)
	assert.Equal(t, second.ID, points[1].ReportID)
	assert.Equal(t, 12.1, points[0].Parameters["Hemoglobin"].Value)
	assert.NotContains(t, points[0].Parameters, "Blood Group")

	filtered, err := svc.Trends(context.Background(), "user-1", "hemoglobin")
	require.NoError(t, err)
	require.Len(t, filtered, 2)
	assert.Equal(t, 13.4, filtered[1].Parameters["Hemoglobin"].Value)
}

func TestInsightsRequiresCompletedReport(t *testing.T) {
	extractor := &fakeExtractor{err: errors.New("fail extraction")}
	generator := &fakeGenerator{insights: &Insights{Summary: "all good"}}
	svc, _, _ := newTestService(t, extractor, generator)

	report, err := svc.Upload(context.Background(), "user-1", "cbc.pdf", []byte("x"))
	require.NoError(t, err)

	_, err = svc.Insights(context.Background(), report.ID)
	assert.ErrorIs(t, err, ErrNotReady)
	assert.Zero(t, generator.calls)
}

func TestInsightsDelegatesToGenerator(t *testing.T) {
	extractor := &fakeExtractor{extraction: Extraction{
		Parameters: []Parameter{{Name: "Hemoglobin", Value: "13.2"}},
	}}
	generator := &fakeGenerator{insights: &Insights{
		Summary:         "all good",
		Recommendations: []string{"keep hydrated"},
	}}
	svc, _, _ := newTestService(t, extractor, generator)

	report, err := svc.Upload(context.Background(), "user-1", "cbc.pdf", []byte("x"))
	require.NoError(t, err)

	insights, err := svc.Insights(context.Background(), report.ID)
	require.NoError(t, err)
	assert.Equal(t, "all good", insights.Summary)
	assert.Equal(t, 1, generator.calls)
}

func TestDeleteRemovesMediaAndRow(t *testing.T) {
	extractor := &fakeExtractor{}
	svc, media, _ := newTestService(t, extractor, &fakeGenerator{})

	report, err := svc.Upload(context.Background(), "user-1", "cbc.pdf", []byte("x"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), report.ID))
	assert.Equal(t, []string{report.FilePublicID}, media.deleted)

	_, err = svc.Get(context.Background(), report.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteUnknownReport(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeExtractor{}, &fakeGenerator{})
	err := svc.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
