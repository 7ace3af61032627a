package reports

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"labvault.app/internal/ids"
	"labvault.app/internal/stream"
)

// Service coordinates upload, extraction and retrieval of lab reports. All
// heavy lifting (file hosting, parameter extraction, insight generation)
// happens in external collaborators; the service owns the lifecycle.
type Service struct {
	store     Store
	media     MediaStore
	extractor Extractor
	generator Generator
	events    *stream.Stream
	now       func() time.Time
	sync      bool
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithServiceClock overrides the time source (useful for tests).
func WithServiceClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithSyncProcessing runs extraction on the caller's goroutine instead of in
// the background. Tests rely on it for determinism.
func WithSyncProcessing() ServiceOption {
	return func(s *Service) { s.sync = true }
}

// NewService wires the service with its collaborators. events may be nil when
// no SSE consumers exist.
func NewService(store Store, media MediaStore, extractor Extractor, generator Generator, events *stream.Stream, opts ...ServiceOption) *Service {
	s := &Service{
		store:     store,
		media:     media,
		extractor: extractor,
		generator: generator,
		events:    events,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upload stores the file with the media host, records the report as
// processing and kicks off extraction. The returned report reflects the
// pre-extraction state.
func (s *Service) Upload(ctx context.Context, userID, fileName string, data []byte) (*Report, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}
	fileType, err := fileTypeFor(fileName)
	if err != nil {
		return nil, err
	}

	obj, err := s.media.Upload(ctx, data, fileName, fileType)
	if err != nil {
		return nil, fmt.Errorf("upload media: %w", err)
	}

	now := s.now().UTC()
	report := &Report{
		ID:               ids.New(),
		UserID:           userID,
		ReportDate:       now,
		OriginalFileName: fileName,
		FileType:         fileType,
		FileURL:          obj.URL,
		FilePublicID:     obj.PublicID,
		ProcessingStatus: StatusProcessing,
		Parameters:       []Parameter{},
		CreatedAt:        now,
	}
	if err := s.store.Create(ctx, report); err != nil {
		return nil, err
	}
	s.publish(report.ID, userID, StatusProcessing)

	if s.sync {
		s.process(ctx, report.ID, userID, data, fileType)
	} else {
		go s.process(context.Background(), report.ID, userID, data, fileType)
	}
	return report, nil
}

func (s *Service) process(ctx context.Context, reportID, userID string, data []byte, fileType string) {
	extraction, err := s.extractor.Extract(ctx, data, fileType)
	if err != nil {
		_ = s.store.SetStatus(ctx, reportID, StatusFailed)
		s.publish(reportID, userID, StatusFailed)
		return
	}
	reportDate := extraction.ReportDate
	if reportDate.IsZero() {
		reportDate = s.now().UTC()
	}
	if err := s.store.SetResults(ctx, reportID, extraction.LabName, reportDate, extraction.Parameters); err != nil {
		_ = s.store.SetStatus(ctx, reportID, StatusFailed)
		s.publish(reportID, userID, StatusFailed)
		return
	}
	s.publish(reportID, userID, StatusCompleted)
}

func (s *Service) publish(reportID, userID string, status ProcessingStatus) {
	if s.events == nil {
		return
	}
	s.events.Publish(stream.ProcessingEvent{
		ReportID: reportID,
		UserID:   userID,
		Status:   string(status),
	})
}

// Get returns a single report with its parameters.
func (s *Service) Get(ctx context.Context, id string) (*Report, error) {
	return s.store.Find(ctx, id)
}

// ListByUser returns the user's reports, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]*Report, error) {
	return s.store.ListByUser(ctx, userID)
}

// Trends builds a per-report series of numeric parameter readings for chart
// rendering. parameter filters to a single parameter name when non-empty.
func (s *Service) Trends(ctx context.Context, userID, parameter string) ([]TrendPoint, error) {
	list, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	points := make([]TrendPoint, 0, len(list))
	for _, report := range list {
		if report.ProcessingStatus != StatusCompleted {
			continue
		}
		values := make(map[string]TrendValue)
		for _, p := range report.Parameters {
			if parameter != "" && !strings.EqualFold(p.Name, parameter) {
				continue
			}
			value, ok := numericValue(p.Value)
			if !ok {
				continue
			}
			values[p.Name] = TrendValue{
				Value:     value,
				Status:    string(p.Status),
				RiskLevel: string(p.RiskLevel),
			}
		}
		if len(values) == 0 {
			continue
		}
		points = append(points, TrendPoint{
			Date:       report.ReportDate,
			ReportID:   report.ID,
			Parameters: values,
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

// Insights asks the generator for a summary of a completed report.
func (s *Service) Insights(ctx context.Context, id string) (*Insights, error) {
	report, err := s.store.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.ProcessingStatus != StatusCompleted {
		return nil, ErrNotReady
	}
	return s.generator.Generate(ctx, report)
}

// Delete removes the stored file and then the report row.
func (s *Service) Delete(ctx context.Context, id string) error {
	report, err := s.store.Find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.media.Delete(ctx, report.FilePublicID, report.FileType); err != nil {
		return fmt.Errorf("delete media: %w", err)
	}
	return s.store.Delete(ctx, id)
}

func fileTypeFor(fileName string) (string, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return "pdf", nil
	case ".jpg", ".jpeg":
		return "jpg", nil
	case ".png":
		return "png", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFile, fileName)
	}
}

func numericValue(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
