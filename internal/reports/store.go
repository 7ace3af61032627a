package reports

import (
	"context"
	"time"
)

// Store persists reports and their extracted parameters.
type Store interface {
	Create(ctx context.Context, r *Report) error
	Find(ctx context.Context, id string) (*Report, error)
	ListByUser(ctx context.Context, userID string) ([]*Report, error)
	// SetResults completes processing: status, report metadata and parameters
	// are written together.
	SetResults(ctx context.Context, id string, labName string, reportDate time.Time, params []Parameter) error
	SetStatus(ctx context.Context, id string, status ProcessingStatus) error
	Delete(ctx context.Context, id string) error
}

// MediaObject identifies a file stored with the media host.
type MediaObject struct {
	URL      string
	PublicID string
}

// MediaStore is the external media host (cloudinary in production). Only the
// operations the service needs are modeled.
type MediaStore interface {
	Upload(ctx context.Context, data []byte, originalName, fileType string) (MediaObject, error)
	Delete(ctx context.Context, publicID, fileType string) error
}

// Extraction is what the extractor reads out of a report file.
type Extraction struct {
	LabName    string
	ReportDate time.Time
	Parameters []Parameter
}

// Extractor turns a report file into structured parameters. The production
// implementation calls an external model; tests use a stub.
type Extractor interface {
	Extract(ctx context.Context, data []byte, fileType string) (Extraction, error)
}

// Generator produces AI insights for a completed report.
type Generator interface {
	Generate(ctx context.Context, report *Report) (*Insights, error)
}
