package reports

import (
	"errors"
	"time"
)

// ProcessingStatus tracks an uploaded report through extraction.
type ProcessingStatus string

const (
	StatusProcessing ProcessingStatus = "PROCESSING"
	StatusCompleted  ProcessingStatus = "COMPLETED"
	StatusFailed     ProcessingStatus = "FAILED"
)

// ParameterStatus classifies a measured value against its normal range.
type ParameterStatus string

const (
	ParameterNormal     ParameterStatus = "NORMAL"
	ParameterAbnormal   ParameterStatus = "ABNORMAL"
	ParameterBorderline ParameterStatus = "BORDERLINE"
	ParameterCritical   ParameterStatus = "CRITICAL"
)

// RiskLevel grades a parameter for dashboard highlighting.
type RiskLevel string

const (
	RiskLow        RiskLevel = "LOW"
	RiskBorderline RiskLevel = "BORDERLINE"
	RiskHigh       RiskLevel = "HIGH"
	RiskCritical   RiskLevel = "CRITICAL"
)

// Parameter is one extracted lab measurement.
type Parameter struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Value       string          `json:"value"`
	Unit        string          `json:"unit,omitempty"`
	NormalRange string          `json:"normalRange,omitempty"`
	Status      ParameterStatus `json:"status"`
	Category    string          `json:"category,omitempty"`
	RiskLevel   RiskLevel       `json:"riskLevel"`
	Flagged     bool            `json:"flagged"`
}

// Report is an uploaded lab report and its extracted parameters.
type Report struct {
	ID               string           `json:"id"`
	UserID           string           `json:"userId"`
	ReportDate       time.Time        `json:"reportDate"`
	OriginalFileName string           `json:"originalFileName"`
	FileType         string           `json:"fileType"`
	FileURL          string           `json:"fileUrl"`
	FilePublicID     string           `json:"-"`
	ProcessingStatus ProcessingStatus `json:"processingStatus"`
	LabName          string           `json:"labName,omitempty"`
	Parameters       []Parameter      `json:"parameters"`
	CreatedAt        time.Time        `json:"createdAt"`
}

// TrendValue is one parameter's reading inside a trend point.
type TrendValue struct {
	Value     float64 `json:"value"`
	Status    string  `json:"status"`
	RiskLevel string  `json:"riskLevel"`
}

// TrendPoint aggregates numeric parameter readings of one report, keyed by
// parameter name, for chart rendering.
type TrendPoint struct {
	Date       time.Time             `json:"date"`
	ReportID   string                `json:"reportId"`
	Parameters map[string]TrendValue `json:"parameters"`
}

// Insights is the AI-generated summary for a report. The generation itself
// lives behind the Generator collaborator.
type Insights struct {
	Summary            string   `json:"summary"`
	Recommendations    []string `json:"recommendations"`
	RiskAssessment     string   `json:"risk_assessment"`
	CriticalParameters []string `json:"critical_parameters"`
}

var (
	ErrNotFound        = errors.New("reports: not found")
	ErrInvalidInput    = errors.New("reports: invalid input")
	ErrUnsupportedFile = errors.New("reports: unsupported file type")
	ErrNotReady        = errors.New("reports: report still processing")
)
