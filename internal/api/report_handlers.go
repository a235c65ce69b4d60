package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/Duerkos/steam-reviews-ai/internal/domain"
)

func (s *Server) registerReportRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "reportSummary",
		Method:        http.MethodPost,
		Path:          "/api/v1/apps/{id}/reports",
		Summary:       "Report a summary",
		Description:   "Flags the app's summary so it is regenerated on the next lookup and records the report",
		Tags:          []string{"Reports"},
		DefaultStatus: http.StatusCreated,
		MaxBodyBytes:  MaxReportBodySize,
	}, s.handleReportSummary)

	huma.Register(s.api, huma.Operation{
		OperationID: "listReports",
		Method:      http.MethodGet,
		Path:        "/api/v1/apps/{id}/reports",
		Summary:     "List reports",
		Description: "Returns every bug report filed against the app, oldest first",
		Tags:        []string{"Reports"},
	}, s.handleListReports)

	huma.Register(s.api, huma.Operation{
		OperationID: "listReportReasons",
		Method:      http.MethodGet,
		Path:        "/api/v1/reports/reasons",
		Summary:     "List report reasons",
		Description: "Returns the canonical reasons offered to users",
		Tags:        []string{"Reports"},
	}, s.handleListReasons)
}

// === DTOs ===

// ReportRequest is the body of a bug report.
type ReportRequest struct {
	Reason  string          `json:"reason" minLength:"1" maxLength:"500" doc:"Why the summary is wrong"`
	Content json.RawMessage `json:"content,omitempty" doc:"Summary content as the user saw it; defaults to the stored content"`
}

// ReportInput contains the app and report body.
type ReportInput struct {
	ID   int64 `path:"id" minimum:"1" doc:"Steam app id"`
	Body ReportRequest
}

// ReportResponse is one stored bug report.
type ReportResponse struct {
	ReportID        string          `json:"report_id" doc:"Report id"`
	ID              int64           `json:"id" doc:"Steam app id"`
	SummaryDate     time.Time       `json:"summary_date" doc:"Date of the reported summary"`
	ReportDate      time.Time       `json:"report_date" doc:"When the report was filed"`
	TimesConsulted  int             `json:"times_consulted" doc:"Consultations of the summary at report time"`
	Reason          string          `json:"reason" doc:"Reason given"`
	ContentSnapshot json.RawMessage `json:"content_snapshot,omitempty" doc:"Reported content"`
}

// ReportOutput wraps a single report for Huma.
type ReportOutput struct {
	Body ReportResponse
}

// ReportListResponse contains an app's reports.
type ReportListResponse struct {
	ID      int64            `json:"id" doc:"Steam app id"`
	Reports []ReportResponse `json:"reports" doc:"Reports, oldest first"`
}

// ReportListOutput wraps the report list for Huma.
type ReportListOutput struct {
	Body ReportListResponse
}

// ReasonsOutput wraps the canonical reasons for Huma.
type ReasonsOutput struct {
	CacheControl string `header:"Cache-Control"`
	Body         struct {
		Reasons []string `json:"reasons" doc:"Canonical reasons"`
	}
}

// === Handlers ===

func (s *Server) handleReportSummary(ctx context.Context, input *ReportInput) (*ReportOutput, error) {
	report, err := s.services.Summary.ReportBug(ctx, input.ID, input.Body.Content, input.Body.Reason)
	if err != nil {
		return nil, err
	}
	return &ReportOutput{Body: toReportResponse(report)}, nil
}

func (s *Server) handleListReports(ctx context.Context, input *AppPathInput) (*ReportListOutput, error) {
	reports, err := s.services.Summary.BugReports(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	out := make([]ReportResponse, len(reports))
	for i, r := range reports {
		out[i] = toReportResponse(r)
	}
	return &ReportListOutput{Body: ReportListResponse{ID: input.ID, Reports: out}}, nil
}

func (s *Server) handleListReasons(_ context.Context, _ *struct{}) (*ReasonsOutput, error) {
	out := &ReasonsOutput{CacheControl: CacheOneDay}
	out.Body.Reasons = domain.BugReasons
	return out, nil
}

func toReportResponse(r *domain.BugReport) ReportResponse {
	return ReportResponse{
		ReportID:        r.ReportID,
		ID:              r.AppID,
		SummaryDate:     r.SummaryDate,
		ReportDate:      r.ReportDate,
		TimesConsulted:  r.TimesConsulted,
		Reason:          r.Reason,
		ContentSnapshot: r.ContentSnapshot,
	}
}
