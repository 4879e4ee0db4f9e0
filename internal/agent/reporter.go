package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/signcast/server/internal/models"
	"github.com/signcast/server/internal/observability"
)

// StatusReporter posts per-asset sync progress back to the server. Reports
// are best effort; a failed report is logged and never interrupts a
// download in flight.
type StatusReporter struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *observability.Logger
}

// NewStatusReporter creates a new StatusReporter
func NewStatusReporter(baseURL, token string) *StatusReporter {
	return &StatusReporter{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 15 * time.Second},
		logger:  observability.WithField("component", "reporter"),
	}
}

// Report sends one status update
func (r *StatusReporter) Report(ctx context.Context, update models.UpdateSyncStatusRequest) {
	body, err := json.Marshal(update)
	if err != nil {
		r.logger.Errorf("Failed to encode status report: %v", err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		r.baseURL+"/api/sync/status", bytes.NewReader(body))
	if err != nil {
		r.logger.Errorf("Failed to build status report request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.token)

	resp, err := r.client.Do(req)
	if err != nil {
		r.logger.Warnf("Status report for asset %s failed: %v", update.AssetID, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.logger.Warnf("Status report for asset %s rejected: %s", update.AssetID, resp.Status)
	}
}

// ReportState is a shorthand for a report without an error message
func (r *StatusReporter) ReportState(ctx context.Context, assetID string, state models.SyncState, progress int) {
	r.Report(ctx, models.UpdateSyncStatusRequest{
		AssetID:   assetID,
		SyncState: string(state),
		Progress:  progress,
	})
}

// ReportFailure reports a failed download with its error message
func (r *StatusReporter) ReportFailure(ctx context.Context, assetID string, cause error) {
	msg := fmt.Sprintf("%v", cause)
	r.Report(ctx, models.UpdateSyncStatusRequest{
		AssetID:      assetID,
		SyncState:    string(models.SyncFailed),
		Progress:     0,
		ErrorMessage: &msg,
	})
}
