package gitguardian

import (
	"context"
	"fmt"
	"strings"

	"github.com/openagora/agora/internal/domain/task"
	"github.com/openagora/agora/internal/port/agentwork"
)

// Worker scans task text for leaked secrets and reports a summary.
// It backs the security agent of a deployment.
type Worker struct {
	client *Client
}

var _ agentwork.Worker = (*Worker)(nil)

// NewWorker creates a scan worker on top of an API client.
func NewWorker(client *Client) *Worker {
	return &Worker{client: client}
}

// Work scans the task text. A clean scan and a scan with findings are
// both successful results; only API failures surface as errors.
func (w *Worker) Work(ctx context.Context, t task.Task) (task.Result, error) {
	scan, err := w.client.ScanContent(ctx, t.Text)
	if err != nil {
		return task.Result{}, fmt.Errorf("security scan: %w", err)
	}

	if scan.PolicyBreakCount == 0 {
		return task.Result{Text: "security scan clean: no policy breaks detected"}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "security scan found %d policy break(s)", scan.PolicyBreakCount)
	for _, pb := range scan.PolicyBreaks {
		fmt.Fprintf(&b, "\n- %s (%s)", pb.Type, pb.Policy)
	}
	return task.Result{Text: b.String()}, nil
}
