package routerbench

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mwiater/routerbench/internal/aggregate"
	"github.com/mwiater/routerbench/internal/api"
	"github.com/mwiater/routerbench/internal/logging"
	"github.com/mwiater/routerbench/internal/notify"
	"github.com/mwiater/routerbench/internal/poller"
	"github.com/mwiater/routerbench/internal/report"
	"github.com/mwiater/routerbench/internal/tui"
)

// evaluation is the JSON shape of a finished dataset job.
type evaluation struct {
	HistoryID string                       `json:"history_id,omitempty"`
	Stats     aggregate.Stats              `json:"stats"`
	Results   api.DatasetEvaluationResults `json:"results"`
}

// watchAndReport polls sub to completion, saves the results and prints them.
func watchAndReport(cmd *cobra.Command, rt *runtime, sub api.SubmitResponse) error {
	ctx := cmd.Context()
	outcome, err := watchJob(ctx, rt, sub, pollInterval(cmd, rt))
	if err != nil {
		return err
	}
	return finishWatch(ctx, rt, sub, outcome)
}

// finishWatch reports a watch outcome. Stopping the watch is not an error:
// the job keeps running on the backend.
func finishWatch(ctx context.Context, rt *runtime, sub api.SubmitResponse, outcome poller.Outcome) error {
	if errors.Is(outcome.Err, context.Canceled) {
		fmt.Fprintf(rt.errOut, "Stopped watching job %s; it keeps running on the backend.\n", sub.JobID)
		return nil
	}

	switch outcome.State {
	case poller.Completed:
		if outcome.Results == nil {
			return errors.New("job completed without results")
		}
		res := *outcome.Results
		rt.notifier.Notify(notify.EvaluationComplete(len(res.Results)))
		id := ""
		if store, err := rt.history(); err != nil {
			logging.LogWarn("[HISTORY] unavailable: %v", err)
		} else if rec, err := store.Save(ctx, rt.source(), res); err != nil {
			logging.LogWarn("[HISTORY] save %s: %v", res.JobID, err)
		} else {
			id = rec.ID
		}
		return emitResults(rt, res, id)
	case poller.Failed:
		rt.notifier.Notify(notify.EvaluationFailed(outcome.FailureMessage))
		return fmt.Errorf("%w: job %s failed", errNotified, sub.JobID)
	default:
		if outcome.Err != nil {
			return outcome.Err
		}
		fmt.Fprintf(rt.errOut, "Stopped watching job %s; it keeps running on the backend.\n", sub.JobID)
		return nil
	}
}

// watchJob runs the poller, under the interactive program when stdout is a
// terminal and plain status lines otherwise.
func watchJob(ctx context.Context, rt *runtime, sub api.SubmitResponse, interval time.Duration) (poller.Outcome, error) {
	p := poller.New(rt.backend, poller.WithInterval(interval))

	if !rt.cfg.JSONMode && isTerminal(rt.out) {
		wctx, cancel := context.WithCancel(ctx)
		defer cancel()
		modes := make(chan bool, 1)
		go rt.session.Watch(wctx, rt.cfg.SettingsWatchInterval(), func(offline bool) {
			select {
			case modes <- offline:
			default:
			}
		})
		return tui.Watch(ctx, p, sub, tui.WatchOptions{
			Offline:     rt.offline,
			ModeChanges: modes,
			Output:      rt.out,
		})
	}

	return p.Run(ctx, sub, poller.Callbacks{
		OnStatus: func(st api.JobStatus) {
			fmt.Fprintln(rt.errOut, report.JobStatus(st))
		},
		OnError: func(err error) {
			fmt.Fprintf(rt.errOut, "status check failed, retrying: %v\n", err)
		},
	}), nil
}

func emitResults(rt *runtime, res api.DatasetEvaluationResults, historyID string) error {
	stats := aggregate.FromResults(res)
	ev := evaluation{HistoryID: historyID, Stats: stats, Results: res}
	return rt.emit(ev, func() string {
		out := report.Results(res, stats)
		if historyID != "" {
			out += "\nSaved as " + historyID
		}
		return out
	})
}
