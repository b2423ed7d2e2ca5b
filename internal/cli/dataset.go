// internal/cli/dataset.go
package routerbench

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mwiater/routerbench/internal/api"
	"github.com/mwiater/routerbench/internal/dataset"
	"github.com/mwiater/routerbench/internal/notify"
	"github.com/mwiater/routerbench/internal/report"
	"github.com/mwiater/routerbench/internal/util"
)

// datasetCmd groups the dataset evaluation commands.
var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Evaluate a CSV of prompts in the background",
	Long: `The 'dataset' commands upload a CSV file with a 'prompt' column (and an optional 'ground_truth' column) of at most 12 rows, then watch the background job until it completes.
Offline (replay) jobs live only inside the process that submitted them; use 'dataset submit --watch' or 'dataset replay' there.`,
}

var datasetSubmitCmd = &cobra.Command{
	Use:         "submit FILE",
	Short:       "Upload a CSV file for evaluation",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationAuth: "required"},
	RunE: func(cmd *cobra.Command, args []string) error {
		rt := currentApp()
		path := args[0]
		if err := dataset.CheckFileName(path); err != nil {
			rt.notifier.Notify(notify.InvalidFile())
			return fmt.Errorf("%w: %v", errNotified, err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if _, err := dataset.Parse(bytes.NewReader(data)); err != nil {
			rt.notifier.Notify(notify.Notice{Kind: notify.Failure, Title: "Invalid File", Message: err.Error()})
			return fmt.Errorf("%w: %v", errNotified, err)
		}

		sub, ok := submit(cmd, rt, filepath.Base(path), bytes.NewReader(data))
		if !ok {
			return errNotified
		}
		if watch, _ := cmd.Flags().GetBool("watch"); watch {
			return watchAndReport(cmd, rt, sub)
		}
		return rt.emit(sub, func() string {
			return fmt.Sprintf("Submitted job %s (%d prompts). Watch it with: routerbench dataset watch %s", sub.JobID, sub.TotalRows, sub.JobID)
		})
	},
}

// submit uploads file and announces the outcome.
func submit(cmd *cobra.Command, rt *runtime, name string, file io.Reader) (api.SubmitResponse, bool) {
	return notify.Guard(rt.notifier, notify.Options[api.SubmitResponse]{
		ShowSuccess:  true,
		SuccessTitle: "Evaluation Started",
		Describe: func(s api.SubmitResponse) string {
			return notify.EvaluationStarted(s.TotalRows).Message
		},
		FailureTitle: "Submission Failed",
	}, func() (api.SubmitResponse, error) {
		return rt.backend.SubmitDataset(cmd.Context(), name, file)
	})
}

var datasetStatusCmd = &cobra.Command{
	Use:         "status JOB_ID",
	Short:       "Show a dataset job's status",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationAuth: "required"},
	RunE: func(cmd *cobra.Command, args []string) error {
		rt := currentApp()
		st, err := rt.backend.JobStatus(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return rt.emit(st, func() string { return report.JobStatus(st) })
	},
}

var datasetResultsCmd = &cobra.Command{
	Use:         "results JOB_ID",
	Short:       "Show a completed dataset job's results",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationAuth: "required"},
	RunE: func(cmd *cobra.Command, args []string) error {
		rt := currentApp()
		res, err := rt.backend.JobResults(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return emitResults(rt, res, "")
	},
}

var datasetWatchCmd = &cobra.Command{
	Use:         "watch JOB_ID",
	Short:       "Poll a dataset job until it completes",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationAuth: "required"},
	RunE: func(cmd *cobra.Command, args []string) error {
		rt := currentApp()
		st, err := rt.backend.JobStatus(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		sub := api.SubmitResponse{JobID: st.JobID, Status: st.Status, TotalRows: st.TotalRows}
		return watchAndReport(cmd, rt, sub)
	},
}

var datasetDeleteCmd = &cobra.Command{
	Use:         "delete JOB_ID",
	Short:       "Delete a dataset job",
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{annotationAuth: "required"},
	RunE: func(cmd *cobra.Command, args []string) error {
		rt := currentApp()
		if err := rt.backend.DeleteJob(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(rt.out, "Deleted job %s\n", args[0])
		return nil
	},
}

var datasetSampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Print or save an example dataset CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt := currentApp()
		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			fmt.Fprint(rt.out, dataset.SampleCSV)
			return nil
		}
		if err := util.WriteFile(out, []byte(dataset.SampleCSV)); err != nil {
			return err
		}
		fmt.Fprintf(rt.out, "Wrote %s\n", out)
		return nil
	},
}

var datasetReplayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Run the sample dataset against the built-in replay backend",
	Long:  `The 'replay' command submits the sample CSV to the offline replay backend and watches it to completion, regardless of the configured backend.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt := currentApp()
		if !rt.offline {
			rt.offline = true
			rt.backend = rt.replayBackend()
		}
		sub, ok := submit(cmd, rt, "sample.csv", strings.NewReader(dataset.SampleCSV))
		if !ok {
			return errNotified
		}
		return watchAndReport(cmd, rt, sub)
	},
}

// pollInterval returns the --interval flag, or the configured interval.
func pollInterval(cmd *cobra.Command, rt *runtime) time.Duration {
	if d, err := cmd.Flags().GetDuration("interval"); err == nil && d > 0 {
		return d
	}
	return rt.cfg.PollInterval()
}

// errNotified marks failures already reported through a notification.
var errNotified = errors.New("operation failed")

func init() {
	datasetCmd.PersistentFlags().Duration("interval", 0, "status polling interval (default from config, 3s)")
	datasetSubmitCmd.Flags().Bool("watch", false, "watch the job until it completes")
	datasetSampleCmd.Flags().String("out", "", "write the sample CSV to this file")

	datasetCmd.AddCommand(datasetSubmitCmd, datasetStatusCmd, datasetResultsCmd, datasetWatchCmd,
		datasetDeleteCmd, datasetSampleCmd, datasetReplayCmd)
	rootCmd.AddCommand(datasetCmd)
}
