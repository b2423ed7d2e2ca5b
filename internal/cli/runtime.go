// internal/cli/runtime.go
package routerbench

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"

	"github.com/mwiater/routerbench/internal/api"
	"github.com/mwiater/routerbench/internal/appconfig"
	"github.com/mwiater/routerbench/internal/history"
	"github.com/mwiater/routerbench/internal/logging"
	"github.com/mwiater/routerbench/internal/metrics"
	"github.com/mwiater/routerbench/internal/notify"
	"github.com/mwiater/routerbench/internal/pricing"
	"github.com/mwiater/routerbench/internal/replay"
	"github.com/mwiater/routerbench/internal/settings"
)

// outputWidth is the wrap width for model output and grader reasoning.
const outputWidth = 100

// runtime is everything a command needs, built once per invocation.
type runtime struct {
	cfg        appconfig.Config
	configFile string
	session    *settings.Settings
	backend    api.Backend
	offline    bool
	timings    *metrics.Aggregator
	notifier   notify.Notifier
	store      *history.Store
	out        io.Writer
	errOut     io.Writer
}

// newBackend is swapped in tests.
var newBackend = defaultBackend

func newRuntime(cmd *cobra.Command, cfg appconfig.Config, file string) (*runtime, error) {
	if err := logging.Init(cfg.LogFilePath(), cfg.Debug); err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	session, err := settings.Open(cfg.SessionFilePath())
	if err != nil {
		return nil, err
	}

	rt := &runtime{
		cfg:        cfg,
		configFile: file,
		session:    session,
		offline:    cfg.Offline || session.OfflineMode(),
		timings:    metrics.NewAggregator(cfg.MetricsPath()),
		out:        cmd.OutOrStdout(),
		errOut:     cmd.ErrOrStderr(),
	}
	rt.notifier = notify.NewConsole(rt.errOut)
	rt.backend = newBackend(rt)
	logging.LogEvent("[CLI] %s offline=%v backend=%s", cmd.CommandPath(), rt.offline, cfg.BackendURLOrDefault())
	return rt, nil
}

// defaultBackend picks the replay backend in offline mode and the HTTP client otherwise.
func defaultBackend(rt *runtime) api.Backend {
	if rt.offline {
		return rt.replayBackend()
	}
	return api.NewClient(rt.cfg.BackendURLOrDefault(), rt.cfg.RequestTimeout()).
		WithTokenSource(rt.session).
		WithRecorder(rt.timings.Record)
}

func (rt *runtime) replayBackend() api.Backend {
	return metrics.NewBackend(replay.New(replay.Options{
		DelayScale:  rt.cfg.ReplayDelayScale,
		RowsPerPoll: rt.cfg.RowsPerPoll(),
	}), rt.timings)
}

// Close saves timings and closes the history store.
func (rt *runtime) Close() error {
	var firstErr error
	if err := rt.timings.Save(); err != nil {
		firstErr = err
	}
	if rt.store != nil {
		if err := rt.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		rt.store = nil
	}
	return firstErr
}

// history opens the evaluation store on first use.
func (rt *runtime) history() (*history.Store, error) {
	if rt.store != nil {
		return rt.store, nil
	}
	store, err := history.Open(rt.cfg.HistoryPath(), logging.Logger())
	if err != nil {
		return nil, err
	}
	rt.store = store
	return store, nil
}

// source names the backend kind recorded with saved evaluations.
func (rt *runtime) source() string {
	if rt.offline {
		return "replay"
	}
	return "live"
}

// pricingTable loads rates from the configured file, or from the backend.
// When neither is available it returns an empty table so costs use the fallback rate.
func (rt *runtime) pricingTable(ctx context.Context) *pricing.Table {
	fallback := pricing.DefaultFallback
	fallback.InputPer1M, fallback.OutputPer1M = rt.cfg.FallbackRate()
	opt := pricing.WithFallback(fallback)

	if path := strings.TrimSpace(rt.cfg.PricingFile); path != "" {
		data, err := pricing.LoadFile(path)
		if err == nil {
			return pricing.NewTable(&data, opt)
		}
		logging.LogWarn("[PRICING] %s unusable: %v", path, err)
	}
	data, err := rt.backend.Pricing(ctx)
	if err != nil {
		logging.LogWarn("[PRICING] backend pricing unavailable: %v", err)
		return pricing.NewTable(nil, opt)
	}
	return pricing.NewTable(&data, opt)
}

// emit prints v as JSON in JSON mode, or the rendered text otherwise.
func (rt *runtime) emit(v any, render func() string) error {
	rt.debug(v)
	if rt.cfg.JSONMode {
		return printJSON(rt.out, v)
	}
	fmt.Fprintln(rt.out, render())
	return nil
}

// debug dumps a decoded payload when --debug is set.
func (rt *runtime) debug(v any) {
	if !rt.cfg.Debug {
		return
	}
	pp.Fprintln(rt.errOut, v)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// remarshal copies src into dst through JSON.
func remarshal(src, dst any) error {
	data, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// currentApp returns the runtime built for the running command.
func currentApp() *runtime {
	return app
}
