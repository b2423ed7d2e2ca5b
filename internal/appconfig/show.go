package appconfig

import (
	"fmt"
	"io"
)

// ShowConfig prints the current configuration summary.
func ShowConfig(out io.Writer, file string, cfg Config) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}

	in, outRate := cfg.FallbackRate()
	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Backend URL:     %s\n", cfg.BackendURLOrDefault())
	fmt.Fprintf(out, "  Offline Mode:    %v\n", cfg.Offline)
	fmt.Fprintf(out, "  Debug:           %v\n", cfg.Debug)
	fmt.Fprintf(out, "  JSON Mode:       %v\n", cfg.JSONMode)
	fmt.Fprintf(out, "  Auth:            %v\n", cfg.Auth)
	if cfg.Auth {
		fmt.Fprintf(out, "  Auth URL:        %s\n", cfg.AuthURL)
		fmt.Fprintf(out, "  App Name:        %s\n", cfg.AppNameOrDefault())
		fmt.Fprintf(out, "  App URL:         %s\n", cfg.AppURL)
	}
	fmt.Fprintf(out, "  Department:      %s\n", cfg.DepartmentOrDefault())
	fmt.Fprintf(out, "  Poll Interval:   %s\n", cfg.PollInterval())
	fmt.Fprintf(out, "  Request Timeout: %s\n", cfg.RequestTimeout())
	fmt.Fprintf(out, "  Fallback Rate:   $%.2f in / $%.2f out per 1M tokens\n", in, outRate)
	if cfg.PricingFile != "" {
		fmt.Fprintf(out, "  Pricing File:    %s\n", cfg.PricingFile)
	}
	fmt.Fprintf(out, "  Log File:        %s\n", cfg.LogFilePath())
	fmt.Fprintf(out, "  Session File:    %s\n", cfg.SessionFilePath())
	fmt.Fprintf(out, "  History File:    %s\n", cfg.HistoryPath())
	fmt.Fprintf(out, "  Metrics File:    %s\n", cfg.MetricsPath())
}
