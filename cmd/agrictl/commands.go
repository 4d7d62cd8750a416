package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"agrilink/pkg/fetch"
	"agrilink/pkg/models"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	dimColor     = color.New(color.Faint)
)

func newProbeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Probe every candidate origin",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := loadApp()
			if err != nil {
				return err
			}
			defer application.Close()

			results := application.Resolver.TestConnection(cmd.Context())
			printProbeResults(cmd.OutOrStdout(), results)
			return nil
		},
	}
}

func printProbeResults(out io.Writer, results []models.ProbeResult) {
	for _, result := range results {
		latency := dimColor.Sprintf("%dms", result.LatencyMs)
		if result.OK() {
			fmt.Fprintf(out, "%s %s %s\n", successColor.Sprint("✓"), result.URL, latency)
			continue
		}
		fmt.Fprintf(out, "%s %s %s %s\n", errorColor.Sprint("✗"), result.URL, result.Error, latency)
	}
}

func newBestCmd() *cobra.Command {
	var apply bool

	cmd := &cobra.Command{
		Use:   "best",
		Short: "Print the first reachable candidate origin",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := loadApp()
			if err != nil {
				return err
			}
			defer application.Close()

			if !apply {
				best, err := application.Resolver.GetBestURL(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), best)
				return nil
			}

			best, err := application.Resolver.ApplyBestURL(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", successColor.Sprint("using"), best)
			return nil
		},
	}

	cmd.Flags().BoolVar(&apply, "apply", false, "Also persist the result as the base URL for later commands")
	return cmd
}

func newModeCmd() *cobra.Command {
	modeCmd := &cobra.Command{
		Use:   "mode",
		Short: "Show or switch the network mode",
	}

	modeCmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Print the persisted network mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := loadApp()
			if err != nil {
				return err
			}
			defer application.Close()

			fmt.Fprintln(cmd.OutOrStdout(), application.Resolver.GetMode(cmd.Context()))
			return nil
		},
	})

	modeCmd.AddCommand(&cobra.Command{
		Use:       "set <online|offline>",
		Short:     "Switch and persist the network mode",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(models.ModeOnline), string(models.ModeOffline)},
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, ok := models.ParseNetworkMode(args[0])
			if !ok {
				return fmt.Errorf("unknown mode %q: expected online or offline", args[0])
			}

			application, err := loadApp()
			if err != nil {
				return err
			}
			defer application.Close()

			if err := application.Resolver.SetMode(cmd.Context(), mode); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n",
				successColor.Sprint("mode"), mode, application.Endpoint.BaseURL())
			return nil
		},
	})

	return modeCmd
}

func newFetchCmd() *cobra.Command {
	var (
		method      string
		data        string
		headers     []string
		timeout     time.Duration
		restoreMode bool
	)

	cmd := &cobra.Command{
		Use:   "fetch <endpoint>",
		Short: "Send a request through the safe fetch client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := loadApp()
			if err != nil {
				return err
			}
			defer application.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if restoreMode {
				if _, err := application.Resolver.RestoreMode(ctx); err != nil {
					return err
				}
			}

			opts := &fetch.Options{Method: strings.ToUpper(method), Timeout: timeout}
			if data != "" {
				opts.Body = bytes.NewReader([]byte(data))
			}
			if len(headers) > 0 {
				opts.Headers = http.Header{}
				for _, header := range headers {
					key, value, found := strings.Cut(header, ":")
					if !found {
						return fmt.Errorf("invalid header %q: expected Key: Value", header)
					}
					opts.Headers.Add(strings.TrimSpace(key), strings.TrimSpace(value))
				}
			}

			started := time.Now()
			resp, err := application.Client.Do(ctx, args[0], opts)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			written, err := io.Copy(cmd.OutOrStdout(), resp.Body)
			if err != nil {
				return fmt.Errorf("failed to read response: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprintln(os.Stderr, dimColor.Sprintf("%s %s in %s",
				resp.Status, humanize.Bytes(uint64(written)), time.Since(started).Round(time.Millisecond)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&method, "request", "X", "", "HTTP method (default GET, or POST with --data)")
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body")
	cmd.Flags().StringArrayVarP(&headers, "header", "H", nil, "Extra header, e.g. 'Authorization: Bearer x'")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Request timeout (default from config)")
	cmd.Flags().BoolVar(&restoreMode, "restore-mode", true, "Apply the persisted network mode before sending")
	return cmd
}
