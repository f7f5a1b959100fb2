package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"montecarlo/pkg/api"
	"montecarlo/pkg/interceptors"
	integrationsvc "montecarlo/services/integration-svc"
)

func (a *app) local() integrationsvc.Service {
	return integrationsvc.NewLocalService(a.cfg.Sampling, a.cfg.Report)
}

func newRunCmd(a *app) *cobra.Command {
	var f requestFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one estimator locally",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := f.integrateRequest(cmd)
			if err != nil {
				return err
			}
			if err := interceptors.ValidateRequest(req); err != nil {
				return err
			}

			resp, err := a.local().Integrate(cmd.Context(), req)
			if err != nil {
				return err
			}
			printIntegrate(cmd.OutOrStdout(), resp)
			return nil
		},
	}
	f.bind(cmd, requestFlags{integrand: "benchmark", policy: string(api.PolicySize)}, true)
	return cmd
}

func newCompareCmd(a *app) *cobra.Command {
	var f requestFlags

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Run all estimators with the same seed and stop rule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := f.compareRequest(cmd)
			if err != nil {
				return err
			}
			if err := interceptors.ValidateRequest(req); err != nil {
				return err
			}

			resp, err := a.local().Compare(cmd.Context(), req)
			if err != nil {
				return err
			}
			printCompare(cmd.OutOrStdout(), resp)
			return nil
		},
	}
	f.bind(cmd, compareDefaults, false)
	return cmd
}

func newReportCmd(a *app) *cobra.Command {
	var (
		f      requestFlags
		format string
		title  string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Compare estimators locally and write a report file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := f.compareRequest(cmd)
			if err != nil {
				return err
			}
			if err := interceptors.ValidateRequest(req); err != nil {
				return err
			}

			svc := a.local()
			cmp, err := svc.Compare(cmd.Context(), req)
			if err != nil {
				return err
			}

			resp, err := svc.Report(cmd.Context(), &api.ReportRequest{RunIDs: cmp.RunIDs, Format: format, Title: title})
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), resp, out)
		},
	}
	f.bind(cmd, compareDefaults, false)
	cmd.Flags().StringVar(&format, "format", "", "csv, json, markdown, excel, pdf (default from config)")
	cmd.Flags().StringVar(&title, "title", "", "report title")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: generated name in the current directory)")
	return cmd
}

func writeReport(w io.Writer, resp *api.ReportResponse, out string) error {
	if out == "" {
		out = resp.Filename
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	if err := os.WriteFile(out, resp.Content, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	fmt.Fprintf(w, "report written to %s (%d bytes, %s)\n", out, len(resp.Content), resp.ContentType)
	return nil
}

func printResult(w io.Writer, res api.SamplingResult) {
	fmt.Fprintf(w, "%-16s %g, %s  N=%d  %.3f ms", res.Method, res.Estimate, res.Interval.Text, res.Samples, res.ElapsedMs)
	if res.Coefficient != nil {
		fmt.Fprintf(w, "  c=%.4f", *res.Coefficient)
	}
	fmt.Fprintln(w)
}

func printIntegrate(w io.Writer, resp *api.IntegrateResponse) {
	fmt.Fprintf(w, "%s on [%g,%g], policy %s\n", resp.Integrand, resp.Lower, resp.Upper, resp.Policy)
	printResult(w, resp.Result)
	fmt.Fprintf(w, "reference %g, abs error %.3g\n", resp.Reference, resp.AbsError)
	if resp.RunID != "" {
		fmt.Fprintf(w, "run %s\n", resp.RunID)
	}
}

func printCompare(w io.Writer, resp *api.CompareResponse) {
	fmt.Fprintf(w, "%s on [%g,%g], policy %s, reference %g\n", resp.Integrand, resp.Lower, resp.Upper, resp.Policy, resp.Reference)
	for _, res := range resp.Results {
		printResult(w, res)
	}
	for _, res := range resp.Results {
		if vr, ok := resp.VarianceReduction[res.Method]; ok {
			fmt.Fprintf(w, "variance reduction %-16s x%.2f\n", res.Method, vr)
		}
	}
}

func printIntegrands(w io.Writer, resp *api.ListIntegrandsResponse) {
	for _, in := range resp.Integrands {
		fmt.Fprintf(w, "%-12s [%g,%g]  %s\n", in.Name, in.Lower, in.Upper, in.Description)
	}
}

func withTimeout(ctx context.Context, a *app) (context.Context, context.CancelFunc) {
	if a.cfg.Client.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.cfg.Client.Timeout)
}
