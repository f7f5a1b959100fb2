package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"montecarlo/pkg/api"
	"montecarlo/pkg/client"
)

type remoteFlags struct {
	address  string
	protocol string
}

func (r *remoteFlags) client(a *app) (*client.Client, error) {
	cfg := client.FromConfig(a.cfg.Client)
	if r.address != "" {
		cfg.Address = r.address
	}
	if r.protocol != "" {
		cfg.Protocol = r.protocol
	}
	return client.New(cfg)
}

func newRemoteCmd(a *app) *cobra.Command {
	var r remoteFlags

	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Call a running integration-svc",
	}
	cmd.PersistentFlags().StringVar(&r.address, "address", "", "service address (default: client.address)")
	cmd.PersistentFlags().StringVar(&r.protocol, "protocol", "", "connect, grpc, grpcweb (default: client.protocol)")

	cmd.AddCommand(
		newRemoteIntegrateCmd(a, &r),
		newRemoteCompareCmd(a, &r),
		newRemoteIntegrandsCmd(a, &r),
		newRemoteRunsCmd(a, &r),
	)
	return cmd
}

func newRemoteIntegrateCmd(a *app, r *remoteFlags) *cobra.Command {
	var f requestFlags

	cmd := &cobra.Command{
		Use:   "integrate",
		Short: "Integrate on the service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := f.integrateRequest(cmd)
			if err != nil {
				return err
			}
			c, err := r.client(a)
			if err != nil {
				return err
			}

			ctx, cancel := withTimeout(cmd.Context(), a)
			defer cancel()

			resp, err := c.Integrate(ctx, req)
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

func newRemoteCompareCmd(a *app, r *remoteFlags) *cobra.Command {
	var f requestFlags

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare estimators on the service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := f.compareRequest(cmd)
			if err != nil {
				return err
			}
			c, err := r.client(a)
			if err != nil {
				return err
			}

			ctx, cancel := withTimeout(cmd.Context(), a)
			defer cancel()

			resp, err := c.Compare(ctx, req)
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

func newRemoteIntegrandsCmd(a *app, r *remoteFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "integrands",
		Short: "List the service catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := r.client(a)
			if err != nil {
				return err
			}

			ctx, cancel := withTimeout(cmd.Context(), a)
			defer cancel()

			resp, err := c.ListIntegrands(ctx)
			if err != nil {
				return err
			}
			printIntegrands(cmd.OutOrStdout(), resp)
			return nil
		},
	}
}

func newRemoteRunsCmd(a *app, r *remoteFlags) *cobra.Command {
	var req api.ListRunsRequest
	var method string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := r.client(a)
			if err != nil {
				return err
			}

			ctx, cancel := withTimeout(cmd.Context(), a)
			defer cancel()

			req.Method = api.Method(method)
			resp, err := c.ListRuns(ctx, &req)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			for _, run := range resp.Runs {
				fmt.Fprintf(w, "%s  %-12s %-16s %g ± %.3g  N=%d\n",
					run.ID, run.Integrand, run.Method, run.Estimate, run.HalfWidth, run.Samples)
			}
			fmt.Fprintf(w, "%d of %d\n", len(resp.Runs), resp.Total)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Integrand, "integrand", "", "filter by integrand")
	cmd.Flags().StringVar(&method, "method", "", "filter by method")
	cmd.Flags().StringSliceVar(&req.Tags, "tag", nil, "filter by tag")
	cmd.Flags().IntVar(&req.Limit, "limit", 20, "page size")
	cmd.Flags().IntVar(&req.Offset, "offset", 0, "page offset")
	return cmd
}
