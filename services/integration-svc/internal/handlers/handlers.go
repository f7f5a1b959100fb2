// Package handlers connect процедуры IntegrationService и служебные HTTP маршруты
package handlers

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"montecarlo/pkg/api"
	"montecarlo/pkg/apperror"
)

// Service операции сервиса интегрирования
type Service interface {
	Integrate(ctx context.Context, req *api.IntegrateRequest) (*api.IntegrateResponse, error)
	Compare(ctx context.Context, req *api.CompareRequest) (*api.CompareResponse, error)
	GetRun(ctx context.Context, req *api.GetRunRequest) (*api.Run, error)
	ListRuns(ctx context.Context, req *api.ListRunsRequest) (*api.ListRunsResponse, error)
	DeleteRun(ctx context.Context, req *api.DeleteRunRequest) (*api.DeleteRunResponse, error)
	Report(ctx context.Context, req *api.ReportRequest) (*api.ReportResponse, error)
	ListIntegrands(ctx context.Context, req *api.ListIntegrandsRequest) (*api.ListIntegrandsResponse, error)
}

// IntegrationHandler connect обёртка над Service
type IntegrationHandler struct {
	svc Service
}

// NewIntegrationHandler создаёт handler
func NewIntegrationHandler(svc Service) *IntegrationHandler {
	return &IntegrationHandler{svc: svc}
}

// Register монтирует процедуры в mux; опции применяются к каждой процедуре
func (h *IntegrationHandler) Register(mux *http.ServeMux, opts ...connect.HandlerOption) {
	opts = append([]connect.HandlerOption{api.WithJSON()}, opts...)

	mux.Handle(api.IntegrateProcedure, connect.NewUnaryHandler(api.IntegrateProcedure, h.Integrate, opts...))
	mux.Handle(api.CompareProcedure, connect.NewUnaryHandler(api.CompareProcedure, h.Compare, opts...))
	mux.Handle(api.GetRunProcedure, connect.NewUnaryHandler(api.GetRunProcedure, h.GetRun, opts...))
	mux.Handle(api.ListRunsProcedure, connect.NewUnaryHandler(api.ListRunsProcedure, h.ListRuns, opts...))
	mux.Handle(api.DeleteRunProcedure, connect.NewUnaryHandler(api.DeleteRunProcedure, h.DeleteRun, opts...))
	mux.Handle(api.ReportProcedure, connect.NewUnaryHandler(api.ReportProcedure, h.Report, opts...))
	mux.Handle(api.ListIntegrandsProcedure, connect.NewUnaryHandler(api.ListIntegrandsProcedure, h.ListIntegrands, opts...))
}

func (h *IntegrationHandler) Integrate(
	ctx context.Context,
	req *connect.Request[api.IntegrateRequest],
) (*connect.Response[api.IntegrateResponse], error) {
	return unary(ctx, req, h.svc.Integrate)
}

func (h *IntegrationHandler) Compare(
	ctx context.Context,
	req *connect.Request[api.CompareRequest],
) (*connect.Response[api.CompareResponse], error) {
	return unary(ctx, req, h.svc.Compare)
}

func (h *IntegrationHandler) GetRun(
	ctx context.Context,
	req *connect.Request[api.GetRunRequest],
) (*connect.Response[api.Run], error) {
	return unary(ctx, req, h.svc.GetRun)
}

func (h *IntegrationHandler) ListRuns(
	ctx context.Context,
	req *connect.Request[api.ListRunsRequest],
) (*connect.Response[api.ListRunsResponse], error) {
	return unary(ctx, req, h.svc.ListRuns)
}

func (h *IntegrationHandler) DeleteRun(
	ctx context.Context,
	req *connect.Request[api.DeleteRunRequest],
) (*connect.Response[api.DeleteRunResponse], error) {
	return unary(ctx, req, h.svc.DeleteRun)
}

func (h *IntegrationHandler) Report(
	ctx context.Context,
	req *connect.Request[api.ReportRequest],
) (*connect.Response[api.ReportResponse], error) {
	return unary(ctx, req, h.svc.Report)
}

func (h *IntegrationHandler) ListIntegrands(
	ctx context.Context,
	req *connect.Request[api.ListIntegrandsRequest],
) (*connect.Response[api.ListIntegrandsResponse], error) {
	return unary(ctx, req, h.svc.ListIntegrands)
}

// unary вызывает метод сервиса и переводит ошибку приложения в connect
func unary[Req, Res any](
	ctx context.Context,
	req *connect.Request[Req],
	call func(context.Context, *Req) (*Res, error),
) (*connect.Response[Res], error) {
	res, err := call(ctx, req.Msg)
	if err != nil {
		return nil, apperror.ToConnect(err)
	}
	return connect.NewResponse(res), nil
}
