package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/tripledger/pkg/api"
)

// LedgerServiceName is the fully-qualified name of the LedgerService.
const LedgerServiceName = "tripledger.v1.LedgerService"

// Procedure paths of the LedgerService.
const (
	LedgerServiceAddExpenseProcedure           = "/" + LedgerServiceName + "/AddExpense"
	LedgerServiceUpdateExpenseProcedure        = "/" + LedgerServiceName + "/UpdateExpense"
	LedgerServiceDeleteExpenseProcedure        = "/" + LedgerServiceName + "/DeleteExpense"
	LedgerServiceListExpensesProcedure         = "/" + LedgerServiceName + "/ListExpenses"
	LedgerServiceAddPlannedExpenseProcedure    = "/" + LedgerServiceName + "/AddPlannedExpense"
	LedgerServiceListPlannedExpensesProcedure  = "/" + LedgerServiceName + "/ListPlannedExpenses"
	LedgerServiceDeletePlannedExpenseProcedure = "/" + LedgerServiceName + "/DeletePlannedExpense"
	LedgerServicePreviewSharesProcedure        = "/" + LedgerServiceName + "/PreviewShares"
	LedgerServiceGetBalancesProcedure          = "/" + LedgerServiceName + "/GetBalances"
	LedgerServiceGetSettlementPlanProcedure    = "/" + LedgerServiceName + "/GetSettlementPlan"
	LedgerServiceGetLedgerViewProcedure        = "/" + LedgerServiceName + "/GetLedgerView"
	LedgerServiceRecordSettlementProcedure     = "/" + LedgerServiceName + "/RecordSettlement"
	LedgerServiceListSettlementsProcedure      = "/" + LedgerServiceName + "/ListSettlements"
	LedgerServiceDeleteSettlementProcedure     = "/" + LedgerServiceName + "/DeleteSettlement"
)

// LedgerServiceHandler is implemented by the server side of the LedgerService.
// LedgerService records expenses and settlements and derives balances, settlement plans and the ledger view of a trip.
type LedgerServiceHandler interface {
	AddExpense(context.Context, *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error)
	UpdateExpense(context.Context, *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error)
	DeleteExpense(context.Context, *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error)
	ListExpenses(context.Context, *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error)
	AddPlannedExpense(context.Context, *connect.Request[api.AddPlannedExpenseRequest]) (*connect.Response[api.AddPlannedExpenseResponse], error)
	ListPlannedExpenses(context.Context, *connect.Request[api.ListPlannedExpensesRequest]) (*connect.Response[api.ListPlannedExpensesResponse], error)
	DeletePlannedExpense(context.Context, *connect.Request[api.DeletePlannedExpenseRequest]) (*connect.Response[api.DeletePlannedExpenseResponse], error)
	PreviewShares(context.Context, *connect.Request[api.PreviewSharesRequest]) (*connect.Response[api.PreviewSharesResponse], error)
	GetBalances(context.Context, *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error)
	GetSettlementPlan(context.Context, *connect.Request[api.GetSettlementPlanRequest]) (*connect.Response[api.GetSettlementPlanResponse], error)
	GetLedgerView(context.Context, *connect.Request[api.GetLedgerViewRequest]) (*connect.Response[api.GetLedgerViewResponse], error)
	RecordSettlement(context.Context, *connect.Request[api.RecordSettlementRequest]) (*connect.Response[api.RecordSettlementResponse], error)
	ListSettlements(context.Context, *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error)
	DeleteSettlement(context.Context, *connect.Request[api.DeleteSettlementRequest]) (*connect.Response[api.DeleteSettlementResponse], error)
}

// NewLedgerServiceHandler builds an HTTP handler serving every LedgerService procedure.
// It returns the path to mount the handler on.
func NewLedgerServiceHandler(svc LedgerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	addExpenseHandler := connect.NewUnaryHandler(LedgerServiceAddExpenseProcedure, svc.AddExpense, opts...)
	updateExpenseHandler := connect.NewUnaryHandler(LedgerServiceUpdateExpenseProcedure, svc.UpdateExpense, opts...)
	deleteExpenseHandler := connect.NewUnaryHandler(LedgerServiceDeleteExpenseProcedure, svc.DeleteExpense, opts...)
	listExpensesHandler := connect.NewUnaryHandler(LedgerServiceListExpensesProcedure, svc.ListExpenses, opts...)
	addPlannedExpenseHandler := connect.NewUnaryHandler(LedgerServiceAddPlannedExpenseProcedure, svc.AddPlannedExpense, opts...)
	listPlannedExpensesHandler := connect.NewUnaryHandler(LedgerServiceListPlannedExpensesProcedure, svc.ListPlannedExpenses, opts...)
	deletePlannedExpenseHandler := connect.NewUnaryHandler(LedgerServiceDeletePlannedExpenseProcedure, svc.DeletePlannedExpense, opts...)
	previewSharesHandler := connect.NewUnaryHandler(LedgerServicePreviewSharesProcedure, svc.PreviewShares, opts...)
	getBalancesHandler := connect.NewUnaryHandler(LedgerServiceGetBalancesProcedure, svc.GetBalances, opts...)
	getSettlementPlanHandler := connect.NewUnaryHandler(LedgerServiceGetSettlementPlanProcedure, svc.GetSettlementPlan, opts...)
	getLedgerViewHandler := connect.NewUnaryHandler(LedgerServiceGetLedgerViewProcedure, svc.GetLedgerView, opts...)
	recordSettlementHandler := connect.NewUnaryHandler(LedgerServiceRecordSettlementProcedure, svc.RecordSettlement, opts...)
	listSettlementsHandler := connect.NewUnaryHandler(LedgerServiceListSettlementsProcedure, svc.ListSettlements, opts...)
	deleteSettlementHandler := connect.NewUnaryHandler(LedgerServiceDeleteSettlementProcedure, svc.DeleteSettlement, opts...)
	return "/" + LedgerServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case LedgerServiceAddExpenseProcedure:
			addExpenseHandler.ServeHTTP(w, r)
		case LedgerServiceUpdateExpenseProcedure:
			updateExpenseHandler.ServeHTTP(w, r)
		case LedgerServiceDeleteExpenseProcedure:
			deleteExpenseHandler.ServeHTTP(w, r)
		case LedgerServiceListExpensesProcedure:
			listExpensesHandler.ServeHTTP(w, r)
		case LedgerServiceAddPlannedExpenseProcedure:
			addPlannedExpenseHandler.ServeHTTP(w, r)
		case LedgerServiceListPlannedExpensesProcedure:
			listPlannedExpensesHandler.ServeHTTP(w, r)
		case LedgerServiceDeletePlannedExpenseProcedure:
			deletePlannedExpenseHandler.ServeHTTP(w, r)
		case LedgerServicePreviewSharesProcedure:
			previewSharesHandler.ServeHTTP(w, r)
		case LedgerServiceGetBalancesProcedure:
			getBalancesHandler.ServeHTTP(w, r)
		case LedgerServiceGetSettlementPlanProcedure:
			getSettlementPlanHandler.ServeHTTP(w, r)
		case LedgerServiceGetLedgerViewProcedure:
			getLedgerViewHandler.ServeHTTP(w, r)
		case LedgerServiceRecordSettlementProcedure:
			recordSettlementHandler.ServeHTTP(w, r)
		case LedgerServiceListSettlementsProcedure:
			listSettlementsHandler.ServeHTTP(w, r)
		case LedgerServiceDeleteSettlementProcedure:
			deleteSettlementHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// LedgerServiceClient is a client for the LedgerService.
type LedgerServiceClient interface {
	AddExpense(context.Context, *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error)
	UpdateExpense(context.Context, *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error)
	DeleteExpense(context.Context, *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error)
	ListExpenses(context.Context, *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error)
	AddPlannedExpense(context.Context, *connect.Request[api.AddPlannedExpenseRequest]) (*connect.Response[api.AddPlannedExpenseResponse], error)
	ListPlannedExpenses(context.Context, *connect.Request[api.ListPlannedExpensesRequest]) (*connect.Response[api.ListPlannedExpensesResponse], error)
	DeletePlannedExpense(context.Context, *connect.Request[api.DeletePlannedExpenseRequest]) (*connect.Response[api.DeletePlannedExpenseResponse], error)
	PreviewShares(context.Context, *connect.Request[api.PreviewSharesRequest]) (*connect.Response[api.PreviewSharesResponse], error)
	GetBalances(context.Context, *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error)
	GetSettlementPlan(context.Context, *connect.Request[api.GetSettlementPlanRequest]) (*connect.Response[api.GetSettlementPlanResponse], error)
	GetLedgerView(context.Context, *connect.Request[api.GetLedgerViewRequest]) (*connect.Response[api.GetLedgerViewResponse], error)
	RecordSettlement(context.Context, *connect.Request[api.RecordSettlementRequest]) (*connect.Response[api.RecordSettlementResponse], error)
	ListSettlements(context.Context, *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error)
	DeleteSettlement(context.Context, *connect.Request[api.DeleteSettlementRequest]) (*connect.Response[api.DeleteSettlementResponse], error)
}

// NewLedgerServiceClient constructs a client for the LedgerService at baseURL
// (for example, http://localhost:8080).
func NewLedgerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) LedgerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &ledgerServiceClient{
		addExpense:           connect.NewClient[api.AddExpenseRequest, api.AddExpenseResponse](httpClient, baseURL+LedgerServiceAddExpenseProcedure, opts...),
		updateExpense:        connect.NewClient[api.UpdateExpenseRequest, api.UpdateExpenseResponse](httpClient, baseURL+LedgerServiceUpdateExpenseProcedure, opts...),
		deleteExpense:        connect.NewClient[api.DeleteExpenseRequest, api.DeleteExpenseResponse](httpClient, baseURL+LedgerServiceDeleteExpenseProcedure, opts...),
		listExpenses:         connect.NewClient[api.ListExpensesRequest, api.ListExpensesResponse](httpClient, baseURL+LedgerServiceListExpensesProcedure, opts...),
		addPlannedExpense:    connect.NewClient[api.AddPlannedExpenseRequest, api.AddPlannedExpenseResponse](httpClient, baseURL+LedgerServiceAddPlannedExpenseProcedure, opts...),
		listPlannedExpenses:  connect.NewClient[api.ListPlannedExpensesRequest, api.ListPlannedExpensesResponse](httpClient, baseURL+LedgerServiceListPlannedExpensesProcedure, opts...),
		deletePlannedExpense: connect.NewClient[api.DeletePlannedExpenseRequest, api.DeletePlannedExpenseResponse](httpClient, baseURL+LedgerServiceDeletePlannedExpenseProcedure, opts...),
		previewShares:        connect.NewClient[api.PreviewSharesRequest, api.PreviewSharesResponse](httpClient, baseURL+LedgerServicePreviewSharesProcedure, opts...),
		getBalances:          connect.NewClient[api.GetBalancesRequest, api.GetBalancesResponse](httpClient, baseURL+LedgerServiceGetBalancesProcedure, opts...),
		getSettlementPlan:    connect.NewClient[api.GetSettlementPlanRequest, api.GetSettlementPlanResponse](httpClient, baseURL+LedgerServiceGetSettlementPlanProcedure, opts...),
		getLedgerView:        connect.NewClient[api.GetLedgerViewRequest, api.GetLedgerViewResponse](httpClient, baseURL+LedgerServiceGetLedgerViewProcedure, opts...),
		recordSettlement:     connect.NewClient[api.RecordSettlementRequest, api.RecordSettlementResponse](httpClient, baseURL+LedgerServiceRecordSettlementProcedure, opts...),
		listSettlements:      connect.NewClient[api.ListSettlementsRequest, api.ListSettlementsResponse](httpClient, baseURL+LedgerServiceListSettlementsProcedure, opts...),
		deleteSettlement:     connect.NewClient[api.DeleteSettlementRequest, api.DeleteSettlementResponse](httpClient, baseURL+LedgerServiceDeleteSettlementProcedure, opts...),
	}
}

type ledgerServiceClient struct {
	addExpense           *connect.Client[api.AddExpenseRequest, api.AddExpenseResponse]
	updateExpense        *connect.Client[api.UpdateExpenseRequest, api.UpdateExpenseResponse]
	deleteExpense        *connect.Client[api.DeleteExpenseRequest, api.DeleteExpenseResponse]
	listExpenses         *connect.Client[api.ListExpensesRequest, api.ListExpensesResponse]
	addPlannedExpense    *connect.Client[api.AddPlannedExpenseRequest, api.AddPlannedExpenseResponse]
	listPlannedExpenses  *connect.Client[api.ListPlannedExpensesRequest, api.ListPlannedExpensesResponse]
	deletePlannedExpense *connect.Client[api.DeletePlannedExpenseRequest, api.DeletePlannedExpenseResponse]
	previewShares        *connect.Client[api.PreviewSharesRequest, api.PreviewSharesResponse]
	getBalances          *connect.Client[api.GetBalancesRequest, api.GetBalancesResponse]
	getSettlementPlan    *connect.Client[api.GetSettlementPlanRequest, api.GetSettlementPlanResponse]
	getLedgerView        *connect.Client[api.GetLedgerViewRequest, api.GetLedgerViewResponse]
	recordSettlement     *connect.Client[api.RecordSettlementRequest, api.RecordSettlementResponse]
	listSettlements      *connect.Client[api.ListSettlementsRequest, api.ListSettlementsResponse]
	deleteSettlement     *connect.Client[api.DeleteSettlementRequest, api.DeleteSettlementResponse]
}

func (c *ledgerServiceClient) AddExpense(ctx context.Context, req *connect.Request[api.AddExpenseRequest]) (*connect.Response[api.AddExpenseResponse], error) {
	return c.addExpense.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) UpdateExpense(ctx context.Context, req *connect.Request[api.UpdateExpenseRequest]) (*connect.Response[api.UpdateExpenseResponse], error) {
	return c.updateExpense.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) DeleteExpense(ctx context.Context, req *connect.Request[api.DeleteExpenseRequest]) (*connect.Response[api.DeleteExpenseResponse], error) {
	return c.deleteExpense.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ListExpenses(ctx context.Context, req *connect.Request[api.ListExpensesRequest]) (*connect.Response[api.ListExpensesResponse], error) {
	return c.listExpenses.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) AddPlannedExpense(ctx context.Context, req *connect.Request[api.AddPlannedExpenseRequest]) (*connect.Response[api.AddPlannedExpenseResponse], error) {
	return c.addPlannedExpense.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ListPlannedExpenses(ctx context.Context, req *connect.Request[api.ListPlannedExpensesRequest]) (*connect.Response[api.ListPlannedExpensesResponse], error) {
	return c.listPlannedExpenses.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) DeletePlannedExpense(ctx context.Context, req *connect.Request[api.DeletePlannedExpenseRequest]) (*connect.Response[api.DeletePlannedExpenseResponse], error) {
	return c.deletePlannedExpense.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) PreviewShares(ctx context.Context, req *connect.Request[api.PreviewSharesRequest]) (*connect.Response[api.PreviewSharesResponse], error) {
	return c.previewShares.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetBalances(ctx context.Context, req *connect.Request[api.GetBalancesRequest]) (*connect.Response[api.GetBalancesResponse], error) {
	return c.getBalances.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetSettlementPlan(ctx context.Context, req *connect.Request[api.GetSettlementPlanRequest]) (*connect.Response[api.GetSettlementPlanResponse], error) {
	return c.getSettlementPlan.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetLedgerView(ctx context.Context, req *connect.Request[api.GetLedgerViewRequest]) (*connect.Response[api.GetLedgerViewResponse], error) {
	return c.getLedgerView.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) RecordSettlement(ctx context.Context, req *connect.Request[api.RecordSettlementRequest]) (*connect.Response[api.RecordSettlementResponse], error) {
	return c.recordSettlement.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ListSettlements(ctx context.Context, req *connect.Request[api.ListSettlementsRequest]) (*connect.Response[api.ListSettlementsResponse], error) {
	return c.listSettlements.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) DeleteSettlement(ctx context.Context, req *connect.Request[api.DeleteSettlementRequest]) (*connect.Response[api.DeleteSettlementResponse], error) {
	return c.deleteSettlement.CallUnary(ctx, req)
}
