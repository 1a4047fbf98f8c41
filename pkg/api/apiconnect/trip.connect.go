package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/tripledger/pkg/api"
)

// TripServiceName is the fully-qualified name of the TripService.
const TripServiceName = "tripledger.v1.TripService"

// Procedure paths of the TripService.
const (
	TripServiceCreateTripProcedure = "/" + TripServiceName + "/CreateTrip"
	TripServiceGetTripProcedure    = "/" + TripServiceName + "/GetTrip"
	TripServiceListTripsProcedure  = "/" + TripServiceName + "/ListTrips"
	TripServiceUpdateTripProcedure = "/" + TripServiceName + "/UpdateTrip"
	TripServiceAddMembersProcedure = "/" + TripServiceName + "/AddMembers"
	TripServiceDeleteTripProcedure = "/" + TripServiceName + "/DeleteTrip"
)

// TripServiceHandler is implemented by the server side of the TripService.
// TripService manages trips and their rosters.
type TripServiceHandler interface {
	CreateTrip(context.Context, *connect.Request[api.CreateTripRequest]) (*connect.Response[api.CreateTripResponse], error)
	GetTrip(context.Context, *connect.Request[api.GetTripRequest]) (*connect.Response[api.GetTripResponse], error)
	ListTrips(context.Context, *connect.Request[api.ListTripsRequest]) (*connect.Response[api.ListTripsResponse], error)
	UpdateTrip(context.Context, *connect.Request[api.UpdateTripRequest]) (*connect.Response[api.UpdateTripResponse], error)
	AddMembers(context.Context, *connect.Request[api.AddMembersRequest]) (*connect.Response[api.AddMembersResponse], error)
	DeleteTrip(context.Context, *connect.Request[api.DeleteTripRequest]) (*connect.Response[api.DeleteTripResponse], error)
}

// NewTripServiceHandler builds an HTTP handler serving every TripService procedure.
// It returns the path to mount the handler on.
func NewTripServiceHandler(svc TripServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	createTripHandler := connect.NewUnaryHandler(TripServiceCreateTripProcedure, svc.CreateTrip, opts...)
	getTripHandler := connect.NewUnaryHandler(TripServiceGetTripProcedure, svc.GetTrip, opts...)
	listTripsHandler := connect.NewUnaryHandler(TripServiceListTripsProcedure, svc.ListTrips, opts...)
	updateTripHandler := connect.NewUnaryHandler(TripServiceUpdateTripProcedure, svc.UpdateTrip, opts...)
	addMembersHandler := connect.NewUnaryHandler(TripServiceAddMembersProcedure, svc.AddMembers, opts...)
	deleteTripHandler := connect.NewUnaryHandler(TripServiceDeleteTripProcedure, svc.DeleteTrip, opts...)
	return "/" + TripServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case TripServiceCreateTripProcedure:
			createTripHandler.ServeHTTP(w, r)
		case TripServiceGetTripProcedure:
			getTripHandler.ServeHTTP(w, r)
		case TripServiceListTripsProcedure:
			listTripsHandler.ServeHTTP(w, r)
		case TripServiceUpdateTripProcedure:
			updateTripHandler.ServeHTTP(w, r)
		case TripServiceAddMembersProcedure:
			addMembersHandler.ServeHTTP(w, r)
		case TripServiceDeleteTripProcedure:
			deleteTripHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// TripServiceClient is a client for the TripService.
type TripServiceClient interface {
	CreateTrip(context.Context, *connect.Request[api.CreateTripRequest]) (*connect.Response[api.CreateTripResponse], error)
	GetTrip(context.Context, *connect.Request[api.GetTripRequest]) (*connect.Response[api.GetTripResponse], error)
	ListTrips(context.Context, *connect.Request[api.ListTripsRequest]) (*connect.Response[api.ListTripsResponse], error)
	UpdateTrip(context.Context, *connect.Request[api.UpdateTripRequest]) (*connect.Response[api.UpdateTripResponse], error)
	AddMembers(context.Context, *connect.Request[api.AddMembersRequest]) (*connect.Response[api.AddMembersResponse], error)
	DeleteTrip(context.Context, *connect.Request[api.DeleteTripRequest]) (*connect.Response[api.DeleteTripResponse], error)
}

// NewTripServiceClient constructs a client for the TripService at baseURL
// (for example, http://localhost:8080).
func NewTripServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) TripServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &tripServiceClient{
		createTrip: connect.NewClient[api.CreateTripRequest, api.CreateTripResponse](httpClient, baseURL+TripServiceCreateTripProcedure, opts...),
		getTrip:    connect.NewClient[api.GetTripRequest, api.GetTripResponse](httpClient, baseURL+TripServiceGetTripProcedure, opts...),
		listTrips:  connect.NewClient[api.ListTripsRequest, api.ListTripsResponse](httpClient, baseURL+TripServiceListTripsProcedure, opts...),
		updateTrip: connect.NewClient[api.UpdateTripRequest, api.UpdateTripResponse](httpClient, baseURL+TripServiceUpdateTripProcedure, opts...),
		addMembers: connect.NewClient[api.AddMembersRequest, api.AddMembersResponse](httpClient, baseURL+TripServiceAddMembersProcedure, opts...),
		deleteTrip: connect.NewClient[api.DeleteTripRequest, api.DeleteTripResponse](httpClient, baseURL+TripServiceDeleteTripProcedure, opts...),
	}
}

type tripServiceClient struct {
	createTrip *connect.Client[api.CreateTripRequest, api.CreateTripResponse]
	getTrip    *connect.Client[api.GetTripRequest, api.GetTripResponse]
	listTrips  *connect.Client[api.ListTripsRequest, api.ListTripsResponse]
	updateTrip *connect.Client[api.UpdateTripRequest, api.UpdateTripResponse]
	addMembers *connect.Client[api.AddMembersRequest, api.AddMembersResponse]
	deleteTrip *connect.Client[api.DeleteTripRequest, api.DeleteTripResponse]
}

func (c *tripServiceClient) CreateTrip(ctx context.Context, req *connect.Request[api.CreateTripRequest]) (*connect.Response[api.CreateTripResponse], error) {
	return c.createTrip.CallUnary(ctx, req)
}

func (c *tripServiceClient) GetTrip(ctx context.Context, req *connect.Request[api.GetTripRequest]) (*connect.Response[api.GetTripResponse], error) {
	return c.getTrip.CallUnary(ctx, req)
}

func (c *tripServiceClient) ListTrips(ctx context.Context, req *connect.Request[api.ListTripsRequest]) (*connect.Response[api.ListTripsResponse], error) {
	return c.listTrips.CallUnary(ctx, req)
}

func (c *tripServiceClient) UpdateTrip(ctx context.Context, req *connect.Request[api.UpdateTripRequest]) (*connect.Response[api.UpdateTripResponse], error) {
	return c.updateTrip.CallUnary(ctx, req)
}

func (c *tripServiceClient) AddMembers(ctx context.Context, req *connect.Request[api.AddMembersRequest]) (*connect.Response[api.AddMembersResponse], error) {
	return c.addMembers.CallUnary(ctx, req)
}

func (c *tripServiceClient) DeleteTrip(ctx context.Context, req *connect.Request[api.DeleteTripRequest]) (*connect.Response[api.DeleteTripResponse], error) {
	return c.deleteTrip.CallUnary(ctx, req)
}
