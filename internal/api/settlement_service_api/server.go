// Package settlement_service_api exposes the settlement RPCs that payment gateways
// call server to server. Messages are JSON encoded, not protobuf: clients must send
// the content-subtype "json" (application/grpc+json), as Client does.
package settlement_service_api

import (
	"context"

	"github.com/Domenick1991/ridebooking/internal/domain"
	"github.com/Domenick1991/ridebooking/internal/service/settlement"
	"google.golang.org/grpc"
)

const ServiceName = "ridebooking.settlement.v1.SettlementService"

// SettlementServiceServer is the server API for the gateway callback service.
type SettlementServiceServer interface {
	ResolvePayment(ctx context.Context, req *ResolvePaymentRequest) (*ResolvePaymentResponse, error)
	GetTransaction(ctx context.Context, req *GetTransactionRequest) (*Transaction, error)
}

// Server lets payment gateways report outcomes server to server.
type Server struct {
	settlement settlement.SettlementUseCase
}

func NewServer(settlement settlement.SettlementUseCase) *Server {
	return &Server{settlement: settlement}
}

func (s *Server) ResolvePayment(ctx context.Context, req *ResolvePaymentRequest) (*ResolvePaymentResponse, error) {
	if req.TransactionID <= 0 {
		return nil, domain.InvalidInput("transaction_id is required")
	}
	result, err := s.settlement.ResolvePayment(ctx, req.TransactionID, domain.PaymentOutcome(req.Status))
	if err != nil {
		return nil, err
	}
	return &ResolvePaymentResponse{Success: result.Success, BookingID: result.BookingID}, nil
}

func (s *Server) GetTransaction(ctx context.Context, req *GetTransactionRequest) (*Transaction, error) {
	tx, err := s.settlement.GetTransaction(ctx, req.TransactionID)
	if err != nil {
		return nil, err
	}
	return toMessage(tx), nil
}

var _ SettlementServiceServer = (*Server)(nil)

func RegisterSettlementServiceServer(s grpc.ServiceRegistrar, srv SettlementServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SettlementServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ResolvePayment", Handler: resolvePaymentHandler},
		{MethodName: "GetTransaction", Handler: getTransactionHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "settlement.proto",
}

func resolvePaymentHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ResolvePaymentRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SettlementServiceServer).ResolvePayment(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/ResolvePayment"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SettlementServiceServer).ResolvePayment(ctx, req.(*ResolvePaymentRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getTransactionHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetTransactionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(SettlementServiceServer).GetTransaction(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/GetTransaction"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(SettlementServiceServer).GetTransaction(ctx, req.(*GetTransactionRequest))
	}
	return interceptor(ctx, in, info, handler)
}
