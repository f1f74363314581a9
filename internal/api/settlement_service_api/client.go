package settlement_service_api

import (
	"context"

	"google.golang.org/grpc"
)

// Client calls SettlementService with the JSON codec.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) ResolvePayment(ctx context.Context, req *ResolvePaymentRequest, opts ...grpc.CallOption) (*ResolvePaymentResponse, error) {
	out := new(ResolvePaymentResponse)
	if err := c.invoke(ctx, "ResolvePayment", req, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetTransaction(ctx context.Context, req *GetTransactionRequest, opts ...grpc.CallOption) (*Transaction, error) {
	out := new(Transaction)
	if err := c.invoke(ctx, "GetTransaction", req, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) invoke(ctx context.Context, method string, req, out any, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, req, out, opts...)
}
