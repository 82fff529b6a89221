package rpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls burst.v1.Control.
type Client struct {
	cc   grpc.ClientConnInterface
	conn *grpc.ClientConn
}

// Dial connects to addr without transport security. The daemon only
// listens on loopback by default.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return &Client{cc: conn, conn: conn}, nil
}

// NewClient wraps an existing connection.
func NewClient(cc grpc.ClientConnInterface) *Client { return &Client{cc: cc} }

// Close closes the connection opened by Dial.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) call(ctx context.Context, method string, in interface{}) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Pause(ctx context.Context) (*structpb.Struct, error) {
	return c.call(ctx, "Pause", &emptypb.Empty{})
}

func (c *Client) Resume(ctx context.Context) (*structpb.Struct, error) {
	return c.call(ctx, "Resume", &emptypb.Empty{})
}

func (c *Client) Toggle(ctx context.Context) (*structpb.Struct, error) {
	return c.call(ctx, "Toggle", &emptypb.Empty{})
}

func (c *Client) Step(ctx context.Context) (*structpb.Struct, error) {
	return c.call(ctx, "Step", &emptypb.Empty{})
}

func (c *Client) Burst(ctx context.Context) (*structpb.Struct, error) {
	return c.call(ctx, "Burst", &emptypb.Empty{})
}

func (c *Client) GetSettings(ctx context.Context) (*structpb.Struct, error) {
	return c.call(ctx, "GetSettings", &emptypb.Empty{})
}

// UpdateSettings sends fields as a settings patch, e.g.
// {"sellCount": 5, "selected": {"Farm": true}}.
func (c *Client) UpdateSettings(ctx context.Context, fields map[string]interface{}) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encode update: %w", err)
	}
	return c.call(ctx, "UpdateSettings", req)
}

func (c *Client) Status(ctx context.Context) (*structpb.Struct, error) {
	return c.call(ctx, "Status", &emptypb.Empty{})
}
