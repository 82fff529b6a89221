// Package rpc exposes the controller as the gRPC service burst.v1.Control.
// Messages are the well-known emptypb.Empty and structpb.Struct types, so
// no generated code is needed.
package rpc

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtding233/burst-helper/internal/burst"
	"github.com/xtding233/burst-helper/internal/gate"
	"github.com/xtding233/burst-helper/internal/host"
	"github.com/xtding233/burst-helper/internal/settings"
)

const ServiceName = "burst.v1.Control"

// Controller is what the service drives.
type Controller interface {
	Pause()
	Resume()
	TogglePause() gate.State
	Step() error
	Burst(ctx context.Context) (burst.Result, error)
	Apply(key, value string) error
	Settings() settings.Config
	Paused() bool
	Bursting() bool
	Stats() gate.Stats
	Units() []host.Unit
}

// ControlServer is the server side of burst.v1.Control.
type ControlServer interface {
	Pause(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Resume(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Toggle(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Step(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	Burst(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetSettings(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	UpdateSettings(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Status(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// Register installs the service for c on s.
func Register(s grpc.ServiceRegistrar, c Controller) {
	s.RegisterService(&ServiceDesc, &server{c: c})
}

type server struct {
	c Controller
}

func (s *server) Pause(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	s.c.Pause()
	return s.status()
}

func (s *server) Resume(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	s.c.Resume()
	return s.status()
}

func (s *server) Toggle(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	s.c.TogglePause()
	return s.status()
}

func (s *server) Step(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	if err := s.c.Step(); err != nil {
		return nil, status.Errorf(codes.Internal, "step: %v", err)
	}
	return s.status()
}

func (s *server) Burst(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	res, err := s.c.Burst(ctx)
	switch {
	case errors.Is(err, burst.ErrInFlight):
		return nil, status.Error(codes.FailedPrecondition, err.Error())
	case err != nil:
		return nil, status.Errorf(codes.Internal, "burst: %v", err)
	}
	return resultStruct(res)
}

func (s *server) GetSettings(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return settingsStruct(s.c.Settings())
}

// UpdateSettings applies every field of the request. A nested
// "selected" object toggles units. The first failure stops the update;
// fields before it stay applied.
func (s *server) UpdateSettings(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	changes, err := flatten(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	for _, ch := range changes {
		if err := s.c.Apply(ch.key, ch.value); err != nil {
			switch {
			case errors.Is(err, settings.ErrUnknownKey), errors.Is(err, settings.ErrInvalidUnit):
				return nil, status.Error(codes.InvalidArgument, err.Error())
			case errors.Is(err, settings.ErrNotSaved):
				return nil, status.Error(codes.Unavailable, err.Error())
			default:
				return nil, status.Error(codes.Internal, err.Error())
			}
		}
	}
	return settingsStruct(s.c.Settings())
}

func (s *server) Status(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return s.status()
}

func (s *server) status() (*structpb.Struct, error) {
	st := s.c.Stats()
	units := make(map[string]interface{})
	for _, u := range s.c.Units() {
		units[u.Name()] = float64(u.Amount())
	}
	out, err := structpb.NewStruct(map[string]interface{}{
		"paused":    s.c.Paused(),
		"bursting":  s.c.Bursting(),
		"forwarded": float64(st.Forwarded),
		"swallowed": float64(st.Swallowed),
		"stepped":   float64(st.Stepped),
		"units":     units,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode status: %v", err)
	}
	return out, nil
}

func unaryHandler[Req any](call func(ControlServer, context.Context, *Req) (*structpb.Struct, error), method string) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ControlServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + method}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(ControlServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc describes burst.v1.Control for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ControlServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Pause", Handler: unaryHandler(ControlServer.Pause, "Pause")},
		{MethodName: "Resume", Handler: unaryHandler(ControlServer.Resume, "Resume")},
		{MethodName: "Toggle", Handler: unaryHandler(ControlServer.Toggle, "Toggle")},
		{MethodName: "Step", Handler: unaryHandler(ControlServer.Step, "Step")},
		{MethodName: "Burst", Handler: unaryHandler(ControlServer.Burst, "Burst")},
		{MethodName: "GetSettings", Handler: unaryHandler(ControlServer.GetSettings, "GetSettings")},
		{MethodName: "UpdateSettings", Handler: unaryHandler(ControlServer.UpdateSettings, "UpdateSettings")},
		{MethodName: "Status", Handler: unaryHandler(ControlServer.Status, "Status")},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "burst/v1/control.proto",
}
