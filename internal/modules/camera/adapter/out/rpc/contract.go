package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-plugin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

const (
	PluginMapKey      = "camera"
	serviceName       = "siteaudit.camera.v1.CameraDriver"
	jsonCodecName     = "json"
	methodListDevices = "/" + serviceName + "/ListDevices"
	methodOpen        = "/" + serviceName + "/Open"
	methodReadFrame   = "/" + serviceName + "/ReadFrame"
	methodClose       = "/" + serviceName + "/Close"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "SITEAUDIT_CAMERA_DRIVER",
	MagicCookieValue: "siteaudit",
}

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string {
	return jsonCodecName
}

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

type Empty struct{}

type Device struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Facing string `json:"facing"`
}

type ListDevicesResponse struct {
	Devices []Device `json:"devices"`
}

type OpenRequest struct {
	DeviceID string `json:"device_id"`
	Facing   string `json:"facing"`
	Width    int32  `json:"width"`
	Height   int32  `json:"height"`
}

// OpenResponse carries either a stream or a classified failure. ErrorKind
// uses the same vocabulary as the host's camera error kinds.
type OpenResponse struct {
	StreamID  string `json:"stream_id"`
	DeviceID  string `json:"device_id"`
	ErrorKind string `json:"error_kind"`
	Message   string `json:"message"`
}

type FrameRequest struct {
	StreamID string `json:"stream_id"`
}

type FrameResponse struct {
	Width     int32  `json:"width"`
	Height    int32  `json:"height"`
	PNG       []byte `json:"png"`
	Ended     bool   `json:"ended"`
	ErrorKind string `json:"error_kind"`
	Message   string `json:"message"`
}

type CloseRequest struct {
	StreamID string `json:"stream_id"`
}

type CameraDriverServer interface {
	ListDevices(ctx context.Context, in *Empty) (*ListDevicesResponse, error)
	Open(ctx context.Context, in *OpenRequest) (*OpenResponse, error)
	ReadFrame(ctx context.Context, in *FrameRequest) (*FrameResponse, error)
	Close(ctx context.Context, in *CloseRequest) (*Empty, error)
}

type CameraDriverClient interface {
	ListDevices(ctx context.Context) (*ListDevicesResponse, error)
	Open(ctx context.Context, in *OpenRequest) (*OpenResponse, error)
	ReadFrame(ctx context.Context, in *FrameRequest) (*FrameResponse, error)
	Close(ctx context.Context, in *CloseRequest) error
}

type cameraDriverClient struct {
	conn *grpc.ClientConn
}

func NewCameraDriverClient(conn *grpc.ClientConn) CameraDriverClient {
	return &cameraDriverClient{conn: conn}
}

func (c *cameraDriverClient) ListDevices(ctx context.Context) (*ListDevicesResponse, error) {
	out := &ListDevicesResponse{}
	if err := c.conn.Invoke(ctx, methodListDevices, &Empty{}, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *cameraDriverClient) Open(ctx context.Context, in *OpenRequest) (*OpenResponse, error) {
	out := &OpenResponse{}
	if err := c.conn.Invoke(ctx, methodOpen, in, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *cameraDriverClient) ReadFrame(ctx context.Context, in *FrameRequest) (*FrameResponse, error) {
	out := &FrameResponse{}
	if err := c.conn.Invoke(ctx, methodReadFrame, in, out, grpc.CallContentSubtype(jsonCodecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *cameraDriverClient) Close(ctx context.Context, in *CloseRequest) error {
	return c.conn.Invoke(ctx, methodClose, in, &Empty{}, grpc.CallContentSubtype(jsonCodecName))
}

// unary adapts a typed driver method to the grpc handler signature.
func unary[Req any, Resp any](fullMethod string, call func(context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(*Req)
			if !ok {
				return nil, fmt.Errorf("invalid request type")
			}
			return call(ctx, typed)
		}
		return interceptor(ctx, in, info, handler)
	}
}

func RegisterCameraDriverServer(server grpc.ServiceRegistrar, impl CameraDriverServer) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: serviceName,
		HandlerType: (*CameraDriverServer)(nil),
		Methods: []grpc.MethodDesc{
			{MethodName: "ListDevices", Handler: unary(methodListDevices, impl.ListDevices)},
			{MethodName: "Open", Handler: unary(methodOpen, impl.Open)},
			{MethodName: "ReadFrame", Handler: unary(methodReadFrame, impl.ReadFrame)},
			{MethodName: "Close", Handler: unary(methodClose, impl.Close)},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "camera-driver-v1",
	}, impl)
}

type GRPCPlugin struct {
	plugin.NetRPCUnsupportedPlugin
	Impl CameraDriverServer
}

func (p *GRPCPlugin) GRPCServer(_ *plugin.GRPCBroker, server *grpc.Server) error {
	RegisterCameraDriverServer(server, p.Impl)
	return nil
}

func (p *GRPCPlugin) GRPCClient(_ context.Context, _ *plugin.GRPCBroker, conn *grpc.ClientConn) (any, error) {
	return NewCameraDriverClient(conn), nil
}

func PluginMap(impl CameraDriverServer) map[string]plugin.Plugin {
	return map[string]plugin.Plugin{
		PluginMapKey: &GRPCPlugin{Impl: impl},
	}
}

// Serve runs impl as a driver process. It blocks until the host disconnects.
func Serve(impl CameraDriverServer) {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: HandshakeConfig,
		Plugins:         PluginMap(impl),
		GRPCServer:      plugin.DefaultGRPCServer,
	})
}
