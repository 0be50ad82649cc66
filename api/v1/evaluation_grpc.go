package v1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "hfeval.v1.Evaluation"

const (
	Evaluation_GetReport_FullMethodName           = "/" + ServiceName + "/GetReport"
	Evaluation_GetMachineQuestions_FullMethodName = "/" + ServiceName + "/GetMachineQuestions"
	Evaluation_GetSeriesProgress_FullMethodName   = "/" + ServiceName + "/GetSeriesProgress"
	Evaluation_ReloadCatalogue_FullMethodName     = "/" + ServiceName + "/ReloadCatalogue"
	Evaluation_StartSession_FullMethodName        = "/" + ServiceName + "/StartSession"
	Evaluation_UpdateSession_FullMethodName       = "/" + ServiceName + "/UpdateSession"
	Evaluation_SubmitSession_FullMethodName       = "/" + ServiceName + "/SubmitSession"
	Evaluation_SubmitEvaluation_FullMethodName    = "/" + ServiceName + "/SubmitEvaluation"
)

// EvaluationServer is the server API for the Evaluation service.
// Every message travels as a google.protobuf.Struct holding its JSON form.
type EvaluationServer interface {
	GetReport(context.Context, *ReportRequest) (*ReportResponse, error)
	GetMachineQuestions(context.Context, *MachineQuestionsRequest) (*MachineQuestionsResponse, error)
	GetSeriesProgress(context.Context, *SeriesProgressRequest) (*SeriesProgressResponse, error)
	ReloadCatalogue(context.Context, *ReloadCatalogueRequest) (*ReloadCatalogueResponse, error)
	StartSession(context.Context, *StartSessionRequest) (*SessionResponse, error)
	UpdateSession(context.Context, *UpdateSessionRequest) (*SessionResponse, error)
	SubmitSession(context.Context, *SubmitSessionRequest) (*SubmitResponse, error)
	SubmitEvaluation(context.Context, *SubmitEvaluationRequest) (*SubmitResponse, error)
}

// UnimplementedEvaluationServer must be embedded to have forward compatible implementations.
type UnimplementedEvaluationServer struct{}

func (UnimplementedEvaluationServer) GetReport(context.Context, *ReportRequest) (*ReportResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetReport not implemented")
}
func (UnimplementedEvaluationServer) GetMachineQuestions(context.Context, *MachineQuestionsRequest) (*MachineQuestionsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetMachineQuestions not implemented")
}
func (UnimplementedEvaluationServer) GetSeriesProgress(context.Context, *SeriesProgressRequest) (*SeriesProgressResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetSeriesProgress not implemented")
}
func (UnimplementedEvaluationServer) ReloadCatalogue(context.Context, *ReloadCatalogueRequest) (*ReloadCatalogueResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ReloadCatalogue not implemented")
}
func (UnimplementedEvaluationServer) StartSession(context.Context, *StartSessionRequest) (*SessionResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method StartSession not implemented")
}
func (UnimplementedEvaluationServer) UpdateSession(context.Context, *UpdateSessionRequest) (*SessionResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateSession not implemented")
}
func (UnimplementedEvaluationServer) SubmitSession(context.Context, *SubmitSessionRequest) (*SubmitResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SubmitSession not implemented")
}
func (UnimplementedEvaluationServer) SubmitEvaluation(context.Context, *SubmitEvaluationRequest) (*SubmitResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SubmitEvaluation not implemented")
}

func RegisterEvaluationServer(s grpc.ServiceRegistrar, srv EvaluationServer) {
	s.RegisterService(&Evaluation_ServiceDesc, srv)
}

// unaryHandler decodes the Struct request into Req, calls the server and
// encodes the response. Interceptors see the wire Structs.
func unaryHandler[Req, Resp any](fullMethod string, call func(EvaluationServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		handler := func(ctx context.Context, req any) (any, error) {
			msg := new(Req)
			if err := Decode(req.(*structpb.Struct), msg); err != nil {
				return nil, status.Errorf(codes.InvalidArgument, "malformed request: %v", err)
			}
			resp, err := call(srv.(EvaluationServer), ctx, msg)
			if err != nil {
				return nil, err
			}
			out, err := Encode(resp)
			if err != nil {
				return nil, status.Errorf(codes.Internal, "encode response: %v", err)
			}
			return out, nil
		}
		if interceptor == nil {
			return handler(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, handler)
	}
}

// Evaluation_ServiceDesc is the grpc.ServiceDesc for the Evaluation service.
var Evaluation_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*EvaluationServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "GetReport",
			Handler:    unaryHandler(Evaluation_GetReport_FullMethodName, EvaluationServer.GetReport),
		},
		{
			MethodName: "GetMachineQuestions",
			Handler:    unaryHandler(Evaluation_GetMachineQuestions_FullMethodName, EvaluationServer.GetMachineQuestions),
		},
		{
			MethodName: "GetSeriesProgress",
			Handler:    unaryHandler(Evaluation_GetSeriesProgress_FullMethodName, EvaluationServer.GetSeriesProgress),
		},
		{
			MethodName: "ReloadCatalogue",
			Handler:    unaryHandler(Evaluation_ReloadCatalogue_FullMethodName, EvaluationServer.ReloadCatalogue),
		},
		{
			MethodName: "StartSession",
			Handler:    unaryHandler(Evaluation_StartSession_FullMethodName, EvaluationServer.StartSession),
		},
		{
			MethodName: "UpdateSession",
			Handler:    unaryHandler(Evaluation_UpdateSession_FullMethodName, EvaluationServer.UpdateSession),
		},
		{
			MethodName: "SubmitSession",
			Handler:    unaryHandler(Evaluation_SubmitSession_FullMethodName, EvaluationServer.SubmitSession),
		},
		{
			MethodName: "SubmitEvaluation",
			Handler:    unaryHandler(Evaluation_SubmitEvaluation_FullMethodName, EvaluationServer.SubmitEvaluation),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "",
}

// EvaluationClient is the client API for the Evaluation service.
type EvaluationClient struct {
	cc grpc.ClientConnInterface
}

func NewEvaluationClient(cc grpc.ClientConnInterface) *EvaluationClient {
	return &EvaluationClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, req any, opts ...grpc.CallOption) (*Resp, error) {
	in, err := Encode(req)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	resp := new(Resp)
	if err := Decode(out, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *EvaluationClient) GetReport(ctx context.Context, in *ReportRequest, opts ...grpc.CallOption) (*ReportResponse, error) {
	return invoke[ReportResponse](ctx, c.cc, Evaluation_GetReport_FullMethodName, in, opts...)
}

func (c *EvaluationClient) GetMachineQuestions(ctx context.Context, in *MachineQuestionsRequest, opts ...grpc.CallOption) (*MachineQuestionsResponse, error) {
	return invoke[MachineQuestionsResponse](ctx, c.cc, Evaluation_GetMachineQuestions_FullMethodName, in, opts...)
}

func (c *EvaluationClient) GetSeriesProgress(ctx context.Context, in *SeriesProgressRequest, opts ...grpc.CallOption) (*SeriesProgressResponse, error) {
	return invoke[SeriesProgressResponse](ctx, c.cc, Evaluation_GetSeriesProgress_FullMethodName, in, opts...)
}

func (c *EvaluationClient) ReloadCatalogue(ctx context.Context, in *ReloadCatalogueRequest, opts ...grpc.CallOption) (*ReloadCatalogueResponse, error) {
	return invoke[ReloadCatalogueResponse](ctx, c.cc, Evaluation_ReloadCatalogue_FullMethodName, in, opts...)
}

func (c *EvaluationClient) StartSession(ctx context.Context, in *StartSessionRequest, opts ...grpc.CallOption) (*SessionResponse, error) {
	return invoke[SessionResponse](ctx, c.cc, Evaluation_StartSession_FullMethodName, in, opts...)
}

func (c *EvaluationClient) UpdateSession(ctx context.Context, in *UpdateSessionRequest, opts ...grpc.CallOption) (*SessionResponse, error) {
	return invoke[SessionResponse](ctx, c.cc, Evaluation_UpdateSession_FullMethodName, in, opts...)
}

func (c *EvaluationClient) SubmitSession(ctx context.Context, in *SubmitSessionRequest, opts ...grpc.CallOption) (*SubmitResponse, error) {
	return invoke[SubmitResponse](ctx, c.cc, Evaluation_SubmitSession_FullMethodName, in, opts...)
}

func (c *EvaluationClient) SubmitEvaluation(ctx context.Context, in *SubmitEvaluationRequest, opts ...grpc.CallOption) (*SubmitResponse, error) {
	return invoke[SubmitResponse](ctx, c.cc, Evaluation_SubmitEvaluation_FullMethodName, in, opts...)
}
