// Package grpcserver implements the intake.v1.IntakeService gRPC server.
//
// It delegates all business logic to wizard.Service and handles only the
// gRPC transport concerns: metadata extraction, error mapping, and
// conversion between the domain types and google.protobuf.Struct messages.
package grpcserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"jobmate/intake-service/internal/intake"
	"jobmate/intake-service/internal/wizard"
)

// SessionHeader is the metadata key carrying the session id.
const SessionHeader = "x-session-id"

// Server implements IntakeServer.
type Server struct {
	svc *wizard.Service
}

var _ IntakeServer = (*Server)(nil)

// NewServer constructs a gRPC Server backed by the given wizard.Service.
func NewServer(svc *wizard.Service) *Server {
	return &Server{svc: svc}
}

// ─── RPC implementations ──────────────────────────────────────────────────────

// StartSession opens a session. The response is the session view; its "id"
// must be sent as x-session-id on every later call.
func (s *Server) StartSession(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return toStruct(s.svc.Start(ctx))
}

// GetSession returns the current view of the session.
func (s *Server) GetSession(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	id, err := sessionIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	v, err := s.svc.Get(ctx, id)
	if err != nil {
		return nil, toGRPCError(err)
	}
	return toStruct(v)
}

// Draft recomputes the derived fields of the draft in req.
// Response: {"draft": {...}, "hints": {...}}.
func (s *Server) Draft(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, draft, err := s.draftFromRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	out, hints, err := s.svc.Draft(ctx, id, draft)
	if err != nil {
		return nil, toGRPCError(err)
	}
	return toStruct(map[string]any{"draft": out, "hints": hints})
}

// Advance validates the draft in req against the active step.
// Response: {"session": {...}, "errors": {...}}; errors is absent on success.
func (s *Server) Advance(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, draft, err := s.draftFromRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	v, fe, err := s.svc.Advance(ctx, id, draft)
	if err != nil {
		return nil, toGRPCError(err)
	}
	return outcome(v, fe)
}

// Retreat moves the session one step back.
func (s *Server) Retreat(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	id, err := sessionIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	v, err := s.svc.Retreat(ctx, id)
	if err != nil {
		return nil, toGRPCError(err)
	}
	return toStruct(v)
}

// Review returns the summary of a complete intake.
func (s *Server) Review(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	id, err := sessionIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	sum, err := s.svc.Review(ctx, id)
	if err != nil {
		return nil, toGRPCError(err)
	}
	return toStruct(sum)
}

// Submit finalises the intake. Request: {"confirm": true}.
func (s *Server) Submit(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := sessionIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	confirmed := req.GetFields()["confirm"].GetBoolValue()
	v, fe, err := s.svc.Submit(ctx, id, confirmed)
	if err != nil {
		return nil, toGRPCError(err)
	}
	return outcome(v, fe)
}

// EndSession discards the session.
func (s *Server) EndSession(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	id, err := sessionIDFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.svc.End(ctx, id); err != nil {
		return nil, toGRPCError(err)
	}
	return &structpb.Struct{}, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// sessionIDFromCtx extracts the x-session-id value from the gRPC metadata.
func sessionIDFromCtx(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", status.Error(codes.InvalidArgument, "missing metadata")
	}
	vals := md.Get(SessionHeader)
	if len(vals) == 0 || vals[0] == "" {
		return "", status.Error(codes.InvalidArgument, "missing x-session-id metadata")
	}
	return vals[0], nil
}

// draftFromRequest decodes req as the draft type of the session's active step.
func (s *Server) draftFromRequest(ctx context.Context, req *structpb.Struct) (string, intake.StepData, error) {
	id, err := sessionIDFromCtx(ctx)
	if err != nil {
		return "", nil, err
	}
	v, err := s.svc.Get(ctx, id)
	if err != nil {
		return "", nil, toGRPCError(err)
	}
	if v.Step.IsTerminal() {
		return "", nil, toGRPCError(intake.ErrSubmitted)
	}
	raw, err := protojson.Marshal(req)
	if err != nil {
		return "", nil, status.Error(codes.InvalidArgument, err.Error())
	}
	draft, err := wizard.DecodeJSON(v.Step, raw)
	if err != nil {
		return "", nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return id, draft, nil
}

func outcome(v wizard.View, fe intake.FieldErrors) (*structpb.Struct, error) {
	body := map[string]any{"session": v}
	if fe != nil {
		body["errors"] = fe
	}
	return toStruct(body)
}

// toStruct converts v through its JSON form.
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		slog.Error("encode response", "err", err)
		return nil, status.Error(codes.Internal, "internal server error")
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		slog.Error("encode response", "err", err)
		return nil, status.Error(codes.Internal, "internal server error")
	}
	return out, nil
}

// toGRPCError maps domain errors to gRPC status errors.
func toGRPCError(err error) error {
	switch {
	case errors.Is(err, wizard.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, intake.ErrSubmitted),
		errors.Is(err, intake.ErrStepMismatch),
		errors.Is(err, intake.ErrNotAtReview),
		errors.Is(err, intake.ErrIncomplete):
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	slog.Error("unexpected service error", "err", err)
	return status.Error(codes.Internal, "internal server error")
}
