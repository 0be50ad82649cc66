package grpc

import (
	"context"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pb "github.com/intenza/hfeval/api/v1"
	"github.com/intenza/hfeval/internal/repository/models"
	"github.com/intenza/hfeval/internal/service"
	"github.com/intenza/hfeval/internal/session"
)

func (s *GRPCHandlers) StartSession(ctx context.Context, req *pb.StartSessionRequest) (*pb.SessionResponse, error) {
	if strings.TrimSpace(req.Tester) == "" {
		return nil, status.Error(codes.InvalidArgument, "tester is required")
	}
	mode, err := session.ParseFillMode(req.Mode)
	if err != nil {
		return nil, s.handleError(ctx, "StartSession", err)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	catalogue, err := s.catalogue(ctx)
	if err != nil {
		return nil, s.handleError(ctx, "StartSession", err)
	}
	if len(catalogue.MachinesInSeries(req.Series)) == 0 {
		return nil, status.Errorf(codes.NotFound, "series %q has no machines", req.Series)
	}

	st, err := s.sessions.Start(ctx, req.Tester, req.Series, mode)
	if err != nil {
		return nil, s.handleError(ctx, "StartSession", err)
	}
	return sessionResponse(st, catalogue), nil
}

// UpdateSession applies a partial form update: machine choice, item answers,
// section notes and score, in that order.
func (s *GRPCHandlers) UpdateSession(ctx context.Context, req *pb.UpdateSessionRequest) (*pb.SessionResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	st, catalogue, err := s.loadSession(ctx, req.SessionID)
	if err != nil {
		return nil, s.handleError(ctx, "UpdateSession", err)
	}
	machines := catalogue.MachinesInSeries(st.Series)

	if req.Machine != "" {
		if err := st.Choose(req.Machine, machines); err != nil {
			return nil, s.handleError(ctx, "UpdateSession", err)
		}
	}
	for _, a := range req.Answers {
		if a.Result != "" {
			st.Select(a.Section, a.Item, models.ParseResult(a.Result))
		}
		if a.Note != nil {
			st.SetNote(a.Section, a.Item, *a.Note)
		}
	}
	for section, note := range req.SectionNotes {
		st.SetSectionNote(section, note)
	}
	if req.ClearScore {
		_ = st.SetScore(nil)
	} else if req.Score != nil {
		if err := st.SetScore(req.Score); err != nil {
			return nil, s.handleError(ctx, "UpdateSession", err)
		}
	}

	if err := s.sessions.Save(ctx, st); err != nil {
		return nil, s.handleError(ctx, "UpdateSession", err)
	}
	return sessionResponse(st, catalogue), nil
}

// SubmitSession stores the form of the current machine and moves on to the next one.
func (s *GRPCHandlers) SubmitSession(ctx context.Context, req *pb.SubmitSessionRequest) (*pb.SubmitResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultGRPCTimeout)
	defer cancel()

	st, catalogue, err := s.loadSession(ctx, req.SessionID)
	if err != nil {
		return nil, s.handleError(ctx, "SubmitSession", err)
	}
	machines := catalogue.MachinesInSeries(st.Series)

	sub, err := st.ToSubmission(machines)
	if err != nil {
		return nil, s.handleError(ctx, "SubmitSession", err)
	}
	rows, err := s.submit(ctx, sub)
	if err != nil {
		return nil, s.handleError(ctx, "SubmitSession", err)
	}

	st.Advance(machines)
	if err := s.sessions.Save(ctx, st); err != nil {
		return nil, s.handleError(ctx, "SubmitSession", err)
	}

	view := mapToProtoSession(st, machines)
	return &pb.SubmitResponse{Rows: rows, Session: &view}, nil
}

func (s *GRPCHandlers) loadSession(ctx context.Context, id string) (*session.State, service.Catalogue, error) {
	st, err := s.sessions.Load(ctx, id)
	if err != nil {
		return nil, service.Catalogue{}, err
	}
	catalogue, err := s.catalogue(ctx)
	if err != nil {
		return nil, service.Catalogue{}, err
	}
	return st, catalogue, nil
}

func sessionResponse(st *session.State, catalogue service.Catalogue) *pb.SessionResponse {
	machines := catalogue.MachinesInSeries(st.Series)
	resp := &pb.SessionResponse{Session: mapToProtoSession(st, machines)}
	if machine := st.CurrentMachine(machines); machine != "" {
		resp.Sections = mapToProtoSections(service.QuestionsForMachine(catalogue.Questions, machine))
	}
	return resp
}

func mapToProtoSession(st *session.State, machines []string) pb.Session {
	out := pb.Session{
		ID:           st.ID,
		Tester:       st.Tester,
		Series:       st.Series,
		Mode:         string(st.Mode),
		Machine:      st.CurrentMachine(machines),
		SectionNotes: st.SectionNotes,
		Score:        st.Score,
		Submitted:    st.Submitted,
		Done:         st.Done(machines),
	}
	for _, a := range st.Answers {
		note := a.Note
		out.Answers = append(out.Answers, pb.Answer{
			Section: a.Section,
			Item:    a.Item,
			Result:  string(a.Result),
			Note:    &note,
		})
	}
	return out
}
