package room

import (
	"context"
	"errors"
	"net/http"

	"connectrpc.com/connect"
	"github.com/google/uuid"
	"github.com/mcdev12/roomtimer/go/internal/genai"
	"github.com/mcdev12/roomtimer/go/internal/models"
	"github.com/mcdev12/roomtimer/go/internal/templates"
)

// ServiceName is the fully-qualified name of the room RPC service.
const ServiceName = "roomtimer.v1.RoomService"

// Procedure paths.
const (
	GetRoomProcedure          = "/" + ServiceName + "/GetRoom"
	NewRoomProcedure          = "/" + ServiceName + "/NewRoom"
	RenameRoomProcedure       = "/" + ServiceName + "/RenameRoom"
	ListSavedRoomsProcedure   = "/" + ServiceName + "/ListSavedRooms"
	LoadSavedRoomProcedure    = "/" + ServiceName + "/LoadSavedRoom"
	DeleteSavedRoomProcedure  = "/" + ServiceName + "/DeleteSavedRoom"
	ListTemplatesProcedure    = "/" + ServiceName + "/ListTemplates"
	LoadTemplateProcedure     = "/" + ServiceName + "/LoadTemplate"
	AddTimerProcedure         = "/" + ServiceName + "/AddTimer"
	EditTimerProcedure        = "/" + ServiceName + "/EditTimer"
	DeleteTimerProcedure      = "/" + ServiceName + "/DeleteTimer"
	SetNotificationsProcedure = "/" + ServiceName + "/SetNotifications"
	ReorderTimersProcedure    = "/" + ServiceName + "/ReorderTimers"
	ControlProcedure          = "/" + ServiceName + "/Control"
	GenerateRoomProcedure     = "/" + ServiceName + "/GenerateRoom"
	EditRoomWithAIProcedure   = "/" + ServiceName + "/EditRoomWithAI"
	GenerateTimerProcedure    = "/" + ServiceName + "/GenerateTimer"
	UndoProcedure             = "/" + ServiceName + "/Undo"
	KeepChangesProcedure      = "/" + ServiceName + "/KeepChanges"
)

// RoomApp defines what the service layer needs from the room manager
type RoomApp interface {
	State() State
	NewRoom(ctx context.Context, name string) (models.Room, error)
	RenameRoom(ctx context.Context, name string) (models.Room, error)
	ListSavedRooms(ctx context.Context) []models.RoomSummary
	LoadSavedRoom(ctx context.Context, id uuid.UUID) (models.Room, error)
	DeleteSavedRoom(ctx context.Context, id uuid.UUID) error
	Templates() []templates.Template
	LoadTemplate(key string) (models.Room, error)
	AddTimer(title, message string, seconds int, alerts []models.AlertRule) (models.Timer, error)
	EditTimer(id uuid.UUID, title, message string, seconds int, alerts []models.AlertRule) (models.Timer, error)
	DeleteTimer(id uuid.UUID) error
	SetNotifications(id uuid.UUID, enabled bool) error
	ReorderTimers(from, to int) bool
	Control(command string, timerID uuid.UUID) (bool, error)
	GenerateRoom(ctx context.Context, prompt string) (models.Room, error)
	EditRoomWithAI(ctx context.Context, prompt string) (models.Room, error)
	GenerateTimer(ctx context.Context, prompt string) (models.Timer, error)
	Undo() (models.Room, error)
	KeepChanges()
}

// Service implements the RoomService RPC interface
type Service struct {
	app RoomApp
}

// NewService creates a new room RPC service
func NewService(app RoomApp) *Service {
	return &Service{app: app}
}

var _ RoomApp = (*Manager)(nil)

// NewRoomServiceHandler builds an HTTP handler serving every procedure of
// svc. It returns the path prefix to mount the handler on.
func NewRoomServiceHandler(svc *Service, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)

	mux := http.NewServeMux()
	mux.Handle(GetRoomProcedure, connect.NewUnaryHandler(GetRoomProcedure, svc.GetRoom, opts...))
	mux.Handle(NewRoomProcedure, connect.NewUnaryHandler(NewRoomProcedure, svc.NewRoom, opts...))
	mux.Handle(RenameRoomProcedure, connect.NewUnaryHandler(RenameRoomProcedure, svc.RenameRoom, opts...))
	mux.Handle(ListSavedRoomsProcedure, connect.NewUnaryHandler(ListSavedRoomsProcedure, svc.ListSavedRooms, opts...))
	mux.Handle(LoadSavedRoomProcedure, connect.NewUnaryHandler(LoadSavedRoomProcedure, svc.LoadSavedRoom, opts...))
	mux.Handle(DeleteSavedRoomProcedure, connect.NewUnaryHandler(DeleteSavedRoomProcedure, svc.DeleteSavedRoom, opts...))
	mux.Handle(ListTemplatesProcedure, connect.NewUnaryHandler(ListTemplatesProcedure, svc.ListTemplates, opts...))
	mux.Handle(LoadTemplateProcedure, connect.NewUnaryHandler(LoadTemplateProcedure, svc.LoadTemplate, opts...))
	mux.Handle(AddTimerProcedure, connect.NewUnaryHandler(AddTimerProcedure, svc.AddTimer, opts...))
	mux.Handle(EditTimerProcedure, connect.NewUnaryHandler(EditTimerProcedure, svc.EditTimer, opts...))
	mux.Handle(DeleteTimerProcedure, connect.NewUnaryHandler(DeleteTimerProcedure, svc.DeleteTimer, opts...))
	mux.Handle(SetNotificationsProcedure, connect.NewUnaryHandler(SetNotificationsProcedure, svc.SetNotifications, opts...))
	mux.Handle(ReorderTimersProcedure, connect.NewUnaryHandler(ReorderTimersProcedure, svc.ReorderTimers, opts...))
	mux.Handle(ControlProcedure, connect.NewUnaryHandler(ControlProcedure, svc.Control, opts...))
	mux.Handle(GenerateRoomProcedure, connect.NewUnaryHandler(GenerateRoomProcedure, svc.GenerateRoom, opts...))
	mux.Handle(EditRoomWithAIProcedure, connect.NewUnaryHandler(EditRoomWithAIProcedure, svc.EditRoomWithAI, opts...))
	mux.Handle(GenerateTimerProcedure, connect.NewUnaryHandler(GenerateTimerProcedure, svc.GenerateTimer, opts...))
	mux.Handle(UndoProcedure, connect.NewUnaryHandler(UndoProcedure, svc.Undo, opts...))
	mux.Handle(KeepChangesProcedure, connect.NewUnaryHandler(KeepChangesProcedure, svc.KeepChanges, opts...))
	return "/" + ServiceName + "/", mux
}

// GetRoom returns the open room
func (s *Service) GetRoom(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[StateResponse], error) {
	return s.state(), nil
}

// NewRoom opens an empty room
func (s *Service) NewRoom(ctx context.Context, req *connect.Request[RoomNameRequest]) (*connect.Response[StateResponse], error) {
	if _, err := s.app.NewRoom(ctx, req.Msg.RoomName); err != nil {
		return nil, toConnectError(err)
	}
	return s.state(), nil
}

// RenameRoom renames the open room
func (s *Service) RenameRoom(ctx context.Context, req *connect.Request[RoomNameRequest]) (*connect.Response[StateResponse], error) {
	if _, err := s.app.RenameRoom(ctx, req.Msg.RoomName); err != nil {
		return nil, toConnectError(err)
	}
	return s.state(), nil
}

// ListSavedRooms lists saved rooms
func (s *Service) ListSavedRooms(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[ListSavedRoomsResponse], error) {
	return connect.NewResponse(&ListSavedRoomsResponse{Rooms: s.app.ListSavedRooms(ctx)}), nil
}

// LoadSavedRoom opens a saved room
func (s *Service) LoadSavedRoom(ctx context.Context, req *connect.Request[RoomIDRequest]) (*connect.Response[StateResponse], error) {
	id, err := parseID("roomId", req.Msg.RoomID)
	if err != nil {
		return nil, err
	}
	if _, err := s.app.LoadSavedRoom(ctx, id); err != nil {
		return nil, toConnectError(err)
	}
	return s.state(), nil
}

// DeleteSavedRoom removes a saved room
func (s *Service) DeleteSavedRoom(ctx context.Context, req *connect.Request[RoomIDRequest]) (*connect.Response[StateResponse], error) {
	id, err := parseID("roomId", req.Msg.RoomID)
	if err != nil {
		return nil, err
	}
	if err := s.app.DeleteSavedRoom(ctx, id); err != nil {
		return nil, toConnectError(err)
	}
	return s.state(), nil
}

// ListTemplates lists the template catalog
func (s *Service) ListTemplates(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[ListTemplatesResponse], error) {
	return connect.NewResponse(&ListTemplatesResponse{Templates: s.app.Templates()}), nil
}

// LoadTemplate replaces the open room with a template
func (s *Service) LoadTemplate(ctx context.Context, req *connect.Request[LoadTemplateRequest]) (*connect.Response[StateResponse], error) {
	if _, err := s.app.LoadTemplate(req.Msg.Key); err != nil {
		return nil, toConnectError(err)
	}
	return s.state(), nil
}

// AddTimer appends a timer
func (s *Service) AddTimer(ctx context.Context, req *connect.Request[TimerRequest]) (*connect.Response[TimerResponse], error) {
	m := req.Msg
	timer, err := s.app.AddTimer(m.Title, m.Message, m.TotalSeconds, m.Alerts)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&TimerResponse{Timer: timer, State: s.app.State()}), nil
}

// EditTimer replaces a timer's settings
func (s *Service) EditTimer(ctx context.Context, req *connect.Request[TimerRequest]) (*connect.Response[TimerResponse], error) {
	m := req.Msg
	id, err := parseID("timerId", m.TimerID)
	if err != nil {
		return nil, err
	}
	timer, err := s.app.EditTimer(id, m.Title, m.Message, m.TotalSeconds, m.Alerts)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&TimerResponse{Timer: timer, State: s.app.State()}), nil
}

// DeleteTimer removes a timer
func (s *Service) DeleteTimer(ctx context.Context, req *connect.Request[TimerIDRequest]) (*connect.Response[StateResponse], error) {
	id, err := parseID("timerId", req.Msg.TimerID)
	if err != nil {
		return nil, err
	}
	if err := s.app.DeleteTimer(id); err != nil {
		return nil, toConnectError(err)
	}
	return s.state(), nil
}

// SetNotifications toggles finish notifications for a timer
func (s *Service) SetNotifications(ctx context.Context, req *connect.Request[SetNotificationsRequest]) (*connect.Response[StateResponse], error) {
	id, err := parseID("timerId", req.Msg.TimerID)
	if err != nil {
		return nil, err
	}
	if err := s.app.SetNotifications(id, req.Msg.Enabled); err != nil {
		return nil, toConnectError(err)
	}
	return s.state(), nil
}

// ReorderTimers applies a drag-and-drop move
func (s *Service) ReorderTimers(ctx context.Context, req *connect.Request[ReorderRequest]) (*connect.Response[ControlResponse], error) {
	applied := s.app.ReorderTimers(req.Msg.FromIndex, req.Msg.ToIndex)
	return connect.NewResponse(&ControlResponse{Applied: applied, State: s.app.State()}), nil
}

// Control applies a playback command
func (s *Service) Control(ctx context.Context, req *connect.Request[ControlRequest]) (*connect.Response[ControlResponse], error) {
	var timerID uuid.UUID
	if req.Msg.TimerID != "" {
		id, err := parseID("timerId", req.Msg.TimerID)
		if err != nil {
			return nil, err
		}
		timerID = id
	}
	applied, err := s.app.Control(req.Msg.Command, timerID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ControlResponse{Applied: applied, State: s.app.State()}), nil
}

// GenerateRoom replaces the open room with a generated one
func (s *Service) GenerateRoom(ctx context.Context, req *connect.Request[PromptRequest]) (*connect.Response[StateResponse], error) {
	if _, err := s.app.GenerateRoom(ctx, req.Msg.Prompt); err != nil {
		return nil, toConnectError(err)
	}
	return s.state(), nil
}

// EditRoomWithAI rewrites the open room's timers from an instruction
func (s *Service) EditRoomWithAI(ctx context.Context, req *connect.Request[PromptRequest]) (*connect.Response[StateResponse], error) {
	if _, err := s.app.EditRoomWithAI(ctx, req.Msg.Prompt); err != nil {
		return nil, toConnectError(err)
	}
	return s.state(), nil
}

// GenerateTimer appends a generated timer
func (s *Service) GenerateTimer(ctx context.Context, req *connect.Request[PromptRequest]) (*connect.Response[TimerResponse], error) {
	timer, err := s.app.GenerateTimer(ctx, req.Msg.Prompt)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&TimerResponse{Timer: timer, State: s.app.State()}), nil
}

// Undo reverts the last AI replacement
func (s *Service) Undo(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[StateResponse], error) {
	if _, err := s.app.Undo(); err != nil {
		return nil, toConnectError(err)
	}
	return s.state(), nil
}

// KeepChanges accepts the last AI replacement
func (s *Service) KeepChanges(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[StateResponse], error) {
	s.app.KeepChanges()
	return s.state(), nil
}

func (s *Service) state() *connect.Response[StateResponse] {
	return connect.NewResponse(&StateResponse{State: s.app.State()})
}

func parseID(field, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, connect.NewError(connect.CodeInvalidArgument, invalid(field, "must be a UUID"))
	}
	return id, nil
}

// toConnectError maps manager errors to RPC status codes.
func toConnectError(err error) error {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, ErrUnknownCommand):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, ErrTimerNotFound), errors.Is(err, ErrRoomNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, ErrNothingToUndo), errors.Is(err, genai.ErrNotConfigured):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, ErrGeneration):
		return connect.NewError(connect.CodeUnavailable, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
