package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/boardicon/boardicon-server/internal/domain"
)

func (s *Server) registerDefaultRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getDefaults",
		Method:      http.MethodGet,
		Path:        "/api/v1/defaults",
		Summary:     "Get default icons",
		Description: "Returns the global default icon of every slot; unset slots are empty",
		Tags:        []string{"Defaults"},
	}, s.handleGetDefaults)

	huma.Register(s.api, huma.Operation{
		OperationID: "setDefault",
		Method:      http.MethodPut,
		Path:        "/api/v1/defaults/{slot}",
		Summary:     "Set default icon",
		Description: "Sets the glyph of one default slot. An empty glyph clears it.",
		Tags:        []string{"Defaults"},
	}, s.handleSetDefault)
}

// DefaultEntry is one default slot.
type DefaultEntry struct {
	Slot  string `json:"slot" doc:"Slot name"`
	Glyph string `json:"glyph" doc:"Glyph name or uploaded icon reference, empty when unset"`
}

// DefaultsOutput wraps the default slots for Huma.
type DefaultsOutput struct {
	Body struct {
		Defaults []DefaultEntry `json:"defaults" doc:"Every slot in stylesheet order"`
	}
}

// SetDefaultRequest is the request body for setting a default slot.
type SetDefaultRequest struct {
	Glyph string `json:"glyph" validate:"glyph" doc:"Glyph name or uploaded icon reference"`
}

// SetDefaultInput wraps the set default request for Huma.
type SetDefaultInput struct {
	Slot string `path:"slot" enum:"board,new_board,external_link,archive,new_archive" doc:"Slot name"`
	Body SetDefaultRequest
}

// DefaultOutput wraps one slot for Huma.
type DefaultOutput struct {
	Body DefaultEntry
}

func (s *Server) handleGetDefaults(ctx context.Context, _ *struct{}) (*DefaultsOutput, error) {
	defaults, err := s.services.Boards.GetDefaults(ctx)
	if err != nil {
		return nil, err
	}

	out := &DefaultsOutput{}
	out.Body.Defaults = make([]DefaultEntry, len(domain.DefaultSlots))
	for i, slot := range domain.DefaultSlots {
		out.Body.Defaults[i] = DefaultEntry{Slot: string(slot), Glyph: defaults.Get(slot)}
	}
	return out, nil
}

func (s *Server) handleSetDefault(ctx context.Context, input *SetDefaultInput) (*DefaultOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	slot := domain.DefaultSlot(input.Slot)
	if err := s.services.Boards.SetGlobalDefault(ctx, slot, input.Body.Glyph); err != nil {
		return nil, err
	}

	defaults, err := s.services.Boards.GetDefaults(ctx)
	if err != nil {
		return nil, err
	}
	return &DefaultOutput{Body: DefaultEntry{Slot: input.Slot, Glyph: defaults.Get(slot)}}, nil
}
