package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/boardicon/boardicon-server/internal/domain"
	"github.com/boardicon/boardicon-server/internal/service"
)

func (s *Server) registerBoardRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBoards",
		Method:      http.MethodGet,
		Path:        "/api/v1/boards",
		Summary:     "List boards",
		Description: "Returns the board tree depth-first, siblings by position",
		Tags:        []string{"Boards"},
	}, s.handleListBoards)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createBoard",
		Method:        http.MethodPost,
		Path:          "/api/v1/boards",
		Summary:       "Create board",
		Description:   "Creates a board, category or link",
		Tags:          []string{"Boards"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateBoard)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBoard",
		Method:      http.MethodGet,
		Path:        "/api/v1/boards/{id}",
		Summary:     "Get board",
		Description: "Returns a board with its icon configuration",
		Tags:        []string{"Boards"},
	}, s.handleGetBoard)

	huma.Register(s.api, huma.Operation{
		OperationID: "saveBoard",
		Method:      http.MethodPut,
		Path:        "/api/v1/boards/{id}",
		Summary:     "Save board",
		Description: "Creates or replaces the board with this ID",
		Tags:        []string{"Boards"},
	}, s.handleSaveBoard)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteBoard",
		Method:      http.MethodDelete,
		Path:        "/api/v1/boards/{id}",
		Summary:     "Delete board",
		Description: "Deletes a board; its children move up to its parent",
		Tags:        []string{"Boards"},
	}, s.handleDeleteBoard)

	huma.Register(s.api, huma.Operation{
		OperationID: "setBoardIcons",
		Method:      http.MethodPut,
		Path:        "/api/v1/boards/{id}/icons",
		Summary:     "Set board icons",
		Description: "Sets the normal and new-content icon of a board. A color is kept only when its use flag is set.",
		Tags:        []string{"Boards"},
	}, s.handleSetBoardIcons)
}

// === DTOs ===

// AssignmentBody is one icon of a board.
type AssignmentBody struct {
	Glyph string `json:"glyph,omitempty" validate:"glyph" doc:"Library glyph name or uploaded icon reference (icon<N>)"`
	Color string `json:"color,omitempty" validate:"rgba" doc:"rgba(r, g, b, a); ignored for uploaded icons"`
}

// BoardRequest is the request body for creating or saving a board.
type BoardRequest struct {
	ParentID *int64         `json:"parent_id,omitempty" doc:"Parent board ID, empty for a root"`
	Title    string         `json:"title" validate:"required,max=255" doc:"Board title"`
	Type     string         `json:"type" validate:"required,oneof=board category link" doc:"Node type"`
	Position int            `json:"position,omitempty" validate:"gte=0" doc:"Order among siblings"`
	IsClosed bool           `json:"is_closed,omitempty" doc:"Archived board"`
	Icon     AssignmentBody `json:"icon,omitempty" doc:"Icon without new content"`
	IconNew  AssignmentBody `json:"icon_new,omitempty" doc:"Icon with new content"`
}

// BoardResponse contains board data in API responses.
type BoardResponse struct {
	ID        int64          `json:"id" doc:"Board ID"`
	ParentID  *int64         `json:"parent_id,omitempty" doc:"Parent board ID"`
	Title     string         `json:"title" doc:"Board title"`
	Type      string         `json:"type" doc:"Node type"`
	Position  int            `json:"position" doc:"Order among siblings"`
	IsClosed  bool           `json:"is_closed" doc:"Archived board"`
	Icon      AssignmentBody `json:"icon" doc:"Icon without new content"`
	IconNew   AssignmentBody `json:"icon_new" doc:"Icon with new content"`
	CreatedAt time.Time      `json:"created_at" doc:"Creation time"`
	UpdatedAt time.Time      `json:"updated_at" doc:"Last update time"`
}

// ListBoardsOutput wraps the board list for Huma.
type ListBoardsOutput struct {
	Body struct {
		Boards []BoardResponse `json:"boards" doc:"Boards in tree order"`
	}
}

// BoardOutput wraps a board for Huma.
type BoardOutput struct {
	Body BoardResponse
}

// BoardIDInput addresses a single board.
type BoardIDInput struct {
	ID int64 `path:"id" doc:"Board ID"`
}

// CreateBoardInput wraps the create board request for Huma.
type CreateBoardInput struct {
	Body BoardRequest
}

// SaveBoardInput wraps the save board request for Huma.
type SaveBoardInput struct {
	ID   int64 `path:"id" minimum:"1" doc:"Board ID"`
	Body BoardRequest
}

// BoardIconsRequest is the icon part of the board edit form.
type BoardIconsRequest struct {
	Icon            string `json:"icon,omitempty" validate:"glyph" doc:"Icon without new content"`
	IconColor       string `json:"icon_color,omitempty" doc:"Color of icon"`
	UseIconColor    bool   `json:"use_icon_color,omitempty" doc:"Keep icon_color; blank means rgba(0, 0, 0, 1)"`
	IconNew         string `json:"icon_new,omitempty" validate:"glyph" doc:"Icon with new content"`
	IconNewColor    string `json:"icon_new_color,omitempty" doc:"Color of icon_new"`
	UseIconNewColor bool   `json:"use_icon_new_color,omitempty" doc:"Keep icon_new_color; blank means rgba(0, 0, 0, 1)"`
}

// SetBoardIconsInput wraps the board icons request for Huma.
type SetBoardIconsInput struct {
	ID   int64 `path:"id" doc:"Board ID"`
	Body BoardIconsRequest
}

// === Handlers ===

func (s *Server) handleListBoards(ctx context.Context, _ *struct{}) (*ListBoardsOutput, error) {
	boards, err := s.services.Boards.ListBoards(ctx)
	if err != nil {
		return nil, err
	}

	out := &ListBoardsOutput{}
	out.Body.Boards = make([]BoardResponse, len(boards))
	for i, b := range boards {
		out.Body.Boards[i] = boardResponse(b)
	}
	return out, nil
}

func (s *Server) handleGetBoard(ctx context.Context, input *BoardIDInput) (*BoardOutput, error) {
	b, err := s.services.Boards.GetBoard(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &BoardOutput{Body: boardResponse(b)}, nil
}

func (s *Server) handleCreateBoard(ctx context.Context, input *CreateBoardInput) (*BoardOutput, error) {
	return s.saveBoard(ctx, 0, input.Body)
}

func (s *Server) handleSaveBoard(ctx context.Context, input *SaveBoardInput) (*BoardOutput, error) {
	return s.saveBoard(ctx, input.ID, input.Body)
}

func (s *Server) saveBoard(ctx context.Context, id int64, req BoardRequest) (*BoardOutput, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	b, err := s.services.Boards.SaveBoard(ctx, &domain.Board{
		ID:       id,
		ParentID: req.ParentID,
		Title:    req.Title,
		Type:     domain.BoardType(req.Type),
		Position: req.Position,
		IsClosed: req.IsClosed,
		Icon:     domain.Assignment{Glyph: req.Icon.Glyph, Color: req.Icon.Color},
		IconNew:  domain.Assignment{Glyph: req.IconNew.Glyph, Color: req.IconNew.Color},
	})
	if err != nil {
		return nil, err
	}
	return &BoardOutput{Body: boardResponse(b)}, nil
}

func (s *Server) handleDeleteBoard(ctx context.Context, input *BoardIDInput) (*MessageOutput, error) {
	if err := s.services.Boards.DeleteBoard(ctx, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Board deleted"}}, nil
}

func (s *Server) handleSetBoardIcons(ctx context.Context, input *SetBoardIconsInput) (*BoardOutput, error) {
	if err := s.validator.Validate(input.Body); err != nil {
		return nil, err
	}

	b, err := s.services.Boards.SetNodeIcons(ctx, input.ID, service.NodeIcons{
		Icon:            input.Body.Icon,
		IconColor:       input.Body.IconColor,
		UseIconColor:    input.Body.UseIconColor,
		IconNew:         input.Body.IconNew,
		IconNewColor:    input.Body.IconNewColor,
		UseIconNewColor: input.Body.UseIconNewColor,
	})
	if err != nil {
		return nil, err
	}
	return &BoardOutput{Body: boardResponse(b)}, nil
}

func boardResponse(b *domain.Board) BoardResponse {
	return BoardResponse{
		ID:        b.ID,
		ParentID:  b.ParentID,
		Title:     b.Title,
		Type:      string(b.Type),
		Position:  b.Position,
		IsClosed:  b.IsClosed,
		Icon:      AssignmentBody{Glyph: b.Icon.Glyph, Color: b.Icon.Color},
		IconNew:   AssignmentBody{Glyph: b.IconNew.Glyph, Color: b.IconNew.Color},
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}
