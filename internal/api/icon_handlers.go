package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/boardicon/boardicon-server/internal/domain"
	"github.com/boardicon/boardicon-server/internal/service"
)

func (s *Server) registerIconRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "newIconFormToken",
		Method:      http.MethodGet,
		Path:        "/api/v1/icons/form-token",
		Summary:     "New form token",
		Description: "Returns a fresh upload token for an add-icon form. Reuse it for every upload retry of that form.",
		Tags:        []string{"Icons"},
	}, s.handleNewFormToken)

	huma.Register(s.api, huma.Operation{
		OperationID: "listIcons",
		Method:      http.MethodGet,
		Path:        "/api/v1/icons",
		Summary:     "List icons",
		Description: "Returns all uploaded icons sorted by title",
		Tags:        []string{"Icons"},
	}, s.handleListIcons)

	huma.Register(s.api, huma.Operation{
		OperationID: "listIconChoices",
		Method:      http.MethodGet,
		Path:        "/api/v1/icons/choices",
		Summary:     "List icon choices",
		Description: "Returns everything a board or default slot can be set to: uploaded icons, then library glyphs",
		Tags:        []string{"Icons"},
	}, s.handleListIconChoices)

	huma.Register(s.api, huma.Operation{
		OperationID: "getIcon",
		Method:      http.MethodGet,
		Path:        "/api/v1/icons/{id}",
		Summary:     "Get icon",
		Description: "Returns an uploaded icon by ID",
		Tags:        []string{"Icons"},
	}, s.handleGetIcon)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createIcon",
		Method:        http.MethodPost,
		Path:          "/api/v1/icons",
		Summary:       "Create icon",
		Description:   "Creates an icon from the file staged under tmp_hash and regenerates the stylesheet",
		Tags:          []string{"Icons"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateIcon)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateIcon",
		Method:      http.MethodPatch,
		Path:        "/api/v1/icons/{id}",
		Summary:     "Update icon",
		Description: "Changes the title of an icon. The image is replaced through the file upload endpoint.",
		Tags:        []string{"Icons"},
	}, s.handleUpdateIcon)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteIcon",
		Method:      http.MethodDelete,
		Path:        "/api/v1/icons/{id}",
		Summary:     "Delete icon",
		Description: "Deletes an icon and its file. Boards still referencing it stop showing an icon.",
		Tags:        []string{"Icons"},
	}, s.handleDeleteIcon)
}

// === DTOs ===

// FormTokenOutput wraps the form token response for Huma.
type FormTokenOutput struct {
	Body struct {
		TmpHash string `json:"tmp_hash" doc:"Upload token for this form session"`
	}
}

// IconResponse contains icon data in API responses.
type IconResponse struct {
	ID        int64     `json:"id" doc:"Icon ID"`
	Title     string    `json:"title" doc:"Icon title"`
	Reference string    `json:"reference" doc:"Value that assigns this icon to a board"`
	URL       string    `json:"url" doc:"Public link of the image"`
	Extension string    `json:"extension" doc:"File extension"`
	FileHash  string    `json:"file_hash" doc:"SHA-256 of the image"`
	FileSize  int64     `json:"file_size" doc:"Image size in bytes"`
	BlurHash  string    `json:"blur_hash,omitempty" doc:"Placeholder hash for previews"`
	CreatedAt time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt time.Time `json:"updated_at" doc:"Last update time"`
}

// ListIconsOutput wraps the icon list response for Huma.
type ListIconsOutput struct {
	Body struct {
		Icons []IconResponse `json:"icons" doc:"Uploaded icons sorted by title"`
	}
}

// ChoicesOutput wraps the selection dialog data for Huma.
type ChoicesOutput struct {
	Body struct {
		Choices []service.Choice `json:"choices" doc:"Uploaded icons followed by library glyphs"`
	}
}

// IconIDInput addresses a single icon.
type IconIDInput struct {
	ID int64 `path:"id" doc:"Icon ID"`
}

// IconOutput wraps the icon response for Huma.
type IconOutput struct {
	Body IconResponse
}

// CreateIconRequest is the request body for creating an icon.
type CreateIconRequest struct {
	Title   string `json:"title,omitempty" doc:"Icon title"`
	TmpHash string `json:"tmp_hash,omitempty" doc:"Token the image was uploaded under"`
}

// CreateIconInput wraps the create icon request for Huma.
type CreateIconInput struct {
	Body CreateIconRequest
}

// UpdateIconRequest is the request body for updating an icon.
type UpdateIconRequest struct {
	Title string `json:"title" doc:"Icon title"`
}

// UpdateIconInput wraps the update icon request for Huma.
type UpdateIconInput struct {
	ID   int64 `path:"id" doc:"Icon ID"`
	Body UpdateIconRequest
}

// MessageResponse is a plain confirmation.
type MessageResponse struct {
	Message string `json:"message" doc:"Result message"`
}

// MessageOutput wraps a confirmation for Huma.
type MessageOutput struct {
	Body MessageResponse
}

// === Handlers ===

func (s *Server) handleNewFormToken(_ context.Context, _ *struct{}) (*FormTokenOutput, error) {
	token, err := s.services.Icons.NewFormToken()
	if err != nil {
		return nil, err
	}

	out := &FormTokenOutput{}
	out.Body.TmpHash = token
	return out, nil
}

func (s *Server) handleListIcons(ctx context.Context, _ *struct{}) (*ListIconsOutput, error) {
	icons, err := s.services.Icons.ListIcons(ctx)
	if err != nil {
		return nil, err
	}

	out := &ListIconsOutput{}
	out.Body.Icons = make([]IconResponse, len(icons))
	for i, icon := range icons {
		out.Body.Icons[i] = s.iconResponse(icon)
	}
	return out, nil
}

func (s *Server) handleListIconChoices(ctx context.Context, _ *struct{}) (*ChoicesOutput, error) {
	choices, err := s.services.Icons.Choices(ctx)
	if err != nil {
		return nil, err
	}

	out := &ChoicesOutput{}
	out.Body.Choices = choices
	return out, nil
}

func (s *Server) handleGetIcon(ctx context.Context, input *IconIDInput) (*IconOutput, error) {
	icon, err := s.services.Icons.GetIcon(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &IconOutput{Body: s.iconResponse(icon)}, nil
}

func (s *Server) handleCreateIcon(ctx context.Context, input *CreateIconInput) (*IconOutput, error) {
	icon, err := s.services.Icons.CreateIcon(ctx, input.Body.Title, input.Body.TmpHash)
	if err != nil {
		return nil, err
	}
	return &IconOutput{Body: s.iconResponse(icon)}, nil
}

func (s *Server) handleUpdateIcon(ctx context.Context, input *UpdateIconInput) (*IconOutput, error) {
	icon, err := s.services.Icons.UpdateIconTitle(ctx, input.ID, input.Body.Title)
	if err != nil {
		return nil, err
	}
	return &IconOutput{Body: s.iconResponse(icon)}, nil
}

func (s *Server) handleDeleteIcon(ctx context.Context, input *IconIDInput) (*MessageOutput, error) {
	if err := s.services.Icons.DeleteIcon(ctx, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Icon deleted"}}, nil
}

func (s *Server) iconResponse(icon *domain.Icon) IconResponse {
	return IconResponse{
		ID:        icon.ID,
		Title:     icon.Title,
		Reference: icon.Reference(),
		URL:       s.services.Icons.URL(icon),
		Extension: icon.FileExtension,
		FileHash:  icon.FileHash,
		FileSize:  icon.FileSize,
		BlurHash:  icon.BlurHash,
		CreatedAt: icon.CreatedAt,
		UpdatedAt: icon.UpdatedAt,
	}
}
