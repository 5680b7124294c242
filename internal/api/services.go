package api

import "github.com/boardicon/boardicon-server/internal/service"

// Services groups the business logic services used by the API server.
type Services struct {
	Icons      *service.IconService
	Boards     *service.BoardService
	Stylesheet *service.StylesheetService
}
