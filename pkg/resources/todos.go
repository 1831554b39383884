package resources

import (
	"context"

	"github.com/samvad-hq/bizdesk/pkg/apiclient"
)

// TodosService manages a user's tasks. Every path is scoped by user id.
// Bodies are forwarded as given, like the other services.
type TodosService struct{ base }

func (s *TodosService) List(ctx context.Context, userID string) (*apiclient.Response, error) {
	return s.call(ctx, opListTodos, nil, nil, userID)
}

func (s *TodosService) Create(ctx context.Context, userID string, body any) (*apiclient.Response, error) {
	return s.call(ctx, opCreateTodo, nil, body, userID)
}

func (s *TodosService) Update(ctx context.Context, id, userID string, body any) (*apiclient.Response, error) {
	return s.call(ctx, opUpdateTodo, nil, body, id, userID)
}

func (s *TodosService) Delete(ctx context.Context, id, userID string) (*apiclient.Response, error) {
	return s.call(ctx, opDeleteTodo, nil, nil, id, userID)
}

func (s *TodosService) Stats(ctx context.Context, userID string) (*apiclient.Response, error) {
	return s.call(ctx, opTodoStats, nil, nil, userID)
}
