package resources

import (
	"context"

	"github.com/samvad-hq/bizdesk/pkg/apiclient"
)

// ContactsService manages customer records.
type ContactsService struct{ base }

func (s *ContactsService) List(ctx context.Context) (*apiclient.Response, error) {
	return s.call(ctx, opListContacts, nil, nil)
}

func (s *ContactsService) Get(ctx context.Context, id string) (*apiclient.Response, error) {
	return s.call(ctx, opGetContact, nil, nil, id)
}

// Create sends body as the new contact. body may be a domain.Contact, a map or
// a json.RawMessage; fields are forwarded as given.
func (s *ContactsService) Create(ctx context.Context, body any) (*apiclient.Response, error) {
	return s.call(ctx, opCreateContact, nil, body)
}

func (s *ContactsService) Update(ctx context.Context, id string, body any) (*apiclient.Response, error) {
	return s.call(ctx, opUpdateContact, nil, body, id)
}

func (s *ContactsService) Delete(ctx context.Context, id string) (*apiclient.Response, error) {
	return s.call(ctx, opDeleteContact, nil, nil, id)
}

func (s *ContactsService) Stats(ctx context.Context) (*apiclient.Response, error) {
	return s.call(ctx, opContactStats, nil, nil)
}
