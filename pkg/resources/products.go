package resources

import (
	"context"

	"github.com/samvad-hq/bizdesk/pkg/apiclient"
)

// ProductsService manages product stock.
type ProductsService struct{ base }

func (s *ProductsService) List(ctx context.Context) (*apiclient.Response, error) {
	return s.call(ctx, opListProducts, nil, nil)
}

func (s *ProductsService) Create(ctx context.Context, body any) (*apiclient.Response, error) {
	return s.call(ctx, opCreateProduct, nil, body)
}

func (s *ProductsService) Update(ctx context.Context, id string, body any) (*apiclient.Response, error) {
	return s.call(ctx, opUpdateProduct, nil, body, id)
}

func (s *ProductsService) Delete(ctx context.Context, id string) (*apiclient.Response, error) {
	return s.call(ctx, opDeleteProduct, nil, nil, id)
}
