package resources

import (
	"context"

	"github.com/samvad-hq/bizdesk/pkg/apiclient"
)

// CountryCodesService lists dialing codes. The backend serves this list as
// text/plain, which the client still decodes as JSON.
type CountryCodesService struct{ base }

func (s *CountryCodesService) List(ctx context.Context) (*apiclient.Response, error) {
	return s.call(ctx, opCountryCodes, nil, nil)
}
