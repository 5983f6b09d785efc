package market

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/aussiebroadwan/estate/internal/estate/domain"
	"github.com/aussiebroadwan/estate/pkg/apiclient"
)

// ListProperties returns one page of the public property listing.
func (s *Service) ListProperties(ctx context.Context, q domain.PropertyQuery) ([]domain.Property, error) {
	if err := domain.Validate(q); err != nil {
		return nil, err
	}

	endpoint := "/properties"
	if qs := propertyQuery(q).Encode(); qs != "" {
		endpoint += "?" + qs
	}

	return apiclient.Call[[]domain.Property](ctx, s.api, http.MethodGet, endpoint, nil, apiclient.ShapeContent,
		apiclient.WithTokenKey(s.consumerKey()),
	)
}

func propertyQuery(q domain.PropertyQuery) url.Values {
	v := url.Values{}
	if q.City != "" {
		v.Set("city", q.City)
	}
	if q.Type != "" {
		v.Set("type", q.Type)
	}
	if q.MinPrice != nil {
		v.Set("minPrice", q.MinPrice.String())
	}
	if q.MaxPrice != nil {
		v.Set("maxPrice", q.MaxPrice.String())
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Size > 0 {
		v.Set("size", strconv.Itoa(q.Size))
	}
	return v
}

func (s *Service) GetProperty(ctx context.Context, id string) (domain.Property, error) {
	return apiclient.Call[domain.Property](ctx, s.api, http.MethodGet, "/properties/"+url.PathEscape(id), nil,
		apiclient.ShapeData,
		apiclient.WithTokenKey(s.consumerKey()),
	)
}

func (s *Service) ListProjects(ctx context.Context) ([]domain.Project, error) {
	return apiclient.Call[[]domain.Project](ctx, s.api, http.MethodGet, "/projects", nil, apiclient.ShapeDataContent,
		apiclient.WithTokenKey(s.consumerKey()),
	)
}

func (s *Service) ListPhases(ctx context.Context, projectID string) ([]domain.Phase, error) {
	return apiclient.Call[[]domain.Phase](ctx, s.api, http.MethodGet,
		"/projects/"+url.PathEscape(projectID)+"/phases", nil, apiclient.ShapeData,
		apiclient.WithTokenKey(s.consumerKey()),
	)
}
