package market

import (
	"context"
	"net/http"
	"slices"

	"github.com/aussiebroadwan/estate/internal/estate/domain"
	"github.com/aussiebroadwan/estate/pkg/apiclient"
	"github.com/aussiebroadwan/estate/pkg/storage"
)

// SubmitInquiry sends a question about a property to its agent.
func (s *Service) SubmitInquiry(ctx context.Context, in domain.Inquiry) (domain.Inquiry, error) {
	if err := domain.Validate(in); err != nil {
		return domain.Inquiry{}, err
	}

	res, err := apiclient.Call[apiclient.Result[domain.Inquiry]](ctx, s.api, http.MethodPost, "/inquiries", in,
		apiclient.ShapeBare,
		apiclient.WithValidation(),
		apiclient.WithTokenKey(s.consumerKey()),
	)
	if err != nil {
		return domain.Inquiry{}, err
	}
	return res.Data, nil
}

// ScheduleVisit books a viewing. It requires a consumer session.
func (s *Service) ScheduleVisit(ctx context.Context, v domain.Visit) (domain.Visit, error) {
	if err := domain.Validate(v); err != nil {
		return domain.Visit{}, err
	}

	res, err := apiclient.Call[apiclient.Result[domain.Visit]](ctx, s.api, http.MethodPost, "/visits", v,
		apiclient.ShapeBare,
		apiclient.WithValidation(),
		apiclient.WithTokenKey(s.consumerKey()),
	)
	if err != nil {
		return domain.Visit{}, err
	}
	return res.Data, nil
}

// Favorites returns the locally cached favorite property IDs.
func (s *Service) Favorites(ctx context.Context) []string {
	return storage.GetItem(ctx, s.storage, storage.FavoritesKey, []string{})
}

// AddFavorite records id once. It reports whether the cache was written.
func (s *Service) AddFavorite(ctx context.Context, id string) bool {
	favs := s.Favorites(ctx)
	if slices.Contains(favs, id) {
		return true
	}
	return s.storage.SetItem(ctx, storage.FavoritesKey, append(favs, id))
}

func (s *Service) RemoveFavorite(ctx context.Context, id string) bool {
	favs := s.Favorites(ctx)
	i := slices.Index(favs, id)
	if i < 0 {
		return true
	}
	return s.storage.SetItem(ctx, storage.FavoritesKey, slices.Delete(favs, i, i+1))
}
