package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/internal/locations"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/wilayah"
)

// LocationProvinces lists every province.
func LocationProvinces(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "locations service unavailable"))
			return
		}
		regions, err := svc.Provinces(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, regionList(regions))
	}
}

// LocationRegencies lists the regencies of a province.
func LocationRegencies(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return childRegions(svc, "provinceCode", func(ctx context.Context, code string) ([]wilayah.Region, error) {
		return svc.Regencies(ctx, code)
	}, logg)
}

// LocationDistricts lists the districts of a regency.
func LocationDistricts(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return childRegions(svc, "regencyCode", func(ctx context.Context, code string) ([]wilayah.Region, error) {
		return svc.Districts(ctx, code)
	}, logg)
}

// LocationVillages lists the villages of a district.
func LocationVillages(svc locations.Service, logg *logger.Logger) http.HandlerFunc {
	return childRegions(svc, "districtCode", func(ctx context.Context, code string) ([]wilayah.Region, error) {
		return svc.Villages(ctx, code)
	}, logg)
}

func childRegions(svc locations.Service, param string, lookup func(context.Context, string) ([]wilayah.Region, error), logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "locations service unavailable"))
			return
		}
		regions, err := lookup(r.Context(), strings.TrimSpace(chi.URLParam(r, param)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, regionList(regions))
	}
}

func regionList(regions []wilayah.Region) []wilayah.Region {
	if regions == nil {
		return []wilayah.Region{}
	}
	return regions
}
