package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"railbook/pkg/config"
	apperrors "railbook/pkg/errors"
	"railbook/pkg/model"
	"strconv"
	"strings"
)

const RequesterHeader = "X-Requester-ID"

func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}

	var offset int64
	if s := query.Get("offset"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = v
	}

	return config.NormalizePaginationLimit(limit), config.NormalizeOffset(offset), nil
}

// ExtractRequester reads the requester id set by the upstream gateway.
func ExtractRequester(r *http.Request) (string, error) {
	requester := strings.TrimSpace(r.Header.Get(RequesterHeader))
	if requester == "" {
		return "", apperrors.Unauthorized("missing " + RequesterHeader + " header")
	}
	return requester, nil
}

func ExtractScope(r *http.Request) (model.Scope, error) {
	query := r.URL.Query()
	scope := model.NewScope(strings.TrimSpace(query.Get("vehicle_id")), strings.TrimSpace(query.Get("travel_date")))
	if scope.VehicleID == "" {
		return scope, apperrors.InvalidInput("vehicle_id query parameter is required")
	}
	if _, err := model.ParseTravelDate(scope.TravelDate); err != nil {
		return scope, apperrors.InvalidInput("travel_date must be YYYY-MM-DD, got: " + scope.TravelDate)
	}
	return scope, nil
}

func DecodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return apperrors.InvalidInput(fmt.Sprintf("invalid JSON: %v", err))
	}
	return nil
}
