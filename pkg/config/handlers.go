package config

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shelfwise/shelfwise/pkg/envelope"
)

// LendingPolicy is the public subset of the config that clients need to
// display due dates and fines.
type LendingPolicy struct {
	LoanPeriodDays int     `json:"loan_period_days"`
	FinePerDay     float64 `json:"fine_per_day"`
}

type handler struct {
	config *Config
}

func (h *handler) lendingPolicy(c echo.Context) error {
	policy := LendingPolicy{
		LoanPeriodDays: h.config.LoanPeriodDays,
		FinePerDay:     h.config.FinePerDay,
	}
	return errors.WithStack(envelope.JSON(c, http.StatusOK, "Lending policy fetched successfully", policy))
}
