package domain

import "github.com/fleetops/fuelrate/pkg/tabular"

// Service normalizes raw spreadsheet tables into typed events.
//
// Rows whose equipment identifier is not a plain decimal integer are
// excluded and counted, never erred: alphabetic equipment codes are out of
// scope for this analysis. Dates are held to their exact layout; a single
// malformed date fails the load, because silent misparsing would corrupt
// the interval math downstream.
type Service interface {
	LoadRefuels(tbl *tabular.Table) (RefuelLoad, error)
	LoadWorkHours(tbl *tabular.Table) (WorkLoad, error)
}
