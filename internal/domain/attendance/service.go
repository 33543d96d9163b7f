package attendance

import "context"

// GridService builds the monthly attendance grid for administrators.
type GridService interface {
	// LoadGrid reconciles punches with ERP absences/overtimes and classifies
	// every day of the requested month for every employee in scope.
	LoadGrid(ctx context.Context, query GridQuery) (GridResponse, error)
}
