package orders

import (
	"time"

	"github.com/jediswimmer/ironcurtain/internal/domain"
	"github.com/samber/lo"
)

// Violation is one rejected order (or an entire rejected batch) with
// its reason and severity, matching the audit/high-severity split the
// order-violations protocol reports back to the agent.
type Violation struct {
	OrderIndex   int // -1 for a whole-batch rejection
	Reason       string
	HighSeverity bool
}

// Result is the validator's contract output: admitted orders, the
// rejected orders (paired index-for-index with violations where
// applicable), and the full violation list for reporting back to the
// agent via order_violations.
type Result struct {
	Admitted   []domain.Order
	Rejected   []domain.Order
	Violations []Violation
}

// Validator checks order batches for semantic legality (ownership,
// bounds, schema) and, via the supplied Tracker, rate legality.
type Validator struct{}

func NewValidator() *Validator { return &Validator{} }

// Validate runs the APM batch check first (admission of the whole
// batch is atomic), then the five per-order semantic checks on each
// order independently. Rejection of one order never halts processing
// of the rest, except a whole-batch APM rejection.
func (v *Validator) Validate(batch domain.OrderBatch, view domain.FilteredView, limits ProfileLimits, tracker *Tracker, now time.Time) Result {
	rejection, cooldown := tracker.CheckBatch(now, len(batch.Orders))
	if rejection != RejectNone {
		reason := string(rejection)
		if rejection == RejectTooFast {
			reason = reason + ": retry after " + cooldown.String()
		}
		return Result{
			Rejected:   batch.Orders,
			Violations: []Violation{{OrderIndex: -1, Reason: reason}},
		}
	}

	ownUnitIDs := make(map[domain.EntityID]struct{}, len(view.OwnUnits))
	for _, u := range view.OwnUnits {
		ownUnitIDs[u.ID] = struct{}{}
	}
	ownBuildingIDs := make(map[domain.EntityID]struct{}, len(view.OwnBuildings))
	for _, b := range view.OwnBuildings {
		ownBuildingIDs[b.ID] = struct{}{}
	}

	result := Result{}
	for i, order := range batch.Orders {
		if reason, highSeverity, ok := v.checkOrder(order, view, limits, ownUnitIDs, ownBuildingIDs); !ok {
			result.Rejected = append(result.Rejected, order)
			result.Violations = append(result.Violations, Violation{OrderIndex: i, Reason: reason, HighSeverity: highSeverity})
			continue
		}
		result.Admitted = append(result.Admitted, order)
	}
	return result
}

// checkOrder runs the five semantic checks, short-circuiting on the
// first failure.
func (v *Validator) checkOrder(order domain.Order, view domain.FilteredView, limits ProfileLimits, ownUnits, ownBuildings map[domain.EntityID]struct{}) (reason string, highSeverity, ok bool) {
	// 1. Order kind is in the allowed enumeration.
	if !domain.IsValidOrderKind(order.Kind) {
		return "unknown order kind: " + string(order.Kind), false, false
	}

	// 2. Ownership: every subject id must belong to the agent.
	if foreign := lo.Filter(order.Subject, func(id domain.EntityID, _ int) bool {
		_, isUnit := ownUnits[id]
		_, isBuilding := ownBuildings[id]
		return !isUnit && !isBuilding
	}); len(foreign) > 0 {
		return "foreign subject id: " + string(foreign[0]), true, false
	}

	// 3. Target bounds.
	if order.Target.Cell != nil {
		c := *order.Target.Cell
		if c.X < 0 || c.X >= view.MapWidth || c.Y < 0 || c.Y >= view.MapHeight {
			return "target cell out of bounds", false, false
		}
	}

	// 4. Count, when present.
	if order.Count != 0 && (order.Count < 1 || order.Count > 20) {
		return "count out of range [1,20]", false, false
	}

	// 5. Batch size: subject set size within the profile's per-order
	// unit-command cap.
	if len(order.Subject) > limits.MaxUnitsPerOrder {
		return "subject set exceeds unit-command cap", false, false
	}

	return "", false, true
}
