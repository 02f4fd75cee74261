package ir

import (
	"fmt"
	"time"
)

// DateLayout is the layout of IR.StartDate.
const DateLayout = "2006-01-02"

// ValidationError represents a validation error with field path and message.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the document's structure. It does not type-check
// expressions. Returns all errors (not fail-fast).
func (d *IR) Validate() []ValidationError {
	var errs []ValidationError
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if _, err := time.Parse(DateLayout, d.StartDate); err != nil {
		add("start_date", "must be a YYYY-MM-DD date, got %q", d.StartDate)
	}
	if d.Peoples <= 0 {
		add("peoples", "must be positive, got %d", d.Peoples)
	}
	if d.ChildrenNum < 0 {
		add("children_num", "must not be negative, got %d", d.ChildrenNum)
	}
	if d.ChildrenNum > d.Peoples && d.Peoples > 0 {
		add("children_num", "exceeds peoples (%d > %d)", d.ChildrenNum, d.Peoples)
	}
	if d.Budgets < 0 {
		add("budgets", "must not be negative, got %g", d.Budgets)
	}
	if d.TotalTravelDays < 0 {
		add("total_travel_days", "must not be negative, got %d", d.TotalTravelDays)
	}

	if len(d.Stages) == 0 {
		add("stages", "at least one stage is required")
	}

	days := 0
	for i, st := range d.Stages {
		prefix := fmt.Sprintf("stages[%d]", i)
		if st.OriginCity == "" {
			add(prefix+".origin_city", "is required")
		}
		if st.DestinationCity == "" {
			add(prefix+".destination_city", "is required")
		}
		if st.TravelDays < 0 {
			add(prefix+".travel_days", "must not be negative, got %d", st.TravelDays)
		}
		days += st.TravelDays
	}
	if len(d.Stages) > 0 && days != d.TotalTravelDays {
		add("total_travel_days", "is %d but stages sum to %d", d.TotalTravelDays, days)
	}

	if d.DynamicConstraints != nil && d.DynamicConstraints.MultiStage && len(d.Stages) < 2 {
		add("dynamic_constraints.multi_stage", "is set but the trip has %d stage(s)", len(d.Stages))
	}

	return errs
}
