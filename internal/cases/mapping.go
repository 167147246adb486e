package cases

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/danishmustafa86/aidlink/pkg/query"
	"github.com/danishmustafa86/aidlink/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "cases", "c").
	Project("id", "ID").
	Project("category", "Category").
	Project("report", "Report").
	Project("status", "Status").
	Project("citizen_ref", "CitizenRef").
	Project("assigned_authority_ref", "AssignedAuthorityRef").
	Project("history", "History").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for case queries.
// Nil fields are ignored. All fields use exact matching.
type Filters struct {
	Category   *string `json:"category,omitempty"`
	Status     *string `json:"status,omitempty"`
	CitizenRef *string `json:"citizen_ref,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Category", f.Category).
		WhereEquals("Status", f.Status).
		WhereEquals("CitizenRef", f.CitizenRef)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if c := values.Get("category"); c != "" {
		f.Category = &c
	}
	if s := values.Get("status"); s != "" {
		f.Status = &s
	}
	if c := values.Get("citizen_ref"); c != "" {
		f.CitizenRef = &c
	}

	return f
}

func scanCase(sc repository.Scanner) (Case, error) {
	var c Case
	var reportRaw, historyRaw []byte

	err := sc.Scan(
		&c.ID,
		&c.Category,
		&reportRaw,
		&c.Status,
		&c.CitizenRef,
		&c.AssignedAuthorityRef,
		&historyRaw,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return c, err
	}

	if len(reportRaw) > 0 {
		if err := json.Unmarshal(reportRaw, &c.Report); err != nil {
			return c, fmt.Errorf("unmarshal report: %w", err)
		}
	}
	if len(historyRaw) > 0 {
		if err := json.Unmarshal(historyRaw, &c.History); err != nil {
			return c, fmt.Errorf("unmarshal history: %w", err)
		}
	}
	if c.Report == nil {
		c.Report = map[string]string{}
	}

	return c, nil
}
