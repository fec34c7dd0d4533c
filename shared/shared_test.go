package shared_test

import (
	"medibook/shared"
	"medibook/shared/constant"
	"medibook/shared/dto"
	"testing"
)

func TestCalculateTotalPage(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		limit    int
		expected int
	}{
		{
			name:     "zero total returns one page",
			total:    0,
			limit:    10,
			expected: 1,
		},
		{
			name:     "zero limit returns one page",
			total:    25,
			limit:    0,
			expected: 1,
		},
		{
			name:     "exact division",
			total:    20,
			limit:    10,
			expected: 2,
		},
		{
			name:     "partial last page rounds up",
			total:    21,
			limit:    10,
			expected: 3,
		},
		{
			name:     "single page",
			total:    5,
			limit:    10,
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := shared.CalculateTotalPage(tt.total, tt.limit)

			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestTransformFields(t *testing.T) {
	type updateRequest struct {
		Status string `db:"status"`
		Notes  string `db:"notes"`
		Hidden string
	}

	result := shared.TransformFields(updateRequest{Status: "confirmed", Hidden: "ignored"}, "test-user")

	if result["status"] != "confirmed" {
		t.Errorf("expected status to be confirmed, got %v", result["status"])
	}

	if _, ok := result["notes"]; ok {
		t.Error("expected zero-valued field to be skipped")
	}

	if _, ok := result["Hidden"]; ok {
		t.Error("expected field without db tag to be skipped")
	}

	if result[constant.FieldModifiedBy] != "test-user" {
		t.Errorf("expected modified_by to be test-user, got %v", result[constant.FieldModifiedBy])
	}

	if _, ok := result[constant.FieldModifiedAt]; !ok {
		t.Error("expected modified_at to be set")
	}
}

func TestBuildCacheKey(t *testing.T) {
	result := shared.BuildCacheKey("appointment", "slots", "dr-jane")

	if result != "appointment:slots:dr-jane" {
		t.Errorf("expected appointment:slots:dr-jane, got %s", result)
	}
}

func TestBuildCacheKeyWithQuery(t *testing.T) {
	paramsA := dto.QueryParams{Limit: 10, Page: 1}
	paramsB := dto.QueryParams{Limit: 10, Page: 2}

	keyA := shared.BuildCacheKeyWithQuery("doctor:gets", paramsA, dto.FilterGroup{})
	keyB := shared.BuildCacheKeyWithQuery("doctor:gets", paramsB, dto.FilterGroup{})

	if keyA == keyB {
		t.Error("expected different query states to produce different keys")
	}

	again := shared.BuildCacheKeyWithQuery("doctor:gets", paramsA, dto.FilterGroup{})
	if keyA != again {
		t.Error("expected the same query state to produce a stable key")
	}
}

func TestFilterByID(t *testing.T) {
	group := shared.FilterByID("test-id", "id", "appointments")

	if len(group.Filters) != 1 {
		t.Fatalf("expected one filter, got %d", len(group.Filters))
	}

	filter, ok := group.Filters[0].(dto.Filter)
	if !ok {
		t.Fatal("expected a dto.Filter")
	}

	if filter.Value != "test-id" || filter.Field != "id" || filter.Table != "appointments" {
		t.Errorf("unexpected filter: %+v", filter)
	}
}
