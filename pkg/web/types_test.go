package web

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestRequestValidation(t *testing.T) {
	t.Parallel()

	v := validator.New(validator.WithRequiredStructEnabled())
	plan := -1

	tests := []struct {
		name    string
		request any
		valid   bool
	}{
		{"allocation", StartAllocationRequest{Dataset: "watdiv100k", Workers: 2}, true},
		{"allocation without dataset", StartAllocationRequest{Workers: 2}, false},
		{"allocation without workers", StartAllocationRequest{Dataset: "watdiv100k"}, false},
		{"distribution", StartDistributionRequest{Dataset: "watdiv100k"}, true},
		{"distribution without dataset", StartDistributionRequest{CleanAfter: true}, false},
		{"bind", BindDatasetRequest{Dataset: "lubm"}, true},
		{"bind without dataset", BindDatasetRequest{}, false},
		{"query", ExecuteQueryRequest{QueryFile: "q1.sparql"}, true},
		{"query with master", ExecuteQueryRequest{QueryFile: "q1.sparql", MasterIP: "10.0.0.1"}, true},
		{"query with bad master", ExecuteQueryRequest{QueryFile: "q1.sparql", MasterIP: "master"}, false},
		{"query with negative plan", ExecuteQueryRequest{QueryFile: "q1.sparql", PlanNumber: &plan}, false},
		{"query without file", ExecuteQueryRequest{Dataset: "watdiv100k"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := v.Struct(tt.request)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestNewListResponse(t *testing.T) {
	t.Parallel()

	empty := newListResponse(nil)
	assert.NotNil(t, empty.Items)
	assert.Equal(t, 0, empty.Count)

	assert.Equal(t, 2, newListResponse([]string{"a", "b"}).Count)
}
