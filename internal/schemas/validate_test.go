package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validNotification() map[string]any {
	return map[string]any{
		"application_id": "7f0c2a4e-7d3c-4a53-9f0b-2d4c1f7b9a10",
		"email":          "applicant@example.com",
		"research_title": "Groundwater modelling",
		"status":         "approved",
		"status_label":   "Approved",
		"subject":        "Research Grant Application Approved",
		"text":           `Your research grant application "Groundwater modelling" has been approved.`,
		"occurred_at":    "2025-10-01T10:00:00Z",
	}
}

func TestValidate_StatusNotification(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(doc map[string]any)
		wantErr bool
	}{
		{name: "valid", mutate: func(map[string]any) {}},
		{name: "with comments", mutate: func(doc map[string]any) { doc["comments"] = "Well argued." }},
		{name: "missing email", mutate: func(doc map[string]any) { delete(doc, "email") }, wantErr: true},
		{name: "draft is not an event", mutate: func(doc map[string]any) { doc["status"] = "draft" }, wantErr: true},
		{name: "unknown field", mutate: func(doc map[string]any) { doc["html"] = "<p>" }, wantErr: true},
		{name: "wrong type", mutate: func(doc map[string]any) { doc["subject"] = 42 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := validNotification()
			tt.mutate(doc)
			err := Validate(StatusNotification, doc)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr), "error should be ValidationError type")
			assert.Greater(t, len(validationErr.Errors), 0)
		})
	}
}

func TestValidate_UnknownSchema(t *testing.T) {
	err := Validate("nonexistent.schema.json", map[string]any{})
	require.Error(t, err)

	var loadErr *SchemaLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Contains(t, err.Error(), "schema not found")
}

func TestValidateBytes_MalformedJSON(t *testing.T) {
	err := ValidateBytes(StatusNotification, []byte("{ invalid json }"))
	assert.Error(t, err)
}

func TestEmbeddedSchemasCompile(t *testing.T) {
	entries, err := files.ReadDir(".")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for _, e := range entries {
		t.Run(e.Name(), func(t *testing.T) {
			_, err := load(e.Name())
			assert.NoError(t, err)
		})
	}
}
