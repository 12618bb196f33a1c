package validate

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDependency() map[string]interface{} {
	return map[string]interface{}{
		"id":       "dep-orders-db",
		"name":     "orders-db",
		"type":     "database",
		"provider": "aws",
		"region":   "us-east-1",
		"status":   "pending",
		"created":  "2026-08-01T12:00:00Z",
		"updated":  "2026-08-01T12:00:00Z",
	}
}

func TestValidDependencyPasses(t *testing.T) {
	res := Dependency().Validate(validDependency())
	assert.True(t, res.OK, "errors: %v", res.Errors)
	assert.Empty(t, res.Errors)
}

func TestValidDependencyWithOptionalsPasses(t *testing.T) {
	dep := validDependency()
	dep["version"] = "1.2.3"
	dep["environment"] = "prod"
	dep["description"] = "primary orders database"
	dep["configuration"] = map[string]interface{}{"engine": "postgres"}
	dep["policy"] = map[string]interface{}{"Version": "2012-10-17"}
	dep["generatedName"] = "orders-db-7f3a"
	dep["tags"] = map[string]interface{}{"team": "payments"}
	dep["dependencies"] = []interface{}{"dep-orders-cache"}
	dep["deployedAt"] = nil

	res := Dependency().Validate(dep)
	assert.True(t, res.OK, "errors: %v", res.Errors)
}

func pathsOf(errs []FieldError) []string {
	var out []string
	for _, e := range errs {
		out = append(out, e.Path)
	}
	return out
}

func TestEachConstraintFlagged(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(map[string]interface{})
		path   string
		msg    string
	}{
		{
			name:   "id pattern",
			mutate: func(d map[string]interface{}) { d["id"] = "invalid-id" },
			path:   "/id",
			msg:    "Invalid format",
		},
		{
			name:   "name charset",
			mutate: func(d map[string]interface{}) { d["name"] = "bad name!" },
			path:   "/name",
			msg:    "Invalid format",
		},
		{
			name:   "name empty",
			mutate: func(d map[string]interface{}) { d["name"] = "" },
			path:   "/name",
		},
		{
			name:   "type enum",
			mutate: func(d map[string]interface{}) { d["type"] = "warehouse" },
			path:   "/type",
			msg:    "Must be one of: database, cache, queue, storage, compute, network, secrets, config, event-bus",
		},
		{
			name:   "provider enum",
			mutate: func(d map[string]interface{}) { d["provider"] = "ibm" },
			path:   "/provider",
			msg:    "Must be one of: aws, azure, gcp",
		},
		{
			name:   "region pattern",
			mutate: func(d map[string]interface{}) { d["region"] = "bad-region" },
			path:   "/region",
			msg:    "Invalid format",
		},
		{
			name:   "status enum",
			mutate: func(d map[string]interface{}) { d["status"] = "done" },
			path:   "/status",
			msg:    "Must be one of",
		},
		{
			name:   "missing required",
			mutate: func(d map[string]interface{}) { delete(d, "region") },
			path:   "/region",
			msg:    "Missing required field: region",
		},
		{
			name:   "version semver",
			mutate: func(d map[string]interface{}) { d["version"] = "v1.2" },
			path:   "/version",
			msg:    "Invalid format",
		},
		{
			name:   "environment enum",
			mutate: func(d map[string]interface{}) { d["environment"] = "qa" },
			path:   "/environment",
			msg:    "Must be one of: dev, staging, prod",
		},
		{
			name:   "unknown field",
			mutate: func(d map[string]interface{}) { d["color"] = "blue" },
			path:   "/color",
			msg:    "Unknown field: color",
		},
		{
			name:   "created not a timestamp",
			mutate: func(d map[string]interface{}) { d["created"] = "yesterday" },
			path:   "/created",
			msg:    "Invalid format",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dep := validDependency()
			tt.mutate(dep)
			res := Dependency().Validate(dep)
			require.False(t, res.OK)
			assert.Contains(t, pathsOf(res.Errors), tt.path)
			if tt.msg != "" {
				found := false
				for _, e := range res.Errors {
					if e.Path == tt.path && len(e.Message) >= len(tt.msg) && e.Message[:len(tt.msg)] == tt.msg {
						found = true
					}
				}
				assert.True(t, found, "want message starting %q, got %v", tt.msg, res.Errors)
			}
		})
	}
}

func TestDescriptionTooLong(t *testing.T) {
	dep := validDependency()
	long := make([]byte, 1001)
	for i := range long {
		long[i] = 'x'
	}
	dep["description"] = string(long)
	res := Dependency().Validate(dep)
	require.False(t, res.OK)
	assert.Contains(t, pathsOf(res.Errors), "/description")
}

func TestValidateBatch(t *testing.T) {
	records := make([]interface{}, 0, 100)
	badIndex := 42
	for i := 0; i < 100; i++ {
		dep := validDependency()
		dep["id"] = fmt.Sprintf("dep-svc-%d", i)
		if i == badIndex {
			dep["id"] = "invalid-id"
			dep["region"] = "bad-region"
		}
		records = append(records, dep)
	}

	res := Dependency().ValidateBatch(context.Background(), records)
	assert.False(t, res.OK)
	assert.Len(t, res.Validated, 99)
	require.Len(t, res.Invalid, 1)
	assert.Equal(t, badIndex, res.Invalid[0].Index)
	paths := pathsOf(res.Invalid[0].Errors)
	assert.Contains(t, paths, "/id")
	assert.Contains(t, paths, "/region")

	assert.Equal(t, 100, res.Summary.Total)
	assert.Equal(t, 99, res.Summary.Passed)
	assert.Equal(t, 1, res.Summary.Failed)
	assert.Greater(t, res.Summary.Duration, time.Duration(0))
}

func TestValidateBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := Dependency().ValidateBatch(ctx, []interface{}{validDependency(), validDependency()})
	assert.False(t, res.OK)
	assert.Len(t, res.Invalid, 2)
	assert.Empty(t, res.Validated)
}

func TestNewCustom(t *testing.T) {
	v, err := NewCustom("port.schema.json", `{
		"type": "object",
		"required": ["port"],
		"properties": {"port": {"type": "integer", "minimum": 1, "maximum": 65535}}
	}`)
	require.NoError(t, err)

	assert.True(t, v.Validate(map[string]interface{}{"port": float64(8080)}).OK)

	res := v.Validate(map[string]interface{}{"port": float64(0)})
	require.False(t, res.OK)
	assert.Contains(t, pathsOf(res.Errors), "/port")
}

func TestNewCustomRejectsBadSchema(t *testing.T) {
	_, err := NewCustom("broken.json", `{"type": 42}`)
	assert.Error(t, err)
}

func TestStructRecordRoundTrip(t *testing.T) {
	type dep struct {
		ID string `json:"id"`
	}
	res := Dependency().Validate(dep{ID: "dep-x"})
	require.False(t, res.OK)
	// Struct is marshalled then validated; missing fields are reported.
	assert.Contains(t, pathsOf(res.Errors), "/name")
}
