package aws

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcplatform/platform/pkg/errdefs"
)

func apiError(code, message string) error {
	return &smithy.GenericAPIError{Code: code, Message: message}
}

func TestTranslateAPIErrorCodes(t *testing.T) {
	tests := []struct {
		code  string
		check func(error) bool
		name  string
	}{
		{"ResourceNotFoundException", errdefs.IsNotFound, "not found"},
		{"NoSuchBucket", errdefs.IsNotFound, "no such bucket"},
		{"NoSuchKey", errdefs.IsNotFound, "no such key"},
		{"QueueDoesNotExist", errdefs.IsNotFound, "queue missing"},
		{"RepositoryNotFoundException", errdefs.IsNotFound, "repository missing"},
		{"CacheClusterNotFoundFault", errdefs.IsNotFound, "cluster missing"},
		{"ConditionalCheckFailedException", errdefs.IsConflict, "conditional check"},
		{"BucketNotEmpty", errdefs.IsConflict, "bucket not empty"},
		{"ResourceExistsException", errdefs.IsConflict, "already exists"},
		{"RepositoryAlreadyExistsException", errdefs.IsConflict, "repository exists"},
		{"ResourceInUseException", errdefs.IsConflict, "in use"},
		{"AccessDeniedException", errdefs.IsAuthentication, "access denied"},
		{"NotAuthorizedException", errdefs.IsAuthentication, "not authorized"},
		{"ExpiredTokenException", errdefs.IsAuthentication, "expired token"},
		{"ThrottlingException", errdefs.IsUnavailable, "throttled"},
		{"ServiceUnavailable", errdefs.IsUnavailable, "unavailable"},
		{"ProvisionedThroughputExceededException", errdefs.IsUnavailable, "throughput"},
		{"RequestTimeout", errdefs.IsTimeout, "request timeout"},
		{"ValidationException", errdefs.IsValidation, "validation"},
		{"InvalidParameterValue", errdefs.IsValidation, "invalid parameter"},
		{"MalformedPolicyDocument", errdefs.IsValidation, "malformed policy"},
		{"SomethingNovelException", errdefs.IsUnavailable, "unknown code"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := translate(apiError(tt.code, "boom"), "resource")
			require.Error(t, err)
			assert.True(t, tt.check(err), "code %s mapped to %v", tt.code, err)
		})
	}
}

func TestTranslateSuffixFallbacks(t *testing.T) {
	assert.True(t, errdefs.IsNotFound(translate(apiError("StreamNotFoundException", "x"), "stream")))
	assert.True(t, errdefs.IsConflict(translate(apiError("StreamAlreadyExistsFault", "x"), "stream")))
}

func TestTranslatePreservesCause(t *testing.T) {
	cause := apiError("NoSuchKey", "missing")
	err := translate(cause, "object")
	var ae smithy.APIError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "NoSuchKey", ae.ErrorCode())
}

func TestTranslateContextErrors(t *testing.T) {
	wrapped := fmt.Errorf("call failed: %w", context.DeadlineExceeded)
	assert.True(t, errdefs.IsTimeout(translate(wrapped, "queue")))
	assert.True(t, errdefs.IsTimeout(translate(context.Canceled, "queue")))
}

func TestTranslateNil(t *testing.T) {
	assert.NoError(t, translate(nil, "resource"))
}

func TestTranslatePassesThroughTaxonomy(t *testing.T) {
	orig := errdefs.NewNotFound("secret", "app/db")
	assert.Same(t, orig, translate(orig, "secret").(*errdefs.Error))
}

func TestTranslateUnknownError(t *testing.T) {
	err := translate(errors.New("wire torn"), "bus")
	assert.True(t, errdefs.IsUnavailable(err))
}
