package aws

import (
	"context"
	"errors"
	"net"
	"strings"

	"github.com/aws/smithy-go"

	"github.com/lcplatform/platform/pkg/errdefs"
)

// translate maps an SDK error onto the shared taxonomy. The SDK error
// stays attached as the cause so callers can still unwrap it.
func translate(err error, resource string) error {
	if err == nil {
		return nil
	}
	var e *errdefs.Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errdefs.NewTimeout("%s: deadline exceeded", resource).WithCause(err)
	}
	if errors.Is(err, context.Canceled) {
		return errdefs.NewTimeout("%s: request cancelled", resource).WithCause(err)
	}

	var ae smithy.APIError
	if errors.As(err, &ae) {
		return fromCode(ae.ErrorCode(), ae.ErrorMessage(), resource).WithCause(err)
	}

	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() {
			return errdefs.NewTimeout("%s: network timeout", resource).WithCause(err)
		}
		return errdefs.NewUnavailable("%s: network failure", resource).WithCause(err)
	}

	return errdefs.NewUnavailable("%s: %v", resource, err).WithCause(err)
}

func fromCode(code, message, resource string) *errdefs.Error {
	switch {
	case isNotFoundCode(code):
		return errdefs.NewNotFound(resource, message)
	case isConflictCode(code):
		return errdefs.NewConflict("%s: %s", resource, message)
	case isAuthCode(code):
		return errdefs.NewAuthentication("%s: %s", resource, message)
	case isThrottleCode(code):
		return errdefs.NewUnavailable("%s: %s", resource, message)
	case isTimeoutCode(code):
		return errdefs.NewTimeout("%s: %s", resource, message)
	case isValidationCode(code):
		return errdefs.NewValidation("%s: %s", resource, message)
	default:
		return errdefs.NewUnavailable("%s: %s (%s)", resource, message, code)
	}
}

func isNotFoundCode(code string) bool {
	switch code {
	case "ResourceNotFoundException", "NoSuchBucket", "NoSuchKey", "NotFoundException",
		"NoSuchEntity", "QueueDoesNotExist", "NotFound", "RepositoryNotFoundException",
		"ImageNotFoundException", "CacheClusterNotFound", "CacheClusterNotFoundFault",
		"UserNotFoundException", "NoSuchLifecycleConfiguration", "LifecyclePolicyNotFoundException":
		return true
	}
	return strings.HasSuffix(code, "NotFoundException") || strings.HasSuffix(code, "NotFoundFault")
}

func isConflictCode(code string) bool {
	switch code {
	case "ConditionalCheckFailedException", "ResourceInUseException", "ConflictException",
		"BucketAlreadyExists", "BucketAlreadyOwnedByYou", "BucketNotEmpty",
		"ResourceExistsException", "RepositoryAlreadyExistsException",
		"RepositoryNotEmptyException", "ImageTagAlreadyExistsException",
		"QueueNameExists", "InvalidStateException", "CacheClusterAlreadyExists",
		"CacheClusterAlreadyExistsFault", "UsernameExistsException":
		return true
	}
	return strings.HasSuffix(code, "AlreadyExistsException") || strings.HasSuffix(code, "AlreadyExistsFault")
}

func isAuthCode(code string) bool {
	switch code {
	case "AccessDenied", "AccessDeniedException", "UnauthorizedException",
		"UnrecognizedClientException", "InvalidClientTokenId", "ExpiredToken",
		"ExpiredTokenException", "NotAuthorizedException", "InvalidSignatureException",
		"SignatureDoesNotMatch", "MissingAuthenticationToken":
		return true
	}
	return false
}

func isThrottleCode(code string) bool {
	switch code {
	case "ThrottlingException", "Throttling", "TooManyRequestsException",
		"RequestLimitExceeded", "ProvisionedThroughputExceededException",
		"ServiceUnavailable", "ServiceUnavailableException", "SlowDown",
		"InternalServerError", "InternalServiceError", "InternalFailure",
		"LimitExceededException", "ServiceQuotaExceededException":
		return true
	}
	return false
}

func isTimeoutCode(code string) bool {
	switch code {
	case "RequestTimeout", "RequestTimeoutException", "GatewayTimeoutException":
		return true
	}
	return false
}

func isValidationCode(code string) bool {
	switch code {
	case "ValidationException", "ValidationError", "InvalidParameterException",
		"InvalidParameterValue", "InvalidParameterCombination", "InvalidRequestException",
		"MalformedPolicyDocument", "InvalidArgument", "MissingParameter",
		"InvalidAttributeName", "InvalidLifecyclePolicyException", "BadRequestException":
		return true
	}
	return false
}
