/*
Package errdefs defines the error taxonomy shared by every service
contract.

Six kinds cover the whole surface: validation, not_found,
authentication, unavailable, timeout, and conflict. Adapters translate
provider-specific failures into one of these kinds before returning;
callers classify with the Is* predicates or errors.As.
*/
package errdefs
