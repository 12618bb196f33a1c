// Package aws adapts the service contracts to AWS. Adapters are thin
// translations: each operation validates its input, calls the SDK,
// translates errors onto the shared taxonomy, and maps SDK shapes to
// the portable types. Relational access goes through database/sql and
// the postgres driver; the data-plane cache client speaks Redis
// directly. Authentication follows OIDC discovery with JWKS
// verification, falling back to the Cognito user-pool API where a
// pool publishes no userinfo or revocation endpoint.
package aws
