/*
Package types defines the provider-independent data model exchanged
through every service contract.

All types are plain value records: no behavior beyond trivial helpers,
no provider SDK types, opaque string identifiers, absolute timestamps.
Entities returned by adapters are value copies; callers never share
mutable handles with the library.

The package covers:

  - Provider selection and options (ProviderConfig)
  - Web hosting, serverless functions, batch jobs
  - Queues, topics, event buses
  - Secrets, configuration, object storage, documents, relational data
  - Authentication artifacts (tokens, claims, user info)
  - Cache clusters and container repositories
  - Application dependency descriptors
*/
package types
