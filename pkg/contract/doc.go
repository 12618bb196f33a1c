/*
Package contract declares the provider-independent service contracts.

Fourteen control-plane services manage resource lifecycle; eleven
data-plane clients operate on existing resources at runtime. Every
provider-touching method takes a context and returns value records
from the types package, never provider SDK types. Errors are always
from the errdefs taxonomy.

Adapters for each provider live under pkg/provider; consumers reach
these interfaces through the control and runtime facades.
*/
package contract
