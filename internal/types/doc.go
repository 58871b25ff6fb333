/*
Package types defines the data shared across reqflow.

# Definitions

Loaded from a collection file and read-only at runtime:
  - Recipe: a templated request definition, keyed by RecipeID
  - Profile: a named map of field values
  - Chain: binds an id to the latest response of a source recipe, with an
    optional JSONPath selector
  - Collection: profiles, chains and recipes together

# Runtime

  - Request: a rendered recipe plus its ResultSlot
  - ResultSlot: written exactly once by the goroutine executing the request,
    read any number of times without blocking
  - Response: status, headers and the fully buffered text body
  - RequestRecord: request, outcome and timing; immutable once stored

# Bodies

Response.ParseBody picks a decoder from the Content-Type header. JSON media
types (and a missing header) decode as JSON; everything else is kept as text.
*/
package types
