/*
Package template renders {{ key }} placeholders in recipe strings.

Keys take one of three shapes:

	{{ name }}          field: overrides first, then the active profile
	{{ chains.<id> }}   chain: latest response of the chain's source recipe
	{{ env.<NAME> }}    process environment variable

A chain without a path yields the stored body verbatim. With a path, the body
must be JSON and the JSONPath expression must select exactly one node; string
nodes render unquoted, anything else as compact JSON.

RenderBorrow reports failures as *BorrowedError, whose strings point into the
template and context so the caller can highlight the failing span. Render
returns the owned *Error for anything that outlives the call.
*/
package template
