// Package client implements the invocation pipeline: request assembly,
// cache lookup, retries with classified errors, streaming with hidden
// segment filtering, and response parsing.
//
// A [Client] is built once around a provider and a configuration, then
// serves any number of concurrent [Client.Ask] calls.
package client
