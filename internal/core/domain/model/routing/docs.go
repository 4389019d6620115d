// Package routing holds the value types exchanged with a routing calculator:
// the request for one path segment and the legs it returns.
package routing
