// Package sink fans decoded frames out to durable storage and an
// optional live visualization feed, without ever blocking the
// acquisition path that produced them.
package sink
