// Package client is the Go client for a ticketmesh booking cluster. It
// hides leader discovery: writes rotate through the configured nodes until
// the leader answers, reads take the first reachable node.
package client
