// Package booking coordinates the reservation workflow across the auth
// facade, the payment facade, and the replicated seat catalog. Payments are
// charged before the reservation command is proposed, and the applied state
// machine is the final arbiter of who holds a seat.
package booking
