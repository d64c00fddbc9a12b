// Package core implements the actor runtime for Loom.
//
// This package provides the basic building blocks including the
// System, PID, mailbox, and supervision components that form the
// foundation of the Loom actor framework. Actors run on a shared
// work-stealing scheduler; each actor processes at most one message
// at a time, and messages from one sender arrive in send order.
package core
