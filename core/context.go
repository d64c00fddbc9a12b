package core

import (
	"context"
	"time"
)

// Context is the view an actor has of the runtime while processing one
// message. It is only valid for the duration of the Receive call that
// received it and must not be retained or shared.
type Context struct {
	system  *System
	cell    *cell
	sender  PID
	message Message
}

// Self returns the PID of the current actor.
func (c *Context) Self() PID {
	return c.cell.pid
}

// Sender returns the PID of the message sender. It is the zero PID for
// messages sent from outside any actor.
func (c *Context) Sender() PID {
	return c.sender
}

// Message returns the message being processed.
func (c *Context) Message() Message {
	return c.message
}

// System returns the owning actor system.
func (c *Context) System() *System {
	return c.system
}

// Logger returns the system logger.
func (c *Context) Logger() Logger {
	return c.system.logger
}

// Done is closed when the system shuts down. Behaviors that await
// asynchronous results should select on it so shutdown is not held up.
func (c *Context) Done() <-chan struct{} {
	return c.system.ctx.Done()
}

// Context returns a context.Context tied to the system lifetime.
func (c *Context) Context() context.Context {
	return c.system.ctx
}

// Tell sends a fire-and-forget message with the current actor as sender.
func (c *Context) Tell(to PID, msg Message) {
	c.system.tellFrom(c.cell.pid, to, msg)
}

// Reply sends msg back to the sender of the current message. Without a
// sender the reply goes to dead letters.
func (c *Context) Reply(msg Message) {
	if !c.sender.Valid() {
		c.system.deadLetters.publish(deadLetterNow(PID{}, c.cell.pid, msg, "reply with no sender"))
		return
	}
	c.system.tellFrom(c.cell.pid, c.sender, msg)
}

// Forward resends the current message to another actor, preserving the
// original sender.
func (c *Context) Forward(to PID) {
	c.system.tellFrom(c.sender, to, c.message)
}

// Spawn creates a child actor supervised by the current one.
func (c *Context) Spawn(name string, factory Factory, opts ...SpawnOption) (PID, error) {
	return c.system.spawn(c.cell, name, factory, opts...)
}

// Stop requests termination of another actor.
func (c *Context) Stop(pid PID) {
	c.system.Stop(pid)
}

// StopSelf requests termination of the current actor after this message.
func (c *Context) StopSelf() {
	c.system.Stop(c.cell.pid)
}

// Become replaces the current behavior for subsequent messages. The
// previous behavior is pushed on a stack; Unbecome restores it.
func (c *Context) Become(r Receiver) {
	c.cell.behaviorStack = append(c.cell.behaviorStack, c.cell.receiver)
	c.cell.receiver = r
}

// Unbecome reverts the last Become. With an empty stack it is a no-op.
func (c *Context) Unbecome() {
	n := len(c.cell.behaviorStack)
	if n == 0 {
		return
	}
	c.cell.receiver = c.cell.behaviorStack[n-1]
	c.cell.behaviorStack = c.cell.behaviorStack[:n-1]
}

// Stash sets the current message aside. Stashed messages are not
// redelivered until UnstashAll.
func (c *Context) Stash() {
	c.cell.stash = append(c.cell.stash, Envelope{Message: c.message, Sender: c.sender})
}

// UnstashAll prepends every stashed message, in stash order, ahead of
// the mailbox. They are processed starting with the next slot.
func (c *Context) UnstashAll() {
	if len(c.cell.stash) == 0 {
		return
	}
	c.cell.pending = append(c.cell.pending, c.cell.stash...)
	c.cell.pendingLen.Add(int32(len(c.cell.stash)))
	c.cell.stash = nil
}

// Watch subscribes the current actor to a Terminated notification for
// pid. Watching a dead actor delivers Terminated immediately.
func (c *Context) Watch(pid PID) {
	c.system.watch(pid, c.cell.pid)
}

// Unwatch removes a previous Watch.
func (c *Context) Unwatch(pid PID) {
	c.system.unwatch(pid, c.cell.pid)
}

// ScheduleTell arranges for msg to be sent to the current actor after
// delay. Timeouts are always messages, never interruption; the returned
// cancel function stops an undelivered timer.
func (c *Context) ScheduleTell(delay time.Duration, msg Message) (cancel func()) {
	return c.system.ScheduleTell(delay, c.cell.pid, msg)
}
