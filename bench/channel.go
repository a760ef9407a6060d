package bench

import (
	"github.com/sarchlab/verikit/sim/hooking"
	"github.com/sarchlab/verikit/txn"
)

// Hook positions of a channel. The item is the transaction.
var (
	HookPosChannelPush = &hooking.HookPos{Name: "ChannelPush"}
	HookPosChannelPop  = &hooking.HookPos{Name: "ChannelPop"}
)

// A Channel is an unbounded FIFO of transactions between two stages. A
// transaction belongs to the stage that popped it.
type Channel struct {
	*hooking.HookableBase

	name  string
	items []*txn.Transaction
}

// NewChannel creates an empty channel.
func NewChannel(name string) *Channel {
	return &Channel{
		HookableBase: hooking.NewHookableBase(),
		name:         name,
	}
}

// Name returns the name of the channel.
func (c *Channel) Name() string {
	return c.name
}

// Push appends a transaction.
func (c *Channel) Push(t *txn.Transaction) {
	c.items = append(c.items, t)

	if c.NumHooks() > 0 {
		c.InvokeHook(hooking.HookCtx{
			Domain: c,
			Pos:    HookPosChannelPush,
			Item:   t,
		})
	}
}

// Pop removes and returns the oldest transaction. It returns nil if the
// channel is empty.
func (c *Channel) Pop() *txn.Transaction {
	if len(c.items) == 0 {
		return nil
	}

	t := c.items[0]
	c.items[0] = nil
	c.items = c.items[1:]

	if c.NumHooks() > 0 {
		c.InvokeHook(hooking.HookCtx{
			Domain: c,
			Pos:    HookPosChannelPop,
			Item:   t,
		})
	}

	return t
}

// Peek returns the oldest transaction without removing it.
func (c *Channel) Peek() *txn.Transaction {
	if len(c.items) == 0 {
		return nil
	}

	return c.items[0]
}

// Size returns the number of transactions in the channel.
func (c *Channel) Size() int {
	return len(c.items)
}
