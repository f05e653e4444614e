package eventsourcing

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
)

// queuedCommand represents a command enqueued in the command bus for
// processing, together with the caller's context and a response channel.
type queuedCommand struct {
	Ctx        context.Context
	Command    Command
	ResponseCh chan<- commandResult
}

// commandResult carries the AppendResult and any error back to the dispatcher.
type commandResult struct {
	Result AppendResult
	Err    error
}

// CommandBus is an in-memory, type-safe command dispatcher.
//
// Commands are routed to a shard by hashing the aggregate id, and each shard
// is drained by a single worker goroutine. Commands against the same
// aggregate therefore execute strictly one at a time, while different
// aggregates proceed in parallel. This is the single-writer discipline the
// aggregates rely on for their consistency.
//
// The CommandBus supports:
//   - Enqueuing commands for processing with a synchronous reply
//   - Typed command registration using generics
//   - Safe shutdown that waits for in-flight commands to complete
//   - Panic recovery in handlers to prevent the bus from crashing
type CommandBus struct {
	handlers   map[string]func(ctx context.Context, command Command) (AppendResult, error)
	queues     []chan queuedCommand
	stopCh     chan struct{}
	wg         sync.WaitGroup
	mu         sync.RWMutex
	shardCount int
}

// NewCommandBus creates a new CommandBus with the given per-shard queue
// buffer size and shard count. Worker goroutines are started immediately.
func NewCommandBus(bufferSize int, shardCount int) *CommandBus {
	if shardCount <= 0 {
		shardCount = 1
	}

	bus := &CommandBus{
		queues:     make([]chan queuedCommand, shardCount),
		handlers:   make(map[string]func(ctx context.Context, command Command) (AppendResult, error)),
		stopCh:     make(chan struct{}),
		shardCount: shardCount,
	}

	for i := 0; i < shardCount; i++ {
		bus.queues[i] = make(chan queuedCommand, bufferSize)
		go bus.worker(bus.queues[i])
	}

	return bus
}

// Dispatch enqueues a command for processing by the registered handler and
// waits for the result. It is safe to call concurrently. Returns an error
// immediately if the bus has been stopped or the context ends before the
// handler replies.
func (b *CommandBus) Dispatch(ctx context.Context, cmd Command) (AppendResult, error) {
	select {
	case <-b.stopCh:
		return AppendResult{Successful: false}, fmt.Errorf("command bus is stopped")
	default:
	}

	responseCh := make(chan commandResult, 1)
	b.wg.Add(1)
	defer b.wg.Done()

	shard := b.getShard(cmd.AggregateID())

	select {
	case b.queues[shard] <- queuedCommand{Ctx: ctx, Command: cmd, ResponseCh: responseCh}:
		select {
		case result := <-responseCh:
			return result.Result, result.Err
		case <-ctx.Done():
			return AppendResult{Successful: false}, ctx.Err()
		}
	case <-ctx.Done():
		return AppendResult{Successful: false}, ctx.Err()
	}
}

// worker processes commands from a single shard queue.
func (b *CommandBus) worker(queue chan queuedCommand) {
	for cmd := range queue {
		cmdName := fmt.Sprintf("%T", cmd.Command)

		b.mu.RLock()
		h, exists := b.handlers[cmdName]
		b.mu.RUnlock()

		if !exists {
			cmd.ResponseCh <- commandResult{
				Result: AppendResult{Successful: false},
				Err:    fmt.Errorf("no handler for command %s: %w", cmdName, ErrHandlerNotFound),
			}
			continue
		}

		func() {
			defer func() {
				if r := recover(); r != nil {
					cmd.ResponseCh <- commandResult{
						Result: AppendResult{Successful: false},
						Err:    fmt.Errorf("panic in handler: %v", r),
					}
				}
			}()

			res, err := h(cmd.Ctx, cmd.Command)
			cmd.ResponseCh <- commandResult{Result: res, Err: err}
		}()
	}
}

func (b *CommandBus) getShard(aggregateID string) int {
	hash := fnv.New32a()
	hash.Write([]byte(aggregateID))
	return int(hash.Sum32()) % b.shardCount
}

// Register adds a new typed command handler to the bus. The command type name
// is derived automatically, so no registration strings are needed. Panics if
// a handler is already registered for the same command type.
func Register[C Command](b *CommandBus, handler CommandHandler[C]) {
	var zero C
	cmdName := fmt.Sprintf("%T", zero)
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.handlers[cmdName]; exists {
		panic(fmt.Sprintf("handler already registered for command type %s", cmdName))
	}

	b.handlers[cmdName] = func(ctx context.Context, cmd Command) (AppendResult, error) {
		c, ok := cmd.(C)
		if !ok {
			return AppendResult{Successful: false}, fmt.Errorf("expected command type %s but got %T", cmdName, cmd)
		}
		return handler(ctx, c)
	}
}

// Stop shuts down the bus: new dispatches are rejected, the queues are
// closed, and Stop returns once all in-flight commands have finished.
func (b *CommandBus) Stop() {
	close(b.stopCh)
	b.wg.Wait()
	for _, q := range b.queues {
		close(q)
	}
}
