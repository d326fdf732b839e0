package port

import "context"

// CartStorage is a durable key-value cell holding serialized carts.
type CartStorage interface {
	// Read returns ok=false when the key has never been written.
	Read(ctx context.Context, key string) (value string, ok bool, err error)

	// Write replaces the value stored under key.
	Write(ctx context.Context, key, value string) error
}
