// Package notifier publishes per-row update notifications to the pub/sub
// bus over a Redis client.
package notifier

import (
	"fmt"
	"net/url"

	"github.com/go-redis/redis/v7"
)

// Notifier publishes JSON payloads to Redis channels. Publish failures are
// swallowed by the caller (the writer); Notifier itself just reports them.
type Notifier struct {
	client *redis.Client
}

// Open parses redisURL (scheme "redis://[:password@]host:port") and
// connects a client to it.
func Open(redisURL string) (*Notifier, error) {
	parsed, err := url.Parse(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	password, _ := parsed.User.Password()

	client := redis.NewClient(&redis.Options{
		Addr:     parsed.Host,
		Password: password,
		DB:       0,
	})
	return &Notifier{client: client}, nil
}

// Close releases the underlying Redis connection.
func (n *Notifier) Close() error {
	return n.client.Close()
}

// Publish sends payload on channel. Channel name is the caller's
// responsibility (see internal/writer's channel-naming table).
func (n *Notifier) Publish(channel string, payload []byte) error {
	return n.client.Publish(channel, payload).Err()
}

const (
	// ChannelTxAccountPrefix channels are named "tx:account:{accounts[0]}".
	ChannelTxAccountPrefix = "tx:account:"
	// ChannelTokenTransferPrefix channels are named "token_transfer:{mint}".
	ChannelTokenTransferPrefix = "token_transfer:"
	// ChannelAccountPrefix channels are named "account:{pubkey}".
	ChannelAccountPrefix = "account:"
)

// TxAccountChannel returns the channel name for a transaction event,
// keyed on its first account (or the empty string if it has none).
func TxAccountChannel(accounts []string) string {
	first := ""
	if len(accounts) > 0 {
		first = accounts[0]
	}
	return ChannelTxAccountPrefix + first
}

// TokenTransferChannel returns the channel name for a token transfer event.
func TokenTransferChannel(mint string) string {
	return ChannelTokenTransferPrefix + mint
}

// AccountChannel returns the channel name for an account state event.
func AccountChannel(pubkey string) string {
	return ChannelAccountPrefix + pubkey
}
