package live

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AdamBeresnev/lan-tournament/internal/service"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const publishTimeout = 2 * time.Second

// RedisPublisher forwards events to a redis channel per tournament so stream
// overlays and other servers can follow along.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(url string) (*RedisPublisher, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return &RedisPublisher{client: redis.NewClient(opt)}, nil
}

// Channel is the redis channel carrying the events of a tournament.
func Channel(tournamentID uuid.UUID) string {
	return "lanparty:tournament:" + tournamentID.String()
}

func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func (p *RedisPublisher) Notify(ctx context.Context, e service.Event) {
	payload, err := encode(e)
	if err != nil {
		slog.Error("failed to encode live event", "type", e.Type, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := p.client.Publish(ctx, Channel(e.TournamentID), payload).Err(); err != nil {
		slog.Warn("failed to publish live event", "tournament_id", e.TournamentID, "type", e.Type, "error", err)
	}
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}
