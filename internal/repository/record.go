package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"ipvgo_bridge/internal/domain/game"
)

const (
	liveGameKeyPrefix = "ipvgo:game:"
	liveGameTTL       = 24 * time.Hour
	gamesCollection   = "games"
)

// RecordRepository keeps the game in progress in Redis and finished games in Mongo.
type RecordRepository struct {
	log   *zap.SugaredLogger
	redis *redis.Client
	mongo *mongo.Database
}

func NewRecordRepository(log *zap.SugaredLogger, redis *redis.Client, mongo *mongo.Database) *RecordRepository {
	return &RecordRepository{
		log:   log,
		redis: redis,
		mongo: mongo,
	}
}

func liveGameKey(gameID string) string {
	return liveGameKeyPrefix + gameID
}

func (r *RecordRepository) SaveLiveGame(ctx context.Context, record game.GameRecord) error {
	bytes, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return r.redis.Set(ctx, liveGameKey(record.GameID), bytes, liveGameTTL).Err()
}

func (r *RecordRepository) LoadLiveGame(ctx context.Context, gameID string) (game.GameRecord, error) {
	val, err := r.redis.Get(ctx, liveGameKey(gameID)).Result()
	if err != nil {
		return game.GameRecord{}, fmt.Errorf("failed to load game %s: %w", gameID, err)
	}

	var record game.GameRecord
	if err := json.Unmarshal([]byte(val), &record); err != nil {
		return game.GameRecord{}, err
	}
	return record, nil
}

func (r *RecordRepository) DeleteLiveGame(ctx context.Context, gameID string) error {
	return r.redis.Del(ctx, liveGameKey(gameID)).Err()
}

// ArchiveGame stores a finished game. Without a Mongo database it is a no-op.
func (r *RecordRepository) ArchiveGame(ctx context.Context, record game.GameRecord) error {
	if r.mongo == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := r.mongo.Collection(gamesCollection).InsertOne(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to insert game to database: %w", err)
	}

	r.log.Infof("game archived with id: %s", record.GameID)
	return nil
}
