package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/driverledger/internal/domain/models"
)

const (
	shiftsCollection  = "shifts"
	configsCollection = "configs"
)

// ErrShiftNotFound is returned when a delete targets a missing shift.
var ErrShiftNotFound = errors.New("shift not found")

// Repository defines the persistence operations for shifts and monthly configs.
type Repository interface {
	InsertShift(ctx context.Context, record models.ShiftRecord) (string, error)
	DeleteShift(ctx context.Context, id string) error
	ListShifts(ctx context.Context, from, to string) ([]models.ShiftRecord, error)
	SubscribeShifts(ctx context.Context, from, to string) (<-chan []models.ShiftRecord, error)
	GetConfig(ctx context.Context, month models.YearMonth) (models.MonthlyConfig, error)
	UpsertConfig(ctx context.Context, month models.YearMonth, cfg models.MonthlyConfig) error
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client *mongo.Client
	dbName string
	logger *zap.Logger
	now    func() time.Time
}

type configDocument struct {
	ID                   string `bson:"_id"`
	models.MonthlyConfig `bson:",inline"`
	UpdatedAt            time.Time `bson:"updatedAt"`
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string, logger *zap.Logger) (*MongoDBRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return newRepository(client, dbName, logger), nil
}

func newRepository(client *mongo.Client, dbName string, logger *zap.Logger) *MongoDBRepository {
	return &MongoDBRepository{
		client: client,
		dbName: dbName,
		logger: logger,
		now:    time.Now,
	}
}

func (r *MongoDBRepository) shifts() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(shiftsCollection)
}

func (r *MongoDBRepository) configs() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(configsCollection)
}

// InsertShift stores a shift and returns its generated id.
func (r *MongoDBRepository) InsertShift(ctx context.Context, record models.ShiftRecord) (string, error) {
	record.ID = ""
	if record.CreatedAt.IsZero() {
		record.CreatedAt = r.now().UTC()
	}
	if record.Type == "" {
		record.Type = models.RecordIncome
	}

	res, err := r.shifts().InsertOne(ctx, record)
	if err != nil {
		return "", fmt.Errorf("failed to insert shift: %w", err)
	}

	switch id := res.InsertedID.(type) {
	case primitive.ObjectID:
		return id.Hex(), nil
	default:
		return fmt.Sprint(id), nil
	}
}

// DeleteShift removes a shift by id.
func (r *MongoDBRepository) DeleteShift(ctx context.Context, id string) error {
	var key interface{} = id
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		key = oid
	}

	res, err := r.shifts().DeleteOne(ctx, bson.M{"_id": key})
	if err != nil {
		return fmt.Errorf("failed to delete shift %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", ErrShiftNotFound, id)
	}
	return nil
}

// ListShifts returns the shifts dated within [from, to], newest first.
func (r *MongoDBRepository) ListShifts(ctx context.Context, from, to string) ([]models.ShiftRecord, error) {
	filter := bson.M{"date": bson.M{"$gte": from, "$lte": to}}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "createdAt", Value: -1}})

	cursor, err := r.shifts().Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}
	defer cursor.Close(ctx)

	shifts := []models.ShiftRecord{}
	if err := cursor.All(ctx, &shifts); err != nil {
		return nil, fmt.Errorf("failed to decode shifts: %w", err)
	}
	return shifts, nil
}

// SubscribeShifts emits the current shifts in [from, to] and re-emits them
// after every change to the collection. The channel closes when ctx ends or
// the change stream fails. Change streams need a replica set.
func (r *MongoDBRepository) SubscribeShifts(ctx context.Context, from, to string) (<-chan []models.ShiftRecord, error) {
	stream, err := r.shifts().Watch(ctx, mongo.Pipeline{})
	if err != nil {
		return nil, fmt.Errorf("failed to watch shifts: %w", err)
	}

	initial, err := r.ListShifts(ctx, from, to)
	if err != nil {
		_ = stream.Close(context.Background())
		return nil, err
	}

	out := make(chan []models.ShiftRecord, 1)
	out <- initial

	go func() {
		defer close(out)
		defer stream.Close(context.Background())

		for stream.Next(ctx) {
			shifts, err := r.ListShifts(ctx, from, to)
			if err != nil {
				r.logger.Warn("reload shifts after change failed", zap.Error(err))
				continue
			}
			select {
			case out <- shifts:
			case <-ctx.Done():
				return
			}
		}

		if err := stream.Err(); err != nil && ctx.Err() == nil {
			r.logger.Error("shift change stream stopped", zap.Error(err))
		}
	}()

	return out, nil
}

// GetConfig returns the month's configuration, falling back to the global
// default document and then to the zero configuration.
func (r *MongoDBRepository) GetConfig(ctx context.Context, month models.YearMonth) (models.MonthlyConfig, error) {
	for _, key := range []string{month.ConfigKey(), models.DefaultConfigKey} {
		var doc configDocument
		err := r.configs().FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			continue
		}
		if err != nil {
			return models.MonthlyConfig{}, fmt.Errorf("failed to load config %s: %w", key, err)
		}
		return normalizeConfig(doc.MonthlyConfig), nil
	}

	r.logger.Debug("no stored config, using defaults", zap.String("month", month.String()))
	return models.DefaultMonthlyConfig(), nil
}

// UpsertConfig replaces the month's configuration document.
func (r *MongoDBRepository) UpsertConfig(ctx context.Context, month models.YearMonth, cfg models.MonthlyConfig) error {
	doc := configDocument{
		ID:            month.ConfigKey(),
		MonthlyConfig: normalizeConfig(cfg),
		UpdatedAt:     r.now().UTC(),
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := r.configs().ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts); err != nil {
		return fmt.Errorf("failed to save config %s: %w", doc.ID, err)
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func normalizeConfig(cfg models.MonthlyConfig) models.MonthlyConfig {
	if cfg.OffDays == nil {
		cfg.OffDays = []int{}
	}
	if cfg.HighDemandDays == nil {
		cfg.HighDemandDays = []int{}
	}
	return cfg
}
