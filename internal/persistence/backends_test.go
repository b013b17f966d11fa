package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/petrijr/flowkit/internal/testutil"
)

const redisPrefix = "flowkit:test:"

type RedisStoreTestSuite struct {
	suite.Suite
	client *redis.Client
	store  *RedisFlowStore
}

func TestRedisTestSuite(t *testing.T) {
	endpoint := testutil.StartRedisContainer(t)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() {
		_ = client.Close()
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("redis ping failed: %v", err)
	}

	suite.Run(t, &RedisStoreTestSuite{
		client: client,
		store:  NewRedisFlowStore(client, redisPrefix),
	})
}

func (r *RedisStoreTestSuite) SetupTest() {
	ctx := context.Background()

	// Clean up all keys with this prefix.
	iter := r.client.Scan(ctx, 0, redisPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		err := r.client.Del(ctx, iter.Val()).Err()
		r.NoErrorf(err, "redis DEL %q failed: %v", iter.Val(), err)
	}
	r.NoError(iter.Err(), "redis SCAN failed")
}

func (r *RedisStoreTestSuite) TestContract() {
	testFlowStore(r.T(), r.store)
}

func (r *RedisStoreTestSuite) TestDeleteRemovesIndexEntry() {
	ctx := context.Background()
	f, err := r.store.CreateFlow(ctx, "indexed")
	r.Require().NoError(err)

	n, err := r.client.ZCard(ctx, r.store.keyIndex()).Result()
	r.Require().NoError(err)
	r.Equal(int64(1), n)

	r.Require().NoError(r.store.DeleteFlow(ctx, f.ID))
	n, err = r.client.ZCard(ctx, r.store.keyIndex()).Result()
	r.Require().NoError(err)
	r.Equal(int64(0), n)
}

type PostgresStoreTestSuite struct {
	suite.Suite
	db    *sql.DB
	store *PostgresFlowStore
}

func TestPostgresTestSuite(t *testing.T) {
	dsn := testutil.StartPostgresContainer(t)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("sql.Open failed: %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	store, err := NewPostgresFlowStore(db)
	if err != nil {
		t.Fatalf("NewPostgresFlowStore failed: %v", err)
	}
	suite.Run(t, &PostgresStoreTestSuite{db: db, store: store})
}

func (p *PostgresStoreTestSuite) SetupTest() {
	_, err := p.db.Exec(`TRUNCATE flows`)
	p.Require().NoError(err)
}

func (p *PostgresStoreTestSuite) TestContract() {
	testFlowStore(p.T(), p.store)
}

type MongoDBStoreTestSuite struct {
	suite.Suite
	client *mongo.Client
	store  *MongoFlowStore
}

func TestMongoDBTestSuite(t *testing.T) {
	uri := testutil.StartMongoContainer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("mongo.Connect failed: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Disconnect(context.Background())
	})
	if err := client.Ping(ctx, nil); err != nil {
		t.Fatalf("mongo ping failed: %v", err)
	}

	suite.Run(t, &MongoDBStoreTestSuite{
		client: client,
		store:  NewMongoFlowStore(client, "flowkit_test", "flows"),
	})
}

func (m *MongoDBStoreTestSuite) SetupTest() {
	err := m.client.Database("flowkit_test").Collection("flows").Drop(context.Background())
	m.Require().NoError(err)
}

func (m *MongoDBStoreTestSuite) TestContract() {
	testFlowStore(m.T(), m.store)
}
