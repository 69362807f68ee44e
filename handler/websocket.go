package handler

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"ertib_delivery/config"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const orderFeedChannel = "orders:feed"

var (
	redisClient *redis.Client
	redisOnce   sync.Once

	feedClients = make(map[*websocket.Conn]bool)
	feedMu      sync.Mutex
)

func getRedis() *redis.Client {
	redisOnce.Do(func() {
		redisClient = redis.NewClient(&redis.Options{
			Addr: config.ConfigDefault("REDIS_ADDR", "localhost:6379"),
		})
	})
	return redisClient
}

// PublishOrderEvent đẩy sự kiện đơn hàng lên Redis cho dashboard admin.
// Redis chết thì chỉ log, không được ảnh hưởng flow đặt đơn.
func PublishOrderEvent(event fiber.Map) {
	payload, err := json.Marshal(event)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := getRedis().Publish(ctx, orderFeedChannel, payload).Err(); err != nil {
		log.Printf("Lỗi publish order event: %v", err)
	}
}

// OrderFeedWebsocket cho dashboard admin theo dõi đơn mới realtime
func OrderFeedWebsocket(c *websocket.Conn) {
	defer func() {
		feedMu.Lock()
		delete(feedClients, c)
		feedMu.Unlock()
		c.Close()
	}()

	feedMu.Lock()
	feedClients[c] = true
	feedMu.Unlock()

	pubsub := getRedis().Subscribe(context.Background(), orderFeedChannel)
	defer pubsub.Close()

	channel := pubsub.Channel()

	for msg := range channel {
		payload := []byte(msg.Payload)

		feedMu.Lock()
		for conn := range feedClients {
			// Client lỗi thì xóa luôn
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				conn.Close()
				delete(feedClients, conn)
			}
		}
		feedMu.Unlock()
	}
}
