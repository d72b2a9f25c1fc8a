package notifier

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"app/internal/domain/model"

	amqp "github.com/rabbitmq/amqp091-go"
)

const exchangeName = "pos.notifications"

// AMQPのfanout exchangeへ通知を流す。配信保証はat-most-once。
type AMQPBroadcaster struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	mu   sync.Mutex
}

func Dial(url string) (*AMQPBroadcaster, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	//接続ごとに宣言。既存なら何も起きない。
	err = ch.ExchangeDeclare(exchangeName, "fanout", true, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	return &AMQPBroadcaster{conn: conn, ch: ch}, nil
}

// Broadcastは失敗しても呼び出し元のリクエストを失敗させない。ログだけ残す。
func (b *AMQPBroadcaster) Broadcast(ctx context.Context, n model.Notification) {
	body, err := json.Marshal(n)
	if err != nil {
		log.Printf("notifier: marshal failed: %v", err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	err = b.ch.PublishWithContext(ctx, exchangeName, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		log.Printf("notifier: publish failed: %v", err)
	}
}

func (b *AMQPBroadcaster) Close() {
	if b.ch != nil {
		_ = b.ch.Close()
	}
	if b.conn != nil {
		_ = b.conn.Close()
	}
}
