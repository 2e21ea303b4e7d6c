package events

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/shift-exchange/backend/internal/config"
	"github.com/sysu-ecnc-dev/shift-exchange/backend/internal/domain"
)

// QueueName 领域事件队列，由 cmd/notify 消费
const QueueName = "notification_queue"

// DeclareQueue 声明事件队列，生产方和消费方都要调用以保证队列存在
func DeclareQueue(ch *amqp.Channel) error {
	_, err := ch.QueueDeclare(
		QueueName,
		true,  // 持久化
		false, // 没有消费者时不自动删除
		false, // 非独占
		false, // 等待 RabbitMQ 确认
		nil,
	)
	return err
}

// Publisher 把领域事件以 JSON 形式发布到事件队列
type Publisher struct {
	cfg *config.Config
	ch  *amqp.Channel
}

func NewPublisher(cfg *config.Config, ch *amqp.Channel) *Publisher {
	return &Publisher{
		cfg: cfg,
		ch:  ch,
	}
}

func (p *Publisher) Publish(event domain.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(p.cfg.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(ctx,
		"",        // 默认交换机
		QueueName, // 路由键即队列名
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}
