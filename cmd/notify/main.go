package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/shift-exchange/backend/internal/config"
	"github.com/sysu-ecnc-dev/shift-exchange/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-exchange/backend/internal/events"
	"github.com/sysu-ecnc-dev/shift-exchange/backend/internal/repository"
	"github.com/wneessen/go-mail"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// envelope 与发布端的 Event 对应，Data 延迟到根据 Type 分发时再解码
type envelope struct {
	Type domain.EventType `json:"type"`
	Data json.RawMessage  `json:"data"`
}

// notification 一封待发送的通知邮件
type notification struct {
	userID  int64
	subject string
	body    string
}

func main() {
	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	/**********************************************
	 * 读取配置文件
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 连接数据库（用于把事件中的用户 ID 解析成邮箱）
	 **********************************************/
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", slog.String("error", err.Error()))
		return
	}
	defer dbpool.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancelPing()
	if err := dbpool.PingContext(pingCtx); err != nil {
		logger.Error("无法连接到数据库", slog.String("error", err.Error()))
		return
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       0,
	})
	defer rdb.Close()

	repo := repository.NewRepository(cfg, dbpool, rdb)

	/**********************************************
	 * 创建邮件客户端
	 **********************************************/
	client, err := mail.NewClient(cfg.Email.SMTP.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.Email.SMTP.Port),
		mail.WithUsername(cfg.Email.SMTP.Username),
		mail.WithPassword(cfg.Email.SMTP.Password),
	)
	if err != nil {
		logger.Error("无法创建邮件客户端", slog.String("error", err.Error()))
		return
	}
	defer client.Close()

	// 验证邮件客户端是否连接成功
	clientDialCtx, cancelDial := context.WithTimeout(context.Background(), time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second)
	defer cancelDial()
	if err := client.DialWithContext(clientDialCtx); err != nil {
		logger.Error("无法连接到邮件服务器", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * 连接 RabbitMQ
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("无法连接到 RabbitMQ", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	// 创建通道
	ch, err := conn.Channel()
	if err != nil {
		logger.Error("无法创建通道", slog.String("error", err.Error()))
		return
	}
	defer ch.Close()

	// 声明队列
	if err := events.DeclareQueue(ch); err != nil {
		logger.Error("无法声明队列", slog.String("error", err.Error()))
		return
	}

	// 监听 CTRL+C
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// 消费消息
	msgs, err := ch.Consume(
		events.QueueName,
		"",    // 消费者标识，设置为空字符串，表示由 RabbitMQ 自动分配
		false, // 是否自动确认
		false, // 是否独占队列
		false, // 是否禁止消费者接受自己发送的消息，必须设置为 false，因为 RabbitMQ 不支持这个参数
		false, // 是否不等待，等待 RabbitMQ 响应
		nil,   // 额外参数
	)
	if err != nil {
		logger.Error("无法消费消息", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 用于关闭 goroutine 的上下文
	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-msgs:
				logger.Info("收到事件", slog.String("message", string(msg.Body)))

				var ev envelope
				if err := json.Unmarshal(msg.Body, &ev); err != nil {
					logger.Error("事件反序列化失败", slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}

				notifications, err := buildNotifications(ev)
				if err != nil {
					logger.Error("无法构造通知", slog.String("error", err.Error()))
					_ = msg.Nack(false, false)
					continue
				}

				failed := false
				for _, n := range notifications {
					user, err := repo.GetUserByID(n.userID)
					if err != nil {
						// 用户可能已被删除，跳过这一封即可
						logger.Error("无法查询通知对象", slog.Int64("userID", n.userID), slog.String("error", err.Error()))
						continue
					}

					m := mail.NewMsg()
					if err := m.From(cfg.Email.SMTP.Username); err != nil {
						logger.Error("无法设置邮件发件人", slog.String("error", err.Error()))
						failed = true
						break
					}
					if err := m.To(user.Email); err != nil {
						logger.Error("无法设置邮件收件人", slog.String("error", err.Error()))
						failed = true
						break
					}
					m.Subject(n.subject)
					m.SetBodyString(mail.TypeTextPlain, fmt.Sprintf("%s：\n\n%s\n", user.FullName, n.body))

					if err := client.DialAndSend(m); err != nil {
						logger.Error("邮件发送失败", slog.String("error", err.Error()))
						failed = true
						break
					}
				}

				if failed {
					_ = msg.Nack(false, true) // 将消息重新入队
					continue
				}

				_ = msg.Ack(false)
			}
		}
	}()

	// 等待 CTRL+C 信号
	logger.Info("等待事件...（按 CTRL+C 退出）")
	<-sigChan

	// 优雅退出
	slog.Info("正在关闭 notify worker...")
	cancel()
	wg.Wait() // 等待所有 goroutine 完成
	slog.Info("notify worker 已成功关闭")
}

// buildNotifications 根据事件类型展开成一封或多封通知邮件
func buildNotifications(ev envelope) ([]notification, error) {
	switch ev.Type {
	case domain.EventTypeAssignmentChanged:
		var data domain.AssignmentChangedData
		if err := json.Unmarshal(ev.Data, &data); err != nil {
			return nil, err
		}

		var body string
		switch {
		case data.OldStatus == "":
			body = fmt.Sprintf("您被指派到班次「%s」（%s %s-%s），请及时确认。",
				data.ShiftTitle, data.ShiftDate.Format("2006-01-02"), data.StartTime, data.EndTime)
		case data.NewStatus == "":
			body = fmt.Sprintf("您在班次「%s」（%s %s-%s）的指派已被移除。",
				data.ShiftTitle, data.ShiftDate.Format("2006-01-02"), data.StartTime, data.EndTime)
		default:
			body = fmt.Sprintf("您在班次「%s」（%s %s-%s）的指派状态已从 %s 变为 %s。",
				data.ShiftTitle, data.ShiftDate.Format("2006-01-02"), data.StartTime, data.EndTime, data.OldStatus, data.NewStatus)
		}

		return []notification{{userID: data.UserID, subject: "排班通知 - 指派变更", body: body}}, nil

	case domain.EventTypeSwapRequestCreated:
		var data domain.SwapRequestCreatedData
		if err := json.Unmarshal(ev.Data, &data); err != nil {
			return nil, err
		}

		return []notification{{
			userID:  data.RecipientID,
			subject: "排班通知 - 新的换班请求",
			body:    fmt.Sprintf("您收到一条换班请求（编号 %d），请登录系统处理。", data.RequestID),
		}}, nil

	case domain.EventTypeSwapRequestResolved:
		var data domain.SwapRequestResolvedData
		if err := json.Unmarshal(ev.Data, &data); err != nil {
			return nil, err
		}

		outcome := "已被拒绝"
		if data.Outcome == domain.SwapStatusApproved {
			outcome = "已被批准"
		}

		// 发起方需要知道处理结果，接收方会另外收到指派变更通知
		return []notification{{
			userID:  data.RequesterID,
			subject: "排班通知 - 换班请求已处理",
			body:    fmt.Sprintf("您发起的换班请求（编号 %d）%s。", data.RequestID, outcome),
		}}, nil

	case domain.EventTypeShiftDeleted:
		var data domain.ShiftDeletedData
		if err := json.Unmarshal(ev.Data, &data); err != nil {
			return nil, err
		}

		notifications := make([]notification, 0, len(data.AffectedUserIDs))
		for _, userID := range data.AffectedUserIDs {
			notifications = append(notifications, notification{
				userID:  userID,
				subject: "排班通知 - 班次已取消",
				body:    fmt.Sprintf("班次「%s」已被取消，相关指派一并失效。", data.ShiftTitle),
			})
		}
		return notifications, nil

	default:
		return nil, fmt.Errorf("不支持的事件类型: %s", ev.Type)
	}
}
