package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kmatek/photoalbum-api/internal/model"
	"github.com/kmatek/photoalbum-api/pkg/mailer"
)

const EmailQueueKey = "email_queue"

type EmailTask struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Notifier builds activation/reset messages and hands them off for
// asynchronous delivery. Sends never block or fail the calling operation.
type Notifier interface {
	SendActivation(ctx context.Context, user *model.User)
	SendPasswordReset(ctx context.Context, user *model.User, token string)
	StartWorker(ctx context.Context)
}

type notifier struct {
	redisClient *redis.Client
	mailer      mailer.Mailer
	codec       *TokenCodec
	siteDomain  string
	suspended   bool
}

// NewNotifier creates the email notifier. When suspended is set every send is
// silently dropped; nothing else changes.
func NewNotifier(redisClient *redis.Client, m mailer.Mailer, codec *TokenCodec, siteDomain string, suspended bool) Notifier {
	return &notifier{
		redisClient: redisClient,
		mailer:      m,
		codec:       codec,
		siteDomain:  siteDomain,
		suspended:   suspended,
	}
}

func (n *notifier) SendActivation(ctx context.Context, user *model.User) {
	link := fmt.Sprintf("%s/api/users/activate/%s/%s",
		n.siteDomain, n.codec.EncodeUserID(user.ID), user.ActivationToken)

	body := fmt.Sprintf(
		"Hi %s,\n\nActivate your account by clicking the link below:\n\n%s\n",
		user.Name, link)

	n.dispatch(ctx, EmailTask{
		To:      user.Email,
		Subject: "Activate account",
		Body:    body,
	})
}

func (n *notifier) SendPasswordReset(ctx context.Context, user *model.User, token string) {
	link := fmt.Sprintf("%s/reset-password-confirm?user_id=%s&token=%s",
		n.siteDomain, n.codec.EncodeUserID(user.ID), token)

	body := fmt.Sprintf(
		"Hi %s,\n\nReset your password by clicking the link below:\n\n%s\n\nThe link expires in one hour.\n",
		user.Name, link)

	n.dispatch(ctx, EmailTask{
		To:      user.Email,
		Subject: "Reset password",
		Body:    body,
	})
}

func (n *notifier) dispatch(ctx context.Context, task EmailTask) {
	if n.suspended {
		return
	}

	if n.redisClient == nil {
		// No queue available, deliver in the background instead.
		go n.deliver(task)
		return
	}

	bytes, err := json.Marshal(task)
	if err != nil {
		log.Printf("Failed to marshal email task: %v", err)
		return
	}

	if err := n.redisClient.RPush(ctx, EmailQueueKey, bytes).Err(); err != nil {
		log.Printf("Failed to queue email to %s: %v", task.To, err)
	}
}

func (n *notifier) deliver(task EmailTask) {
	if err := n.mailer.Send(task.To, task.Subject, task.Body); err != nil {
		log.Printf("Failed to send email to %s: %v", task.To, err)
	}
}

// StartWorker consumes the email queue until the context is cancelled.
func (n *notifier) StartWorker(ctx context.Context) {
	log.Println("Email worker started...")
	for {
		res, err := n.redisClient.BLPop(ctx, 0, EmailQueueKey).Result()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("Redis BLPOP error: %v, retrying in 1s...", err)
			time.Sleep(1 * time.Second)
			continue
		}

		// res[0] is key, res[1] is value
		if len(res) < 2 {
			continue
		}

		var task EmailTask
		if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
			log.Printf("Invalid email task json: %v", err)
			continue
		}

		n.deliver(task)
	}
}
