package nats

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/shogunhq/shogun/internal/logger"
	"github.com/shogunhq/shogun/internal/port/messagequeue"
	"github.com/shogunhq/shogun/internal/resilience"
)

const waitTimeout = 10 * time.Second

// testConnect connects to NATS or skips the test if NATS_URL is not set.
func testConnect(t *testing.T) *Queue {
	t.Helper()

	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("requires NATS_URL")
	}

	q, err := Connect(context.Background(), url)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() {
		if err := q.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return q
}

// delivery is one message seen by a Queue handler.
type delivery struct {
	data      []byte
	requestID string
}

// deliveriesFor subscribes through Queue.Subscribe and forwards messages
// whose payload names id in field. Other traffic on the shared subject is
// acked and ignored.
func deliveriesFor(t *testing.T, q *Queue, subject, field, id string) <-chan delivery {
	t.Helper()
	out := make(chan delivery, 1)
	stop, err := q.Subscribe(context.Background(), subject, func(ctx context.Context, _ string, data []byte) error {
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil || m[field] != id {
			return nil
		}
		select {
		case out <- delivery{data: data, requestID: logger.RequestID(ctx)}:
		default:
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe %s: %v", subject, err)
	}
	t.Cleanup(stop)
	return out
}

// deadLetters reads the dead letter subject of subject with a raw consumer,
// so the payload is not run through validation again.
func deadLetters(t *testing.T, q *Queue, subject string) <-chan []byte {
	t.Helper()
	ctx := context.Background()
	consumer, err := q.js.CreateOrUpdateConsumer(ctx, streamName, jetstream.ConsumerConfig{
		FilterSubject: subject + dlqSuffix,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverNewPolicy,
	})
	if err != nil {
		t.Fatalf("create dead letter consumer: %v", err)
	}
	out := make(chan []byte, 16)
	sub, err := consumer.Consume(func(msg jetstream.Msg) {
		select {
		case out <- msg.Data():
		default:
		}
		_ = msg.Ack()
	})
	if err != nil {
		t.Fatalf("consume dead letters: %v", err)
	}
	t.Cleanup(sub.Stop)
	return out
}

// awaitDeadLetter waits for a dead letter for which match reports true.
func awaitDeadLetter(t *testing.T, ch <-chan []byte, match func([]byte) bool) []byte {
	t.Helper()
	deadline := time.After(waitTimeout)
	for {
		select {
		case data := <-ch:
			if match(data) {
				return data
			}
		case <-deadline:
			t.Fatal("timed out waiting for dead letter")
			return nil
		}
	}
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func TestQueue_DeliversFlowEvents(t *testing.T) {
	q := testConnect(t)
	now := time.Now().UTC().Truncate(time.Second)

	tests := []struct {
		subject string
		field   string
		payload func(id string) any
	}{
		{
			subject: messagequeue.SubjectOnboardingCreated,
			field:   "application_id",
			payload: func(id string) any {
				return messagequeue.OnboardingCreatedPayload{
					ApplicationID: id,
					InitiatedBy:   uuid.NewString(),
					BusinessName:  "Acme Corp",
					CountryCode:   "NG",
					CreatedAt:     now,
				}
			},
		},
		{
			subject: messagequeue.SubjectOnboardingVerified,
			field:   "application_id",
			payload: func(id string) any {
				return messagequeue.OnboardingVerifiedPayload{ApplicationID: id, VerifiedAt: now}
			},
		},
		{
			subject: messagequeue.SubjectTenantProvisioned,
			field:   "tenant_id",
			payload: func(id string) any {
				return messagequeue.TenantProvisionedPayload{
					TenantID:      id,
					ApplicationID: uuid.NewString(),
					SchemaName:    "acme corp",
					Domain:        "acme-corp.localhost",
					OwnerID:       uuid.NewString(),
					MembershipID:  uuid.NewString(),
					LedgerID:      uuid.NewString(),
					ProvisionedAt: now,
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.subject, func(t *testing.T) {
			id := uuid.NewString()
			reqID := "req-" + id[:8]
			got := deliveriesFor(t, q, tt.subject, tt.field, id)

			want := mustJSON(t, tt.payload(id))
			ctx := logger.WithRequestID(context.Background(), reqID)
			if err := q.Publish(ctx, tt.subject, want); err != nil {
				t.Fatalf("Publish: %v", err)
			}

			select {
			case d := <-got:
				if string(d.data) != string(want) {
					t.Errorf("payload = %s, want %s", d.data, want)
				}
				if d.requestID != reqID {
					t.Errorf("request ID = %q, want %q", d.requestID, reqID)
				}
			case <-time.After(waitTimeout):
				t.Fatal("timed out waiting for delivery")
			}
		})
	}
}

func TestQueue_InvalidPayloadDeadLettered(t *testing.T) {
	q := testConnect(t)

	marker := uuid.NewString()
	tests := []struct {
		name    string
		subject string
		data    []byte
	}{
		{
			name:    "not json",
			subject: messagequeue.SubjectOnboardingCreated,
			data:    []byte("not-json " + marker),
		},
		{
			name:    "provisioned without tenant id",
			subject: messagequeue.SubjectTenantProvisioned,
			data:    []byte(`{"schema_name":"acme corp","application_id":"` + marker + `"}`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dead := deadLetters(t, q, tt.subject)
			stop, err := q.Subscribe(context.Background(), tt.subject, func(context.Context, string, []byte) error {
				return nil
			})
			if err != nil {
				t.Fatalf("Subscribe: %v", err)
			}
			t.Cleanup(stop)

			if err := q.Publish(context.Background(), tt.subject, tt.data); err != nil {
				t.Fatalf("Publish: %v", err)
			}
			awaitDeadLetter(t, dead, func(data []byte) bool { return string(data) == string(tt.data) })
		})
	}
}

func TestQueue_ExhaustedRetriesDeadLettered(t *testing.T) {
	q := testConnect(t)
	ctx := context.Background()
	subject := messagequeue.SubjectTenantProvisioned
	tenantID := uuid.NewString()

	dead := deadLetters(t, q, subject)
	stop, err := q.Subscribe(ctx, subject, func(_ context.Context, _ string, data []byte) error {
		var p messagequeue.TenantProvisionedPayload
		if err := json.Unmarshal(data, &p); err == nil && p.TenantID == tenantID {
			return errCacheDown
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	t.Cleanup(stop)

	// A delivery that already used up its retries goes to the dead letter
	// subject on the next handler failure.
	msg := &nats.Msg{
		Subject: subject,
		Data: mustJSON(t, messagequeue.TenantProvisionedPayload{
			TenantID:   tenantID,
			SchemaName: "acme corp",
		}),
		Header: nats.Header{},
	}
	msg.Header.Set(headerRetryCount, "3")
	if _, err := q.js.PublishMsg(ctx, msg); err != nil {
		t.Fatalf("PublishMsg: %v", err)
	}

	awaitDeadLetter(t, dead, func(data []byte) bool {
		var p messagequeue.TenantProvisionedPayload
		return json.Unmarshal(data, &p) == nil && p.TenantID == tenantID
	})
}

func TestQueue_KeyValueHoldsTenantDetails(t *testing.T) {
	q := testConnect(t)
	ctx := context.Background()

	kv, err := q.KeyValue(ctx, "shogun-test-"+uuid.NewString()[:8], 30*time.Second)
	if err != nil {
		t.Fatalf("KeyValue: %v", err)
	}

	key := "tenant." + uuid.NewString()
	details := []byte(`{"tenant":{"schema_name":"acme corp"}}`)
	if _, err := kv.Put(ctx, key, details); err != nil {
		t.Fatalf("Put: %v", err)
	}
	entry, err := kv.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(entry.Value()) != string(details) {
		t.Errorf("value = %s, want %s", entry.Value(), details)
	}

	if err := kv.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := kv.Get(ctx, key); !errors.Is(err, jetstream.ErrKeyNotFound) {
		t.Errorf("Get after Delete error = %v, want ErrKeyNotFound", err)
	}
}

func TestQueue_IsConnected(t *testing.T) {
	q := testConnect(t)

	if !q.IsConnected() {
		t.Error("IsConnected() = false after Connect, want true")
	}
}

func TestRetryCount(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
	}{
		{name: "missing", value: "", want: 0},
		{name: "number", value: "2", want: 2},
		{name: "garbage", value: "two", want: 0},
		{name: "negative", value: "-1", want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := nats.Header{}
			if tt.value != "" {
				h.Set(headerRetryCount, tt.value)
			}
			if got := retryCount(h); got != tt.want {
				t.Errorf("retryCount = %d, want %d", got, tt.want)
			}
		})
	}
}

var errCacheDown = errors.New("tenant cache unavailable")

func TestQueue_PublishBreakerOpen(t *testing.T) {
	b := resilience.NewBreaker(1, time.Hour)
	_ = b.Execute(func() error { return errors.New("boom") })

	q := &Queue{breaker: b}
	err := q.Publish(context.Background(), messagequeue.SubjectTenantProvisioned, []byte(`{}`))
	if !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("Publish() error = %v, want ErrCircuitOpen", err)
	}
}
