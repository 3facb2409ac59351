package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
)

type job struct {
	Project string  `json:"project"`
	Length  float64 `json:"length"`
}

func TestTypedMessageHandler(t *testing.T) {
	var processed []job
	h := &TypedMessageHandler[job]{
		Validate: func(j *job) bool { return j.Project != "" },
		Process: func(ctx context.Context, j *job) error {
			if j.Length <= 0 {
				return errors.New("bad length")
			}
			processed = append(processed, *j)
			return nil
		},
		AlwaysMark: true,
	}

	cases := []struct {
		name     string
		msg      string
		wantMark bool
		wantErr  bool
	}{
		{"valid", `{"project":"/p","length":10}`, true, false},
		{"garbage is skipped", `not json`, true, false},
		{"invalid is skipped", `{"length":10}`, true, false},
		{"processing failure is retried", `{"project":"/p","length":0}`, false, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			mark, err := h.HandleMessage(context.Background(), []byte(c.msg))
			if mark != c.wantMark || (err != nil) != c.wantErr {
				t.Fatalf("HandleMessage = %v, %v; want mark=%v err=%v", mark, err, c.wantMark, c.wantErr)
			}
		})
	}
	if len(processed) != 1 || processed[0].Project != "/p" {
		t.Fatalf("processed = %+v", processed)
	}
}

func TestProducerPublish(t *testing.T) {
	mp := mocks.NewSyncProducer(t, nil)
	mp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var got job
		if err := json.Unmarshal(val, &got); err != nil {
			return err
		}
		if got.Project != "/p" || got.Length != 12 {
			return fmt.Errorf("unexpected message %s", val)
		}
		return nil
	})
	mp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	p := newProducer(mp, "render-results", nil)
	if err := p.Publish(context.Background(), "run-1", job{Project: "/p", Length: 12}); err != nil {
		t.Fatalf("Publish error: %v", err)
	}
	if err := p.Publish(context.Background(), "run-2", job{Project: "/p", Length: 1}); !errors.Is(err, sarama.ErrOutOfBrokers) {
		t.Fatalf("Publish err = %v; want ErrOutOfBrokers", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Publish(ctx, "run-3", job{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Publish on canceled ctx = %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
}
