package probe

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"plus-monitoring/general-healthcheck/pkg/config"
)

type stubProbe struct{ target Target }

func (s *stubProbe) Check(context.Context) error { return nil }
func (s *stubProbe) Close() error                { return nil }

func TestTargetFromConfig(t *testing.T) {
	svc := config.ServiceConfig{
		Type:    config.TypeRabbitMQ,
		FQDN:    "rabbitmq.messaging.svc",
		Port:    5672,
		Timeout: config.Duration(3 * time.Second),
		Authentication: config.AuthConfig{
			Username: "monitor",
			Password: "secret",
			VHost:    "/",
		},
	}

	got := TargetFromConfig("rabbit", svc)
	want := Target{
		Name:     "rabbit",
		Type:     config.TypeRabbitMQ,
		FQDN:     "rabbitmq.messaging.svc",
		Port:     5672,
		Username: "monitor",
		Password: "secret",
		VHost:    "/",
		Timeout:  3 * time.Second,
	}
	if got != want {
		t.Errorf("TargetFromConfig() = %+v, want %+v", got, want)
	}
	if got.Address() != "rabbitmq.messaging.svc:5672" {
		t.Errorf("Address() = %q", got.Address())
	}
}

func TestTarget_AddressIPv6(t *testing.T) {
	target := Target{FQDN: "::1", Port: 6379}
	if got := target.Address(); got != "[::1]:6379" {
		t.Errorf("Address() = %q, want [::1]:6379", got)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register("redis", func(t Target) (Probe, error) { return &stubProbe{target: t}, nil })
	r.Register("broken", func(Target) (Probe, error) { return nil, errors.New("bad target") })

	if got, want := r.Types(), []string{"broken", "redis"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Types() = %v, want %v", got, want)
	}

	tests := []struct {
		name        string
		target      Target
		wantErr     bool
		unsupported bool
	}{
		{"registered type", Target{Name: "cache", Type: "redis"}, false, false},
		{"unknown type", Target{Name: "queue", Type: "kafka"}, true, true},
		{"factory error", Target{Name: "x", Type: "broken"}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := r.New(tt.target)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if errors.Is(err, ErrUnsupportedType) != tt.unsupported {
				t.Errorf("errors.Is(err, ErrUnsupportedType) = %v, want %v", !tt.unsupported, tt.unsupported)
			}
			if !tt.wantErr {
				if sp, ok := p.(*stubProbe); !ok || sp.target != tt.target {
					t.Errorf("factory did not receive target: %#v", p)
				}
			}
		})
	}
}

func TestCheckError(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("check: %w", Fail("rabbit", StagePublish, cause))

	if !errors.Is(err, cause) {
		t.Error("CheckError does not unwrap to its cause")
	}
	if got := StageOf(err); got != StagePublish {
		t.Errorf("StageOf() = %q, want %q", got, StagePublish)
	}
	if got := StageOf(cause); got != "" {
		t.Errorf("StageOf(plain error) = %q, want empty", got)
	}
	if Fail("rabbit", StagePublish, nil) != nil {
		t.Error("Fail(nil) should return nil")
	}

	want := `service "rabbit": publish failed: connection refused`
	var ce *CheckError
	if !errors.As(err, &ce) || ce.Error() != want {
		t.Errorf("Error() = %q, want %q", ce.Error(), want)
	}
}
