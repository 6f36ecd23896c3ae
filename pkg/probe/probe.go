package probe

import (
	"context"
	"net"
	"strconv"
	"time"

	"plus-monitoring/general-healthcheck/pkg/config"
)

// Probe checks one backend. Implementations keep their connection between
// calls and reconnect on their own when it breaks.
//
// Check must honour ctx cancellation. A nil error means every step of the
// check succeeded; failures should be reported as *CheckError.
type Probe interface {
	Check(ctx context.Context) error
	Close() error
}

// Target is everything a probe needs to reach its backend.
type Target struct {
	// Name is the configured service name
	Name string

	// Type is the backend type, one of the config.Type* constants
	Type string

	FQDN string
	Port int

	Username string
	Password string

	// Database is the database name, or the index for redis
	Database string

	// VHost is the RabbitMQ virtual host
	VHost string

	// Timeout bounds a single check
	Timeout time.Duration
}

// TargetFromConfig builds a Target for a configured service.
func TargetFromConfig(name string, svc config.ServiceConfig) Target {
	return Target{
		Name:     name,
		Type:     svc.Type,
		FQDN:     svc.FQDN,
		Port:     svc.Port,
		Username: svc.Authentication.Username,
		Password: svc.Authentication.Password,
		Database: svc.Authentication.DB,
		VHost:    svc.Authentication.VHost,
		Timeout:  svc.Timeout.Std(),
	}
}

// Address returns host:port.
func (t Target) Address() string {
	return net.JoinHostPort(t.FQDN, strconv.Itoa(t.Port))
}
