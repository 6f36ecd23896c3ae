// Package probe defines the interface implemented by the backend checks and
// the registry that maps a configured service type to its implementation.
//
// The drivers live in sub-packages (rabbitmq, redis, mysql, postgresql) and
// are wired into a registry by package probefactory.
package probe
