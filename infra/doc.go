// Package infra contains technical adapters: the CoE transport, the
// booking-service client, the MQTT mirror and metrics exporters. These
// packages depend only on the interfaces defined in the core packages.
package infra
