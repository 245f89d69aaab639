// Package messaging provides a broker-agnostic API for publishing and
// consuming domain events.
//
// Drivers exist for NATS, Kafka, NSQ and Google Pub/Sub plus an in-process
// memory broker for tests and single-node development. Use cases depend on
// Publisher and inbound adapters on Consumer, so the broker is picked in
// configuration (messaging.driver) without code changes.
package messaging
