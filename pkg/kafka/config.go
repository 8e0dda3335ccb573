package kafka

import "time"

// Config holds Kafka connection configuration
type Config struct {
	Brokers      []string
	ClientID     string
	BatchSize    int
	BatchTimeout time.Duration
	RequiredAcks int
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig(clientID string) *Config {
	return &Config{
		Brokers:      []string{"localhost:9092"},
		ClientID:     clientID,
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: -1,
	}
}
