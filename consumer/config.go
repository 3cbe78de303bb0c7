package consumer

import (
	"errors"
	"time"
)

type SubscriptionType int

const (
	SubscriptionExclusive SubscriptionType = iota
	SubscriptionShared
	SubscriptionFailover
	SubscriptionKeyShared
)

type SubscriptionMode int

const (
	SubscriptionDurable SubscriptionMode = iota
	SubscriptionNonDurable
)

type InitialPosition int

const (
	InitialPositionLatest InitialPosition = iota
	InitialPositionEarliest
)

type BatchReceivePolicy struct {
	MaxNumMessages int
	MaxNumBytes    int
	Timeout        time.Duration
}

func (p *BatchReceivePolicy) setDefaults() {
	if p.MaxNumMessages == 0 {
		p.MaxNumMessages = 100
	}
	if p.MaxNumBytes == 0 {
		p.MaxNumBytes = 10 * 1024 * 1024
	}
	if p.Timeout == 0 {
		p.Timeout = 100 * time.Millisecond
	}
}

type KeySharedPolicy struct {
	// Opaque passthrough to the Subscribe frame; broker-side semantics
	// only (§ SUPPLEMENTAL FEATURES).
	Mode   int
	Ranges []KeySharedRange
}

type KeySharedRange struct {
	Start, End int
}

type DeadLetterConfig struct {
	Enabled            bool   `yaml:"enabled"`
	MaxRedeliveryCount uint32 `yaml:"max_redelivery_count"`
	DeadLetterTopic    string `yaml:"dead_letter_topic"`
}

// Config is the consumer's configuration (§6). Loaded via yaml.v3 by the
// façade, the way internal/config.Config is in the teacher repo.
type Config struct {
	Topic            string           `yaml:"topic"`
	SubscriptionName string           `yaml:"subscription_name"`
	Type             SubscriptionType `yaml:"subscription_type"`
	Mode             SubscriptionMode `yaml:"subscription_mode"`
	InitialPosition  InitialPosition  `yaml:"initial_position"`

	ReceiverQueueSize int32 `yaml:"receiver_queue_size"`

	AckTimeout             time.Duration `yaml:"ack_timeout"`
	AckTimeoutTickTime     time.Duration `yaml:"ack_timeout_tick_time"`
	AcknowledgementsGroupTime time.Duration `yaml:"acknowledgements_group_time"`

	NegativeAckRedeliveryDelay time.Duration `yaml:"negative_ack_redelivery_delay"`

	ReadCompacted    bool `yaml:"read_compacted"`
	ResetIncludeHead bool `yaml:"reset_include_head"`

	DeadLetter DeadLetterConfig `yaml:"dead_letters_processor"`

	KeySharedPolicy *KeySharedPolicy `yaml:"-"`

	BatchReceivePolicy BatchReceivePolicy `yaml:"batch_receive_policy"`

	AutoUpdatePartitions bool `yaml:"auto_update_partitions"`

	OperationTimeout time.Duration `yaml:"operation_timeout"`

	StartMessageID           *MessageID    `yaml:"-"`
	StartMessageRollbackDuration time.Duration `yaml:"start_message_rollback_duration"`
}

var (
	ErrEmptyTopic            = errors.New("empty topic")
	ErrEmptySubscriptionName = errors.New("empty subscription name")
)

// ValidateAndSetDefaults mirrors client.SubscriberConfig.ValidateAndSetDefaults
// in the teacher repo: validate required fields, then fill in defaults.
func (c *Config) ValidateAndSetDefaults() error {
	if c.Topic == "" {
		return ErrEmptyTopic
	}
	if c.SubscriptionName == "" {
		return ErrEmptySubscriptionName
	}

	if c.ReceiverQueueSize == 0 {
		c.ReceiverQueueSize = 1000
	}
	if c.OperationTimeout == 0 {
		c.OperationTimeout = 30 * time.Second
	}
	if c.NegativeAckRedeliveryDelay == 0 {
		c.NegativeAckRedeliveryDelay = 1 * time.Minute
	}
	if c.StartMessageRollbackDuration == 0 {
		c.StartMessageRollbackDuration = 0
	}

	c.BatchReceivePolicy.setDefaults()

	// §9 open question: non-durable + no start message id sends a null id
	// on Subscribe with implicit broker semantics. We surface this at
	// construction instead of leaving it implicit on the wire.
	if c.Mode == SubscriptionNonDurable && c.StartMessageID == nil {
		// Not fatal: the broker interprets a null start id on a
		// non-durable subscription as "start from InitialPosition".
		// Logged by the actor at construction time (see NewConsumer).
	}

	return nil
}

func (c Config) durable() bool {
	return c.Mode == SubscriptionDurable
}
