// Package nsqsink implements deadletter.Sink on top of a go-nsq producer,
// adapted from the teacher's infra/nsq Producer construction.
package nsqsink

import (
	"encoding/json"
	"fmt"
	"log"

	gonsq "github.com/nsqio/go-nsq"

	"github.com/phuhao00/actorcore/config"
	"github.com/phuhao00/actorcore/deadletter"
)

// Sink publishes every dropped message to an NSQ topic as JSON, rather
// than dropping it silently, so an operator can replay or inspect it.
type Sink struct {
	producer *gonsq.Producer
	topic    string
}

func New(cfg config.NSQConfig) (*Sink, error) {
	nsqCfg := gonsq.NewConfig()
	topic := cfg.Topic
	if topic == "" {
		topic = "actorcore.deadletters"
	}

	if len(cfg.NSQDAddresses) > 0 {
		var lastErr error
		for _, addr := range cfg.NSQDAddresses {
			p, err := gonsq.NewProducer(addr, nsqCfg)
			if err == nil {
				log.Printf("nsqsink: producer connected to %s", addr)
				return &Sink{producer: p, topic: topic}, nil
			}
			lastErr = err
			log.Printf("nsqsink: failed to connect to %s: %v", addr, err)
		}
		return nil, fmt.Errorf("nsqsink: failed to connect to any nsqd address: %w", lastErr)
	}

	if cfg.NSQDAddr == "" {
		return nil, fmt.Errorf("nsqsink: no nsqd address configured")
	}
	p, err := gonsq.NewProducer(cfg.NSQDAddr, nsqCfg)
	if err != nil {
		return nil, fmt.Errorf("nsqsink: connecting to %s: %w", cfg.NSQDAddr, err)
	}
	return &Sink{producer: p, topic: topic}, nil
}

type wireMessage struct {
	Tag         int32  `json:"tag"`
	Source      string `json:"source"`
	Dest        string `json:"dest"`
	Interaction string `json:"interaction"`
	Protocol    string `json:"protocol"`
	Domain      string `json:"domain"`
}

func (s *Sink) Offer(msg deadletter.ActorMessage) {
	wire := wireMessage{
		Tag:         msg.Tag,
		Source:      fmt.Sprintf("%x", msg.Source),
		Dest:        fmt.Sprintf("%x", msg.Dest),
		Interaction: fmt.Sprintf("%x", msg.Interaction),
		Protocol:    msg.Protocol,
		Domain:      msg.Domain,
	}
	body, err := json.Marshal(wire)
	if err != nil {
		log.Printf("nsqsink: marshaling dead letter: %v", err)
		return
	}
	if err := s.producer.Publish(s.topic, body); err != nil {
		log.Printf("nsqsink: publish to %s failed: %v", s.topic, err)
	}
}

func (s *Sink) Stop() {
	s.producer.Stop()
}
