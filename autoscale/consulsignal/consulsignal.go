// Package consulsignal implements autoscale.Signal by polling a Consul KV
// key, adapted from the teacher's infra/consul client construction.
package consulsignal

import (
	"fmt"

	"github.com/hashicorp/consul/api"

	"github.com/phuhao00/actorcore/autoscale"
	"github.com/phuhao00/actorcore/config"
)

// Signal reads "<resourceThreads>,<workers>" from a Consul KV key that an
// external pod-autoscaler controller writes to.
type Signal struct {
	client *api.Client
	key    string
}

func New(cfg config.ConsulConfig) (*Signal, error) {
	apiCfg := api.DefaultConfig()
	if cfg.Addr != "" {
		apiCfg.Address = cfg.Addr
	}
	client, err := api.NewClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("consulsignal: building client: %w", err)
	}
	key := cfg.Key
	if key == "" {
		key = "actorcore/desired-capacity"
	}
	return &Signal{client: client, key: key}, nil
}

func (s *Signal) Poll() (autoscale.Desired, error) {
	pair, _, err := s.client.KV().Get(s.key, nil)
	if err != nil {
		return autoscale.Desired{}, fmt.Errorf("consulsignal: KV get %s: %w", s.key, err)
	}
	if pair == nil {
		return autoscale.Desired{}, nil
	}
	var desired autoscale.Desired
	if _, err := fmt.Sscanf(string(pair.Value), "%d,%d", &desired.ResourceThreads, &desired.Workers); err != nil {
		return autoscale.Desired{}, fmt.Errorf("consulsignal: parsing KV value %q: %w", pair.Value, err)
	}
	return desired, nil
}
