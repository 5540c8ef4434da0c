// Package config loads a node-model set and deployment settings from a YAML
// or JSON file (and environment overrides) into the types orchestrator.New
// and transport.NewBinding expect. It deliberately does not reproduce the ROS
// launch-file/remapping generator a real ROS2 deployment would use alongside
// it: producing launch files is a build-time concern for a specific
// middleware, orthogonal to deciding what the orchestrator itself schedules.
package config

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/ottojo/ros2-def/orchestrator"
)

// CauseConfig describes one declared input of a node: exactly one of Topic or
// TimerPeriodNs must be set.
type CauseConfig struct {
	Topic         string `mapstructure:"topic"`
	TimerPeriodNs int64  `mapstructure:"timer_period_ns"`
}

// EffectConfig describes one declared output produced in response to a
// cause: exactly one of PublishTopic, Status or CallService should be set.
type EffectConfig struct {
	PublishTopic string `mapstructure:"publish_topic"`
	Status       bool   `mapstructure:"status"`
	CallService  string `mapstructure:"call_service"`
}

// NodeInputConfig pairs one declared cause with the ordered effects it
// produces.
type NodeInputConfig struct {
	Cause   CauseConfig    `mapstructure:"cause"`
	Effects []EffectConfig `mapstructure:"effects"`
}

// NodeConfig describes one node's static model.
type NodeConfig struct {
	Name   string            `mapstructure:"name"`
	Inputs []NodeInputConfig `mapstructure:"inputs"`
}

// DeploymentConfig is the top-level file schema: the active node models plus
// the topic sets the orchestrator and transport binding need to know about.
type DeploymentConfig struct {
	Nodes               []NodeConfig `mapstructure:"nodes"`
	ExternalInputTopics []string     `mapstructure:"external_input_topics"`
	OutputTopics        []string     `mapstructure:"output_topics"`
	StatusTopic         string       `mapstructure:"status_topic"`
	Broker              string       `mapstructure:"broker"`
	ClientID            string       `mapstructure:"client_id"`

	// LogPath, if set, is the SQLite file the orchestrator records its
	// publication and reconfiguration history to. Left empty, a deployment
	// gets no durable log (an in-memory one is still wired in by the CLI so
	// an operator can inspect the current run, but nothing survives restart).
	LogPath string `mapstructure:"log_path"`
}

// Load reads a DeploymentConfig from path (any format viper supports: yaml,
// json, toml) merged with ORCHESTRATOR_-prefixed environment overrides.
func Load(path string) (*DeploymentConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("orchestrator")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}

	var cfg DeploymentConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config %q: %w", path, err)
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "orchestrator-sim-" + uuid.NewString()
	}
	return &cfg, nil
}

// BuildModelSet converts the file-described nodes into an *orchestrator.ModelSet,
// returning a ConfigError-wrapped failure if two nodes share a name or a cause
// or effect entry is malformed.
func (c *DeploymentConfig) BuildModelSet() (*orchestrator.ModelSet, error) {
	models := make([]orchestrator.NodeModel, 0, len(c.Nodes))
	for _, nc := range c.Nodes {
		causes := make([]orchestrator.Cause, 0, len(nc.Inputs))
		effectsByCause := make(map[orchestrator.Cause][]orchestrator.Effect, len(nc.Inputs))

		for _, input := range nc.Inputs {
			cause, err := buildCause(input.Cause)
			if err != nil {
				return nil, &orchestrator.ConfigError{Reason: fmt.Sprintf("node %q: %v", nc.Name, err)}
			}
			effects := make([]orchestrator.Effect, 0, len(input.Effects))
			for _, ec := range input.Effects {
				effect, err := buildEffect(ec)
				if err != nil {
					return nil, &orchestrator.ConfigError{Reason: fmt.Sprintf("node %q: %v", nc.Name, err)}
				}
				effects = append(effects, effect)
			}
			causes = append(causes, cause)
			effectsByCause[cause] = effects
		}

		models = append(models, orchestrator.NewStaticNodeModel(nc.Name, causes, effectsByCause))
	}

	return orchestrator.NewModelSet(models)
}

func buildCause(cc CauseConfig) (orchestrator.Cause, error) {
	switch {
	case cc.Topic != "" && cc.TimerPeriodNs != 0:
		return nil, fmt.Errorf("cause declares both topic and timer_period_ns")
	case cc.Topic != "":
		return orchestrator.TopicInput{Topic: cc.Topic}, nil
	case cc.TimerPeriodNs != 0:
		return orchestrator.TimerInput{PeriodNs: cc.TimerPeriodNs}, nil
	default:
		return nil, fmt.Errorf("cause declares neither topic nor timer_period_ns")
	}
}

func buildEffect(ec EffectConfig) (orchestrator.Effect, error) {
	set := 0
	if ec.PublishTopic != "" {
		set++
	}
	if ec.Status {
		set++
	}
	if ec.CallService != "" {
		set++
	}
	if set != 1 {
		return nil, fmt.Errorf("effect must declare exactly one of publish_topic, status, call_service")
	}

	switch {
	case ec.PublishTopic != "":
		return orchestrator.TopicPublish{Topic: ec.PublishTopic}, nil
	case ec.Status:
		return orchestrator.StatusPublish{}, nil
	default:
		return orchestrator.ServiceCall{Service: ec.CallService}, nil
	}
}
