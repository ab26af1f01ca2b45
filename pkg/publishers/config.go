package publishers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Sink types accepted in the publishers file.
const (
	TypeSQS       = "sqs"
	TypeSNS       = "sns"
	TypeGCPPubSub = "gcp_pubsub"
	TypeHTTP      = "http"
)

const (
	defaultWebhookMethod  = "POST"
	defaultWebhookTimeout = 5
)

type publishersFile struct {
	Publishers []Config `json:"publishers" yaml:"publishers"`
}

// Config is one sink entry of the publishers file. Exactly the block matching
// Type is read.
type Config struct {
	ID        string          `json:"id" yaml:"id"`
	Type      string          `json:"type" yaml:"type"`
	Enabled   *bool           `json:"enabled" yaml:"enabled"`
	SQS       *SQSConfig      `json:"sqs" yaml:"sqs"`
	SNS       *SNSConfig      `json:"sns" yaml:"sns"`
	GCPPubSub *GCPQueueConfig `json:"gcp_pubsub" yaml:"gcp_pubsub"`
	HTTP      *WebhookConfig  `json:"http" yaml:"http"`
}

// SQSConfig addresses an SQS queue.
type SQSConfig struct {
	QueueURL string `json:"uri" yaml:"uri"`
	Region   string `json:"region" yaml:"region"`
}

// SNSConfig addresses an SNS topic.
type SNSConfig struct {
	TopicARN string `json:"topic_arn" yaml:"topic_arn"`
	Region   string `json:"region" yaml:"region"`
}

// GCPQueueConfig addresses a Pub/Sub topic. Application default credentials
// are used when CredentialsFile is empty.
type GCPQueueConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
}

// WebhookConfig describes an HTTP endpoint that receives each event as JSON.
type WebhookConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// IsEnabled reports whether the entry should be built. Entries default to on.
func (c Config) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// LoadEnabled reads the publishers file and returns its enabled entries,
// normalized and validated. Disabled entries are still validated.
func LoadEnabled(path string) ([]Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("publishers file path is empty")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}
	return parseEnabled(raw, filepath.Ext(path))
}

func parseEnabled(raw []byte, ext string) ([]Config, error) {
	var file publishersFile
	if err := decode(raw, ext, &file); err != nil {
		return nil, err
	}
	if len(file.Publishers) == 0 {
		return nil, errors.New("publishers file contains no publishers entries")
	}

	ids := make(map[string]bool, len(file.Publishers))
	var enabled []Config
	for i, c := range file.Publishers {
		c.normalize()
		if err := c.validate(); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if ids[c.ID] {
			return nil, fmt.Errorf("duplicate publisher id %q", c.ID)
		}
		ids[c.ID] = true
		if c.IsEnabled() {
			enabled = append(enabled, c)
		}
	}
	return enabled, nil
}

// decode picks the decoder by extension; without one YAML is tried, then JSON.
func decode(raw []byte, ext string, out *publishersFile) error {
	switch strings.ToLower(strings.TrimSpace(ext)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode yaml publishers: %w", err)
		}
		return nil
	case ".json":
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode json publishers: %w", err)
		}
		return nil
	}
	if yaml.Unmarshal(raw, out) == nil || json.Unmarshal(raw, out) == nil {
		return nil
	}
	return errors.New("publishers file format not recognized (expected YAML or JSON)")
}

func (c *Config) normalize() {
	c.ID = strings.TrimSpace(c.ID)
	c.Type = strings.ToLower(strings.TrimSpace(c.Type))
	if c.SQS != nil {
		c.SQS.QueueURL = strings.TrimSpace(c.SQS.QueueURL)
		c.SQS.Region = strings.TrimSpace(c.SQS.Region)
	}
	if c.SNS != nil {
		c.SNS.TopicARN = strings.TrimSpace(c.SNS.TopicARN)
		c.SNS.Region = strings.TrimSpace(c.SNS.Region)
	}
	if c.GCPPubSub != nil {
		c.GCPPubSub.ProjectID = strings.TrimSpace(c.GCPPubSub.ProjectID)
		c.GCPPubSub.Topic = strings.TrimSpace(c.GCPPubSub.Topic)
		c.GCPPubSub.CredentialsFile = strings.TrimSpace(c.GCPPubSub.CredentialsFile)
	}
	if w := c.HTTP; w != nil {
		w.URL = strings.TrimSpace(w.URL)
		w.Method = strings.ToUpper(strings.TrimSpace(w.Method))
		if w.Method == "" {
			w.Method = defaultWebhookMethod
		}
		if w.TimeoutSeconds <= 0 {
			w.TimeoutSeconds = defaultWebhookTimeout
		}
		headers := make(map[string]string, len(w.Headers))
		for k, v := range w.Headers {
			if k, v = strings.TrimSpace(k), strings.TrimSpace(v); k != "" && v != "" {
				headers[k] = v
			}
		}
		w.Headers = headers
	}
}

func (c Config) validate() error {
	if c.ID == "" {
		return errors.New("id is required")
	}
	var missing []string
	switch c.Type {
	case TypeSQS:
		if c.SQS == nil {
			return fmt.Errorf("publisher %q: sqs block required", c.ID)
		}
		missing = required(map[string]string{"sqs.uri": c.SQS.QueueURL, "sqs.region": c.SQS.Region})
	case TypeSNS:
		if c.SNS == nil {
			return fmt.Errorf("publisher %q: sns block required", c.ID)
		}
		missing = required(map[string]string{"sns.topic_arn": c.SNS.TopicARN, "sns.region": c.SNS.Region})
	case TypeGCPPubSub:
		if c.GCPPubSub == nil {
			return fmt.Errorf("publisher %q: gcp_pubsub block required", c.ID)
		}
		missing = required(map[string]string{"gcp_pubsub.project_id": c.GCPPubSub.ProjectID, "gcp_pubsub.topic": c.GCPPubSub.Topic})
	case TypeHTTP:
		if c.HTTP == nil {
			return fmt.Errorf("publisher %q: http block required", c.ID)
		}
		missing = required(map[string]string{"http.url": c.HTTP.URL})
	case "":
		return fmt.Errorf("publisher %q: type is required", c.ID)
	default:
		return fmt.Errorf("publisher %q: unknown type %q", c.ID, c.Type)
	}
	if len(missing) > 0 {
		return fmt.Errorf("publisher %q: missing %s", c.ID, strings.Join(missing, ", "))
	}
	return nil
}

// required lists the keys whose values are empty, sorted for stable errors.
func required(fields map[string]string) []string {
	var missing []string
	for k, v := range fields {
		if v == "" {
			missing = append(missing, k)
		}
	}
	slices.Sort(missing)
	return missing
}
