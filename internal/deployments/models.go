package deployments

import (
	"time"
)

// Deployment is one provisioned bot app. Records are only ever inserted and
// deleted.
type Deployment struct {
	ID          string
	Owner       string
	AppName     string
	BotType     string
	AccessToken string
	CreatedAt   time.Time
	ExtraConfig ExtraConfig
}

// ExtraConfig is persisted alongside the record for later use by the
// provisioned app.
type ExtraConfig struct {
	SessionID string            `json:"session_id,omitempty"`
	Config    map[string]string `json:"config,omitempty"`
}

// Bot is the public view of a deployment returned by listings.
type Bot struct {
	Name      string
	Type      string
	CreatedAt time.Time
}

type DeployRequest struct {
	Owner     string
	SessionID string
	AppName   string
	BotType   string
	Config    map[string]string
}

type DeployResult struct {
	Token   string
	AppName string
}
