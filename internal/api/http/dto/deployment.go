package dto

import "time"

type ConfigValue struct {
	Value string `json:"value"`
}

type DeployRequest struct {
	Username  string                 `json:"username"`
	SessionID string                 `json:"session_id"`
	AppName   string                 `json:"appname"`
	BotType   string                 `json:"bot_type"`
	Config    map[string]ConfigValue `json:"config"`
}

type DeployResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	AppName string `json:"appName"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}

type BotResponse struct {
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}

type ListBotsResponse struct {
	Bots []BotResponse `json:"bots"`
}

type BotTypesResponse struct {
	BotTypes []string `json:"botTypes"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
