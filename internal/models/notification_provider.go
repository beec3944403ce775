package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationProvider struct {
	ID       string `gorm:"primaryKey" json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`                            // discord, slack, gotify, telegram, generic, webhook
	URL      string `json:"url"`                             // The shoutrrr URL or webhook URL
	Config   string `json:"config"`                          // JSON payload template for custom webhooks
	Template string `json:"template" gorm:"default:minimal"` // minimal|detailed|custom
	Enabled  bool   `json:"enabled"`

	// Notification Preferences
	NotifyThreats     bool `json:"notify_threats" gorm:"default:true"`
	NotifyPrivacy     bool `json:"notify_privacy" gorm:"default:true"`
	NotifyPermissions bool `json:"notify_permissions" gorm:"default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (n *NotificationProvider) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if strings.TrimSpace(n.Template) == "" {
		if strings.TrimSpace(n.Config) != "" {
			n.Template = "custom"
		} else {
			n.Template = "minimal"
		}
	}
	return
}
