package configs

import "github.com/spf13/viper"

// EventsConfig 控制事件发布的开关（全局与分主题）。
type EventsConfig struct {
	Enabled  bool                 `mapstructure:"enabled"` // 总开关
	Account  AccountEventsConfig  `mapstructure:"account"`
	Resource ResourceEventsConfig `mapstructure:"resource"`
	Security bool                 `mapstructure:"security"` // 安全告警事件
}

// AccountEventsConfig 账号生命周期事件开关。
type AccountEventsConfig struct {
	Registered  bool `mapstructure:"registered"`
	Activated   bool `mapstructure:"activated"`
	Deactivated bool `mapstructure:"deactivated"`
}

// ResourceEventsConfig 资源事件开关。
type ResourceEventsConfig struct {
	Stored  bool `mapstructure:"stored"`
	Deleted bool `mapstructure:"deleted"`
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("events.enabled", true)

	v.SetDefault("events.account.registered", true)
	v.SetDefault("events.account.activated", true)
	v.SetDefault("events.account.deactivated", true)

	v.SetDefault("events.resource.stored", true)
	v.SetDefault("events.resource.deleted", true)

	// 安全告警默认开启，管理员邮件之外的第二通道
	v.SetDefault("events.security", true)
}
