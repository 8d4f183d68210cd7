package configs

import "github.com/spf13/viper"

// MailConfig SMTP 发信配置.
type MailConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"         rule:"min=0,max=65535"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"     json:"-"`
	From        string `mapstructure:"from"         rule:"omitempty,email"`
	TLSPolicy   string `mapstructure:"tls_policy"   rule:"oneof=mandatory opportunistic none"`
	AdminEmail  string `mapstructure:"admin_email"  rule:"omitempty,email"`
	CompanyName string `mapstructure:"company_name"`
}

func (c *MailConfig) setDefaults(v *viper.Viper) {
	// 未启用时使用日志发送器，只记录不投递
	v.SetDefault("mail.enabled", false)
	v.SetDefault("mail.host", "localhost")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "noreply@photoarchive.local")
	v.SetDefault("mail.tls_policy", "opportunistic")
	v.SetDefault("mail.admin_email", "admin@photoarchive.local")
	v.SetDefault("mail.company_name", "Byinfo Group")
}
