package config

import (
	"github.com/tuanbk654123/QLCP-QLKH/internal/container"
	"github.com/tuanbk654123/QLCP-QLKH/internal/email"
	"github.com/tuanbk654123/QLCP-QLKH/internal/infrastructure/external/lark"
	"github.com/tuanbk654123/QLCP-QLKH/internal/infrastructure/messaging/nats"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Driver:              c.Database.Driver,
			Path:                c.Database.Path,
			MaxOpenConns:        c.Database.MaxOpenConns,
			MaxIdleConns:        c.Database.MaxIdleConns,
			ConnMaxLifetime:     c.Database.ConnMaxLifetime,
			MigrationsDir:       c.Database.MigrationsDir,
			MongoURI:            c.Database.Mongo.URI,
			MongoDatabase:       c.Database.Mongo.Database,
			MongoConnectTimeout: c.Database.Mongo.ConnectTimeout,
		},
		Server: container.ServerConfig{
			Host:         c.Server.Host,
			Port:         c.Server.Port,
			ReadTimeout:  c.Server.ReadTimeout,
			WriteTimeout: c.Server.WriteTimeout,
			Mode:         c.Server.Mode,
			UserIDHeader: c.Auth.UserIDHeader,
			RoleHeader:   c.Auth.RoleHeader,
			NameHeader:   c.Auth.NameHeader,
			PageSize:     c.Claims.PageSize,
		},
		Email: email.Config{
			SMTPServer:  c.Email.SMTPServer,
			SMTPPort:    c.Email.SMTPPort,
			SenderName:  c.Email.SenderName,
			SenderEmail: c.Email.SenderEmail,
			Password:    c.Email.Password,
			EnableSSL:   c.Email.EnableSSL,
		},
		Lark: lark.Config{
			AppID:     c.Lark.AppID,
			AppSecret: c.Lark.AppSecret,
		},
		NATS: nats.Config{
			URL:           c.NATS.URL,
			SubjectPrefix: c.NATS.SubjectPrefix,
			ClientName:    c.NATS.ClientName,
		},
		Realtime: container.RealtimeConfig{
			Enabled:        c.Realtime.Enabled,
			AllowedOrigins: c.Realtime.AllowedOrigins,
		},
	}
}
