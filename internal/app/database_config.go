package app

import "github.com/charlesng35/volunteerhub/internal/database"

// ConnectionConfig converts DatabaseConfig into database.Open parameters.
func (c DatabaseConfig) ConnectionConfig() database.Config {
	return database.Config{
		Driver:          c.Driver,
		Path:            c.Path,
		DSN:             c.DSN,
		Host:            c.Host,
		Port:            c.Port,
		Name:            c.Name,
		User:            c.User,
		Password:        c.Password,
		Options:         c.Options,
		MaxOpenConns:    c.MaxOpenConns,
		MaxIdleConns:    c.MaxIdleConns,
		ConnMaxLifetime: c.ConnMaxLifetime,
	}
}
