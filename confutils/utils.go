package confutils

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/ini.v1"

	"rbst/netplay"
)

//go:embed resources/defaultNetplay.ini
var defaultNetplay []byte

type NetplayConfig struct {
	LocalPort     int    `ini:"LocalPort"`
	RemoteAddress string `ini:"RemoteAddress"`
	RemotePort    int    `ini:"RemotePort"`
	Relay         string `ini:"Relay"`

	Rollback netplay.Properties `ini:"-"`
}

// ReadNetplay loads the netplay settings from fileName on top of the
// built in defaults. A missing file leaves the defaults.
func ReadNetplay(fileName string) (*NetplayConfig, error) {
	options := ini.LoadOptions{
		Insensitive:             false,
		IgnoreInlineComment:     false,
		SkipUnrecognizableLines: true,
		AllowShadows:            false,
	}

	sources := []interface{}{}
	if _, err := os.Stat(fileName); err == nil {
		sources = append(sources, fileName)
	} else if !os.IsNotExist(err) {
		return nil, err
	}
	iniFile, err := ini.LoadSources(options, defaultNetplay, sources...)
	if err != nil {
		return nil, fmt.Errorf("failed to read netplay config: %w", err)
	}

	var c NetplayConfig
	if err := iniFile.Section("Netplay").MapTo(&c); err != nil {
		return nil, fmt.Errorf("section Netplay: %w", err)
	}
	if err := iniFile.Section("Rollback").MapTo(&c.Rollback); err != nil {
		return nil, fmt.Errorf("section Rollback: %w", err)
	}
	if c.Rollback.DisconnectTimeout < c.Rollback.DisconnectNotifyStart {
		return nil, fmt.Errorf("DisconnectTimeout %d is shorter than DisconnectNotifyStart %d",
			c.Rollback.DisconnectTimeout, c.Rollback.DisconnectNotifyStart)
	}
	return &c, nil
}
