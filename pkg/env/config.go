// Package env provides the common configuration of the servo commands.
package env

import (
	"flag"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/blackmoon/servo.go/pkg/uart"
	"github.com/blackmoon/servo.go/pkg/uart/websocket"
)

// Config provides common options of the commands.
type Config struct {
	// Port is a serial device path, or a ws:// URL of a simulated board.
	Port string
	// Baud is the baud rate of a serial Port.
	Baud int
	// MQTTBrokerURL specifies the MQTT broker to use.
	// e.g. mqtt://host:port/topic-prefix
	MQTTBrokerURL string
	// BoardID names the board on MQTT.
	BoardID string
	// EEPROMImage is the file persisting the simulated EEPROM.
	EEPROMImage string
	// Listen is the address the simulator serves its UART on.
	Listen string
}

var defaultConfig = Config{
	Port:          "ws://localhost:8330/uart",
	Baud:          uart.DefaultBaudRate,
	MQTTBrokerURL: "mqtt://localhost:1883/servo/",
	EEPROMImage:   "eeprom.bin",
	Listen:        ":8330",
}

func init() {
	defaultConfig.BoardID = MachineID()
	loadEnv(&defaultConfig, os.Getenv)
}

func loadEnv(conf *Config, getenv func(string) string) {
	if val := getenv("SERVO_PORT"); val != "" {
		conf.Port = val
	}
	if val := getenv("SERVO_BAUD"); val != "" {
		if baud, err := strconv.Atoi(val); err == nil {
			conf.Baud = baud
		}
	}
	if val := getenv("SERVO_MQTT_URL"); val != "" {
		conf.MQTTBrokerURL = val
	}
	if val := getenv("SERVO_ID"); val != "" {
		conf.BoardID = val
	}
	if val := getenv("SERVO_EEPROM"); val != "" {
		conf.EEPROMImage = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Port, "port", defaultConfig.Port, "Serial device or ws:// URL of the board")
	flag.IntVar(&defaultConfig.Baud, "baud", defaultConfig.Baud, "Serial baud rate")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL")
	flag.StringVar(&defaultConfig.BoardID, "id", defaultConfig.BoardID, "Board ID")
}

// SetupSimFlags sets command line flags of the simulator.
func SetupSimFlags() {
	flag.StringVar(&defaultConfig.EEPROMImage, "eeprom", defaultConfig.EEPROMImage, "EEPROM image file")
	flag.StringVar(&defaultConfig.Listen, "listen", defaultConfig.Listen, "Address to serve the UART websocket")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// IsWebsocket indicates Port is a websocket URL.
func (c *Config) IsWebsocket() bool {
	return strings.HasPrefix(c.Port, "ws://") || strings.HasPrefix(c.Port, "wss://")
}

// OpenLink opens the byte stream to the board.
func (c *Config) OpenLink() (io.ReadWriteCloser, error) {
	if c.IsWebsocket() {
		link, err := websocket.Dial(c.Port)
		if err != nil {
			return nil, err
		}
		return link, nil
	}
	return uart.OpenSerial(c.Port, c.Baud)
}

// MustOpenLink opens the link and fails on error.
func (c *Config) MustOpenLink() io.ReadWriteCloser {
	link, err := c.OpenLink()
	if err != nil {
		log.Fatalln(err)
	}
	return link
}
