package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	GPS      GPSConfig      `yaml:"gps"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Time     TimeConfig     `yaml:"time"`
	Button   ButtonConfig   `yaml:"button"`
	Display  DisplayConfig  `yaml:"display"`
	Sensor   SensorConfig   `yaml:"sensor"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	UDP      UDPConfig      `yaml:"udp"`
	Log      LogConfig      `yaml:"log"`
	Sim      SimConfig      `yaml:"sim"`
}

type GPSConfig struct {
	// Driver is termios, goserial or sim.
	Driver string `yaml:"driver"`
	// Device may be empty to auto-detect.
	Device          string        `yaml:"device"`
	Baud            int           `yaml:"baud"`
	PowerCyclePause time.Duration `yaml:"power_cycle_pause"`
}

type ScheduleConfig struct {
	DailySync       TimeOfDay     `yaml:"daily_sync"`
	RetryAfter      time.Duration `yaml:"retry_after"`
	PollInterval    time.Duration `yaml:"poll_interval"`
	MissedPollLimit int           `yaml:"missed_poll_limit"`
	// MaxPowerCycles bounds module power cycles per acquisition attempt.
	MaxPowerCycles int `yaml:"max_power_cycles"`
	// LoopInterval paces the cooperative loop while a process is active.
	LoopInterval time.Duration `yaml:"loop_interval"`
	MenuTimeout  time.Duration `yaml:"menu_timeout"`
}

type TimeConfig struct {
	// Policy names the DST rule set. Only central_europe is built in.
	Policy string `yaml:"policy"`
	// RTCDevice, when set, mirrors every clock write to a kernel RTC
	// (e.g. /dev/rtc0).
	RTCDevice string `yaml:"rtc_device"`
}

type ButtonConfig struct {
	Enable bool `yaml:"enable"`
	// GPIO is BCM numbering.
	GPIO int `yaml:"gpio"`
}

type DisplayConfig struct {
	// Driver is epaper, memory or none.
	Driver  string `yaml:"driver"`
	SPIPort string `yaml:"spi_port"`
	// FramePath makes the memory driver write each frame as PNG.
	FramePath  string `yaml:"frame_path"`
	TimeFormat string `yaml:"time_format"`
	DateFormat string `yaml:"date_format"`
}

type SensorConfig struct {
	Enable  bool   `yaml:"enable"`
	I2CBus  string `yaml:"i2c_bus"`
	Address uint16 `yaml:"address"`
}

type MQTTConfig struct {
	Enable   bool          `yaml:"enable"`
	Broker   string        `yaml:"broker"`
	ClientID string        `yaml:"client_id"`
	Topic    string        `yaml:"topic"`
	QoS      byte          `yaml:"qos"`
	Retain   bool          `yaml:"retain"`
	Timeout  time.Duration `yaml:"timeout"`
}

type UDPConfig struct {
	Enable bool `yaml:"enable"`
	// Dest is host:port, typically the subnet broadcast address.
	Dest string `yaml:"dest"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type SimConfig struct {
	Enable   bool          `yaml:"enable"`
	Interval time.Duration `yaml:"interval"`
	NoFixFor int           `yaml:"no_fix_for"`
	Silent   bool          `yaml:"silent"`
	// Speed runs the simulated RTC faster than wall time.
	Speed float64 `yaml:"speed"`
}

// TimeOfDay is written as "HH:MM:SS" in YAML.
type TimeOfDay struct {
	Hour, Minute, Second int
}

func (t *TimeOfDay) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	tm, err := time.Parse("15:04:05", strings.TrimSpace(s))
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("time of day %q: want HH:MM:SS", s)
	}
	return TimeOfDay{Hour: tm.Hour(), Minute: tm.Minute(), Second: tm.Second()}, nil
}

// Default returns a configuration with every default applied.
func Default() Config {
	var cfg Config
	applyDefaults(&cfg)
	return cfg
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	if cfg.Sim.Enable {
		cfg.EnableSim()
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// EnableSim switches the hardware-facing sections to their simulated
// counterparts.
func (c *Config) EnableSim() {
	c.Sim.Enable = true
	c.GPS.Driver = "sim"
	c.Time.RTCDevice = ""
	c.Button.Enable = false
	c.Sensor.Enable = false
	if c.Display.Driver != "none" {
		c.Display.Driver = "memory"
	}
}

func applyDefaults(cfg *Config) {
	if cfg.GPS.Driver == "" {
		cfg.GPS.Driver = "termios"
	}
	if cfg.GPS.Baud == 0 {
		cfg.GPS.Baud = 9600
	}
	if cfg.GPS.PowerCyclePause <= 0 {
		cfg.GPS.PowerCyclePause = 10 * time.Millisecond
	}

	if cfg.Schedule.DailySync == (TimeOfDay{}) {
		cfg.Schedule.DailySync = TimeOfDay{Hour: 4, Minute: 0, Second: 30}
	}
	if cfg.Schedule.RetryAfter == 0 {
		cfg.Schedule.RetryAfter = 20 * time.Second
	}
	if cfg.Schedule.PollInterval <= 0 {
		cfg.Schedule.PollInterval = time.Second
	}
	if cfg.Schedule.MissedPollLimit <= 0 {
		cfg.Schedule.MissedPollLimit = 20
	}
	if cfg.Schedule.MaxPowerCycles == 0 {
		cfg.Schedule.MaxPowerCycles = 2
	}
	if cfg.Schedule.LoopInterval <= 0 {
		cfg.Schedule.LoopInterval = 50 * time.Millisecond
	}
	if cfg.Schedule.MenuTimeout <= 0 {
		cfg.Schedule.MenuTimeout = 20 * time.Second
	}

	if cfg.Time.Policy == "" {
		cfg.Time.Policy = "central_europe"
	}

	if cfg.Button.GPIO == 0 {
		cfg.Button.GPIO = 17
	}

	if cfg.Display.Driver == "" {
		cfg.Display.Driver = "epaper"
	}
	if cfg.Display.TimeFormat == "" {
		cfg.Display.TimeFormat = "%H:%M"
	}
	if cfg.Display.DateFormat == "" {
		cfg.Display.DateFormat = "%a %d.%m.%Y"
	}

	if cfg.Sensor.Address == 0 {
		cfg.Sensor.Address = 0x76
	}

	if cfg.MQTT.Topic == "" {
		cfg.MQTT.Topic = "wakeclock/sync"
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "wakeclock"
	}
	if cfg.MQTT.Timeout <= 0 {
		cfg.MQTT.Timeout = 5 * time.Second
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	if cfg.Sim.Interval <= 0 {
		cfg.Sim.Interval = time.Second
	}
	if cfg.Sim.Speed == 0 {
		cfg.Sim.Speed = 1
	}
}

func (c Config) Validate() error {
	switch c.GPS.Driver {
	case "termios", "goserial", "sim":
	default:
		return fmt.Errorf("gps.driver must be termios, goserial or sim (got %q)", c.GPS.Driver)
	}
	if c.GPS.Baud < 0 {
		return fmt.Errorf("gps.baud must be > 0")
	}

	if c.Schedule.RetryAfter < time.Second || c.Schedule.RetryAfter >= time.Minute {
		return fmt.Errorf("schedule.retry_after must be within [1s,60s)")
	}

	if c.Schedule.MaxPowerCycles < 0 {
		return fmt.Errorf("schedule.max_power_cycles must be >= 0")
	}

	if c.Time.Policy != "central_europe" {
		return fmt.Errorf("time.policy %q is not supported", c.Time.Policy)
	}

	if c.Button.Enable && c.Button.GPIO < 0 {
		return fmt.Errorf("button.gpio must be > 0")
	}

	switch c.Display.Driver {
	case "epaper", "memory", "none":
	default:
		return fmt.Errorf("display.driver must be epaper, memory or none (got %q)", c.Display.Driver)
	}

	if c.MQTT.Enable && c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required when mqtt.enable is true")
	}
	if c.MQTT.QoS > 2 {
		return fmt.Errorf("mqtt.qos must be 0, 1 or 2")
	}

	if c.UDP.Enable && c.UDP.Dest == "" {
		return fmt.Errorf("udp.dest is required when udp.enable is true")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error (got %q)", c.Log.Level)
	}

	if c.Sim.NoFixFor < 0 {
		return fmt.Errorf("sim.no_fix_for must be >= 0")
	}
	if c.Sim.Speed < 0 {
		return fmt.Errorf("sim.speed must be > 0")
	}
	return nil
}
