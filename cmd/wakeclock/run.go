package main

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/charmbracelet/log"

	"wakeclock/internal/config"
	"wakeclock/internal/device"
	"wakeclock/internal/face"
	"wakeclock/internal/gps"
	"wakeclock/internal/localtime"
	"wakeclock/internal/power"
	"wakeclock/internal/rtc"
	"wakeclock/internal/scheduler"
	"wakeclock/internal/telemetry"
)

// acceleratedSource runs a clock speed times faster than wall time,
// starting at base.
func acceleratedSource(base time.Time, speed float64, now func() time.Time) func() time.Time {
	if now == nil {
		now = time.Now
	}
	anchor := now()
	return func() time.Time {
		return base.Add(time.Duration(float64(now().Sub(anchor)) * speed))
	}
}

func run(ctx context.Context, cfg config.Config, lg *log.Logger) error {
	conv := localtime.NewConverter(localtime.CentralEurope{})

	source := time.Now
	if cfg.Sim.Enable && cfg.Sim.Speed != 1 {
		source = acceleratedSource(time.Now(), cfg.Sim.Speed, nil)
	}

	softOpts := rtc.SoftOptions{Source: source, Logger: lg}
	if cfg.Time.RTCDevice != "" {
		hw, err := rtc.OpenHWClock(cfg.Time.RTCDevice)
		if err != nil {
			return err
		}
		defer hw.Close()
		if start, err := hw.ReadTime(); err != nil {
			lg.Warn("wakeclock: rtc read failed, starting from system time", "err", err)
		} else {
			softOpts.Start = start
		}
		softOpts.Mirror = hw
	}
	clock := rtc.NewSoftRTC(softOpts)
	if err := clock.Start(ctx); err != nil {
		return err
	}
	defer clock.Close()

	port, dev, err := gps.OpenPort(gps.PortConfig{
		Driver: cfg.GPS.Driver,
		Device: cfg.GPS.Device,
		Baud:   cfg.GPS.Baud,
		Sim: gps.SimConfig{
			Interval: cfg.Sim.Interval,
			NoFixFor: cfg.Sim.NoFixFor,
			Silent:   cfg.Sim.Silent,
			Now:      source,
		},
	})
	if err != nil {
		return err
	}
	session := gps.NewSession(port, gps.Options{Logger: lg, PowerCyclePause: cfg.GPS.PowerCyclePause})
	if err := session.Start(ctx); err != nil {
		_ = port.Close()
		return err
	}
	defer session.Close()
	lg.Info("wakeclock: gps port open", "device", dev, "baud", cfg.GPS.Baud)

	pc := power.NewController(clock, power.Options{Logger: lg})
	if cfg.Button.Enable {
		release, err := pc.WatchButton(cfg.Button.GPIO)
		if err != nil {
			lg.Warn("wakeclock: wake button unavailable", "err", err)
		} else {
			defer release()
		}
	}

	var disp face.Display
	switch cfg.Display.Driver {
	case "epaper":
		ep, err := face.OpenEPaper(cfg.Display.SPIPort)
		if err != nil {
			return err
		}
		defer ep.Close()
		disp = ep
	case "memory":
		mem := face.NewMemoryDisplay(image.Rectangle{})
		mem.FramePath = cfg.Display.FramePath
		disp = mem
	}

	var sensor face.EnvSensor
	if cfg.Sensor.Enable {
		bmx, err := face.OpenBMX(cfg.Sensor.I2CBus, cfg.Sensor.Address)
		if err != nil {
			lg.Warn("wakeclock: environment sensor unavailable", "err", err)
		} else {
			defer bmx.Close()
			sensor = bmx
		}
	}

	panel := face.NewPanel(disp, clock, face.Options{
		Logger:     lg,
		Sensor:     sensor,
		TimeFormat: cfg.Display.TimeFormat,
		DateFormat: cfg.Display.DateFormat,
	})

	reporters := scheduler.Reporters{panel}
	if cfg.MQTT.Enable {
		pub, err := telemetry.NewPublisher(telemetry.Config{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Topic:    cfg.MQTT.Topic,
			QoS:      cfg.MQTT.QoS,
			Retain:   cfg.MQTT.Retain,
			Timeout:  cfg.MQTT.Timeout,
		}, lg)
		if err != nil {
			lg.Warn("wakeclock: mqtt unavailable", "err", err)
		} else {
			defer pub.Close()
			reporters = append(reporters, pub)
		}
	}

	if cfg.UDP.Enable {
		ann, err := telemetry.NewAnnouncer(cfg.UDP.Dest, lg)
		if err != nil {
			lg.Warn("wakeclock: udp announcer unavailable", "err", err)
		} else {
			defer ann.Close()
			reporters = append(reporters, ann)
		}
	}

	sched, err := scheduler.New(clock, pc, session, conv, scheduler.Config{
		DailySync: rtc.TimeOfDay{
			Hour:   cfg.Schedule.DailySync.Hour,
			Minute: cfg.Schedule.DailySync.Minute,
			Second: cfg.Schedule.DailySync.Second,
		},
		RetryAfter:      cfg.Schedule.RetryAfter,
		PollInterval:    cfg.Schedule.PollInterval,
		MissedPollLimit: cfg.Schedule.MissedPollLimit,
		MaxPowerCycles:  cfg.Schedule.MaxPowerCycles,
		Logger:          lg,
		Reporter:        reporters,
	})
	if err != nil {
		return err
	}

	d, err := device.New(sched, pc, panel, device.Config{
		LoopInterval: cfg.Schedule.LoopInterval,
		MenuTimeout:  cfg.Schedule.MenuTimeout,
		Logger:       lg,
	})
	if err != nil {
		return fmt.Errorf("device: %w", err)
	}
	return d.Run(ctx)
}
