package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mazen160/go-random"
	"github.com/sirupsen/logrus"

	"github.com/mbalug7/go-i2c-helper/pkg/bridge"
	"github.com/mbalug7/go-i2c-helper/pkg/busclear"
	"github.com/mbalug7/go-i2c-helper/pkg/common"
	"github.com/mbalug7/go-i2c-helper/pkg/config"
	"github.com/mbalug7/go-i2c-helper/pkg/exampledev"
	"github.com/mbalug7/go-i2c-helper/pkg/hal"
	"github.com/mbalug7/go-i2c-helper/pkg/logging"
	"github.com/mbalug7/go-i2c-helper/pkg/regbus"
	"github.com/mbalug7/go-i2c-helper/pkg/wire"
)

func main() {
	configPath := flag.String("config", "i2c-helper.yaml", "path to the YAML config file")
	interval := flag.Duration("interval", time.Second, "time between two value reads")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}

	// a hung slave must be released before the transport owns the pins
	if cfg.Recovery.Enabled {
		if err := clearBus(cfg, logger); err != nil {
			logger.Fatal(err)
		}
	}

	tr, closer, err := openTransport(cfg, logger)
	if err != nil {
		logger.Fatal(err)
	}
	defer func() {
		if err := closer.Close(); err != nil {
			logger.Errorf("failed to close transport: %s", err)
		}
	}()

	regs := regbus.NewDevice(tr, regbus.WithLogger(logger), regbus.WithReadTimeout(time.Second))
	dev := exampledev.NewDevice(regs, logger)
	if err := dev.Begin(cfg.DeviceAddress()); err != nil {
		logger.Fatal(err)
	}
	logger.Info(dev.GetConfiguration())

	// wait for keyboard signal interrupt, read values until then
	signalInterruptChan := make(chan os.Signal, 1)
	signal.Notify(signalInterruptChan, os.Interrupt, syscall.SIGTERM)
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-signalInterruptChan:
			return
		case <-ticker.C:
			readValues(dev, logger)
		}
	}
}

func readValues(dev *exampledev.Device, logger logrus.FieldLogger) {
	x, err := dev.ReadValueX()
	if err != nil {
		logger.Errorf("failed to read value x: %s", err)
		return
	}
	y, err := dev.ReadValueY()
	if err != nil {
		logger.Errorf("failed to read value y: %s", err)
		return
	}
	logger.WithFields(logrus.Fields{"x": x, "y": y}).Info("values")
}

func openTransport(cfg *config.Config, logger logrus.FieldLogger) (hal.Transport, io.Closer, error) {
	switch cfg.Transport {
	case config.TransportBridge:
		b, err := bridge.Open(bridge.Config{Port: cfg.Bridge.Port, Baud: cfg.Bridge.Baud}, logger)
		if err != nil {
			return nil, nil, err
		}
		return b, b, nil
	default:
		bus, err := common.OpenPeriphBus(cfg.Bus)
		if err != nil {
			return nil, nil, err
		}
		return wire.NewFromPeriph(bus), bus, nil
	}
}

// clearBus runs one bus recovery with the configured backend. Every run gets
// a random id so its log lines can be told apart.
func clearBus(cfg *config.Config, logger logrus.FieldLogger) error {
	id, err := random.String(8)
	if err != nil {
		return fmt.Errorf("failed to generate recovery run id: %w", err)
	}
	entry := logger.WithFields(logrus.Fields{"run": id, "backend": cfg.Recovery.Backend})

	settle, err := cfg.Recovery.SettleDelay()
	if err != nil {
		return err
	}
	opts := []busclear.Option{
		busclear.WithLogger(entry),
		busclear.WithSettleDelay(settle),
	}

	var sda, scl hal.Line
	switch cfg.Recovery.Backend {
	case config.BackendPeriph:
		if cfg.Recovery.SDA != "" {
			sdaLine, err := common.PeriphLineByName(cfg.Recovery.SDA)
			if err != nil {
				return err
			}
			sclLine, err := common.PeriphLineByName(cfg.Recovery.SCL)
			if err != nil {
				return err
			}
			sda, scl = sdaLine, sclLine
			break
		}
		bus, err := common.OpenPeriphBus(cfg.Bus)
		if err != nil {
			return err
		}
		defer bus.Close()
		sdaLine, sclLine, err := common.PeriphBusLines(bus)
		if err != nil {
			return err
		}
		sda, scl = sdaLine, sclLine
		opts = append(opts, busclear.WithController(&common.PeriphController{SDA: sdaLine.Pin(), SCL: sclLine.Pin()}))
	default:
		sdaOffset, sclOffset, err := cfg.Recovery.LineOffsets()
		if err != nil {
			return err
		}
		lines, err := common.NewBusLines(cfg.Recovery.Chip, sdaOffset, sclOffset)
		if err != nil {
			return err
		}
		defer func() {
			if err := lines.Close(); err != nil {
				entry.Errorf("failed to release bus lines: %s", err)
			}
		}()
		sda, scl = lines.SDA, lines.SCL
	}

	status, err := busclear.New(opts...).Clear(sda, scl)
	if err != nil {
		return err
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("bus recovery failed with status %d: %w", status, err)
	}
	return nil
}
