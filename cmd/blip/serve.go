package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/srg/blip/internal/groutine"
	"github.com/srg/blip/internal/peripheral"
	goble "github.com/srg/blip/internal/peripheral/go-ble"
	"github.com/srg/blip/internal/profile"
	"github.com/srg/blip/pkg/config"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Advertise a characteristic that publishes a counter and echoes writes",
	Long: `Advertises the configured service with a single characteristic.

Subscribed centrals receive a little-endian uint32 counter every --interval.
When the stack's transmit queue is full the counter keeps counting and the next
value is sent once the queue drains. Values written by centrals are printed,
stored as the characteristic value and acknowledged.

Examples:
  # Advertise with defaults
  blip serve

  # Custom name and a faster counter
  blip serve --name thermo --interval 250ms

  # Load settings from a file, with debug logging
  blip serve --config blip.yaml --log-level debug`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	serveName     string
	serveInterval time.Duration
)

func init() {
	serveCmd.Flags().StringVar(&serveName, "name", "", "Advertised device name (overrides config)")
	serveCmd.Flags().DurationVar(&serveInterval, "interval", 0, "Counter publish interval (overrides config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if serveName != "" {
		cfg.DeviceName = serveName
	}
	if serveInterval > 0 {
		cfg.NotifyInterval = serveInterval
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := configureLogger(cmd, cfg)
	if err != nil {
		return err
	}

	// All arguments validated - don't show usage on runtime errors
	cmd.SilenceUsage = true

	// Setup context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		<-sigChan
		cancel()
	}()

	char, err := buildCharacteristic(cfg, logger)
	if err != nil {
		return err
	}
	svc, err := goble.NewService(cfg.ServiceUUID, []*peripheral.Characteristic{char},
		goble.WithLogger(logger),
		goble.WithWriteResponseTimeout(cfg.WriteResponseTimeout),
		goble.WithNotifyQueueDepth(cfg.NotifyQueueDepth))
	if err != nil {
		return err
	}

	p, err := goble.NewPeripheral(logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := p.Close(); err != nil {
			logger.WithError(err).Warn("Failed to stop BLE device")
		}
	}()
	if err := p.AddService(svc); err != nil {
		return err
	}

	s := newServer(char, cmd.OutOrStdout(), logger)
	s.start(ctx, cfg)
	defer s.stop()

	fmt.Fprintf(os.Stderr, "Advertising as %q with characteristic %s. Press Ctrl+C to stop...\n",
		cfg.DeviceName, char.UUID())
	return p.Advertise(ctx, cfg.DeviceName)
}

// buildCharacteristic creates the served characteristic from cfg.
func buildCharacteristic(cfg *config.Config, logger *logrus.Logger) (*peripheral.Characteristic, error) {
	props, err := cfg.ParsedProperties()
	if err != nil {
		return nil, err
	}
	perms, err := cfg.ParsedPermissions()
	if err != nil {
		return nil, err
	}

	codec := profile.IntegerCodec[uint32]{Key: "counter"}
	initial, err := codec.Encode(uint32(0))
	if err != nil {
		return nil, err
	}

	p, err := profile.New(cfg.CharacteristicUUID,
		profile.WithName("Counter"),
		profile.WithProperties(props),
		profile.WithPermissions(perms),
		profile.WithCodec(codec),
		profile.WithInitialValue(initial))
	if err != nil {
		return nil, err
	}
	return peripheral.NewCharacteristic(p, peripheral.WithLogger(logger))
}

// server publishes the counter and answers writes for one characteristic.
type server struct {
	char   *peripheral.Characteristic
	out    io.Writer
	logger *logrus.Logger

	counter uint32
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

func newServer(char *peripheral.Characteristic, out io.Writer, logger *logrus.Logger) *server {
	return &server{char: char, out: out, logger: logger}
}

func (s *server) start(ctx context.Context, cfg *config.Config) {
	ctx, s.cancel = context.WithCancel(ctx)

	if s.char.Properties().CanNotify() {
		groutine.GoTracked(ctx, &s.wg, "counter-publisher", func(ctx context.Context) {
			s.publish(ctx, cfg.NotifyInterval)
		})
	}
	if s.char.Permissions().CanWrite() {
		stream := s.char.StartRespondingToWriteRequests(cfg.WriteRequestCapacity)
		groutine.GoTracked(ctx, &s.wg, "write-echo", func(ctx context.Context) {
			s.echoWrites(ctx, stream)
		})
	}
}

func (s *server) stop() {
	s.char.StopRespondingToWriteRequests()
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// publish bumps the counter every interval and offers it to subscribers.
func (s *server) publish(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick advances the counter once. The value is stored even when nobody receives it.
func (s *server) tick() bool {
	s.counter++
	sent := s.char.UpdateValueWith(s.counter)
	s.logger.WithFields(logrus.Fields{
		"counter": s.counter,
		"sent":    sent,
	}).Debug("Counter published")
	return sent
}

// echoWrites prints, stores and acknowledges write requests until the stream stops.
func (s *server) echoWrites(ctx context.Context, stream *peripheral.WriteRequestStream) {
	for {
		req, ok := stream.Next(ctx)
		if !ok {
			return
		}
		s.handleWrite(req)
	}
}

func (s *server) handleWrite(req peripheral.WriteRequest) {
	value := req.Value()

	central := color.New(color.FgCyan).SprintFunc()
	data := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(s.out, "%s wrote %s (%d bytes)\n", central(req.Central().ID()), data(hex.EncodeToString(value)), len(value))

	if req.Offset() != 0 {
		s.char.RespondToRequest(req, peripheral.ResultInvalidOffset)
		return
	}
	s.char.UpdateValue(value)
	s.char.RespondToRequest(req, peripheral.ResultSuccess)
}
