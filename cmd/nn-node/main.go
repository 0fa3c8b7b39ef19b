// Command nn-node runs a standalone nn node: it registers one demo
// object, mutates it on a timer, and prints the directory it mirrors
// from every other node on the multicast group.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/ev3kit/nn"
	"github.com/ev3kit/nn/internal/logging"
	"github.com/ev3kit/nn/internal/wire"
)

func main() {
	var (
		port     = flag.Int("port", 0, "multicast port (0 uses the package default)")
		group    = flag.String("group", "", "multicast group address (empty uses the package default)")
		iface    = flag.String("iface", "", "network interface name to join the group on (empty picks automatically)")
		verbose  = flag.Bool("v", false, "verbose (debug-level) logging")
		kindFlag = flag.String("kind", "touch", "demo object kind: raw, touch, gyro, ultrasonic")
		interval = flag.Duration("interval", time.Second, "how often to mutate the demo object")
	)
	flag.Parse()

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	nodeUUID, err := uuidBytes()
	if err != nil {
		logger.Error("failed to generate node identity", "error", err)
		os.Exit(1)
	}

	cfg := nn.DefaultConfig()
	cfg.UUID = nodeUUID
	if *port != 0 {
		cfg.Port = *port
	}
	if *group != "" {
		cfg.Group = *group
	}
	cfg.InterfaceName = *iface

	metrics := nn.NewMetrics()
	node, err := nn.Initialize(cfg, &nn.Options{
		Logger:   logger,
		Observer: nn.NewMetricsObserver(metrics),
	})
	if err != nil {
		logger.Error("failed to initialize node", "error", err)
		os.Exit(1)
	}
	node.Start()
	defer node.Close()

	logger.Info("node started", "uuid", uuid.UUID(nodeUUID).String(), "group", cfg.Group, "port", cfg.Port)

	objType, payload := demoObject(*kindFlag)
	idx, err := node.AddObject(objType, payload)
	if err != nil {
		logger.Error("failed to register demo object", "error", err)
		os.Exit(1)
	}
	logger.Info("registered demo object", "idx", idx, "kind", *kindFlag)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	mutate := time.NewTicker(*interval)
	defer mutate.Stop()
	report := time.NewTicker(5 * time.Second)
	defer report.Stop()

	for {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal")
			snap := metrics.Snapshot()
			fmt.Printf("final metrics: sent=%d recv=%d dropped=%d\n", snap.DatagramsSent, snap.DatagramsRecv, snap.RecordsDropped)
			return

		case <-mutate.C:
			sample := byte(rand.Intn(256))
			if err := node.UpdateObject(idx, 0, []byte{sample}); err != nil {
				logger.Warn("update failed", "error", err)
			}

		case <-report.C:
			printDirectory(node)
		}
	}
}

func uuidBytes() ([16]byte, error) {
	var out [16]byte
	id, err := uuid.NewRandom()
	if err != nil {
		return out, err
	}
	copy(out[:], id[:])
	return out, nil
}

func demoObject(kind string) (wire.ObjectType, []byte) {
	switch kind {
	case "raw":
		return wire.ObjectTypeRaw, []byte{0}
	case "gyro":
		return wire.ObjectTypeGyro, []byte{0, 0}
	case "ultrasonic":
		return wire.ObjectTypeUltrasonic, []byte{0, 0, 0, 0}
	default:
		return wire.ObjectTypeTouch, []byte{0}
	}
}

func printDirectory(node *nn.Node) {
	uuids, err := node.ReadUUIDs()
	if err != nil {
		return
	}
	if len(uuids) == 0 {
		fmt.Println("directory: (no peers seen yet)")
		return
	}
	fmt.Printf("directory: %d peer(s)\n", len(uuids))
	for _, u := range uuids {
		objs, err := node.ReadObjects(u)
		if err != nil {
			continue
		}
		fmt.Printf("  %s: %d object(s)\n", uuid.UUID(u).String(), len(objs))
		for _, o := range objs {
			fmt.Printf("    [%d] type=0x%04x size=%d payload=%x\n", o.Idx, uint16(o.Type), o.Size, o.Payload)
		}
	}
}
